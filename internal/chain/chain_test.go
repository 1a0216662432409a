package chain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"math/big"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/set-night/clickpulse/internal/config"
	"github.com/set-night/clickpulse/internal/domain"
	"github.com/shopspring/decimal"
)

const testChainID = 11155111

type fakeClient struct {
	mu       sync.Mutex
	nonce    uint64
	txs      map[common.Hash]*types.Transaction
	pending  map[common.Hash]bool
	receipts map[common.Hash]*types.Receipt
	sendErr  error
	sent     []*types.Transaction
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		txs:      make(map[common.Hash]*types.Transaction),
		pending:  make(map[common.Hash]bool),
		receipts: make(map[common.Hash]*types.Receipt),
	}
}

func (f *fakeClient) TransactionByHash(ctx context.Context, hash common.Hash) (*types.Transaction, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	tx, ok := f.txs[hash]
	if !ok {
		return nil, false, ethereum.NotFound
	}
	return tx, f.pending[hash], nil
}

func (f *fakeClient) TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.receipts[hash]
	if !ok {
		return nil, ethereum.NotFound
	}
	return r, nil
}

func (f *fakeClient) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	return f.nonce, nil
}

func (f *fakeClient) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	return big.NewInt(2_000_000_000), nil
}

func (f *fakeClient) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, tx)
	f.txs[tx.Hash()] = tx
	f.pending[tx.Hash()] = true
	return nil
}

type rpcError struct {
	msg  string
	code int
}

func (e rpcError) Error() string  { return e.msg }
func (e rpcError) ErrorCode() int { return e.code }

func mustKey(t *testing.T) (*ecdsa.PrivateKey, common.Address) {
	t.Helper()
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	return key, crypto.PubkeyToAddress(key.PublicKey)
}

func personalSign(t *testing.T, key *ecdsa.PrivateKey, message string) string {
	t.Helper()
	sig, err := crypto.Sign(accounts.TextHash([]byte(message)), key)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	sig[crypto.RecoveryIDOffset] += 27
	return hexutil.Encode(sig)
}

func TestUnitConversion(t *testing.T) {
	tests := []struct {
		minor int64
		wei   string
	}{
		{minor: config.TotalDecimal, wei: "1000000000000000000"},
		{minor: config.TaskFee, wei: "100000000000000000"},
		{minor: 1, wei: "1000000000000"},
		{minor: 0, wei: "0"},
	}
	for _, tt := range tests {
		got := MinorToWei(tt.minor)
		if got.String() != tt.wei {
			t.Errorf("MinorToWei(%d) = %s, want %s", tt.minor, got, tt.wei)
		}
		if back := WeiToMinor(got); !back.Equal(decimal.NewFromInt(tt.minor)) {
			t.Errorf("WeiToMinor(%s) = %s, want %d", got, back, tt.minor)
		}
	}

	if got := WeiToMinor(big.NewInt(1)); got.IsZero() || got.IsInteger() {
		t.Errorf("WeiToMinor(1) = %s, want a non-zero fraction", got)
	}
}

func TestWalletVerifier(t *testing.T) {
	key, addr := mustKey(t)
	_, other := mustKey(t)
	good := personalSign(t, key, config.SignInMessage)

	tests := []struct {
		name      string
		address   string
		message   string
		signature string
		wantErr   bool
	}{
		{name: "valid", address: addr.Hex(), message: config.SignInMessage, signature: good},
		{name: "lowercase address", address: "0x" + common.Bytes2Hex(addr.Bytes()), message: config.SignInMessage, signature: good},
		{name: "different message", address: addr.Hex(), message: "something else", signature: good, wantErr: true},
		{name: "different signer", address: other.Hex(), message: config.SignInMessage, signature: good, wantErr: true},
		{name: "malformed signature", address: addr.Hex(), message: config.SignInMessage, signature: "0x1234", wantErr: true},
		{name: "malformed address", address: "bob", message: config.SignInMessage, signature: good, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := WalletVerifier{}.VerifySignature(tt.address, tt.message, tt.signature)
			if tt.wantErr {
				if !errors.Is(err, domain.ErrSignatureInvalid) {
					t.Fatalf("err = %v, want ErrSignatureInvalid", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("VerifySignature: %v", err)
			}
		})
	}
}

func TestNewTreasuryChecksAddress(t *testing.T) {
	key, addr := mustKey(t)
	_, other := mustKey(t)
	hexKey := hexutil.Encode(crypto.FromECDSA(key))

	if _, err := NewTreasury(newFakeClient(), testChainID, hexKey, addr.Hex()); err != nil {
		t.Fatalf("NewTreasury: %v", err)
	}
	if _, err := NewTreasury(newFakeClient(), testChainID, hexKey, other.Hex()); err == nil {
		t.Fatal("NewTreasury accepted a key for another address")
	}
}

func newTestTreasury(t *testing.T, client *fakeClient) *Treasury {
	t.Helper()
	key, addr := mustKey(t)
	tr, err := NewTreasury(client, testChainID, hexutil.Encode(crypto.FromECDSA(key)), addr.Hex())
	if err != nil {
		t.Fatalf("NewTreasury: %v", err)
	}
	return tr
}

func TestTreasuryPrepareAndSubmit(t *testing.T) {
	client := newFakeClient()
	client.nonce = 7
	tr := newTestTreasury(t, client)
	_, worker := mustKey(t)
	ctx := context.Background()

	first, err := tr.Prepare(ctx, worker.Hex(), 5)
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	second, err := tr.Prepare(ctx, worker.Hex(), 6)
	if err != nil {
		t.Fatalf("second Prepare: %v", err)
	}
	if first.Signature == second.Signature {
		t.Fatal("two transfers share a hash")
	}

	if err := tr.Submit(ctx, first); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if err := tr.Submit(ctx, second); err != nil {
		t.Fatalf("Submit second: %v", err)
	}

	sent := client.sent[0]
	if sent.Hash().Hex() != first.Signature {
		t.Fatalf("sent hash %s, prepared %s", sent.Hash().Hex(), first.Signature)
	}
	if sent.Nonce() != 7 || client.sent[1].Nonce() != 8 {
		t.Fatalf("nonces %d, %d; want 7, 8", sent.Nonce(), client.sent[1].Nonce())
	}
	if *sent.To() != worker || sent.Value().Cmp(MinorToWei(5)) != 0 {
		t.Fatalf("sent %s to %s, want %s to %s", sent.Value(), sent.To().Hex(), MinorToWei(5), worker.Hex())
	}
	from, err := types.Sender(types.LatestSignerForChainID(big.NewInt(testChainID)), sent)
	if err != nil || from != tr.Address() {
		t.Fatalf("sender = %s, %v; want treasury", from.Hex(), err)
	}
}

func TestTreasuryDiscardReusesNonce(t *testing.T) {
	client := newFakeClient()
	client.nonce = 3
	tr := newTestTreasury(t, client)
	_, worker := mustKey(t)
	ctx := context.Background()

	dropped, err := tr.Prepare(ctx, worker.Hex(), 5)
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	tr.Discard(dropped)

	next, err := tr.Prepare(ctx, worker.Hex(), 5)
	if err != nil {
		t.Fatalf("Prepare after discard: %v", err)
	}
	if err := tr.Submit(ctx, next); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if got := client.sent[0].Nonce(); got != 3 {
		t.Fatalf("nonce = %d, want 3 reused after discard", got)
	}
}

func TestTreasurySubmitErrors(t *testing.T) {
	tests := []struct {
		name       string
		sendErr    error
		wantFailed bool
		wantNil    bool
	}{
		{name: "node rejects", sendErr: rpcError{msg: "insufficient funds for gas * price + value", code: -32000}, wantFailed: true},
		{name: "already broadcast", sendErr: rpcError{msg: "already known", code: -32000}, wantNil: true},
		{name: "transport timeout", sendErr: context.DeadlineExceeded},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newFakeClient()
			tr := newTestTreasury(t, client)
			_, worker := mustKey(t)
			prepared, err := tr.Prepare(context.Background(), worker.Hex(), 1)
			if err != nil {
				t.Fatalf("Prepare: %v", err)
			}
			client.sendErr = tt.sendErr

			err = tr.Submit(context.Background(), prepared)
			switch {
			case tt.wantNil:
				if err != nil {
					t.Fatalf("Submit: %v", err)
				}
			case tt.wantFailed:
				if !errors.Is(err, domain.ErrTransferFailed) {
					t.Fatalf("Submit err = %v, want ErrTransferFailed", err)
				}
			default:
				if err == nil || errors.Is(err, domain.ErrTransferFailed) {
					t.Fatalf("Submit err = %v, want an ambiguous error", err)
				}
			}
		})
	}
}

func TestTreasuryStatus(t *testing.T) {
	client := newFakeClient()
	tr := newTestTreasury(t, client)
	_, worker := mustKey(t)
	ctx := context.Background()

	prepared, err := tr.Prepare(ctx, worker.Hex(), 3)
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	hash := common.HexToHash(prepared.Signature)

	check := func(want domain.TransferStatus) {
		t.Helper()
		got, err := tr.Status(ctx, prepared.Signature)
		if err != nil {
			t.Fatalf("Status: %v", err)
		}
		if got != want {
			t.Fatalf("Status = %s, want %s", got, want)
		}
	}

	check(domain.TransferStatusUnknown)
	if err := tr.Submit(ctx, prepared); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	check(domain.TransferStatusSubmitted)
	client.receipts[hash] = &types.Receipt{Status: types.ReceiptStatusFailed}
	check(domain.TransferStatusFailed)
	client.receipts[hash] = &types.Receipt{Status: types.ReceiptStatusSuccessful}
	check(domain.TransferStatusConfirmed)
}

func TestLookupPayment(t *testing.T) {
	payer, payerAddr := mustKey(t)
	_, treasury := mustKey(t)
	signer := types.LatestSignerForChainID(big.NewInt(testChainID))

	signed := func(t *testing.T, nonce uint64, value *big.Int) *types.Transaction {
		t.Helper()
		tx, err := types.SignNewTx(payer, signer, &types.LegacyTx{
			Nonce: nonce, To: &treasury, Value: value, Gas: 21000, GasPrice: big.NewInt(1),
		})
		if err != nil {
			t.Fatalf("SignNewTx: %v", err)
		}
		return tx
	}

	client := newFakeClient()
	paid := signed(t, 0, MinorToWei(config.TaskFee))
	client.txs[paid.Hash()] = paid
	client.receipts[paid.Hash()] = &types.Receipt{Status: types.ReceiptStatusSuccessful}

	reverted := signed(t, 1, MinorToWei(config.TaskFee))
	client.txs[reverted.Hash()] = reverted
	client.receipts[reverted.Hash()] = &types.Receipt{Status: types.ReceiptStatusFailed}

	inflight := signed(t, 2, MinorToWei(config.TaskFee))
	client.txs[inflight.Hash()] = inflight
	client.pending[inflight.Hash()] = true

	v := NewPaymentVerifier(client, testChainID)
	ctx := context.Background()

	p, err := v.LookupPayment(ctx, paid.Hash().Hex())
	if err != nil {
		t.Fatalf("LookupPayment: %v", err)
	}
	if !p.Amount.Equal(decimal.NewFromInt(config.TaskFee)) || p.From != payerAddr.Hex() || p.To != treasury.Hex() {
		t.Fatalf("payment = %+v", p)
	}

	for name, ref := range map[string]string{
		"reverted":  reverted.Hash().Hex(),
		"pending":   inflight.Hash().Hex(),
		"unknown":   common.HexToHash("0x01").Hex(),
		"malformed": "not-a-hash",
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := v.LookupPayment(ctx, ref); !errors.Is(err, domain.ErrPaymentInvalid) {
				t.Fatalf("LookupPayment err = %v, want ErrPaymentInvalid", err)
			}
		})
	}
}
