package chain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/params"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/set-night/clickpulse/internal/domain"
	"github.com/set-night/clickpulse/internal/service"
)

// Treasury signs and broadcasts payouts from the process-controlled account.
type Treasury struct {
	client  Client
	key     *ecdsa.PrivateKey
	address common.Address
	signer  types.Signer

	mu        sync.Mutex
	nextNonce uint64
}

// NewTreasury parses a hex private key and checks it controls address.
func NewTreasury(client Client, chainID int64, privateKeyHex, address string) (*Treasury, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("parse treasury key: %w", err)
	}
	derived := crypto.PubkeyToAddress(key.PublicKey)
	if !common.IsHexAddress(address) || derived != common.HexToAddress(address) {
		return nil, fmt.Errorf("treasury key controls %s, not %s", derived.Hex(), address)
	}
	return &Treasury{
		client:  client,
		key:     key,
		address: derived,
		signer:  types.LatestSignerForChainID(big.NewInt(chainID)),
	}, nil
}

func (t *Treasury) Address() common.Address {
	return t.address
}

// Prepare signs a plain value transfer. The returned signature is the
// transaction hash, known before anything is broadcast.
func (t *Treasury) Prepare(ctx context.Context, to string, amount int64) (*service.PreparedTransfer, error) {
	if !common.IsHexAddress(to) {
		return nil, fmt.Errorf("invalid recipient %q", to)
	}
	if amount <= 0 {
		return nil, fmt.Errorf("invalid amount %d", amount)
	}

	gasPrice, err := t.client.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("suggest gas price: %w", err)
	}

	nonce, err := t.reserveNonce(ctx)
	if err != nil {
		return nil, err
	}

	recipient := common.HexToAddress(to)
	tx, err := types.SignNewTx(t.key, t.signer, &types.LegacyTx{
		Nonce:    nonce,
		To:       &recipient,
		Value:    MinorToWei(amount),
		Gas:      params.TxGas,
		GasPrice: gasPrice,
	})
	if err != nil {
		t.resetNonce()
		return nil, fmt.Errorf("sign transfer: %w", err)
	}
	raw, err := tx.MarshalBinary()
	if err != nil {
		t.resetNonce()
		return nil, fmt.Errorf("encode transfer: %w", err)
	}

	return &service.PreparedTransfer{
		Signature: tx.Hash().Hex(),
		To:        recipient.Hex(),
		Amount:    amount,
		Raw:       raw,
	}, nil
}

// Submit broadcasts a prepared transfer. A node that answers with an error
// has rejected the transaction; anything else leaves the outcome unknown.
func (t *Treasury) Submit(ctx context.Context, transfer *service.PreparedTransfer) error {
	tx := new(types.Transaction)
	if err := tx.UnmarshalBinary(transfer.Raw); err != nil {
		t.resetNonce()
		return fmt.Errorf("%w: decode transfer: %w", domain.ErrTransferFailed, err)
	}

	err := t.client.SendTransaction(ctx, tx)
	if err == nil {
		return nil
	}

	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		if strings.Contains(rpcErr.Error(), "already known") {
			return nil
		}
		t.resetNonce()
		return fmt.Errorf("%w: %w", domain.ErrTransferFailed, err)
	}
	return fmt.Errorf("send transaction: %w", err)
}

// Discard gives the nonce of an unsent transfer back to the node's count.
func (t *Treasury) Discard(transfer *service.PreparedTransfer) {
	t.resetNonce()
}

// Status maps the receipt, or the absence of one, to a transfer status.
func (t *Treasury) Status(ctx context.Context, signature string) (domain.TransferStatus, error) {
	hash, err := parseHash(signature)
	if err != nil {
		return domain.TransferStatusUnknown, nil
	}

	receipt, err := t.client.TransactionReceipt(ctx, hash)
	switch {
	case err == nil:
		if receipt.Status == types.ReceiptStatusSuccessful {
			return domain.TransferStatusConfirmed, nil
		}
		return domain.TransferStatusFailed, nil
	case !errors.Is(err, ethereum.NotFound):
		return "", fmt.Errorf("get receipt: %w", err)
	}

	_, _, err = t.client.TransactionByHash(ctx, hash)
	switch {
	case err == nil:
		return domain.TransferStatusSubmitted, nil
	case errors.Is(err, ethereum.NotFound):
		return domain.TransferStatusUnknown, nil
	default:
		return "", fmt.Errorf("get transaction: %w", err)
	}
}

// reserveNonce hands out increasing nonces so concurrent payouts do not
// reuse the one the node reports as next.
func (t *Treasury) reserveNonce(ctx context.Context) (uint64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	nonce, err := t.client.PendingNonceAt(ctx, t.address)
	if err != nil {
		return 0, fmt.Errorf("pending nonce: %w", err)
	}
	if nonce < t.nextNonce {
		nonce = t.nextNonce
	}
	t.nextNonce = nonce + 1
	return nonce, nil
}

// resetNonce makes the next reservation trust the node again after a
// reserved nonce was not used.
func (t *Treasury) resetNonce() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.nextNonce = 0
}

var _ service.TransferService = (*Treasury)(nil)
