package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/set-night/clickpulse/internal/domain"
	"github.com/set-night/clickpulse/internal/service"
)

// PaymentVerifier resolves requester payments by transaction hash.
type PaymentVerifier struct {
	client Client
	signer types.Signer
}

func NewPaymentVerifier(client Client, chainID int64) *PaymentVerifier {
	return &PaymentVerifier{
		client: client,
		signer: types.LatestSignerForChainID(big.NewInt(chainID)),
	}
}

// LookupPayment returns the value, sender and recipient of a mined,
// successful transaction.
func (v *PaymentVerifier) LookupPayment(ctx context.Context, reference string) (*service.Payment, error) {
	hash, err := parseHash(reference)
	if err != nil {
		return nil, err
	}

	tx, pending, err := v.client.TransactionByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, ethereum.NotFound) {
			return nil, fmt.Errorf("%w: transaction %s not found", domain.ErrPaymentInvalid, reference)
		}
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	if pending {
		return nil, fmt.Errorf("%w: transaction %s not mined yet", domain.ErrPaymentInvalid, reference)
	}
	if tx.To() == nil {
		return nil, fmt.Errorf("%w: contract creation", domain.ErrPaymentInvalid)
	}

	receipt, err := v.client.TransactionReceipt(ctx, hash)
	if err != nil {
		if errors.Is(err, ethereum.NotFound) {
			return nil, fmt.Errorf("%w: no receipt for %s", domain.ErrPaymentInvalid, reference)
		}
		return nil, fmt.Errorf("get receipt: %w", err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, fmt.Errorf("%w: transaction %s reverted", domain.ErrPaymentInvalid, reference)
	}

	from, err := types.Sender(v.signer, tx)
	if err != nil {
		return nil, fmt.Errorf("%w: recover sender: %w", domain.ErrPaymentInvalid, err)
	}

	return &service.Payment{
		Amount: WeiToMinor(tx.Value()),
		From:   from.Hex(),
		To:     tx.To().Hex(),
	}, nil
}

func parseHash(reference string) (common.Hash, error) {
	b, err := hexutil.Decode(reference)
	if err != nil || len(b) != common.HashLength {
		return common.Hash{}, fmt.Errorf("%w: malformed transaction hash", domain.ErrPaymentInvalid)
	}
	return common.BytesToHash(b), nil
}
