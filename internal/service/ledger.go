package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/set-night/clickpulse/internal/domain"
	"github.com/set-night/clickpulse/internal/metrics"
	"github.com/set-night/clickpulse/internal/repository"
)

// Alert kinds
const (
	AlertLedgerConflict    = "ledger_conflict"
	AlertTransferAmbiguous = "transfer_ambiguous"
)

// commitPayout moves the intent's amount from pending to locked and marks it
// Processing. It only succeeds while pending still covers the amount.
func commitPayout(ctx context.Context, store repository.Store, intent domain.Payout, signature string) (*domain.Payout, error) {
	var committed *domain.Payout
	err := store.InTx(ctx, func(q repository.Querier) error {
		if _, err := q.LockWorkerPending(ctx, intent.WorkerID, intent.Amount); err != nil {
			return fmt.Errorf("lock pending: %w", err)
		}
		p, err := q.TransitionPayout(ctx, repository.TransitionPayoutParams{
			PayoutID:  intent.ID,
			From:      domain.PayoutStatusPending,
			To:        domain.PayoutStatusProcessing,
			Signature: signature,
		})
		if err != nil {
			return fmt.Errorf("mark processing: %w", err)
		}
		committed = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return committed, nil
}

// failIntent closes an intent whose transfer never left the treasury.
func failIntent(ctx context.Context, store repository.Store, intent domain.Payout) error {
	_, err := store.TransitionPayout(ctx, repository.TransitionPayoutParams{
		PayoutID: intent.ID,
		From:     domain.PayoutStatusPending,
		To:       domain.PayoutStatusFailure,
	})
	if err != nil {
		return fmt.Errorf("mark intent failed: %w", err)
	}
	return nil
}

// escalateLedgerConflict reports a transfer that left the treasury without a
// matching ledger update.
func escalateLedgerConflict(alerter Alerter, m *metrics.Metrics, intent domain.Payout, signature string, cause error) error {
	slog.Error("ledger update failed after transfer",
		"worker_id", intent.WorkerID,
		"payout_id", intent.ID,
		"amount", intent.Amount,
		"signature", signature,
		"error", cause,
	)
	m.LedgerConflict()
	m.Payout(metrics.PayoutConflict)
	alerter.LedgerAlert(LedgerAlert{
		Kind:      AlertLedgerConflict,
		WorkerID:  intent.WorkerID,
		PayoutID:  intent.ID,
		Amount:    intent.Amount,
		Signature: signature,
		Err:       cause,
	})
	return fmt.Errorf("%w: payout %d signature %s: %w", domain.ErrLedgerConflict, intent.ID, signature, cause)
}
