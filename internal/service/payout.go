package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/set-night/clickpulse/internal/domain"
	"github.com/set-night/clickpulse/internal/metrics"
	"github.com/set-night/clickpulse/internal/repository"
)

type PayoutService struct {
	store           repository.Store
	transfers       TransferService
	alerter         Alerter
	metrics         *metrics.Metrics
	transferTimeout time.Duration
}

func NewPayoutService(store repository.Store, transfers TransferService, alerter Alerter, m *metrics.Metrics, transferTimeout time.Duration) *PayoutService {
	if alerter == nil {
		alerter = noopAlerter{}
	}
	return &PayoutService{
		store:           store,
		transfers:       transfers,
		alerter:         alerter,
		metrics:         m,
		transferTimeout: transferTimeout,
	}
}

// Payout sends the worker's whole pending balance to their address.
//
// An intent row is written before the transfer is broadcast and carries the
// transfer reference, so a crash at any point leaves something the
// reconciler can finish. The transfer is never retried here.
func (s *PayoutService) Payout(ctx context.Context, workerID int64) (*domain.Payout, error) {
	var (
		worker *domain.Worker
		intent *domain.Payout
	)

	err := s.store.InTx(ctx, func(q repository.Querier) error {
		w, err := q.GetWorkerForUpdate(ctx, workerID)
		if err != nil {
			return err
		}
		if w.PendingAmount <= 0 {
			return domain.ErrNothingToPayout
		}
		p, err := q.CreatePayoutIntent(ctx, w.ID, w.PendingAmount)
		if err != nil {
			if errors.Is(err, domain.ErrStoreConflict) {
				return domain.ErrPayoutInProgress
			}
			return fmt.Errorf("create payout intent: %w", err)
		}
		worker, intent = w, p
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrWorkerNotFound),
			errors.Is(err, domain.ErrNothingToPayout),
			errors.Is(err, domain.ErrPayoutInProgress):
			return nil, err
		case errors.Is(err, domain.ErrStoreConflict):
			// lost the race for the worker row or the pending-intent slot
			return nil, domain.ErrPayoutInProgress
		}
		return nil, fmt.Errorf("open payout: %w", err)
	}

	// From here on the ledger must be settled even if the caller goes away.
	settleCtx := context.WithoutCancel(ctx)

	tctx, cancel := context.WithTimeout(ctx, s.transferTimeout)
	defer cancel()

	prepared, err := s.transfers.Prepare(tctx, worker.Address, intent.Amount)
	if err != nil {
		return nil, s.reject(settleCtx, *intent, fmt.Errorf("prepare transfer: %w", err))
	}

	// Nothing is broadcast unless the reference is on a still-Pending intent.
	if err := s.store.SetPayoutSignature(settleCtx, intent.ID, prepared.Signature); err != nil {
		s.transfers.Discard(prepared)
		s.metrics.Payout(metrics.PayoutRejected)
		if errors.Is(err, domain.ErrStoreConflict) {
			slog.Warn("payout intent closed before broadcast", "worker_id", intent.WorkerID, "payout_id", intent.ID)
			return nil, fmt.Errorf("%w: payout %d closed before broadcast: %w", domain.ErrTransferFailed, intent.ID, err)
		}
		if ferr := failIntent(settleCtx, s.store, *intent); ferr != nil {
			slog.Error("failed to close payout intent", "payout_id", intent.ID, "error", ferr)
		}
		return nil, fmt.Errorf("record transfer reference: %w", err)
	}

	if err := s.transfers.Submit(tctx, prepared); err != nil {
		if errors.Is(err, domain.ErrTransferFailed) {
			return nil, s.reject(settleCtx, *intent, err)
		}
		return nil, s.ambiguous(*intent, prepared.Signature, err)
	}

	payout, err := commitPayout(settleCtx, s.store, *intent, prepared.Signature)
	if err != nil {
		return nil, escalateLedgerConflict(s.alerter, s.metrics, *intent, prepared.Signature, err)
	}

	s.metrics.Payout(metrics.PayoutProcessing)
	slog.Info("payout dispatched",
		"worker_id", payout.WorkerID,
		"payout_id", payout.ID,
		"amount", payout.Amount,
		"signature", payout.Signature,
	)
	return payout, nil
}

// reject closes the intent for a transfer that is known not to have moved funds.
func (s *PayoutService) reject(ctx context.Context, intent domain.Payout, cause error) error {
	if err := failIntent(ctx, s.store, intent); err != nil {
		slog.Error("failed to close payout intent", "payout_id", intent.ID, "error", err)
	}
	s.metrics.Payout(metrics.PayoutRejected)
	slog.Warn("payout transfer rejected", "worker_id", intent.WorkerID, "payout_id", intent.ID, "error", cause)
	if errors.Is(cause, domain.ErrTransferFailed) {
		return cause
	}
	return fmt.Errorf("%w: %w", domain.ErrTransferFailed, cause)
}

// ambiguous leaves the intent Pending for the reconciler.
func (s *PayoutService) ambiguous(intent domain.Payout, signature string, cause error) error {
	slog.Error("payout transfer outcome unknown",
		"worker_id", intent.WorkerID,
		"payout_id", intent.ID,
		"amount", intent.Amount,
		"signature", signature,
		"error", cause,
	)
	s.metrics.Payout(metrics.PayoutAmbiguous)
	s.alerter.LedgerAlert(LedgerAlert{
		Kind:      AlertTransferAmbiguous,
		WorkerID:  intent.WorkerID,
		PayoutID:  intent.ID,
		Amount:    intent.Amount,
		Signature: signature,
		Err:       cause,
	})
	return fmt.Errorf("%w: payout %d signature %s: %w", domain.ErrTransferAmbiguous, intent.ID, signature, cause)
}

func (s *PayoutService) Balance(ctx context.Context, workerID int64) (*domain.Balance, error) {
	w, err := s.store.GetWorker(ctx, workerID)
	if err != nil {
		return nil, fmt.Errorf("get worker: %w", err)
	}
	return &domain.Balance{PendingAmount: w.PendingAmount, LockedAmount: w.LockedAmount}, nil
}

func (s *PayoutService) ListPayouts(ctx context.Context, workerID int64) ([]domain.Payout, error) {
	payouts, err := s.store.ListPayoutsByWorker(ctx, workerID)
	if err != nil {
		return nil, fmt.Errorf("list payouts: %w", err)
	}
	return payouts, nil
}
