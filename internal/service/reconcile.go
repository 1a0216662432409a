package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/set-night/clickpulse/internal/config"
	"github.com/set-night/clickpulse/internal/domain"
	"github.com/set-night/clickpulse/internal/metrics"
	"github.com/set-night/clickpulse/internal/repository"
)

// Reconciler finalizes Processing payouts against the network and settles
// intents whose request died before reaching the ledger.
type Reconciler struct {
	store       repository.Store
	transfers   TransferService
	alerter     Alerter
	metrics     *metrics.Metrics
	gracePeriod time.Duration
	now         func() time.Time
}

func NewReconciler(store repository.Store, transfers TransferService, alerter Alerter, m *metrics.Metrics, gracePeriod time.Duration) *Reconciler {
	if alerter == nil {
		alerter = noopAlerter{}
	}
	return &Reconciler{
		store:       store,
		transfers:   transfers,
		alerter:     alerter,
		metrics:     m,
		gracePeriod: gracePeriod,
		now:         time.Now,
	}
}

type ReconcileReport struct {
	Succeeded int // Processing -> Success
	Refunded  int // Processing -> Failure, locked returned to pending
	Recovered int // stale Pending -> Processing
	Abandoned int // stale Pending -> Failure
	Waiting   int // still in flight on the network
}

// Run reconciles every interval until ctx is done.
func (r *Reconciler) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			report, err := r.ReconcileOnce(ctx)
			if err != nil {
				slog.Error("reconcile payouts", "error", err)
				continue
			}
			if report != (ReconcileReport{}) {
				slog.Info("payouts reconciled",
					"succeeded", report.Succeeded,
					"refunded", report.Refunded,
					"recovered", report.Recovered,
					"abandoned", report.Abandoned,
					"waiting", report.Waiting,
				)
			}
		}
	}
}

func (r *Reconciler) ReconcileOnce(ctx context.Context) (ReconcileReport, error) {
	var report ReconcileReport
	now := r.now()

	processing, err := r.store.ListPayoutsByStatus(ctx, domain.PayoutStatusProcessing, now, config.ReconcileBatchSize)
	if err != nil {
		return report, fmt.Errorf("list processing payouts: %w", err)
	}
	for _, p := range processing {
		if err := r.finalize(ctx, p, &report); err != nil {
			slog.Error("finalize payout", "payout_id", p.ID, "error", err)
		}
	}

	stale, err := r.store.ListPayoutsByStatus(ctx, domain.PayoutStatusPending, now.Add(-r.gracePeriod), config.ReconcileBatchSize)
	if err != nil {
		return report, fmt.Errorf("list stale intents: %w", err)
	}
	for _, p := range stale {
		if err := r.settleIntent(ctx, p, &report); err != nil {
			slog.Error("settle payout intent", "payout_id", p.ID, "error", err)
		}
	}

	return report, nil
}

func (r *Reconciler) finalize(ctx context.Context, p domain.Payout, report *ReconcileReport) error {
	status, err := r.transfers.Status(ctx, p.Signature)
	if err != nil {
		return fmt.Errorf("transfer status: %w", err)
	}

	var (
		to     domain.PayoutStatus
		settle func(ctx context.Context, workerID, amount int64) (*domain.Worker, error)
	)
	err = r.store.InTx(ctx, func(q repository.Querier) error {
		switch status {
		case domain.TransferStatusConfirmed:
			to, settle = domain.PayoutStatusSuccess, q.ReleaseWorkerLocked
		case domain.TransferStatusFailed:
			to, settle = domain.PayoutStatusFailure, q.RefundWorkerLocked
		default:
			return nil
		}
		if _, err := q.TransitionPayout(ctx, repository.TransitionPayoutParams{
			PayoutID: p.ID,
			From:     domain.PayoutStatusProcessing,
			To:       to,
		}); err != nil {
			return fmt.Errorf("mark %s: %w", to, err)
		}
		if _, err := settle(ctx, p.WorkerID, p.Amount); err != nil {
			return fmt.Errorf("settle locked: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	switch to {
	case domain.PayoutStatusSuccess:
		report.Succeeded++
		r.metrics.Payout(metrics.PayoutSucceeded)
	case domain.PayoutStatusFailure:
		report.Refunded++
		r.metrics.Payout(metrics.PayoutFailed)
		slog.Warn("payout failed on chain, refunded to pending", "worker_id", p.WorkerID, "payout_id", p.ID, "amount", p.Amount)
	default:
		report.Waiting++
	}
	return nil
}

func (r *Reconciler) settleIntent(ctx context.Context, p domain.Payout, report *ReconcileReport) error {
	if p.Signature == "" {
		// never signed, so nothing left the treasury
		if err := failIntent(ctx, r.store, p); err != nil {
			return err
		}
		report.Abandoned++
		r.metrics.Payout(metrics.PayoutAbandoned)
		return nil
	}

	status, err := r.transfers.Status(ctx, p.Signature)
	if err != nil {
		return fmt.Errorf("transfer status: %w", err)
	}

	switch status {
	case domain.TransferStatusSubmitted, domain.TransferStatusConfirmed:
		if _, err := commitPayout(ctx, r.store, p, p.Signature); err != nil {
			return escalateLedgerConflict(r.alerter, r.metrics, p, p.Signature, err)
		}
		report.Recovered++
		r.metrics.Payout(metrics.PayoutRecovered)
		slog.Info("recovered orphaned payout", "worker_id", p.WorkerID, "payout_id", p.ID, "signature", p.Signature)
	default:
		if err := failIntent(ctx, r.store, p); err != nil {
			return err
		}
		report.Abandoned++
		r.metrics.Payout(metrics.PayoutAbandoned)
	}
	return nil
}
