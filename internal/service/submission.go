package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/set-night/clickpulse/internal/config"
	"github.com/set-night/clickpulse/internal/domain"
	"github.com/set-night/clickpulse/internal/metrics"
	"github.com/set-night/clickpulse/internal/repository"
	"github.com/shopspring/decimal"
)

type SubmissionService struct {
	store   repository.Store
	metrics *metrics.Metrics
}

func NewSubmissionService(store repository.Store, m *metrics.Metrics) *SubmissionService {
	return &SubmissionService{store: store, metrics: m}
}

type SubmissionResult struct {
	NextTask *domain.TaskSummary
	Amount   decimal.Decimal
}

// CreditPerSubmission splits a task fee evenly across SubmissionQuota answers,
// rounding down to whole minor units.
func CreditPerSubmission(taskAmount int64) decimal.Decimal {
	return decimal.NewFromInt(taskAmount).
		Div(decimal.NewFromInt(config.SubmissionQuota)).
		Floor()
}

// Submit records the worker's answer to taskID and credits their pending
// balance in one unit, then returns the task they should answer next.
func (s *SubmissionService) Submit(ctx context.Context, workerID, taskID, optionID int64) (*SubmissionResult, error) {
	var credited decimal.Decimal

	err := s.store.InTx(ctx, func(q repository.Querier) error {
		locked, err := q.LockTask(ctx, taskID)
		if err != nil {
			if errors.Is(err, domain.ErrTaskNotFound) {
				return domain.ErrInvalidTask
			}
			return fmt.Errorf("lock task: %w", err)
		}
		if locked.Done {
			return domain.ErrInvalidTask
		}

		task, err := q.NextTaskForWorker(ctx, workerID)
		if err != nil {
			return fmt.Errorf("next task: %w", err)
		}
		if task == nil || task.ID != taskID || !task.HasOption(optionID) {
			return domain.ErrInvalidTask
		}

		credited = CreditPerSubmission(task.Amount)

		if _, err := q.CreateSubmission(ctx, repository.CreateSubmissionParams{
			TaskID:   taskID,
			OptionID: optionID,
			WorkerID: workerID,
			Amount:   credited,
		}); err != nil {
			return fmt.Errorf("create submission: %w", err)
		}

		if _, err := q.CreditWorkerPending(ctx, workerID, credited.IntPart()); err != nil {
			return fmt.Errorf("credit worker: %w", err)
		}

		if _, err := q.MarkTaskDoneIfQuotaReached(ctx, taskID, config.SubmissionQuota); err != nil {
			return fmt.Errorf("mark task done: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidTask) {
			return nil, err
		}
		return nil, fmt.Errorf("record submission: %w", err)
	}

	s.metrics.SubmissionRecorded(credited.IntPart())

	next, err := s.store.NextTaskForWorker(ctx, workerID)
	if err != nil {
		return nil, fmt.Errorf("next task: %w", err)
	}

	return &SubmissionResult{NextTask: next, Amount: credited}, nil
}
