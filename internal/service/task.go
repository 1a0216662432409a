package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/set-night/clickpulse/internal/config"
	"github.com/set-night/clickpulse/internal/domain"
	"github.com/set-night/clickpulse/internal/repository"
	"github.com/shopspring/decimal"
)

type TaskService struct {
	store    repository.Store
	payments PaymentVerifier
	treasury string
}

func NewTaskService(store repository.Store, payments PaymentVerifier, treasuryAddress string) *TaskService {
	return &TaskService{store: store, payments: payments, treasury: treasuryAddress}
}

type CreateTaskInput struct {
	OwnerID          int64
	Title            string
	ImageURLs        []string
	PaymentSignature string
}

// Create verifies that the payment reference pays exactly the task fee from
// the owner to the treasury, then stores the task with its options.
func (s *TaskService) Create(ctx context.Context, in CreateTaskInput) (*domain.Task, error) {
	if len(in.ImageURLs) < config.MinOptions {
		return nil, fmt.Errorf("%w: need at least %d options", domain.ErrValidation, config.MinOptions)
	}
	for i, u := range in.ImageURLs {
		if strings.TrimSpace(u) == "" {
			return nil, fmt.Errorf("%w: option %d has no image url", domain.ErrValidation, i)
		}
	}
	if strings.TrimSpace(in.PaymentSignature) == "" {
		return nil, fmt.Errorf("%w: missing payment signature", domain.ErrValidation)
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = config.DefaultTaskTitle
	}

	owner, err := s.store.GetUser(ctx, in.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("get owner: %w", err)
	}

	used, err := s.store.TaskExistsBySignature(ctx, in.PaymentSignature)
	if err != nil {
		return nil, fmt.Errorf("check payment reuse: %w", err)
	}
	if used {
		return nil, fmt.Errorf("%w: payment already used", domain.ErrPaymentInvalid)
	}

	payment, err := s.payments.LookupPayment(ctx, in.PaymentSignature)
	if err != nil {
		if errors.Is(err, domain.ErrPaymentInvalid) {
			return nil, err
		}
		return nil, fmt.Errorf("lookup payment: %w", err)
	}
	if err := s.checkPayment(payment, owner.Address); err != nil {
		slog.Warn("task payment rejected", "owner_id", owner.ID, "signature", in.PaymentSignature, "error", err)
		return nil, err
	}

	var task *domain.Task
	err = s.store.InTx(ctx, func(q repository.Querier) error {
		t, err := q.CreateTask(ctx, repository.CreateTaskParams{
			Title:     title,
			Amount:    config.TaskFee,
			Signature: in.PaymentSignature,
			OwnerID:   owner.ID,
			ImageURLs: in.ImageURLs,
		})
		if err != nil {
			return err
		}
		task = t
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrStoreConflict) {
			// the same payment raced another create
			return nil, fmt.Errorf("%w: payment already used", domain.ErrPaymentInvalid)
		}
		return nil, fmt.Errorf("create task: %w", err)
	}

	slog.Info("task created", "task_id", task.ID, "owner_id", owner.ID, "options", len(task.Options))
	return task, nil
}

func (s *TaskService) checkPayment(p *Payment, ownerAddress string) error {
	if !p.Amount.Equal(decimal.NewFromInt(config.TaskFee)) {
		return fmt.Errorf("%w: paid %s, fee is %d", domain.ErrPaymentInvalid, p.Amount, config.TaskFee)
	}
	if !strings.EqualFold(p.From, ownerAddress) {
		return fmt.Errorf("%w: sender is not the task owner", domain.ErrPaymentInvalid)
	}
	if !strings.EqualFold(p.To, s.treasury) {
		return fmt.Errorf("%w: recipient is not the treasury", domain.ErrPaymentInvalid)
	}
	return nil
}

func (s *TaskService) ListTasks(ctx context.Context, ownerID int64) ([]domain.Task, error) {
	tasks, err := s.store.ListTasksByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// GetTaskResult returns an owned task with the number of submissions each
// option received. Options nobody picked report zero.
func (s *TaskService) GetTaskResult(ctx context.Context, ownerID, taskID int64) (*domain.TaskResult, error) {
	task, err := s.store.GetTaskForOwner(ctx, taskID, ownerID)
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	counts, err := s.store.CountSubmissionsByOption(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("count submissions: %w", err)
	}

	result := &domain.TaskResult{
		ID:      task.ID,
		Title:   task.Title,
		Done:    task.Done,
		Options: make([]domain.OptionResult, 0, len(task.Options)),
	}
	for _, o := range task.Options {
		result.Options = append(result.Options, domain.OptionResult{
			OptionID: o.ID,
			ImageURL: o.ImageURL,
			Count:    counts[o.ID],
		})
	}
	return result, nil
}
