package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/set-night/clickpulse/internal/domain"
	"github.com/set-night/clickpulse/internal/repository/sqlc"
)

// TxObserver receives the duration and outcome of every InTx call.
type TxObserver func(elapsed time.Duration, err error)

// PGStore persists the ledger and tasks in Postgres.
type PGStore struct {
	*pgQuerier
	pool      *pgxpool.Pool
	queries   *sqlc.Queries
	txTimeout time.Duration
	observe   TxObserver
}

func NewPGStore(pool *pgxpool.Pool, txTimeout time.Duration, observe TxObserver) *PGStore {
	queries := sqlc.New(pool)
	return &PGStore{
		pgQuerier: &pgQuerier{q: queries},
		pool:      pool,
		queries:   queries,
		txTimeout: txTimeout,
		observe:   observe,
	}
}

func (s *PGStore) InTx(ctx context.Context, fn func(q Querier) error) error {
	ctx, cancel := context.WithTimeout(ctx, s.txTimeout)
	defer cancel()

	start := time.Now()
	err := s.runTx(ctx, fn)
	if s.observe != nil {
		s.observe(time.Since(start), err)
	}
	return err
}

func (s *PGStore) runTx(ctx context.Context, fn func(q Querier) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return classify(fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback(ctx)

	if err := fn(&pgQuerier{q: s.queries.WithTx(tx)}); err != nil {
		return classify(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return classify(fmt.Errorf("commit: %w", err))
	}
	return nil
}

// pgQuerier adapts sqlc rows to domain types.
type pgQuerier struct {
	q *sqlc.Queries
}

func (p *pgQuerier) NextTaskForWorker(ctx context.Context, workerID int64) (*domain.TaskSummary, error) {
	row, err := p.q.NextTaskForWorker(ctx, workerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, classify(fmt.Errorf("next task: %w", err))
	}

	options, err := p.q.ListOptionsByTasks(ctx, []int64{row.ID})
	if err != nil {
		return nil, classify(fmt.Errorf("list options: %w", err))
	}

	summary := &domain.TaskSummary{
		ID:      row.ID,
		Title:   row.Title,
		Amount:  row.Amount,
		Options: make([]domain.Option, 0, len(options)),
	}
	for _, o := range options {
		summary.Options = append(summary.Options, rowToOption(o))
	}
	return summary, nil
}

func (p *pgQuerier) TaskExistsBySignature(ctx context.Context, signature string) (bool, error) {
	exists, err := p.q.TaskExistsBySignature(ctx, signature)
	if err != nil {
		return false, classify(fmt.Errorf("check task signature: %w", err))
	}
	return exists, nil
}

func (p *pgQuerier) CreateTask(ctx context.Context, arg CreateTaskParams) (*domain.Task, error) {
	row, err := p.q.CreateTask(ctx, sqlc.CreateTaskParams{
		Title:     arg.Title,
		Amount:    arg.Amount,
		Signature: arg.Signature,
		OwnerID:   arg.OwnerID,
	})
	if err != nil {
		return nil, classify(fmt.Errorf("create task: %w", err))
	}

	options, err := p.q.CreateOptions(ctx, sqlc.CreateOptionsParams{
		ImageUrls: arg.ImageURLs,
		TaskID:    row.ID,
	})
	if err != nil {
		return nil, classify(fmt.Errorf("create options: %w", err))
	}

	task := rowToTask(row)
	for _, o := range options {
		task.Options = append(task.Options, rowToOption(o))
	}
	return task, nil
}

func (p *pgQuerier) ListTasksByOwner(ctx context.Context, ownerID int64) ([]domain.Task, error) {
	rows, err := p.q.ListTasksByOwner(ctx, ownerID)
	if err != nil {
		return nil, classify(fmt.Errorf("list tasks: %w", err))
	}
	if len(rows) == 0 {
		return nil, nil
	}

	ids := make([]int64, len(rows))
	byID := make(map[int64]int, len(rows))
	tasks := make([]domain.Task, len(rows))
	for i, row := range rows {
		ids[i] = row.ID
		byID[row.ID] = i
		tasks[i] = *rowToTask(row)
	}

	options, err := p.q.ListOptionsByTasks(ctx, ids)
	if err != nil {
		return nil, classify(fmt.Errorf("list options: %w", err))
	}
	for _, o := range options {
		i := byID[o.TaskID]
		tasks[i].Options = append(tasks[i].Options, rowToOption(o))
	}
	return tasks, nil
}

func (p *pgQuerier) GetTaskForOwner(ctx context.Context, taskID, ownerID int64) (*domain.Task, error) {
	row, err := p.q.GetTaskForOwner(ctx, sqlc.GetTaskForOwnerParams{ID: taskID, OwnerID: ownerID})
	if err != nil {
		return nil, notFound(err, domain.ErrTaskNotFound)
	}

	options, err := p.q.ListOptionsByTasks(ctx, []int64{row.ID})
	if err != nil {
		return nil, classify(fmt.Errorf("list options: %w", err))
	}

	task := rowToTask(row)
	for _, o := range options {
		task.Options = append(task.Options, rowToOption(o))
	}
	return task, nil
}

func (p *pgQuerier) LockTask(ctx context.Context, taskID int64) (*domain.Task, error) {
	row, err := p.q.LockTask(ctx, taskID)
	if err != nil {
		return nil, notFound(err, domain.ErrTaskNotFound)
	}
	return rowToTask(row), nil
}

func (p *pgQuerier) CountSubmissionsByOption(ctx context.Context, taskID int64) (map[int64]int, error) {
	rows, err := p.q.CountSubmissionsByOption(ctx, taskID)
	if err != nil {
		return nil, classify(fmt.Errorf("count submissions: %w", err))
	}
	counts := make(map[int64]int, len(rows))
	for _, r := range rows {
		counts[r.OptionID] = int(r.Count)
	}
	return counts, nil
}

func (p *pgQuerier) CreateSubmission(ctx context.Context, arg CreateSubmissionParams) (*domain.Submission, error) {
	row, err := p.q.CreateSubmission(ctx, sqlc.CreateSubmissionParams{
		TaskID:   arg.TaskID,
		OptionID: arg.OptionID,
		WorkerID: arg.WorkerID,
		Amount:   arg.Amount,
	})
	if err != nil {
		return nil, classify(fmt.Errorf("create submission: %w", err))
	}
	return &domain.Submission{
		ID:       row.ID,
		TaskID:   row.TaskID,
		OptionID: row.OptionID,
		WorkerID: row.WorkerID,
		Amount:   row.Amount,
	}, nil
}

func (p *pgQuerier) MarkTaskDoneIfQuotaReached(ctx context.Context, taskID int64, quota int64) (bool, error) {
	n, err := p.q.MarkTaskDoneIfQuotaReached(ctx, sqlc.MarkTaskDoneIfQuotaReachedParams{
		TaskID: taskID,
		Quota:  quota,
	})
	if err != nil {
		return false, classify(fmt.Errorf("mark task done: %w", err))
	}
	return n > 0, nil
}

func (p *pgQuerier) UpsertUser(ctx context.Context, address string) (*domain.User, error) {
	row, err := p.q.UpsertUser(ctx, address)
	if err != nil {
		return nil, classify(fmt.Errorf("upsert user: %w", err))
	}
	return rowToUser(row), nil
}

func (p *pgQuerier) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	row, err := p.q.GetUser(ctx, id)
	if err != nil {
		return nil, notFound(err, domain.ErrUserNotFound)
	}
	return rowToUser(row), nil
}

func (p *pgQuerier) UpsertWorker(ctx context.Context, address string) (*domain.Worker, error) {
	row, err := p.q.UpsertWorker(ctx, address)
	if err != nil {
		return nil, classify(fmt.Errorf("upsert worker: %w", err))
	}
	return rowToWorker(row), nil
}

func (p *pgQuerier) GetWorker(ctx context.Context, id int64) (*domain.Worker, error) {
	row, err := p.q.GetWorker(ctx, id)
	if err != nil {
		return nil, notFound(err, domain.ErrWorkerNotFound)
	}
	return rowToWorker(row), nil
}

func (p *pgQuerier) GetWorkerForUpdate(ctx context.Context, id int64) (*domain.Worker, error) {
	row, err := p.q.GetWorkerForUpdate(ctx, id)
	if err != nil {
		return nil, notFound(err, domain.ErrWorkerNotFound)
	}
	return rowToWorker(row), nil
}

func (p *pgQuerier) CreditWorkerPending(ctx context.Context, workerID, amount int64) (*domain.Worker, error) {
	row, err := p.q.CreditWorkerPending(ctx, sqlc.CreditWorkerPendingParams{ID: workerID, Amount: amount})
	if err != nil {
		return nil, notFound(err, domain.ErrWorkerNotFound)
	}
	return rowToWorker(row), nil
}

func (p *pgQuerier) LockWorkerPending(ctx context.Context, workerID, amount int64) (*domain.Worker, error) {
	row, err := p.q.LockWorkerPending(ctx, sqlc.LockWorkerPendingParams{ID: workerID, Amount: amount})
	if err != nil {
		return nil, notFound(err, fmt.Errorf("%w: pending amount below %d", domain.ErrStoreConflict, amount))
	}
	return rowToWorker(row), nil
}

func (p *pgQuerier) ReleaseWorkerLocked(ctx context.Context, workerID, amount int64) (*domain.Worker, error) {
	row, err := p.q.ReleaseWorkerLocked(ctx, sqlc.ReleaseWorkerLockedParams{ID: workerID, Amount: amount})
	if err != nil {
		return nil, notFound(err, fmt.Errorf("%w: locked amount below %d", domain.ErrStoreConflict, amount))
	}
	return rowToWorker(row), nil
}

func (p *pgQuerier) RefundWorkerLocked(ctx context.Context, workerID, amount int64) (*domain.Worker, error) {
	row, err := p.q.RefundWorkerLocked(ctx, sqlc.RefundWorkerLockedParams{ID: workerID, Amount: amount})
	if err != nil {
		return nil, notFound(err, fmt.Errorf("%w: locked amount below %d", domain.ErrStoreConflict, amount))
	}
	return rowToWorker(row), nil
}

func (p *pgQuerier) CreatePayoutIntent(ctx context.Context, workerID, amount int64) (*domain.Payout, error) {
	row, err := p.q.CreatePayoutIntent(ctx, sqlc.CreatePayoutIntentParams{WorkerID: workerID, Amount: amount})
	if err != nil {
		return nil, classify(fmt.Errorf("create payout intent: %w", err))
	}
	return rowToPayout(row), nil
}

func (p *pgQuerier) SetPayoutSignature(ctx context.Context, payoutID int64, signature string) error {
	n, err := p.q.SetPayoutSignature(ctx, sqlc.SetPayoutSignatureParams{ID: payoutID, Signature: stringPtr(signature)})
	if err != nil {
		return classify(fmt.Errorf("set payout signature: %w", err))
	}
	if n == 0 {
		return fmt.Errorf("%w: payout %d is no longer pending", domain.ErrStoreConflict, payoutID)
	}
	return nil
}

func (p *pgQuerier) TransitionPayout(ctx context.Context, arg TransitionPayoutParams) (*domain.Payout, error) {
	row, err := p.q.TransitionPayout(ctx, sqlc.TransitionPayoutParams{
		ToStatus:   string(arg.To),
		Signature:  stringPtr(arg.Signature),
		ID:         arg.PayoutID,
		FromStatus: string(arg.From),
	})
	if err != nil {
		return nil, notFound(err, fmt.Errorf("%w: payout %d not in status %s", domain.ErrStoreConflict, arg.PayoutID, arg.From))
	}
	return rowToPayout(row), nil
}

func (p *pgQuerier) ListPayoutsByStatus(ctx context.Context, status domain.PayoutStatus, before time.Time, limit int) ([]domain.Payout, error) {
	rows, err := p.q.ListPayoutsByStatus(ctx, sqlc.ListPayoutsByStatusParams{
		Status:  string(status),
		Before:  timeToPgTimestamptz(before),
		MaxRows: int32(limit),
	})
	if err != nil {
		return nil, classify(fmt.Errorf("list payouts: %w", err))
	}
	payouts := make([]domain.Payout, 0, len(rows))
	for _, row := range rows {
		payouts = append(payouts, *rowToPayout(row))
	}
	return payouts, nil
}

func (p *pgQuerier) ListPayoutsByWorker(ctx context.Context, workerID int64) ([]domain.Payout, error) {
	rows, err := p.q.ListPayoutsByWorker(ctx, workerID)
	if err != nil {
		return nil, classify(fmt.Errorf("list worker payouts: %w", err))
	}
	payouts := make([]domain.Payout, 0, len(rows))
	for _, row := range rows {
		payouts = append(payouts, *rowToPayout(row))
	}
	return payouts, nil
}

var _ Store = (*PGStore)(nil)
