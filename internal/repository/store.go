package repository

import (
	"context"
	"time"

	"github.com/set-night/clickpulse/internal/domain"
	"github.com/shopspring/decimal"
)

// Querier is the set of reads and writes the core performs. Not-found lookups
// return the matching domain sentinel; NextTaskForWorker returns nil when the
// worker has nothing left to answer.
type Querier interface {
	// Tasks
	NextTaskForWorker(ctx context.Context, workerID int64) (*domain.TaskSummary, error)
	TaskExistsBySignature(ctx context.Context, signature string) (bool, error)
	CreateTask(ctx context.Context, arg CreateTaskParams) (*domain.Task, error)
	ListTasksByOwner(ctx context.Context, ownerID int64) ([]domain.Task, error)
	GetTaskForOwner(ctx context.Context, taskID, ownerID int64) (*domain.Task, error)
	CountSubmissionsByOption(ctx context.Context, taskID int64) (map[int64]int, error)
	// LockTask holds the task row until the unit ends, so submissions to one
	// task count the quota one at a time.
	LockTask(ctx context.Context, taskID int64) (*domain.Task, error)
	CreateSubmission(ctx context.Context, arg CreateSubmissionParams) (*domain.Submission, error)
	MarkTaskDoneIfQuotaReached(ctx context.Context, taskID int64, quota int64) (bool, error)

	// Users and workers
	UpsertUser(ctx context.Context, address string) (*domain.User, error)
	GetUser(ctx context.Context, id int64) (*domain.User, error)
	UpsertWorker(ctx context.Context, address string) (*domain.Worker, error)
	GetWorker(ctx context.Context, id int64) (*domain.Worker, error)
	GetWorkerForUpdate(ctx context.Context, id int64) (*domain.Worker, error)
	CreditWorkerPending(ctx context.Context, workerID, amount int64) (*domain.Worker, error)
	// LockWorkerPending moves amount from pending to locked only if pending
	// still covers it; otherwise it returns domain.ErrStoreConflict.
	LockWorkerPending(ctx context.Context, workerID, amount int64) (*domain.Worker, error)
	ReleaseWorkerLocked(ctx context.Context, workerID, amount int64) (*domain.Worker, error)
	RefundWorkerLocked(ctx context.Context, workerID, amount int64) (*domain.Worker, error)

	// Payouts
	CreatePayoutIntent(ctx context.Context, workerID, amount int64) (*domain.Payout, error)
	// SetPayoutSignature records the transfer reference on a Pending intent.
	// Returns domain.ErrStoreConflict when the intent has already been closed.
	SetPayoutSignature(ctx context.Context, payoutID int64, signature string) error
	// TransitionPayout moves a payout from one status to another, optionally
	// recording the transfer signature. Returns domain.ErrStoreConflict when
	// the payout is no longer in the from status.
	TransitionPayout(ctx context.Context, arg TransitionPayoutParams) (*domain.Payout, error)
	ListPayoutsByStatus(ctx context.Context, status domain.PayoutStatus, before time.Time, limit int) ([]domain.Payout, error)
	ListPayoutsByWorker(ctx context.Context, workerID int64) ([]domain.Payout, error)
}

// Store runs Querier calls either standalone or inside one atomic unit.
type Store interface {
	Querier
	// InTx runs fn in a single transaction bounded by the store's timeout.
	// Any error returned by fn, or a timeout, rolls every write back.
	InTx(ctx context.Context, fn func(q Querier) error) error
}

type CreateTaskParams struct {
	Title     string
	Amount    int64
	Signature string
	OwnerID   int64
	ImageURLs []string
}

type CreateSubmissionParams struct {
	TaskID   int64
	OptionID int64
	WorkerID int64
	Amount   decimal.Decimal
}

type TransitionPayoutParams struct {
	PayoutID  int64
	From      domain.PayoutStatus
	To        domain.PayoutStatus
	Signature string
}
