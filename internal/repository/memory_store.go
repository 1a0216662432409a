package repository

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/set-night/clickpulse/internal/domain"
)

// MemoryStore keeps all state in process behind one mutex. InTx holds the
// mutex for the whole unit and restores a snapshot when fn fails, so it gives
// the same all-or-nothing behaviour as PGStore.
type MemoryStore struct {
	*memQuerier
	mu  sync.Mutex
	st  *memState
	now func() time.Time
}

type memState struct {
	seq          int64
	users        map[int64]domain.User
	workers      map[int64]domain.Worker
	tasks        map[int64]domain.Task
	options      map[int64]domain.Option
	submissions  map[int64]domain.Submission
	payouts      map[int64]domain.Payout
	userByAddr   map[string]int64
	workerByAddr map[string]int64
}

func newMemState() *memState {
	return &memState{
		users:        make(map[int64]domain.User),
		workers:      make(map[int64]domain.Worker),
		tasks:        make(map[int64]domain.Task),
		options:      make(map[int64]domain.Option),
		submissions:  make(map[int64]domain.Submission),
		payouts:      make(map[int64]domain.Payout),
		userByAddr:   make(map[string]int64),
		workerByAddr: make(map[string]int64),
	}
}

func (st *memState) clone() *memState {
	return &memState{
		seq:          st.seq,
		users:        maps.Clone(st.users),
		workers:      maps.Clone(st.workers),
		tasks:        maps.Clone(st.tasks),
		options:      maps.Clone(st.options),
		submissions:  maps.Clone(st.submissions),
		payouts:      maps.Clone(st.payouts),
		userByAddr:   maps.Clone(st.userByAddr),
		workerByAddr: maps.Clone(st.workerByAddr),
	}
}

func (st *memState) nextID() int64 {
	st.seq++
	return st.seq
}

func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{st: newMemState(), now: time.Now}
	s.memQuerier = &memQuerier{s: s}
	return s
}

// SetClock replaces the time source used for created/updated timestamps.
func (s *MemoryStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *MemoryStore) InTx(ctx context.Context, fn func(q Querier) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return classify(err)
	}

	snapshot := s.st.clone()
	err := fn(&memQuerier{s: s, inTx: true})
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		s.st = snapshot
		return classify(err)
	}
	return nil
}

// memQuerier takes the store mutex per call unless it runs inside InTx,
// which already holds it.
type memQuerier struct {
	s    *MemoryStore
	inTx bool
}

func (q *memQuerier) lock() func() {
	if q.inTx {
		return func() {}
	}
	q.s.mu.Lock()
	return q.s.mu.Unlock
}

func (q *memQuerier) optionsFor(taskID int64) []domain.Option {
	var out []domain.Option
	for _, o := range q.s.st.options {
		if o.TaskID == taskID {
			out = append(out, o)
		}
	}
	slices.SortFunc(out, func(a, b domain.Option) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

func (q *memQuerier) answered(taskID, workerID int64) bool {
	for _, sub := range q.s.st.submissions {
		if sub.TaskID == taskID && sub.WorkerID == workerID {
			return true
		}
	}
	return false
}

func (q *memQuerier) NextTaskForWorker(ctx context.Context, workerID int64) (*domain.TaskSummary, error) {
	defer q.lock()()

	ids := slices.Sorted(maps.Keys(q.s.st.tasks))
	for _, id := range ids {
		t := q.s.st.tasks[id]
		if t.Done || q.answered(id, workerID) {
			continue
		}
		return &domain.TaskSummary{
			ID:      t.ID,
			Title:   t.Title,
			Amount:  t.Amount,
			Options: q.optionsFor(t.ID),
		}, nil
	}
	return nil, nil
}

func (q *memQuerier) TaskExistsBySignature(ctx context.Context, signature string) (bool, error) {
	defer q.lock()()

	for _, t := range q.s.st.tasks {
		if t.Signature == signature {
			return true, nil
		}
	}
	return false, nil
}

func (q *memQuerier) CreateTask(ctx context.Context, arg CreateTaskParams) (*domain.Task, error) {
	defer q.lock()()

	st := q.s.st
	if _, ok := st.users[arg.OwnerID]; !ok {
		return nil, fmt.Errorf("%w: owner %d does not exist", domain.ErrStoreConflict, arg.OwnerID)
	}
	for _, t := range st.tasks {
		if t.Signature == arg.Signature {
			return nil, fmt.Errorf("%w: task signature already used", domain.ErrStoreConflict)
		}
	}

	task := domain.Task{
		ID:        st.nextID(),
		Title:     arg.Title,
		Amount:    arg.Amount,
		Signature: arg.Signature,
		OwnerID:   arg.OwnerID,
		CreatedAt: q.s.now(),
	}
	st.tasks[task.ID] = task

	for _, url := range arg.ImageURLs {
		o := domain.Option{ID: st.nextID(), ImageURL: url, TaskID: task.ID}
		st.options[o.ID] = o
		task.Options = append(task.Options, o)
	}
	return &task, nil
}

func (q *memQuerier) ListTasksByOwner(ctx context.Context, ownerID int64) ([]domain.Task, error) {
	defer q.lock()()

	var out []domain.Task
	for _, id := range slices.Sorted(maps.Keys(q.s.st.tasks)) {
		t := q.s.st.tasks[id]
		if t.OwnerID != ownerID {
			continue
		}
		t.Options = q.optionsFor(t.ID)
		out = append(out, t)
	}
	return out, nil
}

func (q *memQuerier) GetTaskForOwner(ctx context.Context, taskID, ownerID int64) (*domain.Task, error) {
	defer q.lock()()

	t, ok := q.s.st.tasks[taskID]
	if !ok || t.OwnerID != ownerID {
		return nil, domain.ErrTaskNotFound
	}
	t.Options = q.optionsFor(t.ID)
	return &t, nil
}

// LockTask needs no row lock here; every unit already runs alone.
func (q *memQuerier) LockTask(ctx context.Context, taskID int64) (*domain.Task, error) {
	defer q.lock()()

	t, ok := q.s.st.tasks[taskID]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	return &t, nil
}

func (q *memQuerier) CountSubmissionsByOption(ctx context.Context, taskID int64) (map[int64]int, error) {
	defer q.lock()()

	counts := make(map[int64]int)
	for _, sub := range q.s.st.submissions {
		if sub.TaskID == taskID {
			counts[sub.OptionID]++
		}
	}
	return counts, nil
}

func (q *memQuerier) CreateSubmission(ctx context.Context, arg CreateSubmissionParams) (*domain.Submission, error) {
	defer q.lock()()

	st := q.s.st
	if _, ok := st.tasks[arg.TaskID]; !ok {
		return nil, fmt.Errorf("%w: task %d does not exist", domain.ErrStoreConflict, arg.TaskID)
	}
	if o, ok := st.options[arg.OptionID]; !ok || o.TaskID != arg.TaskID {
		return nil, fmt.Errorf("%w: option %d does not belong to task %d", domain.ErrStoreConflict, arg.OptionID, arg.TaskID)
	}
	if _, ok := st.workers[arg.WorkerID]; !ok {
		return nil, fmt.Errorf("%w: worker %d does not exist", domain.ErrStoreConflict, arg.WorkerID)
	}
	if q.answered(arg.TaskID, arg.WorkerID) {
		return nil, fmt.Errorf("%w: submissions_task_worker_key", domain.ErrStoreConflict)
	}

	sub := domain.Submission{
		ID:       st.nextID(),
		TaskID:   arg.TaskID,
		OptionID: arg.OptionID,
		WorkerID: arg.WorkerID,
		Amount:   arg.Amount,
	}
	st.submissions[sub.ID] = sub
	return &sub, nil
}

func (q *memQuerier) MarkTaskDoneIfQuotaReached(ctx context.Context, taskID int64, quota int64) (bool, error) {
	defer q.lock()()

	t, ok := q.s.st.tasks[taskID]
	if !ok || t.Done {
		return false, nil
	}
	var n int64
	for _, sub := range q.s.st.submissions {
		if sub.TaskID == taskID {
			n++
		}
	}
	if n < quota {
		return false, nil
	}
	t.Done = true
	q.s.st.tasks[taskID] = t
	return true, nil
}

func (q *memQuerier) UpsertUser(ctx context.Context, address string) (*domain.User, error) {
	defer q.lock()()

	st := q.s.st
	if id, ok := st.userByAddr[address]; ok {
		u := st.users[id]
		return &u, nil
	}
	u := domain.User{ID: st.nextID(), Address: address, CreatedAt: q.s.now()}
	st.users[u.ID] = u
	st.userByAddr[address] = u.ID
	return &u, nil
}

func (q *memQuerier) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	defer q.lock()()

	u, ok := q.s.st.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &u, nil
}

func (q *memQuerier) UpsertWorker(ctx context.Context, address string) (*domain.Worker, error) {
	defer q.lock()()

	st := q.s.st
	if id, ok := st.workerByAddr[address]; ok {
		w := st.workers[id]
		return &w, nil
	}
	w := domain.Worker{ID: st.nextID(), Address: address, CreatedAt: q.s.now()}
	st.workers[w.ID] = w
	st.workerByAddr[address] = w.ID
	return &w, nil
}

func (q *memQuerier) GetWorker(ctx context.Context, id int64) (*domain.Worker, error) {
	defer q.lock()()

	w, ok := q.s.st.workers[id]
	if !ok {
		return nil, domain.ErrWorkerNotFound
	}
	return &w, nil
}

// GetWorkerForUpdate is GetWorker: InTx already serializes every unit.
func (q *memQuerier) GetWorkerForUpdate(ctx context.Context, id int64) (*domain.Worker, error) {
	return q.GetWorker(ctx, id)
}

func (q *memQuerier) updateWorker(id int64, apply func(w *domain.Worker) error) (*domain.Worker, error) {
	defer q.lock()()

	w, ok := q.s.st.workers[id]
	if !ok {
		return nil, domain.ErrWorkerNotFound
	}
	if err := apply(&w); err != nil {
		return nil, err
	}
	if w.PendingAmount < 0 || w.LockedAmount < 0 {
		return nil, fmt.Errorf("%w: negative balance for worker %d", domain.ErrStoreConflict, id)
	}
	q.s.st.workers[id] = w
	return &w, nil
}

func (q *memQuerier) CreditWorkerPending(ctx context.Context, workerID, amount int64) (*domain.Worker, error) {
	return q.updateWorker(workerID, func(w *domain.Worker) error {
		w.PendingAmount += amount
		return nil
	})
}

func (q *memQuerier) LockWorkerPending(ctx context.Context, workerID, amount int64) (*domain.Worker, error) {
	return q.updateWorker(workerID, func(w *domain.Worker) error {
		if w.PendingAmount < amount {
			return fmt.Errorf("%w: pending amount below %d", domain.ErrStoreConflict, amount)
		}
		w.PendingAmount -= amount
		w.LockedAmount += amount
		return nil
	})
}

func (q *memQuerier) ReleaseWorkerLocked(ctx context.Context, workerID, amount int64) (*domain.Worker, error) {
	return q.updateWorker(workerID, func(w *domain.Worker) error {
		if w.LockedAmount < amount {
			return fmt.Errorf("%w: locked amount below %d", domain.ErrStoreConflict, amount)
		}
		w.LockedAmount -= amount
		return nil
	})
}

func (q *memQuerier) RefundWorkerLocked(ctx context.Context, workerID, amount int64) (*domain.Worker, error) {
	return q.updateWorker(workerID, func(w *domain.Worker) error {
		if w.LockedAmount < amount {
			return fmt.Errorf("%w: locked amount below %d", domain.ErrStoreConflict, amount)
		}
		w.LockedAmount -= amount
		w.PendingAmount += amount
		return nil
	})
}

func (q *memQuerier) CreatePayoutIntent(ctx context.Context, workerID, amount int64) (*domain.Payout, error) {
	defer q.lock()()

	st := q.s.st
	if _, ok := st.workers[workerID]; !ok {
		return nil, fmt.Errorf("%w: worker %d does not exist", domain.ErrStoreConflict, workerID)
	}
	for _, p := range st.payouts {
		if p.WorkerID == workerID && p.Status == domain.PayoutStatusPending {
			return nil, fmt.Errorf("%w: payouts_one_pending_per_worker", domain.ErrStoreConflict)
		}
	}

	now := q.s.now()
	p := domain.Payout{
		ID:        st.nextID(),
		WorkerID:  workerID,
		Status:    domain.PayoutStatusPending,
		Amount:    amount,
		CreatedAt: now,
		UpdatedAt: now,
	}
	st.payouts[p.ID] = p
	return &p, nil
}

func (q *memQuerier) signatureTaken(payoutID int64, signature string) bool {
	for _, p := range q.s.st.payouts {
		if p.ID != payoutID && p.Signature == signature {
			return true
		}
	}
	return false
}

func (q *memQuerier) SetPayoutSignature(ctx context.Context, payoutID int64, signature string) error {
	defer q.lock()()

	p, ok := q.s.st.payouts[payoutID]
	if !ok || p.Status != domain.PayoutStatusPending {
		return fmt.Errorf("%w: payout %d is no longer pending", domain.ErrStoreConflict, payoutID)
	}
	if q.signatureTaken(payoutID, signature) {
		return fmt.Errorf("%w: payouts_signature_key", domain.ErrStoreConflict)
	}
	p.Signature = signature
	p.UpdatedAt = q.s.now()
	q.s.st.payouts[payoutID] = p
	return nil
}

func (q *memQuerier) TransitionPayout(ctx context.Context, arg TransitionPayoutParams) (*domain.Payout, error) {
	defer q.lock()()

	p, ok := q.s.st.payouts[arg.PayoutID]
	if !ok || p.Status != arg.From {
		return nil, fmt.Errorf("%w: payout %d not in status %s", domain.ErrStoreConflict, arg.PayoutID, arg.From)
	}
	if arg.Signature != "" {
		if q.signatureTaken(p.ID, arg.Signature) {
			return nil, fmt.Errorf("%w: payouts_signature_key", domain.ErrStoreConflict)
		}
		p.Signature = arg.Signature
	}
	p.Status = arg.To
	p.UpdatedAt = q.s.now()
	q.s.st.payouts[p.ID] = p
	return &p, nil
}

func (q *memQuerier) ListPayoutsByStatus(ctx context.Context, status domain.PayoutStatus, before time.Time, limit int) ([]domain.Payout, error) {
	defer q.lock()()

	var out []domain.Payout
	for _, id := range slices.Sorted(maps.Keys(q.s.st.payouts)) {
		p := q.s.st.payouts[id]
		if p.Status != status || !p.UpdatedAt.Before(before) {
			continue
		}
		out = append(out, p)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (q *memQuerier) ListPayoutsByWorker(ctx context.Context, workerID int64) ([]domain.Payout, error) {
	defer q.lock()()

	var out []domain.Payout
	ids := slices.Sorted(maps.Keys(q.s.st.payouts))
	slices.Reverse(ids)
	for _, id := range ids {
		if p := q.s.st.payouts[id]; p.WorkerID == workerID {
			out = append(out, p)
		}
	}
	return out, nil
}

var _ Store = (*MemoryStore)(nil)
