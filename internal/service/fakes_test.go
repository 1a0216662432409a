package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/set-night/clickpulse/internal/domain"
	"github.com/set-night/clickpulse/internal/repository"
)

type fakeTransfers struct {
	mu         sync.Mutex
	seq        atomic.Int64
	prepareErr error
	submitErr  error
	statuses   map[string]domain.TransferStatus
	submitted  []*PreparedTransfer
	discarded  []*PreparedTransfer

	// onPrepare runs inside Prepare before the transfer is signed.
	onPrepare func()
}

func newFakeTransfers() *fakeTransfers {
	return &fakeTransfers{statuses: make(map[string]domain.TransferStatus)}
}

func (f *fakeTransfers) Prepare(ctx context.Context, to string, amount int64) (*PreparedTransfer, error) {
	if f.onPrepare != nil {
		f.onPrepare()
	}
	if f.prepareErr != nil {
		return nil, f.prepareErr
	}
	return &PreparedTransfer{
		Signature: fmt.Sprintf("0xsig%d", f.seq.Add(1)),
		To:        to,
		Amount:    amount,
	}, nil
}

func (f *fakeTransfers) Submit(ctx context.Context, t *PreparedTransfer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitted = append(f.submitted, t)
	if f.submitErr != nil {
		return f.submitErr
	}
	f.statuses[t.Signature] = domain.TransferStatusSubmitted
	return nil
}

func (f *fakeTransfers) Discard(t *PreparedTransfer) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.discarded = append(f.discarded, t)
}

func (f *fakeTransfers) Status(ctx context.Context, signature string) (domain.TransferStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.statuses[signature]; ok {
		return s, nil
	}
	return domain.TransferStatusUnknown, nil
}

func (f *fakeTransfers) setStatus(signature string, s domain.TransferStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses[signature] = s
}

func (f *fakeTransfers) submitCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.submitted)
}

type recordingAlerter struct {
	mu     sync.Mutex
	alerts []LedgerAlert
}

func (a *recordingAlerter) LedgerAlert(alert LedgerAlert) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.alerts = append(a.alerts, alert)
}

func (a *recordingAlerter) kinds() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []string
	for _, al := range a.alerts {
		out = append(out, al.Kind)
	}
	return out
}

// lockFailStore refuses every pending-to-locked move, as if the balance row
// changed under the payout.
type lockFailStore struct {
	*repository.MemoryStore
}

func (s lockFailStore) InTx(ctx context.Context, fn func(q repository.Querier) error) error {
	return s.MemoryStore.InTx(ctx, func(q repository.Querier) error {
		return fn(lockFailQuerier{q})
	})
}

type lockFailQuerier struct {
	repository.Querier
}

func (lockFailQuerier) LockWorkerPending(ctx context.Context, workerID, amount int64) (*domain.Worker, error) {
	return nil, fmt.Errorf("%w: pending below %d", domain.ErrStoreConflict, amount)
}

func seedWorker(t *testing.T, s *repository.MemoryStore, address string, pending int64) *domain.Worker {
	t.Helper()
	ctx := context.Background()
	w, err := s.UpsertWorker(ctx, address)
	if err != nil {
		t.Fatalf("UpsertWorker: %v", err)
	}
	if pending > 0 {
		if w, err = s.CreditWorkerPending(ctx, w.ID, pending); err != nil {
			t.Fatalf("CreditWorkerPending: %v", err)
		}
	}
	return w
}

func seedTask(t *testing.T, s *repository.MemoryStore, amount int64, signature string) *domain.Task {
	t.Helper()
	ctx := context.Background()
	owner, err := s.UpsertUser(ctx, "0xowner")
	if err != nil {
		t.Fatalf("UpsertUser: %v", err)
	}
	task, err := s.CreateTask(ctx, repository.CreateTaskParams{
		Title:     "which thumbnail",
		Amount:    amount,
		Signature: signature,
		OwnerID:   owner.ID,
		ImageURLs: []string{"https://img/a.png", "https://img/b.png"},
	})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	return task
}

func mustWorker(t *testing.T, s repository.Store, id int64) *domain.Worker {
	t.Helper()
	w, err := s.GetWorker(context.Background(), id)
	if err != nil {
		t.Fatalf("GetWorker: %v", err)
	}
	return w
}
