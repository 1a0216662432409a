package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/set-night/clickpulse/internal/domain"
	"github.com/shopspring/decimal"
)

func seedTask(t *testing.T, s *MemoryStore, signature string) (*domain.User, *domain.Task) {
	t.Helper()
	ctx := context.Background()
	owner, err := s.UpsertUser(ctx, "0xowner")
	if err != nil {
		t.Fatalf("UpsertUser: %v", err)
	}
	task, err := s.CreateTask(ctx, CreateTaskParams{
		Title:     "pick one",
		Amount:    100,
		Signature: signature,
		OwnerID:   owner.ID,
		ImageURLs: []string{"https://img/a.png", "https://img/b.png"},
	})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	return owner, task
}

func TestMemoryStoreNextTaskOrder(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	_, first := seedTask(t, s, "sig-1")
	_, second := seedTask(t, s, "sig-2")
	worker, _ := s.UpsertWorker(ctx, "0xworker")

	got, err := s.NextTaskForWorker(ctx, worker.ID)
	if err != nil || got == nil {
		t.Fatalf("NextTaskForWorker = %v, %v", got, err)
	}
	if got.ID != first.ID {
		t.Fatalf("NextTaskForWorker picked %d, want lowest id %d", got.ID, first.ID)
	}
	if len(got.Options) != 2 || got.Options[0].ID > got.Options[1].ID {
		t.Fatalf("options = %+v, want two sorted options", got.Options)
	}

	if _, err := s.CreateSubmission(ctx, CreateSubmissionParams{
		TaskID: first.ID, OptionID: first.Options[0].ID, WorkerID: worker.ID, Amount: decimal.NewFromInt(1),
	}); err != nil {
		t.Fatalf("CreateSubmission: %v", err)
	}

	got, _ = s.NextTaskForWorker(ctx, worker.ID)
	if got == nil || got.ID != second.ID {
		t.Fatalf("NextTaskForWorker after answering = %+v, want task %d", got, second.ID)
	}
}

func TestMemoryStoreDuplicateSubmission(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	_, task := seedTask(t, s, "sig-1")
	worker, _ := s.UpsertWorker(ctx, "0xworker")

	arg := CreateSubmissionParams{TaskID: task.ID, OptionID: task.Options[1].ID, WorkerID: worker.ID, Amount: decimal.NewFromInt(1)}
	if _, err := s.CreateSubmission(ctx, arg); err != nil {
		t.Fatalf("first CreateSubmission: %v", err)
	}
	if _, err := s.CreateSubmission(ctx, arg); !errors.Is(err, domain.ErrStoreConflict) {
		t.Fatalf("second CreateSubmission err = %v, want ErrStoreConflict", err)
	}
}

func TestMemoryStoreRollback(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	worker, _ := s.UpsertWorker(ctx, "0xworker")

	boom := errors.New("boom")
	err := s.InTx(ctx, func(q Querier) error {
		if _, err := q.CreditWorkerPending(ctx, worker.ID, 50); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("InTx err = %v, want boom", err)
	}

	w, _ := s.GetWorker(ctx, worker.ID)
	if w.PendingAmount != 0 {
		t.Fatalf("pending after rollback = %d, want 0", w.PendingAmount)
	}
}

func TestMemoryStoreCanceledContextRollsBack(t *testing.T) {
	s := NewMemoryStore()
	worker, _ := s.UpsertWorker(context.Background(), "0xworker")

	ctx, cancel := context.WithTimeout(context.Background(), time.Hour)
	defer cancel()
	err := s.InTx(ctx, func(q Querier) error {
		if _, err := q.CreditWorkerPending(ctx, worker.ID, 5); err != nil {
			return err
		}
		cancel()
		return nil
	})
	if err == nil {
		t.Fatal("InTx succeeded after its context was canceled")
	}

	w, _ := s.GetWorker(context.Background(), worker.ID)
	if w.PendingAmount != 0 {
		t.Fatalf("pending = %d, want 0", w.PendingAmount)
	}
}

func TestMemoryStoreLockWorkerPending(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	worker, _ := s.UpsertWorker(ctx, "0xworker")
	s.CreditWorkerPending(ctx, worker.ID, 100)

	w, err := s.LockWorkerPending(ctx, worker.ID, 60)
	if err != nil {
		t.Fatalf("LockWorkerPending: %v", err)
	}
	if w.PendingAmount != 40 || w.LockedAmount != 60 {
		t.Fatalf("balance = %d/%d, want 40/60", w.PendingAmount, w.LockedAmount)
	}

	if _, err := s.LockWorkerPending(ctx, worker.ID, 60); !errors.Is(err, domain.ErrStoreConflict) {
		t.Fatalf("over-lock err = %v, want ErrStoreConflict", err)
	}
	w, _ = s.GetWorker(ctx, worker.ID)
	if w.PendingAmount != 40 || w.LockedAmount != 60 {
		t.Fatalf("balance changed by failed lock: %d/%d", w.PendingAmount, w.LockedAmount)
	}
}

func TestMemoryStoreOnePendingPayoutPerWorker(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	worker, _ := s.UpsertWorker(ctx, "0xworker")

	p, err := s.CreatePayoutIntent(ctx, worker.ID, 10)
	if err != nil {
		t.Fatalf("CreatePayoutIntent: %v", err)
	}
	if _, err := s.CreatePayoutIntent(ctx, worker.ID, 10); !errors.Is(err, domain.ErrStoreConflict) {
		t.Fatalf("second intent err = %v, want ErrStoreConflict", err)
	}

	if _, err := s.TransitionPayout(ctx, TransitionPayoutParams{
		PayoutID: p.ID, From: domain.PayoutStatusPending, To: domain.PayoutStatusFailure,
	}); err != nil {
		t.Fatalf("TransitionPayout: %v", err)
	}
	if _, err := s.CreatePayoutIntent(ctx, worker.ID, 10); err != nil {
		t.Fatalf("intent after failure: %v", err)
	}
}

func TestMemoryStoreTransitionRequiresFromStatus(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	worker, _ := s.UpsertWorker(ctx, "0xworker")
	p, _ := s.CreatePayoutIntent(ctx, worker.ID, 10)

	_, err := s.TransitionPayout(ctx, TransitionPayoutParams{
		PayoutID: p.ID, From: domain.PayoutStatusProcessing, To: domain.PayoutStatusSuccess,
	})
	if !errors.Is(err, domain.ErrStoreConflict) {
		t.Fatalf("err = %v, want ErrStoreConflict", err)
	}
}

func TestMemoryStoreQuotaMarksDone(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	_, task := seedTask(t, s, "sig-1")

	for i, addr := range []string{"0xa", "0xb"} {
		w, _ := s.UpsertWorker(ctx, addr)
		s.CreateSubmission(ctx, CreateSubmissionParams{TaskID: task.ID, OptionID: task.Options[0].ID, WorkerID: w.ID})
		done, err := s.MarkTaskDoneIfQuotaReached(ctx, task.ID, 2)
		if err != nil {
			t.Fatalf("MarkTaskDoneIfQuotaReached: %v", err)
		}
		if want := i == 1; done != want {
			t.Fatalf("after %d submissions done = %v, want %v", i+1, done, want)
		}
	}

	w, _ := s.UpsertWorker(ctx, "0xc")
	if got, _ := s.NextTaskForWorker(ctx, w.ID); got != nil {
		t.Fatalf("done task still assigned: %+v", got)
	}
}

func TestMemoryStoreSignatureOnlyOnPendingIntent(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	worker, _ := s.UpsertWorker(ctx, "0xworker")
	p, _ := s.CreatePayoutIntent(ctx, worker.ID, 10)

	if err := s.SetPayoutSignature(ctx, p.ID, "0xsig1"); err != nil {
		t.Fatalf("SetPayoutSignature: %v", err)
	}
	if _, err := s.TransitionPayout(ctx, TransitionPayoutParams{
		PayoutID: p.ID, From: domain.PayoutStatusPending, To: domain.PayoutStatusFailure,
	}); err != nil {
		t.Fatalf("TransitionPayout: %v", err)
	}

	tests := []struct {
		name string
		id   int64
	}{
		{name: "closed intent", id: p.ID},
		{name: "missing intent", id: 9999},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := s.SetPayoutSignature(ctx, tt.id, "0xsig2"); !errors.Is(err, domain.ErrStoreConflict) {
				t.Fatalf("err = %v, want ErrStoreConflict", err)
			}
		})
	}
}
