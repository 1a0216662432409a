package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/set-night/clickpulse/internal/domain"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"unique violation", &pgconn.PgError{Code: "23505", ConstraintName: "submissions_task_worker_key"}, domain.ErrStoreConflict},
		{"serialization failure", &pgconn.PgError{Code: "40001"}, domain.ErrStoreConflict},
		{"deadlock", fmt.Errorf("exec: %w", &pgconn.PgError{Code: "40P01"}), domain.ErrStoreConflict},
		{"check violation", &pgconn.PgError{Code: "23514"}, domain.ErrStoreConflict},
		{"deadline", fmt.Errorf("query: %w", context.DeadlineExceeded), domain.ErrStoreTimeout},
		{"statement timeout", &pgconn.PgError{Code: "57014"}, domain.ErrStoreTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classify(tt.err); !errors.Is(got, tt.want) {
				t.Fatalf("classify(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestClassifyPassesThroughUnknown(t *testing.T) {
	err := errors.New("connection reset")
	if got := classify(err); got != err {
		t.Fatalf("classify() = %v, want original error", got)
	}
	if classify(nil) != nil {
		t.Fatal("classify(nil) != nil")
	}
}

func TestNotFound(t *testing.T) {
	if got := notFound(pgx.ErrNoRows, domain.ErrWorkerNotFound); !errors.Is(got, domain.ErrWorkerNotFound) {
		t.Fatalf("notFound(ErrNoRows) = %v, want ErrWorkerNotFound", got)
	}
	if got := notFound(&pgconn.PgError{Code: "23505"}, domain.ErrWorkerNotFound); !errors.Is(got, domain.ErrStoreConflict) {
		t.Fatalf("notFound(unique) = %v, want ErrStoreConflict", got)
	}
}
