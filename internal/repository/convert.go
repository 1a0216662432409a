package repository

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/set-night/clickpulse/internal/domain"
	"github.com/set-night/clickpulse/internal/repository/sqlc"
)

// pgTimestamptzToTime converts pgtype.Timestamptz to time.Time.
func pgTimestamptzToTime(ts pgtype.Timestamptz) time.Time {
	if ts.Valid {
		return ts.Time
	}
	return time.Time{}
}

// timeToPgTimestamptz converts time.Time to pgtype.Timestamptz.
func timeToPgTimestamptz(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: !t.IsZero()}
}

func stringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func rowToTask(row sqlc.Task) *domain.Task {
	return &domain.Task{
		ID:        row.ID,
		Title:     row.Title,
		Amount:    row.Amount,
		Signature: row.Signature,
		Done:      row.Done,
		OwnerID:   row.OwnerID,
		CreatedAt: pgTimestamptzToTime(row.CreatedAt),
	}
}

func rowToOption(row sqlc.Option) domain.Option {
	return domain.Option{
		ID:       row.ID,
		ImageURL: row.ImageUrl,
		TaskID:   row.TaskID,
	}
}

func rowToWorker(row sqlc.Worker) *domain.Worker {
	return &domain.Worker{
		ID:            row.ID,
		Address:       row.Address,
		PendingAmount: row.PendingAmount,
		LockedAmount:  row.LockedAmount,
		CreatedAt:     pgTimestamptzToTime(row.CreatedAt),
	}
}

func rowToUser(row sqlc.User) *domain.User {
	return &domain.User{
		ID:        row.ID,
		Address:   row.Address,
		CreatedAt: pgTimestamptzToTime(row.CreatedAt),
	}
}

func rowToPayout(row sqlc.Payout) *domain.Payout {
	return &domain.Payout{
		ID:        row.ID,
		WorkerID:  row.WorkerID,
		Signature: derefString(row.Signature),
		Status:    domain.PayoutStatus(row.Status),
		Amount:    row.Amount,
		CreatedAt: pgTimestamptzToTime(row.CreatedAt),
		UpdatedAt: pgTimestamptzToTime(row.UpdatedAt),
	}
}
