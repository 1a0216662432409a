package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Worker struct {
	ID            int64
	Address       string
	PendingAmount int64
	LockedAmount  int64
	CreatedAt     time.Time
}

type Balance struct {
	PendingAmount int64
	LockedAmount  int64
}

type Submission struct {
	ID       int64
	TaskID   int64
	OptionID int64
	WorkerID int64
	Amount   decimal.Decimal
}
