package domain

import "time"

type PayoutStatus string

const (
	// PayoutStatusPending marks an intent written before the transfer is dispatched.
	PayoutStatusPending    PayoutStatus = "Pending"
	PayoutStatusProcessing PayoutStatus = "Processing"
	PayoutStatusSuccess    PayoutStatus = "Success"
	PayoutStatusFailure    PayoutStatus = "Failure"
)

type Payout struct {
	ID        int64
	WorkerID  int64
	Signature string
	Status    PayoutStatus
	Amount    int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TransferStatus is the network's view of a dispatched transfer.
type TransferStatus string

const (
	TransferStatusUnknown   TransferStatus = "unknown"
	TransferStatusSubmitted TransferStatus = "submitted"
	TransferStatusConfirmed TransferStatus = "confirmed"
	TransferStatusFailed    TransferStatus = "failed"
)
