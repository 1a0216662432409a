package domain

import "errors"

var (
	ErrUnauthenticated   = errors.New("unauthenticated")
	ErrSignatureInvalid  = errors.New("invalid wallet signature")
	ErrValidation        = errors.New("invalid input")
	ErrPaymentInvalid    = errors.New("payment does not match task requirements")
	ErrInvalidTask       = errors.New("invalid task or task already reviewed")
	ErrTaskNotFound      = errors.New("task not found")
	ErrUserNotFound      = errors.New("user not found")
	ErrWorkerNotFound    = errors.New("worker not found")
	ErrNothingToPayout   = errors.New("no pending amount to payout")
	ErrPayoutInProgress  = errors.New("payout already in progress")
	ErrTransferFailed    = errors.New("transfer failed")
	ErrTransferAmbiguous = errors.New("transfer outcome unknown")
	ErrLedgerConflict    = errors.New("ledger update failed after transfer")
	ErrStoreConflict     = errors.New("conflicting concurrent write")
	ErrStoreTimeout      = errors.New("store transaction timed out")
)
