package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/set-night/clickpulse/internal/domain"
)

// statusFor maps the error taxonomy onto response codes. 411 is kept for
// malformed input and failed preconditions, which clients already expect.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrUnauthenticated),
		errors.Is(err, domain.ErrSignatureInvalid),
		errors.Is(err, domain.ErrUserNotFound):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrPaymentInvalid),
		errors.Is(err, domain.ErrTaskNotFound):
		return http.StatusLengthRequired
	case errors.Is(err, domain.ErrInvalidTask),
		errors.Is(err, domain.ErrNothingToPayout),
		errors.Is(err, domain.ErrWorkerNotFound),
		errors.Is(err, domain.ErrPayoutInProgress),
		errors.Is(err, domain.ErrTransferFailed):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrStoreConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func messageFor(err error) string {
	switch {
	case errors.Is(err, domain.ErrUnauthenticated), errors.Is(err, domain.ErrUserNotFound):
		return "Unauthorized"
	case errors.Is(err, domain.ErrSignatureInvalid):
		return "Invalid signature"
	case errors.Is(err, domain.ErrValidation):
		return "You have passed the wrong input."
	case errors.Is(err, domain.ErrPaymentInvalid):
		return "Transaction signature/amount is not correct"
	case errors.Is(err, domain.ErrTaskNotFound):
		return "You don't have access to this task."
	case errors.Is(err, domain.ErrInvalidTask):
		return "Invalid task or task already reviewed"
	case errors.Is(err, domain.ErrNothingToPayout):
		return "No pending amount to payout"
	case errors.Is(err, domain.ErrWorkerNotFound):
		return "Worker not found"
	case errors.Is(err, domain.ErrPayoutInProgress):
		return "A payout is already in progress"
	case errors.Is(err, domain.ErrTransferFailed):
		return "Transaction failed"
	case errors.Is(err, domain.ErrTransferAmbiguous):
		return "Payout submitted but not confirmed, it will be reconciled"
	case errors.Is(err, domain.ErrLedgerConflict):
		return "Payout sent but not recorded, operators have been alerted"
	case errors.Is(err, domain.ErrStoreConflict):
		return "Conflicting request, please retry"
	default:
		return "Internal server error"
	}
}

func writeError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		slog.Error("request error", "path", c.FullPath(), "error", err)
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, gin.H{"message": messageFor(err)})
}
