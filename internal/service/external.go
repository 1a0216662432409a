package service

import (
	"context"

	"github.com/set-night/clickpulse/internal/domain"
	"github.com/shopspring/decimal"
)

// Payment is what the chain says a requester's payment reference did.
type Payment struct {
	Amount decimal.Decimal // minor units
	From   string
	To     string
}

// PaymentVerifier resolves a payment reference. References that do not
// resolve to a successful transfer fail with domain.ErrPaymentInvalid.
type PaymentVerifier interface {
	LookupPayment(ctx context.Context, reference string) (*Payment, error)
}

// PreparedTransfer is a signed transfer whose reference is known before it
// is broadcast.
type PreparedTransfer struct {
	Signature string
	To        string
	Amount    int64 // minor units
	Raw       []byte
}

// TransferService moves funds out of the treasury. Submit errors that wrap
// domain.ErrTransferFailed are definitive rejections; any other Submit error
// leaves the outcome unknown.
type TransferService interface {
	Prepare(ctx context.Context, to string, amount int64) (*PreparedTransfer, error)
	Submit(ctx context.Context, transfer *PreparedTransfer) error
	// Discard drops a prepared transfer that will never be submitted.
	Discard(transfer *PreparedTransfer)
	Status(ctx context.Context, signature string) (domain.TransferStatus, error)
}

// SignatureVerifier checks that signature over message was produced by address.
type SignatureVerifier interface {
	VerifySignature(address, message, signature string) error
}

// TokenIssuer mints bearer tokens for one credential domain.
type TokenIssuer interface {
	Issue(subject int64) (string, error)
}

// UploadTarget is a short-lived form upload destination.
type UploadTarget struct {
	URL    string
	Fields map[string]string
}

// UploadPresigner returns an upload target scoped to a one-time key.
type UploadPresigner interface {
	PresignUpload(ctx context.Context, ownerID int64) (*UploadTarget, error)
}

// LedgerAlert describes a ledger state that needs an operator.
type LedgerAlert struct {
	Kind      string
	WorkerID  int64
	PayoutID  int64
	Amount    int64
	Signature string
	Err       error
}

// Alerter pushes ledger alerts to operators.
type Alerter interface {
	LedgerAlert(alert LedgerAlert)
}

type noopAlerter struct{}

func (noopAlerter) LedgerAlert(LedgerAlert) {}
