package config

import "time"

const (
	// Number of answers a task is expected to receive before its fee is fully distributed.
	SubmissionQuota = 100

	// Minor units per whole coin.
	TotalDecimal = 1_000_000

	// Fixed fee a requester pays per task (0.1 coin), in minor units.
	TaskFee = TotalDecimal / 10

	// Minimum options per task
	MinOptions = 2

	// Title used when the requester does not provide one
	DefaultTaskTitle = "Select the most clickable thumbnail"

	// Message a wallet signs to sign in
	SignInMessage = "Sign in on ClickPulse"

	// Upload limits
	MaxUploadBytes = 4 * 1024 * 1024
	PresignExpiry  = 1 * time.Hour

	// Payout intents examined per reconcile pass
	ReconcileBatchSize = 50

	// Per-worker request rate on answer and payout endpoints
	RateLimitPerMinute = 60
	RateLimitBurst     = 10

	// HTTP server timeouts
	ReadHeaderTimeout = 10 * time.Second
	ShutdownTimeout   = 15 * time.Second
)
