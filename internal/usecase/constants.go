package usecase

import "time"

const (
	// DefaultLockTimeout bounds how long a transfer waits for the account locks
	// when the caller's context carries no earlier deadline.
	DefaultLockTimeout = 5 * time.Second

	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour

	// DefaultPageSize and MaxPageSize bound account listings.
	DefaultPageSize = 20
	MaxPageSize     = 100
)
