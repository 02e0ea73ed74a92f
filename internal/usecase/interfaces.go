package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/gotransfer/internal/domain"
)

// AccountStore is the keyed, concurrency-safe registry of accounts.
//
// Implementations own all locking. ApplyTransfer must lock both accounts in a
// globally consistent order, re-check sufficiency under those locks and apply
// both deltas or neither.
type AccountStore interface {
	// Create inserts the account, or fails with *domain.DuplicateAccountError when
	// the id is taken. The existence check and the insert are one atomic step.
	Create(ctx context.Context, account *domain.Account) error
	// Get returns a snapshot of the account. ok is false when no account has the id.
	Get(ctx context.Context, id string) (account *domain.Account, ok bool, err error)
	List(ctx context.Context, limit, offset int) ([]*domain.Account, error)
	// ApplyTransfer moves amount from fromID to toID. It returns
	// *domain.InsufficientFundsError when the source no longer covers the amount,
	// domain.ErrAccountNotFound when either side vanished and domain.ErrLockTimeout
	// when ctx ends while waiting for a lock.
	ApplyTransfer(ctx context.Context, fromID, toID string, amount decimal.Decimal) error
	Totals(ctx context.Context) (domain.LedgerTotals, error)
	// ClearAll removes every account. Test and reset hook only.
	ClearAll(ctx context.Context) error
}

// Notifier delivers a message to an account holder. It must not block and has
// no failure outcome visible to the caller.
type Notifier interface {
	Notify(ctx context.Context, account domain.Account, message string)
}

// TransferObserver receives transfer lifecycle signals.
type TransferObserver interface {
	TransferFinished(state domain.TransferState, amount decimal.Decimal, elapsed time.Duration)
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Release forgets a key so the request can be retried.
	Release(ctx context.Context, key string) error
}

type nopObserver struct{}

func (nopObserver) TransferFinished(domain.TransferState, decimal.Decimal, time.Duration) {}
