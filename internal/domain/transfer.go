package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transfer represents a request to move money between two accounts.
// It is never stored.
type Transfer struct {
	FromAccountID string
	ToAccountID   string
	Amount        decimal.Decimal
}

// Validate checks the request-level precondition on the amount.
func (t *Transfer) Validate() error {
	if !t.Amount.IsPositive() {
		return ErrInvalidAmount
	}

	return nil
}

// Receipt describes a committed transfer.
type Receipt struct {
	ID            string
	FromAccountID string
	ToAccountID   string
	Amount        decimal.Decimal
	CompletedAt   time.Time
}

// TransferState is a step in the life of a single transfer request.
type TransferState string

const (
	TransferReceived    TransferState = "received"
	TransferValidating  TransferState = "validating"
	TransferRejected    TransferState = "rejected"
	TransferApplying    TransferState = "applying"
	TransferApplyFailed TransferState = "apply_failed"
	TransferApplied     TransferState = "applied"
	TransferNotifying   TransferState = "notifying"
	TransferDone        TransferState = "done"
)

// Terminal reports whether no further transition follows s.
func (s TransferState) Terminal() bool {
	switch s {
	case TransferRejected, TransferApplyFailed, TransferDone:
		return true
	default:
		return false
	}
}
