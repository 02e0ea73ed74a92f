package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Descriptions reported by the transfer checks.
const (
	MsgAccountNotExist = "Account not exist."
	MsgSelfTransfer    = "Transfer to self not permitted."
)

// MaxAccountIDLength bounds client supplied account ids.
const MaxAccountIDLength = 255

// TransferCandidate is everything the checks need to judge a prospective transfer.
// From and To are nil when the corresponding account was not found.
type TransferCandidate struct {
	FromAccountID string
	ToAccountID   string
	From          *Account
	To            *Account
	Amount        decimal.Decimal
}

// TransferCheck inspects a candidate and returns nil when it passes.
// Checks must not modify the accounts they are given.
type TransferCheck func(TransferCandidate) *ValidationError

// TransferChecks is the fixed evaluation order. Existence must run first so the
// later checks can dereference both accounts.
var TransferChecks = []TransferCheck{
	CheckAccountsExist,
	CheckDistinctAccounts,
	CheckSufficientFunds,
}

// CheckAccountsExist fails when either side of the transfer is unknown.
func CheckAccountsExist(c TransferCandidate) *ValidationError {
	if c.From == nil || c.To == nil {
		return &ValidationError{Code: CodeAccount, Description: MsgAccountNotExist, Err: ErrAccountNotFound}
	}
	return nil
}

// CheckDistinctAccounts fails on a transfer to self.
func CheckDistinctAccounts(c TransferCandidate) *ValidationError {
	if c.From.ID == c.To.ID {
		return &ValidationError{Code: CodeAccount, Description: MsgSelfTransfer, Err: ErrSameAccount}
	}
	return nil
}

// CheckSufficientFunds fails when the source balance cannot cover the amount.
// A balance equal to the amount passes.
func CheckSufficientFunds(c TransferCandidate) *ValidationError {
	if !c.From.CanDebit(c.Amount) {
		return NewValidationError(CodeFund, &InsufficientFundsError{AccountID: c.From.ID, Balance: c.From.Balance})
	}
	return nil
}

// RunChecks evaluates checks in order and stops at the first failure.
// It returns nil when every check passes.
func RunChecks(c TransferCandidate, checks []TransferCheck) ValidationErrors {
	for _, check := range checks {
		if verr := check(c); verr != nil {
			return ValidationErrors{*verr}
		}
	}
	return nil
}

// ValidateTransfer runs the standard checks.
func ValidateTransfer(c TransferCandidate) ValidationErrors {
	return RunChecks(c, TransferChecks)
}

// ValidateAccountID validates a client supplied account id.
func ValidateAccountID(id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: id cannot be empty", ErrInvalidAccountID)
	}

	if len(id) > MaxAccountIDLength {
		return fmt.Errorf("%w: id exceeds %d characters", ErrInvalidAccountID, MaxAccountIDLength)
	}

	if strings.ContainsAny(id, " \t\r\n") {
		return fmt.Errorf("%w: id must not contain whitespace", ErrInvalidAccountID)
	}

	return nil
}

// ValidateOpeningBalance rejects negative opening balances.
func ValidateOpeningBalance(balance decimal.Decimal) error {
	if balance.IsNegative() {
		return ErrNegativeOpenBalance
	}
	return nil
}
