package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// Account errors
	ErrAccountNotFound     = errors.New("account not found")
	ErrInvalidAccountID    = errors.New("invalid account id")
	ErrDuplicateAccount    = errors.New("account already exists")
	ErrNegativeOpenBalance = errors.New("opening balance must not be negative")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrLockTimeout         = errors.New("timed out waiting for account lock")

	// Transfer errors
	ErrSameAccount   = errors.New("cannot transfer to same account")
	ErrInvalidAmount = errors.New("amount must be positive")
)

// Validation error codes.
const (
	CodeAccount = "Account"
	CodeFund    = "Fund"
)

// ValidationError is a single structured reason for rejecting a request.
// Code is a category (Account, Fund) or the name of the offending field.
type ValidationError struct {
	Code        string
	Description string
	Err         error
}

// NewValidationError builds a ValidationError whose description is err's message.
func NewValidationError(code string, err error) *ValidationError {
	return &ValidationError{Code: code, Description: err.Error(), Err: err}
}

func (e *ValidationError) Error() string {
	return e.Code + ": " + e.Description
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// ValidationErrors is the ordered list returned when a request is rejected.
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	parts := make([]string, len(v))
	for i := range v {
		parts[i] = v[i].Error()
	}
	return strings.Join(parts, "; ")
}

func (v ValidationErrors) Unwrap() []error {
	errs := make([]error, len(v))
	for i := range v {
		errs[i] = &v[i]
	}
	return errs
}

// DuplicateAccountError is returned when an account id is already in use.
type DuplicateAccountError struct {
	AccountID string
}

func (e *DuplicateAccountError) Error() string {
	return fmt.Sprintf("Account id %s already exists!", e.AccountID)
}

func (e *DuplicateAccountError) Is(target error) bool {
	return target == ErrDuplicateAccount
}

// InsufficientFundsError carries the balance observed when a debit was refused.
type InsufficientFundsError struct {
	AccountID string
	Balance   decimal.Decimal
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("Insufficient funds on account [%s], available balance= %s", e.AccountID, e.Balance)
}

func (e *InsufficientFundsError) Is(target error) bool {
	return target == ErrInsufficientFunds
}
