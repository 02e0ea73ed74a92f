package dto

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/iho/gotransfer/internal/domain"
	"github.com/iho/gotransfer/internal/usecase"
)

// Field validation messages.
const (
	MsgMayNotBeEmpty          = "may not be empty"
	MsgMayNotBeNull           = "may not be null"
	MsgNegativeOpenBalance    = "Initial balance must not be negative."
	MsgAccountFromRequired    = "AccountFrom Id should not be empty or null"
	MsgAccountToRequired      = "AccountTo Id should not be empty or null"
	MsgTransferAmountPositive = "Transfer amount must be positive."
)

// Field names used as error codes.
const (
	FieldAccountID     = "accountId"
	FieldBalance       = "balance"
	FieldAccountFromID = "accountFromId"
	FieldAccountToID   = "accountToId"
	FieldAmount        = "amount"
)

// CreateAccountRequest represents a request to open an account.
// Pointer fields distinguish a missing value from a zero one.
type CreateAccountRequest struct {
	AccountID *string          `json:"accountId"`
	Balance   *decimal.Decimal `json:"balance"`
}

// Validate reports every field problem at once.
func (r *CreateAccountRequest) Validate() domain.ValidationErrors {
	var errs domain.ValidationErrors

	if r.AccountID == nil || strings.TrimSpace(*r.AccountID) == "" {
		errs = append(errs, fieldError(FieldAccountID, MsgMayNotBeEmpty))
	}

	switch {
	case r.Balance == nil:
		errs = append(errs, fieldError(FieldBalance, MsgMayNotBeNull))
	case r.Balance.IsNegative():
		errs = append(errs, fieldError(FieldBalance, MsgNegativeOpenBalance))
	}

	return errs
}

// ToUseCaseInput converts to use case input. Call Validate first.
func (r *CreateAccountRequest) ToUseCaseInput() usecase.CreateAccountInput {
	return usecase.CreateAccountInput{
		ID:      *r.AccountID,
		Balance: *r.Balance,
	}
}

// TransferRequest represents a request to move money between two accounts.
type TransferRequest struct {
	AccountFromID *string          `json:"accountFromId"`
	AccountToID   *string          `json:"accountToId"`
	Amount        *decimal.Decimal `json:"amount"`
}

// Validate reports every field problem at once.
func (r *TransferRequest) Validate() domain.ValidationErrors {
	var errs domain.ValidationErrors

	if r.AccountFromID == nil || strings.TrimSpace(*r.AccountFromID) == "" {
		errs = append(errs, fieldError(FieldAccountFromID, MsgAccountFromRequired))
	}
	if r.AccountToID == nil || strings.TrimSpace(*r.AccountToID) == "" {
		errs = append(errs, fieldError(FieldAccountToID, MsgAccountToRequired))
	}

	switch {
	case r.Amount == nil:
		errs = append(errs, fieldError(FieldAmount, MsgMayNotBeNull))
	case !r.Amount.IsPositive():
		errs = append(errs, fieldError(FieldAmount, MsgTransferAmountPositive))
	}

	return errs
}

// ToUseCaseInput converts to use case input. Call Validate first.
func (r *TransferRequest) ToUseCaseInput() usecase.TransferInput {
	return usecase.TransferInput{
		FromAccountID: *r.AccountFromID,
		ToAccountID:   *r.AccountToID,
		Amount:        *r.Amount,
	}
}

func fieldError(field, msg string) domain.ValidationError {
	return domain.ValidationError{Code: field, Description: msg}
}
