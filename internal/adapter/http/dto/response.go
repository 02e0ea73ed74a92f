package dto

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/gotransfer/internal/domain"
	"github.com/iho/gotransfer/internal/usecase"
)

// MsgTransferSucceeded is the message on every transfer receipt.
const MsgTransferSucceeded = "Amount transferred successfully."

// ErrorItem is a single reason a request was rejected.
type ErrorItem struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// ErrorResponse is the body of every non-2xx answer.
type ErrorResponse struct {
	Errors []ErrorItem `json:"errors"`
}

// ErrorsFromValidation converts validation errors, keeping their order.
func ErrorsFromValidation(errs domain.ValidationErrors) []ErrorItem {
	items := make([]ErrorItem, len(errs))
	for i, e := range errs {
		items[i] = ErrorItem{Code: e.Code, Description: e.Description}
	}
	return items
}

// MessageResponse carries a human readable outcome.
type MessageResponse struct {
	Message string `json:"message"`
}

// AccountOpened builds the response to a successful account creation.
func AccountOpened(id string) MessageResponse {
	return MessageResponse{Message: fmt.Sprintf("Account [%s] opened successfully.", id)}
}

// AccountResponse represents an account in API responses.
type AccountResponse struct {
	AccountID string          `json:"accountId"`
	Balance   decimal.Decimal `json:"balance"`
	CreatedAt time.Time       `json:"createdAt"`
}

// AccountFromDomain converts domain account to response.
func AccountFromDomain(a *domain.Account) *AccountResponse {
	return &AccountResponse{
		AccountID: a.ID,
		Balance:   a.Balance,
		CreatedAt: a.CreatedAt,
	}
}

// AccountsFromDomain converts a slice of domain accounts.
func AccountsFromDomain(accounts []*domain.Account) []*AccountResponse {
	result := make([]*AccountResponse, len(accounts))
	for i, a := range accounts {
		result[i] = AccountFromDomain(a)
	}
	return result
}

// ListAccountsResponse represents a page of accounts.
type ListAccountsResponse struct {
	Accounts []*AccountResponse `json:"accounts"`
	Total    int64              `json:"total"`
}

// TransferReceiptResponse is returned for a committed transfer.
type TransferReceiptResponse struct {
	Message       string          `json:"message"`
	TransferID    string          `json:"transferId"`
	AccountFromID string          `json:"accountFromId"`
	AccountToID   string          `json:"accountToId"`
	Amount        decimal.Decimal `json:"amount"`
	CompletedAt   time.Time       `json:"completedAt"`
}

// ReceiptFromDomain converts a domain receipt to response.
func ReceiptFromDomain(r *domain.Receipt) *TransferReceiptResponse {
	return &TransferReceiptResponse{
		Message:       MsgTransferSucceeded,
		TransferID:    r.ID,
		AccountFromID: r.FromAccountID,
		AccountToID:   r.ToAccountID,
		Amount:        r.Amount,
		CompletedAt:   r.CompletedAt,
	}
}

// ConsistencyResponse reports the outcome of a ledger consistency check.
type ConsistencyResponse struct {
	Consistent       bool            `json:"consistent"`
	TotalBalance     decimal.Decimal `json:"total_balance"`
	OpeningTotal     decimal.Decimal `json:"opening_total"`
	Difference       decimal.Decimal `json:"difference"`
	Accounts         int             `json:"accounts"`
	NegativeAccounts int             `json:"negative_accounts"`
	CheckedAt        time.Time       `json:"checked_at"`
}

// ConsistencyFromReport converts a reconciliation report.
func ConsistencyFromReport(r *usecase.ConsistencyReport) *ConsistencyResponse {
	return &ConsistencyResponse{
		Consistent:       r.Consistent,
		TotalBalance:     r.TotalBalance,
		OpeningTotal:     r.OpeningTotal,
		Difference:       r.Difference,
		Accounts:         r.Accounts,
		NegativeAccounts: r.NegativeAccounts,
		CheckedAt:        r.CheckedAt,
	}
}
