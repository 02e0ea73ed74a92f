package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Notice is a message addressed to the holder of an account.
type Notice struct {
	ReferenceID string    `json:"reference_id"`
	AccountID   string    `json:"account_id"`
	Message     string    `json:"message"`
	CreatedAt   time.Time `json:"created_at"`
}

// PayerMessage is the notice text sent to the debited account.
func PayerMessage(amount decimal.Decimal, toAccountID string) string {
	return fmt.Sprintf("Transfer completed successfully of amount[%s] to account[%s].", amount, toAccountID)
}

// PayeeMessage is the notice text sent to the credited account.
func PayeeMessage(amount decimal.Decimal, fromAccountID string) string {
	return fmt.Sprintf("Account [%s] has transferred amount[%s] into your account.", fromAccountID, amount)
}
