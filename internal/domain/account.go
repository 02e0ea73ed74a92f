package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account represents a uniquely identified balance holder.
//
// Balance is only ever changed by the account store's atomic transfer step;
// the non-negative invariant is enforced there and by the transfer checks,
// not by this type.
type Account struct {
	ID        string
	Balance   decimal.Decimal
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewAccount creates an account with an opening balance.
func NewAccount(id string, balance decimal.Decimal, now time.Time) *Account {
	return &Account{
		ID:        id,
		Balance:   balance,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// CanDebit reports whether amount can be taken without driving the balance below zero.
func (a *Account) CanDebit(amount decimal.Decimal) bool {
	return a.Balance.GreaterThanOrEqual(amount)
}

// ApplyDebit returns new balance after debit.
func (a *Account) ApplyDebit(amount decimal.Decimal) decimal.Decimal {
	return a.Balance.Sub(amount)
}

// ApplyCredit returns new balance after credit.
func (a *Account) ApplyCredit(amount decimal.Decimal) decimal.Decimal {
	return a.Balance.Add(amount)
}

// LedgerTotals is a point-in-time aggregate over every account in a store.
type LedgerTotals struct {
	Balance          decimal.Decimal
	Opening          decimal.Decimal
	Accounts         int
	NegativeAccounts int
}

// Conserved reports whether the current balances still add up to what was deposited
// when the accounts were opened.
func (t LedgerTotals) Conserved() bool {
	return t.Balance.Equal(t.Opening)
}
