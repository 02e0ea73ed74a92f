package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// ReconciliationUseCase checks that the store still conserves money.
type ReconciliationUseCase struct {
	store AccountStore
}

// NewReconciliationUseCase creates a new reconciliation use case
func NewReconciliationUseCase(store AccountStore) *ReconciliationUseCase {
	return &ReconciliationUseCase{store: store}
}

// ConsistencyReport is the outcome of a ledger consistency check.
type ConsistencyReport struct {
	TotalBalance     decimal.Decimal
	OpeningTotal     decimal.Decimal
	Difference       decimal.Decimal
	Accounts         int
	NegativeAccounts int
	Consistent       bool
	CheckedAt        time.Time
}

// CheckConsistency compares the sum of all balances with the sum of opening
// balances and looks for negative balances.
func (uc *ReconciliationUseCase) CheckConsistency(ctx context.Context) (*ConsistencyReport, error) {
	totals, err := uc.store.Totals(ctx)
	if err != nil {
		return nil, err
	}

	return &ConsistencyReport{
		TotalBalance:     totals.Balance,
		OpeningTotal:     totals.Opening,
		Difference:       totals.Balance.Sub(totals.Opening),
		Accounts:         totals.Accounts,
		NegativeAccounts: totals.NegativeAccounts,
		Consistent:       totals.Conserved() && totals.NegativeAccounts == 0,
		CheckedAt:        time.Now().UTC(),
	}, nil
}
