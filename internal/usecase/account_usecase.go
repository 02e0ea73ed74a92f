package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/gotransfer/internal/domain"
)

// AccountUseCase handles account business logic.
type AccountUseCase struct {
	store AccountStore
	now   func() time.Time
}

// NewAccountUseCase creates a new AccountUseCase.
func NewAccountUseCase(store AccountStore) *AccountUseCase {
	return &AccountUseCase{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// CreateAccountInput represents input for creating an account.
type CreateAccountInput struct {
	ID      string
	Balance decimal.Decimal
}

// CreateAccount opens an account with its initial balance.
func (uc *AccountUseCase) CreateAccount(ctx context.Context, input CreateAccountInput) (*domain.Account, error) {
	if err := domain.ValidateAccountID(input.ID); err != nil {
		return nil, err
	}

	if err := domain.ValidateOpeningBalance(input.Balance); err != nil {
		return nil, err
	}

	account := domain.NewAccount(input.ID, input.Balance, uc.now())
	if err := uc.store.Create(ctx, account); err != nil {
		return nil, err
	}

	return account, nil
}

// GetAccount retrieves an account by ID.
func (uc *AccountUseCase) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	account, ok, err := uc.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if !ok {
		return nil, domain.ErrAccountNotFound
	}

	return account, nil
}

// ListAccountsInput represents input for listing accounts.
type ListAccountsInput struct {
	Limit  int
	Offset int
}

// ListAccounts lists accounts ordered by id with pagination.
func (uc *AccountUseCase) ListAccounts(ctx context.Context, input ListAccountsInput) ([]*domain.Account, error) {
	if input.Limit <= 0 {
		input.Limit = DefaultPageSize
	}
	if input.Limit > MaxPageSize {
		input.Limit = MaxPageSize
	}
	if input.Offset < 0 {
		input.Offset = 0
	}
	return uc.store.List(ctx, input.Limit, input.Offset)
}

// ClearAccounts removes every account. Reset hook for tests and local runs.
func (uc *AccountUseCase) ClearAccounts(ctx context.Context) error {
	return uc.store.ClearAll(ctx)
}
