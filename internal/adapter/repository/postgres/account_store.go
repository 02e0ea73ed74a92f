package postgres

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/iho/gotransfer/internal/domain"
	"github.com/iho/gotransfer/internal/infrastructure/postgres/generated"
)

const (
	pgErrUniqueViolation      = "23505"
	pgErrLockNotAvailable     = "55P03"
	pgErrQueryCanceled        = "57014"
	pgErrDeadlock             = "40P01"
	pgErrSerializationFailure = "40001"
)

type dbPool interface {
	generated.DBTX
	pgxPool
	Ping(context.Context) error
}

// AccountStore implements usecase.AccountStore on PostgreSQL.
//
// ApplyTransfer takes row locks with SELECT ... FOR UPDATE ordered by id, which
// gives the same global lock order as the in-memory store. A transfer is
// attempted once; contention is reported as domain.ErrLockTimeout and left to
// the caller to retry.
type AccountStore struct {
	pool      dbPool
	queries   *generated.Queries
	txManager *TxManager
	now       func() time.Time
}

// NewAccountStore creates a new AccountStore.
func NewAccountStore(pool *pgxpool.Pool) *AccountStore {
	return newAccountStore(pool)
}

func newAccountStore(pool dbPool) *AccountStore {
	return &AccountStore{
		pool:      pool,
		queries:   generated.New(pool),
		txManager: newTxManagerWithPool(pool),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Create inserts an account; the id uniqueness check is done by the INSERT itself.
func (s *AccountStore) Create(ctx context.Context, account *domain.Account) error {
	row, err := s.queries.CreateAccount(ctx, generated.CreateAccountParams{
		ID:        account.ID,
		Balance:   decimalToNumeric(account.Balance),
		CreatedAt: timeToPgTimestamptz(account.CreatedAt),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || hasPgCode(err, pgErrUniqueViolation) {
			return &domain.DuplicateAccountError{AccountID: account.ID}
		}
		return fmt.Errorf("create account: %w", err)
	}

	account.Version = row.Version
	return nil
}

// Get retrieves an account by ID.
func (s *AccountStore) Get(ctx context.Context, id string) (*domain.Account, bool, error) {
	row, err := s.queries.GetAccountByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get account: %w", err)
	}

	return rowToAccount(row), true, nil
}

// List lists accounts ordered by id.
func (s *AccountStore) List(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	rows, err := s.queries.ListAccounts(ctx, generated.ListAccountsParams{
		Limit:  int32(limit),
		Offset: int32(offset),
	})
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}

	accounts := make([]*domain.Account, 0, len(rows))
	for _, row := range rows {
		accounts = append(accounts, rowToAccount(row))
	}

	return accounts, nil
}

// ApplyTransfer debits fromID and credits toID in one transaction.
func (s *AccountStore) ApplyTransfer(ctx context.Context, fromID, toID string, amount decimal.Decimal) error {
	if fromID == toID {
		return domain.ErrSameAccount
	}

	err := s.txManager.InTx(ctx, func(tx *Tx) error {
		return s.applyTransfer(ctx, s.queries.WithTx(tx.PgxTx()), fromID, toID, amount)
	})
	if err == nil {
		return nil
	}

	if isLockTimeout(ctx, err) {
		return fmt.Errorf("%w: %w", domain.ErrLockTimeout, err)
	}

	return err
}

func (s *AccountStore) applyTransfer(ctx context.Context, q *generated.Queries, fromID, toID string, amount decimal.Decimal) error {
	ids := []string{fromID, toID}
	sort.Strings(ids)

	rows, err := q.GetAccountsByIDsForUpdate(ctx, ids)
	if err != nil {
		return fmt.Errorf("lock accounts: %w", err)
	}

	var from, to *generated.Account
	for i := range rows {
		switch rows[i].ID {
		case fromID:
			from = &rows[i]
		case toID:
			to = &rows[i]
		}
	}

	if from == nil || to == nil {
		return domain.ErrAccountNotFound
	}

	fromBalance := numericToDecimal(from.Balance)
	if fromBalance.LessThan(amount) {
		return &domain.InsufficientFundsError{AccountID: fromID, Balance: fromBalance}
	}

	updatedAt := timeToPgTimestamptz(s.now())

	if err := q.UpdateAccountBalance(ctx, generated.UpdateAccountBalanceParams{
		ID:        fromID,
		Balance:   decimalToNumeric(fromBalance.Sub(amount)),
		UpdatedAt: updatedAt,
	}); err != nil {
		return fmt.Errorf("debit account: %w", err)
	}

	if err := q.UpdateAccountBalance(ctx, generated.UpdateAccountBalanceParams{
		ID:        toID,
		Balance:   decimalToNumeric(numericToDecimal(to.Balance).Add(amount)),
		UpdatedAt: updatedAt,
	}); err != nil {
		return fmt.Errorf("credit account: %w", err)
	}

	return nil
}

// Totals aggregates all balances in a single statement snapshot.
func (s *AccountStore) Totals(ctx context.Context) (domain.LedgerTotals, error) {
	row, err := s.queries.SumBalances(ctx)
	if err != nil {
		return domain.LedgerTotals{}, fmt.Errorf("sum balances: %w", err)
	}

	return domain.LedgerTotals{
		Balance:          numericToDecimal(row.TotalBalance),
		Opening:          numericToDecimal(row.OpeningTotal),
		Accounts:         int(row.Accounts),
		NegativeAccounts: int(row.NegativeAccounts),
	}, nil
}

// ClearAll deletes every account.
func (s *AccountStore) ClearAll(ctx context.Context) error {
	if err := s.queries.DeleteAllAccounts(ctx); err != nil {
		return fmt.Errorf("delete accounts: %w", err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *AccountStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func isLockTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, domain.ErrInsufficientFunds) || errors.Is(err, domain.ErrAccountNotFound) {
		return false
	}
	if ctx.Err() != nil {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	return hasPgCode(err, pgErrLockNotAvailable) ||
		hasPgCode(err, pgErrQueryCanceled) ||
		hasPgCode(err, pgErrDeadlock) ||
		hasPgCode(err, pgErrSerializationFailure)
}

func hasPgCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}

func rowToAccount(row generated.Account) *domain.Account {
	return &domain.Account{
		ID:        row.ID,
		Balance:   numericToDecimal(row.Balance),
		Version:   row.Version,
		CreatedAt: row.CreatedAt.Time,
		UpdatedAt: row.UpdatedAt.Time,
	}
}
