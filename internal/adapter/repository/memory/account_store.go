// Package memory provides an in-process account store.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/semaphore"

	"github.com/iho/gotransfer/internal/domain"
)

// slot is one stored account.
//
// lock serializes writers (ApplyTransfer) and supports a context-bounded wait;
// mu guards account so that Get can take a snapshot while a writer is queued.
type slot struct {
	lock    *semaphore.Weighted
	mu      sync.RWMutex
	account domain.Account
}

func (s *slot) snapshot() *domain.Account {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a := s.account
	return &a
}

// AccountStore implements usecase.AccountStore on a map.
type AccountStore struct {
	mu      sync.RWMutex
	slots   map[string]*slot
	opening decimal.Decimal
	now     func() time.Time
}

// NewAccountStore creates an empty AccountStore.
func NewAccountStore() *AccountStore {
	return &AccountStore{
		slots:   make(map[string]*slot),
		opening: decimal.Zero,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Create inserts account unless its id is taken.
func (s *AccountStore) Create(_ context.Context, account *domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.slots[account.ID]; exists {
		return &domain.DuplicateAccountError{AccountID: account.ID}
	}

	s.slots[account.ID] = &slot{
		lock:    semaphore.NewWeighted(1),
		account: *account,
	}
	s.opening = s.opening.Add(account.Balance)

	return nil
}

// Get returns a copy of the stored account.
func (s *AccountStore) Get(_ context.Context, id string) (*domain.Account, bool, error) {
	s.mu.RLock()
	sl, ok := s.slots[id]
	s.mu.RUnlock()

	if !ok {
		return nil, false, nil
	}

	return sl.snapshot(), true, nil
}

// List returns accounts ordered by id.
func (s *AccountStore) List(_ context.Context, limit, offset int) ([]*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.sortedIDs()
	if offset >= len(ids) {
		return []*domain.Account{}, nil
	}

	end := len(ids)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}

	accounts := make([]*domain.Account, 0, end-offset)
	for _, id := range ids[offset:end] {
		accounts = append(accounts, s.slots[id].snapshot())
	}

	return accounts, nil
}

// ApplyTransfer locks both accounts in id order, re-checks the source balance
// and moves amount. Either both balances change or neither does.
func (s *AccountStore) ApplyTransfer(ctx context.Context, fromID, toID string, amount decimal.Decimal) error {
	if fromID == toID {
		return domain.ErrSameAccount
	}

	s.mu.RLock()
	from, fromOK := s.slots[fromID]
	to, toOK := s.slots[toID]
	s.mu.RUnlock()

	if !fromOK || !toOK {
		return domain.ErrAccountNotFound
	}

	first, second := from, to
	if toID < fromID {
		first, second = to, from
	}

	if err := first.lock.Acquire(ctx, 1); err != nil {
		return lockErr(err)
	}
	defer first.lock.Release(1)

	if err := second.lock.Acquire(ctx, 1); err != nil {
		return lockErr(err)
	}
	defer second.lock.Release(1)

	from.mu.Lock()
	defer from.mu.Unlock()
	to.mu.Lock()
	defer to.mu.Unlock()

	if !from.account.CanDebit(amount) {
		return &domain.InsufficientFundsError{AccountID: fromID, Balance: from.account.Balance}
	}

	now := s.now()

	from.account.Balance = from.account.ApplyDebit(amount)
	from.account.Version++
	from.account.UpdatedAt = now

	to.account.Balance = to.account.ApplyCredit(amount)
	to.account.Version++
	to.account.UpdatedAt = now

	return nil
}

// Totals sums every balance while holding all account locks, so no transfer
// is observed half applied.
func (s *AccountStore) Totals(ctx context.Context) (domain.LedgerTotals, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.sortedIDs()
	acquired := make([]*slot, 0, len(ids))
	defer func() {
		for _, sl := range acquired {
			sl.lock.Release(1)
		}
	}()

	for _, id := range ids {
		sl := s.slots[id]
		if err := sl.lock.Acquire(ctx, 1); err != nil {
			return domain.LedgerTotals{}, lockErr(err)
		}
		acquired = append(acquired, sl)
	}

	totals := domain.LedgerTotals{
		Balance:  decimal.Zero,
		Opening:  s.opening,
		Accounts: len(ids),
	}
	for _, sl := range acquired {
		totals.Balance = totals.Balance.Add(sl.account.Balance)
		if sl.account.Balance.IsNegative() {
			totals.NegativeAccounts++
		}
	}

	return totals, nil
}

// ClearAll drops every account.
func (s *AccountStore) ClearAll(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.slots = make(map[string]*slot)
	s.opening = decimal.Zero

	return nil
}

// Ping always succeeds; it lets the store stand in for a database in readiness checks.
func (s *AccountStore) Ping(context.Context) error {
	return nil
}

func (s *AccountStore) sortedIDs() []string {
	ids := make([]string, 0, len(s.slots))
	for id := range s.slots {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	return ids
}

func lockErr(err error) error {
	return fmt.Errorf("%w: %w", domain.ErrLockTimeout, err)
}
