package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/gotransfer/internal/domain"
)

// TransferConfig wires the collaborators of a TransferUseCase.
type TransferConfig struct {
	Store    AccountStore
	Notifier Notifier
	IDGen    IDGenerator
	Observer TransferObserver
	// LockTimeout bounds the wait for both account locks. Zero means DefaultLockTimeout.
	LockTimeout time.Duration
	Clock       func() time.Time
}

// TransferUseCase is the single entry point for moving funds between accounts.
type TransferUseCase struct {
	store       AccountStore
	notifier    Notifier
	idGen       IDGenerator
	observer    TransferObserver
	lockTimeout time.Duration
	now         func() time.Time
}

// NewTransferUseCase creates a new TransferUseCase.
func NewTransferUseCase(cfg TransferConfig) *TransferUseCase {
	uc := &TransferUseCase{
		store:       cfg.Store,
		notifier:    cfg.Notifier,
		idGen:       cfg.IDGen,
		observer:    cfg.Observer,
		lockTimeout: cfg.LockTimeout,
		now:         cfg.Clock,
	}

	if uc.observer == nil {
		uc.observer = nopObserver{}
	}

	if uc.lockTimeout <= 0 {
		uc.lockTimeout = DefaultLockTimeout
	}

	if uc.now == nil {
		uc.now = func() time.Time { return time.Now().UTC() }
	}

	return uc
}

// TransferInput represents a transfer request.
type TransferInput struct {
	FromAccountID string
	ToAccountID   string
	Amount        decimal.Decimal
}

// Transfer validates and applies a transfer, then notifies both parties.
//
// A rejected transfer returns domain.ValidationErrors holding exactly one
// entry and leaves every balance untouched. domain.ErrLockTimeout means nothing
// was committed and the request may be retried.
func (uc *TransferUseCase) Transfer(ctx context.Context, input TransferInput) (*domain.Receipt, error) {
	started := time.Now()
	state := domain.TransferReceived
	defer func() {
		uc.observer.TransferFinished(state, input.Amount, time.Since(started))
	}()

	transfer := domain.Transfer{
		FromAccountID: input.FromAccountID,
		ToAccountID:   input.ToAccountID,
		Amount:        input.Amount,
	}
	if err := transfer.Validate(); err != nil {
		state = domain.TransferRejected
		return nil, err
	}

	from, _, err := uc.store.Get(ctx, transfer.FromAccountID)
	if err != nil {
		state = domain.TransferApplyFailed
		return nil, err
	}

	to, _, err := uc.store.Get(ctx, transfer.ToAccountID)
	if err != nil {
		state = domain.TransferApplyFailed
		return nil, err
	}

	state = domain.TransferValidating
	if errs := domain.ValidateTransfer(domain.TransferCandidate{
		FromAccountID: transfer.FromAccountID,
		ToAccountID:   transfer.ToAccountID,
		From:          from,
		To:            to,
		Amount:        transfer.Amount,
	}); errs != nil {
		state = domain.TransferRejected
		return nil, errs
	}

	state = domain.TransferApplying
	if err := uc.apply(ctx, transfer); err != nil {
		state = domain.TransferApplyFailed
		return nil, err
	}

	state = domain.TransferApplied
	receipt := &domain.Receipt{
		ID:            uc.idGen.Generate(),
		FromAccountID: transfer.FromAccountID,
		ToAccountID:   transfer.ToAccountID,
		Amount:        transfer.Amount,
		CompletedAt:   uc.now(),
	}

	state = domain.TransferNotifying
	uc.notify(ctx, *from, domain.PayerMessage(transfer.Amount, transfer.ToAccountID))
	uc.notify(ctx, *to, domain.PayeeMessage(transfer.Amount, transfer.FromAccountID))

	state = domain.TransferDone
	return receipt, nil
}

func (uc *TransferUseCase) apply(ctx context.Context, transfer domain.Transfer) error {
	lockCtx, cancel := context.WithTimeout(ctx, uc.lockTimeout)
	defer cancel()

	err := uc.store.ApplyTransfer(lockCtx, transfer.FromAccountID, transfer.ToAccountID, transfer.Amount)
	if err == nil {
		return nil
	}

	var insufficient *domain.InsufficientFundsError
	switch {
	case errors.As(err, &insufficient):
		return domain.ValidationErrors{*domain.NewValidationError(domain.CodeFund, insufficient)}
	case errors.Is(err, domain.ErrAccountNotFound):
		return domain.ValidationErrors{{Code: domain.CodeAccount, Description: domain.MsgAccountNotExist, Err: err}}
	default:
		return err
	}
}

func (uc *TransferUseCase) notify(ctx context.Context, account domain.Account, message string) {
	if uc.notifier == nil {
		return
	}
	uc.notifier.Notify(context.WithoutCancel(ctx), account, message)
}
