package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/iho/gotransfer/internal/adapter/http/dto"
	"github.com/iho/gotransfer/internal/domain"
	"github.com/iho/gotransfer/internal/usecase"
)

// AccountService defines the behavior needed by AccountHandler.
type AccountService interface {
	CreateAccount(ctx context.Context, input usecase.CreateAccountInput) (*domain.Account, error)
	GetAccount(ctx context.Context, id string) (*domain.Account, error)
	ListAccounts(ctx context.Context, input usecase.ListAccountsInput) ([]*domain.Account, error)
}

// AccountHandler handles account-related HTTP requests.
type AccountHandler struct {
	accountUC AccountService
	logger    zerolog.Logger
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accountUC AccountService, logger zerolog.Logger) *AccountHandler {
	return &AccountHandler{accountUC: accountUC, logger: logger}
}

// Create opens a new account.
func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateAccountRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if errs := req.Validate(); len(errs) > 0 {
		writeErrors(w, http.StatusBadRequest, dto.ErrorsFromValidation(errs)...)
		return
	}

	account, err := h.accountUC.CreateAccount(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, r, h.logger, "create_account", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.AccountOpened(account.ID))
}

// Get retrieves an account by ID.
func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "accountId")

	account, err := h.accountUC.GetAccount(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, h.logger, "get_account", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountFromDomain(account))
}

// List lists accounts ordered by id.
func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := parseIntQuery(r, "limit", usecase.DefaultPageSize)
	offset := parseIntQuery(r, "offset", 0)

	accounts, err := h.accountUC.ListAccounts(r.Context(), usecase.ListAccountsInput{
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		writeDomainError(w, r, h.logger, "list_accounts", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListAccountsResponse{
		Accounts: dto.AccountsFromDomain(accounts),
		Total:    int64(len(accounts)),
	})
}
