package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/gotransfer/internal/adapter/http/dto"
	"github.com/iho/gotransfer/internal/domain"
	"github.com/iho/gotransfer/internal/usecase"
)

type accountServiceStub struct {
	createFn func(ctx context.Context, input usecase.CreateAccountInput) (*domain.Account, error)
	getFn    func(ctx context.Context, id string) (*domain.Account, error)
	listFn   func(ctx context.Context, input usecase.ListAccountsInput) ([]*domain.Account, error)
}

func (s *accountServiceStub) CreateAccount(ctx context.Context, input usecase.CreateAccountInput) (*domain.Account, error) {
	return s.createFn(ctx, input)
}

func (s *accountServiceStub) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	return s.getFn(ctx, id)
}

func (s *accountServiceStub) ListAccounts(ctx context.Context, input usecase.ListAccountsInput) ([]*domain.Account, error) {
	return s.listFn(ctx, input)
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func decodeErrors(t *testing.T, rec *httptest.ResponseRecorder) []dto.ErrorItem {
	t.Helper()

	var resp dto.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode error response: %v (%s)", err, rec.Body.String())
	}
	return resp.Errors
}

func TestAccountHandler_Create_Success(t *testing.T) {
	var captured usecase.CreateAccountInput
	handler := NewAccountHandler(&accountServiceStub{
		createFn: func(ctx context.Context, input usecase.CreateAccountInput) (*domain.Account, error) {
			captured = input
			return domain.NewAccount(input.ID, input.Balance, time.Now()), nil
		},
	}, zerolog.Nop())

	req := httptest.NewRequest(http.MethodPost, "/v1/accounts", bytes.NewBufferString(`{"accountId":"Id-123","balance":1000}`))
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if captured.ID != "Id-123" || !captured.Balance.Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("expected input to match request, got %+v", captured)
	}

	var resp dto.MessageResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Message != "Account [Id-123] opened successfully." {
		t.Fatalf("unexpected message %q", resp.Message)
	}
}

func TestAccountHandler_Create_FieldErrors(t *testing.T) {
	handler := NewAccountHandler(&accountServiceStub{
		createFn: func(ctx context.Context, input usecase.CreateAccountInput) (*domain.Account, error) {
			t.Fatal("CreateAccount should not be called on invalid input")
			return nil, nil
		},
	}, zerolog.Nop())

	req := httptest.NewRequest(http.MethodPost, "/v1/accounts", bytes.NewBufferString(`{"accountId":"","balance":-10}`))
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	errs := decodeErrors(t, rec)
	if len(errs) != 2 {
		t.Fatalf("expected both field errors, got %+v", errs)
	}
	if errs[0].Code != dto.FieldAccountID || errs[1].Description != dto.MsgNegativeOpenBalance {
		t.Fatalf("unexpected field errors: %+v", errs)
	}
}

func TestAccountHandler_Create_InvalidBody(t *testing.T) {
	handler := NewAccountHandler(&accountServiceStub{}, zerolog.Nop())

	req := httptest.NewRequest(http.MethodPost, "/v1/accounts", bytes.NewBufferString("{bad json"))
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if errs := decodeErrors(t, rec); errs[0].Code != codeBody {
		t.Fatalf("unexpected errors: %+v", errs)
	}
}

func TestAccountHandler_Create_Duplicate(t *testing.T) {
	handler := NewAccountHandler(&accountServiceStub{
		createFn: func(ctx context.Context, input usecase.CreateAccountInput) (*domain.Account, error) {
			return nil, &domain.DuplicateAccountError{AccountID: input.ID}
		},
	}, zerolog.Nop())

	req := httptest.NewRequest(http.MethodPost, "/v1/accounts", bytes.NewBufferString(`{"accountId":"Id-1","balance":"5"}`))
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	errs := decodeErrors(t, rec)
	if len(errs) != 1 || errs[0].Code != "accountId" || errs[0].Description != "Account id Id-1 already exists!" {
		t.Fatalf("unexpected errors: %+v", errs)
	}
}

func TestAccountHandler_Get(t *testing.T) {
	handler := NewAccountHandler(&accountServiceStub{
		getFn: func(ctx context.Context, id string) (*domain.Account, error) {
			if id != "Id-1" {
				return nil, domain.ErrAccountNotFound
			}
			return &domain.Account{ID: id, Balance: decimal.RequireFromString("99.50")}, nil
		},
	}, zerolog.Nop())

	req := withURLParam(httptest.NewRequest(http.MethodGet, "/v1/accounts/Id-1", nil), "accountId", "Id-1")
	rec := httptest.NewRecorder()

	handler.Get(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp dto.AccountResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.AccountID != "Id-1" || !resp.Balance.Equal(decimal.RequireFromString("99.5")) {
		t.Fatalf("unexpected account: %+v", resp)
	}
}

func TestAccountHandler_Get_NotFound(t *testing.T) {
	handler := NewAccountHandler(&accountServiceStub{
		getFn: func(ctx context.Context, id string) (*domain.Account, error) {
			return nil, domain.ErrAccountNotFound
		},
	}, zerolog.Nop())

	req := withURLParam(httptest.NewRequest(http.MethodGet, "/v1/accounts/missing", nil), "accountId", "missing")
	rec := httptest.NewRecorder()

	handler.Get(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if errs := decodeErrors(t, rec); errs[0].Code != domain.CodeAccount || errs[0].Description != domain.MsgAccountNotExist {
		t.Fatalf("unexpected errors: %+v", errs)
	}
}

func TestAccountHandler_List(t *testing.T) {
	var captured usecase.ListAccountsInput
	handler := NewAccountHandler(&accountServiceStub{
		listFn: func(ctx context.Context, input usecase.ListAccountsInput) ([]*domain.Account, error) {
			captured = input
			return []*domain.Account{{ID: "a"}, {ID: "b"}}, nil
		},
	}, zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/v1/accounts?limit=2&offset=4", nil)
	rec := httptest.NewRecorder()

	handler.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if captured.Limit != 2 || captured.Offset != 4 {
		t.Fatalf("unexpected pagination: %+v", captured)
	}

	var resp dto.ListAccountsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Total != 2 || resp.Accounts[1].AccountID != "b" {
		t.Fatalf("unexpected list response: %+v", resp)
	}
}

func TestAccountHandler_List_ServiceError(t *testing.T) {
	handler := NewAccountHandler(&accountServiceStub{
		listFn: func(ctx context.Context, input usecase.ListAccountsInput) ([]*domain.Account, error) {
			return nil, errors.New("db down")
		},
	}, zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/v1/accounts", nil)
	rec := httptest.NewRecorder()

	handler.List(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}
