package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/gotransfer/internal/adapter/http/dto"
	"github.com/iho/gotransfer/internal/domain"
)

func TestParseIntQuery(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/accounts?limit=50", nil)
	if got := parseIntQuery(req, "limit", 10); got != 50 {
		t.Fatalf("expected limit=50, got %d", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/accounts?limit=invalid", nil)
	if got := parseIntQuery(req, "limit", 10); got != 10 {
		t.Fatalf("expected fallback to default, got %d", got)
	}

	req.URL = &url.URL{RawQuery: ""}
	if got := parseIntQuery(req, "limit", 25); got != 25 {
		t.Fatalf("expected default when missing, got %d", got)
	}
}

func TestMapDomainError(t *testing.T) {
	insufficient := domain.NewValidationError(domain.CodeFund, &domain.InsufficientFundsError{
		AccountID: "Id-1",
		Balance:   decimal.NewFromInt(5000),
	})

	tests := []struct {
		name     string
		err      error
		status   int
		code     string
		describe string
	}{
		{"account not found", domain.ErrAccountNotFound, http.StatusNotFound, domain.CodeAccount, domain.MsgAccountNotExist},
		{"duplicate account", &domain.DuplicateAccountError{AccountID: "Id-1"}, http.StatusBadRequest, dto.FieldAccountID, "Account id Id-1 already exists!"},
		{"validation errors", domain.ValidationErrors{*insufficient}, http.StatusBadRequest, domain.CodeFund, "Insufficient funds on account [Id-1], available balance= 5000"},
		{"missing account in pipeline", domain.ValidationErrors{{Code: domain.CodeAccount, Description: domain.MsgAccountNotExist, Err: domain.ErrAccountNotFound}}, http.StatusBadRequest, domain.CodeAccount, domain.MsgAccountNotExist},
		{"same account", domain.ErrSameAccount, http.StatusBadRequest, domain.CodeAccount, domain.MsgSelfTransfer},
		{"invalid amount", domain.ErrInvalidAmount, http.StatusBadRequest, dto.FieldAmount, dto.MsgTransferAmountPositive},
		{"negative balance", domain.ErrNegativeOpenBalance, http.StatusBadRequest, dto.FieldBalance, dto.MsgNegativeOpenBalance},
		{"invalid id", fmt.Errorf("%w: id must not contain whitespace", domain.ErrInvalidAccountID), http.StatusBadRequest, dto.FieldAccountID, "invalid account id: id must not contain whitespace"},
		{"lock timeout", fmt.Errorf("%w: context deadline exceeded", domain.ErrLockTimeout), http.StatusServiceUnavailable, codeTransfer, msgAccountsBusy},
		{"unknown error", errors.New("boom"), http.StatusInternalServerError, codeInternal, msgInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, items := mapDomainError(tt.err)
			if status != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, status)
			}
			if len(items) != 1 || items[0].Code != tt.code || items[0].Description != tt.describe {
				t.Fatalf("unexpected items: %+v", items)
			}
		})
	}
}

func TestWriteDomainError_LockTimeoutSetsRetryAfter(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/v1/accounts/transfer", nil)

	writeDomainError(rr, req, zerolog.Nop(), "transfer", domain.ErrLockTimeout)

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
	if rr.Header().Get("Retry-After") != retryAfterSeconds {
		t.Fatalf("expected Retry-After header, got %q", rr.Header().Get("Retry-After"))
	}
}

func TestWriteJSON(t *testing.T) {
	rr := httptest.NewRecorder()
	payload := map[string]string{"status": "ok"}

	writeJSON(rr, http.StatusCreated, payload)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected JSON content type, got %s", ct)
	}

	var decoded map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if decoded["status"] != "ok" {
		t.Fatalf("unexpected payload: %+v", decoded)
	}
}

func TestWriteErrors(t *testing.T) {
	rr := httptest.NewRecorder()

	writeErrors(rr, http.StatusBadRequest,
		dto.ErrorItem{Code: "a", Description: "first"},
		dto.ErrorItem{Code: "b", Description: "second"},
	)

	var resp dto.ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	if len(resp.Errors) != 2 || resp.Errors[1].Code != "b" {
		t.Fatalf("unexpected error response: %+v", resp)
	}
}
