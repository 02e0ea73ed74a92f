package dto

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/iho/gotransfer/internal/domain"
	"github.com/iho/gotransfer/internal/usecase"
)

func TestCreateAccountRequest_Validate(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []domain.ValidationError
	}{
		{
			name: "valid",
			body: `{"accountId":"Id-123","balance":1000}`,
		},
		{
			name: "zero balance is allowed",
			body: `{"accountId":"Id-123","balance":"0"}`,
		},
		{
			name: "missing everything",
			body: `{}`,
			want: []domain.ValidationError{
				{Code: FieldAccountID, Description: MsgMayNotBeEmpty},
				{Code: FieldBalance, Description: MsgMayNotBeNull},
			},
		},
		{
			name: "blank id and negative balance",
			body: `{"accountId":"  ","balance":-1}`,
			want: []domain.ValidationError{
				{Code: FieldAccountID, Description: MsgMayNotBeEmpty},
				{Code: FieldBalance, Description: MsgNegativeOpenBalance},
			},
		},
		{
			name: "explicit null balance",
			body: `{"accountId":"Id-1","balance":null}`,
			want: []domain.ValidationError{
				{Code: FieldBalance, Description: MsgMayNotBeNull},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req CreateAccountRequest
			if err := json.Unmarshal([]byte(tt.body), &req); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}

			got := req.Validate()
			assertValidationErrors(t, got, tt.want)
		})
	}
}

func TestCreateAccountRequest_ToUseCaseInput(t *testing.T) {
	id := "Id-123"
	balance := decimal.RequireFromString("1000.50")
	req := &CreateAccountRequest{AccountID: &id, Balance: &balance}

	got := req.ToUseCaseInput()
	want := usecase.CreateAccountInput{ID: "Id-123", Balance: balance}

	if got.ID != want.ID || !got.Balance.Equal(want.Balance) {
		t.Fatalf("ToUseCaseInput() = %+v, want %+v", got, want)
	}
}

func TestTransferRequest_Validate(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []domain.ValidationError
	}{
		{
			name: "valid",
			body: `{"accountFromId":"A","accountToId":"B","amount":"10.25"}`,
		},
		{
			name: "empty body reports every field",
			body: `{}`,
			want: []domain.ValidationError{
				{Code: FieldAccountFromID, Description: MsgAccountFromRequired},
				{Code: FieldAccountToID, Description: MsgAccountToRequired},
				{Code: FieldAmount, Description: MsgMayNotBeNull},
			},
		},
		{
			name: "zero amount",
			body: `{"accountFromId":"A","accountToId":"B","amount":0}`,
			want: []domain.ValidationError{
				{Code: FieldAmount, Description: MsgTransferAmountPositive},
			},
		},
		{
			name: "negative amount and empty destination",
			body: `{"accountFromId":"A","accountToId":"","amount":-5}`,
			want: []domain.ValidationError{
				{Code: FieldAccountToID, Description: MsgAccountToRequired},
				{Code: FieldAmount, Description: MsgTransferAmountPositive},
			},
		},
		{
			name: "same account passes field validation",
			body: `{"accountFromId":"A","accountToId":"A","amount":1}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req TransferRequest
			if err := json.Unmarshal([]byte(tt.body), &req); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}

			assertValidationErrors(t, req.Validate(), tt.want)
		})
	}
}

func TestTransferRequest_ToUseCaseInput(t *testing.T) {
	var req TransferRequest
	if err := json.Unmarshal([]byte(`{"accountFromId":"A","accountToId":"B","amount":"2500.00"}`), &req); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	got := req.ToUseCaseInput()
	if got.FromAccountID != "A" || got.ToAccountID != "B" {
		t.Fatalf("unexpected ids: %+v", got)
	}
	if !got.Amount.Equal(decimal.NewFromInt(2500)) {
		t.Fatalf("amount = %s, want 2500", got.Amount)
	}
}

func assertValidationErrors(t *testing.T, got domain.ValidationErrors, want []domain.ValidationError) {
	t.Helper()

	if len(got) != len(want) {
		t.Fatalf("got %d errors %v, want %d %v", len(got), got, len(want), want)
	}
	for i := range want {
		if got[i].Code != want[i].Code || got[i].Description != want[i].Description {
			t.Errorf("error[%d] = %s/%s, want %s/%s", i, got[i].Code, got[i].Description, want[i].Code, want[i].Description)
		}
	}
}
