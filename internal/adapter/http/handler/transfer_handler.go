package handler

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/iho/gotransfer/internal/adapter/http/dto"
	"github.com/iho/gotransfer/internal/domain"
	"github.com/iho/gotransfer/internal/usecase"
)

// TransferService defines the behavior needed by TransferHandler.
type TransferService interface {
	Transfer(ctx context.Context, input usecase.TransferInput) (*domain.Receipt, error)
}

// TransferHandler handles transfer-related HTTP requests.
type TransferHandler struct {
	transferUC TransferService
	logger     zerolog.Logger
}

// NewTransferHandler creates a new TransferHandler.
func NewTransferHandler(transferUC TransferService, logger zerolog.Logger) *TransferHandler {
	return &TransferHandler{transferUC: transferUC, logger: logger}
}

// Transfer moves money between two accounts.
func (h *TransferHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	var req dto.TransferRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if errs := req.Validate(); len(errs) > 0 {
		writeErrors(w, http.StatusBadRequest, dto.ErrorsFromValidation(errs)...)
		return
	}

	receipt, err := h.transferUC.Transfer(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, r, h.logger, "transfer", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ReceiptFromDomain(receipt))
}
