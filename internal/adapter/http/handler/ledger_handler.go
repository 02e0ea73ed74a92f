package handler

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/iho/gotransfer/internal/adapter/http/dto"
	"github.com/iho/gotransfer/internal/infrastructure/logger"
	"github.com/iho/gotransfer/internal/usecase"
)

// ConsistencyChecker defines the behavior needed by LedgerHandler.
type ConsistencyChecker interface {
	CheckConsistency(ctx context.Context) (*usecase.ConsistencyReport, error)
}

// LedgerHandler handles ledger-wide operations.
type LedgerHandler struct {
	reconciliationUC ConsistencyChecker
	logger           zerolog.Logger
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(reconciliationUC ConsistencyChecker, logger zerolog.Logger) *LedgerHandler {
	return &LedgerHandler{reconciliationUC: reconciliationUC, logger: logger}
}

// CheckConsistency answers 200 with the report when the ledger balances and 409 otherwise.
func (h *LedgerHandler) CheckConsistency(w http.ResponseWriter, r *http.Request) {
	report, err := h.reconciliationUC.CheckConsistency(r.Context())
	if err != nil {
		writeDomainError(w, r, h.logger, "check_consistency", err)
		return
	}

	if !report.Consistent {
		log := logger.FromContext(r.Context(), h.logger)
		log.Error().
			Str("total_balance", report.TotalBalance.String()).
			Str("opening_total", report.OpeningTotal.String()).
			Int("negative_accounts", report.NegativeAccounts).
			Msg("ledger inconsistent")
		writeJSON(w, http.StatusConflict, dto.ConsistencyFromReport(report))
		return
	}

	writeJSON(w, http.StatusOK, dto.ConsistencyFromReport(report))
}
