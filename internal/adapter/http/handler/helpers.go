package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/iho/gotransfer/internal/adapter/http/dto"
	"github.com/iho/gotransfer/internal/domain"
	"github.com/iho/gotransfer/internal/infrastructure/logger"
)

const (
	codeBody     = "body"
	codeTransfer = "Transfer"
	codeInternal = "Internal"

	msgMalformedBody  = "Malformed JSON request."
	msgAccountsBusy   = "Accounts are busy, retry the transfer later."
	msgInternalError  = "Internal server error."
	retryAfterSeconds = "1"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeErrors writes an error response.
func writeErrors(w http.ResponseWriter, status int, items ...dto.ErrorItem) {
	writeJSON(w, status, dto.ErrorResponse{Errors: items})
}

// decodeJSON decodes the request body into dst, answering 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeErrors(w, http.StatusBadRequest, dto.ErrorItem{Code: codeBody, Description: msgMalformedBody})
		return false
	}
	return true
}

// mapDomainError maps domain errors to an HTTP status and error body.
// ValidationErrors are checked first because they wrap the sentinels below.
func mapDomainError(err error) (int, []dto.ErrorItem) {
	var (
		verrs     domain.ValidationErrors
		duplicate *domain.DuplicateAccountError
		funds     *domain.InsufficientFundsError
	)

	switch {
	case errors.As(err, &verrs):
		return http.StatusBadRequest, dto.ErrorsFromValidation(verrs)
	case errors.As(err, &duplicate):
		return http.StatusBadRequest, item(dto.FieldAccountID, duplicate.Error())
	case errors.As(err, &funds):
		return http.StatusBadRequest, item(domain.CodeFund, funds.Error())
	case errors.Is(err, domain.ErrInvalidAccountID):
		return http.StatusBadRequest, item(dto.FieldAccountID, err.Error())
	case errors.Is(err, domain.ErrNegativeOpenBalance):
		return http.StatusBadRequest, item(dto.FieldBalance, dto.MsgNegativeOpenBalance)
	case errors.Is(err, domain.ErrInvalidAmount):
		return http.StatusBadRequest, item(dto.FieldAmount, dto.MsgTransferAmountPositive)
	case errors.Is(err, domain.ErrSameAccount):
		return http.StatusBadRequest, item(domain.CodeAccount, domain.MsgSelfTransfer)
	case errors.Is(err, domain.ErrAccountNotFound):
		return http.StatusNotFound, item(domain.CodeAccount, domain.MsgAccountNotExist)
	case errors.Is(err, domain.ErrLockTimeout):
		return http.StatusServiceUnavailable, item(codeTransfer, msgAccountsBusy)
	default:
		return http.StatusInternalServerError, item(codeInternal, msgInternalError)
	}
}

// writeDomainError logs err and writes the mapped response.
func writeDomainError(w http.ResponseWriter, r *http.Request, base zerolog.Logger, op string, err error) {
	status, items := mapDomainError(err)

	log := logger.FromContext(r.Context(), base)
	switch {
	case status >= http.StatusInternalServerError:
		log.Error().Err(err).Str("op", op).Int("status", status).Msg("request failed")
	default:
		log.Debug().Err(err).Str("op", op).Int("status", status).Msg("request rejected")
	}

	if errors.Is(err, domain.ErrLockTimeout) {
		w.Header().Set("Retry-After", retryAfterSeconds)
	}
	writeErrors(w, status, items...)
}

func item(code, description string) []dto.ErrorItem {
	return []dto.ErrorItem{{Code: code, Description: description}}
}

// parseIntQuery parses an integer query parameter with a default value.
func parseIntQuery(r *http.Request, key string, defaultValue int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}
	return i
}
