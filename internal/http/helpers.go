package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/NT912/FinWise-sub000/internal/core"
	applog "github.com/NT912/FinWise-sub000/internal/log"
)

// ownerID resolves the caller identity placed on the request by the identity
// collaborator. The value is opaque and fully trusted here.
func ownerID(r *http.Request) (string, error) {
	owner := strings.TrimSpace(r.Header.Get("X-Owner-ID"))
	if owner == "" {
		return "", core.NewAuthorizationError("missing owner identity")
	}
	return owner, nil
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, core.NewValidationError("id", "must be a positive integer")
	}
	return id, nil
}

func pathPeriod(r *http.Request) (year, month int, err error) {
	year, err = strconv.Atoi(r.PathValue("year"))
	if err != nil {
		return 0, 0, core.NewValidationError("year", "must be a number")
	}
	month, err = strconv.Atoi(r.PathValue("month"))
	if err != nil {
		return 0, 0, core.NewValidationError("month", "must be a number")
	}
	return year, month, nil
}

// parseAmount converts a JSON amount string into a decimal.
func parseAmount(field, raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, core.NewValidationError(field, "must be a decimal number")
	}
	return d, nil
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return core.NewValidationError("body", "malformed JSON")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}

type errorBody struct {
	Error     string `json:"error"`
	Retryable bool   `json:"retryable,omitempty"`
}

// writeError maps the error taxonomy onto HTTP statuses. Unexpected failures
// are logged with full context and surfaced as a generic 500.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case core.IsValidation(err):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: err.Error()})
	case core.IsNotFound(err):
		writeJSON(w, http.StatusNotFound, errorBody{Error: err.Error()})
	case core.IsConflict(err):
		w.Header().Set("Retry-After", "1")
		writeJSON(w, http.StatusConflict, errorBody{Error: err.Error(), Retryable: core.IsRetryable(err)})
	case core.IsAuthorization(err):
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: err.Error()})
	default:
		s.logger.ErrorContext(r.Context(), "internal error",
			applog.FieldError, err,
			"path", r.URL.Path)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}
