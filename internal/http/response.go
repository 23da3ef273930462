package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"budget/internal/core"
	applog "budget/internal/log"
	"budget/internal/services"
)

type errorResponse struct {
	Error  string               `json:"error"`
	Field  string               `json:"field,omitempty"`
	Values map[string]string    `json:"values,omitempty"`
	Ledger *core.LedgerDocument `json:"ledger,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeLedgerError maps a ledger operation failure to a response. Soft
// failures carry the unchanged document so clients can re-render it.
func writeLedgerError(w http.ResponseWriter, r *http.Request, op string, doc core.LedgerDocument, err error) {
	if !services.IsSoftFailure(err) {
		logInternal(r, op, err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	var (
		ve *core.ValidationError
		be *core.BudgetExceededError
	)
	switch {
	case errors.As(err, &be):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Error:  be.Error(),
			Values: map[string]string{"category": be.Category, "amount": be.Amount},
			Ledger: &doc,
		})
	case errors.As(err, &ve):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Error:  ve.Error(),
			Field:  ve.Field,
			Values: map[string]string{ve.Field: ve.Value},
			Ledger: &doc,
		})
	default:
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error(), Ledger: &doc})
	}
}

// writeQueryError maps an expense query API failure.
func writeQueryError(w http.ResponseWriter, r *http.Request, op string, err error) {
	var ie *core.InvalidInputError
	if errors.As(err, &ie) {
		writeError(w, http.StatusBadRequest, ie.Message)
		return
	}
	logInternal(r, op, err)
	writeError(w, http.StatusInternalServerError, "internal error")
}

func logInternal(r *http.Request, op string, err error) {
	ctx := r.Context()
	applog.NewStructuredLogger(applog.FromContext(ctx)).LogError(ctx, "Request failed", err,
		applog.ComponentHTTP, op,
		applog.NewFields().WithUser(userFrom(ctx)).WithRequestID(requestIDFrom(ctx)))
}
