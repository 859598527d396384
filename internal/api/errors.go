package api

import (
	"encoding/json"
	"net/http"

	"github.com/sentrygrid/camcoord/internal/log"
	"github.com/sentrygrid/camcoord/internal/store"
)

// APIError is the structured error payload every endpoint returns on
// failure: a machine-readable kind, a one-line human message, and an
// optional field name for validation errors.
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
	Field     string `json:"field,omitempty"`
	Details   any    `json:"details,omitempty"`
}

func (e *APIError) Error() string { return e.Message }

var (
	ErrBadRequest = &APIError{Code: "BAD_REQUEST", Message: "request could not be processed"}
	ErrNotFound   = &APIError{Code: "NOT_FOUND", Message: "resource not found"}
	ErrConflict   = &APIError{Code: "CONFLICT", Message: "request conflicts with current state"}
	ErrInvalid    = &APIError{Code: "CONSTRAINT_VIOLATION", Message: "request violates a constraint"}
	ErrUnavailable = &APIError{Code: "UNAVAILABLE", Message: "storage temporarily unavailable"}
	ErrInternal   = &APIError{Code: "INTERNAL", Message: "an internal error occurred"}
)

// RespondError writes a structured error response, stamping the request ID
// from context and cloning apiErr so callers never mutate the shared
// sentinel values.
func RespondError(w http.ResponseWriter, r *http.Request, statusCode int, apiErr *APIError, field string) {
	resp := &APIError{
		Code:      apiErr.Code,
		Message:   apiErr.Message,
		RequestID: log.RequestIDFromContext(r.Context()),
		Field:     field,
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		http.Error(w, apiErr.Message, statusCode)
	}
}

// respondStoreErr maps a Store error onto its status code per §4.3.6 and
// writes it; any error not in the Store's Kind taxonomy (a bug, not a
// classified failure) becomes 500.
func respondStoreErr(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case store.IsKind(err, store.KindNotFound):
		RespondError(w, r, http.StatusNotFound, ErrNotFound, "")
	case store.IsKind(err, store.KindConflict):
		RespondError(w, r, http.StatusConflict, ErrConflict, "")
	case store.IsKind(err, store.KindConstraintViolation):
		RespondError(w, r, http.StatusUnprocessableEntity, ErrInvalid, "")
	case store.IsKind(err, store.KindUnavailable):
		RespondError(w, r, http.StatusServiceUnavailable, ErrUnavailable, "")
	default:
		l := log.WithContext(r.Context(), *log.FromContext(r.Context()))
		l.Error().Str(log.FieldEvent, "api.internal_error").Err(err).Msg("unclassified store error")
		RespondError(w, r, http.StatusInternalServerError, ErrInternal, "")
	}
}

// respondValidationErr writes a 400 for a validation failure.
func respondValidationErr(w http.ResponseWriter, r *http.Request, err error) {
	RespondError(w, r, http.StatusBadRequest, &APIError{Code: ErrBadRequest.Code, Message: err.Error()}, "")
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
