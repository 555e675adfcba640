package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"contas/internal/core"
	"contas/internal/storage"
)

// Error kinds exposed on the wire. Clients branch on kind, not message.
const (
	kindNotFound          = "notFound"
	kindInvalidType       = "invalidType"
	kindExceedsRemaining  = "exceedsRemaining"
	kindNothingToTransfer = "nothingToTransfer"
	kindValidationFailed  = "validationFailed"
	kindInternalError     = "internalError"
)

type errorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
	// MaxCentavos is set only for exceedsRemaining, telling the client the
	// largest payment still accepted.
	MaxCentavos *int64 `json:"maxCentavos,omitempty"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// writeError translates domain errors into the HTTP error taxonomy.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var exceeds *core.ExceedsRemainingError

	switch {
	case errors.Is(err, core.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{errorBody{
			Kind:    kindNotFound,
			Message: "resource not found",
		}})

	case errors.Is(err, core.ErrInvalidType):
		writeJSON(w, http.StatusBadRequest, errorResponse{errorBody{
			Kind:    kindInvalidType,
			Message: "operation not valid for this transaction type",
		}})

	case errors.As(err, &exceeds):
		maxCents := exceeds.MaxCents
		writeJSON(w, http.StatusBadRequest, errorResponse{errorBody{
			Kind:        kindExceedsRemaining,
			Message:     "payment exceeds remaining amount",
			MaxCentavos: &maxCents,
		}})

	case errors.Is(err, core.ErrNothingToTransfer):
		writeJSON(w, http.StatusBadRequest, errorResponse{errorBody{
			Kind:    kindNothingToTransfer,
			Message: "no remaining amount to transfer",
		}})

	case errors.Is(err, core.ErrValidation), errors.Is(err, storage.ErrDuplicate), isDomainValidation(err):
		writeJSON(w, http.StatusBadRequest, errorResponse{errorBody{
			Kind:    kindValidationFailed,
			Message: err.Error(),
		}})

	default:
		slog.ErrorContext(r.Context(), "Request failed", "error", err, "path", r.URL.Path)
		writeJSON(w, http.StatusInternalServerError, errorResponse{errorBody{
			Kind:    kindInternalError,
			Message: "internal error",
		}})
	}
}

// isDomainValidation catches the bare field-level sentinels when they reach
// the handler unwrapped.
func isDomainValidation(err error) bool {
	return errors.Is(err, core.ErrInvalidAmount) ||
		errors.Is(err, core.ErrEmptyDescription) ||
		errors.Is(err, core.ErrEmptyCategory) ||
		errors.Is(err, core.ErrInvalidTxType) ||
		errors.Is(err, core.ErrInvalidDate)
}

func badRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{errorBody{
		Kind:    kindValidationFailed,
		Message: message,
	}})
}
