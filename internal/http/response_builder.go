// Package http provides HTTP server and handler implementations.
//
// This file maps workflow errors onto the response taxonomy: validation
// failures 422 before any store work, missing sessions 401 with a generic
// body, ownership violations 403 with a distinct message, everything else
// 500 with the detail kept in the logs.
package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"billetera/internal/core"
	"billetera/internal/services"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// writeUnauthorized is the 401 the session guard sends. The body never says
// why: absence of a session is a navigation signal, not a diagnostic.
func writeUnauthorized(w http.ResponseWriter) {
	writeError(w, http.StatusUnauthorized, "authentication required")
}

// validationErrors short-circuit before any store call and map to 422.
var validationErrors = []error{
	core.ErrInvalidAmount,
	core.ErrInvalidKind,
	core.ErrEmptyCategory,
	core.ErrEmptyUsername,
	core.ErrEmptyEmail,
	core.ErrEmptyPassword,
	core.ErrEmptyName,
	core.ErrDescriptionLong,
	services.ErrPasswordTooShort,
	services.ErrUnknownCategory,
	services.ErrCategoryKindMismatch,
}

// writeServiceError translates a workflow error into a response. Remote/store
// failures keep their detail in the logs and surface a stable message; prior
// view state on the client is left untouched by design.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	for _, ve := range validationErrors {
		if errors.Is(err, ve) {
			writeError(w, http.StatusUnprocessableEntity, ve.Error())
			return
		}
	}

	switch {
	case errors.Is(err, services.ErrNoSession):
		writeUnauthorized(w)
	case errors.Is(err, services.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, services.ErrInvalidCredentials.Error())
	case errors.Is(err, services.ErrUsernameTaken):
		writeError(w, http.StatusConflict, services.ErrUsernameTaken.Error())
	case errors.Is(err, services.ErrNotOwner):
		writeError(w, http.StatusForbidden, services.ErrNotOwner.Error())
	case errors.Is(err, services.ErrTransactionNotFound):
		writeError(w, http.StatusNotFound, services.ErrTransactionNotFound.Error())
	case errors.Is(err, services.ErrOverdraftConfirmation):
		// A distinct status so clients can present the confirmation prompt
		// and retry with confirm_overdraft set.
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":                 services.ErrOverdraftConfirmation.Error(),
			"confirmation_required": true,
		})
	default:
		slog.ErrorContext(r.Context(), "Request failed",
			"error", err, "path", r.URL.Path, "method", r.Method)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
