// Package handler implements the HTTP handlers of the translation API.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/vivatura/translator/internal/ai"
	"github.com/vivatura/translator/internal/api/response"
	"github.com/vivatura/translator/internal/jobs"
	"github.com/vivatura/translator/internal/snippetfile"
	"github.com/vivatura/translator/internal/store"
	"github.com/vivatura/translator/internal/translation"
)

// writeError maps service errors to the error envelope.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var pe *ai.ProviderError
	switch {
	case errors.Is(err, store.ErrNotFound):
		response.Error(w, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
	case errors.Is(err, jobs.ErrInvalidRequest),
		errors.Is(err, translation.ErrInvalidRequest),
		errors.Is(err, snippetfile.ErrOutsideRoots):
		response.InvalidRequest(w, err.Error())
	case errors.Is(err, ai.ErrConfiguration):
		response.Error(w, http.StatusServiceUnavailable, "AI_NOT_CONFIGURED",
			"The translation provider is not configured", nil)
	case errors.As(err, &pe):
		response.Error(w, http.StatusBadGateway, "AI_PROVIDER_ERROR", pe.Message, map[string]any{
			"status_code": pe.StatusCode,
			"retryable":   pe.Retryable(),
		})
	case errors.Is(err, ai.ErrTransport):
		response.Error(w, http.StatusGatewayTimeout, "AI_PROVIDER_UNAVAILABLE",
			"The translation provider could not be reached", nil)
	case errors.Is(err, ai.ErrInvalidResponse):
		response.Error(w, http.StatusBadGateway, "AI_INVALID_RESPONSE",
			"The translation provider returned an unexpected response", nil)
	case errors.Is(err, translation.ErrNoStore):
		response.Error(w, http.StatusServiceUnavailable, "STORE_UNAVAILABLE",
			"The content store is not available", nil)
	default:
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
			"An unexpected error occurred", nil)
	}
}

// decodeBody decodes the JSON request body into v, writing a 400 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		response.InvalidRequest(w, fmt.Sprintf("Invalid JSON body: %v", err))
		return false
	}
	return true
}

// pathUUID parses the chi URL parameter name, writing a 400 on failure.
func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		response.InvalidRequest(w, fmt.Sprintf("Invalid %s format", name))
		return uuid.Nil, false
	}
	return id, true
}
