package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/vivatura/translator/internal/api/response"
	"github.com/vivatura/translator/internal/cache"
	"github.com/vivatura/translator/internal/translation"
	"github.com/vivatura/translator/pkg/models"
)

// ModelListTTL is how long the provider's model list is cached.
const ModelListTTL = time.Hour

// LanguageLister lists the languages content can be translated into.
type LanguageLister interface {
	AvailableLanguages(ctx context.Context, set translation.Settings) ([]*models.Language, error)
}

// NewLanguagesHandler returns an http.HandlerFunc for GET /api/v1/languages.
func NewLanguagesHandler(svc LanguageLister, set translation.Settings) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		langs, err := svc.AvailableLanguages(r.Context(), set)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if langs == nil {
			langs = []*models.Language{}
		}
		response.JSON(w, map[string]any{
			"source_language": set.SourceLocale,
			"languages":       langs,
		})
	}
}

// ModelLister lists the provider's models.
type ModelLister interface {
	Models(ctx context.Context) ([]models.ModelInfo, error)
}

// NewModelsHandler returns an http.HandlerFunc for GET /api/v1/models. The
// list is cached per provider; cache failures fall through to the provider.
func NewModelsHandler(svc ModelLister, c cache.Cache, provider string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := cache.ModelListKey(provider)

		var list []models.ModelInfo
		found, err := cache.GetJSON(r.Context(), c, key, &list)
		if err != nil {
			slog.Warn("reading model list cache", "error", err)
		}
		if found {
			response.JSON(w, map[string]any{"provider": provider, "models": list, "cached": true})
			return
		}

		list, err = svc.Models(r.Context())
		if err != nil {
			writeError(w, r, err)
			return
		}
		if list == nil {
			list = []models.ModelInfo{}
		}
		if err := cache.SetJSON(r.Context(), c, key, list, ModelListTTL); err != nil {
			slog.Warn("writing model list cache", "error", err)
		}
		response.JSON(w, map[string]any{"provider": provider, "models": list, "cached": false})
	}
}
