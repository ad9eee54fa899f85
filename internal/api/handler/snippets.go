package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/vivatura/translator/internal/api/response"
	"github.com/vivatura/translator/internal/snippetfile"
	"github.com/vivatura/translator/internal/translation"
)

// SnippetTranslator runs the synchronous snippet translations.
type SnippetTranslator interface {
	TranslateSingleSnippet(ctx context.Context, snippetID, targetSetID uuid.UUID, set translation.Settings) (*translation.SnippetResult, error)
	TranslateSnippetFile(ctx context.Context, path, targetLocale string, set translation.Settings) (*translation.BatchResult, error)
}

// FileScanner discovers snippet files and confines paths to the scan roots.
type FileScanner interface {
	Find() ([]snippetfile.Source, error)
	FindByLanguage(iso string) ([]snippetfile.Source, error)
	Resolve(path string) (string, error)
}

// NewTranslateSnippetHandler returns an http.HandlerFunc for POST
// /api/v1/translate/snippets/{snippetID}. It answers with the result, not a job.
func NewTranslateSnippetHandler(svc SnippetTranslator, set translation.Settings) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snippetID, ok := pathUUID(w, r, "snippetID")
		if !ok {
			return
		}

		var req struct {
			TargetSetID uuid.UUID `json:"target_set_id"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		if req.TargetSetID == uuid.Nil {
			response.InvalidRequest(w, "target_set_id is required")
			return
		}

		result, err := svc.TranslateSingleSnippet(r.Context(), snippetID, req.TargetSetID, set)
		if err != nil {
			writeError(w, r, err)
			return
		}
		response.JSON(w, result)
	}
}

// NewListSnippetFilesHandler returns an http.HandlerFunc for GET
// /api/v1/snippet-files. The optional "language" query parameter filters by locale.
func NewListSnippetFilesHandler(sc FileScanner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var (
			sources []snippetfile.Source
			err     error
		)
		if lang := strings.TrimSpace(r.URL.Query().Get("language")); lang != "" {
			sources, err = sc.FindByLanguage(lang)
		} else {
			sources, err = sc.Find()
		}
		if err != nil {
			writeError(w, r, err)
			return
		}
		if sources == nil {
			sources = []snippetfile.Source{}
		}

		files := 0
		for _, src := range sources {
			files += len(src.Files)
		}
		response.JSON(w, map[string]any{
			"sources": sources,
			"total":   files,
		})
	}
}

// NewTranslateSnippetFileHandler returns an http.HandlerFunc for POST
// /api/v1/translate/snippet-files. The path must lie below a scan root.
func NewTranslateSnippetFileHandler(svc SnippetTranslator, sc FileScanner, set translation.Settings) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Path              string `json:"path"`
			TargetLocale      string `json:"target_locale"`
			OverwriteExisting *bool  `json:"overwrite_existing"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		if req.Path == "" {
			response.InvalidRequest(w, "path is required")
			return
		}
		if req.TargetLocale == "" {
			response.InvalidRequest(w, "target_locale is required")
			return
		}

		path, err := sc.Resolve(req.Path)
		if err != nil {
			writeError(w, r, err)
			return
		}

		callSet := set
		if req.OverwriteExisting != nil {
			callSet.OverwriteExisting = *req.OverwriteExisting
		}

		result, err := svc.TranslateSnippetFile(r.Context(), path, req.TargetLocale, callSet)
		if err != nil {
			writeError(w, r, err)
			return
		}
		response.JSON(w, result)
	}
}
