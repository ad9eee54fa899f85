package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	mw "github.com/vivatura/translator/internal/api/middleware"
	"github.com/vivatura/translator/internal/api/response"
)

// Dependencies holds all handler and middleware dependencies for the router.
type Dependencies struct {
	RateLimit *mw.RateLimit

	HealthHandler  http.HandlerFunc
	MetricsHandler http.Handler

	LanguagesHandler http.HandlerFunc
	ModelsHandler    http.HandlerFunc

	TranslateProduct     http.HandlerFunc
	TranslateProducts    http.HandlerFunc
	TranslateCmsPage     http.HandlerFunc
	TranslateCmsPages    http.HandlerFunc
	TranslateSnippetSet  http.HandlerFunc
	TranslateSnippet     http.HandlerFunc
	ListSnippetFiles     http.HandlerFunc
	TranslateSnippetFile http.HandlerFunc

	GetJobHandler      http.HandlerFunc
	JobStatusHandler   http.HandlerFunc
	JobStatusesHandler http.HandlerFunc
}

// NewRouter builds the Chi router with middleware stack and all routes.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.RealIP)
	r.Use(mw.Logger)
	r.Use(mw.Recovery)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		response.Error(w, http.StatusNotFound, "NOT_FOUND", "Route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		response.Error(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
	})

	// Unlimited operational endpoints
	r.Get("/api/v1/health", orNotImplemented(deps.HealthHandler))
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	r.Group(func(r chi.Router) {
		if deps.RateLimit != nil {
			r.Use(deps.RateLimit.Limit)
		}

		r.Get("/api/v1/languages", orNotImplemented(deps.LanguagesHandler))
		r.Get("/api/v1/models", orNotImplemented(deps.ModelsHandler))

		r.Route("/api/v1/translate", func(r chi.Router) {
			r.Post("/products", orNotImplemented(deps.TranslateProducts))
			r.Post("/products/{productID}", orNotImplemented(deps.TranslateProduct))
			r.Post("/cms-pages", orNotImplemented(deps.TranslateCmsPages))
			r.Post("/cms-pages/{pageID}", orNotImplemented(deps.TranslateCmsPage))
			r.Post("/snippet-sets", orNotImplemented(deps.TranslateSnippetSet))
			r.Post("/snippets/{snippetID}", orNotImplemented(deps.TranslateSnippet))
			r.Post("/snippet-files", orNotImplemented(deps.TranslateSnippetFile))
		})

		r.Get("/api/v1/snippet-files", orNotImplemented(deps.ListSnippetFiles))

		r.Get("/api/v1/jobs/{jobID}", orNotImplemented(deps.GetJobHandler))
		r.Get("/api/v1/jobs/{jobID}/status", orNotImplemented(deps.JobStatusHandler))
		r.Post("/api/v1/jobs/status", orNotImplemented(deps.JobStatusesHandler))
	})

	return r
}

// orNotImplemented returns the handler if non-nil, or a 501 placeholder.
func orNotImplemented(h http.HandlerFunc) http.HandlerFunc {
	if h != nil {
		return h
	}
	return func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotImplemented, "NOT_IMPLEMENTED", "Endpoint not yet implemented", nil)
	}
}
