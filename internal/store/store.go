package store

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/vivatura/translator/pkg/models"
)

var ErrNotFound = errors.New("resource not found")
var ErrDuplicateKey = errors.New("duplicate key violation")
var ErrInvalidTransition = errors.New("invalid job status transition")

// SnippetAuthor is recorded on snippets created or updated by the translator.
const SnippetAuthor = "VivaturaTranslator"

// ContentStore reads source content and writes language-scoped translations.
// Reads take an explicit language id; they never fall back to another locale.
type ContentStore interface {
	GetLanguage(ctx context.Context, id uuid.UUID) (*models.Language, error)
	GetLanguageIDByLocale(ctx context.Context, locale string) (uuid.UUID, error)
	ListLanguages(ctx context.Context) ([]*models.Language, error)

	// GetPromptOverride returns "" when the language has no override.
	GetPromptOverride(ctx context.Context, languageID uuid.UUID) (string, error)

	// GetProduct returns the product with fields in languageID. Missing
	// translations yield empty fields, not ErrNotFound.
	GetProduct(ctx context.Context, id, languageID uuid.UUID) (*models.Product, error)
	WriteProductTranslation(ctx context.Context, id, languageID uuid.UUID, fields map[string]string) error

	GetCmsPage(ctx context.Context, id, languageID uuid.UUID) (*models.CmsPage, error)
	WriteCmsPageName(ctx context.Context, id, languageID uuid.UUID, name string) error
	WriteSlotConfig(ctx context.Context, slotID, languageID uuid.UUID, config map[string]any) error

	GetSnippetSet(ctx context.Context, id uuid.UUID) (*models.SnippetSet, error)
	GetSnippet(ctx context.Context, id uuid.UUID) (*models.Snippet, error)
	// ListSnippets returns the snippets of a set, restricted to ids when non-empty.
	ListSnippets(ctx context.Context, setID uuid.UUID, ids []uuid.UUID) ([]*models.Snippet, error)
	UpsertSnippet(ctx context.Context, translationKey string, setID uuid.UUID, value string) error
}

// JobStore persists translation jobs.
type JobStore interface {
	CreateJob(ctx context.Context, job *models.Job) error
	GetJob(ctx context.Context, id uuid.UUID) (*models.Job, error)
	// GetJobs returns the jobs that exist among ids, keyed by id.
	GetJobs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.Job, error)
	UpdateJobStatus(ctx context.Context, id uuid.UUID, status string, opts ...JobUpdateOption) error
}

// Store is the data access interface. All database operations go through here.
type Store interface {
	Ping(ctx context.Context) error
	ContentStore
	JobStore
}

// JobUpdate holds the optional fields of a status update.
type JobUpdate struct {
	Result json.RawMessage
}

type JobUpdateOption func(*JobUpdate)

// WithResult stores result on the job.
func WithResult(result json.RawMessage) JobUpdateOption {
	return func(u *JobUpdate) {
		u.Result = result
	}
}

// NewJobUpdate applies opts to an empty JobUpdate.
func NewJobUpdate(opts ...JobUpdateOption) JobUpdate {
	var u JobUpdate
	for _, opt := range opts {
		opt(&u)
	}
	return u
}
