package mock

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/vivatura/translator/internal/ai"
	"github.com/vivatura/translator/pkg/models"
)

// Translator satisfies models.Translator for testing. Nil funcs fall back to
// an echo translation that prefixes every value with "[<code>] ".
type Translator struct {
	Name_              string
	TranslateOneFunc   func(ctx context.Context, text, languageCode, systemPrompt string) (string, error)
	TranslateBatchFunc func(ctx context.Context, units []models.TranslationUnit, languageCode, systemPrompt string) (string, error)
	ListModelsFunc     func(ctx context.Context) ([]models.ModelInfo, error)
	ValidateErr        error

	mu      sync.Mutex
	batches []Call
}

// Call records one TranslateBatch invocation.
type Call struct {
	Units        []models.TranslationUnit
	LanguageCode string
	SystemPrompt string
}

func (m *Translator) Name() string { return m.Name_ }

func (m *Translator) Validate() error { return m.ValidateErr }

func (m *Translator) TranslateOne(ctx context.Context, text, languageCode, systemPrompt string) (string, error) {
	if m.TranslateOneFunc != nil {
		return m.TranslateOneFunc(ctx, text, languageCode, systemPrompt)
	}
	return Echo(languageCode, text), nil
}

func (m *Translator) TranslateBatch(ctx context.Context, units []models.TranslationUnit, languageCode, systemPrompt string) (string, error) {
	m.mu.Lock()
	m.batches = append(m.batches, Call{
		Units:        append([]models.TranslationUnit(nil), units...),
		LanguageCode: languageCode,
		SystemPrompt: systemPrompt,
	})
	m.mu.Unlock()

	if m.TranslateBatchFunc != nil {
		return m.TranslateBatchFunc(ctx, units, languageCode, systemPrompt)
	}
	return EchoBatch(units, languageCode), nil
}

func (m *Translator) ListModels(ctx context.Context) ([]models.ModelInfo, error) {
	if m.ListModelsFunc != nil {
		return m.ListModelsFunc(ctx)
	}
	return []models.ModelInfo{{ID: "mock-v1", DisplayName: "Mock v1"}}, nil
}

// Batches returns the recorded TranslateBatch calls in order.
func (m *Translator) Batches() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Call(nil), m.batches...)
}

// Echo is the default single-text translation.
func Echo(languageCode, text string) string {
	return "[" + languageCode + "] " + text
}

// EchoBatch renders the default batch response as a JSON object.
func EchoBatch(units []models.TranslationUnit, languageCode string) string {
	out := make(map[string]string, len(units))
	for _, u := range units {
		out[u.FieldKey] = Echo(languageCode, u.SourceText)
	}
	b, _ := json.Marshal(out)
	return string(b)
}

// NewTranslator returns a Translator with the echo behaviour.
func NewTranslator() *Translator {
	return &Translator{Name_: "mock"}
}

// NewFailingTranslator returns a Translator whose calls all fail with err.
func NewFailingTranslator(err error) *Translator {
	return &Translator{
		Name_: "mock-failing",
		TranslateOneFunc: func(_ context.Context, _, _, _ string) (string, error) {
			return "", err
		},
		TranslateBatchFunc: func(_ context.Context, _ []models.TranslationUnit, _, _ string) (string, error) {
			return "", err
		},
		ListModelsFunc: func(_ context.Context) ([]models.ModelInfo, error) {
			return nil, err
		},
	}
}

// NewUnconfiguredTranslator returns a Translator that reports a missing API key.
func NewUnconfiguredTranslator() *Translator {
	t := NewFailingTranslator(ai.ErrConfiguration)
	t.Name_ = "mock-unconfigured"
	t.ValidateErr = ai.ErrConfiguration
	return t
}

// NewTimeoutTranslator returns a Translator that blocks until ctx is cancelled.
func NewTimeoutTranslator() *Translator {
	return &Translator{
		Name_: "mock-timeout",
		TranslateOneFunc: func(ctx context.Context, _, _, _ string) (string, error) {
			<-ctx.Done()
			return "", ai.ClassifyError(ctx.Err())
		},
		TranslateBatchFunc: func(ctx context.Context, _ []models.TranslationUnit, _, _ string) (string, error) {
			<-ctx.Done()
			return "", ai.ClassifyError(ctx.Err())
		},
	}
}

// Compile-time check that Translator implements models.Translator.
var _ models.Translator = (*Translator)(nil)
