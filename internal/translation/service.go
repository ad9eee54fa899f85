// Package translation runs extraction, provider calls, response recovery and
// write-back for products, CMS pages, snippet sets and snippet files.
package translation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vivatura/translator/internal/extract"
	"github.com/vivatura/translator/internal/metrics"
	"github.com/vivatura/translator/internal/prompt"
	"github.com/vivatura/translator/internal/recovery"
	"github.com/vivatura/translator/internal/store"
	"github.com/vivatura/translator/pkg/models"
)

// DefaultChunkSize bounds the units sent in one provider call for snippet sets and files.
const DefaultChunkSize = 50

var (
	// ErrNoStore is returned by operations that need the content store when none is configured.
	ErrNoStore = errors.New("content store not configured")
	// ErrInvalidRequest covers arguments that can never succeed (e.g. same source and target).
	ErrInvalidRequest = errors.New("invalid translation request")
)

// SleepFunc waits d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Service orchestrates translations. It holds no per-run state; Settings are
// passed to every call.
type Service struct {
	store      store.ContentStore
	translator models.Translator
	sleep      SleepFunc
}

type Option func(*Service)

// WithSleep replaces the inter-chunk wait.
func WithSleep(fn SleepFunc) Option {
	return func(s *Service) { s.sleep = fn }
}

// NewService creates a Service. st may be nil for file-only use (the CLI).
func NewService(st store.ContentStore, tr models.Translator, opts ...Option) *Service {
	s := &Service{store: st, translator: tr, sleep: sleepContext}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// --- Products ---

// TranslateProduct translates one product into every target language. Only a
// configuration problem, a missing source language or a missing product fail
// the call; everything else is reported per language.
func (s *Service) TranslateProduct(ctx context.Context, productID uuid.UUID, targets []uuid.UUID, set Settings) (*EntityResult, error) {
	sourceID, err := s.begin(ctx, set)
	if err != nil {
		return nil, err
	}

	product, err := s.store.GetProduct(ctx, productID, sourceID)
	if err != nil {
		return nil, fmt.Errorf("loading product %s: %w", productID, err)
	}

	job := entityJob{
		kind:  "product",
		id:    productID,
		units: extract.Product(product),
		existing: func(ctx context.Context, langID uuid.UUID) (map[string]string, error) {
			p, err := s.store.GetProduct(ctx, productID, langID)
			if err != nil {
				return nil, err
			}
			return unitMap(extract.Product(p)), nil
		},
		write: func(ctx context.Context, langID uuid.UUID, translated, _ map[string]string) error {
			return s.store.WriteProductTranslation(ctx, productID, langID, translated)
		},
	}
	return s.runEntity(ctx, job, targets, set), nil
}

// --- CMS pages ---

// TranslateCmsPage translates a CMS page's name and slot texts. Slot configs
// are rebuilt from the source config so untouched keys are preserved.
func (s *Service) TranslateCmsPage(ctx context.Context, pageID uuid.UUID, targets []uuid.UUID, set Settings) (*EntityResult, error) {
	sourceID, err := s.begin(ctx, set)
	if err != nil {
		return nil, err
	}

	page, err := s.store.GetCmsPage(ctx, pageID, sourceID)
	if err != nil {
		return nil, fmt.Errorf("loading cms page %s: %w", pageID, err)
	}
	x := extract.CmsPage(page)

	job := entityJob{
		kind:  "cms_page",
		id:    pageID,
		units: x.Units,
		existing: func(ctx context.Context, langID uuid.UUID) (map[string]string, error) {
			p, err := s.store.GetCmsPage(ctx, pageID, langID)
			if err != nil {
				return nil, err
			}
			return unitMap(extract.CmsPage(p).Units), nil
		},
		write: func(ctx context.Context, langID uuid.UUID, translated, kept map[string]string) error {
			return s.writeCmsPage(ctx, pageID, langID, x, translated, kept)
		},
	}
	return s.runEntity(ctx, job, targets, set), nil
}

func (s *Service) writeCmsPage(ctx context.Context, pageID, langID uuid.UUID, x *extract.CmsExtraction, translated, kept map[string]string) error {
	if name, ok := translated[extract.PageNameKey]; ok {
		if err := s.store.WriteCmsPageName(ctx, pageID, langID, name); err != nil {
			return fmt.Errorf("writing page name: %w", err)
		}
	}

	touched := make(map[int]bool)
	for key := range translated {
		if sk, ok := extract.ParseSlotKey(key); ok {
			touched[sk.Index] = true
		}
	}

	// Values kept from the target language go in first so a written slot
	// does not revert them to source text.
	values := make(map[string]string, len(kept)+len(translated))
	for k, v := range kept {
		values[k] = v
	}
	for k, v := range translated {
		values[k] = v
	}

	configs := x.SlotConfigs(values)
	indexes := make([]int, 0, len(configs))
	for idx := range configs {
		if touched[idx] {
			indexes = append(indexes, idx)
		}
	}
	sort.Ints(indexes)

	for _, idx := range indexes {
		slotID := x.Slots[idx].ID
		if err := s.store.WriteSlotConfig(ctx, slotID, langID, configs[idx]); err != nil {
			return fmt.Errorf("writing slot %s: %w", slotID, err)
		}
	}
	return nil
}

// --- shared entity flow ---

type entityJob struct {
	kind     string
	id       uuid.UUID
	units    []models.TranslationUnit
	existing func(ctx context.Context, langID uuid.UUID) (map[string]string, error)
	// write receives the new values and the target values that were kept.
	write func(ctx context.Context, langID uuid.UUID, translated, kept map[string]string) error
}

// begin checks the translator and resolves the source language id.
func (s *Service) begin(ctx context.Context, set Settings) (uuid.UUID, error) {
	if err := s.translator.Validate(); err != nil {
		return uuid.Nil, err
	}
	if s.store == nil {
		return uuid.Nil, ErrNoStore
	}
	id, err := s.store.GetLanguageIDByLocale(ctx, set.SourceLocale)
	if err != nil {
		return uuid.Nil, fmt.Errorf("resolving source language %q: %w", set.SourceLocale, err)
	}
	return id, nil
}

func (s *Service) runEntity(ctx context.Context, job entityJob, targets []uuid.UUID, set Settings) *EntityResult {
	result := &EntityResult{Languages: make(map[string]LanguageOutcome, len(targets))}
	if len(job.units) == 0 {
		result.Message = NothingToTranslate
		return result
	}

	prompts := prompt.NewBuilder(s.store, set.GlobalPrompt)
	for _, langID := range targets {
		key, outcome := s.translateLanguage(ctx, job, langID, prompts, set)
		result.add(key, outcome)
	}
	return result
}

func (s *Service) translateLanguage(ctx context.Context, job entityJob, langID uuid.UUID, prompts *prompt.Builder, set Settings) (string, LanguageOutcome) {
	log := slog.With("kind", job.kind, "entity_id", job.id, "language_id", langID)

	lang, err := s.store.GetLanguage(ctx, langID)
	if err != nil {
		log.Error("resolving target language failed", "error", err)
		return langID.String(), LanguageOutcome{Error: fmt.Sprintf("resolving language: %v", err)}
	}
	log = log.With("language", lang.LocaleCode)

	pending := job.units
	kept := map[string]string{}
	if !set.OverwriteExisting {
		existing, err := job.existing(ctx, langID)
		if err != nil {
			log.Error("reading existing translations failed", "error", err)
			return lang.LocaleCode, LanguageOutcome{Error: fmt.Sprintf("reading existing translations: %v", err)}
		}
		pending, kept = partition(job.units, existing)
	}
	if len(pending) == 0 {
		log.Info("all fields already translated", "skipped", len(kept))
		return lang.LocaleCode, LanguageOutcome{Success: true, Skipped: len(kept)}
	}

	raw, err := s.translator.TranslateBatch(ctx, pending, lang.LocaleCode, prompts.SystemPrompt(ctx, langID))
	if err != nil {
		log.Error("provider call failed", "error", err)
		return lang.LocaleCode, LanguageOutcome{Error: err.Error(), Skipped: len(kept)}
	}

	values, err := recovery.ParseBatchResponse(raw)
	if err != nil {
		logParseError(log, err)
		return lang.LocaleCode, LanguageOutcome{Error: err.Error(), Skipped: len(kept)}
	}

	translated := pick(values, pending)
	if len(translated) == 0 {
		log.Error("response contained none of the requested fields")
		return lang.LocaleCode, LanguageOutcome{Error: "response contained none of the requested fields", Skipped: len(kept)}
	}

	if err := job.write(ctx, langID, translated, kept); err != nil {
		log.Error("writing translation failed", "error", err)
		return lang.LocaleCode, LanguageOutcome{Error: err.Error(), Skipped: len(kept)}
	}

	metrics.RecordTranslatedFields(job.kind, len(translated))
	log.Info("translated", "fields", len(translated), "skipped", len(kept))
	return lang.LocaleCode, LanguageOutcome{Success: true, Fields: len(translated), Skipped: len(kept)}
}

// --- languages and models ---

// AvailableLanguages lists every language except the source locale.
func (s *Service) AvailableLanguages(ctx context.Context, set Settings) ([]*models.Language, error) {
	if s.store == nil {
		return nil, ErrNoStore
	}
	all, err := s.store.ListLanguages(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*models.Language, 0, len(all))
	for _, l := range all {
		if l.LocaleCode != set.SourceLocale {
			out = append(out, l)
		}
	}
	return out, nil
}

// Models lists the provider's models.
func (s *Service) Models(ctx context.Context) ([]models.ModelInfo, error) {
	if err := s.translator.Validate(); err != nil {
		return nil, err
	}
	return s.translator.ListModels(ctx)
}

// --- helpers ---

// partition splits units into those without a non-blank existing value and
// the existing values that win.
func partition(units []models.TranslationUnit, existing map[string]string) ([]models.TranslationUnit, map[string]string) {
	pending := make([]models.TranslationUnit, 0, len(units))
	kept := make(map[string]string)
	for _, u := range units {
		if v, ok := existing[u.FieldKey]; ok && strings.TrimSpace(v) != "" {
			kept[u.FieldKey] = v
			continue
		}
		pending = append(pending, u)
	}
	return pending, kept
}

// pick keeps the non-blank values of the requested keys.
func pick(values map[string]string, units []models.TranslationUnit) map[string]string {
	out := make(map[string]string, len(units))
	for _, u := range units {
		if v, ok := values[u.FieldKey]; ok && strings.TrimSpace(v) != "" {
			out[u.FieldKey] = v
		}
	}
	return out
}

func unitMap(units []models.TranslationUnit) map[string]string {
	m := make(map[string]string, len(units))
	for _, u := range units {
		m[u.FieldKey] = u.SourceText
	}
	return m
}

func logParseError(log *slog.Logger, err error) {
	var pe *recovery.ParseError
	if errors.As(err, &pe) {
		log.Error("response could not be parsed", "head", pe.Head, "tail", pe.Tail, "raw_length", len(pe.Raw))
		return
	}
	log.Error("response could not be parsed", "error", err)
}
