package translation

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/vivatura/translator/internal/extract"
	"github.com/vivatura/translator/internal/metrics"
	"github.com/vivatura/translator/internal/prompt"
	"github.com/vivatura/translator/internal/recovery"
	"github.com/vivatura/translator/internal/snippetfile"
	"github.com/vivatura/translator/internal/store"
	"github.com/vivatura/translator/pkg/models"
)

// --- Snippet sets ---

// TranslateSnippetSet translates the snippets of sourceSetID (restricted to
// snippetIDs when given) into targetSetID in sequential chunks. A failed chunk
// marks its keys as errors and the run continues with the next chunk.
func (s *Service) TranslateSnippetSet(ctx context.Context, sourceSetID, targetSetID uuid.UUID, snippetIDs []uuid.UUID, set Settings) (*BatchResult, error) {
	if err := s.translator.Validate(); err != nil {
		return nil, err
	}
	if s.store == nil {
		return nil, ErrNoStore
	}

	target, err := s.store.GetSnippetSet(ctx, targetSetID)
	if err != nil {
		return nil, fmt.Errorf("loading target snippet set %s: %w", targetSetID, err)
	}
	if _, err := s.store.GetSnippetSet(ctx, sourceSetID); err != nil {
		return nil, fmt.Errorf("loading source snippet set %s: %w", sourceSetID, err)
	}

	source, err := s.store.ListSnippets(ctx, sourceSetID, snippetIDs)
	if err != nil {
		return nil, fmt.Errorf("listing source snippets: %w", err)
	}
	units := extract.Snippets(source)
	if len(units) == 0 {
		return &BatchResult{Success: true, Message: NothingToTranslate}, nil
	}

	result := newBatchResult(len(units))
	pending := units
	if !set.OverwriteExisting {
		existing, err := s.store.ListSnippets(ctx, targetSetID, nil)
		if err != nil {
			return nil, fmt.Errorf("listing target snippets: %w", err)
		}
		var kept map[string]string
		pending, kept = partition(units, snippetMap(existing))
		for key := range kept {
			result.skipped(key)
		}
	}

	log := slog.With("kind", "snippet_set", "source_set_id", sourceSetID, "target_set_id", targetSetID, "language", target.Iso)
	systemPrompt := s.promptForLocale(ctx, target.Iso, set)

	translated := s.translateChunks(ctx, log, pending, target.Iso, systemPrompt, set.snippetChunkSize(), set, result)
	for _, u := range pending {
		value, ok := translated[u.FieldKey]
		if !ok {
			continue
		}
		if err := s.store.UpsertSnippet(ctx, u.FieldKey, targetSetID, value); err != nil {
			log.Error("saving snippet failed", "key", u.FieldKey, "error", err)
			result.failed(u.FieldKey, err.Error())
			continue
		}
		result.translated(u.FieldKey)
	}

	metrics.RecordTranslatedFields("snippet", result.Translated)
	log.Info("snippet set translated", "total", result.Total, "translated", result.Translated, "skipped", result.Skipped, "errors", result.Errors)
	return result, nil
}

// TranslateSingleSnippet translates one snippet with a single-text call and
// upserts it into targetSetID. Provider failures are returned as errors.
func (s *Service) TranslateSingleSnippet(ctx context.Context, snippetID, targetSetID uuid.UUID, set Settings) (*SnippetResult, error) {
	if err := s.translator.Validate(); err != nil {
		return nil, err
	}
	if s.store == nil {
		return nil, ErrNoStore
	}

	snippet, err := s.store.GetSnippet(ctx, snippetID)
	if err != nil {
		return nil, fmt.Errorf("loading snippet %s: %w", snippetID, err)
	}
	if strings.TrimSpace(snippet.Value) == "" {
		return &SnippetResult{Success: true, Message: "Snippet has no value", TranslationKey: snippet.TranslationKey}, nil
	}

	target, err := s.store.GetSnippetSet(ctx, targetSetID)
	if err != nil {
		return nil, fmt.Errorf("loading target snippet set %s: %w", targetSetID, err)
	}

	out, err := s.translator.TranslateOne(ctx, snippet.Value, target.Iso, s.promptForLocale(ctx, target.Iso, set))
	if err != nil {
		return nil, fmt.Errorf("translating snippet %s: %w", snippet.TranslationKey, err)
	}
	if err := s.store.UpsertSnippet(ctx, snippet.TranslationKey, targetSetID, out); err != nil {
		return nil, fmt.Errorf("saving snippet %s: %w", snippet.TranslationKey, err)
	}

	metrics.RecordTranslatedFields("snippet", 1)
	return &SnippetResult{Success: true, TranslationKey: snippet.TranslationKey, TargetIso: target.Iso}, nil
}

// --- Snippet files ---

// TranslateSnippetFile translates the string leaves of a snippet file into
// targetLocale and merges them into the sibling "<name>.<targetLocale>.<ext>"
// file. The target file is only written when at least one key was translated.
func (s *Service) TranslateSnippetFile(ctx context.Context, path, targetLocale string, set Settings) (*BatchResult, error) {
	if err := s.translator.Validate(); err != nil {
		return nil, err
	}

	targetPath, err := snippetfile.TargetPath(path, targetLocale)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	if targetPath == path {
		return nil, fmt.Errorf("%w: %s is already in %s", ErrInvalidRequest, path, targetLocale)
	}

	source, err := snippetfile.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: snippet file %s", store.ErrNotFound, path)
		}
		return nil, err
	}
	existing, err := snippetfile.Read(targetPath)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("reading target file: %w", err)
	}

	units := extract.FlatFile(source)
	if len(units) == 0 {
		return &BatchResult{Success: true, Message: NothingToTranslate, TargetPath: targetPath}, nil
	}

	result := newBatchResult(len(units))
	result.TargetPath = targetPath

	pending := units
	if !set.OverwriteExisting {
		var kept map[string]string
		pending, kept = partition(units, entryMap(existing))
		for key := range kept {
			result.skipped(key)
		}
	}

	log := slog.With("kind", "file", "path", path, "language", targetLocale)
	systemPrompt := s.promptForLocale(ctx, targetLocale, set)

	translated := s.translateChunks(ctx, log, pending, targetLocale, systemPrompt, set.fileChunkSize(), set, result)
	for _, u := range pending {
		if _, ok := translated[u.FieldKey]; ok {
			result.translated(u.FieldKey)
		}
	}

	if result.Translated > 0 {
		if err := snippetfile.Write(targetPath, mergeEntries(source, existing, translated)); err != nil {
			return nil, fmt.Errorf("writing %s: %w", targetPath, err)
		}
		metrics.RecordTranslatedFields("file", result.Translated)
	}

	log.Info("snippet file translated", "target", targetPath, "translated", result.Translated, "skipped", result.Skipped, "errors", result.Errors)
	return result, nil
}

// mergeEntries lays out the target file in source order. Each key takes the
// new translation, else the existing target value, else a non-string source
// value. Target keys absent from the source are kept at the end; Unflatten
// drops those whose path collides with a source key.
func mergeEntries(source, existing []models.FileEntry, translated map[string]string) []models.FileEntry {
	current := make(map[string]any, len(existing))
	for _, e := range existing {
		current[e.Key] = e.Value
	}

	out := make([]models.FileEntry, 0, len(source)+len(existing))
	seen := make(map[string]bool, len(source))
	for _, e := range source {
		seen[e.Key] = true
		if v, ok := translated[e.Key]; ok {
			out = append(out, models.FileEntry{Key: e.Key, Value: v})
			continue
		}
		if v, ok := current[e.Key]; ok {
			out = append(out, models.FileEntry{Key: e.Key, Value: v})
			continue
		}
		if _, isString := e.Value.(string); !isString {
			out = append(out, e)
		}
	}
	for _, e := range existing {
		if !seen[e.Key] {
			out = append(out, e)
		}
	}
	return out
}

// --- chunk loop ---

// translateChunks sends units in chunks of size, strictly in order, waiting
// set.ChunkDelay between chunks. Keys of failed chunks and keys missing from
// a response are recorded as errors on result. Once ctx is done no further
// chunk is dispatched.
func (s *Service) translateChunks(ctx context.Context, log *slog.Logger, units []models.TranslationUnit, locale, systemPrompt string, size int, set Settings, result *BatchResult) map[string]string {
	translated := make(map[string]string, len(units))
	chunks := chunk(units, size)

	for i, c := range chunks {
		if i > 0 {
			if err := s.sleep(ctx, set.ChunkDelay); err != nil {
				failRemaining(result, chunks[i:], "cancelled before dispatch: "+err.Error())
				break
			}
		}
		if err := ctx.Err(); err != nil {
			failRemaining(result, chunks[i:], "cancelled before dispatch: "+err.Error())
			break
		}

		clog := log.With("chunk", i+1, "chunks", len(chunks), "size", len(c))
		raw, err := s.translator.TranslateBatch(ctx, c, locale, systemPrompt)
		if err != nil {
			clog.Error("chunk translation failed", "error", err)
			failRemaining(result, chunks[i:i+1], err.Error())
			continue
		}
		values, err := recovery.ParseBatchResponse(raw)
		if err != nil {
			logParseError(clog, err)
			failRemaining(result, chunks[i:i+1], err.Error())
			continue
		}

		got := pick(values, c)
		for _, u := range c {
			if v, ok := got[u.FieldKey]; ok {
				translated[u.FieldKey] = v
			} else {
				result.failed(u.FieldKey, "missing from provider response")
			}
		}
	}
	return translated
}

func chunk(units []models.TranslationUnit, size int) [][]models.TranslationUnit {
	if size <= 0 {
		size = DefaultChunkSize
	}
	var out [][]models.TranslationUnit
	for start := 0; start < len(units); start += size {
		end := start + size
		if end > len(units) {
			end = len(units)
		}
		out = append(out, units[start:end])
	}
	return out
}

func failRemaining(result *BatchResult, chunks [][]models.TranslationUnit, msg string) {
	for _, c := range chunks {
		for _, u := range c {
			result.failed(u.FieldKey, msg)
		}
	}
}

// promptForLocale resolves the system prompt through the language with the
// given locale, falling back to the default prompt when it is unknown.
func (s *Service) promptForLocale(ctx context.Context, locale string, set Settings) string {
	prompts := prompt.NewBuilder(s.store, set.GlobalPrompt)
	if s.store == nil {
		return prompts.DefaultPrompt()
	}
	id, err := s.store.GetLanguageIDByLocale(ctx, locale)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			slog.Warn("language lookup failed", "locale", locale, "error", err)
		}
		return prompts.DefaultPrompt()
	}
	return prompts.SystemPrompt(ctx, id)
}

func snippetMap(snippets []*models.Snippet) map[string]string {
	m := make(map[string]string, len(snippets))
	for _, sn := range snippets {
		if sn != nil {
			m[sn.TranslationKey] = sn.Value
		}
	}
	return m
}

func entryMap(entries []models.FileEntry) map[string]string {
	m := make(map[string]string, len(entries))
	for _, e := range entries {
		if v, ok := e.Value.(string); ok {
			m[e.Key] = v
		}
	}
	return m
}
