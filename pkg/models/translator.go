// Package models contains shared data models used across the translator codebase.
package models

import "context"

// Translator is the core interface every LLM integration must implement.
// The orchestrator only ever talks to this interface.
type Translator interface {
	// TranslateOne translates a single free-text value and returns the trimmed result.
	TranslateOne(ctx context.Context, text, languageCode, systemPrompt string) (string, error)
	// TranslateBatch sends the units as one JSON object and returns the raw response text.
	// Parsing is left to the caller so every recovery tier can see the original bytes.
	TranslateBatch(ctx context.Context, units []TranslationUnit, languageCode, systemPrompt string) (string, error)
	// ListModels returns the models the provider exposes.
	ListModels(ctx context.Context) ([]ModelInfo, error)
	// Validate reports a configuration problem (missing key) before any work starts.
	Validate() error
	// Name returns the provider identifier (e.g. "anthropic").
	Name() string
}

// TranslationUnit is one field key and its source-language text.
type TranslationUnit struct {
	FieldKey   string `json:"field_key"`
	SourceText string `json:"source_text"`
}

// TranslationResult maps a field key to its translated text. It only ever
// contains keys that were present in the request.
type TranslationResult map[string]string

// ModelInfo describes one model offered by the provider.
type ModelInfo struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	CreatedAt   string `json:"created_at,omitempty"`
}

// UnitKeys returns the field keys of units in order.
func UnitKeys(units []TranslationUnit) []string {
	keys := make([]string, len(units))
	for i, u := range units {
		keys[i] = u.FieldKey
	}
	return keys
}
