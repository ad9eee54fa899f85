// Package prompt builds the system and user prompts sent to the translator.
package prompt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/vivatura/translator/pkg/models"
)

// FallbackSystemPrompt is used when neither a language override nor a global prompt is configured.
const FallbackSystemPrompt = "You are a professional translator for e-commerce content. " +
	"Translate precisely and keep the tone and style of the original. " +
	"Return only the translation, without explanations."

// OverrideSource looks up per-language system prompts. An empty string means no override.
type OverrideSource interface {
	GetPromptOverride(ctx context.Context, languageID uuid.UUID) (string, error)
}

// Builder resolves system prompts: language override, then global prompt, then fallback.
type Builder struct {
	overrides    OverrideSource
	globalPrompt string
}

// NewBuilder creates a Builder. overrides may be nil when no store is available (CLI).
func NewBuilder(overrides OverrideSource, globalPrompt string) *Builder {
	return &Builder{overrides: overrides, globalPrompt: strings.TrimSpace(globalPrompt)}
}

// SystemPrompt returns the system prompt for languageID. A failing override
// lookup is logged and treated as "no override".
func (b *Builder) SystemPrompt(ctx context.Context, languageID uuid.UUID) string {
	if b.overrides != nil && languageID != uuid.Nil {
		override, err := b.overrides.GetPromptOverride(ctx, languageID)
		if err != nil {
			slog.Warn("prompt override lookup failed", "language_id", languageID, "error", err)
		} else if s := strings.TrimSpace(override); s != "" {
			return s
		}
	}
	return b.DefaultPrompt()
}

// DefaultPrompt is the prompt used when no language override applies.
func (b *Builder) DefaultPrompt() string {
	if b.globalPrompt != "" {
		return b.globalPrompt
	}
	return FallbackSystemPrompt
}

// BuildBatchUserPrompt asks for the values of units translated into languageCode,
// returned as a JSON object with unchanged keys.
func BuildBatchUserPrompt(units []models.TranslationUnit, languageCode string) (string, error) {
	payload, err := encodeUnits(units)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Translate the values of the following JSON object into %s.\n\n", targetLabel(languageCode))
	b.WriteString("Rules:\n")
	b.WriteString("- Keep every JSON key exactly as it is. Translate only the values.\n")
	b.WriteString("- Return ONLY a valid JSON object, no explanations and no text before or after it.\n")
	b.WriteString("- Escape double quotes inside values as \\\".\n")
	b.WriteString("- Escape line breaks and tabs inside values as \\n and \\t.\n")
	writeFormattingRules(&b, languageCode)
	b.WriteString("\n```json\n")
	b.Write(payload)
	b.WriteString("\n```")
	return b.String(), nil
}

// BuildSingleUserPrompt is the single-text variant of BuildBatchUserPrompt.
func BuildSingleUserPrompt(text, languageCode string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Translate the following text into %s.\n\n", targetLabel(languageCode))
	b.WriteString("Rules:\n")
	b.WriteString("- Return ONLY the translated text, no explanations or additional content.\n")
	writeFormattingRules(&b, languageCode)
	b.WriteString("\nText to translate:\n")
	b.WriteString(text)
	return b.String()
}

func targetLabel(code string) string {
	name := LanguageName(code)
	if name == code {
		return code
	}
	return fmt.Sprintf("%s (%s)", name, code)
}

func writeFormattingRules(b *strings.Builder, code string) {
	b.WriteString("- Preserve HTML tags, attributes and entities verbatim; translate only the human-readable text between tags.\n")
	b.WriteString("- Preserve template syntax such as {{ variable }}, {% tag %}, %placeholder% and {placeholder} verbatim.\n")

	forms := PluralForms(code)
	if forms == 3 {
		b.WriteString("- Values with pipe-separated plural forms (e.g. \"1 item | %count% items\") must be returned with exactly 3 forms (one | few | many) as required by the target language.\n")
	} else {
		b.WriteString("- Values with pipe-separated plural forms (e.g. \"1 Artikel | %count% Artikel\") must be returned with exactly 2 forms (one | other).\n")
	}
}

// encodeUnits writes units as a pretty JSON object in unit order, without
// escaping HTML characters or non-ASCII text.
func encodeUnits(units []models.TranslationUnit) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("{")
	for i, u := range units {
		if i > 0 {
			buf.WriteString(",")
		}
		buf.WriteString("\n    ")
		if err := writeJSONString(&buf, u.FieldKey); err != nil {
			return nil, fmt.Errorf("encoding key %q: %w", u.FieldKey, err)
		}
		buf.WriteString(": ")
		if err := writeJSONString(&buf, u.SourceText); err != nil {
			return nil, fmt.Errorf("encoding value of %q: %w", u.FieldKey, err)
		}
	}
	if len(units) > 0 {
		buf.WriteString("\n")
	}
	buf.WriteString("}")
	return buf.Bytes(), nil
}

func writeJSONString(buf *bytes.Buffer, s string) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	buf.Write(bytes.TrimRight(tmp.Bytes(), "\n"))
	return nil
}
