package prompt_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vivatura/translator/internal/prompt"
	"github.com/vivatura/translator/pkg/models"
)

// --- mock override source ---

type mockOverrides struct {
	prompts map[uuid.UUID]string
	err     error
}

func (m *mockOverrides) GetPromptOverride(_ context.Context, id uuid.UUID) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return m.prompts[id], nil
}

// --- system prompt resolution ---

func TestSystemPrompt_LanguageOverrideWins(t *testing.T) {
	fr := uuid.New()
	b := prompt.NewBuilder(&mockOverrides{prompts: map[uuid.UUID]string{fr: "  Tutoyez le client.  "}}, "Global prompt")

	assert.Equal(t, "Tutoyez le client.", b.SystemPrompt(context.Background(), fr))
}

func TestSystemPrompt_BlankOverrideFallsBackToGlobal(t *testing.T) {
	fr := uuid.New()
	b := prompt.NewBuilder(&mockOverrides{prompts: map[uuid.UUID]string{fr: "   "}}, "Global prompt")

	assert.Equal(t, "Global prompt", b.SystemPrompt(context.Background(), fr))
}

func TestSystemPrompt_LookupErrorFallsBack(t *testing.T) {
	b := prompt.NewBuilder(&mockOverrides{err: errors.New("db down")}, "")

	assert.Equal(t, prompt.FallbackSystemPrompt, b.SystemPrompt(context.Background(), uuid.New()))
}

func TestSystemPrompt_NilSource(t *testing.T) {
	b := prompt.NewBuilder(nil, "")
	assert.Equal(t, prompt.FallbackSystemPrompt, b.SystemPrompt(context.Background(), uuid.New()))
	assert.Equal(t, prompt.FallbackSystemPrompt, b.DefaultPrompt())
}

// --- user prompts ---

func TestBuildBatchUserPrompt_EmbedsOrderedUnescapedJSON(t *testing.T) {
	units := []models.TranslationUnit{
		{FieldKey: "name", SourceText: "Rotes Hemd"},
		{FieldKey: "description", SourceText: `<p>Ein "schönes" Hemd</p>`},
		{FieldKey: "link", SourceText: "Siehe a/b & c"},
	}

	p, err := prompt.BuildBatchUserPrompt(units, "fr-FR")
	require.NoError(t, err)

	assert.Contains(t, p, "French (fr-FR)")
	assert.Contains(t, p, `"description": "<p>Ein \"schönes\" Hemd</p>"`)
	assert.Contains(t, p, `"link": "Siehe a/b & c"`)
	assert.Less(t, strings.Index(p, `"name"`), strings.Index(p, `"description"`))
	assert.Contains(t, p, "{{ variable }}")
	assert.Contains(t, p, "exactly 2 forms")

	start := strings.Index(p, "```json\n") + len("```json\n")
	end := strings.LastIndex(p, "\n```")
	var decoded map[string]string
	require.NoError(t, json.Unmarshal([]byte(p[start:end]), &decoded))
	assert.Equal(t, `<p>Ein "schönes" Hemd</p>`, decoded["description"])
}

func TestBuildBatchUserPrompt_ThreePluralForms(t *testing.T) {
	p, err := prompt.BuildBatchUserPrompt([]models.TranslationUnit{{FieldKey: "a", SourceText: "b"}}, "pl-PL")
	require.NoError(t, err)
	assert.Contains(t, p, "Polish (pl-PL)")
	assert.Contains(t, p, "exactly 3 forms")
}

func TestBuildBatchUserPrompt_Empty(t *testing.T) {
	p, err := prompt.BuildBatchUserPrompt(nil, "fr-FR")
	require.NoError(t, err)
	assert.Contains(t, p, "```json\n{}\n```")
}

func TestBuildSingleUserPrompt(t *testing.T) {
	p := prompt.BuildSingleUserPrompt("Jetzt kaufen", "xx-YY")
	assert.Contains(t, p, "into xx-YY.")
	assert.True(t, strings.HasSuffix(p, "Text to translate:\nJetzt kaufen"))
	assert.NotContains(t, p, "```json")
}

// --- language names ---

func TestLanguageName(t *testing.T) {
	tests := []struct {
		code string
		want string
	}{
		{"fr-FR", "French"},
		{"de-DE", "German"},
		{"de-CH", "Swiss German"},
		{"pt_BR", "Brazilian Portuguese"},
		{"en-GB", "British English"},
		{"nl", "Dutch"},
		{"tlh-XX", "tlh-XX"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, prompt.LanguageName(tt.code))
		})
	}
}

func TestPluralForms(t *testing.T) {
	assert.Equal(t, 3, prompt.PluralForms("ru-RU"))
	assert.Equal(t, 3, prompt.PluralForms("cs"))
	assert.Equal(t, 2, prompt.PluralForms("fr-FR"))
	assert.Equal(t, 2, prompt.PluralForms("not a code"))
}
