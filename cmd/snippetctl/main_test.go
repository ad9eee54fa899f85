package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vivatura/translator/internal/ai/mock"
	"github.com/vivatura/translator/internal/config"
	"github.com/vivatura/translator/internal/snippetfile"
	"github.com/vivatura/translator/pkg/models"
)

// ─── helpers ────────────────────────────────────────────────────────────────

func setupEnv(t *testing.T) {
	t.Helper()
	t.Setenv("SNIPPET_ROOTS", "")
	t.Setenv("TRANSLATION_CHUNK_DELAY", "0s")
	t.Setenv("TRANSLATION_OVERWRITE_EXISTING", "")
}

func writeSnippetFile(t *testing.T, root, plugin, name, content string) string {
	t.Helper()
	dir := filepath.Join(root, "custom", "plugins", plugin, "Resources", "snippet")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func execute(t *testing.T, tr models.Translator, args ...string) (string, error) {
	t.Helper()
	a := &app{newTranslator: func(*config.Config) models.Translator { return tr }}
	cmd := newRootCmd(a)

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// ─── scan ───────────────────────────────────────────────────────────────────

func TestScan_GroupsBySource(t *testing.T) {
	setupEnv(t)
	root := t.TempDir()
	writeSnippetFile(t, root, "SwagPayPal", "storefront.de-DE.json", `{"a": "Hallo"}`)
	writeSnippetFile(t, root, "SwagPayPal", "storefront.en-GB.json", `{"a": "Hello"}`)

	out, err := execute(t, mock.NewTranslator(), "scan", "--root", root)
	require.NoError(t, err)

	var body struct {
		Sources []snippetfile.Source `json:"sources"`
		Total   int                  `json:"total"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &body))
	require.Equal(t, 1, body.Total)
	assert.Equal(t, "SwagPayPal", body.Sources[0].Name)
	assert.Len(t, body.Sources[0].Files, 2)
}

func TestScan_FiltersByLanguage(t *testing.T) {
	setupEnv(t)
	root := t.TempDir()
	writeSnippetFile(t, root, "SwagPayPal", "storefront.de-DE.json", `{"a": "Hallo"}`)
	writeSnippetFile(t, root, "SwagPayPal", "storefront.en-GB.json", `{"a": "Hello"}`)

	out, err := execute(t, mock.NewTranslator(), "scan", "--root", root, "--language", "en-GB")
	require.NoError(t, err)

	var body struct {
		Sources []snippetfile.Source `json:"sources"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &body))
	require.Len(t, body.Sources, 1)
	require.Len(t, body.Sources[0].Files, 1)
	assert.Equal(t, "en-GB", body.Sources[0].Files[0].Language)
}

// ─── translate ──────────────────────────────────────────────────────────────

func TestTranslate_WritesTargetFile(t *testing.T) {
	setupEnv(t)
	root := t.TempDir()
	src := writeSnippetFile(t, root, "SwagPayPal", "storefront.de-DE.json",
		`{"checkout": {"button": "Jetzt kaufen"}}`)

	out, err := execute(t, mock.NewTranslator(), "translate", src, "--to", "fr-FR", "--root", root)
	require.NoError(t, err)

	var result struct {
		Success    bool   `json:"success"`
		TargetPath string `json:"target_path"`
		Translated int    `json:"translated"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.True(t, result.Success)
	assert.Equal(t, 1, result.Translated)
	assert.Equal(t, filepath.Join(filepath.Dir(src), "storefront.fr-FR.json"), result.TargetPath)

	written, err := os.ReadFile(result.TargetPath)
	require.NoError(t, err)
	assert.Contains(t, string(written), `"button": "[fr-FR] Jetzt kaufen"`)
}

func TestTranslate_RejectsPathOutsideRoots(t *testing.T) {
	setupEnv(t)
	root := t.TempDir()
	other := writeSnippetFile(t, t.TempDir(), "Other", "storefront.de-DE.json", `{"a": "b"}`)

	_, err := execute(t, mock.NewTranslator(), "translate", other, "--to", "fr-FR", "--root", root)
	require.Error(t, err)
	assert.True(t, errors.Is(err, snippetfile.ErrOutsideRoots))
}

func TestTranslate_RequiresTargetLocale(t *testing.T) {
	setupEnv(t)

	_, err := execute(t, mock.NewTranslator(), "translate", "storefront.de-DE.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "to")
}

func TestTranslate_UnconfiguredProvider(t *testing.T) {
	setupEnv(t)
	root := t.TempDir()
	src := writeSnippetFile(t, root, "SwagPayPal", "storefront.de-DE.json", `{"a": "Hallo"}`)

	_, err := execute(t, mock.NewUnconfiguredTranslator(), "translate", src, "--to", "fr-FR", "--root", root)
	require.Error(t, err)

	_, statErr := os.Stat(filepath.Join(filepath.Dir(src), "storefront.fr-FR.json"))
	assert.True(t, os.IsNotExist(statErr))
}

// ─── models ─────────────────────────────────────────────────────────────────

func TestModels_ListsProviderModels(t *testing.T) {
	setupEnv(t)

	out, err := execute(t, mock.NewTranslator(), "models")
	require.NoError(t, err)

	var body struct {
		Provider string             `json:"provider"`
		Models   []models.ModelInfo `json:"models"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &body))
	assert.Equal(t, "mock", body.Provider)
	require.Len(t, body.Models, 1)
	assert.Equal(t, "mock-v1", body.Models[0].ID)
}
