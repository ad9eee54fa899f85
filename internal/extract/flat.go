package extract

import (
	"strings"

	"github.com/vivatura/translator/pkg/models"
)

// Snippets keys each snippet by its translation key. Empty values are dropped;
// unlike entity fields, snippet text is not filtered further because short UI
// strings ("OK", "%count%") are legitimate translations.
func Snippets(snippets []*models.Snippet) []models.TranslationUnit {
	units := make([]models.TranslationUnit, 0, len(snippets))
	seen := make(map[string]bool, len(snippets))
	for _, s := range snippets {
		if s == nil || strings.TrimSpace(s.Value) == "" || seen[s.TranslationKey] {
			continue
		}
		seen[s.TranslationKey] = true
		units = append(units, models.TranslationUnit{FieldKey: s.TranslationKey, SourceText: s.Value})
	}
	return units
}

// FlatFile keeps the non-empty string entries of a flattened snippet file in order.
func FlatFile(entries []models.FileEntry) []models.TranslationUnit {
	units := make([]models.TranslationUnit, 0, len(entries))
	for _, e := range entries {
		s, ok := e.Value.(string)
		if !ok || strings.TrimSpace(s) == "" {
			continue
		}
		units = append(units, models.TranslationUnit{FieldKey: e.Key, SourceText: s})
	}
	return units
}
