package extract

import (
	"sort"
	"strings"

	"github.com/vivatura/translator/pkg/models"
)

// CustomFieldPrefix marks field keys that address a product custom field.
const CustomFieldPrefix = "customFields."

// ProductField describes one fixed translatable product column.
type ProductField struct {
	Key string
	Get func(*models.Product) string
}

// ProductFields lists the fixed product fields in extraction order.
var ProductFields = []ProductField{
	{"name", func(p *models.Product) string { return p.Name }},
	{"description", func(p *models.Product) string { return p.Description }},
	{"metaTitle", func(p *models.Product) string { return p.MetaTitle }},
	{"metaDescription", func(p *models.Product) string { return p.MetaDescription }},
	{"keywords", func(p *models.Product) string { return p.Keywords }},
	{"packUnit", func(p *models.Product) string { return p.PackUnit }},
	{"packUnitPlural", func(p *models.Product) string { return p.PackUnitPlural }},
}

// Custom fields whose key ends in one of these hold identifiers or data, not prose.
var customFieldSkipSuffixes = []string{"_id", "_date", "_number", "_bool", "_at", "_count"}

// Product returns the translatable fields of p. Custom fields follow the fixed
// fields in key order.
func Product(p *models.Product) []models.TranslationUnit {
	if p == nil {
		return nil
	}

	var units []models.TranslationUnit
	for _, f := range ProductFields {
		if v := f.Get(p); IsTranslatableText(v) {
			units = append(units, models.TranslationUnit{FieldKey: f.Key, SourceText: v})
		}
	}

	keys := make([]string, 0, len(p.CustomFields))
	for k := range p.CustomFields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		v, ok := p.CustomFields[k].(string)
		if !ok || !translatableCustomField(k) || !IsTranslatableText(v) {
			continue
		}
		units = append(units, models.TranslationUnit{FieldKey: CustomFieldPrefix + k, SourceText: v})
	}
	return units
}

// translatableCustomField matches the skip suffixes case-insensitively.
func translatableCustomField(key string) bool {
	key = strings.ToLower(key)
	for _, suffix := range customFieldSkipSuffixes {
		if strings.HasSuffix(key, suffix) {
			return false
		}
	}
	return true
}
