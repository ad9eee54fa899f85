package models

import "github.com/google/uuid"

// Language is a storefront language together with its locale code (e.g. "fr-FR").
type Language struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	LocaleCode string    `json:"locale_code"`
}

// Product holds the translatable fields of a product in one language.
type Product struct {
	ID              uuid.UUID      `json:"id"`
	ProductNumber   string         `json:"product_number"`
	Name            string         `json:"name"`
	Description     string         `json:"description"`
	MetaTitle       string         `json:"meta_title"`
	MetaDescription string         `json:"meta_description"`
	Keywords        string         `json:"keywords"`
	PackUnit        string         `json:"pack_unit"`
	PackUnitPlural  string         `json:"pack_unit_plural"`
	CustomFields    map[string]any `json:"custom_fields,omitempty"`
}

// CmsPage is a layout page: sections contain blocks, blocks contain slots.
type CmsPage struct {
	ID       uuid.UUID    `json:"id"`
	Name     string       `json:"name"`
	Type     string       `json:"type"`
	Sections []CmsSection `json:"sections"`
}

type CmsSection struct {
	ID     uuid.UUID  `json:"id"`
	Blocks []CmsBlock `json:"blocks"`
}

type CmsBlock struct {
	ID    uuid.UUID `json:"id"`
	Slots []CmsSlot `json:"slots"`
}

// CmsSlot is a content element. Config maps a field name to an object that
// usually carries a "value" entry (e.g. {"content": {"value": "<p>Hi</p>"}}).
type CmsSlot struct {
	ID     uuid.UUID      `json:"id"`
	Type   string         `json:"type"`
	Config map[string]any `json:"config"`
}

// SnippetSet groups storefront UI strings of one locale.
type SnippetSet struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Iso  string    `json:"iso"`
}

// Snippet is one UI string inside a snippet set.
type Snippet struct {
	ID             uuid.UUID `json:"id"`
	SetID          uuid.UUID `json:"set_id"`
	TranslationKey string    `json:"translation_key"`
	Value          string    `json:"value"`
	Author         string    `json:"author"`
}

// FileEntry is one dotted key of a flattened snippet file and its leaf value.
// Value is a string, number, bool, nil or a list kept as a single leaf.
type FileEntry struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}
