package translation_test

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/vivatura/translator/internal/store"
	"github.com/vivatura/translator/pkg/models"
)

type productWrite struct {
	ProductID  uuid.UUID
	LanguageID uuid.UUID
	Fields     map[string]string
}

type slotWrite struct {
	SlotID     uuid.UUID
	LanguageID uuid.UUID
	Config     map[string]any
}

// memStore is an in-memory store.ContentStore.
type memStore struct {
	mu sync.Mutex

	languages map[uuid.UUID]*models.Language
	prompts   map[uuid.UUID]string

	products      map[uuid.UUID]map[uuid.UUID]*models.Product
	productWrites []productWrite

	pages      map[uuid.UUID]map[uuid.UUID]*models.CmsPage
	nameWrites map[uuid.UUID]string
	slotWrites []slotWrite

	sets       map[uuid.UUID]*models.SnippetSet
	snippets   []*models.Snippet
	upserts    int
	failUpsert map[string]bool
}

func newMemStore() *memStore {
	return &memStore{
		languages:  map[uuid.UUID]*models.Language{},
		prompts:    map[uuid.UUID]string{},
		products:   map[uuid.UUID]map[uuid.UUID]*models.Product{},
		pages:      map[uuid.UUID]map[uuid.UUID]*models.CmsPage{},
		nameWrites: map[uuid.UUID]string{},
		sets:       map[uuid.UUID]*models.SnippetSet{},
		failUpsert: map[string]bool{},
	}
}

func (m *memStore) addLanguage(locale string) uuid.UUID {
	id := uuid.New()
	m.languages[id] = &models.Language{ID: id, Name: locale, LocaleCode: locale}
	return id
}

func (m *memStore) addSet(iso string) uuid.UUID {
	id := uuid.New()
	m.sets[id] = &models.SnippetSet{ID: id, Name: "BASE " + iso, Iso: iso}
	return id
}

func (m *memStore) addSnippet(setID uuid.UUID, key, value string) *models.Snippet {
	sn := &models.Snippet{ID: uuid.New(), SetID: setID, TranslationKey: key, Value: value}
	m.snippets = append(m.snippets, sn)
	return sn
}

func (m *memStore) snippetValue(setID uuid.UUID, key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, sn := range m.snippets {
		if sn.SetID == setID && sn.TranslationKey == key {
			return sn.Value, true
		}
	}
	return "", false
}

// --- languages & prompts ---

func (m *memStore) GetLanguage(_ context.Context, id uuid.UUID) (*models.Language, error) {
	if l, ok := m.languages[id]; ok {
		return l, nil
	}
	return nil, store.ErrNotFound
}

func (m *memStore) GetLanguageIDByLocale(_ context.Context, locale string) (uuid.UUID, error) {
	for id, l := range m.languages {
		if l.LocaleCode == locale {
			return id, nil
		}
	}
	return uuid.Nil, store.ErrNotFound
}

func (m *memStore) ListLanguages(_ context.Context) ([]*models.Language, error) {
	out := make([]*models.Language, 0, len(m.languages))
	for _, l := range m.languages {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LocaleCode < out[j].LocaleCode })
	return out, nil
}

func (m *memStore) GetPromptOverride(_ context.Context, languageID uuid.UUID) (string, error) {
	return m.prompts[languageID], nil
}

// --- products ---

func (m *memStore) GetProduct(_ context.Context, id, languageID uuid.UUID) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	byLang, ok := m.products[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if p, ok := byLang[languageID]; ok {
		cp := *p
		return &cp, nil
	}
	return &models.Product{ID: id}, nil
}

func (m *memStore) WriteProductTranslation(_ context.Context, id, languageID uuid.UUID, fields map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.productWrites = append(m.productWrites, productWrite{ProductID: id, LanguageID: languageID, Fields: fields})

	p, ok := m.products[id][languageID]
	if !ok {
		p = &models.Product{ID: id}
		m.products[id][languageID] = p
	}
	for k, v := range fields {
		switch k {
		case "name":
			p.Name = v
		case "description":
			p.Description = v
		case "metaTitle":
			p.MetaTitle = v
		}
	}
	return nil
}

// --- cms ---

func (m *memStore) GetCmsPage(_ context.Context, id, languageID uuid.UUID) (*models.CmsPage, error) {
	byLang, ok := m.pages[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if p, ok := byLang[languageID]; ok {
		return p, nil
	}
	return &models.CmsPage{ID: id}, nil
}

func (m *memStore) WriteCmsPageName(_ context.Context, id, languageID uuid.UUID, name string) error {
	m.nameWrites[languageID] = name
	return nil
}

func (m *memStore) WriteSlotConfig(_ context.Context, slotID, languageID uuid.UUID, config map[string]any) error {
	m.slotWrites = append(m.slotWrites, slotWrite{SlotID: slotID, LanguageID: languageID, Config: config})
	return nil
}

// --- snippets ---

func (m *memStore) GetSnippetSet(_ context.Context, id uuid.UUID) (*models.SnippetSet, error) {
	if s, ok := m.sets[id]; ok {
		return s, nil
	}
	return nil, store.ErrNotFound
}

func (m *memStore) GetSnippet(_ context.Context, id uuid.UUID) (*models.Snippet, error) {
	for _, sn := range m.snippets {
		if sn.ID == id {
			return sn, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memStore) ListSnippets(_ context.Context, setID uuid.UUID, ids []uuid.UUID) ([]*models.Snippet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	want := map[uuid.UUID]bool{}
	for _, id := range ids {
		want[id] = true
	}
	var out []*models.Snippet
	for _, sn := range m.snippets {
		if sn.SetID != setID || (len(want) > 0 && !want[sn.ID]) {
			continue
		}
		cp := *sn
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memStore) UpsertSnippet(_ context.Context, key string, setID uuid.UUID, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failUpsert[key] {
		return store.ErrDuplicateKey
	}
	m.upserts++
	for _, sn := range m.snippets {
		if sn.SetID == setID && sn.TranslationKey == key {
			sn.Value = value
			return nil
		}
	}
	m.snippets = append(m.snippets, &models.Snippet{ID: uuid.New(), SetID: setID, TranslationKey: key, Value: value, Author: store.SnippetAuthor})
	return nil
}

var _ store.ContentStore = (*memStore)(nil)
