package extract

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/vivatura/translator/pkg/models"
)

// PageNameKey is the field key of a CMS page's own name.
const PageNameKey = "name"

// Slot config fields that carry storefront text in their "value" entry.
var slotTextFields = []string{"content", "title", "headline", "subline", "text", "label", "altText", "linkText", "buttonText", "items"}

var slotKeyRe = regexp.MustCompile(`^slot_(\d+)_([A-Za-z0-9]+)(?:\.(.+))?$`)

// SlotRef ties a running slot index to the slot it was extracted from.
type SlotRef struct {
	Index  int
	ID     uuid.UUID
	Config map[string]any
}

// CmsExtraction is the result of extracting a CMS page. Slots[i].Index == i.
type CmsExtraction struct {
	Units []models.TranslationUnit
	Slots []SlotRef
}

// SlotKey identifies one text inside a slot config. Path is empty for a plain
// string value and names map keys or list indices for nested values.
type SlotKey struct {
	Index int
	Field string
	Path  []string
}

func (k SlotKey) String() string {
	key := fmt.Sprintf("slot_%d_%s", k.Index, k.Field)
	if len(k.Path) > 0 {
		key += "." + strings.Join(k.Path, ".")
	}
	return key
}

// ParseSlotKey parses a key produced by CmsPage. ok is false for the page name
// and for anything else that is not a slot key.
func ParseSlotKey(key string) (SlotKey, bool) {
	m := slotKeyRe.FindStringSubmatch(key)
	if m == nil {
		return SlotKey{}, false
	}
	idx, err := strconv.Atoi(m[1])
	if err != nil {
		return SlotKey{}, false
	}
	sk := SlotKey{Index: idx, Field: m[2]}
	if m[3] != "" {
		sk.Path = strings.Split(m[3], ".")
	}
	return sk, true
}

// CmsPage walks sections, blocks and slots in order. Every slot gets the next
// index whether or not it yields text, so the index-to-slot mapping only
// depends on page structure.
func CmsPage(page *models.CmsPage) *CmsExtraction {
	out := &CmsExtraction{}
	if page == nil {
		return out
	}

	if IsTranslatableText(page.Name) {
		out.Units = append(out.Units, models.TranslationUnit{FieldKey: PageNameKey, SourceText: page.Name})
	}

	idx := 0
	for _, section := range page.Sections {
		for _, block := range section.Blocks {
			for _, slot := range block.Slots {
				out.Slots = append(out.Slots, SlotRef{Index: idx, ID: slot.ID, Config: slot.Config})
				out.Units = append(out.Units, slotUnits(idx, slot.Config)...)
				idx++
			}
		}
	}
	return out
}

func slotUnits(idx int, config map[string]any) []models.TranslationUnit {
	var units []models.TranslationUnit
	for _, field := range slotTextFields {
		entry, ok := config[field].(map[string]any)
		if !ok {
			continue
		}
		walkText(entry["value"], nil, func(path []string, text string) {
			key := SlotKey{Index: idx, Field: field, Path: path}
			units = append(units, models.TranslationUnit{FieldKey: key.String(), SourceText: text})
		})
	}
	return units
}

// walkText calls fn for every translatable string in v. Map keys are visited
// sorted; keys containing a '.' are skipped because the dotted path could not
// be split back apart.
func walkText(v any, path []string, fn func(path []string, text string)) {
	switch val := v.(type) {
	case string:
		if IsTranslatableText(val) {
			fn(append([]string(nil), path...), val)
		}
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			if k != "" && !strings.Contains(k, ".") {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)
		for _, k := range keys {
			walkText(val[k], append(path, k), fn)
		}
	case []any:
		for i, item := range val {
			walkText(item, append(path, strconv.Itoa(i)), fn)
		}
	}
}

// SlotConfigs rebuilds the config of every slot addressed by values. Each
// config starts as a deep copy of the extracted one, so keys the translation
// did not touch are kept. Keys for unknown slots or missing fields are ignored.
func (x *CmsExtraction) SlotConfigs(values map[string]string) map[int]map[string]any {
	out := make(map[int]map[string]any)

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		sk, ok := ParseSlotKey(key)
		if !ok || sk.Index < 0 || sk.Index >= len(x.Slots) {
			continue
		}

		cfg, ok := out[sk.Index]
		if !ok {
			cfg = deepCopyMap(x.Slots[sk.Index].Config)
		}
		entry, ok := cfg[sk.Field].(map[string]any)
		if !ok {
			continue
		}
		updated, ok := setPath(entry["value"], sk.Path, values[key])
		if !ok {
			continue
		}
		entry["value"] = updated
		out[sk.Index] = cfg
	}
	return out
}

// setPath replaces the string at path inside v. ok is false when the path
// does not exist.
func setPath(v any, path []string, text string) (any, bool) {
	if len(path) == 0 {
		if _, isString := v.(string); !isString {
			return v, false
		}
		return text, true
	}
	switch val := v.(type) {
	case map[string]any:
		child, exists := val[path[0]]
		if !exists {
			return v, false
		}
		updated, ok := setPath(child, path[1:], text)
		if ok {
			val[path[0]] = updated
		}
		return val, ok
	case []any:
		i, err := strconv.Atoi(path[0])
		if err != nil || i < 0 || i >= len(val) {
			return v, false
		}
		updated, ok := setPath(val[i], path[1:], text)
		if ok {
			val[i] = updated
		}
		return val, ok
	default:
		return v, false
	}
}

func deepCopyMap(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = deepCopy(v)
	}
	return out
}

func deepCopy(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return deepCopyMap(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = deepCopy(item)
		}
		return out
	default:
		return val
	}
}
