// Package snippetfile reads, writes and discovers storefront snippet files
// (nested JSON or YAML objects of UI strings).
package snippetfile

import (
	"log/slog"
	"strings"

	"github.com/vivatura/translator/pkg/models"
)

// Member is one key of an Object. Value is either a nested Object or a leaf
// (string, number, bool, nil or a list).
type Member struct {
	Key   string
	Value any
}

// Object is a document-ordered JSON/YAML object.
type Object []Member

// Get returns the value stored under key.
func (o Object) Get(key string) (any, bool) {
	for _, m := range o {
		if m.Key == key {
			return m.Value, true
		}
	}
	return nil, false
}

// Flatten turns o into dot-joined keys in document order. Lists are kept as
// single leaves and empty objects produce no entries.
//
// Unflatten(Flatten(o)) reproduces o as long as no key contains a "." and no
// object is empty.
func Flatten(o Object) []models.FileEntry {
	var out []models.FileEntry
	flatten(o, "", &out)
	return out
}

func flatten(o Object, prefix string, out *[]models.FileEntry) {
	for _, m := range o {
		key := m.Key
		if prefix != "" {
			key = prefix + "." + m.Key
		}
		if child, ok := m.Value.(Object); ok {
			flatten(child, key, out)
			continue
		}
		*out = append(*out, models.FileEntry{Key: key, Value: m.Value})
	}
}

// Unflatten rebuilds a nested Object from dotted keys. Keys keep the order
// in which they first appear; a later entry for the same key replaces the
// earlier value in place. An entry that would turn an existing leaf into an
// object, or an object into a leaf, is dropped with a warning: the entry that
// came first wins.
func Unflatten(entries []models.FileEntry) Object {
	var root Object
	for _, e := range entries {
		var ok bool
		if root, ok = insert(root, strings.Split(e.Key, "."), e.Value); !ok {
			slog.Warn("dropping snippet key that conflicts with an earlier key", "key", e.Key)
		}
	}
	return root
}

func insert(o Object, path []string, value any) (Object, bool) {
	head := path[0]
	idx := -1
	for i, m := range o {
		if m.Key == head {
			idx = i
			break
		}
	}

	if len(path) == 1 {
		if idx < 0 {
			return append(o, Member{Key: head, Value: value}), true
		}
		if _, isObject := o[idx].Value.(Object); isObject {
			return o, false
		}
		o[idx].Value = value
		return o, true
	}

	if idx < 0 {
		child, _ := insert(nil, path[1:], value)
		return append(o, Member{Key: head, Value: child}), true
	}
	child, isObject := o[idx].Value.(Object)
	if !isObject {
		return o, false
	}
	child, ok := insert(child, path[1:], value)
	o[idx].Value = child
	return o, ok
}
