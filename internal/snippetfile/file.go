package snippetfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/vivatura/translator/pkg/models"
)

var (
	// localeSuffix matches "<name>.<xx-XX>.<ext>".
	localeSuffix = regexp.MustCompile(`\.([a-z]{2}-[A-Z]{2})\.(json|ya?ml)$`)
	localeCode   = regexp.MustCompile(`^[a-z]{2}-[A-Z]{2}$`)
)

// ErrInvalidLocale means a target locale is not of the form "xx-XX".
var ErrInvalidLocale = errors.New("invalid locale")

// Read loads path and flattens it to dot keys in document order.
// A missing file keeps fs.ErrNotExist in the error chain.
func Read(path string) ([]models.FileEntry, error) {
	f, ok := FormatOf(path)
	if !ok {
		return nil, fmt.Errorf("%w: unsupported extension %q", ErrInvalidDocument, filepath.Ext(path))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading snippet file: %w", err)
	}
	obj, err := Decode(data, f)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return Flatten(obj), nil
}

// Write unflattens entries and writes them to path, creating parent directories.
func Write(path string, entries []models.FileEntry) error {
	f, ok := FormatOf(path)
	if !ok {
		return fmt.Errorf("%w: unsupported extension %q", ErrInvalidDocument, filepath.Ext(path))
	}
	data, err := Encode(Unflatten(entries), f)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing snippet file: %w", err)
	}
	return nil
}

// LanguageOf returns the locale encoded in a file name, or "unknown".
func LanguageOf(name string) string {
	if m := localeSuffix.FindStringSubmatch(name); m != nil {
		return m[1]
	}
	return "unknown"
}

// TargetPath returns the sibling path holding the locale variant of path:
// "storefront.de-DE.json" becomes "storefront.fr-FR.json", and a file without
// a locale ("messages.yml") becomes "messages.fr-FR.yml".
// The result always lies in the directory of path.
func TargetPath(path, locale string) (string, error) {
	if _, ok := FormatOf(path); !ok {
		return "", fmt.Errorf("%w: unsupported extension %q", ErrInvalidDocument, filepath.Ext(path))
	}
	if !localeCode.MatchString(locale) {
		return "", fmt.Errorf("%w: %q", ErrInvalidLocale, locale)
	}

	dir, name := filepath.Split(path)
	var target string
	if m := localeSuffix.FindStringSubmatchIndex(name); m != nil {
		target = dir + name[:m[2]] + locale + name[m[3]:]
	} else {
		ext := filepath.Ext(name)
		target = dir + strings.TrimSuffix(name, ext) + "." + locale + ext
	}

	if filepath.Dir(filepath.Clean(target)) != filepath.Dir(filepath.Clean(path)) {
		return "", fmt.Errorf("%w: %s leaves %s", ErrInvalidLocale, target, filepath.Dir(path))
	}
	return target, nil
}
