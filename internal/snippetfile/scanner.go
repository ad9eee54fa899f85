package snippetfile

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// ErrOutsideRoots means a path is not below any configured snippet root.
var ErrOutsideRoots = errors.New("path outside snippet roots")

var (
	extensionSource = regexp.MustCompile(`/(vendor|custom)/(apps|plugins)/([^/]+)`)
	packageSource   = regexp.MustCompile(`/vendor/([^/]+)/([^/]+)/`)
)

// File describes one discovered snippet file.
type File struct {
	Path         string `json:"full_path"`
	RelPath      string `json:"path"`
	Filename     string `json:"filename"`
	Language     string `json:"language"`
	SnippetCount int    `json:"snippet_count"`
	Size         int64  `json:"size"`
}

// Source groups the snippet files owned by one app, plugin or package.
type Source struct {
	Name  string `json:"name"`
	Files []File `json:"files"`
}

// Scanner discovers snippet files below a set of root directories.
type Scanner struct {
	roots []string
}

func NewScanner(roots []string) *Scanner {
	return &Scanner{roots: roots}
}

// Find walks every root and returns snippet files grouped by source, sources
// sorted by name and files by language. Unreadable directories are skipped.
func (s *Scanner) Find() ([]Source, error) {
	bySource := map[string]*Source{}

	for _, root := range s.roots {
		absRoot, err := filepath.Abs(root)
		if err != nil {
			return nil, fmt.Errorf("resolving root %s: %w", root, err)
		}
		err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if d != nil && d.IsDir() && path != absRoot {
					return fs.SkipDir
				}
				if path == absRoot && errors.Is(err, fs.ErrNotExist) {
					return fs.SkipDir
				}
				return nil
			}
			if d.IsDir() || !isSnippetPath(path) {
				return nil
			}

			f := File{
				Path:     path,
				Filename: d.Name(),
				Language: LanguageOf(d.Name()),
			}
			if rel, err := filepath.Rel(absRoot, path); err == nil {
				f.RelPath = rel
			}
			if info, err := d.Info(); err == nil {
				f.Size = info.Size()
			}
			if entries, err := Read(path); err != nil {
				slog.Warn("skipping unreadable snippet file", "path", path, "error", err)
			} else {
				f.SnippetCount = len(entries)
			}

			name := SourceName(path)
			src, ok := bySource[name]
			if !ok {
				src = &Source{Name: name}
				bySource[name] = src
			}
			src.Files = append(src.Files, f)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("scanning %s: %w", root, err)
		}
	}

	out := make([]Source, 0, len(bySource))
	for _, src := range bySource {
		sort.SliceStable(src.Files, func(i, j int) bool {
			if src.Files[i].Language != src.Files[j].Language {
				return src.Files[i].Language < src.Files[j].Language
			}
			return src.Files[i].Path < src.Files[j].Path
		})
		out = append(out, *src)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// FindByLanguage is Find restricted to files of one locale. Sources without
// a matching file are omitted.
func (s *Scanner) FindByLanguage(iso string) ([]Source, error) {
	all, err := s.Find()
	if err != nil {
		return nil, err
	}
	var out []Source
	for _, src := range all {
		var files []File
		for _, f := range src.Files {
			if f.Language == iso {
				files = append(files, f)
			}
		}
		if len(files) > 0 {
			out = append(out, Source{Name: src.Name, Files: files})
		}
	}
	return out, nil
}

// Resolve returns the absolute form of path if it lies below a root.
func (s *Scanner) Resolve(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", path, err)
	}
	for _, root := range s.roots {
		absRoot, err := filepath.Abs(root)
		if err != nil {
			continue
		}
		rel, err := filepath.Rel(absRoot, abs)
		if err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return abs, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrOutsideRoots, path)
}

// SourceName derives the owning app, plugin or package from a file path:
// ".../custom/plugins/SwagPayPal/..." gives "SwagPayPal" and
// ".../vendor/swag/swag-analytics/..." gives "SwagAnalytics".
func SourceName(path string) string {
	p := filepath.ToSlash(path)
	if m := extensionSource.FindStringSubmatch(p); m != nil {
		return m[3]
	}
	if m := packageSource.FindStringSubmatch(p); m != nil {
		return pascalCase(m[2])
	}
	return "Unknown"
}

func pascalCase(s string) string {
	var b strings.Builder
	for _, part := range strings.Split(s, "-") {
		if part == "" {
			continue
		}
		b.WriteString(strings.ToUpper(part[:1]))
		b.WriteString(part[1:])
	}
	return b.String()
}

func isSnippetPath(path string) bool {
	if _, ok := FormatOf(path); !ok {
		return false
	}
	return strings.Contains(filepath.ToSlash(path), "/snippet/")
}
