// Package extract pulls translatable text out of content entities as ordered
// field-key/source-text units, and knows how to put translations back.
package extract

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	numericOnly    = regexp.MustCompile(`^[\d\s.,:;%+\-/()€$£]+$`)
	mediaExtension = regexp.MustCompile(`(?i)\.(jpe?g|png|gif|svg|webp|mp4|pdf)$`)
)

var mediaPrefixes = []string{"http://", "https://", "/media/"}

// IsTranslatableText reports whether s is worth sending to a translator:
// not blank, not purely numeric or symbolic, and not a media reference.
func IsTranslatableText(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	if numericOnly.MatchString(s) {
		return false
	}
	if !strings.ContainsFunc(s, unicode.IsLetter) {
		return false
	}
	return !isMediaReference(s)
}

func isMediaReference(s string) bool {
	lower := strings.ToLower(s)
	for _, p := range mediaPrefixes {
		if strings.HasPrefix(lower, p) {
			return true
		}
	}
	return mediaExtension.MatchString(s)
}
