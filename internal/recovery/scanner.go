package recovery

import (
	"strings"
	"unicode/utf8"
)

// transition is what one byte did to the string-literal state.
type transition int

const (
	outside transition = iota
	inside
	openQuote
	closeQuote
)

// stringState tracks whether a position in JSON-like text is inside a string
// literal. Every sanitizer pass shares it so they agree on what is quoted.
// Multi-byte UTF-8 never contains '"' or '\\', so scanning bytes is safe.
type stringState struct {
	in      bool
	escaped bool
}

func (st *stringState) feed(c byte) transition {
	switch {
	case st.in && st.escaped:
		st.escaped = false
		return inside
	case st.in && c == '\\':
		st.escaped = true
		return inside
	case st.in && c == '"':
		st.in = false
		return closeQuote
	case st.in:
		return inside
	case c == '"':
		st.in = true
		return openQuote
	default:
		return outside
	}
}

// findFence returns the index of the first ``` outside a string literal, or -1.
func findFence(s string) int {
	var st stringState
	for i := 0; i < len(s); i++ {
		if st.feed(s[i]) == outside && strings.HasPrefix(s[i:], "```") {
			return i
		}
	}
	return -1
}

// extractObject returns the text from the first '{' to its balancing '}'.
// If the object never closes (a truncated response) the rest of the text is returned.
func extractObject(s string) string {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return s
	}

	var st stringState
	depth := 0
	for i := start; i < len(s); i++ {
		c := s[i]
		if st.feed(c) != outside {
			continue
		}
		switch c {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return s[start:]
}

// escapeControlChars escapes raw control characters inside string literals and
// drops stray ones outside them. Newlines, tabs and carriage returns between
// tokens are legal JSON whitespace and are kept.
func escapeControlChars(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 16)

	var st stringState
	for i := 0; i < len(s); i++ {
		c := s[i]
		wasIn := st.in
		st.feed(c)

		if c >= 0x20 {
			b.WriteByte(c)
			continue
		}
		if !wasIn {
			if c == '\n' || c == '\r' || c == '\t' {
				b.WriteByte(c)
			}
			continue
		}
		switch c {
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteString(`\u00`)
			b.WriteByte(hexDigits[c>>4])
			b.WriteByte(hexDigits[c&0x0f])
		}
	}
	return b.String()
}

const hexDigits = "0123456789abcdef"

// stripTrailingCommas removes a ',' that is followed only by whitespace and
// then a closing '}' or ']', outside string literals.
func stripTrailingCommas(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	var st stringState
	for i := 0; i < len(s); i++ {
		c := s[i]
		if st.feed(c) == outside && c == ',' {
			if next := nextSignificant(s, i+1); next == '}' || next == ']' {
				continue
			}
		}
		b.WriteByte(c)
	}
	return b.String()
}

// repairQuotes escapes double quotes that appear inside string values but are
// not followed by ',' or '}' (or ']' or the end of input). Key strings end at
// their first quote. This is a heuristic: a stray quote directly before a
// comma is still read as the end of the value.
func repairQuotes(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 16)

	var st stringState
	var lastSig byte
	valueString := false

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch st.feed(c) {
		case openQuote:
			valueString = lastSig == ':'
			b.WriteByte(c)
		case closeQuote:
			if valueString {
				if next := nextSignificant(s, i+1); next != ',' && next != '}' && next != ']' && next != 0 {
					st.in = true
					b.WriteString(`\"`)
					continue
				}
			}
			lastSig = '"'
			b.WriteByte(c)
		case outside:
			if !isSpace(c) {
				lastSig = c
			}
			b.WriteByte(c)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// nextSignificant returns the first non-whitespace byte at or after i, or 0.
func nextSignificant(s string, i int) byte {
	for ; i < len(s); i++ {
		if !isSpace(s[i]) {
			return s[i]
		}
	}
	return 0
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\n' || c == '\r' || c == '\t'
}

// headTail returns up to n runes from each end of s.
func headTail(s string, n int) (string, string) {
	if utf8.RuneCountInString(s) <= n {
		return s, s
	}
	runes := []rune(s)
	return string(runes[:n]), string(runes[len(runes)-n:])
}
