// Package recovery turns raw LLM batch responses into key/value translations.
//
// Models wrap JSON in prose or code fences, leave control characters and quotes
// unescaped, add trailing commas and get cut off mid-object. ParseBatchResponse
// tries four tiers in order and returns the first non-empty result:
//
//  1. strict: trim, strip code fences, parse as a JSON object
//  2. sanitized: extract a balanced object, escape control characters, drop trailing commas
//  3. quote repair: escape quotes inside values that do not end the value
//  4. lenient: collect every "key": "value" pair a regular expression can find
//
// When no tier yields a pair, a *ParseError carrying every intermediate text is returned.
package recovery

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/vivatura/translator/internal/metrics"
)

// Tier names, also used as the metrics label.
const (
	TierStrict      = "strict"
	TierSanitized   = "sanitized"
	TierQuoteRepair = "quote_repair"
	TierLenient     = "lenient"
	TierFailed      = "failed"
)

// ErrUnparseable is matched by every *ParseError.
var ErrUnparseable = errors.New("unparseable translation response")

var (
	errEmptyObject  = errors.New("no key/value pairs")
	errTrailingData = errors.New("data after top-level object")
)

// ParseError is returned when all tiers fail. It keeps each stage's text so
// the failure can be diagnosed from logs.
type ParseError struct {
	Raw       string
	Sanitized string
	Repaired  string
	Head      string
	Tail      string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s (%d bytes, head=%q, tail=%q)", ErrUnparseable, len(e.Raw), e.Head, e.Tail)
}

func (e *ParseError) Is(target error) bool {
	return target == ErrUnparseable
}

// Result is a successful parse and the tier that produced it.
type Result struct {
	Values map[string]string
	Tier   string
}

var (
	fenceLang = regexp.MustCompile(`^[a-zA-Z]*[ \t]*\r?\n?`)
	pairRe    = regexp.MustCompile(`"((?:[^"\\]|\\.)*)"\s*:\s*"((?:[^"\\]|\\.)*)"`)
)

// maxCandidates bounds how many '{' positions per text the repair tiers try.
const maxCandidates = 16

// ParseBatchResponse parses raw with the four recovery tiers.
func ParseBatchResponse(raw string) (map[string]string, error) {
	res, err := Parse(raw)
	if err != nil {
		return nil, err
	}
	return res.Values, nil
}

// Parse is ParseBatchResponse that also reports which tier succeeded.
//
// Tiers 2 to 4 run on every object candidate: each '{' of the unwrapped text,
// then each '{' of the raw text. Prose before the JSON may hold braces of its
// own, and a fence inside a value may cut the unwrapped text short.
func Parse(raw string) (*Result, error) {
	stripped := stripWrappers(raw)
	if values, err := parseStrict(stripped); err == nil {
		return succeed(values, TierStrict), nil
	}

	starts := candidates(stripped, strings.TrimSpace(strings.TrimPrefix(raw, "\ufeff")))
	sanitized := make([]string, len(starts))
	for i, c := range starts {
		sanitized[i] = sanitize(c)
		if values, err := parseStrict(sanitized[i]); err == nil {
			return succeed(values, TierSanitized), nil
		}
	}

	repaired := make([]string, len(starts))
	for i := range sanitized {
		repaired[i] = repairQuotes(sanitized[i])
		if values, err := parseStrict(repaired[i]); err == nil {
			return succeed(values, TierQuoteRepair), nil
		}
	}

	// The repair pass can swallow a closing quote, so the sanitized text is
	// scanned too. The candidate yielding the most pairs wins.
	var best map[string]string
	for i := range starts {
		for _, text := range []string{repaired[i], sanitized[i]} {
			if values := extractPairs(text); len(values) > len(best) {
				best = values
			}
		}
	}
	if len(best) > 0 {
		return succeed(best, TierLenient), nil
	}

	metrics.RecordRecoveryTier(TierFailed)
	head, tail := headTail(raw, 100)
	return nil, &ParseError{
		Raw:       raw,
		Sanitized: sanitized[0],
		Repaired:  repaired[0],
		Head:      head,
		Tail:      tail,
	}
}

func succeed(values map[string]string, tier string) *Result {
	metrics.RecordRecoveryTier(tier)
	return &Result{Values: values, Tier: tier}
}

// candidates returns the suffixes of texts starting at a '{', in order and
// without duplicates. When no text has a brace the first text is returned.
func candidates(texts ...string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, s := range texts {
		n := 0
		for i := 0; i < len(s) && n < maxCandidates; n++ {
			j := strings.IndexByte(s[i:], '{')
			if j < 0 {
				break
			}
			c := s[i+j:]
			if !seen[c] {
				seen[c] = true
				out = append(out, c)
			}
			i += j + 1
		}
	}
	if len(out) == 0 {
		out = append(out, texts[0])
	}
	return out
}

// stripWrappers trims whitespace, a byte-order mark, markdown code fences and
// stray triple-quote wrappers. Only fences outside string literals count, so
// a value containing ``` does not end the block.
func stripWrappers(s string) string {
	s = strings.TrimSpace(strings.TrimPrefix(s, "\ufeff"))

	if open := findFence(s); open >= 0 {
		body := s[open+3:]
		body = body[len(fenceLang.FindString(body)):]
		// An opening fence without a closing one means the response was cut off.
		if end := findFence(body); end >= 0 {
			body = body[:end]
		}
		s = body
	}

	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, `"""`)
	s = strings.TrimSuffix(s, `"""`)
	return strings.TrimSpace(s)
}

func sanitize(s string) string {
	s = strings.TrimPrefix(s, "\ufeff")
	s = extractObject(s)
	s = escapeControlChars(s)
	return stripTrailingCommas(s)
}

// parseStrict decodes s as a JSON object. Scalar values are converted to
// strings; nested objects, arrays and nulls are skipped.
func parseStrict(s string) (map[string]string, error) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()

	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, errEmptyObject
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errTrailingData
	}

	out := make(map[string]string, len(obj))
	for k, v := range obj {
		switch val := v.(type) {
		case string:
			out[k] = val
		case json.Number:
			out[k] = val.String()
		case bool:
			if val {
				out[k] = "true"
			} else {
				out[k] = "false"
			}
		}
	}
	if len(out) == 0 {
		return nil, errEmptyObject
	}
	return out, nil
}

// extractPairs collects every "key": "value" match. Later duplicates win, as
// they would in a JSON decoder.
func extractPairs(s string) map[string]string {
	matches := pairRe.FindAllStringSubmatch(s, -1)
	if len(matches) == 0 {
		return nil
	}
	out := make(map[string]string, len(matches))
	for _, m := range matches {
		key := decodeLiteral(m[1])
		if key == "" {
			continue
		}
		out[key] = decodeLiteral(m[2])
	}
	return out
}

// decodeLiteral unescapes the body of a JSON string, falling back to dropping
// backslashes when the body is not valid JSON.
func decodeLiteral(body string) string {
	var out string
	if err := json.Unmarshal([]byte(`"`+body+`"`), &out); err == nil {
		return out
	}

	var b bytes.Buffer
	escaped := false
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c == '\\' && !escaped {
			escaped = true
			continue
		}
		escaped = false
		b.WriteByte(c)
	}
	return b.String()
}
