package recovery

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractObject(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `{"a":"b"}`, `{"a":"b"}`},
		{"prose both sides", `ok {"a":"b"} bye`, `{"a":"b"}`},
		{"nested", `x {"a":{"b":"c"}} y`, `{"a":{"b":"c"}}`},
		{"brace in string", `{"a":"}"} tail`, `{"a":"}"}`},
		{"escaped quote", `{"a":"\"}\""} tail`, `{"a":"\"}\""}`},
		{"truncated", `pre {"a":"b`, `{"a":"b`},
		{"no object", `nothing here`, `nothing here`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractObject(tt.in))
		})
	}
}

func TestFindFence(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want int
	}{
		{"leading", "```json", 0},
		{"after prose", "ok\n```", 3},
		{"inside string skipped", `{"a":"` + "```" + `"}` + "```", 11},
		{"only inside string", `{"a":"` + "```" + `"}`, -1},
		{"none", `{"a":"b"}`, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, findFence(tt.in))
		})
	}
}

func TestCandidates(t *testing.T) {
	assert.Equal(t, []string{`{x} {"a":"b"}`, `{"a":"b"}`}, candidates(`{x} {"a":"b"}`))
	assert.Equal(t, []string{`{"a":"b"}`, `{"a":"b"} tail`}, candidates(`{"a":"b"}`, `pre {"a":"b"} tail`))
	assert.Equal(t, []string{"no braces"}, candidates("no braces", ""))
}

func TestEscapeControlChars(t *testing.T) {
	in := "{\n\t\"a\": \"x\ny\tz\x01\"\x02}"
	assert.Equal(t, "{\n\t\"a\": \"x\\ny\\tz\\u0001\"}", escapeControlChars(in))
}

func TestStripTrailingCommas(t *testing.T) {
	assert.Equal(t, `{"a":"b" }`, stripTrailingCommas(`{"a":"b", }`))
	assert.Equal(t, `{"a":["x"]}`, stripTrailingCommas(`{"a":["x",]}`))
	assert.Equal(t, `{"a":"b,}"}`, stripTrailingCommas(`{"a":"b,}"}`))
}

func TestRepairQuotes(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"valid untouched", `{"a": "b", "c": "d"}`, `{"a": "b", "c": "d"}`},
		{"inner quotes", `{"a": "say "hi" now"}`, `{"a": "say \"hi\" now"}`},
		{"already escaped", `{"a": "say \"hi\""}`, `{"a": "say \"hi\""}`},
		{"single inner quote", `{"a": "x"y", "b": "z"}`, `{"a": "x\"y", "b": "z"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, repairQuotes(tt.in))
		})
	}
}

func TestHeadTail(t *testing.T) {
	h, tl := headTail("short", 100)
	assert.Equal(t, "short", h)
	assert.Equal(t, "short", tl)

	h, tl = headTail("abcdef", 2)
	assert.Equal(t, "ab", h)
	assert.Equal(t, "ef", tl)
}
