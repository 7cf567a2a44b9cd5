package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyActs(t *testing.T) {
	const page = `<html><body><a id="go" href="https://t.com/dest">Continue</a></body></html>`

	tests := []struct {
		name     string
		input    string
		acts     []string
		expected string
		ok       bool
	}{
		{name: "url decode", input: "https%3A%2F%2Fa.com%2F", acts: []string{"url"}, expected: "https://a.com/", ok: true},
		{name: "url decode malformed", input: "%E4%A", acts: []string{"url"}, ok: false},
		{name: "base64 url-safe unpadded", input: "aHR0cHM6Ly9hLmNvbS8_eD0x", acts: []string{"base64"}, expected: "https://a.com/?x=1", ok: true},
		{name: "base64 padded", input: "aHR0cHM6Ly9hLmNvbS8/eD0x", acts: []string{"base64"}, expected: "https://a.com/?x=1", ok: true},
		{name: "base64 garbage", input: "!!!", acts: []string{"base64"}, ok: false},
		{name: "slice range", input: "abcdef", acts: []string{"slice:1:3"}, expected: "bc", ok: true},
		{name: "slice negative start", input: "abcdef", acts: []string{"slice:-2"}, expected: "ef", ok: true},
		{name: "slice empty range", input: "abcdef", acts: []string{"slice:4:2"}, expected: "", ok: true},
		{name: "regex with colon in pattern", input: "go to https://x.com/p now", acts: []string{`regex:https?://\S+`}, expected: "https://x.com/p", ok: true},
		{name: "regex no match", input: "nothing here", acts: []string{`regex:\d+`}, expected: "", ok: true},
		{name: "dom attr", input: page, acts: []string{"dom", "sel:a#go", "attr:href"}, expected: "https://t.com/dest", ok: true},
		{name: "dom text", input: page, acts: []string{"dom", "sel:a", "text"}, expected: "Continue", ok: true},
		{name: "missing element", input: page, acts: []string{"dom", "sel:img", "attr:src"}, ok: false},
		{name: "missing attribute", input: page, acts: []string{"dom", "sel:a", "attr:title"}, ok: false},
		{name: "pipeline ends on document", input: page, acts: []string{"dom"}, ok: false},
		{name: "unknown act", input: "x", acts: []string{"rot13"}, ok: false},
		{name: "chained", input: "xxaHR0cHM6Ly9hLmNvbS8_eD0x", acts: []string{"slice:2", "base64", "url"}, expected: "https://a.com/?x=1", ok: true},
		{name: "no acts", input: "as-is", acts: []string{}, expected: "as-is", ok: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logs []string
			got, ok := ApplyActs(tt.input, tt.acts, func(msg string) { logs = append(logs, msg) })
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.expected, got)
				assert.Empty(t, logs)
			} else {
				assert.NotEmpty(t, logs)
			}
		})
	}
}

func TestDefaultVisitActs(t *testing.T) {
	body := `<html><script>window.location = "https://www.target.com/path?x=1";</script></html>`
	got, ok := ApplyActs(body, DefaultVisitActs, nil)
	assert.True(t, ok)
	assert.Equal(t, "https://www.target.com/path?x=1", got)
}

func TestJSReplacement(t *testing.T) {
	assert.Equal(t, "a$1", jsReplacement("a$1"))
	assert.Equal(t, "https://${rest}", jsReplacement("https://$<rest>"))
	assert.Equal(t, "$$<x>", jsReplacement("$$<x>"))
	assert.Equal(t, "$<open", jsReplacement("$<open"))
	assert.Equal(t, "$$0-$01", jsReplacement("$0-$01"))
	assert.Equal(t, "$$_$$+$${x}", jsReplacement("$_$+${x}"))
}

func TestRegexUsesJSSemantics(t *testing.T) {
	re, err := compileRegex(`^\d+$`)
	require.NoError(t, err)
	ok, err := re.MatchString("١٢٣") // Arabic-Indic digits
	require.NoError(t, err)
	assert.False(t, ok)

	re, err = compileRegex(`(a)(b)`)
	require.NoError(t, err)
	out, err := re.Replace("ab", jsReplacement("[$0|$_|$2$1]"), -1, -1)
	require.NoError(t, err)
	assert.Equal(t, "[$0|$_|ba]", out)
}
