package model

import (
	"strings"
	"unicode/utf8"
)

// SearchParams is an ordered application/x-www-form-urlencoded query,
// the representation rule authors reason about (duplicates and order kept).
type SearchParams struct {
	pairs []paramPair
}

type paramPair struct {
	name  string
	value string
}

// ParseSearchParams parses a raw query string (without the leading '?').
func ParseSearchParams(rawQuery string) *SearchParams {
	sp := &SearchParams{}
	for _, seq := range strings.Split(rawQuery, "&") {
		if seq == "" {
			continue
		}
		name, value, _ := strings.Cut(seq, "=")
		sp.pairs = append(sp.pairs, paramPair{
			name:  formDecode(name),
			value: formDecode(value),
		})
	}
	return sp
}

// Has reports whether name is present.
func (sp *SearchParams) Has(name string) bool {
	for _, p := range sp.pairs {
		if p.name == name {
			return true
		}
	}
	return false
}

// Get returns the first value for name.
func (sp *SearchParams) Get(name string) (string, bool) {
	for _, p := range sp.pairs {
		if p.name == name {
			return p.value, true
		}
	}
	return "", false
}

// Set replaces every value of name with a single one, keeping the position
// of the first occurrence, or appends it.
func (sp *SearchParams) Set(name, value string) {
	out := sp.pairs[:0]
	found := false
	for _, p := range sp.pairs {
		if p.name != name {
			out = append(out, p)
			continue
		}
		if !found {
			out = append(out, paramPair{name: name, value: value})
			found = true
		}
	}
	sp.pairs = out
	if !found {
		sp.pairs = append(sp.pairs, paramPair{name: name, value: value})
	}
}

// Delete removes every pair named name.
func (sp *SearchParams) Delete(name string) {
	out := sp.pairs[:0]
	for _, p := range sp.pairs {
		if p.name != name {
			out = append(out, p)
		}
	}
	sp.pairs = out
}

// Names lists parameter names in order, duplicates included.
func (sp *SearchParams) Names() []string {
	names := make([]string, 0, len(sp.pairs))
	for _, p := range sp.pairs {
		names = append(names, p.name)
	}
	return names
}

// Size is the number of pairs.
func (sp *SearchParams) Size() int {
	return len(sp.pairs)
}

// String serializes the pairs canonically.
func (sp *SearchParams) String() string {
	var b strings.Builder
	for i, p := range sp.pairs {
		if i > 0 {
			b.WriteByte('&')
		}
		formEncode(&b, p.name)
		b.WriteByte('=')
		formEncode(&b, p.value)
	}
	return b.String()
}

// IsStandardQuery reports whether rawQuery is already in canonical form,
// i.e. re-serializing it would not change a byte.
func IsStandardQuery(rawQuery string) bool {
	return ParseSearchParams(rawQuery).String() == rawQuery
}

func formEncode(b *strings.Builder, s string) {
	const hex = "0123456789ABCDEF"
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == ' ':
			b.WriteByte('+')
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9',
			c == '*', c == '-', c == '.', c == '_':
			b.WriteByte(c)
		default:
			b.WriteByte('%')
			b.WriteByte(hex[c>>4])
			b.WriteByte(hex[c&0x0f])
		}
	}
}

// formDecode never fails: malformed escapes are kept literally and invalid
// UTF-8 becomes U+FFFD.
func formDecode(s string) string {
	s = strings.ReplaceAll(s, "+", " ")
	if !strings.Contains(s, "%") {
		return s
	}
	buf := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '%' && i+2 < len(s) && isHex(s[i+1]) && isHex(s[i+2]) {
			buf = append(buf, unhex(s[i+1])<<4|unhex(s[i+2]))
			i += 2
			continue
		}
		buf = append(buf, s[i])
	}
	if utf8.Valid(buf) {
		return string(buf)
	}
	return strings.ToValidUTF8(string(buf), "�")
}

func isHex(c byte) bool {
	return c >= '0' && c <= '9' || c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F'
}

func unhex(c byte) byte {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	default:
		return c - 'A' + 10
	}
}
