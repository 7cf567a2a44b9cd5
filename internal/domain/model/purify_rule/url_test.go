package model

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseURL(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected string
		wantErr  bool
	}{
		{name: "bare origin gets a slash", raw: "https://example.com", expected: "https://example.com/"},
		{name: "scheme and host lower-cased", raw: "HTTPS://Example.COM/Path", expected: "https://example.com/Path"},
		{name: "query kept", raw: "http://a.com/?x=1&y=2", expected: "http://a.com/?x=1&y=2"},
		{name: "surrounding space", raw: "  https://a.com/p  ", expected: "https://a.com/p"},
		{name: "non-http scheme", raw: "mailto:someone@example.com", expected: "mailto:someone@example.com"},
		{name: "no scheme", raw: "example.com/path", wantErr: true},
		{name: "http without host", raw: "https:///path", wantErr: true},
		{name: "empty", raw: "", wantErr: true},
		{name: "https default port dropped", raw: "https://Example.com:443/?a=1", expected: "https://example.com/?a=1"},
		{name: "http default port dropped", raw: "http://example.com:80/", expected: "http://example.com/"},
		{name: "empty port dropped", raw: "http://example.com:/", expected: "http://example.com/"},
		{name: "other port kept", raw: "https://example.com:8443/", expected: "https://example.com:8443/"},
		{name: "ipv6 host", raw: "http://[::1]:80/", expected: "http://[::1]/"},
		{name: "idn host to punycode", raw: "https://Bücher.example/", expected: "https://xn--bcher-kva.example/"},
		{name: "non-ascii query encoded", raw: "https://a.com/?q=日本", expected: "https://a.com/?q=%E6%97%A5%E6%9C%AC"},
		{name: "quotes and angles encoded", raw: `https://a.com/?q="a"&r=<b>&s='c'`, expected: "https://a.com/?q=%22a%22&r=%3Cb%3E&s=%27c%27"},
		{name: "existing escapes kept", raw: "https://a.com/?q=%e6%97&x=a+b", expected: "https://a.com/?q=%e6%97&x=a+b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := ParseURL(tt.raw, nil)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, u.String())
		})
	}
}

func TestParseURLRelative(t *testing.T) {
	base, err := url.Parse("https://a.com/dir/page?x=1")
	require.NoError(t, err)

	u, err := ParseURL("/other?y=2", base)
	require.NoError(t, err)
	assert.Equal(t, "https://a.com/other?y=2", u.String())

	u, err = ParseURL("next", base)
	require.NoError(t, err)
	assert.Equal(t, "https://a.com/dir/next", u.String())
}

func TestSegments(t *testing.T) {
	u, err := ParseURL("https://www.example.com/a//b/c/?q=1", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"www.example.com", "a", "b", "c"}, Segments(u))

	u, err = ParseURL("https://example.com", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"example.com"}, Segments(u))
}
