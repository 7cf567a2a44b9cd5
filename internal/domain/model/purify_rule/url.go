package model

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/idna"
)

// ParseURL parses raw, resolving it against base when base is non-nil, and
// normalizes the result the way browsers serialize an href: lower-case
// scheme, ASCII host without the default port, a percent-encoded query,
// and "/" as the path of a bare http(s) origin.
func ParseURL(raw string, base *url.URL) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, errors.New("empty url")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if base != nil {
		u = base.ResolveReference(u)
	}
	if u.Scheme == "" {
		return nil, fmt.Errorf("missing scheme in %q", raw)
	}
	u.Scheme = strings.ToLower(u.Scheme)
	if IsHTTPScheme(u.Scheme) {
		if u.Host == "" {
			return nil, fmt.Errorf("missing host in %q", raw)
		}
		host, err := normalizeHost(u.Scheme, u.Host)
		if err != nil {
			return nil, fmt.Errorf("invalid host in %q: %w", raw, err)
		}
		u.Host = host
		if u.Path == "" && u.RawPath == "" {
			u.Path = "/"
		}
		u.RawQuery = encodeQuery(u.RawQuery)
	}
	return u, nil
}

var defaultPorts = map[string]string{"http": "80", "https": "443"}

// normalizeHost lower-cases host, converts an IDN to punycode and drops an
// empty or default port.
func normalizeHost(scheme, host string) (string, error) {
	name, port := host, ""
	if i := strings.LastIndexByte(host, ':'); i >= 0 && !strings.Contains(host[i:], "]") {
		name, port = host[:i], host[i+1:]
	}
	name = strings.ToLower(name)
	for i := 0; i < len(name); i++ {
		if name[i] >= 0x80 {
			ascii, err := idna.Lookup.ToASCII(name)
			if err != nil {
				return "", err
			}
			name = ascii
			break
		}
	}
	if port == "" || port == defaultPorts[scheme] {
		return name, nil
	}
	return name + ":" + port, nil
}

// encodeQuery percent-encodes the bytes a browser escapes in the query of
// an http(s) URL: controls, space, non-ASCII and " # < > '. Existing
// escapes and the form delimiters are kept.
func encodeQuery(q string) string {
	const hex = "0123456789ABCDEF"
	i := strings.IndexFunc(q, func(r rune) bool { return !isQueryByte(r) })
	if i < 0 {
		return q
	}
	var b strings.Builder
	b.WriteString(q[:i])
	for ; i < len(q); i++ {
		c := q[i]
		if isQueryByte(rune(c)) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0x0F])
	}
	return b.String()
}

func isQueryByte(r rune) bool {
	return r > 0x20 && r < 0x7F && !strings.ContainsRune("\"#<>'", r)
}
