package util

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var ErrInvalidURL = errors.New("invalid url")

// characters browsers silently drop when they appear inside an href
var urlNoise = strings.NewReplacer(
	"\t", "",
	"\n", "",
	"\r", "",
	"\f", "",
	"\v", "",
	"\u200b", "",
	"\u200c", "",
	"\u200d", "",
	"\ufeff", "",
)

const (
	pathSafe  = "/:@!$&'()*+,;="
	querySafe = "=&/:@!$'()*+,;?"
)

// NormalizeURL turns a raw href into a canonical absolute http(s) URL.
//
// Relative references are resolved against base. Path and query are
// decoded and re-encoded with a fixed safe set, so already escaped input
// is never double-encoded and NormalizeURL(NormalizeURL(u)) == NormalizeURL(u).
// Fragments are dropped. Any failure wraps ErrInvalidURL.
func NormalizeURL(raw, base string) (string, error) {
	candidate := urlNoise.Replace(strings.TrimSpace(raw))
	if candidate == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidURL)
	}

	u, err := url.Parse(escapeStrayPercent(candidate))
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrInvalidURL, raw, err)
	}

	if base != "" && !u.IsAbs() {
		b, err := url.Parse(strings.TrimSpace(base))
		if err != nil {
			return "", fmt.Errorf("%w: base %q: %v", ErrInvalidURL, base, err)
		}
		u = b.ResolveReference(u)
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", fmt.Errorf("%w: unsupported scheme in %q", ErrInvalidURL, raw)
	}
	if u.Host == "" || u.Opaque != "" {
		return "", fmt.Errorf("%w: missing host in %q", ErrInvalidURL, raw)
	}

	var b strings.Builder
	b.WriteString(scheme)
	b.WriteString("://")
	if u.User != nil {
		b.WriteString(u.User.String())
		b.WriteByte('@')
	}
	b.WriteString(strings.ToLower(u.Host))
	b.WriteString(canonicalEscape(u.EscapedPath(), pathSafe))

	if u.RawQuery != "" {
		b.WriteByte('?')
		b.WriteString(canonicalEscape(u.RawQuery, querySafe))
	}

	return b.String(), nil
}

// SameHost reports whether both URLs point at the same host (case-insensitive).
func SameHost(a, b string) bool {
	ua, err := url.Parse(a)
	if err != nil {
		return false
	}
	ub, err := url.Parse(b)
	if err != nil {
		return false
	}

	return strings.EqualFold(ua.Host, ub.Host)
}

// escapeStrayPercent encodes '%' characters that do not start a valid
// escape sequence so url.Parse accepts hrefs like "100%.html".
func escapeStrayPercent(s string) string {
	if !strings.Contains(s, "%") {
		return s
	}

	var b strings.Builder
	b.Grow(len(s) + 4)
	for i := 0; i < len(s); i++ {
		if s[i] == '%' && (i+2 >= len(s) || !isHex(s[i+1]) || !isHex(s[i+2])) {
			b.WriteString("%25")
			continue
		}
		b.WriteByte(s[i])
	}

	return b.String()
}

// canonicalEscape rewrites s so that unreserved bytes appear literally,
// bytes from safe are kept, and everything else is an uppercase %XX escape.
// Valid escapes of reserved bytes stay escaped so "%2F" keeps its meaning.
func canonicalEscape(s, safe string) string {
	const hexDigits = "0123456789ABCDEF"

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '%' && i+2 < len(s) && isHex(s[i+1]) && isHex(s[i+2]) {
			c = unhex(s[i+1])<<4 | unhex(s[i+2])
			i += 2
			if isUnreserved(c) {
				b.WriteByte(c)
				continue
			}
		} else if isUnreserved(c) || (c < 0x80 && c != '%' && strings.IndexByte(safe, c) >= 0) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hexDigits[c>>4])
		b.WriteByte(hexDigits[c&0x0f])
	}

	return b.String()
}

func isUnreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	case c == '-', c == '.', c == '_', c == '~':
		return true
	}

	return false
}

func isHex(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

func unhex(c byte) byte {
	switch {
	case '0' <= c && c <= '9':
		return c - '0'
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10
	default:
		return c - 'A' + 10
	}
}
