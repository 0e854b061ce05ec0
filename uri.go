package kmsign

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// NormalizePath resolves "." and ".." segments and collapses repeated
// slashes, matching the dot-segment removal AWS applies before signing.
// A ".." at the root is absorbed rather than rejected. The result keeps
// the input's leading slash, keeps a trailing slash unless the whole path
// collapses to the root, and is never empty.
func NormalizePath(path string) string {
	segments := make([]string, 0, strings.Count(path, "/")+1)
	for _, seg := range strings.Split(path, "/") {
		switch seg {
		case "", ".":
		case "..":
			if len(segments) > 0 {
				segments = segments[:len(segments)-1]
			}
		default:
			segments = append(segments, seg)
		}
	}

	if len(segments) == 0 {
		return "/"
	}

	var b strings.Builder
	if strings.HasPrefix(path, "/") {
		b.WriteByte('/')
	}
	b.WriteString(strings.Join(segments, "/"))
	if strings.HasSuffix(path, "/") {
		b.WriteByte('/')
	}
	return b.String()
}

// canonicalURI percent-encodes the normalized path, leaving slashes raw.
func canonicalURI(path string) string {
	return uriEscape(NormalizePath(path), true)
}

// uriEscape percent-encodes s for the signature base. Only RFC 3986
// unreserved characters (and "/" when keepSlash is set) pass through;
// everything else, including multi-byte UTF-8, is encoded byte-wise with
// uppercase hex digits. net/url escaping is close but not byte-identical
// to what AWS hashes, so this is done by hand.
func uriEscape(s string, keepSlash bool) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9',
			c == '-', c == '.', c == '_', c == '~':
			b.WriteByte(c)
		case c == '/' && keepSlash:
			b.WriteByte(c)
		default:
			fmt.Fprintf(&b, "%%%02X", c)
		}
	}
	return b.String()
}

type queryPair struct {
	key   string
	value string
}

// CanonicalQuery rebuilds a raw query string in signature form: each key
// and value is decoded ("+" counts as space) and re-encoded with the
// strict unreserved set, pairs are ordered by encoded key then encoded
// value, and a key without "=" becomes "key=". An empty raw query stays
// empty. A malformed percent escape fails the whole operation.
func CanonicalQuery(rawQuery string) (string, error) {
	if rawQuery == "" {
		return "", nil
	}

	var pairs []queryPair
	for _, pair := range strings.Split(rawQuery, "&") {
		if pair == "" {
			continue
		}
		key, value, _ := strings.Cut(pair, "=")
		decodedKey, err := url.QueryUnescape(key)
		if err != nil {
			return "", fmt.Errorf("invalid percent escape in query key %q: %w", key, ErrInvalidInput)
		}
		decodedValue, err := url.QueryUnescape(value)
		if err != nil {
			return "", fmt.Errorf("invalid percent escape in query value %q: %w", value, ErrInvalidInput)
		}
		pairs = append(pairs, queryPair{
			key:   uriEscape(decodedKey, false),
			value: uriEscape(decodedValue, false),
		})
	}

	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].key != pairs[j].key {
			return pairs[i].key < pairs[j].key
		}
		return pairs[i].value < pairs[j].value
	})

	encoded := make([]string, len(pairs))
	for i, p := range pairs {
		encoded[i] = p.key + "=" + p.value
	}
	return strings.Join(encoded, "&"), nil
}
