package kmsign

import (
	"sort"
	"strings"
)

// Header is one request header as given by the caller: original casing,
// original value bytes. Folded (multi-line) values keep their line breaks
// here; canonicalization collapses them.
type Header struct {
	Name  string
	Value string
}

func validHeaderName(name string) bool {
	return name != "" && !strings.ContainsAny(name, ":\r\n")
}

// canonicalHeaderBlock renders headers in signature form: lowercased names
// in byte order, folded values, one "name:value\n" line each.
func canonicalHeaderBlock(headers []Header) string {
	names := make([]string, len(headers))
	values := make(map[string]string, len(headers))
	for i, h := range headers {
		name := strings.ToLower(h.Name)
		names[i] = name
		values[name] = foldValue(h.Value)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		b.WriteString(name)
		b.WriteByte(':')
		b.WriteString(values[name])
		b.WriteByte('\n')
	}
	return b.String()
}

// signedHeaderNames lists the lowercased header names in byte order,
// joined by ";". Every header in the table is signed.
func signedHeaderNames(headers []Header) string {
	names := make([]string, len(headers))
	for i, h := range headers {
		names[i] = strings.ToLower(h.Name)
	}
	sort.Strings(names)
	return strings.Join(names, ";")
}

// foldValue produces the signature form of a header value: surrounding
// whitespace is dropped, runs containing a line break collapse to a comma
// (so continuation lines become list separators), and other whitespace
// runs collapse to a single space.
func foldValue(value string) string {
	var b strings.Builder
	for i, n := 0, len(value); i < n; {
		if !isSpace(value[i]) {
			b.WriteByte(value[i])
			i++
			continue
		}
		newline := false
		j := i
		for j < n && isSpace(value[j]) {
			if value[j] == '\n' {
				newline = true
			}
			j++
		}
		if b.Len() > 0 && j < n {
			if newline {
				b.WriteByte(',')
			} else {
				b.WriteByte(' ')
			}
		}
		i = j
	}
	return b.String()
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
