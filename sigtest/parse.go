package sigtest

import (
	"fmt"
	"strings"

	"github.com/kmsign/kmsign"
)

// ParseRequest builds a kmsign.Request from the test-suite request format:
// a request line, header lines, folded continuations for the preceding
// header, then optionally a blank line and the payload verbatim.
//
// A header line carries a colon; its value is everything after the first
// colon, kept byte for byte (including any leading space). A non-blank
// line without a colon continues the previous header's value across a
// line break.
func ParseRequest(data []byte) (*kmsign.Request, error) {
	line, rest, _ := strings.Cut(string(data), "\n")
	method, target, err := parseRequestLine(line)
	if err != nil {
		return nil, err
	}

	req, err := kmsign.NewRequest(method, target)
	if err != nil {
		return nil, err
	}

	// pending names the header a continuation line would extend.
	pending := ""
	for rest != "" {
		line, remainder, found := strings.Cut(rest, "\n")
		if line == "" {
			// Blank line: everything after it is the payload.
			if found && remainder != "" {
				req.AppendPayload([]byte(remainder))
			}
			return req, nil
		}

		if name, value, isHeader := strings.Cut(line, ":"); isHeader {
			if err := req.AddHeader(name, value); err != nil {
				return nil, err
			}
			pending = name
		} else {
			if pending == "" {
				return nil, fmt.Errorf("continuation line %q before any header: %w", line, kmsign.ErrInvalidInput)
			}
			if err := req.AppendHeaderValue(pending, "\n"+line); err != nil {
				return nil, err
			}
		}

		if !found {
			break
		}
		rest = remainder
	}
	return req, nil
}

// parseRequestLine splits "METHOD target HTTP/x.y". The target is taken up
// to the last space, so targets containing spaces survive.
func parseRequestLine(line string) (method, target string, err error) {
	method, rest, ok := strings.Cut(line, " ")
	if !ok {
		return "", "", fmt.Errorf("malformed request line %q: %w", line, kmsign.ErrInvalidInput)
	}

	i := strings.LastIndex(rest, " ")
	if i < 0 || !strings.HasPrefix(rest[i+1:], "HTTP/") {
		return "", "", fmt.Errorf("malformed request line %q: %w", line, kmsign.ErrInvalidInput)
	}
	return method, rest[:i], nil
}
