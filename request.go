package kmsign

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// Request accumulates everything Signature Version 4 covers: the request
// line, headers, payload, credentials, and signing scope. Build it up with
// the setters, then ask for any derived artifact. Nothing is cached, so a
// mutation after a query simply changes what later queries return.
//
// The zero value is not usable; start with NewRequest.
type Request struct {
	method      string
	originalURI string
	path        string
	rawQuery    string
	headers     []Header
	payload     []byte
	region      string
	service     string
	accessKeyID string
	secretKey   string
	date        time.Time
}

// NewRequest starts a request to sign. The uri is the request target as it
// would appear on the request line; anything after the first "?" is kept
// as the raw query string. The method is used verbatim.
func NewRequest(method, uri string) (*Request, error) {
	if method == "" {
		return nil, fmt.Errorf("method must not be empty: %w", ErrInvalidInput)
	}
	if uri == "" {
		return nil, fmt.Errorf("uri must not be empty: %w", ErrInvalidInput)
	}

	path, rawQuery, _ := strings.Cut(uri, "?")
	return &Request{
		method:      method,
		originalURI: uri,
		path:        path,
		rawQuery:    rawQuery,
	}, nil
}

// SetRegion sets the AWS region for the credential scope (e.g. "us-east-1").
func (r *Request) SetRegion(region string) {
	r.region = region
}

// SetService sets the service name for the credential scope (e.g. "kms").
func (r *Request) SetService(service string) {
	r.service = service
}

// SetAccessKeyID sets the access key ID named in the Authorization header.
func (r *Request) SetAccessKeyID(accessKeyID string) {
	r.accessKeyID = accessKeyID
}

// SetSecretKey sets the secret the signing key is derived from. The secret
// never appears in any artifact this package produces.
func (r *Request) SetSecretKey(secretKey string) {
	r.secretKey = secretKey
}

// SetDate fixes the signing time, converted to UTC. The library never
// consults the clock, so the same inputs always sign identically.
func (r *Request) SetDate(t time.Time) error {
	if t.IsZero() {
		return fmt.Errorf("date must not be the zero time: %w", ErrInvalidInput)
	}
	r.date = t.UTC()
	return nil
}

// AddHeader records a header. A repeated name (case-insensitive) does not
// create a second entry: the new value is joined onto the existing one
// with a comma, preserving the first occurrence's position and casing.
func (r *Request) AddHeader(name, value string) error {
	if !validHeaderName(name) {
		return fmt.Errorf("invalid header name %q: %w", name, ErrInvalidInput)
	}

	for i := range r.headers {
		if strings.EqualFold(r.headers[i].Name, name) {
			r.headers[i].Value += "," + value
			return nil
		}
	}
	r.headers = append(r.headers, Header{Name: name, Value: value})
	return nil
}

// AppendHeaderValue extends the most recently added header matching name
// with raw bytes. Parsers use this for folded continuation lines, passing
// the line break as part of the chunk.
func (r *Request) AppendHeaderValue(name, chunk string) error {
	for i := len(r.headers) - 1; i >= 0; i-- {
		if strings.EqualFold(r.headers[i].Name, name) {
			r.headers[i].Value += chunk
			return nil
		}
	}
	return fmt.Errorf("no header %q to extend: %w", name, ErrMissingField)
}

// AppendPayload adds bytes to the request body. The body may be built up
// across any number of calls; it is hashed when an artifact is requested.
func (r *Request) AppendPayload(data []byte) {
	r.payload = append(r.payload, data...)
}

// HeaderValue reports the current value of the named header,
// case-insensitively.
func (r *Request) HeaderValue(name string) (string, bool) {
	for _, h := range r.headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value, true
		}
	}
	return "", false
}

// Headers returns a copy of the header table in insertion order.
func (r *Request) Headers() []Header {
	out := make([]Header, len(r.headers))
	copy(out, r.headers)
	return out
}

// CanonicalRequest renders the request in the exact byte form AWS hashes:
// method, canonical URI, canonical query, canonical header block, signed
// header list, and the hex SHA-256 of the payload, newline-separated. It
// fails if no Host header was added; region, service, and credentials are
// not needed yet at this stage.
func (r *Request) CanonicalRequest() (string, error) {
	if _, ok := r.HeaderValue("Host"); !ok {
		return "", fmt.Errorf("canonical request needs a Host header: %w", ErrMissingField)
	}

	query, err := CanonicalQuery(r.rawQuery)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%s\n%s\n%s\n%s\n%s\n%s",
		r.method,
		canonicalURI(r.path),
		query,
		canonicalHeaderBlock(r.headers),
		signedHeaderNames(r.headers),
		sha256Hash(r.payload),
	), nil
}

// StringToSign renders the four-line signing input: algorithm, timestamp,
// credential scope, and the hex SHA-256 of the canonical request.
func (r *Request) StringToSign() (string, error) {
	if err := r.requireScope(); err != nil {
		return "", err
	}

	canonicalRequest, err := r.CanonicalRequest()
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%s\n%s\n%s\n%s",
		SignatureAlgorithm,
		r.date.Format(DateTimeFormat),
		credentialScope(r.date.Format(DateFormat), r.region, r.service),
		sha256Hash([]byte(canonicalRequest)),
	), nil
}

// SigningKey derives the signature key for the request's scope. Treat the
// result as being as sensitive as the secret key itself.
func (r *Request) SigningKey() ([]byte, error) {
	if r.secretKey == "" {
		return nil, fmt.Errorf("secret key not set: %w", ErrMissingField)
	}
	if err := r.requireScope(); err != nil {
		return nil, err
	}
	return deriveSigningKey(r.secretKey, r.date.Format(DateFormat), r.region, r.service), nil
}

// Signature computes the lowercase hex HMAC-SHA256 of the string to sign
// under the derived signing key.
func (r *Request) Signature() (string, error) {
	key, err := r.SigningKey()
	if err != nil {
		return "", err
	}

	stringToSign, err := r.StringToSign()
	if err != nil {
		return "", err
	}

	return hex.EncodeToString(hmacSHA256(key, []byte(stringToSign))), nil
}

// Authorization builds the Authorization header value carrying the
// credential scope, the signed header list, and the signature.
func (r *Request) Authorization() (string, error) {
	if r.accessKeyID == "" {
		return "", fmt.Errorf("access key ID not set: %w", ErrMissingField)
	}

	signature, err := r.Signature()
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%s Credential=%s/%s, SignedHeaders=%s, Signature=%s",
		SignatureAlgorithm,
		r.accessKeyID,
		credentialScope(r.date.Format(DateFormat), r.region, r.service),
		signedHeaderNames(r.headers),
		signature,
	), nil
}

// SignedRequest reproduces the request text ready to send: the original
// request line and headers byte for byte, an appended Authorization
// header, and the payload after a blank line when one is present.
func (r *Request) SignedRequest() (string, error) {
	authorization, err := r.Authorization()
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s HTTP/1.1\n", r.method, r.originalURI)
	for _, h := range r.headers {
		fmt.Fprintf(&b, "%s:%s\n", h.Name, h.Value)
	}
	fmt.Fprintf(&b, "Authorization: %s\n", authorization)
	if len(r.payload) > 0 {
		b.WriteByte('\n')
		b.Write(r.payload)
	}
	return b.String(), nil
}

func (r *Request) requireScope() error {
	if r.date.IsZero() {
		return fmt.Errorf("date not set: %w", ErrMissingField)
	}
	if r.region == "" {
		return fmt.Errorf("region not set: %w", ErrMissingField)
	}
	if r.service == "" {
		return fmt.Errorf("service not set: %w", ErrMissingField)
	}
	return nil
}
