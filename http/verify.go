package http

import (
	"crypto/hmac"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/kmsign/kmsign"
	"github.com/kmsign/kmsign/credentials"
)

// Params holds the components of an AWS4-HMAC-SHA256 Authorization header.
type Params struct {
	AccessKeyID   string
	DateStamp     string
	Region        string
	Service       string
	SignedHeaders []string
	Signature     string
}

// Scope returns the credential scope the client signed under.
func (p Params) Scope() string {
	return fmt.Sprintf("%s/%s/%s/aws4_request", p.DateStamp, p.Region, p.Service)
}

// ParseAuthorization parses an Authorization header of the form
//
//	AWS4-HMAC-SHA256 Credential=<akid>/<date>/<region>/<service>/aws4_request,
//	SignedHeaders=<name;name;...>, Signature=<hex>
//
// Signed header names are lowercased. Malformed headers are rejected with
// an error wrapping kmsign.ErrInvalidInput.
func ParseAuthorization(header string) (Params, error) {
	if header == "" {
		return Params{}, fmt.Errorf("missing Authorization header: %w", kmsign.ErrInvalidInput)
	}

	rest, ok := strings.CutPrefix(header, kmsign.SignatureAlgorithm+" ")
	if !ok {
		return Params{}, fmt.Errorf("authorization scheme is not %s: %w", kmsign.SignatureAlgorithm, kmsign.ErrInvalidInput)
	}

	fields := make(map[string]string, 3)
	for _, part := range strings.Split(rest, ",") {
		name, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found || name == "" || value == "" {
			return Params{}, fmt.Errorf("malformed authorization field %q: %w", strings.TrimSpace(part), kmsign.ErrInvalidInput)
		}
		fields[name] = value
	}

	credential, ok := fields["Credential"]
	if !ok {
		return Params{}, fmt.Errorf("authorization header has no Credential field: %w", kmsign.ErrInvalidInput)
	}
	signedHeaders, ok := fields["SignedHeaders"]
	if !ok {
		return Params{}, fmt.Errorf("authorization header has no SignedHeaders field: %w", kmsign.ErrInvalidInput)
	}
	signature, ok := fields["Signature"]
	if !ok {
		return Params{}, fmt.Errorf("authorization header has no Signature field: %w", kmsign.ErrInvalidInput)
	}

	credParts := strings.Split(credential, "/")
	if len(credParts) != 5 {
		return Params{}, fmt.Errorf("invalid Credential format %q: %w", credential, kmsign.ErrInvalidInput)
	}
	if credParts[4] != "aws4_request" {
		return Params{}, fmt.Errorf("invalid credential terminator: expected aws4_request: %w", kmsign.ErrInvalidInput)
	}
	for _, part := range credParts[:4] {
		if part == "" {
			return Params{}, fmt.Errorf("invalid Credential format %q: %w", credential, kmsign.ErrInvalidInput)
		}
	}

	names := strings.Split(signedHeaders, ";")
	for i, name := range names {
		if name == "" {
			return Params{}, fmt.Errorf("empty name in SignedHeaders %q: %w", signedHeaders, kmsign.ErrInvalidInput)
		}
		names[i] = strings.ToLower(name)
	}

	return Params{
		AccessKeyID:   credParts[0],
		DateStamp:     credParts[1],
		Region:        credParts[2],
		Service:       credParts[3],
		SignedHeaders: names,
		Signature:     signature,
	}, nil
}

// VerifierConfig fixes the credential scope a verifier accepts. An empty
// Region or Service accepts whatever the request's scope names.
type VerifierConfig struct {
	Region  string
	Service string
}

// Verifier checks AWS Signature Version 4 Authorization headers against a
// credential store.
type Verifier struct {
	config VerifierConfig
	store  credentials.Store
}

// NewVerifier creates a verifier that resolves secrets through store.
func NewVerifier(config VerifierConfig, store credentials.Store) *Verifier {
	return &Verifier{config: config, store: store}
}

// Report describes one verification: everything the server derived on its
// side, next to what the client presented. A client whose signature was
// rejected can diff CanonicalRequest and StringToSign against its own.
type Report struct {
	Valid             bool     `json:"valid"`
	AccessKeyID       string   `json:"access_key_id"`
	CredentialScope   string   `json:"credential_scope"`
	SignedHeaders     []string `json:"signed_headers"`
	CanonicalRequest  string   `json:"canonical_request"`
	StringToSign      string   `json:"string_to_sign"`
	ProvidedSignature string   `json:"provided_signature"`
	ComputedSignature string   `json:"computed_signature"`
}

// Verify recomputes the signature for r and compares it, in constant time,
// against the one presented in the Authorization header. The payload must
// be passed explicitly since the caller has usually drained r.Body already.
//
// Only the headers named in SignedHeaders participate in the computation.
// A signature mismatch is not an error: it is reported as Valid=false so
// the caller can expose the diff.
func (v *Verifier) Verify(r *http.Request, payload []byte) (Report, error) {
	params, err := ParseAuthorization(r.Header.Get("Authorization"))
	if err != nil {
		return Report{}, err
	}

	amzDate := r.Header.Get("X-Amz-Date")
	if amzDate == "" {
		return Report{}, fmt.Errorf("missing X-Amz-Date header: %w", kmsign.ErrInvalidInput)
	}
	requestTime, err := time.Parse(kmsign.DateTimeFormat, amzDate)
	if err != nil {
		return Report{}, fmt.Errorf("invalid X-Amz-Date format: %w", kmsign.ErrInvalidInput)
	}

	if params.DateStamp != requestTime.Format(kmsign.DateFormat) {
		return Report{}, fmt.Errorf("credential date %s does not match X-Amz-Date: %w", params.DateStamp, ErrUnauthorized)
	}
	if v.config.Region != "" && params.Region != v.config.Region {
		return Report{}, fmt.Errorf("region mismatch: expected %s, got %s: %w", v.config.Region, params.Region, ErrUnauthorized)
	}
	if v.config.Service != "" && params.Service != v.config.Service {
		return Report{}, fmt.Errorf("service mismatch: expected %s, got %s: %w", v.config.Service, params.Service, ErrUnauthorized)
	}

	secretKey, err := v.store.Lookup(params.AccessKeyID)
	if err != nil {
		return Report{}, err
	}

	req, err := rebuildRequest(r, params, requestTime, secretKey)
	if err != nil {
		return Report{}, err
	}
	req.AppendPayload(payload)

	canonicalRequest, err := req.CanonicalRequest()
	if err != nil {
		return Report{}, err
	}
	stringToSign, err := req.StringToSign()
	if err != nil {
		return Report{}, err
	}
	computed, err := req.Signature()
	if err != nil {
		return Report{}, err
	}

	return Report{
		Valid:             hmac.Equal([]byte(computed), []byte(params.Signature)),
		AccessKeyID:       params.AccessKeyID,
		CredentialScope:   params.Scope(),
		SignedHeaders:     params.SignedHeaders,
		CanonicalRequest:  canonicalRequest,
		StringToSign:      stringToSign,
		ProvidedSignature: params.Signature,
		ComputedSignature: computed,
	}, nil
}

// rebuildRequest reconstructs the signing-side view of r: same method and
// target, but only the headers the client declared as signed.
func rebuildRequest(r *http.Request, params Params, requestTime time.Time, secretKey string) (*kmsign.Request, error) {
	// Prefer the wire-form target; absolute-form request URIs are reduced
	// to origin form, which is what the client signed.
	target := r.RequestURI
	if !strings.HasPrefix(target, "/") {
		target = r.URL.RequestURI()
	}

	req, err := kmsign.NewRequest(r.Method, target)
	if err != nil {
		return nil, err
	}
	req.SetRegion(params.Region)
	req.SetService(params.Service)
	req.SetAccessKeyID(params.AccessKeyID)
	req.SetSecretKey(secretKey)
	if err := req.SetDate(requestTime); err != nil {
		return nil, err
	}

	for _, name := range params.SignedHeaders {
		if name == "host" {
			if err := req.AddHeader("host", r.Host); err != nil {
				return nil, err
			}
			continue
		}
		values := r.Header.Values(name)
		if len(values) == 0 {
			return nil, fmt.Errorf("signed header %q missing from request: %w", name, kmsign.ErrInvalidInput)
		}
		for _, value := range values {
			if err := req.AddHeader(name, value); err != nil {
				return nil, err
			}
		}
	}

	return req, nil
}
