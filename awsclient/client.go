package awsclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kmsign/kmsign"
)

// DefaultTimeout is the default HTTP client timeout.
const DefaultTimeout = 30 * time.Second

// kmsTargetPrefix is the service prefix KMS expects on X-Amz-Target.
const kmsTargetPrefix = "TrentService."

// Client sends HTTP requests carrying a Signature Version 4
// Authorization header derived from its configured credentials.
type Client struct {
	config     *Config
	httpClient *http.Client
	now        func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithClock sets the time source used to stamp X-Amz-Date. Tests use this
// to sign against fixed timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

// New creates a new Client with the given config and options.
// The config must carry credentials; region and service fall back to
// DefaultRegion and DefaultService.
func New(cfg *Config, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, ErrConfigRequired
	}
	if err := cfg.ValidateWithAuth(); err != nil {
		return nil, err
	}

	c := &Client{
		config:     cfg.WithDefaults(),
		httpClient: &http.Client{Timeout: DefaultTimeout},
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// NewSignedRequest builds an *http.Request for the given call with the
// Authorization header already computed. The signature covers the host,
// the X-Amz-Date stamp, a fresh Amz-Sdk-Invocation-Id, and every header
// in the supplied set. Host, X-Amz-Date, and Authorization values in the
// supplied set are ignored; the client owns those.
func (c *Client) NewSignedRequest(ctx context.Context, method, rawURL string, header http.Header, body []byte) (*http.Request, error) {
	if rawURL == "" {
		return nil, ErrURLRequired
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("url %q: missing host", rawURL)
	}

	now := c.now()
	amzDate := now.UTC().Format(kmsign.DateTimeFormat)
	invocationID := uuid.NewString()

	sreq, err := kmsign.NewRequest(method, u.RequestURI())
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	sreq.SetRegion(c.config.Region)
	sreq.SetService(c.config.Service)
	sreq.SetAccessKeyID(c.config.AccessKey)
	sreq.SetSecretKey(c.config.SecretKey)
	if err := sreq.SetDate(now); err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	if err := sreq.AddHeader("Host", u.Host); err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if err := sreq.AddHeader("X-Amz-Date", amzDate); err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if err := sreq.AddHeader("Amz-Sdk-Invocation-Id", invocationID); err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for name, values := range header {
		if strings.EqualFold(name, "Host") ||
			strings.EqualFold(name, "X-Amz-Date") ||
			strings.EqualFold(name, "Authorization") {
			continue
		}
		for _, v := range values {
			if err := sreq.AddHeader(name, v); err != nil {
				return nil, fmt.Errorf("build request: %w", err)
			}
		}
	}
	sreq.AppendPayload(body)

	authz, err := sreq.Authorization()
	if err != nil {
		return nil, fmt.Errorf("sign request: %w", err)
	}

	var bodyReader io.Reader = http.NoBody
	if len(body) > 0 {
		bodyReader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	for name, values := range header {
		if strings.EqualFold(name, "Host") {
			continue
		}
		for _, v := range values {
			req.Header.Add(name, v)
		}
	}
	req.Header.Set("X-Amz-Date", amzDate)
	req.Header.Set("Amz-Sdk-Invocation-Id", invocationID)
	req.Header.Set("Authorization", authz)

	return req, nil
}

// Do signs and executes a request. The caller owns the response body.
func (c *Client) Do(ctx context.Context, method, rawURL string, header http.Header, body []byte) (*http.Response, error) {
	req, err := c.NewSignedRequest(ctx, method, rawURL, header, body)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}

	return resp, nil
}

// CallKMS posts a signed JSON operation to the configured KMS endpoint.
// The action is the operation name, e.g. "ListKeys" or "Encrypt"; an empty
// body is sent as the empty JSON document. Non-200 responses are returned
// as an *APIError.
func (c *Client) CallKMS(ctx context.Context, action string, body []byte) ([]byte, error) {
	if action == "" {
		return nil, fmt.Errorf("call kms: %w", ErrActionRequired)
	}

	endpoint := c.config.Endpoint
	if endpoint == "" {
		endpoint = fmt.Sprintf("https://kms.%s.amazonaws.com/", c.config.Region)
	}
	if len(body) == 0 {
		body = []byte("{}")
	}

	header := http.Header{}
	header.Set("Content-Type", "application/x-amz-json-1.1")
	header.Set("X-Amz-Target", kmsTargetPrefix+action)

	resp, err := c.Do(ctx, http.MethodPost, endpoint, header, body)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, parseServerError(resp.StatusCode, respBody)
	}

	return respBody, nil
}

// parseServerError extracts the error shape from a server response. AWS
// JSON protocols report the error type in a "__type" field, optionally
// namespaced ("com.amazonaws.kms#NotFoundException").
func parseServerError(statusCode int, body []byte) error {
	apiErr := &APIError{
		StatusCode: statusCode,
		Body:       string(body),
	}

	var e struct {
		Type    string `json:"__type"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &e); err == nil {
		code := e.Type
		if i := strings.LastIndex(code, "#"); i >= 0 {
			code = code[i+1:]
		}
		apiErr.Code = code
		apiErr.Message = e.Message
	}

	return apiErr
}

// APIError represents an error response from the server.
type APIError struct {
	StatusCode int
	Code       string // error type, e.g. "NotFoundException"
	Message    string
	Body       string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		msg := e.Message
		if msg == "" {
			msg = e.Body
		}
		return fmt.Sprintf("server error: %d %s - %s", e.StatusCode, e.Code, msg)
	}
	return "server error: " + strconv.Itoa(e.StatusCode) + " - " + e.Body
}

// Is reports whether target matches this error. A target carrying a Code
// matches on the code; otherwise the status codes must match.
func (e *APIError) Is(target error) bool {
	var t *APIError
	ok := errors.As(target, &t)
	if !ok {
		return false
	}
	if t.Code != "" {
		return t.Code == e.Code
	}
	return t.StatusCode == e.StatusCode
}

// IsNotFound returns true if the error is a 404.
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// IsAccessDenied returns true if the error is a 403.
func (e *APIError) IsAccessDenied() bool {
	return e.StatusCode == http.StatusForbidden
}

// Sentinel errors for common API error conditions.
// Use errors.Is() to check for these conditions.
var (
	// ErrNotFound is returned when the requested resource does not exist (404).
	ErrNotFound = &APIError{StatusCode: http.StatusNotFound}

	// ErrAccessDenied is returned when the request is rejected (403).
	// This typically means the signature or the credentials were not accepted.
	ErrAccessDenied = &APIError{StatusCode: http.StatusForbidden}

	// ErrThrottled is returned when the server asks the caller to slow down (429).
	ErrThrottled = &APIError{StatusCode: http.StatusTooManyRequests}
)
