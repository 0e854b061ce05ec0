package awsclient

import (
	"fmt"
	"io"
	"net/http"
)

// InvokeResult captures the response to a signed request for output
// formatting.
type InvokeResult struct {
	StatusCode   int
	Status       string // status line text, e.g. "200 OK"
	Proto        string // e.g. "HTTP/1.1"
	Header       http.Header
	Body         []byte
	InvocationID string
}

// NewInvokeResult drains and closes the response body and packages the
// response for formatting.
func NewInvokeResult(resp *http.Response) (*InvokeResult, error) {
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	result := &InvokeResult{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Proto:      resp.Proto,
		Header:     resp.Header,
		Body:       body,
	}
	if resp.Request != nil {
		result.InvocationID = resp.Request.Header.Get("Amz-Sdk-Invocation-Id")
	}
	return result, nil
}
