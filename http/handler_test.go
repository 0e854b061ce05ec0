package http_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	kmsignhttp "github.com/kmsign/kmsign/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(config *kmsignhttp.HandlerConfig) *kmsignhttp.Handler {
	return kmsignhttp.NewHandler(config, testVerifier())
}

func decodeReport(t *testing.T, rec *httptest.ResponseRecorder) kmsignhttp.Report {
	t.Helper()

	var report kmsignhttp.Report
	err := json.NewDecoder(rec.Body).Decode(&report)
	require.NoError(t, err)
	return report
}

func TestHandler_Healthz(t *testing.T) {
	handler := newTestHandler(&kmsignhttp.HandlerConfig{})

	req := httptest.NewRequest("GET", "/healthz", nil)
	rec := httptest.NewRecorder()

	handler.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestHandler_Verify_ValidRequest(t *testing.T) {
	handler := newTestHandler(&kmsignhttp.HandlerConfig{})

	authz := signRequest(t, "GET", "/", nil, nil)
	req := inboundRequest("GET", "/", nil, nil, authz)
	rec := httptest.NewRecorder()

	handler.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	report := decodeReport(t, rec)
	assert.True(t, report.Valid)
	assert.Equal(t, testAccessKeyID, report.AccessKeyID)
	assert.NotEmpty(t, report.CanonicalRequest)
	assert.NotEmpty(t, report.StringToSign)
}

func TestHandler_Verify_PostWithBody(t *testing.T) {
	handler := newTestHandler(&kmsignhttp.HandlerConfig{})

	payload := []byte("Action=ListUsers&Version=2010-05-08")
	headers := map[string]string{"Content-Type": "application/x-www-form-urlencoded; charset=utf-8"}

	authz := signRequest(t, "POST", "/", payload, headers)
	req := inboundRequest("POST", "/", payload, headers, authz)
	rec := httptest.NewRecorder()

	handler.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	report := decodeReport(t, rec)
	assert.True(t, report.Valid)
	assert.Contains(t, report.SignedHeaders, "content-type")
}

func TestHandler_Verify_AnyPathAnyMethod(t *testing.T) {
	handler := newTestHandler(&kmsignhttp.HandlerConfig{})

	for _, method := range []string{"GET", "PUT", "DELETE", "PATCH"} {
		t.Run(method, func(t *testing.T) {
			authz := signRequest(t, method, "/some/deep/path?x=1", nil, nil)
			req := inboundRequest(method, "/some/deep/path?x=1", nil, nil, authz)
			rec := httptest.NewRecorder()

			handler.Router().ServeHTTP(rec, req)

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.True(t, decodeReport(t, rec).Valid)
		})
	}
}

func TestHandler_Verify_TamperedSignature(t *testing.T) {
	handler := newTestHandler(&kmsignhttp.HandlerConfig{})

	authz := signRequest(t, "GET", "/", nil, nil)
	tampered := authz[:len(authz)-1] + flipHex(authz[len(authz)-1])
	req := inboundRequest("GET", "/", nil, nil, tampered)
	rec := httptest.NewRecorder()

	handler.Router().ServeHTTP(rec, req)

	// A mismatch is still a successful inspection.
	assert.Equal(t, http.StatusOK, rec.Code)

	report := decodeReport(t, rec)
	assert.False(t, report.Valid)
	assert.NotEqual(t, report.ProvidedSignature, report.ComputedSignature)
}

func TestHandler_Verify_MissingAuthorization(t *testing.T) {
	handler := newTestHandler(&kmsignhttp.HandlerConfig{})

	req := httptest.NewRequest("GET", "/", nil)
	rec := httptest.NewRecorder()

	handler.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_request")
}

func TestHandler_Verify_GarbageAuthorization(t *testing.T) {
	handler := newTestHandler(&kmsignhttp.HandlerConfig{})

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer not-sigv4")
	rec := httptest.NewRecorder()

	handler.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_request")
}

func TestHandler_Verify_UnknownAccessKey(t *testing.T) {
	handler := newTestHandler(&kmsignhttp.HandlerConfig{})

	req := inboundRequest("GET", "/", nil, nil,
		"AWS4-HMAC-SHA256 Credential=AKIDUNKNOWN/20150830/us-east-1/service/aws4_request, "+
			"SignedHeaders=host;x-amz-date, Signature=deadbeef")
	rec := httptest.NewRecorder()

	handler.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "unknown_key")
}

func TestHandler_Verify_WrongScope(t *testing.T) {
	handler := newTestHandler(&kmsignhttp.HandlerConfig{})

	req := inboundRequest("GET", "/", nil, nil,
		"AWS4-HMAC-SHA256 Credential=AKIDEXAMPLE/20150830/eu-west-1/service/aws4_request, "+
			"SignedHeaders=host;x-amz-date, Signature=deadbeef")
	rec := httptest.NewRecorder()

	handler.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "unauthorized")
}

func TestHandler_RequestIDHeader(t *testing.T) {
	handler := newTestHandler(&kmsignhttp.HandlerConfig{})

	req := httptest.NewRequest("GET", "/healthz", nil)
	rec := httptest.NewRecorder()

	handler.Router().ServeHTTP(rec, req)

	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestHandler_CORS_Disabled(t *testing.T) {
	handler := newTestHandler(&kmsignhttp.HandlerConfig{
		CORS: kmsignhttp.CORSConfig{Enabled: false},
	})

	req := httptest.NewRequest("GET", "/healthz", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()

	handler.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestHandler_CORS_Enabled_Preflight(t *testing.T) {
	handler := newTestHandler(&kmsignhttp.HandlerConfig{
		CORS: kmsignhttp.CORSConfig{
			Enabled:        true,
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Authorization", "X-Amz-Date", "Content-Type"},
			MaxAge:         300,
		},
	})

	req := httptest.NewRequest("OPTIONS", "/", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	req.Header.Set("Access-Control-Request-Headers", "Authorization")
	rec := httptest.NewRecorder()

	handler.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "POST")
	assert.Equal(t, "300", rec.Header().Get("Access-Control-Max-Age"))
}

func TestHandler_CORS_Enabled_ActualRequest(t *testing.T) {
	handler := newTestHandler(&kmsignhttp.HandlerConfig{
		CORS: kmsignhttp.CORSConfig{
			Enabled:        true,
			AllowedOrigins: []string{"http://localhost:3000"},
			AllowedMethods: []string{"GET"},
			ExposedHeaders: []string{"X-Request-Id"},
		},
	})

	req := httptest.NewRequest("GET", "/healthz", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()

	handler.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestHandler_Verify_ReportRoundTripsAsJSON(t *testing.T) {
	handler := newTestHandler(&kmsignhttp.HandlerConfig{})

	payload := []byte("a=1&b=2")
	authz := signRequest(t, "POST", "/", payload, nil)
	req := inboundRequest("POST", "/", payload, nil, authz)
	rec := httptest.NewRecorder()

	handler.Router().ServeHTTP(rec, req)

	report := decodeReport(t, rec)
	// The canonical request embeds real newlines; they must survive JSON.
	lines := strings.Split(report.CanonicalRequest, "\n")
	assert.Equal(t, "POST", lines[0])
	assert.Equal(t, "/", lines[1])
	assert.Len(t, strings.Split(report.StringToSign, "\n"), 4)
}
