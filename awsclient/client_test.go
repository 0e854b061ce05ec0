package awsclient_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kmsign/kmsign/awsclient"
	"github.com/kmsign/kmsign/credentials"
	kmsignhttp "github.com/kmsign/kmsign/http"
)

const (
	testAccessKey = "AKIDEXAMPLE"
	testSecretKey = "wJalrXUtnFEMI/K7MDENG+bPxRfiCYEXAMPLEKEY"
)

var testTime = time.Date(2015, 8, 30, 12, 36, 0, 0, time.UTC)

func testConfig(endpoint string) *awsclient.Config {
	return &awsclient.Config{
		Region:    "us-east-1",
		Service:   "service",
		Endpoint:  endpoint,
		AccessKey: testAccessKey,
		SecretKey: testSecretKey,
	}
}

func testClient(t *testing.T, endpoint string) *awsclient.Client {
	t.Helper()
	client, err := awsclient.New(testConfig(endpoint), awsclient.WithClock(func() time.Time { return testTime }))
	require.NoError(t, err)
	return client
}

// verifyingServer checks each inbound request's signature with the
// inspection verifier and delivers the report on the returned channel.
func verifyingServer(t *testing.T) (*httptest.Server, <-chan kmsignhttp.Report) {
	t.Helper()
	store := credentials.NewStaticStore(map[string]string{testAccessKey: testSecretKey})
	verifier := kmsignhttp.NewVerifier(kmsignhttp.VerifierConfig{Region: "us-east-1", Service: "service"}, store)
	reports := make(chan kmsignhttp.Report, 8)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		payload, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		report, err := verifier.Verify(r, payload)
		require.NoError(t, err)
		reports <- report

		w.WriteHeader(http.StatusOK)
	}))
	return server, reports
}

func TestNew(t *testing.T) {
	t.Run("valid config", func(t *testing.T) {
		client, err := awsclient.New(testConfig(""))
		require.NoError(t, err)
		assert.NotNil(t, client)
	})

	t.Run("nil config", func(t *testing.T) {
		_, err := awsclient.New(nil)
		assert.ErrorIs(t, err, awsclient.ErrConfigRequired)
	})

	t.Run("missing access key", func(t *testing.T) {
		_, err := awsclient.New(&awsclient.Config{SecretKey: testSecretKey})
		assert.ErrorIs(t, err, awsclient.ErrAccessKeyRequired)
	})

	t.Run("missing secret key", func(t *testing.T) {
		_, err := awsclient.New(&awsclient.Config{AccessKey: testAccessKey})
		assert.ErrorIs(t, err, awsclient.ErrSecretKeyRequired)
	})
}

func TestClient_Do_SignatureVerifies(t *testing.T) {
	server, reports := verifyingServer(t)
	defer server.Close()

	client := testClient(t, "")

	resp, err := client.Do(context.Background(), http.MethodGet, server.URL+"/test/path?b=2&a=1", nil, nil)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	report := <-reports
	assert.True(t, report.Valid, "computed %s, provided %s", report.ComputedSignature, report.ProvidedSignature)
	assert.Equal(t, testAccessKey, report.AccessKeyID)
	assert.Contains(t, report.CanonicalRequest, "a=1&b=2")
}

func TestClient_Do_StampsRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "20150830T123600Z", r.Header.Get("X-Amz-Date"))

		invocationID := r.Header.Get("Amz-Sdk-Invocation-Id")
		_, err := uuid.Parse(invocationID)
		assert.NoError(t, err, "Amz-Sdk-Invocation-Id should be a UUID, got %q", invocationID)

		authz := r.Header.Get("Authorization")
		assert.True(t, strings.HasPrefix(authz, "AWS4-HMAC-SHA256 Credential=AKIDEXAMPLE/20150830/us-east-1/service/aws4_request, "), authz)
		assert.Contains(t, authz, "SignedHeaders=amz-sdk-invocation-id;host;x-amz-date")

		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := testClient(t, "")

	resp, err := client.Do(context.Background(), http.MethodGet, server.URL+"/", nil, nil)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestClient_Do_SignsCallerHeaders(t *testing.T) {
	server, reports := verifyingServer(t)
	defer server.Close()

	client := testClient(t, "")

	header := http.Header{}
	header.Set("X-Custom", "custom-value")
	header.Add("My-Header", "value1")
	header.Add("My-Header", "value2")

	resp, err := client.Do(context.Background(), http.MethodPost, server.URL+"/", header, []byte("payload"))
	require.NoError(t, err)
	_ = resp.Body.Close()

	report := <-reports
	assert.True(t, report.Valid, "computed %s, provided %s", report.ComputedSignature, report.ProvidedSignature)
	assert.Contains(t, report.SignedHeaders, "x-custom")
	assert.Contains(t, report.SignedHeaders, "my-header")
	assert.Contains(t, report.CanonicalRequest, "my-header:value1,value2")
}

func TestClient_Do_ClientOwnsStampedHeaders(t *testing.T) {
	server, reports := verifyingServer(t)
	defer server.Close()

	client := testClient(t, "")

	// Caller-supplied values for client-owned headers must not leak into
	// the signature or the wire request.
	header := http.Header{}
	header.Set("Authorization", "Bearer nonsense")
	header.Set("X-Amz-Date", "19990101T000000Z")
	header.Set("Host", "spoofed.example.com")

	resp, err := client.Do(context.Background(), http.MethodGet, server.URL+"/", header, nil)
	require.NoError(t, err)
	_ = resp.Body.Close()

	report := <-reports
	assert.True(t, report.Valid, "computed %s, provided %s", report.ComputedSignature, report.ProvidedSignature)
}

func TestClient_Do_BadURL(t *testing.T) {
	client := testClient(t, "")

	t.Run("empty url", func(t *testing.T) {
		_, err := client.Do(context.Background(), http.MethodGet, "", nil, nil)
		assert.ErrorIs(t, err, awsclient.ErrURLRequired)
	})

	t.Run("missing host", func(t *testing.T) {
		_, err := client.Do(context.Background(), http.MethodGet, "/relative/path", nil, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "missing host")
	})
}

func TestClient_CallKMS(t *testing.T) {
	t.Run("successful call", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/", r.URL.Path)
			assert.Equal(t, "TrentService.ListKeys", r.Header.Get("X-Amz-Target"))
			assert.Equal(t, "application/x-amz-json-1.1", r.Header.Get("Content-Type"))

			body, err := io.ReadAll(r.Body)
			require.NoError(t, err)
			assert.Equal(t, "{}", string(body))

			w.Header().Set("Content-Type", "application/x-amz-json-1.1")
			_, _ = w.Write([]byte(`{"Keys":[]}`))
		}))
		defer server.Close()

		client := testClient(t, server.URL)

		body, err := client.CallKMS(context.Background(), "ListKeys", nil)
		require.NoError(t, err)
		assert.JSONEq(t, `{"Keys":[]}`, string(body))
	})

	t.Run("request body passed through", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, err := io.ReadAll(r.Body)
			require.NoError(t, err)
			assert.JSONEq(t, `{"KeyId":"alias/test"}`, string(body))
			_, _ = w.Write([]byte(`{}`))
		}))
		defer server.Close()

		client := testClient(t, server.URL)

		_, err := client.CallKMS(context.Background(), "DescribeKey", []byte(`{"KeyId":"alias/test"}`))
		require.NoError(t, err)
	})

	t.Run("signature verifies", func(t *testing.T) {
		server, reports := verifyingServer(t)
		defer server.Close()

		client := testClient(t, server.URL)

		_, err := client.CallKMS(context.Background(), "ListKeys", nil)
		require.NoError(t, err)

		report := <-reports
		assert.True(t, report.Valid, "computed %s, provided %s", report.ComputedSignature, report.ProvidedSignature)
		assert.Contains(t, report.SignedHeaders, "x-amz-target")
		assert.Contains(t, report.SignedHeaders, "content-type")
	})

	t.Run("empty action", func(t *testing.T) {
		client := testClient(t, "")
		_, err := client.CallKMS(context.Background(), "", nil)
		assert.ErrorIs(t, err, awsclient.ErrActionRequired)
	})

	t.Run("api error with namespaced type", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"__type":"com.amazonaws.kms#NotFoundException","message":"Key not found"}`))
		}))
		defer server.Close()

		client := testClient(t, server.URL)

		_, err := client.CallKMS(context.Background(), "DescribeKey", []byte(`{"KeyId":"missing"}`))
		require.Error(t, err)

		var apiErr *awsclient.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
		assert.Equal(t, "NotFoundException", apiErr.Code)
		assert.Equal(t, "Key not found", apiErr.Message)
		assert.Contains(t, err.Error(), "NotFoundException")
	})

	t.Run("access denied sentinel", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"__type":"SignatureDoesNotMatchException"}`))
		}))
		defer server.Close()

		client := testClient(t, server.URL)

		_, err := client.CallKMS(context.Background(), "ListKeys", nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, awsclient.ErrAccessDenied)

		var apiErr *awsclient.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.True(t, apiErr.IsAccessDenied())
		assert.False(t, apiErr.IsNotFound())
	})

	t.Run("throttled sentinel", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"__type":"ThrottlingException"}`))
		}))
		defer server.Close()

		client := testClient(t, server.URL)

		_, err := client.CallKMS(context.Background(), "ListKeys", nil)
		assert.ErrorIs(t, err, awsclient.ErrThrottled)
	})
}

func TestAPIError_Is(t *testing.T) {
	err := &awsclient.APIError{StatusCode: http.StatusBadRequest, Code: "ValidationException"}

	t.Run("matches on status", func(t *testing.T) {
		assert.ErrorIs(t, err, &awsclient.APIError{StatusCode: http.StatusBadRequest})
	})

	t.Run("matches on code", func(t *testing.T) {
		assert.ErrorIs(t, err, &awsclient.APIError{Code: "ValidationException"})
	})

	t.Run("different status", func(t *testing.T) {
		assert.NotErrorIs(t, err, &awsclient.APIError{StatusCode: http.StatusNotFound})
	})

	t.Run("different code", func(t *testing.T) {
		assert.NotErrorIs(t, err, &awsclient.APIError{Code: "NotFoundException"})
	})

	t.Run("non api error target", func(t *testing.T) {
		assert.NotErrorIs(t, err, errors.New("plain"))
	})
}

func TestNewInvokeResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	client := testClient(t, "")

	resp, err := client.Do(context.Background(), http.MethodPost, server.URL+"/", nil, []byte(`{}`))
	require.NoError(t, err)

	result, err := awsclient.NewInvokeResult(resp)
	require.NoError(t, err)

	assert.Equal(t, http.StatusCreated, result.StatusCode)
	assert.Contains(t, result.Status, "201")
	assert.Equal(t, "application/json", result.Header.Get("Content-Type"))
	assert.JSONEq(t, `{"ok":true}`, string(result.Body))

	_, err = uuid.Parse(result.InvocationID)
	assert.NoError(t, err)
}

func TestClient_WithTimeout(t *testing.T) {
	done := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-done
	}))
	defer server.Close()
	defer close(done)

	client, err := awsclient.New(testConfig(""), awsclient.WithTimeout(50*time.Millisecond))
	require.NoError(t, err)

	_, err = client.Do(context.Background(), http.MethodGet, server.URL+"/", nil, nil)
	require.Error(t, err)
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func TestClient_WithHTTPClient(t *testing.T) {
	var usedCustom bool
	custom := &http.Client{
		Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			usedCustom = true
			rec := httptest.NewRecorder()
			rec.WriteHeader(http.StatusOK)
			return rec.Result(), nil
		}),
	}

	client, err := awsclient.New(testConfig(""), awsclient.WithHTTPClient(custom))
	require.NoError(t, err)

	resp, err := client.Do(context.Background(), http.MethodGet, "http://example.com/", nil, nil)
	require.NoError(t, err)
	_ = resp.Body.Close()

	assert.True(t, usedCustom)
}

func TestClient_CallKMS_DerivedEndpoint(t *testing.T) {
	var gotURL string
	custom := &http.Client{
		Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			gotURL = req.URL.String()
			rec := httptest.NewRecorder()
			_, _ = rec.WriteString(`{}`)
			return rec.Result(), nil
		}),
	}

	cfg := &awsclient.Config{
		Region:    "eu-west-2",
		AccessKey: testAccessKey,
		SecretKey: testSecretKey,
	}
	client, err := awsclient.New(cfg, awsclient.WithHTTPClient(custom))
	require.NoError(t, err)

	_, err = client.CallKMS(context.Background(), "ListKeys", nil)
	require.NoError(t, err)

	assert.Equal(t, "https://kms.eu-west-2.amazonaws.com/", gotURL)
}

func TestClient_Do_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := testClient(t, "")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Do(ctx, http.MethodGet, server.URL+"/", nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

// Structured KMS-style payloads survive the round trip byte for byte.
func TestClient_Do_PayloadIntegrity(t *testing.T) {
	payload := []byte(`{"KeyId":"arn:aws:kms:us-east-1:123456789012:key/abcd","Plaintext":"aGVsbG8gd29ybGQ="}`)

	server, reports := verifyingServer(t)
	defer server.Close()

	client := testClient(t, "")

	resp, err := client.Do(context.Background(), http.MethodPost, server.URL+"/encrypt", nil, payload)
	require.NoError(t, err)
	_ = resp.Body.Close()

	report := <-reports
	assert.True(t, report.Valid, "computed %s, provided %s", report.ComputedSignature, report.ProvidedSignature)
	assert.Contains(t, report.CanonicalRequest, "/encrypt")
}
