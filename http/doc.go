// Package http provides the HTTP inspection server for AWS Signature V4.
//
// The server treats every incoming request as a signing exercise: it parses
// the Authorization header, re-derives the signature from the headers the
// client declared as signed, and answers with a JSON report carrying the
// server-side canonical request, string to sign, and both signatures. A
// client whose signing implementation disagrees with the server can diff
// the report against its own intermediates instead of guessing.
//
// # Features
//
//   - AWS Signature V4 verification (HMAC-SHA256, constant-time compare)
//   - Pluggable key resolution via the credentials.Store interface
//   - Catch-all routing: any path, any method, is a verification target
//   - Full intermediate artifacts in every verification report
//   - JSON error responses
//   - Configurable CORS support
//
// # Verification Outcomes
//
// A request that can be processed always gets a 200 with a Report body;
// the Valid field says whether the presented signature matched. Structural
// problems are errors instead: a malformed Authorization header or a
// missing X-Amz-Date is a 400, an unknown access key or a credential scope
// the server is not configured for is a 403.
//
// # Usage
//
// Create a handler with HandlerConfig:
//
//	store := credentials.NewStaticStore(map[string]string{
//	    "AKIDEXAMPLE": "wJalrXUt...",
//	})
//	verifier := http.NewVerifier(http.VerifierConfig{
//	    Region:  "us-east-1",
//	    Service: "service",
//	}, store)
//
//	handler := http.NewHandler(&http.HandlerConfig{}, verifier)
//	http.ListenAndServe(":8080", handler.Router())
//
// Leaving VerifierConfig fields empty accepts whatever region or service
// the request's credential scope names, which is convenient when the
// server is used as a pure signing oracle.
package http
