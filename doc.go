// Package kmsign produces AWS Signature Version 4 signatures for HTTP
// requests, built for calling KMS-style services where every header is
// signed and the payload hash is part of the signature base.
//
// Kmsign exposes each stage of the signing pipeline, because the byte-exact
// intermediate forms are what you need when AWS rejects a request without
// saying why: the canonical request, the string to sign, the derived
// signing key, the signature, and the fully reconstructed signed request.
//
// # Key Components
//
//   - Request: accumulates method, URI, headers, payload, credentials, and
//     signing date, and produces every derived artifact
//   - NormalizePath: AWS dot-segment removal for request paths
//   - Header: one caller-supplied header, original casing and bytes
//
// # Example Usage
//
//	req, err := kmsign.NewRequest("POST", "/")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	req.SetRegion("us-east-1")
//	req.SetService("kms")
//	req.SetAccessKeyID(accessKeyID)
//	req.SetSecretKey(secretKey)
//	_ = req.SetDate(time.Now().UTC())
//	_ = req.AddHeader("Host", "kms.us-east-1.amazonaws.com")
//	_ = req.AddHeader("X-Amz-Date", time.Now().UTC().Format(kmsign.DateTimeFormat))
//	req.AppendPayload([]byte(`{"KeyId":"alias/example"}`))
//
//	authorization, err := req.Authorization()
//
// The date is always supplied explicitly; the package never reads the
// clock, so signing is reproducible and testable against fixed vectors.
//
// See the sigtest package for the AWS test-suite harness, the http package
// for a server that verifies and explains signatures, and the awsclient
// package for sending signed requests.
package kmsign
