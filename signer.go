package kmsign

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

const (
	SignatureAlgorithm = "AWS4-HMAC-SHA256"
	DateTimeFormat     = "20060102T150405Z"
	DateFormat         = "20060102"
)

// deriveSigningKey derives the per-scope signature key from the secret key
// through the AWS4 HMAC chain: date, region, service, then the aws4_request
// terminator. The derived key is as sensitive as the secret itself.
func deriveSigningKey(secretKey, dateStamp, region, service string) []byte {
	kDate := hmacSHA256([]byte("AWS4"+secretKey), []byte(dateStamp))
	kRegion := hmacSHA256(kDate, []byte(region))
	kService := hmacSHA256(kRegion, []byte(service))
	kSigning := hmacSHA256(kService, []byte("aws4_request"))
	return kSigning
}

func credentialScope(dateStamp, region, service string) string {
	return fmt.Sprintf("%s/%s/%s/aws4_request", dateStamp, region, service)
}

func hmacSHA256(key, data []byte) []byte {
	h := hmac.New(sha256.New, key)
	h.Write(data)
	return h.Sum(nil)
}

func sha256Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
