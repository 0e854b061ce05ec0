package kmsign_test

import (
	"fmt"
	"log"
	"time"

	"github.com/kmsign/kmsign"
)

func ExampleNormalizePath() {
	fmt.Println(kmsign.NormalizePath("/a/b/../../d"))
	fmt.Println(kmsign.NormalizePath("//example//"))
	fmt.Println(kmsign.NormalizePath(""))
	// Output:
	// /d
	// /example/
	// /
}

func ExampleRequest_CanonicalRequest() {
	req, err := kmsign.NewRequest("GET", "/")
	if err != nil {
		log.Fatal(err)
	}
	_ = req.AddHeader("Host", "example.amazonaws.com")
	_ = req.AddHeader("X-Amz-Date", "20150830T123600Z")

	canonicalRequest, err := req.CanonicalRequest()
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(canonicalRequest)
	// Output:
	// GET
	// /
	//
	// host:example.amazonaws.com
	// x-amz-date:20150830T123600Z
	//
	// host;x-amz-date
	// e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855
}

func ExampleRequest_Authorization() {
	req, err := kmsign.NewRequest("POST", "/")
	if err != nil {
		log.Fatal(err)
	}
	req.SetRegion("us-east-1")
	req.SetService("iam")
	req.SetAccessKeyID("AKIDEXAMPLE")
	req.SetSecretKey("wJalrXUtnFEMI/K7MDENG+bPxRfiCYEXAMPLEKEY")
	_ = req.SetDate(time.Date(2015, 8, 30, 12, 36, 0, 0, time.UTC))
	_ = req.AddHeader("Host", "iam.amazonaws.com")
	_ = req.AddHeader("Content-Type", "application/x-www-form-urlencoded; charset=utf-8")
	_ = req.AddHeader("X-Amz-Date", "20150830T123600Z")
	req.AppendPayload([]byte("Action=ListUsers&Version=2010-05-08"))

	authorization, err := req.Authorization()
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(authorization)
	// Output:
	// AWS4-HMAC-SHA256 Credential=AKIDEXAMPLE/20150830/us-east-1/iam/aws4_request, SignedHeaders=content-type;host;x-amz-date, Signature=5d672d79c15b13162d9279b0855cfba6789a8edb4c82c400e06b5924a6f2b5d7
}
