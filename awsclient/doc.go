// Package awsclient provides an HTTP client that signs outgoing requests
// with AWS Signature Version 4.
//
// Every request is stamped with X-Amz-Date and a fresh Amz-Sdk-Invocation-Id,
// signed over its host, headers, and payload, and sent with the resulting
// Authorization header. The package includes profile-based configuration for
// managing multiple credential sets.
//
// # Basic Usage
//
// Create a client and send a signed request:
//
//	cfg := &awsclient.Config{
//		Region:    "us-east-1",
//		Service:   "kms",
//		AccessKey: "your-access-key",
//		SecretKey: "your-secret-key",
//	}
//
//	client, err := awsclient.New(cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	body, err := client.CallKMS(ctx, "ListKeys", nil)
//
// Arbitrary requests go through Do:
//
//	resp, err := client.Do(ctx, http.MethodGet, "https://service.example.com/v1/items", nil, nil)
//
// # Profile Configuration
//
// Use profiles to manage multiple credential sets:
//
//	configFile, err := awsclient.LoadConfigFile(awsclient.DefaultConfigPath())
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	profile, err := configFile.GetProfile("production")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	cfg := awsclient.ConfigFromProfile(profile)
//	client, err := awsclient.New(cfg)
//
// # Output Formatting
//
// Use formatters for human-readable or JSON output:
//
//	formatter := awsclient.NewFormatter(jsonOutput, quiet)
//	formatter.FormatInvoke(os.Stdout, result)
package awsclient
