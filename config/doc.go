// Package config provides configuration loading and validation for kmsign.
//
// The package handles YAML configuration files, environment variables, and CLI flags
// with automatic merging and validation using go-playground/validator.
//
// # Configuration Precedence
//
// Values are loaded in this order (later sources override earlier ones):
//
//  1. Default values
//  2. Configuration file(s) - multiple files merged left-to-right
//  3. Environment variables (KMSIGN_ prefix)
//  4. CLI flags
//
// # Usage
//
//	cfg, err := config.Load([]string{"config.yaml"}, cmd.Flags())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Store in context for subcommands
//	ctx = config.WithContext(ctx, cfg)
//
//	// Retrieve later
//	cfg, err = config.FromContext(ctx)
//
// # Environment Variables
//
// All config keys map to environment variables with KMSIGN_ prefix:
//   - server.port → KMSIGN_SERVER_PORT
//   - auth.region → KMSIGN_AUTH_REGION
//   - log.level → KMSIGN_LOG_LEVEL
//
// # Configuration Structure
//
// The Config struct contains:
//   - Server: listen host and port for the inspection server
//   - Auth: accepted credential scope (region, service) and access keys,
//     inline or from a JSON key file
//   - Suite: test-suite directory and case names to skip
//   - CORS: cross-origin resource sharing settings
//   - Log: logging level and format
//
// # Validation
//
// Configuration is validated using struct tags:
//   - Port must be 1-65535
//   - Log level must be debug, info, warn, or error
//   - Log format must be text or json
package config
