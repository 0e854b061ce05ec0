// Package credentials resolves AWS access key IDs to their secret access
// keys for signature verification.
package credentials

import "errors"

// ErrKeyNotFound is returned when the access key ID does not exist in the store.
var ErrKeyNotFound = errors.New("access key not found")

// Store resolves an access key ID to its secret access key.
type Store interface {
	Lookup(accessKeyID string) (string, error)
}

// Config holds configuration for assembling a credential store.
type Config struct {
	Keys map[string]string `mapstructure:"keys"` // Inline access key ID to secret pairs
	File string            `mapstructure:"file"` // Path to a JSON key file
}

// NewStore builds a Store from the given configuration. Inline keys and
// file keys are merged into a single store; file keys take precedence over
// inline keys when an access key ID appears in both.
func NewStore(cfg Config) (Store, error) {
	keys := make(map[string]string)

	for id, secret := range cfg.Keys {
		if id != "" && secret != "" {
			keys[id] = secret
		}
	}

	if cfg.File != "" {
		fileKeys, err := LoadFile(cfg.File)
		if err != nil {
			return nil, err
		}
		for id, secret := range fileKeys {
			keys[id] = secret
		}
	}

	return NewStaticStore(keys), nil
}
