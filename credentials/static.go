package credentials

import "fmt"

// StaticStore resolves access key IDs from an in-memory map.
// Suitable for keys carried in a configuration file.
type StaticStore struct {
	keys map[string]string
}

// NewStaticStore creates a map-backed store from access key ID to secret
// access key pairs.
func NewStaticStore(keys map[string]string) *StaticStore {
	return &StaticStore{keys: keys}
}

// Lookup returns the secret access key for the given access key ID.
func (s *StaticStore) Lookup(accessKeyID string) (string, error) {
	secret, found := s.keys[accessKeyID]
	if !found {
		return "", fmt.Errorf("access key %q: %w", accessKeyID, ErrKeyNotFound)
	}
	return secret, nil
}
