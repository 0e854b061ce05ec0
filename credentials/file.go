package credentials

import (
	"encoding/json"
	"fmt"
	"os"
)

// KeyPair is one access key ID and secret access key entry in a key file.
type KeyPair struct {
	AccessKeyID     string `json:"access_key_id" mapstructure:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key" mapstructure:"secret_access_key"`
}

// LoadFile loads access keys from a JSON file containing an array of key
// pairs:
//
//	[
//	  {"access_key_id": "AKIDEXAMPLE", "secret_access_key": "wJalrXUt..."},
//	  {"access_key_id": "AKIDOTHER", "secret_access_key": "another"}
//	]
//
// Entries with an empty ID or secret are dropped. Returns a map of access
// key ID to secret access key.
func LoadFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path) //nolint:gosec // Path is from trusted config file
	if err != nil {
		return nil, fmt.Errorf("read key file: %w", err)
	}

	var pairs []KeyPair
	if err := json.Unmarshal(data, &pairs); err != nil {
		return nil, fmt.Errorf("parse key file: %w", err)
	}

	keys := make(map[string]string, len(pairs))
	for _, p := range pairs {
		if p.AccessKeyID != "" && p.SecretAccessKey != "" {
			keys[p.AccessKeyID] = p.SecretAccessKey
		}
	}

	return keys, nil
}

// FileStore resolves access key IDs from a JSON key file loaded once at
// construction.
type FileStore struct {
	static *StaticStore
}

// NewFileStore loads the key file at path and returns a store over its
// entries.
func NewFileStore(path string) (*FileStore, error) {
	keys, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	return &FileStore{static: NewStaticStore(keys)}, nil
}

// Lookup returns the secret access key for the given access key ID.
func (s *FileStore) Lookup(accessKeyID string) (string, error) {
	return s.static.Lookup(accessKeyID)
}
