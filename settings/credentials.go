// Package settings keeps the per-user API keys of the backends that need
// one, in $XDG_DATA_HOME/yamltr/auth.json (~/.local/share/yamltr/auth.json
// when unset):
//
//	{"openai": {"key": "sk-...", "base_url": "https://api.groq.com/openai/v1"}}
//
// The file is written with 0600 permissions. A key given on the command
// line or through YAMLTR_API_KEY always wins over a stored one; see
// ResolveAPIKey.
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/ccrisc/yaml-traslator/fsutil"
)

// Credential is what is stored for one backend.
type Credential struct {
	Key     string `json:"key"`
	BaseURL string `json:"base_url,omitempty"`
}

// Store maps backend ids to their credentials.
type Store map[string]*Credential

// IDs returns the backend ids with a stored key, sorted.
func (s Store) IDs() []string {
	var ids []string
	for id, c := range s {
		if c != nil && c.Key != "" {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// authFile resolves the credential file from the environment on every call
// so tests can point XDG_DATA_HOME elsewhere.
func authFile() (string, error) {
	base := os.Getenv("XDG_DATA_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("locating home directory: %w", err)
		}
		base = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(base, "yamltr", "auth.json"), nil
}

// FilePath returns the credential file path, or "" if it cannot be
// determined. Used in help text.
func FilePath() string {
	p, _ := authFile()
	return p
}

// Load reads the store. A missing or unreadable file is an empty store:
// credentials are optional and the keyed backends report a missing key.
func Load() Store {
	store := make(Store)
	p, err := authFile()
	if err != nil {
		return store
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return store
	}
	if err := json.Unmarshal(data, &store); err != nil || store == nil {
		return make(Store)
	}
	return store
}

func (s Store) save() error {
	p, err := authFile()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0700); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(p), err)
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return fsutil.WriteFileAtomic(p, data, 0600)
}

// Get returns the credential stored for backendID, or nil.
func Get(backendID string) *Credential {
	return Load()[backendID]
}

// GetAPIKey returns the stored key for backendID, or "".
func GetAPIKey(backendID string) string {
	if c := Get(backendID); c != nil {
		return c.Key
	}
	return ""
}

// GetBaseURL returns the stored endpoint for backendID, or "".
func GetBaseURL(backendID string) string {
	if c := Get(backendID); c != nil {
		return c.BaseURL
	}
	return ""
}

// SetAPIKey stores key and baseURL for backendID, replacing any previous
// entry.
func SetAPIKey(backendID, key, baseURL string) error {
	if key == "" {
		return errors.New("empty API key")
	}
	store := Load()
	store[backendID] = &Credential{Key: key, BaseURL: baseURL}
	if err := store.save(); err != nil {
		return fmt.Errorf("writing credentials: %w", err)
	}
	return nil
}

// Remove deletes the entry of backendID and reports whether there was one.
func Remove(backendID string) (bool, error) {
	store := Load()
	if store[backendID] == nil {
		return false, nil
	}
	delete(store, backendID)
	return true, store.save()
}

// RemoveAll deletes the credential file.
func RemoveAll() error {
	p, err := authFile()
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// ResolveAPIKey returns the key to use for backendID: the flag value, then
// the configured one (YAMLTR_API_KEY or api_key in the config file), then
// the stored one.
func ResolveAPIKey(backendID, flagKey, configKey string) string {
	switch {
	case flagKey != "":
		return flagKey
	case configKey != "":
		return configKey
	}
	return GetAPIKey(backendID)
}

// MaskKey shortens key for display, keeping its first and last four
// characters.
func MaskKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
