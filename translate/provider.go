// Package translate drives the translation of a flattened localization tree
// through a pluggable backend.
//
// A run masks placeholders in every pending string, sends it to the backend
// through a paced, retrying Client, restores the placeholders in the answer
// and records the key in the progress file before taking the next job.
// A rate-limit answer from the backend halts the whole run; everything
// completed so far stays recorded and can be resumed later.
package translate

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"time"
)

// ---------------------------------------------------------------------------
// Provider configuration
// ---------------------------------------------------------------------------

// Provider identifiers.
const (
	ProviderGoogle      = "google"
	ProviderGoogleCloud = "google-cloud"
	ProviderOpenAI      = "openai"
	ProviderEcho        = "echo"
)

// Provider holds the configuration for a translation backend.
type Provider struct {
	// ID is the provider identifier (google, google-cloud, openai, echo).
	ID string
	// Name is the display name.
	Name string
	// BaseURL is the API base URL. Empty means the provider default.
	BaseURL string
	// APIKey is the authentication key (empty for keyless backends).
	APIKey string
	// Model is the model identifier for LLM backends.
	Model string
	// Proxy is an optional HTTP/HTTPS proxy URL.
	Proxy string
	// Timeout is the request timeout.
	Timeout time.Duration
}

// DefaultProviders returns the pre-configured provider definitions.
func DefaultProviders() map[string]Provider {
	return map[string]Provider{
		ProviderGoogle: {
			ID:      ProviderGoogle,
			Name:    "Google Translate (free endpoint)",
			Timeout: 30 * time.Second,
		},
		ProviderGoogleCloud: {
			ID:      ProviderGoogleCloud,
			Name:    "Google Cloud Translation",
			BaseURL: "https://translation.googleapis.com/language/translate/v2",
			Timeout: 30 * time.Second,
		},
		ProviderOpenAI: {
			ID:      ProviderOpenAI,
			Name:    "OpenAI-compatible chat API",
			BaseURL: "https://api.openai.com/v1",
			Model:   "gpt-4o-mini",
			Timeout: 60 * time.Second,
		},
		ProviderEcho: {
			ID:   ProviderEcho,
			Name: "Echo (no translation)",
		},
	}
}

// ProviderIDs returns the known provider identifiers, sorted.
func ProviderIDs() []string {
	ids := make([]string, 0, 4)
	for id := range DefaultProviders() {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// NeedsAPIKey reports whether the provider requires an API key.
func NeedsAPIKey(id string) bool {
	switch id {
	case ProviderGoogleCloud, ProviderOpenAI:
		return true
	default:
		return false
	}
}

// ---------------------------------------------------------------------------
// Backend
// ---------------------------------------------------------------------------

// Backend translates a single piece of text. Implementations return raw
// errors; the Client classifies them.
type Backend interface {
	Name() string
	Translate(ctx context.Context, text string) (string, error)
}

// NewBackend builds the backend for prov, translating from source to
// target. Empty provider fields are filled from DefaultProviders.
func NewBackend(prov Provider, source, target string) (Backend, error) {
	def, ok := DefaultProviders()[prov.ID]
	if !ok {
		return nil, fmt.Errorf("unknown provider %q (available: %v)", prov.ID, ProviderIDs())
	}
	if prov.Name == "" {
		prov.Name = def.Name
	}
	if prov.BaseURL == "" {
		prov.BaseURL = def.BaseURL
	}
	if prov.Model == "" {
		prov.Model = def.Model
	}
	if prov.Timeout <= 0 {
		prov.Timeout = def.Timeout
	}
	if NeedsAPIKey(prov.ID) && prov.APIKey == "" {
		return nil, fmt.Errorf("provider %s requires an API key", prov.ID)
	}

	switch prov.ID {
	case ProviderGoogle:
		return newGoogleBackend(source, target), nil
	case ProviderGoogleCloud:
		return newGoogleCloudBackend(prov, source, target), nil
	case ProviderOpenAI:
		return newOpenAIBackend(prov, source, target), nil
	default:
		return EchoBackend{}, nil
	}
}

// EchoBackend returns every text unchanged. It is used for dry runs and
// for checking placeholder handling without a network.
type EchoBackend struct{}

func (EchoBackend) Name() string { return ProviderEcho }

func (EchoBackend) Translate(ctx context.Context, text string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return text, nil
}

func makeHTTPClient(proxyURL string, timeout time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()

	// Support both the proxy setting and HTTP_PROXY/HTTPS_PROXY env vars
	if proxyURL != "" {
		parsed, err := url.Parse(proxyURL)
		if err == nil {
			transport.Proxy = http.ProxyURL(parsed)
		}
	} else {
		transport.Proxy = http.ProxyFromEnvironment
	}

	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}
