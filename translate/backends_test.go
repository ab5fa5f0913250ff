package translate

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bregydoc/gtranslate"
)

// ---------------------------------------------------------------------------
// google (gtranslate)
// ---------------------------------------------------------------------------

func TestGoogleBackendPassesLanguages(t *testing.T) {
	g := newGoogleBackend("it", "en")
	g.call = func(text string, p gtranslate.TranslationParams) (string, error) {
		if p.From != "it" || p.To != "en" {
			t.Errorf("params = %+v", p)
		}
		return "Hello PLACEHOLDER0", nil
	}
	out, err := g.Translate(context.Background(), "Ciao PLACEHOLDER0")
	if err != nil || out != "Hello PLACEHOLDER0" {
		t.Errorf("Translate = %q, %v", out, err)
	}
}

func TestGoogleBackendAbandonsOnCancel(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	g := newGoogleBackend("it", "en")
	g.call = func(string, gtranslate.TranslationParams) (string, error) {
		<-release
		return "late", nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := g.Translate(ctx, "x"); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want deadline exceeded", err)
	}
}

// ---------------------------------------------------------------------------
// google-cloud
// ---------------------------------------------------------------------------

func TestGoogleCloudBackend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm: %v", err)
		}
		if r.Form.Get("key") != "secret" || r.Form.Get("source") != "it" || r.Form.Get("target") != "en" || r.Form.Get("format") != "text" {
			t.Errorf("form = %v", r.Form)
		}
		if r.Form.Get("q") != "Ciao PLACEHOLDER0" {
			t.Errorf("q = %q", r.Form.Get("q"))
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"data":{"translations":[{"translatedText":"Hello PLACEHOLDER0"}]}}`)
	}))
	defer srv.Close()

	b, err := NewBackend(Provider{ID: ProviderGoogleCloud, APIKey: "secret", BaseURL: srv.URL}, "it", "en")
	if err != nil {
		t.Fatal(err)
	}
	out, err := b.Translate(context.Background(), "Ciao PLACEHOLDER0")
	if err != nil || out != "Hello PLACEHOLDER0" {
		t.Errorf("Translate = %q, %v", out, err)
	}
}

func TestGoogleCloudBackendStatusClassification(t *testing.T) {
	cases := []struct {
		status int
		want   Kind
	}{
		{http.StatusTooManyRequests, KindRateLimited},
		{http.StatusInternalServerError, KindRateLimited},
		{http.StatusBadRequest, KindPermanent},
		{http.StatusForbidden, KindPermanent},
	}
	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error":{"message":"nope"}}`, tc.status)
		}))
		b, _ := NewBackend(Provider{ID: ProviderGoogleCloud, APIKey: "k", BaseURL: srv.URL}, "it", "en")
		_, err := b.Translate(context.Background(), "x")
		srv.Close()

		var e *Error
		if !errors.As(err, &e) || e.Kind != tc.want || e.StatusCode != tc.status {
			t.Errorf("status %d: err = %v, want %s", tc.status, err, tc.want)
		}
	}
}

// ---------------------------------------------------------------------------
// openai (go-openai)
// ---------------------------------------------------------------------------

func TestOpenAIBackend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			t.Errorf("auth header = %q", r.Header.Get("Authorization"))
		}
		body, _ := io.ReadAll(r.Body)
		if !strings.Contains(string(body), "Ciao PLACEHOLDER0") || !strings.Contains(string(body), "Italian") {
			t.Errorf("body = %s", body)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id":"1","object":"chat.completion","created":0,"model":"m",
			"choices":[{"index":0,"message":{"role":"assistant","content":"Hello PLACEHOLDER0\n"},"finish_reason":"stop"}]}`)
	}))
	defer srv.Close()

	b, err := NewBackend(Provider{ID: ProviderOpenAI, APIKey: "sk-test", BaseURL: srv.URL + "/v1/"}, "it", "en")
	if err != nil {
		t.Fatal(err)
	}
	out, err := b.Translate(context.Background(), "Ciao PLACEHOLDER0")
	if err != nil || out != "Hello PLACEHOLDER0" {
		t.Errorf("Translate = %q, %v", out, err)
	}
}

func TestOpenAIBackendRateLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		io.WriteString(w, `{"error":{"message":"Rate limit reached","type":"requests","code":"rate_limit_exceeded"}}`)
	}))
	defer srv.Close()

	b, _ := NewBackend(Provider{ID: ProviderOpenAI, APIKey: "k", BaseURL: srv.URL}, "it", "en")
	_, err := b.Translate(context.Background(), "x")
	if !IsRateLimited(err) {
		t.Fatalf("err = %v, want rate limited", err)
	}
}

func TestCleanLLMOutput(t *testing.T) {
	cases := map[string]string{
		"  Hello  ":                 "Hello",
		"```\nHello\n```":           "Hello",
		"```text\nHello\nWorld\n```": "Hello\nWorld",
	}
	for in, want := range cases {
		if got := cleanLLMOutput(in); got != want {
			t.Errorf("cleanLLMOutput(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestBuildSystemPrompt(t *testing.T) {
	p := buildSystemPrompt("auto", "de")
	if !strings.Contains(p, "German") || !strings.Contains(p, "detected source language") {
		t.Errorf("prompt = %s", p)
	}
}
