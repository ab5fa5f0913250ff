package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/bregydoc/gtranslate"
)

// ---------------------------------------------------------------------------
// Google Translate (free endpoint)
// ---------------------------------------------------------------------------

// googleBackend uses the public translate.googleapis.com endpoint through
// gtranslate. It needs no key and throttles aggressively, which is what
// the rate-limit halt exists for.
type googleBackend struct {
	source string
	target string
	call   func(text string, params gtranslate.TranslationParams) (string, error)
}

func newGoogleBackend(source, target string) *googleBackend {
	return &googleBackend{
		source: source,
		target: target,
		call:   gtranslate.TranslateWithParams,
	}
}

func (g *googleBackend) Name() string { return ProviderGoogle }

// Translate runs the blocking gtranslate call in a goroutine so the caller
// can abandon it when ctx is cancelled.
func (g *googleBackend) Translate(ctx context.Context, text string) (string, error) {
	type result struct {
		text string
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		out, err := g.call(text, gtranslate.TranslationParams{
			From: g.source,
			To:   g.target,
		})
		ch <- result{out, err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-ch:
		return r.text, r.err
	}
}

// ---------------------------------------------------------------------------
// Google Cloud Translation v2
// ---------------------------------------------------------------------------

type googleCloudBackend struct {
	prov   Provider
	source string
	target string
	client *http.Client
}

func newGoogleCloudBackend(prov Provider, source, target string) *googleCloudBackend {
	return &googleCloudBackend{
		prov:   prov,
		source: source,
		target: target,
		client: makeHTTPClient(prov.Proxy, prov.Timeout),
	}
}

func (g *googleCloudBackend) Name() string { return ProviderGoogleCloud }

func (g *googleCloudBackend) Translate(ctx context.Context, text string) (string, error) {
	form := url.Values{}
	form.Set("key", g.prov.APIKey)
	form.Set("q", text)
	form.Set("target", g.target)
	form.Set("format", "text")
	if g.source != "" {
		form.Set("source", g.source)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.prov.BaseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", &Error{Kind: KindPermanent, Backend: g.Name(), Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", statusError(g.Name(), resp.StatusCode, string(body))
	}

	var payload struct {
		Data struct {
			Translations []struct {
				TranslatedText string `json:"translatedText"`
			} `json:"translations"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", &Error{Kind: KindPermanent, Backend: g.Name(), Err: fmt.Errorf("parsing response: %w", err)}
	}
	if len(payload.Data.Translations) == 0 {
		return "", &Error{Kind: KindPermanent, Backend: g.Name(), Err: errEmptyTranslation}
	}
	return payload.Data.Translations[0].TranslatedText, nil
}
