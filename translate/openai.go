package translate

import (
	"context"
	"errors"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/ccrisc/yaml-traslator/langmeta"
)

// ---------------------------------------------------------------------------
// OpenAI-compatible chat backend
// ---------------------------------------------------------------------------

const systemPromptTemplate = `You are a professional software localization translator.
Translate the user's message from {{source}} to {{target}}.
Reply with the translation only, without quotes, notes or explanations.
Tokens of the form PLACEHOLDER followed by a number are variables: copy them exactly, never translate, split or renumber them.
Keep line breaks, punctuation and surrounding whitespace as in the source.`

type openAIBackend struct {
	client *openai.Client
	model  string
	prompt string
}

func newOpenAIBackend(prov Provider, source, target string) *openAIBackend {
	cfg := openai.DefaultConfig(prov.APIKey)
	cfg.HTTPClient = makeHTTPClient(prov.Proxy, prov.Timeout)
	if prov.BaseURL != "" {
		cfg.BaseURL = strings.TrimSuffix(prov.BaseURL, "/")
	}

	return &openAIBackend{
		client: openai.NewClientWithConfig(cfg),
		model:  prov.Model,
		prompt: buildSystemPrompt(source, target),
	}
}

func buildSystemPrompt(source, target string) string {
	src := "the detected source language"
	if source != "" && source != "auto" {
		src = langmeta.Resolve(source).English
	}
	r := strings.NewReplacer(
		"{{source}}", src,
		"{{target}}", langmeta.Resolve(target).English,
	)
	return r.Replace(systemPromptTemplate)
}

func (o *openAIBackend) Name() string { return ProviderOpenAI }

func (o *openAIBackend) Translate(ctx context.Context, text string) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: o.prompt},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
		Temperature: 0.2,
	})
	if err != nil {
		return "", classifyOpenAIError(err)
	}
	if len(resp.Choices) == 0 {
		return "", &Error{Kind: KindPermanent, Backend: o.Name(), Err: errEmptyTranslation}
	}
	return cleanLLMOutput(resp.Choices[0].Message.Content), nil
}

// classifyOpenAIError maps go-openai errors by HTTP status. Errors without
// a status (dial failures, timeouts) are left for classify.
func classifyOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode != 0 {
		return &Error{
			Kind:       kindForStatus(apiErr.HTTPStatusCode),
			Backend:    ProviderOpenAI,
			StatusCode: apiErr.HTTPStatusCode,
			Err:        err,
		}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		return &Error{
			Kind:       kindForStatus(reqErr.HTTPStatusCode),
			Backend:    ProviderOpenAI,
			StatusCode: reqErr.HTTPStatusCode,
			Err:        err,
		}
	}
	return err
}

// cleanLLMOutput strips the code fences chat models sometimes add around
// an answer.
func cleanLLMOutput(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		if i := strings.IndexByte(s, '\n'); i >= 0 {
			s = s[i+1:]
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
		s = strings.TrimSpace(s)
	}
	return s
}
