package generate

import (
	"context"
	"errors"
	"strings"

	"github.com/rotisserie/eris"
	"google.golang.org/genai"
)

// Gemini calls the Gemini generateContent endpoint. baseURL overrides the
// public endpoint, for proxies and tests.
type Gemini struct {
	client *genai.Client
	model  string
}

var _ Generator = (*Gemini)(nil)

func NewGemini(ctx context.Context, apiKey, baseURL, model string) (*Gemini, error) {
	if apiKey == "" {
		return nil, eris.New("generate: gemini api key is required")
	}
	cfg := &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI}
	cfg.HTTPOptions.BaseURL = baseURL
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, eris.Wrap(err, "generate: create gemini client")
	}
	return &Gemini{client: client, model: strings.TrimPrefix(model, "models/")}, nil
}

func (g *Gemini) Model() string { return g.model }

func (g *Gemini) Generate(ctx context.Context, prompt string, o Options) (string, error) {
	cfg := &genai.GenerateContentConfig{}
	if o.Temperature != nil {
		cfg.Temperature = genai.Ptr(float32(*o.Temperature))
	}
	if o.TopP > 0 {
		cfg.TopP = genai.Ptr(float32(o.TopP))
	}
	if o.TopK > 0 {
		cfg.TopK = genai.Ptr(float32(o.TopK))
	}
	if o.MaxOutputTokens > 0 {
		cfg.MaxOutputTokens = int32(o.MaxOutputTokens)
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), cfg)
	if err != nil {
		if code := geminiStatus(err); retryableStatus(code) {
			return "", &RetryableError{Provider: "gemini", StatusCode: code, Message: err.Error()}
		}
		return "", eris.Wrap(err, "generate: gemini")
	}
	text := resp.Text()
	if text == "" {
		return "", eris.New("generate: empty response from gemini")
	}
	return text, nil
}

func geminiStatus(err error) int {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return apiErrPtr.Code
	}
	return 0
}
