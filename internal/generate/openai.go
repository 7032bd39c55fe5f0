package generate

import (
	"context"
	"errors"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/rotisserie/eris"
)

// OpenAI calls the chat completions endpoint, or any compatible endpoint
// when a base URL option is given. The API has no top-k parameter.
type OpenAI struct {
	client openai.Client
	model  string
}

var _ Generator = (*OpenAI)(nil)

func NewOpenAI(apiKey, baseURL, model string, opts ...option.RequestOption) *OpenAI {
	base := []option.RequestOption{option.WithAPIKey(apiKey), option.WithMaxRetries(0)}
	if baseURL != "" {
		base = append(base, option.WithBaseURL(baseURL))
	}
	return &OpenAI{client: openai.NewClient(append(base, opts...)...), model: model}
}

func (g *OpenAI) Model() string { return g.model }

func (g *OpenAI) Generate(ctx context.Context, prompt string, o Options) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(g.model),
		Messages: []openai.ChatCompletionMessageParamUnion{openai.UserMessage(prompt)},
	}
	if o.Temperature != nil {
		params.Temperature = openai.Float(*o.Temperature)
	}
	if o.TopP > 0 {
		params.TopP = openai.Float(o.TopP)
	}
	if o.MaxOutputTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(o.MaxOutputTokens))
	}

	resp, err := g.client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) && retryableStatus(apiErr.StatusCode) {
			return "", &RetryableError{Provider: "openai", StatusCode: apiErr.StatusCode, Message: err.Error()}
		}
		return "", eris.Wrap(err, "generate: openai")
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", eris.New("generate: empty response from openai")
	}
	return resp.Choices[0].Message.Content, nil
}
