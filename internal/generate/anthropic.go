package generate

import (
	"context"
	"errors"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
)

// Claude calls the Anthropic Messages API.
type Claude struct {
	client sdk.Client
	model  string
}

var _ Generator = (*Claude)(nil)

// NewClaude builds a Claude generator. SDK-level retries are disabled;
// wrap the result in Retrying instead.
func NewClaude(apiKey, model string, opts ...option.RequestOption) *Claude {
	base := []option.RequestOption{option.WithAPIKey(apiKey), option.WithMaxRetries(0)}
	return &Claude{
		client: sdk.NewClient(append(base, opts...)...),
		model:  model,
	}
}

func (c *Claude) Model() string { return c.model }

func (c *Claude) Generate(ctx context.Context, prompt string, o Options) (string, error) {
	params := sdk.MessageNewParams{
		Model:     sdk.Model(c.model),
		MaxTokens: int64(o.MaxOutputTokens),
		Messages:  []sdk.MessageParam{sdk.NewUserMessage(sdk.NewTextBlock(prompt))},
	}
	if params.MaxTokens <= 0 {
		params.MaxTokens = int64(DefaultOptions().MaxOutputTokens)
	}
	// Current models reject temperature and top_p in the same request.
	if o.Temperature != nil {
		params.Temperature = sdk.Float(*o.Temperature)
	} else if o.TopP > 0 {
		params.TopP = sdk.Float(o.TopP)
	}
	if o.TopK > 0 {
		params.TopK = sdk.Int(int64(o.TopK))
	}

	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		var apiErr *sdk.Error
		if errors.As(err, &apiErr) && retryableStatus(apiErr.StatusCode) {
			return "", &RetryableError{Provider: "anthropic", StatusCode: apiErr.StatusCode, Message: err.Error()}
		}
		return "", eris.Wrap(err, "generate: anthropic")
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", eris.New("generate: empty response from anthropic")
	}
	return sb.String(), nil
}
