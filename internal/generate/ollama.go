package generate

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"
	"github.com/rotisserie/eris"
)

// Ollama calls a local Ollama server's /api/generate endpoint.
type Ollama struct {
	client *api.Client
	model  string
}

var _ Generator = (*Ollama)(nil)

func NewOllama(host, model string) (*Ollama, error) {
	u, err := url.Parse(host)
	if err != nil {
		return nil, eris.Wrapf(err, "generate: parse ollama host %q", host)
	}
	return &Ollama{client: api.NewClient(u, http.DefaultClient), model: model}, nil
}

func (g *Ollama) Model() string { return g.model }

func (g *Ollama) Generate(ctx context.Context, prompt string, o Options) (string, error) {
	stream := false
	opts := map[string]any{}
	if o.Temperature != nil {
		opts["temperature"] = *o.Temperature
	}
	if o.TopP > 0 {
		opts["top_p"] = o.TopP
	}
	if o.TopK > 0 {
		opts["top_k"] = o.TopK
	}
	if o.MaxOutputTokens > 0 {
		opts["num_predict"] = o.MaxOutputTokens
	}

	var sb strings.Builder
	err := g.client.Generate(ctx, &api.GenerateRequest{
		Model:   g.model,
		Prompt:  prompt,
		Stream:  &stream,
		Options: opts,
	}, func(r api.GenerateResponse) error {
		sb.WriteString(r.Response)
		return nil
	})
	if err != nil {
		var statusErr api.StatusError
		if errors.As(err, &statusErr) && retryableStatus(statusErr.StatusCode) {
			return "", &RetryableError{Provider: "ollama", StatusCode: statusErr.StatusCode, Message: err.Error()}
		}
		return "", eris.Wrap(err, "generate: ollama")
	}
	if sb.Len() == 0 {
		return "", eris.New("generate: empty response from ollama")
	}
	return sb.String(), nil
}
