package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/dgallion1/docqa/internal/answer"
	"github.com/dgallion1/docqa/internal/config"
	"github.com/dgallion1/docqa/internal/embed"
	"github.com/dgallion1/docqa/internal/generate"
	"github.com/dgallion1/docqa/internal/pipeline"
	"github.com/dgallion1/docqa/internal/scorer"
	"github.com/dgallion1/docqa/internal/selector"
)

// appEnv holds the process-wide pieces every command shares.
type appEnv struct {
	Pipeline *pipeline.Pipeline
	Stats    *generate.LLMStats
	Model    string

	closers []func() error
}

// Close releases connections opened by initPipeline.
func (e *appEnv) Close() {
	for _, c := range e.closers {
		if err := c(); err != nil {
			zap.L().Warn("close failed", zap.Error(err))
		}
	}
}

func initPipeline(ctx context.Context, c *config.Config) (*appEnv, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	log := zap.L()
	env := &appEnv{Stats: generate.NewLLMStats(time.Duration(c.Generator.StatsWindowMins) * time.Minute)}

	base, err := newGenerator(ctx, c)
	if err != nil {
		return nil, err
	}
	env.Model = base.Model()

	var gen generate.Generator = generate.WithRetry(base, c.Generator.MaxRetries, log)
	gen = generate.WithRateLimit(gen, c.Generator.RequestsPerMinute, c.Generator.Burst)
	gen = generate.WithStats(gen, env.Stats, log)

	fallback, err := keywordStrategy(c.Retrieval)
	if err != nil {
		return nil, err
	}
	strategy, closer, err := newStrategy(ctx, c, fallback, log)
	if err != nil {
		return nil, err
	}
	if closer != nil {
		env.closers = append(env.closers, closer)
	}

	env.Pipeline = pipeline.New(pipelineConfig(c), gen, strategy, fallback, log)
	log.Info("pipeline ready",
		zap.String("provider", c.Generator.Provider),
		zap.String("model", env.Model),
		zap.String("scorer", strategy.Name()),
	)
	return env, nil
}

func pipelineConfig(c *config.Config) pipeline.Config {
	return pipeline.Config{
		Selector: selector.Selector{
			MaxBytes:      c.Retrieval.MaxContextBytes,
			MaxCount:      c.Retrieval.MaxSections,
			FallbackBytes: c.Retrieval.FallbackBytes,
		},
		MaxSectionBytes:    c.Retrieval.MaxSectionBytes,
		SmallDocumentBytes: c.Retrieval.SmallDocumentBytes,
		GenerationTimeout:  c.Generator.Timeout(),
		Options: generate.Options{
			Temperature:     generate.Float(c.Generator.Temperature),
			MaxOutputTokens: c.Generator.MaxOutputTokens,
			TopP:            c.Generator.TopP,
			TopK:            c.Generator.TopK,
		},
		Validator: answer.Validator{
			MinLength:    c.Answer.MinLength,
			MaxSentences: c.Answer.MaxSentences,
		},
	}
}

func newGenerator(ctx context.Context, c *config.Config) (generate.Generator, error) {
	switch c.Generator.Provider {
	case "anthropic":
		return generate.NewClaude(c.Anthropic.APIKey, c.Anthropic.Model), nil
	case "gemini":
		return generate.NewGemini(ctx, c.Gemini.APIKey, c.Gemini.BaseURL, c.Gemini.Model)
	case "openai":
		return generate.NewOpenAI(c.OpenAI.APIKey, c.OpenAI.BaseURL, c.OpenAI.Model), nil
	case "ollama":
		return generate.NewOllama(c.Ollama.Host, c.Ollama.Model)
	default:
		return nil, eris.Errorf("unknown generator provider %q", c.Generator.Provider)
	}
}

func keywordStrategy(r config.RetrievalConfig) (*scorer.KeywordStrategy, error) {
	if r.DictionaryPath == "" {
		return scorer.DefaultKeywordStrategy(), nil
	}
	d, err := scorer.LoadDictionary(r.DictionaryPath)
	if err != nil {
		return nil, err
	}
	return scorer.NewKeywordStrategy(d)
}

// newStrategy returns the configured scoring strategy and, for a Qdrant
// index, the function that closes its connection.
func newStrategy(ctx context.Context, c *config.Config, keyword *scorer.KeywordStrategy, log *zap.Logger) (scorer.Strategy, func() error, error) {
	if c.Retrieval.Scorer != "embedding" {
		return keyword, nil, nil
	}

	e := c.Retrieval.Embedding
	embedder, err := newEmbedder(ctx, c)
	if err != nil {
		return nil, nil, err
	}
	batched := embed.Batched{Embedder: embedder, Size: e.BatchSize, Concurrency: e.Concurrency}

	var factory embed.IndexFactory = embed.MemoryFactory{}
	var closer func() error
	if c.Retrieval.Index.Kind == "qdrant" {
		qf, err := embed.NewQdrantFactory(c.Retrieval.Index.QdrantAddr, c.Retrieval.Index.CollectionPrefix, log)
		if err != nil {
			return nil, nil, err
		}
		factory, closer = qf, qf.Close
	}
	return scorer.NewEmbeddingStrategy(batched, factory, e.TopK, log), closer, nil
}

func newEmbedder(ctx context.Context, c *config.Config) (embed.Embedder, error) {
	switch c.Retrieval.Embedding.Provider {
	case "ollama":
		return embed.NewOllamaEmbedder(c.Ollama.Host, c.Ollama.EmbeddingModel)
	case "openai":
		return embed.NewOpenAIEmbedder(c.OpenAI.APIKey, c.OpenAI.BaseURL, c.OpenAI.EmbeddingModel), nil
	case "gemini":
		return embed.NewGeminiEmbedder(ctx, c.Gemini.APIKey, c.Gemini.BaseURL, c.Gemini.EmbeddingModel)
	default:
		return nil, eris.Errorf("unknown embedding provider %q", c.Retrieval.Embedding.Provider)
	}
}
