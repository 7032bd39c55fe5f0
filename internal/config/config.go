package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
	Generator GeneratorConfig `yaml:"generator" mapstructure:"generator"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Gemini    GeminiConfig    `yaml:"gemini" mapstructure:"gemini"`
	OpenAI    OpenAIConfig    `yaml:"openai" mapstructure:"openai"`
	Ollama    OllamaConfig    `yaml:"ollama" mapstructure:"ollama"`
	Retrieval RetrievalConfig `yaml:"retrieval" mapstructure:"retrieval"`
	Answer    AnswerConfig    `yaml:"answer" mapstructure:"answer"`
	Batch     BatchConfig     `yaml:"batch" mapstructure:"batch"`
}

// ServerConfig configures the HTTP boundary.
type ServerConfig struct {
	Port               int   `yaml:"port" mapstructure:"port"`
	MaxUploadBytes     int64 `yaml:"max_upload_bytes" mapstructure:"max_upload_bytes"`
	RequestTimeoutSecs int   `yaml:"request_timeout_secs" mapstructure:"request_timeout_secs"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// GeneratorConfig selects the generation provider and its call policy.
type GeneratorConfig struct {
	Provider          string  `yaml:"provider" mapstructure:"provider"`
	Temperature       float64 `yaml:"temperature" mapstructure:"temperature"`
	MaxOutputTokens   int     `yaml:"max_output_tokens" mapstructure:"max_output_tokens"`
	TopP              float64 `yaml:"top_p" mapstructure:"top_p"`
	TopK              int     `yaml:"top_k" mapstructure:"top_k"`
	TimeoutSecs       int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries        int     `yaml:"max_retries" mapstructure:"max_retries"`
	RequestsPerMinute float64 `yaml:"requests_per_minute" mapstructure:"requests_per_minute"`
	Burst             int     `yaml:"burst" mapstructure:"burst"`
	StatsWindowMins   int     `yaml:"stats_window_mins" mapstructure:"stats_window_mins"`
}

// Timeout is the per-request generation deadline.
func (g GeneratorConfig) Timeout() time.Duration {
	return time.Duration(g.TimeoutSecs) * time.Second
}

// AnthropicConfig configures the Anthropic Messages API.
type AnthropicConfig struct {
	APIKey string `yaml:"api_key" mapstructure:"api_key"`
	Model  string `yaml:"model" mapstructure:"model"`
}

// GeminiConfig configures the Gemini API.
type GeminiConfig struct {
	APIKey         string `yaml:"api_key" mapstructure:"api_key"`
	BaseURL        string `yaml:"base_url" mapstructure:"base_url"`
	Model          string `yaml:"model" mapstructure:"model"`
	EmbeddingModel string `yaml:"embedding_model" mapstructure:"embedding_model"`
}

// OpenAIConfig configures OpenAI or a compatible endpoint.
type OpenAIConfig struct {
	APIKey         string `yaml:"api_key" mapstructure:"api_key"`
	BaseURL        string `yaml:"base_url" mapstructure:"base_url"`
	Model          string `yaml:"model" mapstructure:"model"`
	EmbeddingModel string `yaml:"embedding_model" mapstructure:"embedding_model"`
}

// OllamaConfig configures a local Ollama server.
type OllamaConfig struct {
	Host           string `yaml:"host" mapstructure:"host"`
	Model          string `yaml:"model" mapstructure:"model"`
	EmbeddingModel string `yaml:"embedding_model" mapstructure:"embedding_model"`
}

// RetrievalConfig configures scoring and context selection.
type RetrievalConfig struct {
	Scorer             string          `yaml:"scorer" mapstructure:"scorer"`
	DictionaryPath     string          `yaml:"dictionary_path" mapstructure:"dictionary_path"`
	MaxContextBytes    int             `yaml:"max_context_bytes" mapstructure:"max_context_bytes"`
	MaxSections        int             `yaml:"max_sections" mapstructure:"max_sections"`
	FallbackBytes      int             `yaml:"fallback_bytes" mapstructure:"fallback_bytes"`
	SmallDocumentBytes int             `yaml:"small_document_bytes" mapstructure:"small_document_bytes"`
	MaxSectionBytes    int             `yaml:"max_section_bytes" mapstructure:"max_section_bytes"`
	Embedding          EmbeddingConfig `yaml:"embedding" mapstructure:"embedding"`
	Index              IndexConfig     `yaml:"index" mapstructure:"index"`
}

// EmbeddingConfig configures the embedding scorer.
type EmbeddingConfig struct {
	Provider    string `yaml:"provider" mapstructure:"provider"`
	TopK        int    `yaml:"top_k" mapstructure:"top_k"`
	BatchSize   int    `yaml:"batch_size" mapstructure:"batch_size"`
	Concurrency int    `yaml:"concurrency" mapstructure:"concurrency"`
}

// IndexConfig selects the nearest-neighbour index used by the embedding
// scorer.
type IndexConfig struct {
	Kind             string `yaml:"kind" mapstructure:"kind"`
	QdrantAddr       string `yaml:"qdrant_addr" mapstructure:"qdrant_addr"`
	CollectionPrefix string `yaml:"collection_prefix" mapstructure:"collection_prefix"`
}

// AnswerConfig configures answer validation.
type AnswerConfig struct {
	MinLength    int `yaml:"min_length" mapstructure:"min_length"`
	MaxSentences int `yaml:"max_sentences" mapstructure:"max_sentences"`
}

// BatchConfig configures the batch command.
type BatchConfig struct {
	Concurrency int `yaml:"concurrency" mapstructure:"concurrency"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("DOCQA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Provider credentials also honour the variables each SDK documents.
	for key, envs := range map[string][]string{
		"anthropic.api_key": {"DOCQA_ANTHROPIC_API_KEY", "ANTHROPIC_API_KEY"},
		"gemini.api_key":    {"DOCQA_GEMINI_API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY"},
		"openai.api_key":    {"DOCQA_OPENAI_API_KEY", "OPENAI_API_KEY"},
		"ollama.host":       {"DOCQA_OLLAMA_HOST", "OLLAMA_HOST"},
	} {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, eris.Wrapf(err, "config: bind %s", key)
		}
	}

	// Defaults
	v.SetDefault("server.port", 8090)
	v.SetDefault("server.max_upload_bytes", 52428800) // 50MB
	v.SetDefault("server.request_timeout_secs", 120)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("generator.provider", "gemini")
	v.SetDefault("generator.temperature", 0.05)
	v.SetDefault("generator.max_output_tokens", 1200)
	v.SetDefault("generator.top_p", 0.92)
	v.SetDefault("generator.top_k", 35)
	v.SetDefault("generator.timeout_secs", 90)
	v.SetDefault("generator.max_retries", 3)
	v.SetDefault("generator.requests_per_minute", 0)
	v.SetDefault("generator.burst", 1)
	v.SetDefault("generator.stats_window_mins", 60)
	v.SetDefault("anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("gemini.base_url", "")
	v.SetDefault("gemini.model", "gemini-2.5-flash")
	v.SetDefault("gemini.embedding_model", "text-embedding-004")
	v.SetDefault("openai.base_url", "")
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("openai.embedding_model", "text-embedding-3-small")
	v.SetDefault("ollama.host", "http://localhost:11434")
	v.SetDefault("ollama.model", "llama3.1")
	v.SetDefault("ollama.embedding_model", "nomic-embed-text")
	v.SetDefault("retrieval.scorer", "keyword")
	v.SetDefault("retrieval.max_context_bytes", 28000)
	v.SetDefault("retrieval.max_sections", 25)
	v.SetDefault("retrieval.fallback_bytes", 28000)
	v.SetDefault("retrieval.small_document_bytes", 28000)
	v.SetDefault("retrieval.max_section_bytes", 6000)
	v.SetDefault("retrieval.embedding.provider", "ollama")
	v.SetDefault("retrieval.embedding.top_k", 8)
	v.SetDefault("retrieval.embedding.batch_size", 64)
	v.SetDefault("retrieval.embedding.concurrency", 4)
	v.SetDefault("retrieval.index.kind", "memory")
	v.SetDefault("retrieval.index.qdrant_addr", "localhost:6334")
	v.SetDefault("retrieval.index.collection_prefix", "docqa_")
	v.SetDefault("answer.min_length", 3)
	v.SetDefault("answer.max_sentences", 4)
	v.SetDefault("batch.concurrency", 4)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks provider names, credentials and limits.
func (c Config) Validate() error {
	switch c.Generator.Provider {
	case "anthropic":
		if c.Anthropic.APIKey == "" {
			return eris.New("config: anthropic.api_key (ANTHROPIC_API_KEY) is required")
		}
	case "gemini":
		if c.Gemini.APIKey == "" {
			return eris.New("config: gemini.api_key (GEMINI_API_KEY) is required")
		}
	case "openai":
		if c.OpenAI.APIKey == "" && c.OpenAI.BaseURL == "" {
			return eris.New("config: openai.api_key (OPENAI_API_KEY) is required")
		}
	case "ollama":
		if c.Ollama.Host == "" {
			return eris.New("config: ollama.host is required")
		}
	default:
		return eris.Errorf("config: unknown generator.provider %q", c.Generator.Provider)
	}

	switch c.Retrieval.Scorer {
	case "keyword":
	case "embedding":
		if err := c.validateEmbedding(); err != nil {
			return err
		}
	default:
		return eris.Errorf("config: unknown retrieval.scorer %q", c.Retrieval.Scorer)
	}

	for name, n := range map[string]int{
		"retrieval.max_context_bytes": c.Retrieval.MaxContextBytes,
		"retrieval.max_sections":      c.Retrieval.MaxSections,
		"generator.timeout_secs":      c.Generator.TimeoutSecs,
		"generator.max_output_tokens": c.Generator.MaxOutputTokens,
		"batch.concurrency":           c.Batch.Concurrency,
	} {
		if n <= 0 {
			return eris.Errorf("config: %s must be positive, got %d", name, n)
		}
	}
	if c.Generator.MaxRetries < 0 {
		return eris.Errorf("config: generator.max_retries must not be negative, got %d", c.Generator.MaxRetries)
	}
	if c.Generator.Temperature < 0 {
		return eris.Errorf("config: generator.temperature must not be negative, got %g", c.Generator.Temperature)
	}
	// A bypassed document is sent whole, so it has to fit the context budget.
	if c.Retrieval.SmallDocumentBytes > c.Retrieval.MaxContextBytes {
		return eris.Errorf("config: retrieval.small_document_bytes (%d) must not exceed retrieval.max_context_bytes (%d)",
			c.Retrieval.SmallDocumentBytes, c.Retrieval.MaxContextBytes)
	}
	return nil
}

func (c Config) validateEmbedding() error {
	e := c.Retrieval.Embedding
	switch e.Provider {
	case "ollama":
	case "openai":
		if c.OpenAI.APIKey == "" && c.OpenAI.BaseURL == "" {
			return eris.New("config: openai.api_key is required for openai embeddings")
		}
	case "gemini":
		if c.Gemini.APIKey == "" {
			return eris.New("config: gemini.api_key is required for gemini embeddings")
		}
	default:
		return eris.Errorf("config: unknown retrieval.embedding.provider %q", e.Provider)
	}
	if e.TopK <= 0 {
		return eris.Errorf("config: retrieval.embedding.top_k must be positive, got %d", e.TopK)
	}
	switch c.Retrieval.Index.Kind {
	case "memory":
	case "qdrant":
		if c.Retrieval.Index.QdrantAddr == "" {
			return eris.New("config: retrieval.index.qdrant_addr is required")
		}
	default:
		return eris.Errorf("config: unknown retrieval.index.kind %q", c.Retrieval.Index.Kind)
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
