// Package pipeline answers a question set against one document.
//
// A request normalizes the text, splits it into sections, scores them
// against the preprocessed questions, packs the best into a bounded
// context, asks the generator once and recovers one validated answer per
// question from the reply. Every request yields exactly len(questions)
// answers; failures become fixed answer texts rather than errors.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/dgallion1/docqa/internal/answer"
	"github.com/dgallion1/docqa/internal/doctree"
	"github.com/dgallion1/docqa/internal/generate"
	"github.com/dgallion1/docqa/internal/normalize"
	"github.com/dgallion1/docqa/internal/prompt"
	"github.com/dgallion1/docqa/internal/query"
	"github.com/dgallion1/docqa/internal/response"
	"github.com/dgallion1/docqa/internal/scorer"
	"github.com/dgallion1/docqa/internal/segment"
	"github.com/dgallion1/docqa/internal/selector"
)

// Config holds the per-request limits.
type Config struct {
	Selector selector.Selector

	// MaxSectionBytes splits larger sections before scoring. Zero disables.
	MaxSectionBytes int

	// SmallDocumentBytes: documents at or below this size skip scoring and
	// selection and are sent whole.
	SmallDocumentBytes int

	GenerationTimeout time.Duration
	Options           generate.Options
	Validator         answer.Validator
}

// DefaultConfig returns the production limits.
func DefaultConfig() Config {
	return Config{
		Selector:           selector.DefaultSelector(),
		MaxSectionBytes:    6000,
		SmallDocumentBytes: 28000,
		GenerationTimeout:  90 * time.Second,
		Options:            generate.DefaultOptions(),
		Validator:          answer.DefaultValidator(),
	}
}

// Pipeline is safe for concurrent use; it holds no per-request state.
type Pipeline struct {
	cfg          Config
	normalizer   normalize.Normalizer
	segmenter    segment.Segmenter
	preprocessor *query.Preprocessor
	strategy     scorer.Strategy
	fallback     scorer.Strategy
	generator    generate.Generator
	log          *zap.Logger
}

// New builds a Pipeline. A nil strategy means keyword scoring; a nil
// fallback means keyword scoring with the built-in dictionary. The fallback
// is used when strategy fails to bind for a request.
func New(cfg Config, gen generate.Generator, strategy, fallback scorer.Strategy, log *zap.Logger) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	if fallback == nil {
		fallback = scorer.DefaultKeywordStrategy()
	}
	if strategy == nil {
		strategy = fallback
	}
	return &Pipeline{
		cfg:          cfg,
		normalizer:   normalize.Default,
		segmenter:    segment.Segmenter{MaxSectionBytes: cfg.MaxSectionBytes},
		preprocessor: query.NewPreprocessor(query.DefaultAbbreviations, query.DefaultRewrites),
		strategy:     strategy,
		fallback:     fallback,
		generator:    gen,
		log:          log,
	}
}

// Result is the outcome of one request.
type Result struct {
	Answers  []string
	Bundle   doctree.ContextBundle
	Reply    string
	Problems []error // Request-level failure states, for diagnostics
}

// Answer returns exactly one answer per question, in question order.
func (p *Pipeline) Answer(ctx context.Context, text string, questions []string) []string {
	return p.Run(ctx, text, questions).Answers
}

// Loader produces document text, typically from a file or upload.
type Loader func() (string, error)

// AnswerSource loads the document and answers the questions. A load
// failure is the only error it returns.
func (p *Pipeline) AnswerSource(ctx context.Context, load Loader, questions []string) ([]string, error) {
	text, err := load()
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: load document")
	}
	return p.Answer(ctx, text, questions), nil
}

// Run executes the full request and reports what happened along the way.
func (p *Pipeline) Run(ctx context.Context, text string, questions []string) Result {
	start := time.Now()
	n := len(questions)
	res := Result{Answers: make([]string, n)}
	if n == 0 {
		return res
	}

	log := p.log.With(
		zap.String("doc_hash", ContentHashHex([]byte(text))[:12]),
		zap.Int("questions", n),
	)
	if id := RequestID(ctx); id != "" {
		log = log.With(zap.String("request_id", id))
	}

	normalized := p.normalizer.Normalize(text)
	if strings.TrimSpace(normalized) == "" {
		log.Warn("empty document")
		fill(res.Answers, MsgEmptyDocument)
		res.Problems = append(res.Problems, ErrEmptyDocument)
		return res
	}

	queries := make([]query.Query, n)
	for i, q := range questions {
		queries[i] = p.preprocessor.Preprocess(q)
	}

	sections := p.segmenter.Segment(normalized)
	res.Bundle = p.selectContext(ctx, log, normalized, sections, queries)
	if res.Bundle.SizeBytes == 0 {
		log.Warn("no context selected", zap.Int("sections", len(sections)))
		fill(res.Answers, MsgNoRelevantContent)
		res.Problems = append(res.Problems, ErrNoRelevantContent)
		return res
	}

	promptText := prompt.Build(res.Bundle, queries)
	reply, err := p.generate(ctx, promptText)
	if err != nil {
		log.Error("generation failed", zap.String("model", p.generator.Model()), zap.Error(err))
		fill(res.Answers, MsgGenerationFailure)
		res.Problems = append(res.Problems, fmt.Errorf("%w: %w", ErrGenerationFailure, err))
		return res
	}
	res.Reply = reply

	slots := response.Parse(reply, n)
	if filled := response.Filled(slots); filled < n {
		log.Warn("reply missing answers", zap.Int("recovered", filled))
		res.Problems = append(res.Problems, eris.Wrapf(ErrParseShortfall, "recovered %d of %d answers", filled, n))
	}
	for i, s := range slots {
		res.Answers[i] = p.cfg.Validator.Validate(s.Final, questions[i])
	}

	log.Info("answered questions",
		zap.Int("sections", len(sections)),
		zap.Int("selected", len(res.Bundle.SectionIndexes)),
		zap.Int("context_bytes", res.Bundle.SizeBytes),
		zap.Bool("fallback", res.Bundle.Fallback),
		zap.Bool("bypassed", res.Bundle.Bypassed),
		zap.Int("prompt_tokens", prompt.EstimateTokens(promptText)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return res
}

func (p *Pipeline) selectContext(ctx context.Context, log *zap.Logger, normalized string, sections []doctree.Section, queries []query.Query) doctree.ContextBundle {
	if segment.IsDegenerate(sections, normalized, p.cfg.SmallDocumentBytes) {
		log.Debug("small document, sending whole text", zap.Int("bytes", len(normalized)))
		return selector.Whole(normalized)
	}

	scored, err := score(ctx, p.strategy, sections, queries)
	if err != nil {
		log.Warn("scorer unavailable, using keyword scoring",
			zap.String("strategy", p.strategy.Name()),
			zap.Error(err),
		)
		if scored, err = score(ctx, p.fallback, sections, queries); err != nil {
			log.Error("fallback scorer unavailable", zap.Error(err))
			return p.cfg.Selector.Select(nil, normalized)
		}
	}
	return p.cfg.Selector.Select(scored, normalized)
}

// score binds s for the request and scores every section. A panic while
// binding or scoring is returned as an error.
func score(ctx context.Context, s scorer.Strategy, sections []doctree.Section, queries []query.Query) (scored []doctree.ScoredSection, err error) {
	defer func() {
		if r := recover(); r != nil {
			scored, err = nil, eris.Errorf("pipeline: scorer panic: %v", r)
		}
	}()
	sc, err := s.Bind(ctx, sections, queries)
	if err != nil {
		return nil, err
	}
	return scorer.ScoreAll(sc, sections, queries), nil
}

type generation struct {
	reply string
	err   error
}

// generate calls the generator under the configured deadline. The call runs
// on its own goroutine so a generator that ignores ctx cannot hold the
// request past the deadline; a panic in it counts as a failed call.
func (p *Pipeline) generate(ctx context.Context, promptText string) (string, error) {
	if p.cfg.GenerationTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.GenerationTimeout)
		defer cancel()
	}

	done := make(chan generation, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- generation{err: eris.Errorf("pipeline: generator panic: %v", r)}
			}
		}()
		reply, err := p.generator.Generate(ctx, promptText, p.cfg.Options)
		done <- generation{reply: reply, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", eris.Wrap(ctx.Err(), "pipeline: generation deadline")
	case g := <-done:
		if g.err != nil {
			return "", g.err
		}
		if strings.TrimSpace(g.reply) == "" {
			return "", eris.New("pipeline: empty reply")
		}
		return g.reply, nil
	}
}

func fill(dst []string, s string) {
	for i := range dst {
		dst[i] = s
	}
}

type requestIDKey struct{}

// WithRequestID tags ctx so pipeline logs carry the caller's request ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the ID set by WithRequestID, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
