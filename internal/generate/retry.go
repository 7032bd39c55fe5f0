package generate

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

const MaxRetries = 3

// Backoff returns a duration for attempt n (0-indexed) with jitter.
func Backoff(attempt int) time.Duration {
	base := time.Duration(1<<uint(attempt)) * time.Second
	if base > 30*time.Second {
		base = 30 * time.Second
	}
	jitter := time.Duration(rand.Int64N(int64(base) / 2))
	return base + jitter
}

// Retrying re-issues a request after a RetryableError, waiting Backoff
// between attempts. Other errors are returned at once.
type Retrying struct {
	next       Generator
	maxRetries int
	backoff    func(attempt int) time.Duration
	log        *zap.Logger
}

var _ Generator = (*Retrying)(nil)

func WithRetry(next Generator, maxRetries int, log *zap.Logger) *Retrying {
	if log == nil {
		log = zap.NewNop()
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &Retrying{next: next, maxRetries: maxRetries, backoff: Backoff, log: log}
}

func (r *Retrying) Model() string { return r.next.Model() }

func (r *Retrying) Generate(ctx context.Context, prompt string, o Options) (string, error) {
	for attempt := 0; ; attempt++ {
		out, err := r.next.Generate(ctx, prompt, o)
		if err == nil || !IsRetryable(err) || attempt >= r.maxRetries {
			return out, err
		}

		wait := r.backoff(attempt)
		r.log.Warn("retrying generation",
			zap.String("model", r.next.Model()),
			zap.Int("attempt", attempt+1),
			zap.Duration("backoff", wait),
			zap.Error(err),
		)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return "", eris.Wrap(ctx.Err(), "generate: retry wait")
		case <-timer.C:
		}
	}
}
