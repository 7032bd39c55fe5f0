package generate

import (
	"context"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// RateLimited spaces out requests to a provider with a token bucket.
type RateLimited struct {
	next    Generator
	limiter *rate.Limiter
}

var _ Generator = (*RateLimited)(nil)

// WithRateLimit allows perMinute requests with the given burst. A
// non-positive rate returns next unchanged.
func WithRateLimit(next Generator, perMinute float64, burst int) Generator {
	if perMinute <= 0 {
		return next
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimited{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(perMinute/60), burst),
	}
}

func (r *RateLimited) Model() string { return r.next.Model() }

func (r *RateLimited) Generate(ctx context.Context, prompt string, o Options) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", eris.Wrap(err, "generate: rate limit wait")
	}
	return r.next.Generate(ctx, prompt, o)
}
