package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// RetryOptions configures a Retrying provider. Zero fields take the defaults
// noted on each field.
type RetryOptions struct {
	MaxRetries int           // retries after the first attempt; default 3, negative disables
	Timeout    time.Duration // per attempt; default 90s
	RPS        float64       // request rate limit; 0 disables
	BaseDelay  time.Duration // first backoff step; default 1s
	MaxDelay   time.Duration // backoff ceiling before jitter; default 10s
	MaxJitter  time.Duration // random extra delay; default 250ms
	Logger     zerolog.Logger
}

func (o RetryOptions) withDefaults() RetryOptions {
	if o.MaxRetries == 0 {
		o.MaxRetries = 3
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	}
	if o.Timeout <= 0 {
		o.Timeout = 90 * time.Second
	}
	if o.BaseDelay <= 0 {
		o.BaseDelay = time.Second
	}
	if o.MaxDelay <= 0 {
		o.MaxDelay = 10 * time.Second
	}
	if o.MaxJitter <= 0 {
		o.MaxJitter = 250 * time.Millisecond
	}
	return o
}

// Retrying wraps a Provider with a per-attempt timeout, an optional rate
// limit, and exponential backoff with jitter for transient failures: HTTP
// 408, 429 and 5xx, attempt timeouts, and network errors. A server
// Retry-After replaces the computed delay.
type Retrying struct {
	inner   Provider
	opts    RetryOptions
	limiter *rate.Limiter

	sleep  func(ctx context.Context, d time.Duration) error
	jitter func(max time.Duration) time.Duration
}

// NewRetrying wraps inner.
func NewRetrying(inner Provider, opts RetryOptions) *Retrying {
	opts = opts.withDefaults()
	r := &Retrying{
		inner:  inner,
		opts:   opts,
		sleep:  sleepCtx,
		jitter: randomJitter,
	}
	if opts.RPS > 0 {
		burst := int(opts.RPS)
		if burst < 1 {
			burst = 1
		}
		r.limiter = rate.NewLimiter(rate.Limit(opts.RPS), burst)
	}
	return r
}

// Complete implements Provider.
func (r *Retrying) Complete(ctx context.Context, systemPrompt, userPrompt string, maxTokens int, temperature float64) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= r.opts.MaxRetries; attempt++ {
		if r.limiter != nil {
			if err := r.limiter.Wait(ctx); err != nil {
				return "", fmt.Errorf("llm: rate limit wait: %w", err)
			}
		}

		attemptCtx, cancel := context.WithTimeout(ctx, r.opts.Timeout)
		out, err := r.inner.Complete(attemptCtx, systemPrompt, userPrompt, maxTokens, temperature)
		cancel()
		if err == nil {
			return out, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		lastErr = err
		if !isTransient(err) {
			return "", err
		}
		if attempt == r.opts.MaxRetries {
			break
		}

		delay := r.backoff(attempt)
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.RetryAfter > 0 {
			delay = apiErr.RetryAfter
		}
		r.opts.Logger.Debug().
			Err(err).
			Int("attempt", attempt+1).
			Dur("delay", delay).
			Msg("retrying provider request")
		if err := r.sleep(ctx, delay); err != nil {
			return "", err
		}
	}
	return "", fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, r.opts.MaxRetries+1, lastErr)
}

// backoff returns min(BaseDelay*2^attempt, MaxDelay) plus jitter.
func (r *Retrying) backoff(attempt int) time.Duration {
	d := r.opts.MaxDelay
	if attempt < 30 {
		if exp := r.opts.BaseDelay << attempt; exp < d {
			d = exp
		}
	}
	return d + r.jitter(r.opts.MaxJitter)
}

// isTransient reports whether err is worth another attempt.
func isTransient(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Retryable()
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func randomJitter(max time.Duration) time.Duration {
	if max <= 0 {
		return 0
	}
	return time.Duration(rand.Int64N(int64(max)))
}
