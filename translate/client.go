package translate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Defaults for ClientOptions.
const (
	DefaultRequestInterval = time.Second
	DefaultRetryLimit      = 1
	DefaultRetryPause      = 60 * time.Second
)

// Translator is what Run needs from a client. *Client implements it.
type Translator interface {
	Translate(ctx context.Context, text string) (string, error)
}

// ClientOptions configures pacing and retries.
type ClientOptions struct {
	// RequestInterval is the minimum spacing between calls, shared by all
	// workers. Zero disables pacing.
	RequestInterval time.Duration
	// RetryLimit is how many times a transient failure is retried.
	// Negative means use the default; zero disables retries.
	RetryLimit int
	// RetryPause is the wait before each retry.
	RetryPause time.Duration
	// OnWarn receives retry notices.
	OnWarn func(format string, args ...any)
}

// Client wraps a Backend with call pacing, transient-error retries and
// error classification. It is safe for concurrent use.
type Client struct {
	backend    Backend
	limiter    *rate.Limiter
	retryLimit int
	retryPause time.Duration
	onWarn     func(format string, args ...any)
}

// NewClient returns a Client for backend.
func NewClient(backend Backend, opts ClientOptions) *Client {
	limit := rate.Inf
	if opts.RequestInterval > 0 {
		limit = rate.Every(opts.RequestInterval)
	}
	retryLimit := opts.RetryLimit
	if retryLimit < 0 {
		retryLimit = DefaultRetryLimit
	}
	return &Client{
		backend:    backend,
		limiter:    rate.NewLimiter(limit, 1),
		retryLimit: retryLimit,
		retryPause: opts.RetryPause,
		onWarn:     opts.OnWarn,
	}
}

// Backend returns the wrapped backend.
func (c *Client) Backend() Backend {
	return c.backend
}

// Translate sends text to the backend. The pacing slot is taken once per
// call, so retries do not consume extra slots. Every returned error other
// than a context error is an *Error:
//
//   - KindRateLimited is returned immediately and never retried.
//   - KindPermanent is returned immediately.
//   - KindTransient is retried up to the retry limit, after which the last
//     failure is returned wrapping ErrRetriesExhausted.
//
// An empty answer for non-empty input counts as a permanent failure.
func (c *Client) Translate(ctx context.Context, text string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", err
	}

	var last *Error
	for attempt := 0; attempt <= c.retryLimit; attempt++ {
		if attempt > 0 {
			if c.onWarn != nil {
				c.onWarn("%s: %v; retrying in %s (attempt %d/%d)",
					c.backend.Name(), last.Err, c.retryPause, attempt+1, c.retryLimit+1)
			}
			if err := sleepCtx(ctx, c.retryPause); err != nil {
				return "", err
			}
		}

		out, err := c.backend.Translate(ctx, text)
		if err == nil {
			if strings.TrimSpace(out) == "" && strings.TrimSpace(text) != "" {
				return "", &Error{Kind: KindPermanent, Backend: c.backend.Name(), Err: errEmptyTranslation}
			}
			return out, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}

		e := classify(c.backend.Name(), err)
		if e.Kind != KindTransient {
			return "", e
		}
		last = e
	}

	return "", &Error{
		Kind:       KindTransient,
		Backend:    last.Backend,
		StatusCode: last.StatusCode,
		Err:        fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, c.retryLimit+1, last.Err),
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
