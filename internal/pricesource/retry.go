package pricesource

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/RichD/stock-audible/internal/domain"
)

type action int

const (
	stop  action = iota // permanent error, abort immediately
	retry               // transient error, use normal backoff
	after               // rate-limited, use longer backoff
)

// Policy controls retry behavior for a single fetch.
type Policy struct {
	MaxAttempts      int
	InitialBackoff   time.Duration
	RateLimitBackoff time.Duration
}

// DefaultPolicy keeps a fetch well under a 5-second tick interval.
var DefaultPolicy = Policy{
	MaxAttempts:      3,
	InitialBackoff:   200 * time.Millisecond,
	RateLimitBackoff: 1 * time.Second,
}

// classify maps fetch errors onto retry actions. Unknown symbols are
// permanent: retrying a typo just burns quota.
func classify(err error) action {
	switch {
	case errors.Is(err, domain.ErrSymbolNotFound):
		return stop
	case errors.Is(err, domain.ErrRateLimited):
		return after
	default:
		return retry
	}
}

// RetryingSource wraps a PriceSource with exponential-backoff retries.
type RetryingSource struct {
	next   domain.PriceSource
	policy Policy
}

func NewRetryingSource(next domain.PriceSource, policy Policy) *RetryingSource {
	return &RetryingSource{next: next, policy: policy}
}

func (r *RetryingSource) FetchPrice(ctx context.Context, symbol string) (float64, error) {
	backoff := r.policy.InitialBackoff

	var lastErr error
	for attempt := 1; attempt <= r.policy.MaxAttempts; attempt++ {
		price, err := r.next.FetchPrice(ctx, symbol)
		if err == nil {
			return price, nil
		}
		lastErr = err

		act := classify(err)
		if act == stop {
			return 0, err
		}
		if attempt == r.policy.MaxAttempts {
			break
		}
		if act == after {
			backoff = r.policy.RateLimitBackoff
		}

		slog.Debug("Retrying price fetch", "symbol", symbol, "attempt", attempt, "backoff", backoff, "error", err)

		select {
		case <-time.After(backoff):
			backoff *= 2
		case <-ctx.Done():
			return 0, fmt.Errorf("fetch cancelled during retry: %w", ctx.Err())
		}
	}

	return 0, fmt.Errorf("failed after %d attempts: %w", r.policy.MaxAttempts, lastErr)
}
