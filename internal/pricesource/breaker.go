package pricesource

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"github.com/RichD/stock-audible/internal/domain"
	"github.com/RichD/stock-audible/internal/metrics"
)

const (
	breakerFailureThreshold = 5
	breakerOpenDuration     = 30 * time.Second
)

// BreakerSource wraps a PriceSource with a circuit breaker so a broken
// upstream is not hammered on every tick. While the circuit is open,
// fetches fail fast as ordinary fetch errors; the schedule keeps running
// and recovers once the upstream does.
type BreakerSource struct {
	next    domain.PriceSource
	breaker *gobreaker.CircuitBreaker
}

func NewBreakerSource(next domain.PriceSource) *BreakerSource {
	settings := gobreaker.Settings{
		Name:        "price-source",
		MaxRequests: 1,
		Timeout:     breakerOpenDuration,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerFailureThreshold
		},
		// An unknown symbol is the caller's problem, not upstream
		// trouble; it must not open the circuit for valid symbols.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, domain.ErrSymbolNotFound)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("Price source circuit state changed", "from", from.String(), "to", to.String())
			metrics.PriceSourceBreakerStateChanges.WithLabelValues(to.String()).Inc()
		},
	}
	return &BreakerSource{
		next:    next,
		breaker: gobreaker.NewCircuitBreaker(settings),
	}
}

func (b *BreakerSource) FetchPrice(ctx context.Context, symbol string) (float64, error) {
	value, err := b.breaker.Execute(func() (interface{}, error) {
		return b.next.FetchPrice(ctx, symbol)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return 0, fmt.Errorf("%w: price source circuit open", domain.ErrFetchFailed)
		}
		return 0, err
	}
	return value.(float64), nil
}
