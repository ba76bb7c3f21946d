package domain

import (
	"context"
	"time"
)

// TickerState describes the one shared ticker the whole process announces.
// There is exactly one instance, owned by the ticker store; everybody else
// works with copies.
type TickerState struct {
	// Symbol is the uppercased ticker symbol, possibly with a leading
	// index marker (e.g. "^GSPC").
	Symbol string

	// IntervalSeconds is the polling cadence. Immutable for the lifetime
	// of one generation.
	IntervalSeconds int

	// Running reports whether a polling schedule is active.
	Running bool

	// LastPrice and LastTimestamp hold the most recent accepted
	// observation. Only meaningful when HasObservation is true.
	LastPrice      float64
	LastTimestamp  time.Time
	HasObservation bool

	// Generation increases on every start. Observations tagged with a
	// stale generation are discarded.
	Generation uint64
}

// PriceSource fetches the latest price for a symbol. Implementations are
// free to retry or short-circuit internally; the scheduler treats any error
// as an opaque fetch failure.
type PriceSource interface {
	FetchPrice(ctx context.Context, symbol string) (float64, error)
}

// Publisher fans an event out to every connected session.
type Publisher interface {
	Publish(event Event)
}
