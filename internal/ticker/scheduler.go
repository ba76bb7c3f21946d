package ticker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/RichD/stock-audible/internal/announce"
	"github.com/RichD/stock-audible/internal/domain"
	"github.com/RichD/stock-audible/internal/metrics"
)

// Scheduler drives the periodic fetch/announce cycle for the active
// generation. Starting a new ticker cancels the previous schedule; results
// from fetches already in flight are discarded by the store's generation
// check rather than forcibly aborted.
type Scheduler struct {
	store     *Store
	source    domain.PriceSource
	publisher domain.Publisher
	clock     clockwork.Clock

	// mu serializes start/stop so two concurrent start commands cannot
	// interleave: the later one fully replaces the earlier one.
	mu     sync.Mutex
	cancel context.CancelFunc
	loops  sync.WaitGroup
}

func NewScheduler(store *Store, source domain.PriceSource, publisher domain.Publisher, clock clockwork.Clock) *Scheduler {
	return &Scheduler{
		store:     store,
		source:    source,
		publisher: publisher,
		clock:     clock,
	}
}

// Start replaces any active schedule with a new one for the given symbol and
// interval. The first tick fires immediately so clients are not kept
// waiting, then every interval thereafter. The `started` event is published
// before the new schedule's first fetch can complete, so it always precedes
// the generation's first price update.
func (s *Scheduler) Start(symbol string, intervalSeconds int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	generation, err := s.store.Start(symbol, intervalSeconds)
	if err != nil {
		return err
	}
	// Re-read the symbol from the store: Start normalizes it.
	snap := s.store.Snapshot()

	if s.cancel != nil {
		s.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	slog.Info("Ticker started", "symbol", snap.Symbol, "interval_seconds", intervalSeconds, "generation", generation)
	metrics.TickerStartsTotal.Inc()
	metrics.TickerRunning.Set(1)

	s.publisher.Publish(domain.NewStartedEvent(snap.Symbol, intervalSeconds))

	s.loops.Add(1)
	go s.run(ctx, generation, snap.Symbol, time.Duration(intervalSeconds)*time.Second)

	return nil
}

// Stop cancels the active schedule. Matching the behavior of the original
// UI, a `stopped` event is published on every call, even when no ticker was
// running.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	generation, wasRunning := s.store.Stop()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}

	if wasRunning {
		slog.Info("Ticker stopped", "generation", generation)
		metrics.TickerRunning.Set(0)
	}

	s.publisher.Publish(domain.NewStoppedEvent())
}

// Shutdown cancels the schedule without publishing and waits for the polling
// goroutine to exit. Used on process shutdown.
func (s *Scheduler) Shutdown() {
	s.mu.Lock()
	s.store.Stop()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.mu.Unlock()

	s.loops.Wait()
	metrics.TickerRunning.Set(0)
}

func (s *Scheduler) run(ctx context.Context, generation uint64, symbol string, interval time.Duration) {
	defer s.loops.Done()

	ticker := s.clock.NewTicker(interval)
	defer ticker.Stop()

	if !s.tick(ctx, generation, symbol) {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			if !s.tick(ctx, generation, symbol) {
				return
			}
		}
	}
}

// tick performs one fetch/announce cycle and reports whether the schedule
// should keep running. The fetch happens without holding any lock; only the
// short record-and-publish step re-acquires the scheduler mutex.
func (s *Scheduler) tick(ctx context.Context, generation uint64, symbol string) bool {
	price, err := s.source.FetchPrice(ctx, symbol)
	if ctx.Err() != nil {
		return false
	}
	if err != nil {
		// One bad tick never cancels the recurring schedule.
		slog.Warn("Price fetch failed", "symbol", symbol, "generation", generation, "error", err)
		s.publisher.Publish(domain.NewErrorEvent(fmt.Sprintf("Could not fetch price for %s", symbol)))
		return true
	}
	return s.recordAndPublish(generation, symbol, price)
}

// recordAndPublish accepts the observation and publishes the price update as
// one step under the scheduler mutex. Holding mu here keeps the event stream
// ordered relative to Start/Stop: once a replacing start has published its
// `started` event, no observation from an older generation can be accepted,
// so its update can never appear afterwards.
func (s *Scheduler) recordAndPublish(generation uint64, symbol string, price float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	if !s.store.RecordObservation(generation, price, now) {
		// Superseded or stopped between fetch start and completion.
		slog.Debug("Discarding stale observation", "symbol", symbol, "generation", generation)
		metrics.StaleObservationsTotal.Inc()
		return false
	}

	s.publisher.Publish(domain.NewPriceUpdateEvent(symbol, price, announce.Format(symbol, price), now.Unix()))
	return true
}
