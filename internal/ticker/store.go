// Package ticker owns the shared ticker state and the polling schedule that
// feeds price updates to the broadcast hub.
package ticker

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/RichD/stock-audible/internal/announce"
	"github.com/RichD/stock-audible/internal/domain"
)

// Store is the single source of truth for the active ticker. All mutations
// are serialized under one mutex; readers get consistent copies.
type Store struct {
	minIntervalSeconds int

	mu    sync.Mutex
	state domain.TickerState
}

// NewStore creates a store in the stopped state. minIntervalSeconds is the
// floor enforced on start commands.
func NewStore(minIntervalSeconds int) *Store {
	return &Store{minIntervalSeconds: minIntervalSeconds}
}

// Start validates and atomically installs a new ticker: the generation is
// bumped, the last observation cleared, and any previous generation is
// implicitly superseded. Returns the new generation so the scheduler can tag
// its fetches.
func (s *Store) Start(symbol string, intervalSeconds int) (uint64, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return 0, domain.ErrEmptySymbol
	}
	if intervalSeconds < s.minIntervalSeconds {
		return 0, fmt.Errorf("%w: %ds (minimum %ds)", domain.ErrIntervalTooShort, intervalSeconds, s.minIntervalSeconds)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.Generation++
	s.state.Symbol = symbol
	s.state.IntervalSeconds = intervalSeconds
	s.state.Running = true
	s.state.LastPrice = 0
	s.state.LastTimestamp = time.Time{}
	s.state.HasObservation = false

	return s.state.Generation, nil
}

// Stop clears the running flag and returns the generation being stopped.
// Stopping an already-stopped ticker is a no-op: state and generation are
// unchanged and ok is false.
func (s *Store) Stop() (generation uint64, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.state.Running {
		return 0, false
	}
	s.state.Running = false
	return s.state.Generation, true
}

// RecordObservation stores a fetched price if generation still matches the
// current running ticker. A false return is not an error: it means the
// result belongs to a superseded or stopped generation and must be dropped
// silently.
func (s *Store) RecordObservation(generation uint64, price float64, timestamp time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.state.Running || generation != s.state.Generation {
		return false
	}
	s.state.LastPrice = price
	s.state.LastTimestamp = timestamp
	s.state.HasObservation = true
	return true
}

// Snapshot returns a copy of the current state, safe to read without racing
// mutation.
func (s *Store) Snapshot() domain.TickerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// ReplayEvents builds the events a late-joining session should receive
// right after its connected ack. When a ticker is running with a known last
// price, the client gets that observation immediately instead of waiting up
// to a full interval.
func (s *Store) ReplayEvents() []domain.Event {
	snap := s.Snapshot()
	if !snap.Running || !snap.HasObservation {
		return nil
	}
	return []domain.Event{
		domain.NewPriceUpdateEvent(snap.Symbol, snap.LastPrice, announce.Format(snap.Symbol, snap.LastPrice), snap.LastTimestamp.Unix()),
	}
}
