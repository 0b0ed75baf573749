package engine

import (
	"sync"

	"github.com/rammlabs/ramm/internal/types"
)

// EventSink receives exactly one structured event per successful operation
// and one per pool state query. Failed operations never reach the sink.
type EventSink interface {
	Record(event types.PoolEvent)
}

// NopSink discards all events.
type NopSink struct{}

// Record implements EventSink.
func (NopSink) Record(types.PoolEvent) {}

// MemorySink buffers events in order. Used by tests and as a fallback when no
// database is configured.
type MemorySink struct {
	mu     sync.Mutex
	events []types.PoolEvent
}

// NewMemorySink returns an empty sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// Record implements EventSink.
func (s *MemorySink) Record(event types.PoolEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

// Events returns a copy of everything recorded so far.
func (s *MemorySink) Events() []types.PoolEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.PoolEvent, len(s.events))
	copy(out, s.events)
	return out
}
