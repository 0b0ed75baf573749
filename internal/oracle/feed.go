/*
This file defines the price feed interface the pool consumes.

A feed hands back raw (price, scale, timestamp) triples in its own precision;
the gateway in this package is the only component that interprets them. The
feed's internal aggregation is somebody else's problem.
*/

package oracle

import (
	"errors"
	"fmt"
	"sync"

	sdkmath "cosmossdk.io/math"
)

// ErrUnknownFeed indicates a feed ID with no registered reading.
var ErrUnknownFeed = errors.New("unknown oracle feed")

// Reading is one raw oracle observation.
type Reading struct {
	Price     sdkmath.Int // in the feed's own integer scale
	Scale     sdkmath.Int // power of ten: Price/Scale is the quoted price
	Timestamp int64       // unix seconds of the observation
}

// Feed is the external price source interface.
type Feed interface {
	Read(feedID string) (Reading, error)
}

// StaticFeed is an in-memory Feed whose readings are pushed in by the caller.
// The daemon uses it as the ingestion buffer for external publishers; tests
// use it to pin prices.
type StaticFeed struct {
	mu       sync.RWMutex
	readings map[string]Reading
}

// NewStaticFeed returns an empty in-memory feed.
func NewStaticFeed() *StaticFeed {
	return &StaticFeed{readings: make(map[string]Reading)}
}

// Set stores or replaces the reading for a feed ID.
func (f *StaticFeed) Set(feedID string, reading Reading) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.readings[feedID] = reading
}

// Read returns the current reading for a feed ID.
func (f *StaticFeed) Read(feedID string) (Reading, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	reading, ok := f.readings[feedID]
	if !ok {
		return Reading{}, fmt.Errorf("%w: %s", ErrUnknownFeed, feedID)
	}
	return reading, nil
}
