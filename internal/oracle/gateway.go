package oracle

import (
	"errors"
	"fmt"
	"time"

	sdkmath "cosmossdk.io/math"

	"github.com/rammlabs/ramm/internal/utils"
)

// Error definitions for zero-tolerance error handling
var (
	ErrStalePrice   = errors.New("oracle price is stale")
	ErrInvalidPrice = errors.New("oracle price is invalid")
)

// Gateway normalizes raw feed readings to the internal scale and enforces
// freshness. Every pool operation reads every touched asset's feed through
// the gateway before mutating any balance.
type Gateway struct {
	feed               Feed
	stalenessThreshold int64
	clock              func() int64
}

// NewGateway wraps a feed. stalenessThresholdSeconds is the maximum accepted
// reading age; clock may be nil for wall-clock time.
func NewGateway(feed Feed, stalenessThresholdSeconds int64, clock func() int64) Gateway {
	if clock == nil {
		clock = func() int64 { return time.Now().Unix() }
	}
	return Gateway{
		feed:               feed,
		stalenessThreshold: stalenessThresholdSeconds,
		clock:              clock,
	}
}

// Now returns the gateway's current time.
func (g Gateway) Now() int64 {
	return g.clock()
}

// Price reads a feed and returns its price normalized to the internal scale
// (price * Scale / oracleScale), together with the reading's timestamp.
// Readings older than the staleness threshold fail with ErrStalePrice,
// non-positive prices with ErrInvalidPrice.
func (g Gateway) Price(feedID string) (sdkmath.Int, int64, error) {
	reading, err := g.feed.Read(feedID)
	if err != nil {
		return sdkmath.Int{}, 0, err
	}

	if reading.Price.IsNil() || !reading.Price.IsPositive() {
		return sdkmath.Int{}, 0, fmt.Errorf("%w: feed %s", ErrInvalidPrice, feedID)
	}

	now := g.clock()
	if now-reading.Timestamp > g.stalenessThreshold {
		return sdkmath.Int{}, 0, fmt.Errorf("%w: feed %s reading is %d seconds old",
			ErrStalePrice, feedID, now-reading.Timestamp)
	}

	normalized, err := utils.MulDiv(reading.Price, utils.Scale, reading.Scale)
	if err != nil {
		return sdkmath.Int{}, 0, fmt.Errorf("normalizing feed %s: %w", feedID, err)
	}
	if !normalized.IsPositive() {
		// A positive raw price can still truncate to zero under an extreme
		// scale mismatch; treat it the same as a bad reading.
		return sdkmath.Int{}, 0, fmt.Errorf("%w: feed %s normalizes to zero", ErrInvalidPrice, feedID)
	}

	return normalized, reading.Timestamp, nil
}
