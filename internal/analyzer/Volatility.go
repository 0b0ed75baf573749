package analyzer

import (
	"errors"

	sdkmath "cosmossdk.io/math"

	"github.com/rammlabs/ramm/internal/types"
	"github.com/rammlabs/ramm/internal/utils"
)

// ErrNonPositivePrice indicates an oracle reading that cannot be used as a
// volatility baseline.
var ErrNonPositivePrice = errors.New("price must be positive to update volatility")

// ObservePrice folds a fresh normalized oracle reading into an asset slot's
// volatility state and returns the updated copy. The input slot is not
// mutated, so a failed operation can discard the result without side effects.
//
// The index is a decayed accumulation of relative price movement: while the
// window is open (now - volatility_at <= window) each observation's relative
// change |p - prev| / prev is added to the index; once the window has lapsed
// the index resets to the latest relative change alone. The previous price
// and both timestamps are overwritten on every observation, accumulated or
// reset alike.
func ObservePrice(slot types.AssetSlot, price sdkmath.Int, now int64, windowSeconds int64) (types.AssetSlot, error) {
	if !price.IsPositive() {
		return types.AssetSlot{}, ErrNonPositivePrice
	}

	updated := slot

	// First observation has no baseline; record the reading and leave the
	// index untouched.
	if slot.PreviousPrice.IsZero() {
		updated.PreviousPrice = price
		updated.PreviousPriceAt = now
		updated.VolatilityAt = now
		return updated, nil
	}

	diff := price.Sub(slot.PreviousPrice).Abs()
	relativeChange, err := utils.MulDiv(diff, utils.Scale, slot.PreviousPrice)
	if err != nil {
		return types.AssetSlot{}, err
	}

	if now-slot.VolatilityAt <= windowSeconds {
		updated.VolatilityIndex = slot.VolatilityIndex.Add(relativeChange)
	} else {
		updated.VolatilityIndex = relativeChange
	}

	updated.PreviousPrice = price
	updated.PreviousPriceAt = now
	updated.VolatilityAt = now
	return updated, nil
}
