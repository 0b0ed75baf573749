/*

This is a custom type for asset slots which contains all the per-asset state
the pool keeps: balances, LP share supply, accrued protocol fees, and the
oracle-derived price and volatility baseline.

*/

package types

import (
	sdkmath "cosmossdk.io/math"
)

// AssetID identifies one asset slot in a pool, e.g. "ETH" or "USDT".
type AssetID string

// AssetSlot holds the pool's state for a single asset. Balance, LPSupply and
// MinimumTradeAmount are denominated in the internal 12 decimal scale;
// CollectedProtocolFees stays in the asset's native integer precision.
type AssetSlot struct {
	ID                 AssetID     `json:"id"`
	Balance            sdkmath.Int `json:"balance"`              // internal scale, always >= 0
	DecimalScaleFactor sdkmath.Int `json:"decimal_scale_factor"` // native * factor = internal
	MinimumTradeAmount sdkmath.Int `json:"minimum_trade_amount"` // internal scale
	LPSupply           sdkmath.Int `json:"lp_supply"`            // internal scale, always >= 0

	// CollectedProtocolFees is accrued, uncollected protocol revenue in the
	// asset's native integer scale.
	CollectedProtocolFees sdkmath.Int `json:"collected_protocol_fees"`

	OracleFeedID    string `json:"oracle_feed_id"`
	DepositsEnabled bool   `json:"deposits_enabled"`

	// Last accepted oracle reading, the baseline for the next relative
	// price change.
	PreviousPrice   sdkmath.Int `json:"previous_price"` // internal scale, 0 before first read
	PreviousPriceAt int64       `json:"previous_price_at"`

	// Decaying measure of recent relative price movement.
	VolatilityIndex sdkmath.Int `json:"volatility_index"` // internal scale rate
	VolatilityAt    int64       `json:"volatility_at"`
}

// NewAssetSlot returns a zeroed slot for a freshly added asset. Deposits stay
// disabled until the pool is initialized.
func NewAssetSlot(id AssetID, scaleFactor, minimumTrade sdkmath.Int, oracleFeedID string) AssetSlot {
	return AssetSlot{
		ID:                    id,
		Balance:               sdkmath.ZeroInt(),
		DecimalScaleFactor:    scaleFactor,
		MinimumTradeAmount:    minimumTrade,
		LPSupply:              sdkmath.ZeroInt(),
		CollectedProtocolFees: sdkmath.ZeroInt(),
		OracleFeedID:          oracleFeedID,
		DepositsEnabled:       false,
		PreviousPrice:         sdkmath.ZeroInt(),
		VolatilityIndex:       sdkmath.ZeroInt(),
	}
}
