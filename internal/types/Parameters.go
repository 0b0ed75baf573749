package types

import (
	sdkmath "cosmossdk.io/math"
)

// EngineParameters are the tunable constants of the pricing engine. They are
// passed in at pool construction rather than baked in as globals so the core
// stays testable with alternate values.
type EngineParameters struct {
	// BaseFeeRate is the flat component of the trade fee, as an internal
	// scale rate (0.1% = Scale/1000).
	BaseFeeRate sdkmath.Int `json:"base_fee_rate"`

	// ProtocolFeeFraction is the share of each trade fee routed to the fee
	// collector instead of the LPs, as an internal scale rate (30% = 3*Scale/10).
	ProtocolFeeFraction sdkmath.Int `json:"protocol_fee_fraction"`

	// StalenessThresholdSeconds rejects oracle readings older than this.
	StalenessThresholdSeconds int64 `json:"staleness_threshold_seconds"`

	// VolatilityWindowSeconds is the rolling window over which relative
	// price movement accumulates before the index resets.
	VolatilityWindowSeconds int64 `json:"volatility_window_seconds"`

	// ImbalanceDelta bounds how far any asset's share of pool value may
	// drift from the equal-value allocation after a trade, as an internal
	// scale rate (25% = Scale/4).
	ImbalanceDelta sdkmath.Int `json:"imbalance_delta"`

	// MinAssets and MaxAssets bound the pool's asset set, fixed at
	// initialization.
	MinAssets int `json:"min_assets"`
	MaxAssets int `json:"max_assets"`
}
