/*

This file contains the default parameters for the pricing engine.

These values match the reference deployment. They are defaults only: every
value can be overridden per pool at construction, and the active set is
persisted to the database so a restart keeps pricing consistent.

*/

package config

import (
	"github.com/rammlabs/ramm/internal/types"
	"github.com/rammlabs/ramm/internal/utils"
)

// DefaultEngineParameters provides the baseline constants for the trade/fee
// engine. Used when no active parameter set is found in the database during
// initialization.
var DefaultEngineParameters = types.EngineParameters{
	// BaseFeeRate is 0.1% of gross notional, before volatility surcharges.
	BaseFeeRate: utils.Scale.QuoRaw(1000),

	// ProtocolFeeFraction routes 30% of every trade fee to the collector;
	// the remaining 70% stays in the pool balance and accrues to LPs.
	ProtocolFeeFraction: utils.Scale.MulRaw(3).QuoRaw(10),

	// StalenessThresholdSeconds rejects oracle readings older than one hour.
	StalenessThresholdSeconds: 3600,

	// VolatilityWindowSeconds accumulates relative price movement for one
	// hour before the index resets to the latest observation.
	VolatilityWindowSeconds: 3600,

	// ImbalanceDelta allows any asset's share of pool value to drift at most
	// 25% away from the equal-value allocation after a trade.
	ImbalanceDelta: utils.Scale.QuoRaw(4),

	// Pools hold between 2 and 8 assets, fixed at initialization.
	MinAssets: 2,
	MaxAssets: 8,
}
