package types

import (
	sdkmath "cosmossdk.io/math"
)

// TradeRequest describes one swap against the pool. Exactly one of AmountIn
// or AmountOut is fixed by the caller; the Limit field carries the slippage
// bound for the computed side (minimum out for exact-in, maximum in for
// exact-out). All amounts are in the asset's native integer precision.
type TradeRequest struct {
	AssetIn   AssetID     `json:"asset_in"`
	AssetOut  AssetID     `json:"asset_out"`
	AmountIn  sdkmath.Int `json:"amount_in"`
	AmountOut sdkmath.Int `json:"amount_out"`
	Limit     sdkmath.Int `json:"limit"`
}

// TradeResult reports a committed trade. Gross amounts are pre-fee, in the
// internal scale; AmountIn/AmountOut are what actually moved, in native
// precision.
type TradeResult struct {
	AssetIn  AssetID `json:"asset_in"`
	AssetOut AssetID `json:"asset_out"`

	AmountIn  sdkmath.Int `json:"amount_in"`  // native, received by the pool
	AmountOut sdkmath.Int `json:"amount_out"` // native, paid to the caller

	GrossNotional sdkmath.Int `json:"gross_notional"` // internal scale, pre-fee
	FeeRate       sdkmath.Int `json:"fee_rate"`       // internal scale rate
	NetFee        sdkmath.Int `json:"net_fee"`        // internal scale
	ProtocolFee   sdkmath.Int `json:"protocol_fee"`   // native precision of the fee asset
	LPFee         sdkmath.Int `json:"lp_fee"`         // internal scale, left in the pool

	// FeeAsset is the side the fee was charged against: the outbound asset
	// for exact-in trades, the inbound asset for exact-out trades.
	FeeAsset AssetID `json:"fee_asset"`

	Timestamp int64 `json:"timestamp"`
}

// DepositResult reports a committed single-asset liquidity deposit.
type DepositResult struct {
	Asset        AssetID     `json:"asset"`
	Amount       sdkmath.Int `json:"amount"`        // native, received by the pool
	SharesMinted sdkmath.Int `json:"shares_minted"` // internal scale
	Timestamp    int64       `json:"timestamp"`
}

// WithdrawResult reports a committed LP share redemption.
type WithdrawResult struct {
	Asset        AssetID     `json:"asset"`
	SharesBurned sdkmath.Int `json:"shares_burned"` // internal scale
	Amount       sdkmath.Int `json:"amount"`        // native, paid to the caller
	Timestamp    int64       `json:"timestamp"`
}
