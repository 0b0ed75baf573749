package types

import (
	sdkmath "cosmossdk.io/math"
)

// Event kinds recorded by the state store and served to indexers.
const (
	EventKindTrade     = "trade"
	EventKindDeposit   = "deposit"
	EventKindWithdraw  = "withdraw"
	EventKindPoolState = "pool_state"
)

// AssetState is the per-asset snapshot carried by every event.
type AssetState struct {
	ID                    AssetID     `json:"id"`
	Balance               sdkmath.Int `json:"balance"`   // internal scale
	LPSupply              sdkmath.Int `json:"lp_supply"` // internal scale
	CollectedProtocolFees sdkmath.Int `json:"collected_protocol_fees"`
	VolatilityIndex       sdkmath.Int `json:"volatility_index"`
	PreviousPrice         sdkmath.Int `json:"previous_price"`
}

// PoolEvent is the single structured record emitted once per successful
// operation and once per pool state query. Trade is nil for non-trade events.
type PoolEvent struct {
	EventID   string       `json:"event_id"`
	Kind      string       `json:"kind"`
	PoolID    string       `json:"pool_id"`
	Timestamp int64        `json:"timestamp"`
	Assets    []AssetState `json:"assets"`

	Trade    *TradeResult    `json:"trade,omitempty"`
	Deposit  *DepositResult  `json:"deposit,omitempty"`
	Withdraw *WithdrawResult `json:"withdraw,omitempty"`
}
