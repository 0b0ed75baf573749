// Package planner generates rebalancing suggestions for a pool whose asset
// values have drifted from the equal-value allocation. The pool never trades
// on its own; a plan is advisory and is surfaced to arbitrageurs through the
// API and the snapshot loop. Executing a suggested trade moves the pool back
// toward balance and, because only the trade-direction bound is checked,
// always passes the imbalance gate.
package planner

import (
	"errors"
	"fmt"
	"sort"

	sdkmath "cosmossdk.io/math"
	"github.com/rs/zerolog"

	"github.com/rammlabs/ramm/internal/engine"
	"github.com/rammlabs/ramm/internal/logger"
	"github.com/rammlabs/ramm/internal/simulations"
	"github.com/rammlabs/ramm/internal/types"
	"github.com/rammlabs/ramm/internal/utils"
)

// Error definitions for zero-tolerance error handling
var (
	ErrPoolNotInitialized = errors.New("pool is not initialized")
	ErrPricingFailed      = errors.New("failed to price pool assets")
)

// Deviations below 1/10000 of pool value are noise, not drift.
const minMoveDivisor = 10_000

// Allocation describes one asset's share of pool value.
type Allocation struct {
	Asset  types.AssetID `json:"asset"`
	Value  sdkmath.Int   `json:"value"`  // internal scale
	Target sdkmath.Int   `json:"target"` // internal scale, equal-value share
	Ratio  sdkmath.Int   `json:"ratio"`  // Scale = exactly on target
}

// TradeSuggestion is one advisory trade that moves the pool toward balance.
// The suggested trade deposits the under-weighted asset and drains the
// over-weighted one.
type TradeSuggestion struct {
	AssetIn      types.AssetID `json:"asset_in"`
	AssetOut     types.AssetID `json:"asset_out"`
	AmountIn     sdkmath.Int   `json:"amount_in"` // native precision of AssetIn
	EstimatedOut sdkmath.Int   `json:"estimated_out"`
	ValueMoved   sdkmath.Int   `json:"value_moved"` // internal scale
}

// Plan is a full rebalancing assessment of one pool.
type Plan struct {
	PoolID      string            `json:"pool_id"`
	Timestamp   int64             `json:"timestamp"`
	TotalValue  sdkmath.Int       `json:"total_value"`
	Allocations []Allocation      `json:"allocations"`
	Suggestions []TradeSuggestion `json:"suggestions"`
}

// deviation tracks how far one asset sits from its target value.
type deviation struct {
	asset  types.AssetID
	amount sdkmath.Int // positive, in internal value terms
	price  sdkmath.Int
}

// GenerateRebalancePlan values every slot at current oracle prices and pairs
// over-weighted assets with under-weighted ones. Every suggestion is verified
// through the swap simulator before it is included, so a suggestion that the
// engine would reject (dust amount, stale feed) never reaches the caller.
func GenerateRebalancePlan(pool *engine.Pool) (Plan, error) {
	planLogger := logger.GetForComponent("rebalance_planner")

	if !pool.Initialized() {
		return Plan{}, ErrPoolNotInitialized
	}

	gateway := pool.Gateway()
	assets := pool.Assets()
	n := int64(len(assets))

	// Value the basket. Any unpriceable asset invalidates the whole plan,
	// matching the engine's all-or-nothing oracle rule.
	values := make(map[types.AssetID]sdkmath.Int, len(assets))
	prices := make(map[types.AssetID]sdkmath.Int, len(assets))
	totalValue := sdkmath.ZeroInt()
	for _, asset := range assets {
		slot, err := pool.Slot(asset)
		if err != nil {
			return Plan{}, err
		}
		price, _, err := gateway.Price(slot.OracleFeedID)
		if err != nil {
			planLogger.Warn().Err(err).Str("asset", string(asset)).Msg("Asset cannot be priced")
			return Plan{}, fmt.Errorf("%w: %s: %v", ErrPricingFailed, asset, err)
		}
		value, err := utils.Mul(slot.Balance, price)
		if err != nil {
			return Plan{}, err
		}
		values[asset] = value
		prices[asset] = price
		totalValue = totalValue.Add(value)
	}

	plan := Plan{
		PoolID:     pool.ID(),
		Timestamp:  gateway.Now(),
		TotalValue: totalValue,
	}

	if totalValue.IsZero() {
		planLogger.Info().Str("poolID", pool.ID()).Msg("Pool holds no value, nothing to rebalance")
		return plan, nil
	}

	target := totalValue.Quo(sdkmath.NewInt(n))
	minMove := totalValue.QuoRaw(minMoveDivisor)

	var surpluses, deficits []deviation
	for _, asset := range assets {
		ratio, err := utils.MulDiv(values[asset].MulRaw(n), utils.Scale, totalValue)
		if err != nil {
			return Plan{}, err
		}
		plan.Allocations = append(plan.Allocations, Allocation{
			Asset:  asset,
			Value:  values[asset],
			Target: target,
			Ratio:  ratio,
		})

		diff := values[asset].Sub(target)
		switch {
		case diff.GT(minMove):
			surpluses = append(surpluses, deviation{asset: asset, amount: diff, price: prices[asset]})
		case diff.Neg().GT(minMove):
			deficits = append(deficits, deviation{asset: asset, amount: diff.Neg(), price: prices[asset]})
		}
	}

	sortDeviations(surpluses)
	sortDeviations(deficits)

	// Greedy pairing: largest deficit buys from the largest surplus until
	// one side is exhausted.
	for len(surpluses) > 0 && len(deficits) > 0 {
		surplus, deficit := &surpluses[0], &deficits[0]
		move := sdkmath.MinInt(surplus.amount, deficit.amount)

		suggestion, ok := buildSuggestion(pool, deficit, surplus, move, planLogger)
		if ok {
			plan.Suggestions = append(plan.Suggestions, suggestion)
		}

		surplus.amount = surplus.amount.Sub(move)
		deficit.amount = deficit.amount.Sub(move)
		if surplus.amount.LTE(minMove) {
			surpluses = surpluses[1:]
		}
		if deficit.amount.LTE(minMove) {
			deficits = deficits[1:]
		}
	}

	planLogger.Info().
		Str("poolID", pool.ID()).
		Str("totalValue", totalValue.String()).
		Int("suggestions", len(plan.Suggestions)).
		Msg("Rebalance plan generated")
	return plan, nil
}

// buildSuggestion converts a value move into a concrete trade and verifies it
// through the simulator. Moves that narrow to zero or that the engine would
// reject are dropped.
func buildSuggestion(pool *engine.Pool, deficit, surplus *deviation, move sdkmath.Int, planLogger zerolog.Logger) (TradeSuggestion, bool) {
	slotIn, err := pool.Slot(deficit.asset)
	if err != nil {
		return TradeSuggestion{}, false
	}

	amountInInternal, err := utils.MulDiv(move, utils.Scale, deficit.price)
	if err != nil {
		return TradeSuggestion{}, false
	}
	amountIn, err := utils.ToNative(amountInInternal, slotIn.DecimalScaleFactor)
	if err != nil || !amountIn.IsPositive() {
		return TradeSuggestion{}, false
	}

	estimate, err := simulations.SimulateSwap(pool, deficit.asset, surplus.asset, amountIn)
	if err != nil {
		planLogger.Warn().Err(err).
			Str("assetIn", string(deficit.asset)).
			Str("assetOut", string(surplus.asset)).
			Msg("Rebalancing trade rejected by simulator, dropping suggestion")
		return TradeSuggestion{}, false
	}

	return TradeSuggestion{
		AssetIn:      deficit.asset,
		AssetOut:     surplus.asset,
		AmountIn:     amountIn,
		EstimatedOut: estimate.AmountOut,
		ValueMoved:   move,
	}, true
}

// sortDeviations orders by magnitude descending, asset ID ascending on ties,
// so plans are deterministic for a given pool state.
func sortDeviations(devs []deviation) {
	sort.Slice(devs, func(i, j int) bool {
		if devs[i].amount.Equal(devs[j].amount) {
			return devs[i].asset < devs[j].asset
		}
		return devs[i].amount.GT(devs[j].amount)
	})
}
