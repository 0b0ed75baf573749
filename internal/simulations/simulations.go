// Package simulations estimates the outcome of pool operations without
// executing them. Every function here delegates to the pool's quote path, so
// an estimate applies exactly the pricing, fee and bound checks a real
// operation would, and fails with the same errors.
package simulations

import (
	"fmt"

	sdkmath "cosmossdk.io/math"

	"github.com/rammlabs/ramm/internal/engine"
	"github.com/rammlabs/ramm/internal/logger"
	"github.com/rammlabs/ramm/internal/types"
)

var (
	swapLogger     = logger.GetForComponent("swap_simulator")
	depositLogger  = logger.GetForComponent("deposit_simulator")
	withdrawLogger = logger.GetForComponent("withdraw_simulator")
)

// SwapEstimationResult contains the result of a swap simulation.
type SwapEstimationResult struct {
	AssetIn     types.AssetID `json:"asset_in"`
	AssetOut    types.AssetID `json:"asset_out"`
	AmountIn    sdkmath.Int   `json:"amount_in"`
	AmountOut   sdkmath.Int   `json:"amount_out"`
	FeeRate     sdkmath.Int   `json:"fee_rate"`
	NetFee      sdkmath.Int   `json:"net_fee"`
	ProtocolFee sdkmath.Int   `json:"protocol_fee"`
	FeeAsset    types.AssetID `json:"fee_asset"`
}

// DepositEstimationResult contains the result of a deposit simulation.
type DepositEstimationResult struct {
	Asset     types.AssetID `json:"asset"`
	AmountIn  sdkmath.Int   `json:"amount_in"`
	SharesOut sdkmath.Int   `json:"shares_out"`
}

// WithdrawEstimationResult contains the result of a withdrawal simulation.
type WithdrawEstimationResult struct {
	Asset     types.AssetID `json:"asset"`
	SharesIn  sdkmath.Int   `json:"shares_in"`
	AmountOut sdkmath.Int   `json:"amount_out"`
}

// SimulateSwap estimates a fixed-input trade against the pool's current
// state and oracle readings.
func SimulateSwap(pool *engine.Pool, assetIn, assetOut types.AssetID, amountIn sdkmath.Int) (SwapEstimationResult, error) {
	quote, err := pool.QuoteExactIn(types.TradeRequest{
		AssetIn:  assetIn,
		AssetOut: assetOut,
		AmountIn: amountIn,
	})
	if err != nil {
		swapLogger.Debug().Err(err).
			Str("assetIn", string(assetIn)).
			Str("assetOut", string(assetOut)).
			Msg("Swap simulation rejected")
		return SwapEstimationResult{}, fmt.Errorf("simulating swap %s -> %s: %w", assetIn, assetOut, err)
	}

	swapLogger.Info().
		Str("tokenIn", fmt.Sprintf("%s%s", quote.AmountIn.String(), assetIn)).
		Str("tokenOut", fmt.Sprintf("%s%s", quote.AmountOut.String(), assetOut)).
		Str("feeRate", quote.FeeRate.String()).
		Msg("Swap simulation completed")

	return SwapEstimationResult{
		AssetIn:     assetIn,
		AssetOut:    assetOut,
		AmountIn:    quote.AmountIn,
		AmountOut:   quote.AmountOut,
		FeeRate:     quote.FeeRate,
		NetFee:      quote.NetFee,
		ProtocolFee: quote.ProtocolFee,
		FeeAsset:    quote.FeeAsset,
	}, nil
}

// SimulateDeposit estimates the LP shares minted for a deposit.
func SimulateDeposit(pool *engine.Pool, asset types.AssetID, amount sdkmath.Int) (DepositEstimationResult, error) {
	quote, err := pool.QuoteDeposit(asset, amount)
	if err != nil {
		depositLogger.Debug().Err(err).Str("asset", string(asset)).Msg("Deposit simulation rejected")
		return DepositEstimationResult{}, fmt.Errorf("simulating deposit of %s: %w", asset, err)
	}

	depositLogger.Info().
		Str("asset", string(asset)).
		Str("amountIn", quote.Amount.String()).
		Str("sharesOut", quote.SharesMinted.String()).
		Msg("Deposit simulation completed")

	return DepositEstimationResult{
		Asset:     asset,
		AmountIn:  quote.Amount,
		SharesOut: quote.SharesMinted,
	}, nil
}

// SimulateWithdraw estimates the payout for burning LP shares.
func SimulateWithdraw(pool *engine.Pool, asset types.AssetID, shares sdkmath.Int) (WithdrawEstimationResult, error) {
	quote, err := pool.QuoteWithdraw(asset, shares)
	if err != nil {
		withdrawLogger.Debug().Err(err).Str("asset", string(asset)).Msg("Withdrawal simulation rejected")
		return WithdrawEstimationResult{}, fmt.Errorf("simulating withdrawal of %s: %w", asset, err)
	}

	withdrawLogger.Info().
		Str("asset", string(asset)).
		Str("sharesIn", quote.SharesBurned.String()).
		Str("amountOut", quote.Amount.String()).
		Msg("Withdrawal simulation completed")

	return WithdrawEstimationResult{
		Asset:     asset,
		SharesIn:  quote.SharesBurned,
		AmountOut: quote.Amount,
	}, nil
}
