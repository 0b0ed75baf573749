package engine

import (
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rammlabs/ramm/internal/oracle"
	"github.com/rammlabs/ramm/internal/types"
	"github.com/rammlabs/ramm/internal/utils"
)

// Reference allocation of 500 ETH at 2000 and 900,000 USDT, traded one ETH at
// a time. Every leg pays its fee in USDT and never in ETH.
func TestProtocolFeeAccruesOnOutboundSideOnly(t *testing.T) {
	r := newSeededRig(t)

	for leg := 1; leg <= 3; leg++ {
		_, err := r.pool.SwapExactIn(types.TradeRequest{
			AssetIn:  ethAsset,
			AssetOut: usdtAsset,
			AmountIn: sdkmath.NewInt(1_0000_0000),
		})
		require.NoError(t, err)

		eth := r.slot(t, ethAsset)
		usdt := r.slot(t, usdtAsset)
		assert.True(t, eth.CollectedProtocolFees.IsZero(), "leg %d accrued ETH fees", leg)
		assert.Equal(t, sdkmath.NewInt(600_000).MulRaw(int64(leg)), usdt.CollectedProtocolFees)
	}

	assert.True(t, r.slot(t, usdtAsset).CollectedProtocolFees.IsPositive())
}

// Both feeds move 5% inside one volatility window, so a trade pays the base
// rate plus both surcharges: 0.1% + 5% + 5%.
func TestVolatilitySurchargeOnBothLegs(t *testing.T) {
	r := newSeededRig(t)

	r.now += 600
	r.setPriceE8(ethFeed, 2100_0000_0000, r.now) // 2000 -> 2100
	r.setPriceE8(usdtFeed, 1_0500_0000, r.now)   // 1.00 -> 1.05

	result, err := r.pool.SwapExactIn(types.TradeRequest{
		AssetIn:  usdtAsset,
		AssetOut: ethAsset,
		AmountIn: sdkmath.NewInt(10_000_000_000), // 10,000 USDT
	})
	require.NoError(t, err)

	fivePercent := utils.Scale.QuoRaw(20)
	wantRate := utils.Scale.QuoRaw(1000).Add(fivePercent).Add(fivePercent)
	assert.Equal(t, wantRate, result.FeeRate)

	// 10,000 USDT at 1.05 buys 5 ETH gross at 2100; 10.1% of that stays as
	// fees, 30% of which is earmarked for the protocol.
	assert.Equal(t, utils.Scale.MulRaw(5), result.GrossNotional)
	assert.Equal(t, sdkmath.NewInt(449_500_000), result.AmountOut)  // 4.495 ETH
	assert.Equal(t, sdkmath.NewInt(15_150_000), result.ProtocolFee) // 0.1515 ETH
	assert.Equal(t, ethAsset, result.FeeAsset)

	// The committed slots carry the refreshed volatility state.
	assert.Equal(t, fivePercent, r.slot(t, ethAsset).VolatilityIndex)
	assert.Equal(t, fivePercent, r.slot(t, usdtAsset).VolatilityIndex)
}

// After a quiet interval longer than the window the accumulated index is
// discarded and a stable price pays the base rate again.
func TestVolatilitySurchargeDecaysAfterQuietWindow(t *testing.T) {
	r := newSeededRig(t)

	r.now += 600
	r.setPriceE8(ethFeed, 2100_0000_0000, r.now)
	r.setPriceE8(usdtFeed, 1_0500_0000, r.now)
	_, err := r.pool.SwapExactIn(types.TradeRequest{
		AssetIn:  usdtAsset,
		AssetOut: ethAsset,
		AmountIn: sdkmath.NewInt(10_000_000_000),
	})
	require.NoError(t, err)

	// Prices hold steady past a full window.
	r.now += 3601
	r.setPriceE8(ethFeed, 2100_0000_0000, r.now)
	r.setPriceE8(usdtFeed, 1_0500_0000, r.now)

	result, err := r.pool.SwapExactIn(types.TradeRequest{
		AssetIn:  usdtAsset,
		AssetOut: ethAsset,
		AmountIn: sdkmath.NewInt(100_000_000), // 100 USDT
	})
	require.NoError(t, err)
	assert.Equal(t, utils.Scale.QuoRaw(1000), result.FeeRate)
	assert.True(t, r.slot(t, ethAsset).VolatilityIndex.IsZero())
}

// A trade between two assets still reads every slot in the basket, so a stale
// feed on an asset that is not even moving aborts it with nothing mutated.
func TestTradeAbortsOnStaleThirdFeed(t *testing.T) {
	r := newThreeAssetRig(t)

	r.setPriceE8(daiFeed, 1_0000_0000, r.now-3601)

	ethBefore := r.slot(t, ethAsset)
	usdtBefore := r.slot(t, usdtAsset)
	daiBefore := r.slot(t, daiAsset)
	eventsBefore := len(r.sink.Events())

	_, err := r.pool.SwapExactIn(types.TradeRequest{
		AssetIn:  ethAsset,
		AssetOut: usdtAsset,
		AmountIn: sdkmath.NewInt(1_0000_0000),
	})
	assert.ErrorIs(t, err, oracle.ErrStalePrice)

	assert.Equal(t, ethBefore, r.slot(t, ethAsset))
	assert.Equal(t, usdtBefore, r.slot(t, usdtAsset))
	assert.Equal(t, daiBefore, r.slot(t, daiAsset))
	assert.Len(t, r.sink.Events(), eventsBefore)
}

// Committing a trade refreshes the volatility baseline of every slot, the
// non-moving third asset included, without pricing its surcharge into the
// unrelated pair.
func TestTradeRefreshesThirdAssetVolatility(t *testing.T) {
	r := newThreeAssetRig(t)

	r.now += 600
	r.setPriceE8(ethFeed, 2000_0000_0000, r.now)
	r.setPriceE8(usdtFeed, 1_0000_0000, r.now)
	r.setPriceE8(daiFeed, 1_0500_0000, r.now) // 1.00 -> 1.05

	result, err := r.pool.SwapExactIn(types.TradeRequest{
		AssetIn:  ethAsset,
		AssetOut: usdtAsset,
		AmountIn: sdkmath.NewInt(1_0000_0000),
	})
	require.NoError(t, err)

	// Only the moving legs contribute to the fee rate.
	assert.Equal(t, utils.Scale.QuoRaw(1000), result.FeeRate)

	dai := r.slot(t, daiAsset)
	assert.Equal(t, utils.Scale.QuoRaw(20), dai.VolatilityIndex)
	assert.Equal(t, sdkmath.NewInt(1_050_000_000_000), dai.PreviousPrice)
	assert.Equal(t, r.now, dai.PreviousPriceAt)
}
