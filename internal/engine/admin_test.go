package engine

import (
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rammlabs/ramm/internal/oracle"
	"github.com/rammlabs/ramm/internal/types"
)

func TestAdminTokenValidation(t *testing.T) {
	r := newSeededRig(t)

	err := r.pool.SetFeeCollector(AdminToken{}, "somebody")
	assert.ErrorIs(t, err, ErrNotAuthorized)

	err = r.pool.SetFeeCollector(AdminToken{ID: "forged-cap"}, "somebody")
	assert.ErrorIs(t, err, ErrCapabilityMismatch)

	require.NoError(t, r.pool.SetFeeCollector(r.admin(), "treasury-v2"))
	assert.Equal(t, "treasury-v2", r.pool.FeeCollector())
}

func TestAddAssetValidation(t *testing.T) {
	pool := newUninitializedPool(t)
	admin := AdminToken{ID: adminID}

	require.NoError(t, pool.AddAsset(admin, ethAsset, 8, sdkmath.NewInt(1), ethFeed))

	err := pool.AddAsset(admin, ethAsset, 8, sdkmath.NewInt(1), ethFeed)
	assert.ErrorIs(t, err, ErrDuplicateAsset)

	// Native precision beyond the internal scale cannot be widened.
	err = pool.AddAsset(admin, types.AssetID("WEI"), 13, sdkmath.NewInt(1), "wei-usd")
	assert.ErrorIs(t, err, ErrUnsupportedDecimals)

	err = pool.AddAsset(admin, usdtAsset, 6, sdkmath.NewInt(-1), usdtFeed)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	err = pool.AddAsset(admin, usdtAsset, 6, sdkmath.NewInt(1), "")
	assert.Error(t, err)
}

func TestInitializeAssetBounds(t *testing.T) {
	pool := newUninitializedPool(t)
	admin := AdminToken{ID: adminID}

	require.NoError(t, pool.AddAsset(admin, ethAsset, 8, sdkmath.NewInt(1), ethFeed))
	err := pool.Initialize(admin)
	assert.ErrorIs(t, err, ErrAssetCount)

	require.NoError(t, pool.AddAsset(admin, usdtAsset, 6, sdkmath.NewInt(1), usdtFeed))
	require.NoError(t, pool.Initialize(admin))
	assert.True(t, pool.Initialized())

	// The asset set is frozen now.
	err = pool.Initialize(admin)
	assert.ErrorIs(t, err, ErrPoolInitialized)
	err = pool.AddAsset(admin, types.AssetID("DAI"), 6, sdkmath.NewInt(1), "dai-usd")
	assert.ErrorIs(t, err, ErrPoolInitialized)
}

func TestSetMinimumTradeAmountTakesEffect(t *testing.T) {
	r := newSeededRig(t)

	// Raise the ETH floor to 10 ETH; a previously fine 1 ETH trade is now
	// dust.
	require.NoError(t, r.pool.SetMinimumTradeAmount(r.admin(), ethAsset, sdkmath.NewInt(10_0000_0000)))

	_, err := r.pool.SwapExactIn(types.TradeRequest{
		AssetIn:  ethAsset,
		AssetOut: usdtAsset,
		AmountIn: sdkmath.NewInt(1_0000_0000),
	})
	assert.ErrorIs(t, err, ErrTradeTooSmall)
}

func TestSetOracleFeedIDRepointsPricing(t *testing.T) {
	r := newSeededRig(t)

	require.NoError(t, r.pool.SetOracleFeedID(r.admin(), ethAsset, "eth-usd-v2"))

	req := types.TradeRequest{
		AssetIn:  ethAsset,
		AssetOut: usdtAsset,
		AmountIn: sdkmath.NewInt(1_0000_0000),
	}
	_, err := r.pool.SwapExactIn(req)
	assert.ErrorIs(t, err, oracle.ErrUnknownFeed)

	r.setPriceE8("eth-usd-v2", 2000_0000_0000, r.now)
	_, err = r.pool.SwapExactIn(req)
	assert.NoError(t, err)
}

func TestCollectProtocolFees(t *testing.T) {
	r := newSeededRig(t)

	_, err := r.pool.SwapExactIn(types.TradeRequest{
		AssetIn:  ethAsset,
		AssetOut: usdtAsset,
		AmountIn: sdkmath.NewInt(1_0000_0000),
	})
	require.NoError(t, err)

	custodyBefore := r.custody.Custody(usdtAsset)

	collected, err := r.pool.CollectProtocolFees(r.admin())
	require.NoError(t, err)
	require.Len(t, collected, 1)
	assert.Equal(t, sdkmath.NewInt(600_000), collected[usdtAsset])

	assert.True(t, r.slot(t, usdtAsset).CollectedProtocolFees.IsZero())
	assert.Equal(t, custodyBefore.SubRaw(600_000), r.custody.Custody(usdtAsset))

	// Nothing left to pay out.
	collected, err = r.pool.CollectProtocolFees(r.admin())
	require.NoError(t, err)
	assert.Empty(t, collected)
}

func TestSnapshotEmitsPoolStateEvent(t *testing.T) {
	r := newSeededRig(t)
	eventsBefore := len(r.sink.Events())

	event := r.pool.Snapshot()
	assert.Equal(t, types.EventKindPoolState, event.Kind)
	assert.Equal(t, "ramm-test", event.PoolID)
	assert.Len(t, event.Assets, 2)
	assert.NotEmpty(t, event.EventID)

	events := r.sink.Events()
	require.Len(t, events, eventsBefore+1)
	assert.Equal(t, event.EventID, events[len(events)-1].EventID)
}
