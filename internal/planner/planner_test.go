package planner

import (
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rammlabs/ramm/internal/config"
	"github.com/rammlabs/ramm/internal/engine"
	"github.com/rammlabs/ramm/internal/ledger"
	"github.com/rammlabs/ramm/internal/oracle"
	"github.com/rammlabs/ramm/internal/types"
	"github.com/rammlabs/ramm/internal/utils"
)

const testNow = int64(1_700_000_000)

const (
	ethAsset  = types.AssetID("ETH")
	usdtAsset = types.AssetID("USDT")
)

func newTestPool(t *testing.T) (*engine.Pool, *oracle.StaticFeed) {
	t.Helper()

	feed := oracle.NewStaticFeed()
	params := config.DefaultEngineParameters
	gateway := oracle.NewGateway(feed, params.StalenessThresholdSeconds, func() int64 { return testNow })

	pool, err := engine.NewPool(engine.Config{
		PoolID:       "planner-test",
		AdminTokenID: "admin-cap",
		FeeCollector: "fee-collector",
		Params:       params,
		Gateway:      gateway,
		Ledger:       ledger.NewMemoryLedger(),
		Events:       engine.NopSink{},
	})
	require.NoError(t, err)

	admin := engine.AdminToken{ID: "admin-cap"}
	require.NoError(t, pool.AddAsset(admin, ethAsset, 8, sdkmath.NewInt(10_000), "eth-usd"))
	require.NoError(t, pool.AddAsset(admin, usdtAsset, 6, sdkmath.NewInt(1_000), "usdt-usd"))
	require.NoError(t, pool.Initialize(admin))

	feed.Set("eth-usd", oracle.Reading{
		Price:     sdkmath.NewInt(2000).Mul(utils.PowTen(8)),
		Scale:     utils.PowTen(8),
		Timestamp: testNow,
	})
	feed.Set("usdt-usd", oracle.Reading{
		Price:     utils.PowTen(8),
		Scale:     utils.PowTen(8),
		Timestamp: testNow,
	})
	return pool, feed
}

func TestGenerateRebalancePlanBalancedPool(t *testing.T) {
	pool, _ := newTestPool(t)

	// 450 ETH at 2000 and 900,000 USDT at 1.00 hold identical value.
	_, err := pool.Deposit(ethAsset, sdkmath.NewInt(450_0000_0000))
	require.NoError(t, err)
	_, err = pool.Deposit(usdtAsset, sdkmath.NewInt(900_000_000_000))
	require.NoError(t, err)

	plan, err := GenerateRebalancePlan(pool)
	require.NoError(t, err)

	assert.Equal(t, "planner-test", plan.PoolID)
	assert.Equal(t, utils.Scale.MulRaw(1_800_000), plan.TotalValue)
	assert.Empty(t, plan.Suggestions)
	require.Len(t, plan.Allocations, 2)
	for _, alloc := range plan.Allocations {
		assert.Equal(t, utils.Scale, alloc.Ratio, "asset %s off target in a balanced pool", alloc.Asset)
	}
}

func TestGenerateRebalancePlanSuggestsTrade(t *testing.T) {
	pool, _ := newTestPool(t)

	// 500 ETH is worth 1,000,000 against 900,000 USDT: ETH carries a 50,000
	// surplus and USDT the matching deficit.
	_, err := pool.Deposit(ethAsset, sdkmath.NewInt(500_0000_0000))
	require.NoError(t, err)
	_, err = pool.Deposit(usdtAsset, sdkmath.NewInt(900_000_000_000))
	require.NoError(t, err)

	plan, err := GenerateRebalancePlan(pool)
	require.NoError(t, err)
	require.Len(t, plan.Suggestions, 1)

	suggestion := plan.Suggestions[0]
	assert.Equal(t, usdtAsset, suggestion.AssetIn)
	assert.Equal(t, ethAsset, suggestion.AssetOut)
	assert.Equal(t, sdkmath.NewInt(50_000_000_000), suggestion.AmountIn) // 50,000 USDT
	assert.Equal(t, utils.Scale.MulRaw(50_000), suggestion.ValueMoved)
	// 25 ETH gross minus the 0.1% fee.
	assert.Equal(t, sdkmath.NewInt(2_497_500_000), suggestion.EstimatedOut)

	// The plan itself never trades.
	slot, err := pool.Slot(usdtAsset)
	require.NoError(t, err)
	assert.Equal(t, sdkmath.NewInt(900_000_000_000).Mul(utils.PowTen(6)), slot.Balance)
}

func TestGenerateRebalancePlanEmptyPool(t *testing.T) {
	pool, _ := newTestPool(t)

	plan, err := GenerateRebalancePlan(pool)
	require.NoError(t, err)
	assert.True(t, plan.TotalValue.IsZero())
	assert.Empty(t, plan.Suggestions)
}

func TestGenerateRebalancePlanUninitializedPool(t *testing.T) {
	feed := oracle.NewStaticFeed()
	gateway := oracle.NewGateway(feed, 3600, func() int64 { return testNow })
	pool, err := engine.NewPool(engine.Config{
		PoolID:       "planner-test",
		AdminTokenID: "admin-cap",
		FeeCollector: "fee-collector",
		Params:       config.DefaultEngineParameters,
		Gateway:      gateway,
		Ledger:       ledger.NewMemoryLedger(),
		Events:       engine.NopSink{},
	})
	require.NoError(t, err)

	_, err = GenerateRebalancePlan(pool)
	assert.ErrorIs(t, err, ErrPoolNotInitialized)
}

func TestGenerateRebalancePlanStaleFeed(t *testing.T) {
	pool, feed := newTestPool(t)

	_, err := pool.Deposit(ethAsset, sdkmath.NewInt(450_0000_0000))
	require.NoError(t, err)
	_, err = pool.Deposit(usdtAsset, sdkmath.NewInt(900_000_000_000))
	require.NoError(t, err)

	feed.Set("usdt-usd", oracle.Reading{
		Price:     utils.PowTen(8),
		Scale:     utils.PowTen(8),
		Timestamp: testNow - 3601,
	})

	_, err = GenerateRebalancePlan(pool)
	assert.ErrorIs(t, err, ErrPricingFailed)
}
