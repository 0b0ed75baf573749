package simulations

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

// newSeededPool builds an ETH/USDT pool holding 500 ETH at 2000 and 900,000
// USDT at 1.00.
func newSeededPool(t *testing.T) *engine.Pool {
	t.Helper()

	feed := oracle.NewStaticFeed()
	params := config.DefaultEngineParameters
	gateway := oracle.NewGateway(feed, params.StalenessThresholdSeconds, func() int64 { return testNow })

	pool, err := engine.NewPool(engine.Config{
		PoolID:       "sim-test",
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

	_, err = pool.Deposit(ethAsset, sdkmath.NewInt(500_0000_0000))
	require.NoError(t, err)
	_, err = pool.Deposit(usdtAsset, sdkmath.NewInt(900_000_000_000))
	require.NoError(t, err)
	return pool
}

func TestSimulateSwapMatchesExecution(t *testing.T) {
	pool := newSeededPool(t)

	before, err := pool.Slot(usdtAsset)
	require.NoError(t, err)

	estimate, err := SimulateSwap(pool, ethAsset, usdtAsset, sdkmath.NewInt(1_0000_0000))
	require.NoError(t, err)
	assert.Equal(t, sdkmath.NewInt(1_998_000_000), estimate.AmountOut)
	assert.Equal(t, sdkmath.NewInt(600_000), estimate.ProtocolFee)
	assert.Equal(t, usdtAsset, estimate.FeeAsset)

	// The simulation must not have touched the pool.
	after, err := pool.Slot(usdtAsset)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	// Executing the same trade produces exactly the estimated outcome.
	result, err := pool.SwapExactIn(types.TradeRequest{
		AssetIn:  ethAsset,
		AssetOut: usdtAsset,
		AmountIn: sdkmath.NewInt(1_0000_0000),
	})
	require.NoError(t, err)
	assert.Equal(t, estimate.AmountOut, result.AmountOut)
	assert.Equal(t, estimate.NetFee, result.NetFee)
	assert.Equal(t, estimate.ProtocolFee, result.ProtocolFee)
}

func TestSimulateDepositAndWithdraw(t *testing.T) {
	pool := newSeededPool(t)

	deposit, err := SimulateDeposit(pool, usdtAsset, sdkmath.NewInt(100_000_000))
	require.NoError(t, err)
	assert.Equal(t, sdkmath.NewInt(100_000_000).Mul(utils.PowTen(6)), deposit.SharesOut)

	withdraw, err := SimulateWithdraw(pool, usdtAsset, utils.Scale)
	require.NoError(t, err)
	assert.Equal(t, sdkmath.NewInt(1_000_000), withdraw.AmountOut) // 1 USDT per internal share

	// Neither estimate moved the balance or the supply.
	slot, err := pool.Slot(usdtAsset)
	require.NoError(t, err)
	assert.Equal(t, sdkmath.NewInt(900_000_000_000).Mul(utils.PowTen(6)), slot.Balance)
	assert.Equal(t, slot.Balance, slot.LPSupply)
}

func TestSimulateSwapPropagatesEngineErrors(t *testing.T) {
	pool := newSeededPool(t)

	_, err := SimulateSwap(pool, ethAsset, usdtAsset, sdkmath.NewInt(1))
	assert.ErrorIs(t, err, engine.ErrTradeTooSmall)

	_, err = SimulateSwap(pool, ethAsset, ethAsset, sdkmath.NewInt(1_0000_0000))
	assert.ErrorIs(t, err, engine.ErrSameAsset)
}
