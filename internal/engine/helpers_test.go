package engine

import (
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/require"

	"github.com/rammlabs/ramm/internal/config"
	"github.com/rammlabs/ramm/internal/ledger"
	"github.com/rammlabs/ramm/internal/oracle"
	"github.com/rammlabs/ramm/internal/types"
	"github.com/rammlabs/ramm/internal/utils"
)

const (
	ethAsset  = types.AssetID("ETH")
	usdtAsset = types.AssetID("USDT")
	daiAsset  = types.AssetID("DAI")

	ethFeed  = "eth-usd"
	usdtFeed = "usdt-usd"
	daiFeed  = "dai-usd"

	adminID = "admin-cap"

	startTime = int64(1_700_000_000)
)

// rig wires a two-asset ETH/USDT pool against an in-memory feed, ledger and
// event sink, with a controllable clock.
type rig struct {
	pool    *Pool
	feed    *oracle.StaticFeed
	custody *ledger.MemoryLedger
	sink    *MemorySink
	now     int64
}

func (r *rig) admin() AdminToken {
	return AdminToken{ID: adminID}
}

// setPriceE8 publishes a reading quoted at 8 decimals.
func (r *rig) setPriceE8(feedID string, priceE8 int64, timestamp int64) {
	r.feed.Set(feedID, oracle.Reading{
		Price:     sdkmath.NewInt(priceE8),
		Scale:     utils.PowTen(8),
		Timestamp: timestamp,
	})
}

func (r *rig) slot(t *testing.T, asset types.AssetID) types.AssetSlot {
	t.Helper()
	slot, err := r.pool.Slot(asset)
	require.NoError(t, err)
	return slot
}

// newTestRig builds an initialized but empty ETH/USDT pool. ETH uses 8 native
// decimals, USDT 6.
func newTestRig(t *testing.T) *rig {
	t.Helper()

	r := &rig{
		feed:    oracle.NewStaticFeed(),
		custody: ledger.NewMemoryLedger(),
		sink:    NewMemorySink(),
		now:     startTime,
	}

	params := config.DefaultEngineParameters
	gateway := oracle.NewGateway(r.feed, params.StalenessThresholdSeconds, func() int64 { return r.now })

	pool, err := NewPool(Config{
		PoolID:       "ramm-test",
		AdminTokenID: adminID,
		FeeCollector: "fee-collector",
		Params:       params,
		Gateway:      gateway,
		Ledger:       r.custody,
		Events:       r.sink,
	})
	require.NoError(t, err)
	r.pool = pool

	admin := r.admin()
	// 0.0001 ETH and 0.001 USDT anti-dust floors.
	require.NoError(t, pool.AddAsset(admin, ethAsset, 8, sdkmath.NewInt(10_000), ethFeed))
	require.NoError(t, pool.AddAsset(admin, usdtAsset, 6, sdkmath.NewInt(1_000), usdtFeed))
	require.NoError(t, pool.Initialize(admin))

	// ETH at 2000, USDT at 1.00.
	r.setPriceE8(ethFeed, 2000_0000_0000, r.now)
	r.setPriceE8(usdtFeed, 1_0000_0000, r.now)

	return r
}

// newSeededRig additionally funds the pool with the reference allocation of
// 500 ETH and 900,000 USDT.
func newSeededRig(t *testing.T) *rig {
	t.Helper()
	r := newTestRig(t)

	_, err := r.pool.Deposit(ethAsset, sdkmath.NewInt(500_0000_0000)) // 500 ETH at 8 decimals
	require.NoError(t, err)
	_, err = r.pool.Deposit(usdtAsset, sdkmath.NewInt(900_000_000_000)) // 900,000 USDT at 6 decimals
	require.NoError(t, err)

	return r
}

// newThreeAssetRig builds a pool with a third stablecoin slot alongside the
// reference pair, funded at the equal-value allocation: 300 ETH, 600,000 USDT
// and 600,000 DAI.
func newThreeAssetRig(t *testing.T) *rig {
	t.Helper()

	r := &rig{
		feed:    oracle.NewStaticFeed(),
		custody: ledger.NewMemoryLedger(),
		sink:    NewMemorySink(),
		now:     startTime,
	}

	params := config.DefaultEngineParameters
	gateway := oracle.NewGateway(r.feed, params.StalenessThresholdSeconds, func() int64 { return r.now })

	pool, err := NewPool(Config{
		PoolID:       "ramm-test",
		AdminTokenID: adminID,
		FeeCollector: "fee-collector",
		Params:       params,
		Gateway:      gateway,
		Ledger:       r.custody,
		Events:       r.sink,
	})
	require.NoError(t, err)
	r.pool = pool

	admin := r.admin()
	require.NoError(t, pool.AddAsset(admin, ethAsset, 8, sdkmath.NewInt(10_000), ethFeed))
	require.NoError(t, pool.AddAsset(admin, usdtAsset, 6, sdkmath.NewInt(1_000), usdtFeed))
	require.NoError(t, pool.AddAsset(admin, daiAsset, 6, sdkmath.NewInt(1_000), daiFeed))
	require.NoError(t, pool.Initialize(admin))

	r.setPriceE8(ethFeed, 2000_0000_0000, r.now)
	r.setPriceE8(usdtFeed, 1_0000_0000, r.now)
	r.setPriceE8(daiFeed, 1_0000_0000, r.now)

	_, err = r.pool.Deposit(ethAsset, sdkmath.NewInt(300_0000_0000))
	require.NoError(t, err)
	_, err = r.pool.Deposit(usdtAsset, sdkmath.NewInt(600_000_000_000))
	require.NoError(t, err)
	_, err = r.pool.Deposit(daiAsset, sdkmath.NewInt(600_000_000_000))
	require.NoError(t, err)

	return r
}

// newUninitializedPool builds a pool with no assets registered and the asset
// set not yet frozen.
func newUninitializedPool(t *testing.T) *Pool {
	t.Helper()
	gateway := oracle.NewGateway(oracle.NewStaticFeed(),
		config.DefaultEngineParameters.StalenessThresholdSeconds,
		func() int64 { return startTime })
	pool, err := NewPool(Config{
		PoolID:       "ramm-test",
		AdminTokenID: adminID,
		FeeCollector: "fee-collector",
		Params:       config.DefaultEngineParameters,
		Gateway:      gateway,
		Ledger:       ledger.NewMemoryLedger(),
		Events:       NopSink{},
	})
	require.NoError(t, err)
	return pool
}

// poolValue computes the pool's total value at the given internal scale
// prices, for monotonicity assertions.
func poolValue(t *testing.T, r *rig, prices map[types.AssetID]sdkmath.Int) sdkmath.Int {
	t.Helper()
	total := sdkmath.ZeroInt()
	for asset, price := range prices {
		slot := r.slot(t, asset)
		value, err := utils.Mul(slot.Balance, price)
		require.NoError(t, err)
		total = total.Add(value)
	}
	return total
}
