/*

This file contains the pool aggregate: the asset slot table, the lifecycle
from asset addition to initialization, and the administrative operations
gated by the admin token.

The trade and liquidity paths live in trade.go and liquidity.go. Every
operation in this package follows the same shape: validate everything,
compute every new value into locals, and only then assign and emit. A failed
operation leaves the pool untouched.

*/

package engine

import (
	"fmt"

	sdkmath "cosmossdk.io/math"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/rammlabs/ramm/internal/analyzer"
	"github.com/rammlabs/ramm/internal/ledger"
	"github.com/rammlabs/ramm/internal/logger"
	"github.com/rammlabs/ramm/internal/oracle"
	"github.com/rammlabs/ramm/internal/types"
	"github.com/rammlabs/ramm/internal/utils"
)

// AdminToken is the explicit credential for administrative operations. It is
// validated by identity comparison against the pool's stored admin ID; there
// is no ambient authority.
type AdminToken struct {
	ID string
}

// Config holds the dependencies for creating a new Pool.
type Config struct {
	PoolID       string
	AdminTokenID string
	FeeCollector string
	Params       types.EngineParameters
	Gateway      oracle.Gateway
	Ledger       ledger.Ledger
	Events       EventSink
}

// Pool is the shared mutable aggregate: an ordered set of asset slots plus
// the engine parameters and collaborators needed to price against them.
// Callers are serialized by the hosting environment; the pool itself only
// guarantees that each operation is atomic.
type Pool struct {
	logger       zerolog.Logger
	id           string
	adminID      string
	feeCollector string
	params       types.EngineParameters
	gateway      oracle.Gateway
	ledger       ledger.Ledger
	events       EventSink

	initialized bool
	order       []types.AssetID
	slots       map[types.AssetID]*types.AssetSlot
}

// NewPool creates an uninitialized pool. Assets are added afterwards with
// AddAsset and the set is frozen by Initialize.
func NewPool(cfg Config) (*Pool, error) {
	if err := validatePoolConfig(cfg); err != nil {
		return nil, fmt.Errorf("pool configuration validation failed: %w", err)
	}

	pool := &Pool{
		logger:       logger.GetForComponent("pool_engine"),
		id:           cfg.PoolID,
		adminID:      cfg.AdminTokenID,
		feeCollector: cfg.FeeCollector,
		params:       cfg.Params,
		gateway:      cfg.Gateway,
		ledger:       cfg.Ledger,
		events:       cfg.Events,
		slots:        make(map[types.AssetID]*types.AssetSlot),
	}

	pool.logger.Info().
		Str("poolID", pool.id).
		Str("feeCollector", pool.feeCollector).
		Msg("Pool created, awaiting asset registration")

	return pool, nil
}

// validatePoolConfig validates the pool configuration.
func validatePoolConfig(cfg Config) error {
	if cfg.PoolID == "" {
		return fmt.Errorf("pool ID cannot be empty")
	}
	if cfg.AdminTokenID == "" {
		return fmt.Errorf("admin token ID cannot be empty")
	}
	if cfg.FeeCollector == "" {
		return fmt.Errorf("fee collector cannot be empty")
	}
	if cfg.Ledger == nil {
		return fmt.Errorf("ledger cannot be nil")
	}
	if cfg.Events == nil {
		return fmt.Errorf("event sink cannot be nil")
	}
	if cfg.Params.BaseFeeRate.IsNil() || cfg.Params.BaseFeeRate.IsNegative() {
		return fmt.Errorf("base fee rate must be zero or positive")
	}
	if cfg.Params.ProtocolFeeFraction.IsNil() || cfg.Params.ProtocolFeeFraction.IsNegative() ||
		cfg.Params.ProtocolFeeFraction.GT(utils.Scale) {
		return fmt.Errorf("protocol fee fraction must be between 0 and 1")
	}
	if cfg.Params.StalenessThresholdSeconds <= 0 {
		return fmt.Errorf("staleness threshold must be positive")
	}
	if cfg.Params.VolatilityWindowSeconds <= 0 {
		return fmt.Errorf("volatility window must be positive")
	}
	if cfg.Params.ImbalanceDelta.IsNil() || cfg.Params.ImbalanceDelta.IsNegative() {
		return fmt.Errorf("imbalance delta must be zero or positive")
	}
	if cfg.Params.MinAssets < 2 || cfg.Params.MaxAssets < cfg.Params.MinAssets {
		return fmt.Errorf("asset bounds are invalid")
	}
	return nil
}

// authorize validates an admin token against the pool's stored admin ID.
func (p *Pool) authorize(token AdminToken) error {
	if token.ID == "" {
		return ErrNotAuthorized
	}
	if token.ID != p.adminID {
		return ErrCapabilityMismatch
	}
	return nil
}

// ID returns the pool identifier.
func (p *Pool) ID() string { return p.id }

// Initialized reports whether the asset set has been frozen.
func (p *Pool) Initialized() bool { return p.initialized }

// Assets returns the asset IDs in registration order.
func (p *Pool) Assets() []types.AssetID {
	out := make([]types.AssetID, len(p.order))
	copy(out, p.order)
	return out
}

// Slot returns a copy of one asset's slot.
func (p *Pool) Slot(asset types.AssetID) (types.AssetSlot, error) {
	slot, ok := p.slots[asset]
	if !ok {
		return types.AssetSlot{}, fmt.Errorf("%w: %s", ErrUnknownAsset, asset)
	}
	return *slot, nil
}

// FeeCollector returns the identity protocol fees are paid out to.
func (p *Pool) FeeCollector() string { return p.feeCollector }

// Params returns the engine parameters the pool was created with.
func (p *Pool) Params() types.EngineParameters { return p.params }

// Gateway returns the oracle gateway the pool prices against.
func (p *Pool) Gateway() oracle.Gateway { return p.gateway }

// AddAsset registers a new asset slot before initialization. decimals is the
// asset's native precision and must not exceed the internal scale;
// minimumTrade is in native precision. Deposits stay disabled until
// Initialize.
func (p *Pool) AddAsset(token AdminToken, asset types.AssetID, decimals int, minimumTrade sdkmath.Int, oracleFeedID string) error {
	if err := p.authorize(token); err != nil {
		return err
	}
	if p.initialized {
		return ErrPoolInitialized
	}
	if _, exists := p.slots[asset]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateAsset, asset)
	}
	if len(p.order) >= p.params.MaxAssets {
		return fmt.Errorf("%w: pool already holds %d assets", ErrAssetCount, len(p.order))
	}
	if decimals < 0 || decimals > utils.InternalDecimals {
		return fmt.Errorf("%w: %d", ErrUnsupportedDecimals, decimals)
	}
	if minimumTrade.IsNil() || minimumTrade.IsNegative() {
		return fmt.Errorf("%w: minimum trade amount", ErrInvalidAmount)
	}
	if oracleFeedID == "" {
		return fmt.Errorf("oracle feed ID cannot be empty for asset %s", asset)
	}

	scaleFactor := utils.PowTen(utils.InternalDecimals - decimals)
	minimumInternal, err := utils.ToInternal(minimumTrade, scaleFactor)
	if err != nil {
		return err
	}

	slot := types.NewAssetSlot(asset, scaleFactor, minimumInternal, oracleFeedID)
	p.slots[asset] = &slot
	p.order = append(p.order, asset)

	p.logger.Info().
		Str("asset", string(asset)).
		Int("decimals", decimals).
		Str("oracleFeed", oracleFeedID).
		Msg("Asset slot registered")
	return nil
}

// Initialize freezes the asset set and enables deposits for every slot. The
// pool transitions from uninitialized to initialized exactly once.
func (p *Pool) Initialize(token AdminToken) error {
	if err := p.authorize(token); err != nil {
		return err
	}
	if p.initialized {
		return ErrPoolInitialized
	}
	if len(p.order) < p.params.MinAssets || len(p.order) > p.params.MaxAssets {
		return fmt.Errorf("%w: have %d, need between %d and %d",
			ErrAssetCount, len(p.order), p.params.MinAssets, p.params.MaxAssets)
	}

	p.initialized = true
	for _, id := range p.order {
		p.slots[id].DepositsEnabled = true
	}

	p.logger.Info().Int("assets", len(p.order)).Msg("Pool initialized, asset set frozen")
	return nil
}

// SetDepositStatus toggles the deposit flag for one asset.
func (p *Pool) SetDepositStatus(token AdminToken, asset types.AssetID, enabled bool) error {
	if err := p.authorize(token); err != nil {
		return err
	}
	slot, ok := p.slots[asset]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownAsset, asset)
	}
	slot.DepositsEnabled = enabled
	p.logger.Info().Str("asset", string(asset)).Bool("enabled", enabled).Msg("Deposit flag updated")
	return nil
}

// SetMinimumTradeAmount replaces one asset's anti-dust floor. The amount is
// in native precision.
func (p *Pool) SetMinimumTradeAmount(token AdminToken, asset types.AssetID, minimumTrade sdkmath.Int) error {
	if err := p.authorize(token); err != nil {
		return err
	}
	slot, ok := p.slots[asset]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownAsset, asset)
	}
	if minimumTrade.IsNil() || minimumTrade.IsNegative() {
		return fmt.Errorf("%w: minimum trade amount", ErrInvalidAmount)
	}
	minimumInternal, err := utils.ToInternal(minimumTrade, slot.DecimalScaleFactor)
	if err != nil {
		return err
	}
	slot.MinimumTradeAmount = minimumInternal
	return nil
}

// SetFeeCollector replaces the protocol fee payout identity.
func (p *Pool) SetFeeCollector(token AdminToken, collector string) error {
	if err := p.authorize(token); err != nil {
		return err
	}
	if collector == "" {
		return fmt.Errorf("fee collector cannot be empty")
	}
	p.feeCollector = collector
	p.logger.Info().Str("feeCollector", collector).Msg("Fee collector updated")
	return nil
}

// SetOracleFeedID repoints one asset's price feed.
func (p *Pool) SetOracleFeedID(token AdminToken, asset types.AssetID, feedID string) error {
	if err := p.authorize(token); err != nil {
		return err
	}
	slot, ok := p.slots[asset]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownAsset, asset)
	}
	if feedID == "" {
		return fmt.Errorf("oracle feed ID cannot be empty")
	}
	slot.OracleFeedID = feedID
	p.logger.Info().Str("asset", string(asset)).Str("oracleFeed", feedID).Msg("Oracle feed updated")
	return nil
}

// CollectProtocolFees pays every asset's accrued protocol revenue to the fee
// collector and zeroes the counters. Returns the amounts paid out, in native
// precision per asset.
func (p *Pool) CollectProtocolFees(token AdminToken) (map[types.AssetID]sdkmath.Int, error) {
	if err := p.authorize(token); err != nil {
		return nil, err
	}

	collected := make(map[types.AssetID]sdkmath.Int)
	for _, id := range p.order {
		slot := p.slots[id]
		amount := slot.CollectedProtocolFees
		if !amount.IsPositive() {
			continue
		}
		if err := p.ledger.SendFunds(id, amount); err != nil {
			return nil, fmt.Errorf("paying protocol fees for %s: %w", id, err)
		}
		slot.CollectedProtocolFees = sdkmath.ZeroInt()
		collected[id] = amount
	}

	p.logger.Info().
		Str("feeCollector", p.feeCollector).
		Int("assets", len(collected)).
		Msg("Protocol fees collected")
	return collected, nil
}

// pricedSlot pairs an asset slot copy, with the latest oracle reading already
// folded into its volatility state, with the normalized price itself.
type pricedSlot struct {
	slot  types.AssetSlot
	price sdkmath.Int
}

// readBasket validates and normalizes every slot's oracle feed. It returns
// updated slot copies keyed by asset; nothing is assigned back to the pool
// until the caller commits. If any one feed is stale or invalid the whole
// read fails, which aborts the surrounding operation before any mutation.
func (p *Pool) readBasket() (map[types.AssetID]pricedSlot, error) {
	basket := make(map[types.AssetID]pricedSlot, len(p.order))
	for _, id := range p.order {
		slot := p.slots[id]
		price, timestamp, err := p.gateway.Price(slot.OracleFeedID)
		if err != nil {
			return nil, err
		}
		updated, err := analyzer.ObservePrice(*slot, price, timestamp, p.params.VolatilityWindowSeconds)
		if err != nil {
			return nil, err
		}
		basket[id] = pricedSlot{slot: updated, price: price}
	}
	return basket, nil
}

// commitBasket assigns the refreshed volatility state of every slot back to
// the pool. Called only after every check has passed.
func (p *Pool) commitBasket(basket map[types.AssetID]pricedSlot) {
	for id, priced := range basket {
		updated := priced.slot
		p.slots[id] = &updated
	}
}

// assetStates snapshots every slot for event emission, in registration order.
func (p *Pool) assetStates() []types.AssetState {
	out := make([]types.AssetState, 0, len(p.order))
	for _, id := range p.order {
		slot := p.slots[id]
		out = append(out, types.AssetState{
			ID:                    slot.ID,
			Balance:               slot.Balance,
			LPSupply:              slot.LPSupply,
			CollectedProtocolFees: slot.CollectedProtocolFees,
			VolatilityIndex:       slot.VolatilityIndex,
			PreviousPrice:         slot.PreviousPrice,
		})
	}
	return out
}

// emit records one event for a successful operation.
func (p *Pool) emit(kind string, timestamp int64, mutate func(*types.PoolEvent)) {
	event := types.PoolEvent{
		EventID:   uuid.New().String(),
		Kind:      kind,
		PoolID:    p.id,
		Timestamp: timestamp,
		Assets:    p.assetStates(),
	}
	if mutate != nil {
		mutate(&event)
	}
	p.events.Record(event)
}

// Snapshot emits and returns a pool state event. Used by the query interface;
// state queries are observations, so they get an event like any other
// completed operation.
func (p *Pool) Snapshot() types.PoolEvent {
	event := types.PoolEvent{
		EventID:   uuid.New().String(),
		Kind:      types.EventKindPoolState,
		PoolID:    p.id,
		Timestamp: p.gateway.Now(),
		Assets:    p.assetStates(),
	}
	p.events.Record(event)
	return event
}
