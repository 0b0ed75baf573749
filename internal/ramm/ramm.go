package ramm

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/rammlabs/ramm/internal/engine"
	"github.com/rammlabs/ramm/internal/logger"
	"github.com/rammlabs/ramm/internal/planner"
	"github.com/rammlabs/ramm/internal/state"
)

const (
	// Export constants for use in main.go
	DEFAULT_ENGINE_CONFIG_NAME    = "default_ramm_engine"
	DEFAULT_ENGINE_CONFIG_VERSION = 1
)

// Service drives the hosted pool's observation loop: it periodically emits a
// pool state snapshot for indexers and reports activity statistics. Trades
// and liquidity operations arrive through the pool itself; the loop only
// observes.
type Service struct {
	logger     zerolog.Logger
	pool       *engine.Pool
	cycleCount int
}

// Config holds the configuration for creating a new Service instance
type Config struct {
	Pool *engine.Pool
}

// NewService creates a new Service instance with dependency injection
func NewService(cfg Config) (*Service, error) {
	if cfg.Pool == nil {
		return nil, fmt.Errorf("pool cannot be nil")
	}

	service := &Service{
		logger: logger.GetForComponent("ramm_service"),
		pool:   cfg.Pool,
	}

	service.logger.Info().
		Str("poolID", cfg.Pool.ID()).
		Msg("Service instance created successfully")
	return service, nil
}

// RunLoop starts the snapshot loop with the specified interval
func (s *Service) RunLoop(ctx context.Context, interval time.Duration) {
	s.logger.Info().
		Dur("interval", interval).
		Msg("Starting snapshot loop")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Run first cycle immediately
	s.runCycle()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("Snapshot loop stopped due to context cancellation")
			return
		case <-ticker.C:
			s.runCycle()
		}
	}
}

// runCycle emits one pool state snapshot and logs activity statistics.
func (s *Service) runCycle() {
	s.cycleCount++

	// Unique cycle ID for tracing logs across the cycle
	cycleID := uuid.New().String()
	cycleLogger := s.logger.With().Str("cycle_id", cycleID).Int("cycle", s.cycleCount).Logger()

	cycleLogger.Info().Msg("--- Starting snapshot cycle ---")

	snapshot := s.pool.Snapshot()
	cycleLogger.Info().
		Str("eventID", snapshot.EventID).
		Int("assets", len(snapshot.Assets)).
		Msg("Pool state snapshot emitted")

	plan, err := planner.GenerateRebalancePlan(s.pool)
	if err != nil {
		cycleLogger.Warn().Err(err).Msg("Failed to generate rebalance plan")
	} else if len(plan.Suggestions) > 0 {
		top := plan.Suggestions[0]
		cycleLogger.Info().
			Int("suggestions", len(plan.Suggestions)).
			Str("assetIn", string(top.AssetIn)).
			Str("assetOut", string(top.AssetOut)).
			Str("amountIn", top.AmountIn.String()).
			Msg("Pool has drifted from balance, rebalancing trades available")
	}

	summary, err := state.GetPoolSummary(s.pool.ID())
	if err != nil {
		cycleLogger.Warn().Err(err).Msg("Failed to load pool summary")
		return
	}

	cycleLogger.Info().
		Int("trades", summary.TradeCount).
		Int("deposits", summary.DepositCount).
		Int("withdrawals", summary.WithdrawCount).
		Int64("lastEventAt", summary.LastEventAt).
		Msg("Snapshot cycle completed")
}
