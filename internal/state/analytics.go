// ./internal/state/analytics.go
package state

import (
	"fmt"
)

// PoolSummary represents high-level activity statistics for one pool.
type PoolSummary struct {
	PoolID        string `json:"pool_id"`
	TradeCount    int    `json:"trade_count"`
	DepositCount  int    `json:"deposit_count"`
	WithdrawCount int    `json:"withdraw_count"`
	SnapshotCount int    `json:"snapshot_count"`
	LastEventAt   int64  `json:"last_event_at"`
}

// GetPoolSummary aggregates event counts for a pool from the events table.
func GetPoolSummary(poolID string) (*PoolSummary, error) {
	if DB == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	query := `
		SELECT
			COUNT(*) FILTER (WHERE kind = 'trade'),
			COUNT(*) FILTER (WHERE kind = 'deposit'),
			COUNT(*) FILTER (WHERE kind = 'withdraw'),
			COUNT(*) FILTER (WHERE kind = 'pool_state'),
			COALESCE(MAX(event_timestamp), 0)
		FROM pool_events
		WHERE pool_id = $1;`

	summary := &PoolSummary{PoolID: poolID}
	err := DB.QueryRow(query, poolID).Scan(
		&summary.TradeCount,
		&summary.DepositCount,
		&summary.WithdrawCount,
		&summary.SnapshotCount,
		&summary.LastEventAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate pool summary: %w", err)
	}
	return summary, nil
}
