// ./internal/state/event_store.go
package state

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/rammlabs/ramm/internal/types"
)

// SaveEvent persists one pool event for external indexers.
func SaveEvent(event types.PoolEvent) error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	assetsJSON, err := json.Marshal(event.Assets)
	if err != nil {
		return fmt.Errorf("failed to marshal assets: %w", err)
	}

	tradeJSON, err := marshalNullable(event.Trade)
	if err != nil {
		return fmt.Errorf("failed to marshal trade: %w", err)
	}
	depositJSON, err := marshalNullable(event.Deposit)
	if err != nil {
		return fmt.Errorf("failed to marshal deposit: %w", err)
	}
	withdrawJSON, err := marshalNullable(event.Withdraw)
	if err != nil {
		return fmt.Errorf("failed to marshal withdrawal: %w", err)
	}

	query := `
		INSERT INTO pool_events (event_id, kind, pool_id, event_timestamp, assets, trade, deposit, withdrawal)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8);`

	_, err = DB.Exec(query,
		event.EventID, event.Kind, event.PoolID, event.Timestamp,
		assetsJSON, tradeJSON, depositJSON, withdrawJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to insert pool event: %w", err)
	}
	return nil
}

func marshalNullable(v interface{}) (interface{}, error) {
	switch value := v.(type) {
	case *types.TradeResult:
		if value == nil {
			return nil, nil
		}
	case *types.DepositResult:
		if value == nil {
			return nil, nil
		}
	case *types.WithdrawResult:
		if value == nil {
			return nil, nil
		}
	}
	return json.Marshal(v)
}

// GetRecentEvents retrieves recent events for a pool, newest first.
func GetRecentEvents(poolID string, limit int) ([]types.PoolEvent, error) {
	if DB == nil {
		return nil, fmt.Errorf("database not initialized")
	}
	if limit <= 0 || limit > 100 {
		limit = 10 // Default limit
	}

	query := `
		SELECT event_id, kind, pool_id, event_timestamp, assets, trade, deposit, withdrawal
		FROM pool_events
		WHERE pool_id = $1
		ORDER BY event_timestamp DESC, recorded_at DESC
		LIMIT $2;`

	rows, err := DB.Query(query, poolID, limit)
	if err != nil {
		log.Error().Err(err).Msg("Failed to query recent pool events")
		return nil, fmt.Errorf("failed to query recent pool events: %w", err)
	}
	defer rows.Close()

	var events []types.PoolEvent
	for rows.Next() {
		var (
			event        types.PoolEvent
			assetsJSON   []byte
			tradeJSON    sql.NullString
			depositJSON  sql.NullString
			withdrawJSON sql.NullString
		)
		if err := rows.Scan(&event.EventID, &event.Kind, &event.PoolID, &event.Timestamp,
			&assetsJSON, &tradeJSON, &depositJSON, &withdrawJSON); err != nil {
			return nil, fmt.Errorf("failed to scan pool event: %w", err)
		}
		if err := json.Unmarshal(assetsJSON, &event.Assets); err != nil {
			return nil, fmt.Errorf("failed to unmarshal assets: %w", err)
		}
		if tradeJSON.Valid {
			event.Trade = &types.TradeResult{}
			if err := json.Unmarshal([]byte(tradeJSON.String), event.Trade); err != nil {
				return nil, fmt.Errorf("failed to unmarshal trade: %w", err)
			}
		}
		if depositJSON.Valid {
			event.Deposit = &types.DepositResult{}
			if err := json.Unmarshal([]byte(depositJSON.String), event.Deposit); err != nil {
				return nil, fmt.Errorf("failed to unmarshal deposit: %w", err)
			}
		}
		if withdrawJSON.Valid {
			event.Withdraw = &types.WithdrawResult{}
			if err := json.Unmarshal([]byte(withdrawJSON.String), event.Withdraw); err != nil {
				return nil, fmt.Errorf("failed to unmarshal withdrawal: %w", err)
			}
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

// Recorder is an event sink backed by the pool_events table. Persistence
// failures are logged rather than propagated: the operation that produced the
// event has already committed, and event emission must not unwind it.
type Recorder struct{}

// Record implements the engine's event sink.
func (Recorder) Record(event types.PoolEvent) {
	if err := SaveEvent(event); err != nil {
		log.Error().Err(err).
			Str("eventID", event.EventID).
			Str("kind", event.Kind).
			Msg("Failed to persist pool event")
	}
}
