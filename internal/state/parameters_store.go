// ./internal/state/parameters_store.go
package state

import (
	"database/sql"
	"fmt"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/rs/zerolog/log"

	"github.com/rammlabs/ramm/internal/types"
)

// SaveEngineParameters saves a new version of engine parameters.
func SaveEngineParameters(params types.EngineParameters, configName string, version int, makeActive bool) (int64, error) {
	if DB == nil {
		return 0, fmt.Errorf("database not initialized")
	}

	tx, err := DB.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p) // Re-panic after rollback
		} else if err != nil {
			tx.Rollback() // Rollback if error occurred
		}
	}()

	if makeActive {
		stmtDeactivate := `UPDATE engine_parameters SET is_active = FALSE WHERE config_name = $1 AND is_active = TRUE;`
		_, err = tx.Exec(stmtDeactivate, configName)
		if err != nil {
			return 0, fmt.Errorf("failed to deactivate existing active parameters for %s: %w", configName, err)
		}
	}

	stmt := `
		INSERT INTO engine_parameters (
			version, config_name, is_active, activated_at, created_at,
			base_fee_rate, protocol_fee_fraction,
			staleness_threshold_seconds, volatility_window_seconds,
			imbalance_delta, min_assets, max_assets
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7,
			$8, $9,
			$10, $11, $12
		) RETURNING params_id;`

	var paramsID int64
	currentTime := time.Now()
	err = tx.QueryRow(
		stmt,
		version, configName, makeActive, currentTime, currentTime,
		params.BaseFeeRate.String(), params.ProtocolFeeFraction.String(),
		params.StalenessThresholdSeconds, params.VolatilityWindowSeconds,
		params.ImbalanceDelta.String(), params.MinAssets, params.MaxAssets,
	).Scan(&paramsID)
	if err != nil {
		return 0, fmt.Errorf("failed to insert engine parameters: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit engine parameters: %w", err)
	}

	log.Info().
		Int64("paramsID", paramsID).
		Str("configName", configName).
		Int("version", version).
		Bool("active", makeActive).
		Msg("Engine parameters saved")
	return paramsID, nil
}

// LoadActiveEngineParameters loads the active parameter set for a config name.
func LoadActiveEngineParameters(configName string) (*types.EngineParameters, error) {
	if DB == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	query := `
		SELECT base_fee_rate, protocol_fee_fraction,
			staleness_threshold_seconds, volatility_window_seconds,
			imbalance_delta, min_assets, max_assets
		FROM engine_parameters
		WHERE config_name = $1 AND is_active = TRUE
		ORDER BY activated_at DESC
		LIMIT 1;`

	var (
		baseFeeRate         string
		protocolFeeFraction string
		imbalanceDelta      string
		params              types.EngineParameters
	)
	err := DB.QueryRow(query, configName).Scan(
		&baseFeeRate, &protocolFeeFraction,
		&params.StalenessThresholdSeconds, &params.VolatilityWindowSeconds,
		&imbalanceDelta, &params.MinAssets, &params.MaxAssets,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("no active engine parameters found for config %s", configName)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load engine parameters: %w", err)
	}

	params.BaseFeeRate, err = parseInt(baseFeeRate)
	if err != nil {
		return nil, fmt.Errorf("invalid base_fee_rate: %w", err)
	}
	params.ProtocolFeeFraction, err = parseInt(protocolFeeFraction)
	if err != nil {
		return nil, fmt.Errorf("invalid protocol_fee_fraction: %w", err)
	}
	params.ImbalanceDelta, err = parseInt(imbalanceDelta)
	if err != nil {
		return nil, fmt.Errorf("invalid imbalance_delta: %w", err)
	}

	return &params, nil
}

// parseInt converts a NUMERIC column value back into an sdkmath.Int.
func parseInt(value string) (sdkmath.Int, error) {
	parsed, ok := sdkmath.NewIntFromString(value)
	if !ok {
		return sdkmath.Int{}, fmt.Errorf("cannot parse %q as integer", value)
	}
	return parsed, nil
}
