package config

import (
	"errors"
	"os"
	"strconv"

	"github.com/rs/zerolog/log"
)

// AppConfig holds all application configuration loaded from environment variables.
// These are populated at startup by the LoadConfig function.
var (
	// PoolID identifies the pool this daemon instance hosts.
	PoolID string

	// AdminTokenID is the credential recognized by the pool's administrative
	// setters. It is compared by identity against each caller-supplied token.
	AdminTokenID string

	// FeeCollector is the identity protocol fees are paid out to.
	FeeCollector string

	// SnapshotIntervalSeconds is the period of the service's snapshot loop.
	SnapshotIntervalSeconds int64
)

// defaultSnapshotIntervalSeconds is used when RAMM_SNAPSHOT_INTERVAL_SECONDS
// is not set.
const defaultSnapshotIntervalSeconds = int64(600)

// LoadConfig loads configuration from environment variables and sets the global config vars.
// All environment variables are required and must be set.
func LoadConfig() error {
	log.Info().Msg("Loading application configuration from environment variables...")

	var err error

	PoolID, err = getEnv("RAMM_POOL_ID")
	if err != nil {
		return err
	}

	AdminTokenID, err = getEnv("RAMM_ADMIN_TOKEN")
	if err != nil {
		return err
	}

	FeeCollector, err = getEnv("RAMM_FEE_COLLECTOR")
	if err != nil {
		return err
	}

	SnapshotIntervalSeconds = defaultSnapshotIntervalSeconds
	if _, exists := os.LookupEnv("RAMM_SNAPSHOT_INTERVAL_SECONDS"); exists {
		SnapshotIntervalSeconds, err = getEnvAsInt64("RAMM_SNAPSHOT_INTERVAL_SECONDS")
		if err != nil {
			return err
		}
	}

	log.Debug().
		Str("PoolID", PoolID).
		Str("FeeCollector", FeeCollector).
		Int64("SnapshotIntervalSeconds", SnapshotIntervalSeconds).
		Msg("Configuration loaded successfully.")

	return nil
}

// getEnv retrieves a string environment variable. Returns error if not set.
func getEnv(key string) (string, error) {
	if value, exists := os.LookupEnv(key); exists {
		return value, nil
	}
	return "", errors.New("environment variable " + key + " is required but not set")
}

// getEnvAsInt64 retrieves an environment variable as an int64. Returns error if not set or invalid.
func getEnvAsInt64(key string) (int64, error) {
	valueStr, err := getEnv(key)
	if err != nil {
		return 0, err
	}
	value, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		return 0, errors.New("environment variable " + key + " must be a valid int64, got: " + valueStr)
	}
	return value, nil
}
