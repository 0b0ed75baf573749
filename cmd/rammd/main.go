package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/rammlabs/ramm/internal/config"
	"github.com/rammlabs/ramm/internal/engine"
	"github.com/rammlabs/ramm/internal/ledger"
	"github.com/rammlabs/ramm/internal/logger"
	"github.com/rammlabs/ramm/internal/oracle"
	"github.com/rammlabs/ramm/internal/ramm"
	"github.com/rammlabs/ramm/internal/state"
	"github.com/rammlabs/ramm/internal/types"
	"github.com/rammlabs/ramm/internal/web"
)

// main is the entry point for the RAMM pricing daemon.
func main() {
	// --- 1. Initialization Phase ---
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("Warning: .env file not found. Relying on OS environment variables.")
	}

	// Load configuration from environment variables
	if err := config.LoadConfig(); err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logger.Initialize(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FILE"))
	log.Info().Msg("RAMM pricing engine starting...")

	// Initialize Database Connection
	dbCfg := state.DBConfig{
		Host: os.Getenv("DB_HOST"), Port: mustAtoi(os.Getenv("DB_PORT"), 5432),
		User: os.Getenv("DB_USER"), Password: os.Getenv("DB_PASSWORD"),
		DBName: os.Getenv("DB_NAME"), SSLMode: os.Getenv("DB_SSLMODE"),
	}
	if err := state.InitDB(dbCfg); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer state.CloseDB()
	if err := state.EnsureSchema(); err != nil {
		log.Fatal().Err(err).Msg("Failed to ensure database schema")
	}

	// Load Engine Parameters
	engineParams, err := state.LoadActiveEngineParameters(ramm.DEFAULT_ENGINE_CONFIG_NAME)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to load active engine parameters, using defaults and saving.")
		defaultParams := config.DefaultEngineParameters
		if _, err := state.SaveEngineParameters(defaultParams, ramm.DEFAULT_ENGINE_CONFIG_NAME, ramm.DEFAULT_ENGINE_CONFIG_VERSION, true); err != nil {
			log.Fatal().Err(err).Msg("Failed to save initial default engine parameters.")
		}
		engineParams = &defaultParams
	}
	log.Info().Msg("Engine parameters loaded successfully.")

	// --- 2. Pool Construction ---
	feed := oracle.NewStaticFeed()
	gateway := oracle.NewGateway(feed, engineParams.StalenessThresholdSeconds, nil)
	custody := ledger.NewMemoryLedger()

	pool, err := engine.NewPool(engine.Config{
		PoolID:       config.PoolID,
		AdminTokenID: config.AdminTokenID,
		FeeCollector: config.FeeCollector,
		Params:       *engineParams,
		Gateway:      gateway,
		Ledger:       custody,
		Events:       state.Recorder{},
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create pool")
	}

	admin := engine.AdminToken{ID: config.AdminTokenID}
	if err := registerAssets(pool, admin, os.Getenv("RAMM_ASSETS")); err != nil {
		log.Fatal().Err(err).Msg("Failed to register pool assets")
	}
	if err := pool.Initialize(admin); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize pool")
	}
	log.Info().Str("poolID", pool.ID()).Msg("Pool initialized")

	// --- 3. Start Web Server ---
	webPort := os.Getenv("WEB_PORT")
	if webPort == "" {
		webPort = "8080"
	}

	webServer := web.NewWebServer(webPort, pool)
	go func() {
		log.Info().Str("port", webPort).Str("url", "http://localhost:"+webPort).Msg("Starting RAMM API server")
		if err := webServer.Start(); err != nil {
			log.Error().Err(err).Msg("Web server failed to start")
		}
	}()

	// --- 4. Start Snapshot Loop ---
	service, err := ramm.NewService(ramm.Config{Pool: pool})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create service instance")
	}

	loopInterval := time.Duration(config.SnapshotIntervalSeconds) * time.Second
	log.Info().Str("interval", loopInterval.String()).Msg("Starting snapshot loop")
	service.RunLoop(context.Background(), loopInterval)
}

// registerAssets parses the RAMM_ASSETS spec and adds each slot to the pool.
// Format: "SYMBOL:decimals:feedID:minTrade" entries separated by commas,
// e.g. "ETH:8:eth-usd:1,USDT:6:usdt-usd:1000000".
func registerAssets(pool *engine.Pool, admin engine.AdminToken, spec string) error {
	if spec == "" {
		return fmt.Errorf("environment variable RAMM_ASSETS is required but not set")
	}
	for _, entry := range strings.Split(spec, ",") {
		parts := strings.Split(strings.TrimSpace(entry), ":")
		if len(parts) != 4 {
			return fmt.Errorf("invalid asset spec %q, want SYMBOL:decimals:feedID:minTrade", entry)
		}
		decimals, err := strconv.Atoi(parts[1])
		if err != nil {
			return fmt.Errorf("invalid decimals in asset spec %q: %w", entry, err)
		}
		minTrade, ok := sdkmath.NewIntFromString(parts[3])
		if !ok {
			return fmt.Errorf("invalid minimum trade amount in asset spec %q", entry)
		}
		if err := pool.AddAsset(admin, types.AssetID(parts[0]), decimals, minTrade, parts[2]); err != nil {
			return fmt.Errorf("adding asset %s: %w", parts[0], err)
		}
	}
	return nil
}

// Helper to convert string to int with a default value
func mustAtoi(s string, defaultValue int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return defaultValue
	}
	return i
}
