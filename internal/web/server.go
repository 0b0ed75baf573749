package web

import (
	"encoding/json"
	"net/http"
	"runtime"
	"strconv"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/gorilla/mux"

	"github.com/rammlabs/ramm/internal/engine"
	"github.com/rammlabs/ramm/internal/logger"
	"github.com/rammlabs/ramm/internal/planner"
	"github.com/rammlabs/ramm/internal/simulations"
	"github.com/rammlabs/ramm/internal/state"
	"github.com/rammlabs/ramm/internal/types"
)

var webLogger = logger.GetForComponent("web_server")

// WebServer handles HTTP requests for pool state and event data
type WebServer struct {
	router *mux.Router
	port   string
	pool   *engine.Pool
}

// NewWebServer creates a new web server instance serving one pool
func NewWebServer(port string, pool *engine.Pool) *WebServer {
	if port == "" {
		port = "8080"
	}

	server := &WebServer{
		router: mux.NewRouter(),
		port:   port,
		pool:   pool,
	}

	server.setupRoutes()
	return server
}

// setupRoutes configures all HTTP routes
func (ws *WebServer) setupRoutes() {
	// Health endpoint (direct route)
	ws.router.HandleFunc("/health", ws.handleHealth).Methods("GET")

	// API endpoints
	api := ws.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", ws.handleHealth).Methods("GET")
	api.HandleFunc("/pool", ws.handleGetPoolState).Methods("GET")
	api.HandleFunc("/pool/summary", ws.handleGetPoolSummary).Methods("GET")
	api.HandleFunc("/pool/rebalance", ws.handleGetRebalancePlan).Methods("GET")
	api.HandleFunc("/events", ws.handleGetEvents).Methods("GET")

	// Dry-run estimation endpoints
	api.HandleFunc("/simulate/swap", ws.handleSimulateSwap).Methods("GET")
	api.HandleFunc("/simulate/deposit", ws.handleSimulateDeposit).Methods("GET")
	api.HandleFunc("/simulate/withdraw", ws.handleSimulateWithdraw).Methods("GET")

	ws.router.Use(ws.corsMiddleware)
	ws.router.Use(ws.loggingMiddleware)
}

// Start starts the web server
func (ws *WebServer) Start() error {
	webLogger.Info().Str("port", ws.port).Msg("Starting web server")

	server := &http.Server{
		Addr:         ":" + ws.port,
		Handler:      ws.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return server.ListenAndServe()
}

// handleHealth returns server health status
func (ws *WebServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	dbHealthy := true
	if err := state.TestDBConnection(); err != nil {
		dbHealthy = false
	}

	overallStatus := "OK"
	if !dbHealthy {
		overallStatus = "DEGRADED"
	}

	response := map[string]interface{}{
		"status":    overallStatus,
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		"system": map[string]interface{}{
			"version":          runtime.Version(),
			"goroutines_count": runtime.NumGoroutine(),
			"alloc_bytes":      memStats.Alloc,
			"gc_cycles":        memStats.NumGC,
		},
		"component": map[string]interface{}{
			"name":    "ramm-pricing-engine",
			"version": "1.0.0",
		},
		"pool": map[string]interface{}{
			"id":          ws.pool.ID(),
			"initialized": ws.pool.Initialized(),
			"assets":      ws.pool.Assets(),
		},
		"database_healthy": dbHealthy,
	}

	ws.writeJSON(w, http.StatusOK, response)
}

// handleGetPoolState serves the full pool snapshot. Each query emits one
// pool state event, mirroring what indexers consume.
func (ws *WebServer) handleGetPoolState(w http.ResponseWriter, r *http.Request) {
	snapshot := ws.pool.Snapshot()
	ws.writeJSON(w, http.StatusOK, snapshot)
}

// handleGetPoolSummary serves aggregated event counts from the database
func (ws *WebServer) handleGetPoolSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := state.GetPoolSummary(ws.pool.ID())
	if err != nil {
		webLogger.Error().Err(err).Msg("Failed to load pool summary")
		ws.writeError(w, http.StatusInternalServerError, "failed to load pool summary")
		return
	}
	ws.writeJSON(w, http.StatusOK, summary)
}

// handleGetEvents serves recent pool events, newest first
func (ws *WebServer) handleGetEvents(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			ws.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	events, err := state.GetRecentEvents(ws.pool.ID(), limit)
	if err != nil {
		webLogger.Error().Err(err).Msg("Failed to load recent events")
		ws.writeError(w, http.StatusInternalServerError, "failed to load recent events")
		return
	}
	ws.writeJSON(w, http.StatusOK, map[string]interface{}{
		"pool_id": ws.pool.ID(),
		"events":  events,
	})
}

// handleGetRebalancePlan serves the advisory rebalancing plan for the pool
func (ws *WebServer) handleGetRebalancePlan(w http.ResponseWriter, r *http.Request) {
	plan, err := planner.GenerateRebalancePlan(ws.pool)
	if err != nil {
		webLogger.Error().Err(err).Msg("Failed to generate rebalance plan")
		ws.writeError(w, http.StatusServiceUnavailable, "failed to generate rebalance plan: "+err.Error())
		return
	}
	ws.writeJSON(w, http.StatusOK, plan)
}

// handleSimulateSwap estimates a fixed-input trade without executing it.
// Query: asset_in, asset_out, amount (native precision of asset_in).
func (ws *WebServer) handleSimulateSwap(w http.ResponseWriter, r *http.Request) {
	assetIn := r.URL.Query().Get("asset_in")
	assetOut := r.URL.Query().Get("asset_out")
	amount, ok := parseAmount(r.URL.Query().Get("amount"))
	if assetIn == "" || assetOut == "" || !ok {
		ws.writeError(w, http.StatusBadRequest, "asset_in, asset_out and a positive amount are required")
		return
	}

	estimate, err := simulations.SimulateSwap(ws.pool, types.AssetID(assetIn), types.AssetID(assetOut), amount)
	if err != nil {
		ws.writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	ws.writeJSON(w, http.StatusOK, estimate)
}

// handleSimulateDeposit estimates the shares minted for a deposit.
// Query: asset, amount (native precision).
func (ws *WebServer) handleSimulateDeposit(w http.ResponseWriter, r *http.Request) {
	asset := r.URL.Query().Get("asset")
	amount, ok := parseAmount(r.URL.Query().Get("amount"))
	if asset == "" || !ok {
		ws.writeError(w, http.StatusBadRequest, "asset and a positive amount are required")
		return
	}

	estimate, err := simulations.SimulateDeposit(ws.pool, types.AssetID(asset), amount)
	if err != nil {
		ws.writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	ws.writeJSON(w, http.StatusOK, estimate)
}

// handleSimulateWithdraw estimates the payout for burning LP shares.
// Query: asset, shares (internal scale).
func (ws *WebServer) handleSimulateWithdraw(w http.ResponseWriter, r *http.Request) {
	asset := r.URL.Query().Get("asset")
	shares, ok := parseAmount(r.URL.Query().Get("shares"))
	if asset == "" || !ok {
		ws.writeError(w, http.StatusBadRequest, "asset and a positive share amount are required")
		return
	}

	estimate, err := simulations.SimulateWithdraw(ws.pool, types.AssetID(asset), shares)
	if err != nil {
		ws.writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	ws.writeJSON(w, http.StatusOK, estimate)
}

// parseAmount parses a positive integer amount from a query parameter.
func parseAmount(raw string) (sdkmath.Int, bool) {
	amount, ok := sdkmath.NewIntFromString(raw)
	if !ok || !amount.IsPositive() {
		return sdkmath.Int{}, false
	}
	return amount, true
}

func (ws *WebServer) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		webLogger.Error().Err(err).Msg("Failed to encode response")
	}
}

func (ws *WebServer) writeError(w http.ResponseWriter, status int, message string) {
	ws.writeJSON(w, status, map[string]string{"error": message})
}

// corsMiddleware adds CORS headers for browser clients
func (ws *WebServer) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs each request at debug level
func (ws *WebServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		webLogger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("duration", time.Since(start)).
			Msg("Request handled")
	})
}
