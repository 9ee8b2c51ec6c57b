// Package main runs the backtest API server: OHLCV market data proxying,
// strategy validation and backtesting, metrics computation, flow
// persistence, and the demo WebSocket stream.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"backtest-lab/internal/api"
	"backtest-lab/internal/backtest"
	"backtest-lab/internal/config"
	"backtest-lab/internal/okx"
	"backtest-lab/internal/storage"
	chstore "backtest-lab/internal/storage/clickhouse"
	"backtest-lab/internal/storage/memory"
	"backtest-lab/internal/storage/migrations"
	pgstore "backtest-lab/internal/storage/postgres"
)

// stores holds the selected storage backends.
type stores struct {
	flowStore   storage.FlowStore
	candleStore storage.CandleStore
}

func main() {
	// Load .env file if exists
	loadEnvFile()

	configPath := flag.String("config", os.Getenv("BACKTEST_LAB_CONFIG"), "Path to YAML config file")
	addr := flag.String("addr", "", "HTTP listen address (overrides config)")
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string (overrides config)")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse connection string (overrides config)")
	okxBaseURL := flag.String("okx-base-url", "", "OKX REST base URL (overrides config)")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL/ClickHouse")

	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lshortfile)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	// Flags take final precedence over file and environment.
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *okxBaseURL != "" {
		cfg.OKX.BaseURL = *okxBaseURL
	}
	if *postgresDSN != "" {
		cfg.Storage.PostgresDSN = *postgresDSN
		cfg.Storage.UseMemory = false
	}
	if *clickhouseDSN != "" {
		cfg.Storage.ClickhouseDSN = *clickhouseDSN
		cfg.Storage.UseMemory = false
	}
	if *useMemory {
		cfg.Storage.UseMemory = true
	}

	if !cfg.Storage.UseMemory && (cfg.Storage.PostgresDSN == "" || cfg.Storage.ClickhouseDSN == "") {
		logger.Fatal("postgres and clickhouse DSNs are required (use --use-memory for in-memory storage)")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, cleanup, err := createStores(ctx, cfg.Storage)
	if err != nil {
		logger.Fatalf("Failed to create stores: %v", err)
	}
	defer cleanup()

	market := okx.NewClient(cfg.OKX.BaseURL, okx.WithTimeout(cfg.OKX.Timeout))

	runner := backtest.NewRunner(backtest.RunnerOptions{
		Source:      market,
		CandleStore: st.candleStore,
		Logger:      log.New(os.Stdout, "[backtest] ", log.LstdFlags|log.Lshortfile),
	})

	server := api.NewServer(api.Options{
		Runner:      runner,
		Market:      market,
		FlowStore:   st.flowStore,
		CandleStore: st.candleStore,
		Logger:      logger,
		LogRequests: cfg.Logging.Requests,
	})

	httpServer := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: server.Handler(),
	}

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Printf("Graceful shutdown failed: %v", err)
		}
		cancel()

		// Second signal forces immediate exit
		select {
		case sig := <-sigCh:
			logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-time.After(5 * time.Second):
		}
	}()

	logger.Printf("Starting HTTP server on %s", cfg.Server.Addr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("HTTP server error: %v", err)
	}

	logger.Println("Shutdown complete")
}

// createStores selects storage backends and applies migrations.
func createStores(ctx context.Context, cfg config.Storage) (*stores, func(), error) {
	if cfg.UseMemory {
		st := &stores{
			flowStore:   memory.NewFlowStore(),
			candleStore: memory.NewCandleStore(),
		}
		return st, func() {}, nil
	}

	pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("run postgres migrations: %w", err)
	}

	conn, err := chstore.NewConn(ctx, cfg.ClickhouseDSN)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("connect to clickhouse: %w", err)
	}
	if err := migrations.RunClickhouseMigrations(ctx, conn); err != nil {
		conn.Close()
		pool.Close()
		return nil, nil, fmt.Errorf("run clickhouse migrations: %w", err)
	}

	st := &stores{
		flowStore:   pgstore.NewFlowStore(pool),
		candleStore: chstore.NewCandleStore(conn),
	}

	cleanup := func() {
		conn.Close()
		pool.Close()
	}

	return st, cleanup, nil
}

// loadEnvFile loads environment variables from .env file if it exists.
func loadEnvFile() {
	data, err := os.ReadFile(".env")
	if err != nil {
		return // File doesn't exist, use system env vars
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Don't override existing env vars
		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}
