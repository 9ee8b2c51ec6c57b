// Package main runs a one-shot backtest from the command line: fetch
// candles from OKX, evaluate a strategy JSON file, simulate execution, and
// print the trades plus a metrics report.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"backtest-lab/internal/backtest"
	"backtest-lab/internal/domain"
	"backtest-lab/internal/metrics"
	"backtest-lab/internal/okx"
)

// output is the combined CLI result.
type output struct {
	Symbol string                `json:"symbol"`
	Trades []domain.Trade        `json:"executed_trades"`
	Report *domain.MetricsReport `json:"report,omitempty"`
}

func main() {
	// Strategy input
	strategyPath := flag.String("strategy", "", "Path to strategy JSON file: array of logic blocks (required)")
	symbol := flag.String("symbol", "BTC-USDT", "Instrument ID")
	timeframe := flag.String("timeframe", backtest.DefaultTimeframe, "Candle timeframe (1m, 5m, 1h, ...)")
	candles := flag.Int("candles", backtest.DefaultCandleCount, "Number of candles to fetch")

	// Execution parameters
	orderType := flag.String("order-type", "market", "Order type: market, limit")
	quantity := flag.Float64("quantity", 1.0, "Position size in base units")
	slippageBps := flag.Float64("slippage-bps", 5.0, "Slippage in basis points")
	feeBps := flag.Float64("fee-bps", 10.0, "Fee in basis points, charged on entry and exit")
	stopLossPct := flag.Float64("stop-loss-pct", 5.0, "Stop loss percent of entry price (negative disables)")
	takeProfitPct := flag.Float64("take-profit-pct", 10.0, "Take profit percent of entry price (negative disables)")

	// Metrics
	balance := flag.Float64("balance", 10000, "Starting balance for the metrics report")

	// Provider / output
	okxBaseURL := flag.String("okx-base-url", okx.DefaultBaseURL, "OKX REST base URL")
	timeout := flag.Duration("timeout", 60*time.Second, "Overall run timeout")
	outputJSON := flag.Bool("json", false, "Output as JSON")

	flag.Parse()

	logger := log.New(os.Stderr, "[backtest] ", log.LstdFlags)

	if *strategyPath == "" {
		logger.Fatal("--strategy is required")
	}

	blocks, err := loadStrategy(*strategyPath)
	if err != nil {
		logger.Fatalf("Failed to load strategy: %v", err)
	}

	params := domain.ExecutionParams{
		OrderType:   domain.OrderType(*orderType),
		Quantity:    *quantity,
		SlippageBps: *slippageBps,
		FeeBps:      *feeBps,
	}
	if *stopLossPct >= 0 {
		params.StopLossPct = stopLossPct
	}
	if *takeProfitPct >= 0 {
		params.TakeProfitPct = takeProfitPct
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	market := okx.NewClient(*okxBaseURL)
	runner := backtest.NewRunner(backtest.RunnerOptions{
		Source: market,
		Logger: logger,
	})

	result, err := runner.Run(ctx, backtest.Request{
		Symbol:    *symbol,
		Timeframe: *timeframe,
		Candles:   *candles,
		Blocks:    blocks,
	}, params)
	if err != nil {
		logger.Fatalf("Backtest failed: %v", err)
	}

	out := output{Symbol: result.Symbol, Trades: result.Trades}

	if len(result.Trades) > 0 {
		stats := make([]domain.TradeStat, len(result.Trades))
		for i, t := range result.Trades {
			stats[i] = domain.TradeStat{
				PnL:           t.PnL,
				DurationHours: t.DurationHours,
				Notional:      t.EntryPrice * params.Quantity,
			}
		}
		report, err := metrics.Compute(*balance, stats, nil)
		if err != nil {
			logger.Fatalf("Metrics computation failed: %v", err)
		}
		out.Report = report
	}

	if *outputJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			logger.Fatalf("Failed to encode output: %v", err)
		}
		return
	}

	printText(out, *balance)
}

// loadStrategy reads a logic block array from a JSON file.
func loadStrategy(path string) ([]domain.LogicBlock, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var blocks []domain.LogicBlock
	if err := json.Unmarshal(data, &blocks); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return blocks, nil
}

// printText writes a human-readable run summary to stdout.
func printText(out output, balance float64) {
	fmt.Printf("Backtest: %s\n", out.Symbol)
	fmt.Printf("Trades:   %d\n\n", len(out.Trades))

	for i, t := range out.Trades {
		exit := "close"
		if t.SLHit {
			exit = "stop-loss"
		} else if t.TPHit {
			exit = "take-profit"
		}
		fmt.Printf("  #%d  entry %.4f  exit %.4f  pnl %+.4f  %.1fh  (%s)\n",
			i+1, t.EntryPrice, t.ExitPrice, t.PnL, t.DurationHours, exit)
	}

	if out.Report == nil {
		return
	}
	r := out.Report
	fmt.Printf("\nMetrics (balance %.2f):\n", balance)
	fmt.Printf("  PnL:           %+.2f (%.3f%%)\n", r.PnLAbs, r.PnLPct)
	fmt.Printf("  CAGR:          %.2f%%\n", r.CAGR)
	fmt.Printf("  Sharpe:        %.2f\n", r.Sharpe)
	fmt.Printf("  Sortino:       %.2f\n", r.Sortino)
	fmt.Printf("  Calmar:        %.2f\n", r.Calmar)
	fmt.Printf("  Max drawdown:  %.2f%% (%.2f)\n", r.MaxDrawdownPct, r.MaxDrawdownAbs)
	fmt.Printf("  Volatility:    %.2f%%\n", r.VolatilityPct)
	fmt.Printf("  Win rate:      %.2f%%\n", r.WinRatePct)
	fmt.Printf("  Avg duration:  %.2fh\n", r.AvgDurationHours)
	fmt.Printf("  VaR 95:        %.2f\n", r.ValueAtRisk95)
	fmt.Printf("  Turnover:      %.2f%%\n", r.TurnoverPct)
}
