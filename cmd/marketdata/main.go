package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"btc-sentiment-lab/internal/config"
	"btc-sentiment-lab/internal/domain"
	"btc-sentiment-lab/internal/marketdata"
	"btc-sentiment-lab/internal/observability"
	"btc-sentiment-lab/internal/storage"
	"btc-sentiment-lab/internal/storage/memory"
	pgstore "btc-sentiment-lab/internal/storage/postgres"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	resolution := flag.String("resolution", "both", "Bars to collect: daily, hourly, or both")
	days := flag.Int("days", 30, "Collection lookback in days")
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL")
	apiKey := flag.String("cryptocompare-api-key", cfg.MarketData.CryptoCompareAPIKey, "CryptoCompare API key for hourly bars")
	symbol := flag.String("symbol", cfg.MarketData.YahooSymbol, "Yahoo Finance symbol for daily bars")
	interval := flag.Duration("interval", 0, "Re-collection interval (0 runs once and exits)")
	metricsAddr := flag.String("metrics-addr", cfg.Metrics.Addr, "Prometheus metrics HTTP address (empty to disable)")

	flag.Parse()

	logger := log.New(os.Stdout, "[marketdata] ", log.LstdFlags)

	if *resolution != "daily" && *resolution != "hourly" && *resolution != "both" {
		logger.Fatalf("Invalid resolution: %s. Must be daily, hourly, or both", *resolution)
	}

	metrics := observability.NewMetrics("")
	startMetricsServer(logger, *metricsAddr)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	done := make(chan error, 1)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()

		select {
		case sig := <-sigCh:
			logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Println("Graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		case <-done:
		}
	}()

	err = run(ctx, logger, cfg, metrics, *resolution, *days, *postgresDSN, *useMemory, *apiKey, *symbol, *interval)

	done <- err
	cancel()

	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatalf("Error: %v", err)
	}
	logger.Println("Shutdown complete")
}

func run(ctx context.Context, logger *log.Logger, cfg *config.Config, metrics *observability.Metrics, resolution string, days int, postgresDSN string, useMemory bool, apiKey, symbol string, interval time.Duration) error {
	var (
		dailyStore  storage.DailyBarStore
		hourlyStore storage.HourlyBarStore
	)
	if useMemory {
		dailyStore = memory.NewDailyBarStore()
		hourlyStore = memory.NewHourlyBarStore()
	} else {
		dsn := postgresDSN
		if dsn == "" {
			dsn = cfg.Postgres.DSN()
		}
		pool, err := pgstore.NewPool(ctx, dsn)
		if err != nil {
			return err
		}
		defer pool.Close()
		dailyStore = pgstore.NewDailyBarStore(pool)
		hourlyStore = pgstore.NewHourlyBarStore(pool)
	}

	collector := marketdata.NewCollector(
		marketdata.NewYahooClient(marketdata.WithYahooSymbol(symbol)),
		marketdata.NewCryptoCompareClient(apiKey),
		dailyStore,
		hourlyStore,
		marketdata.WithCollectorLogger(logger),
		marketdata.WithCollectorMetrics(metrics),
	)

	for {
		now := time.Now().UTC()
		from := now.AddDate(0, 0, -days)

		if resolution == "daily" || resolution == "both" {
			n, err := collector.Collect(ctx, domain.ResolutionDaily, from, now)
			if err != nil {
				return err
			}
			logger.Printf("Collected %d daily bars", n)
		}
		if resolution == "hourly" || resolution == "both" {
			n, err := collector.Collect(ctx, domain.ResolutionHourly, from, now)
			if err != nil {
				return err
			}
			logger.Printf("Collected %d hourly bars", n)
		}

		if interval <= 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
}

func startMetricsServer(logger *log.Logger, addr string) {
	if addr == "" {
		return
	}
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", observability.Handler())
		mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("ok"))
		})
		logger.Printf("Starting metrics server on %s", addr)
		if err := http.ListenAndServe(addr, mux); err != nil && err != http.ErrServerClosed {
			logger.Printf("Metrics server error: %v", err)
		}
	}()
}
