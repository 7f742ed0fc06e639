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

	"btc-sentiment-lab/internal/aggregation"
	"btc-sentiment-lab/internal/config"
	"btc-sentiment-lab/internal/domain"
	"btc-sentiment-lab/internal/observability"
	"btc-sentiment-lab/internal/readmodel"
	"btc-sentiment-lab/internal/snapshot"
	chstore "btc-sentiment-lab/internal/storage/clickhouse"
	pgstore "btc-sentiment-lab/internal/storage/postgres"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", cfg.ClickHouse.DSN, "ClickHouse connection string for the analytics archive (empty to disable)")
	snapshotDir := flag.String("snapshot-dir", cfg.Snapshot.Dir, "Directory for snapshot artifacts")
	interval := flag.Duration("interval", time.Hour, "Refresh cadence (0 runs once and exits)")
	metricsAddr := flag.String("metrics-addr", cfg.Metrics.Addr, "Prometheus metrics HTTP address (empty to disable)")

	flag.Parse()

	logger := log.New(os.Stdout, "[refresh] ", log.LstdFlags)

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

	err = run(ctx, logger, cfg, metrics, *postgresDSN, *clickhouseDSN, *snapshotDir, *interval)

	done <- err
	cancel()

	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatalf("Error: %v", err)
	}
	logger.Println("Shutdown complete")
}

func run(ctx context.Context, logger *log.Logger, cfg *config.Config, metrics *observability.Metrics, postgresDSN, clickhouseDSN, snapshotDir string, interval time.Duration) error {
	dsn := postgresDSN
	if dsn == "" {
		dsn = cfg.Postgres.DSN()
	}
	pool, err := pgstore.NewPool(ctx, dsn)
	if err != nil {
		return err
	}
	defer pool.Close()

	cleaned := pgstore.NewCleanedPostStore(pool)
	daily := pgstore.NewDailyBarStore(pool)
	hourly := pgstore.NewHourlyBarStore(pool)

	cache, err := snapshot.NewCache(snapshotDir)
	if err != nil {
		return err
	}

	engine := aggregation.NewEngine(cleaned, daily, hourly, aggregation.WithEngineLogger(logger))

	opts := []readmodel.RefresherOption{
		readmodel.WithRefresherLogger(logger),
		readmodel.WithRefresherMetrics(metrics),
	}
	if clickhouseDSN != "" {
		conn, err := chstore.NewConn(ctx, clickhouseDSN)
		if err != nil {
			return err
		}
		defer conn.Close()
		opts = append(opts, readmodel.WithArchive(chstore.NewBucketArchiveStore(conn)))
	}

	refresher := readmodel.NewRefresher(engine, cache, cleaned, daily, hourly, domain.DefaultRoster, opts...)

	for {
		if err := refresher.Refresh(ctx); err != nil {
			// A failed run keeps serving the previous snapshots.
			logger.Printf("Refresh failed: %v", err)
			if interval <= 0 {
				return err
			}
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
