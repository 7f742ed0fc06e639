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
	"btc-sentiment-lab/internal/observability"
	"btc-sentiment-lab/internal/pipeline"
	"btc-sentiment-lab/internal/storage"
	"btc-sentiment-lab/internal/storage/memory"
	pgstore "btc-sentiment-lab/internal/storage/postgres"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	since := flag.String("since", "", "Process posts created at or after this time (RFC3339, default: 7 days ago)")
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL")
	interval := flag.Duration("interval", 0, "Re-processing interval (0 runs once and exits)")
	metricsAddr := flag.String("metrics-addr", cfg.Metrics.Addr, "Prometheus metrics HTTP address (empty to disable)")

	flag.Parse()

	logger := log.New(os.Stdout, "[pipeline] ", log.LstdFlags)

	sinceTime := time.Now().UTC().AddDate(0, 0, -7)
	if *since != "" {
		parsed, err := time.Parse(time.RFC3339, *since)
		if err != nil {
			logger.Fatalf("Invalid --since: %v", err)
		}
		sinceTime = parsed
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

	err = run(ctx, logger, cfg, metrics, sinceTime, *postgresDSN, *useMemory, *interval)

	done <- err
	cancel()

	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatalf("Error: %v", err)
	}
	logger.Println("Shutdown complete")
}

func run(ctx context.Context, logger *log.Logger, cfg *config.Config, metrics *observability.Metrics, since time.Time, postgresDSN string, useMemory bool, interval time.Duration) error {
	var (
		raw     storage.RawPostStore
		cleaned storage.CleanedPostStore
	)
	if useMemory {
		authors := memory.NewAuthorStore()
		memRaw := memory.NewRawPostStore(authors)
		raw = memRaw
		cleaned = memory.NewCleanedPostStore(memRaw)
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
		raw = pgstore.NewRawPostStore(pool)
		cleaned = pgstore.NewCleanedPostStore(pool)
	}

	processor := pipeline.NewProcessor(
		pipeline.New(pipeline.WithPipelineMetrics(metrics)),
		raw,
		cleaned,
		pipeline.WithProcessorLogger(logger),
		pipeline.WithProcessorMetrics(metrics),
	)

	for {
		n, err := processor.Run(ctx, since)
		if err != nil {
			return err
		}
		logger.Printf("Stored %d cleaned posts", n)

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
