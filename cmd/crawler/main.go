package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/time/rate"

	"btc-sentiment-lab/internal/config"
	"btc-sentiment-lab/internal/crawler"
	"btc-sentiment-lab/internal/domain"
	"btc-sentiment-lab/internal/observability"
	"btc-sentiment-lab/internal/storage"
	"btc-sentiment-lab/internal/storage/memory"
	pgstore "btc-sentiment-lab/internal/storage/postgres"
	"btc-sentiment-lab/internal/twitter"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// Parse flags. Flags override environment config for one-off runs.
	bearerToken := flag.String("bearer-token", cfg.Twitter.BearerToken, "Twitter API v2 bearer token")
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL")
	handles := flag.String("handles", "", "Comma-separated handles to crawl (default: built-in roster)")
	postsDays := flag.Int("posts-days", 7, "Timeline lookback in days")
	repliesDays := flag.Int("replies-days", 7, "Reply lookback in days (API caps recent search at 7)")
	withReplies := flag.Bool("replies", true, "Expand conversations and collect replies")
	interval := flag.Duration("interval", 0, "Re-crawl interval (0 runs once and exits)")
	rps := flag.Float64("rps", 1, "Max provider requests per second")
	metricsAddr := flag.String("metrics-addr", cfg.Metrics.Addr, "Prometheus metrics HTTP address (empty to disable)")

	flag.Parse()

	logger := log.New(os.Stdout, "[crawler] ", log.LstdFlags)

	if *bearerToken == "" {
		logger.Fatal("--bearer-token or TWITTER_BEARER_TOKEN is required")
	}

	metrics := observability.NewMetrics("")
	startMetricsServer(logger, *metricsAddr)

	roster := resolveRoster(*handles)
	if len(roster) == 0 {
		logger.Fatal("Empty roster")
	}
	logger.Printf("Crawling %d accounts", len(roster))

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

	err = run(ctx, logger, cfg, metrics, roster, runSettings{
		bearerToken: *bearerToken,
		postgresDSN: *postgresDSN,
		useMemory:   *useMemory,
		postsDays:   *postsDays,
		repliesDays: *repliesDays,
		withReplies: *withReplies,
		interval:    *interval,
		rps:         *rps,
	})

	done <- err
	cancel()

	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatalf("Error: %v", err)
	}
	logger.Println("Shutdown complete")
}

type runSettings struct {
	bearerToken string
	postgresDSN string
	useMemory   bool
	postsDays   int
	repliesDays int
	withReplies bool
	interval    time.Duration
	rps         float64
}

func run(ctx context.Context, logger *log.Logger, cfg *config.Config, metrics *observability.Metrics, roster []domain.RosterEntry, s runSettings) error {
	var (
		authors storage.AuthorStore
		posts   storage.RawPostStore
	)
	if s.useMemory {
		memAuthors := memory.NewAuthorStore()
		authors = memAuthors
		posts = memory.NewRawPostStore(memAuthors)
	} else {
		dsn := s.postgresDSN
		if dsn == "" {
			dsn = cfg.Postgres.DSN()
		}
		pool, err := pgstore.NewPool(ctx, dsn)
		if err != nil {
			return err
		}
		defer pool.Close()
		authors = pgstore.NewAuthorStore(pool)
		posts = pgstore.NewRawPostStore(pool)
	}

	client := twitter.NewClient(s.bearerToken, twitter.WithBaseURL(cfg.Twitter.BaseURL))
	c := crawler.New(client, authors, posts,
		crawler.WithQuota(crawler.QuotaConfig{
			RequestLimit:      cfg.Twitter.RequestLimit,
			SafetyMargin:      cfg.Twitter.SafetyMargin,
			QuotaWindow:       cfg.Twitter.QuotaWindow,
			RateLimitCooldown: cfg.Twitter.RateLimitCooldown,
		}),
		crawler.WithReplies(s.withReplies),
		crawler.WithLimiter(rate.NewLimiter(rate.Limit(s.rps), 1)),
		crawler.WithLogger(logger),
		crawler.WithMetrics(metrics),
	)

	for {
		window := crawlWindow(time.Now().UTC(), s.postsDays, s.repliesDays)
		result, err := c.Crawl(ctx, roster, window)
		if err != nil {
			return err
		}
		logger.Printf("Crawl finished: %d posts in %d requests, %d unresolved handles",
			result.PostsFetched, result.TotalRequests, len(result.SkippedHandles))

		if s.interval <= 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.interval):
		}
	}
}

func crawlWindow(now time.Time, postsDays, repliesDays int) crawler.Window {
	return crawler.Window{
		PostsStart:   now.AddDate(0, 0, -postsDays),
		RepliesStart: now.AddDate(0, 0, -repliesDays),
		End:          now,
	}
}

// resolveRoster maps --handles onto roster entries, falling back to
// the built-in roster. Unknown handles get an empty account ID and
// are resolved at crawl time.
func resolveRoster(handles string) []domain.RosterEntry {
	if handles == "" {
		return domain.DefaultRoster
	}

	known := make(map[string]domain.RosterEntry)
	for _, entry := range domain.DefaultRoster {
		known[strings.ToLower(entry.Handle)] = entry
	}

	var roster []domain.RosterEntry
	for _, h := range strings.Split(handles, ",") {
		h = strings.TrimSpace(h)
		if h == "" {
			continue
		}
		if entry, ok := known[strings.ToLower(h)]; ok {
			roster = append(roster, entry)
			continue
		}
		roster = append(roster, domain.RosterEntry{Handle: h})
	}
	return roster
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
