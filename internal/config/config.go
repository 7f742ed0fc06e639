// Package config loads environment-driven settings shared by the
// collection and serving jobs. Flags on each command override it for
// one-off runs.
package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App        AppConfig
	Twitter    TwitterConfig
	MarketData MarketDataConfig
	Postgres   PostgresConfig
	ClickHouse ClickHouseConfig
	Snapshot   SnapshotConfig
	Metrics    MetricsConfig
}

type AppConfig struct {
	Name string `envconfig:"APP_NAME" default:"btc-sentiment-lab"`
	Env  string `envconfig:"APP_ENV" default:"development"`
}

type TwitterConfig struct {
	BearerToken string `envconfig:"TWITTER_BEARER_TOKEN"`
	BaseURL     string `envconfig:"TWITTER_BASE_URL" default:"https://api.twitter.com"`

	// Quota settings for the v2 recent search tier.
	RequestLimit      int           `envconfig:"TWITTER_REQUEST_LIMIT" default:"450"`
	SafetyMargin      int           `envconfig:"TWITTER_SAFETY_MARGIN" default:"1"`
	QuotaWindow       time.Duration `envconfig:"TWITTER_QUOTA_WINDOW" default:"16m"`
	RateLimitCooldown time.Duration `envconfig:"TWITTER_RATE_LIMIT_COOLDOWN" default:"20m"`
}

type MarketDataConfig struct {
	YahooSymbol          string `envconfig:"YAHOO_SYMBOL" default:"BTC-USD"`
	CryptoCompareAPIKey  string `envconfig:"CRYPTOCOMPARE_API_KEY"`
	CryptoCompareBaseURL string `envconfig:"CRYPTOCOMPARE_BASE_URL" default:"https://min-api.cryptocompare.com"`
}

type PostgresConfig struct {
	Host     string `envconfig:"POSTGRES_HOST" default:"localhost"`
	Port     int    `envconfig:"POSTGRES_PORT" default:"5432"`
	User     string `envconfig:"POSTGRES_USER" default:"postgres"`
	Password string `envconfig:"POSTGRES_PASSWORD"`
	Database string `envconfig:"POSTGRES_DB" default:"btc_sentiment"`
	SSLMode  string `envconfig:"POSTGRES_SSL_MODE" default:"disable"`
}

func (c PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

type ClickHouseConfig struct {
	// Empty DSN disables the analytics archive.
	DSN string `envconfig:"CLICKHOUSE_DSN"`
}

type SnapshotConfig struct {
	Dir string `envconfig:"SNAPSHOT_DIR" default:"snapshots"`
}

type MetricsConfig struct {
	Addr string `envconfig:"METRICS_ADDR" default:":9100"`
}

// Load reads configuration from the environment, sourcing a .env file
// first when one exists.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("processing env config: %w", err)
	}
	return &cfg, nil
}
