// Package config defines the top-level configuration for the quote service
// and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by DEXQUOTE_* environment
// variables.
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Oracle    OracleConfig    `toml:"oracle"`
	Router    RouterConfig    `toml:"router"`
	Liquidity LiquidityConfig `toml:"liquidity"`
	Redis     RedisConfig     `toml:"redis"`
	Postgres  PostgresConfig  `toml:"postgres"`
	S3        S3Config        `toml:"s3"`
	Book      BookConfig      `toml:"book"`
	Quote     QuoteConfig     `toml:"quote"`
	Tokens    TokensConfig    `toml:"tokens"`
	Mode      string          `toml:"mode"`
	LogLevel  string          `toml:"log_level"`
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Enabled         bool     `toml:"enabled"`
	Port            int      `toml:"port"`
	CORSOrigins     []string `toml:"cors_origins"`
	APIKey          string   `toml:"api_key"`
	RateLimit       int      `toml:"rate_limit"`
	RateLimitWindow duration `toml:"rate_limit_window"`
}

// OracleConfig holds the spot-price oracle endpoint and polling cadence.
type OracleConfig struct {
	BaseURL         string   `toml:"base_url"`
	RefreshInterval duration `toml:"refresh_interval"`
}

// RouterConfig holds the on-chain router parameters. An empty rpc_url
// disables the router path and every quote uses the oracle fallback.
type RouterConfig struct {
	RPCURL  string `toml:"rpc_url"`
	Address string `toml:"address"`
}

// LiquidityConfig holds the liquidity-sources feed endpoint. Empty disables
// the feed and order books use the flat spread.
type LiquidityConfig struct {
	BaseURL string `toml:"base_url"`
}

// RedisConfig holds Redis connection parameters. When disabled the service
// falls back to in-process caches and bus.
type RedisConfig struct {
	Enabled    bool   `toml:"enabled"`
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// PostgresConfig holds quote-history database parameters.
type PostgresConfig struct {
	Enabled       bool   `toml:"enabled"`
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// S3Config holds object-storage parameters for quote-history archival.
type S3Config struct {
	Enabled         bool     `toml:"enabled"`
	Endpoint        string   `toml:"endpoint"`
	Region          string   `toml:"region"`
	Bucket          string   `toml:"bucket"`
	AccessKey       string   `toml:"access_key"`
	SecretKey       string   `toml:"secret_key"`
	ForcePathStyle  bool     `toml:"force_path_style"`
	ArchiveInterval duration `toml:"archive_interval"`
	RetentionDays   int      `toml:"retention_days"`
}

// BookConfig tunes synthetic order-book generation.
type BookConfig struct {
	// FallbackPrice is the last-resort base price when neither the quote
	// engine nor the oracle can price a pair.
	FallbackPrice string `toml:"fallback_price"`
	// Seed fixes size jitter for reproducible books; 0 seeds from the clock.
	Seed int64 `toml:"seed"`
}

// QuoteConfig tunes the fallback price-impact heuristic.
type QuoteConfig struct {
	ImpactCoefficientPct float64 `toml:"impact_coefficient_pct"`
	ImpactCapPct         float64 `toml:"impact_cap_pct"`
}

// TokensConfig names the native/wrapped pair and lists tokens added on top
// of the built-in set.
type TokensConfig struct {
	NativeSymbol  string        `toml:"native_symbol"`
	WrappedSymbol string        `toml:"wrapped_symbol"`
	Extra         []TokenConfig `toml:"extra"`
}

// TokenConfig is one extra registry entry from the TOML file.
type TokenConfig struct {
	Symbol      string `toml:"symbol"`
	Name        string `toml:"name"`
	Address     string `toml:"address"`
	Decimals    int    `toml:"decimals"`
	LogoURI     string `toml:"logo_uri"`
	CoingeckoID string `toml:"coingecko_id"`
}

// duration wraps time.Duration so the TOML decoder accepts strings like
// "30s" or "5m".
type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values.
// These match the values in config.example.toml.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Enabled:         true,
			Port:            8080,
			CORSOrigins:     []string{"http://localhost:3000", "http://localhost:5173"},
			RateLimit:       0,
			RateLimitWindow: duration{time.Second},
		},
		Oracle: OracleConfig{
			BaseURL:         "https://api.coingecko.com/api/v3",
			RefreshInterval: duration{30 * time.Second},
		},
		Router: RouterConfig{
			// Uniswap V2 router on mainnet.
			Address: "0x7a250d5630B4cF539739dF2C5dAcb4c659F2488D",
		},
		Redis: RedisConfig{
			Enabled:    false,
			Addr:       "localhost:6379",
			PoolSize:   20,
			MaxRetries: 3,
		},
		Postgres: PostgresConfig{
			Enabled:       false,
			Host:          "localhost",
			Port:          5432,
			Database:      "dexquote",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		S3: S3Config{
			Enabled:         false,
			Endpoint:        "http://localhost:9000",
			Region:          "us-east-1",
			Bucket:          "dexquote-archive",
			ForcePathStyle:  true,
			ArchiveInterval: duration{6 * time.Hour},
			RetentionDays:   90,
		},
		Book: BookConfig{
			FallbackPrice: "1000",
		},
		Quote: QuoteConfig{
			ImpactCoefficientPct: 0.01,
			ImpactCapPct:         10,
		},
		Tokens: TokensConfig{
			NativeSymbol:  "ETH",
			WrappedSymbol: "WETH",
		},
		Mode:     "server",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"server":  true,
	"monitor": true,
	"full":    true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns
// a combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: server, monitor, full)", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	if c.Server.Enabled {
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
		}
		if c.Server.RateLimit < 0 {
			errs = append(errs, "server: rate_limit must be >= 0")
		}
	}

	if c.Oracle.BaseURL == "" {
		errs = append(errs, "oracle: base_url must not be empty")
	}
	if c.Oracle.RefreshInterval.Duration <= 0 {
		errs = append(errs, "oracle: refresh_interval must be positive")
	}

	if c.Router.RPCURL != "" && c.Router.Address == "" {
		errs = append(errs, "router: address is required when rpc_url is set")
	}

	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty")
		}
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1")
		}
	}

	if c.Postgres.Enabled {
		if strings.TrimSpace(c.Postgres.DSN) == "" {
			if c.Postgres.Host == "" {
				errs = append(errs, "postgres: host must not be empty (or set postgres.dsn)")
			}
			if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
				errs = append(errs, fmt.Sprintf("postgres: port must be 1-65535, got %d", c.Postgres.Port))
			}
			if c.Postgres.Database == "" {
				errs = append(errs, "postgres: database must not be empty")
			}
		}
		if c.Postgres.PoolMaxConns < 1 {
			errs = append(errs, "postgres: pool_max_conns must be >= 1")
		}
		if c.Postgres.PoolMinConns < 0 || c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
			errs = append(errs, "postgres: pool_min_conns must be between 0 and pool_max_conns")
		}
	}

	if c.S3.Enabled {
		if !c.Postgres.Enabled {
			errs = append(errs, "s3: archival requires postgres to be enabled")
		}
		if c.S3.Endpoint == "" {
			errs = append(errs, "s3: endpoint must not be empty")
		}
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty")
		}
		if c.S3.RetentionDays < 1 {
			errs = append(errs, "s3: retention_days must be >= 1")
		}
	}

	if p, err := decimal.NewFromString(c.Book.FallbackPrice); err != nil || p.LessThanOrEqual(decimal.Zero) {
		errs = append(errs, fmt.Sprintf("book: fallback_price must be a positive decimal, got %q", c.Book.FallbackPrice))
	}

	if c.Quote.ImpactCoefficientPct <= 0 {
		errs = append(errs, "quote: impact_coefficient_pct must be > 0")
	}
	if c.Quote.ImpactCapPct <= 0 {
		errs = append(errs, "quote: impact_cap_pct must be > 0")
	}

	if c.Tokens.NativeSymbol == "" {
		errs = append(errs, "tokens: native_symbol must not be empty")
	}
	if c.Tokens.WrappedSymbol == "" {
		errs = append(errs, "tokens: wrapped_symbol must not be empty")
	}
	for i, tok := range c.Tokens.Extra {
		if tok.Symbol == "" || tok.Address == "" {
			errs = append(errs, fmt.Sprintf("tokens: extra[%d] needs symbol and address", i))
		}
		if tok.Decimals < 0 || tok.Decimals > 255 {
			errs = append(errs, fmt.Sprintf("tokens: extra[%d] decimals out of range: %d", i, tok.Decimals))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
