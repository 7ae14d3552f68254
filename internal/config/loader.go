package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies DEXQUOTE_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	// Load .env if present; silently ignore when missing.
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known DEXQUOTE_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This
// lets operators inject secrets at deploy time without touching the TOML
// file.
func applyEnvOverrides(cfg *Config) {
	setBool(&cfg.Server.Enabled, "DEXQUOTE_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "DEXQUOTE_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "DEXQUOTE_SERVER_CORS_ORIGINS")
	setStr(&cfg.Server.APIKey, "DEXQUOTE_SERVER_API_KEY")
	setInt(&cfg.Server.RateLimit, "DEXQUOTE_SERVER_RATE_LIMIT")
	setDuration(&cfg.Server.RateLimitWindow, "DEXQUOTE_SERVER_RATE_LIMIT_WINDOW")

	setStr(&cfg.Oracle.BaseURL, "DEXQUOTE_ORACLE_BASE_URL")
	setDuration(&cfg.Oracle.RefreshInterval, "DEXQUOTE_ORACLE_REFRESH_INTERVAL")

	setStr(&cfg.Router.RPCURL, "DEXQUOTE_ROUTER_RPC_URL")
	setStr(&cfg.Router.Address, "DEXQUOTE_ROUTER_ADDRESS")

	setStr(&cfg.Liquidity.BaseURL, "DEXQUOTE_LIQUIDITY_BASE_URL")

	setBool(&cfg.Redis.Enabled, "DEXQUOTE_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "DEXQUOTE_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "DEXQUOTE_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "DEXQUOTE_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "DEXQUOTE_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "DEXQUOTE_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "DEXQUOTE_REDIS_TLS_ENABLED")

	setBool(&cfg.Postgres.Enabled, "DEXQUOTE_POSTGRES_ENABLED")
	setStr(&cfg.Postgres.DSN, "DEXQUOTE_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "DEXQUOTE_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "DEXQUOTE_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "DEXQUOTE_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "DEXQUOTE_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "DEXQUOTE_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "DEXQUOTE_POSTGRES_SSL_MODE")
	setInt(&cfg.Postgres.PoolMaxConns, "DEXQUOTE_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "DEXQUOTE_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "DEXQUOTE_POSTGRES_RUN_MIGRATIONS")

	setBool(&cfg.S3.Enabled, "DEXQUOTE_S3_ENABLED")
	setStr(&cfg.S3.Endpoint, "DEXQUOTE_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "DEXQUOTE_S3_REGION")
	setStr(&cfg.S3.Bucket, "DEXQUOTE_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "DEXQUOTE_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "DEXQUOTE_S3_SECRET_KEY")
	setBool(&cfg.S3.ForcePathStyle, "DEXQUOTE_S3_FORCE_PATH_STYLE")
	setDuration(&cfg.S3.ArchiveInterval, "DEXQUOTE_S3_ARCHIVE_INTERVAL")
	setInt(&cfg.S3.RetentionDays, "DEXQUOTE_S3_RETENTION_DAYS")

	setStr(&cfg.Book.FallbackPrice, "DEXQUOTE_BOOK_FALLBACK_PRICE")
	setInt64(&cfg.Book.Seed, "DEXQUOTE_BOOK_SEED")

	setFloat64(&cfg.Quote.ImpactCoefficientPct, "DEXQUOTE_QUOTE_IMPACT_COEFFICIENT_PCT")
	setFloat64(&cfg.Quote.ImpactCapPct, "DEXQUOTE_QUOTE_IMPACT_CAP_PCT")

	setStr(&cfg.Tokens.NativeSymbol, "DEXQUOTE_TOKENS_NATIVE_SYMBOL")
	setStr(&cfg.Tokens.WrappedSymbol, "DEXQUOTE_TOKENS_WRAPPED_SYMBOL")

	setStr(&cfg.Mode, "DEXQUOTE_MODE")
	setStr(&cfg.LogLevel, "DEXQUOTE_LOG_LEVEL")
}

// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
