package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	s3blob "dexquote/internal/blob/s3"
	"dexquote/internal/cache/memory"
	"dexquote/internal/cache/redis"
	"dexquote/internal/config"
	"dexquote/internal/domain"
	"dexquote/internal/liquidity"
	"dexquote/internal/oracle"
	"dexquote/internal/quote"
	"dexquote/internal/registry"
	"dexquote/internal/router"
	"dexquote/internal/service"
	"dexquote/internal/store/postgres"
)

// Dependencies bundles everything the application modes need to operate. It
// is constructed by Wire and torn down by the returned cleanup function.
type Dependencies struct {
	Registry *registry.Registry
	Oracle   *oracle.Client

	// Caches and bus; redis-backed when configured, in-process otherwise.
	PriceCache  domain.PriceCache
	BookCache   domain.BookCache
	SignalBus   domain.SignalBus
	RateLimiter domain.RateLimiter // nil without redis

	// Optional infrastructure.
	QuoteStore domain.QuoteStore // nil without postgres
	Archiver   *s3blob.Archiver  // nil without s3

	// Services.
	Quotes *service.QuoteService
	Books  *service.BookService
	Prices *service.PriceService
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that
// releases resources on shutdown.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	reg, err := buildRegistry(cfg.Tokens)
	if err != nil {
		return nil, nil, fmt.Errorf("wire: registry: %w", err)
	}
	deps.Registry = reg

	deps.Oracle = oracle.New(cfg.Oracle.BaseURL, reg.OracleIDs(), logger)

	if cfg.Redis.Enabled {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		deps.PriceCache = redis.NewPriceCache(redisClient)
		deps.BookCache = redis.NewBookCache(redisClient)
		deps.SignalBus = redis.NewSignalBus(redisClient)
		deps.RateLimiter = redis.NewRateLimiter(redisClient)
	} else {
		deps.PriceCache = memory.NewPriceCache()
		deps.BookCache = memory.NewBookCache()
		deps.SignalBus = memory.NewSignalBus()
	}

	if cfg.Postgres.Enabled {
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Postgres.DSN,
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			Database: cfg.Postgres.Database,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			SSLMode:  cfg.Postgres.SSLMode,
			MaxConns: cfg.Postgres.PoolMaxConns,
			MinConns: cfg.Postgres.PoolMinConns,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)

		if cfg.Postgres.RunMigrations {
			if err := pgClient.RunMigrations(ctx); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
			}
		}

		deps.QuoteStore = postgres.NewQuoteStore(pgClient.Pool())
	}

	if cfg.S3.Enabled {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		closers = append(closers, func() { _ = s3Client.Close() })

		if deps.QuoteStore != nil {
			deps.Archiver = s3blob.NewArchiver(s3blob.NewWriter(s3Client), deps.QuoteStore, logger)
		}
	}

	var rtr domain.Router
	if cfg.Router.RPCURL != "" {
		client, err := router.Dial(ctx, cfg.Router.RPCURL, cfg.Router.Address, logger)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: router: %w", err)
		}
		closers = append(closers, client.Close)
		rtr = client
	}

	var feed service.LiquidityFeed
	if cfg.Liquidity.BaseURL != "" {
		feed = liquidity.New(cfg.Liquidity.BaseURL, logger)
	}

	engine := quote.NewEngine(deps.Oracle, rtr, reg, quote.Config{
		CoefficientPct: decimal.NewFromFloat(cfg.Quote.ImpactCoefficientPct),
		CapPct:         decimal.NewFromFloat(cfg.Quote.ImpactCapPct),
	}, logger)

	fallbackPrice, err := decimal.NewFromString(cfg.Book.FallbackPrice)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: book fallback price: %w", err)
	}

	deps.Quotes = service.NewQuoteService(engine, reg, deps.QuoteStore, deps.SignalBus, logger)
	deps.Books = service.NewBookService(engine, deps.Oracle, reg, feed, deps.BookCache, deps.SignalBus,
		service.BookConfig{FallbackPrice: fallbackPrice, Seed: cfg.Book.Seed}, logger)
	deps.Prices = service.NewPriceService(deps.Oracle, reg, deps.PriceCache, deps.SignalBus, logger)

	return deps, cleanup, nil
}

// buildRegistry merges extra configured tokens over the built-in set.
func buildRegistry(cfg config.TokensConfig) (*registry.Registry, error) {
	tokens := registry.Mainnet()
	for _, t := range cfg.Extra {
		tokens = append(tokens, domain.Token{
			Symbol:      t.Symbol,
			Name:        t.Name,
			Address:     t.Address,
			Decimals:    uint8(t.Decimals),
			LogoURI:     t.LogoURI,
			CoingeckoID: t.CoingeckoID,
		})
	}
	return registry.New(tokens, cfg.NativeSymbol, cfg.WrappedSymbol)
}
