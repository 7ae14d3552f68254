package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"dexquote/internal/server"
	"dexquote/internal/server/handler"
	"dexquote/internal/server/ws"
)

// shutdownGrace bounds how long in-flight HTTP requests may drain.
const shutdownGrace = 10 * time.Second

// ServerMode runs the HTTP + WebSocket API plus the price refresh loop.
func (a *App) ServerMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting server mode")

	g, ctx := errgroup.WithContext(ctx)

	a.startPriceRefresher(ctx, g, deps)
	a.startHTTPServer(ctx, g, deps)

	return g.Wait()
}

// MonitorMode runs only the price refresh loop, keeping the shared cache and
// bus warm for other instances.
func (a *App) MonitorMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting monitor mode")

	g, ctx := errgroup.WithContext(ctx)
	a.startPriceRefresher(ctx, g, deps)
	return g.Wait()
}

// FullMode runs every subsystem: API server, price refresh loop, and the
// history archiver when configured.
func (a *App) FullMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting full mode")

	g, ctx := errgroup.WithContext(ctx)

	a.startPriceRefresher(ctx, g, deps)
	a.startHTTPServer(ctx, g, deps)

	if deps.Archiver != nil {
		interval := a.cfg.S3.ArchiveInterval.Duration
		retention := time.Duration(a.cfg.S3.RetentionDays) * 24 * time.Hour
		g.Go(func() error {
			return deps.Archiver.Run(ctx, interval, retention)
		})
	}

	return g.Wait()
}

// startPriceRefresher primes the oracle snapshot and keeps it fresh on the
// configured interval.
func (a *App) startPriceRefresher(ctx context.Context, g *errgroup.Group, deps *Dependencies) {
	g.Go(func() error {
		if err := deps.Prices.Refresh(ctx); err != nil {
			a.logger.WarnContext(ctx, "initial price refresh failed", slog.String("error", err.Error()))
		}
		deps.Prices.Run(ctx, a.cfg.Oracle.RefreshInterval.Duration)
		return ctx.Err()
	})
}

// startHTTPServer builds the handler set, WebSocket hub, and HTTP server,
// and ties graceful shutdown to the group context.
func (a *App) startHTTPServer(ctx context.Context, g *errgroup.Group, deps *Dependencies) {
	if !a.cfg.Server.Enabled {
		a.logger.InfoContext(ctx, "http server disabled")
		return
	}

	hub := ws.NewHub(deps.SignalBus, a.logger)
	g.Go(func() error {
		err := hub.Run(ctx)
		if err == context.Canceled {
			return nil
		}
		return err
	})

	srv := server.New(server.Config{
		Port:            a.cfg.Server.Port,
		CORSOrigins:     a.cfg.Server.CORSOrigins,
		APIKey:          a.cfg.Server.APIKey,
		RateLimit:       a.cfg.Server.RateLimit,
		RateLimitWindow: a.cfg.Server.RateLimitWindow.Duration,
	}, server.Handlers{
		Health: handler.NewHealthHandler(),
		Tokens: handler.NewTokenHandler(deps.Registry),
		Prices: handler.NewPriceHandler(deps.Prices),
		Quotes: handler.NewQuoteHandler(deps.Quotes),
		Books:  handler.NewBookHandler(deps.Books),
	}, hub, deps.RateLimiter, a.logger)

	g.Go(srv.Start)

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("app: http shutdown: %w", err)
		}
		return nil
	})
}
