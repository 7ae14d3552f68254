package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"dexquote/internal/domain"
	"dexquote/internal/server/handler"
	"dexquote/internal/server/middleware"
	"dexquote/internal/server/ws"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port            int
	CORSOrigins     []string
	APIKey          string // empty disables authentication
	RateLimit       int    // requests per window, 0 disables
	RateLimitWindow time.Duration
}

// Handlers aggregates the HTTP handlers the server registers.
type Handlers struct {
	Health *handler.HealthHandler
	Tokens *handler.TokenHandler
	Prices *handler.PriceHandler
	Quotes *handler.QuoteHandler
	Books  *handler.BookHandler
}

// Server is the HTTP + WebSocket API front end.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// New registers all routes and builds the middleware chain (rate limit,
// auth, logging, CORS from innermost to outermost). limiter may be nil.
func New(cfg Config, handlers Handlers, wsHub *ws.Hub, limiter domain.RateLimiter, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	// Health check, no auth.
	mux.HandleFunc("GET /api/health", handlers.Health.HealthCheck)

	mux.HandleFunc("GET /api/tokens", handlers.Tokens.ListTokens)
	mux.HandleFunc("GET /api/tokens/{symbol}", handlers.Tokens.GetToken)

	mux.HandleFunc("GET /api/prices", handlers.Prices.ListPrices)

	mux.HandleFunc("GET /api/quote", handlers.Quotes.GetQuote)
	mux.HandleFunc("GET /api/quotes/recent", handlers.Quotes.ListRecent)

	mux.HandleFunc("GET /api/orderbook", handlers.Books.GetOrderBook)
	mux.HandleFunc("GET /api/orderbook/impact", handlers.Books.GetImpact)

	if wsHub != nil {
		mux.HandleFunc("GET /ws", wsHub.HandleWS)
	}

	var h http.Handler = mux
	if limiter != nil && cfg.RateLimit > 0 {
		window := cfg.RateLimitWindow
		if window <= 0 {
			window = time.Second
		}
		h = middleware.RateLimit(limiter, cfg.RateLimit, window)(h)
	}
	h = middleware.Auth(cfg.APIKey)(h)
	h = middleware.Logging(logger)(h)
	h = middleware.CORS(cfg.CORSOrigins)(h)

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      h,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}
}

// Start blocks serving requests until the listener fails or Shutdown runs.
func (s *Server) Start() error {
	s.logger.Info("server: starting", slog.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests within the context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server: shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
