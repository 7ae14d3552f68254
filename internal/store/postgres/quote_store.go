package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"dexquote/internal/domain"
)

// QuoteStore implements domain.QuoteStore using PostgreSQL. Only the token
// symbols are persisted; rows read back carry tokens with symbol set and the
// caller resolves full registry entries when it needs them.
type QuoteStore struct {
	pool *pgxpool.Pool
}

// NewQuoteStore creates a new QuoteStore backed by the given connection pool.
func NewQuoteStore(pool *pgxpool.Pool) *QuoteStore {
	return &QuoteStore{pool: pool}
}

const quoteSelectCols = `id, from_symbol, to_symbol, amount_in, amount_out,
	rate, impact_pct, provenance, slippage_pct, minimum_out, created_at`

func scanQuoteRows(rows pgx.Rows) ([]domain.Quote, error) {
	var quotes []domain.Quote
	for rows.Next() {
		var (
			q          domain.Quote
			fromSym    string
			toSym      string
			provenance string
		)
		if err := rows.Scan(
			&q.ID, &fromSym, &toSym, &q.AmountIn, &q.AmountOut,
			&q.Rate, &q.ImpactPct, &provenance, &q.SlippagePct,
			&q.MinimumOut, &q.CreatedAt,
		); err != nil {
			return nil, err
		}
		q.FromToken = domain.Token{Symbol: fromSym}
		q.ToToken = domain.Token{Symbol: toSym}
		q.Provenance = domain.QuoteProvenance(provenance)
		quotes = append(quotes, q)
	}
	return quotes, rows.Err()
}

// Insert persists one quote.
func (s *QuoteStore) Insert(ctx context.Context, q domain.Quote) error {
	const query = `
		INSERT INTO quotes (
			id, from_symbol, to_symbol, amount_in, amount_out,
			rate, impact_pct, provenance, slippage_pct, minimum_out, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO NOTHING`

	_, err := s.pool.Exec(ctx, query,
		q.ID, q.FromToken.Symbol, q.ToToken.Symbol, q.AmountIn, q.AmountOut,
		q.Rate, q.ImpactPct, string(q.Provenance), q.SlippagePct,
		q.MinimumOut, q.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert quote %s: %w", q.ID, err)
	}
	return nil
}

// ListRecent returns the newest quotes, most recent first.
func (s *QuoteStore) ListRecent(ctx context.Context, limit int) ([]domain.Quote, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+quoteSelectCols+` FROM quotes ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list recent quotes: %w", err)
	}
	defer rows.Close()

	quotes, err := scanQuoteRows(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan quotes: %w", err)
	}
	return quotes, nil
}

// ListBefore returns quotes created before cutoff, oldest first, for
// archival.
func (s *QuoteStore) ListBefore(ctx context.Context, cutoff time.Time, limit int) ([]domain.Quote, error) {
	if limit <= 0 {
		limit = 1000
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+quoteSelectCols+` FROM quotes WHERE created_at < $1 ORDER BY created_at ASC LIMIT $2`,
		cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list quotes before %s: %w", cutoff, err)
	}
	defer rows.Close()

	quotes, err := scanQuoteRows(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan quotes: %w", err)
	}
	return quotes, nil
}

// DeleteBefore removes quotes created before cutoff and returns the number
// deleted.
func (s *QuoteStore) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM quotes WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("postgres: delete quotes before %s: %w", cutoff, err)
	}
	return tag.RowsAffected(), nil
}

var _ domain.QuoteStore = (*QuoteStore)(nil)
