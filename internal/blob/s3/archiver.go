package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"dexquote/internal/domain"
)

// archiveBatchSize bounds how many quotes one archive object holds.
const archiveBatchSize = 5000

// Archiver moves aged quote history out of the primary store into JSONL
// objects in blob storage, then deletes the archived rows.
type Archiver struct {
	writer domain.BlobWriter
	quotes domain.QuoteStore
	logger *slog.Logger
}

// NewArchiver creates an Archiver.
func NewArchiver(writer domain.BlobWriter, quotes domain.QuoteStore, logger *slog.Logger) *Archiver {
	return &Archiver{
		writer: writer,
		quotes: quotes,
		logger: logger.With(slog.String("component", "archiver")),
	}
}

// ArchiveBefore archives and deletes all quotes created before cutoff.
// Returns the number of quotes archived.
func (a *Archiver) ArchiveBefore(ctx context.Context, cutoff time.Time) (int, error) {
	total := 0
	for {
		batch, err := a.quotes.ListBefore(ctx, cutoff, archiveBatchSize)
		if err != nil {
			return total, fmt.Errorf("archiver: list quotes: %w", err)
		}
		if len(batch) == 0 {
			break
		}

		body, err := encodeJSONL(batch)
		if err != nil {
			return total, fmt.Errorf("archiver: encode batch: %w", err)
		}

		key := fmt.Sprintf("archive/quotes/%s/%s.jsonl",
			batch[0].CreatedAt.UTC().Format("2006/01/02"),
			batch[len(batch)-1].CreatedAt.UTC().Format("20060102T150405Z"),
		)
		if err := a.writer.Put(ctx, key, body, "application/x-ndjson"); err != nil {
			return total, fmt.Errorf("archiver: upload %s: %w", key, err)
		}

		// Delete only up to the last archived row so an upload failure on a
		// later batch never drops unarchived data.
		lastArchived := batch[len(batch)-1].CreatedAt
		deleted, err := a.quotes.DeleteBefore(ctx, lastArchived.Add(time.Millisecond))
		if err != nil {
			return total, fmt.Errorf("archiver: delete archived quotes: %w", err)
		}

		total += len(batch)
		a.logger.InfoContext(ctx, "archived quote batch",
			slog.String("key", key),
			slog.Int("quotes", len(batch)),
			slog.Int64("deleted", deleted),
		)

		if len(batch) < archiveBatchSize {
			break
		}
	}
	return total, nil
}

// Run archives on the given interval until ctx is cancelled. retention
// controls how old a quote must be before it is archived.
func (a *Archiver) Run(ctx context.Context, interval, retention time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			n, err := a.ArchiveBefore(ctx, time.Now().Add(-retention))
			if err != nil {
				a.logger.ErrorContext(ctx, "archive pass failed", slog.String("error", err.Error()))
				continue
			}
			if n > 0 {
				a.logger.InfoContext(ctx, "archive pass complete", slog.Int("quotes", n))
			}
		}
	}
}

func encodeJSONL(quotes []domain.Quote) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, q := range quotes {
		if err := enc.Encode(q); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}
