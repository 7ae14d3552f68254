package domain

import (
	"context"
	"time"
)

// QuoteStore persists quote history.
type QuoteStore interface {
	Insert(ctx context.Context, q Quote) error
	ListRecent(ctx context.Context, limit int) ([]Quote, error)
	ListBefore(ctx context.Context, cutoff time.Time, limit int) ([]Quote, error)
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// BlobWriter writes archive objects to blob storage.
type BlobWriter interface {
	Put(ctx context.Context, key string, body []byte, contentType string) error
}
