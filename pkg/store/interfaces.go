package store

import (
	"context"
	"time"
)

// HistoryRecord is one completed dispatch, kept for operator auditing.
type HistoryRecord struct {
	RequestID      string
	Fingerprint    string
	TextLength     int
	Language       string
	Destination    string
	Tier           string
	FallbackReason string
	OutputPath     string
	Container      string
	Cost           float64
	CreatedAt      time.Time
}

// HistoryStore handles dispatch history persistence.
type HistoryStore interface {
	AppendHistory(ctx context.Context, rec *HistoryRecord) error
	RecentHistory(ctx context.Context, limit int) ([]*HistoryRecord, error)
}

// StateStore handles persistent application state.
type StateStore interface {
	GetState(ctx context.Context, key string) (string, bool)
	SetState(ctx context.Context, key, val string) error
	DeleteState(ctx context.Context, key string) error
}

// Store composes all sub-interfaces for full store access.
// Consumers should depend on specific sub-interfaces when possible.
type Store interface {
	HistoryStore
	StateStore

	// Close closes the store connection.
	Close() error
}
