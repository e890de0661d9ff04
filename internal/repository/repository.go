package repository

import (
	"context"
	"errors"

	"tcg-labeler/internal/model"
)

// DefaultListLimit caps list queries that do not ask for a limit.
const DefaultListLimit = 50

var (
	// ErrNotFound is returned when a keyed record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrBatchOwned is returned when a batch id already belongs to another user.
	ErrBatchOwned = errors.New("batch belongs to another user")
)

// OrderRepository stores one document per purchased label.
type OrderRepository interface {
	// Create stores a new order document under doc.ID.
	Create(ctx context.Context, doc *model.OrderDocument) error

	// ListByBatch returns the user's documents in a batch, newest first.
	ListByBatch(ctx context.Context, userID, batchID string) ([]model.OrderDocument, error)

	// ListByUser returns the user's most recent documents, newest first.
	ListByUser(ctx context.Context, userID string, limit int) ([]model.OrderDocument, error)
}

// BatchRepository stores one record per batch.
type BatchRepository interface {
	// Create stores a batch record keyed by its batch id. Writing the same id
	// again replaces the record when the owner matches, and returns
	// ErrBatchOwned otherwise.
	Create(ctx context.Context, batch *model.BatchRecord) error

	// GetByID returns the batch or ErrNotFound.
	GetByID(ctx context.Context, batchID string) (*model.BatchRecord, error)

	// ListByUser returns the user's batches, newest first.
	ListByUser(ctx context.Context, userID string, limit int) ([]model.BatchRecord, error)
}

// SettingsRepository stores per-user settings.
type SettingsRepository interface {
	// Get returns the user's settings or ErrNotFound.
	Get(ctx context.Context, userID string) (*model.UserSettings, error)

	// Save creates or replaces the user's settings.
	Save(ctx context.Context, settings *model.UserSettings) error
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	return limit
}
