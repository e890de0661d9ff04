package service

import (
	"context"
	"io"

	"tcg-labeler/internal/model"
)

// LabelService buys postage labels for a batch of orders.
type LabelService interface {
	// PurchaseBatch processes orders one at a time and returns a result for
	// every purchased label together with one outcome per submitted order.
	// Per-order failures never fail the call.
	PurchaseBatch(ctx context.Context, orders []model.OrderRecord) (*model.BatchReport, error)
}

// BatchService reads back purchased batches.
type BatchService interface {
	// List returns the user's batches, newest first.
	List(ctx context.Context, userID string, limit int) ([]model.BatchRecord, error)

	// Get returns a batch with its documents. A batch owned by another user
	// is reported as model.ErrBatchNotFound.
	Get(ctx context.Context, userID, batchID string) (*model.BatchDetail, error)

	// WriteTrackingCSV writes the marketplace tracking upload for a batch.
	WriteTrackingCSV(ctx context.Context, userID, batchID string, w io.Writer) error
}

// ImportService turns order exports into order records.
type ImportService interface {
	// Parse reads an uploaded export.
	Parse(ctx context.Context, r io.Reader) ([]model.OrderRecord, error)

	// Import loads a stored export by key.
	Import(ctx context.Context, key string) ([]model.OrderRecord, error)
}

// SettingsService manages per-user settings.
type SettingsService interface {
	// Get returns the user's settings with the carrier key masked. Users who
	// never saved settings get an empty record.
	Get(ctx context.Context, userID string) (*model.UserSettings, error)

	// Save validates and stores the request, returning the masked result.
	Save(ctx context.Context, userID string, req *model.SettingsRequest) (*model.UserSettings, error)
}
