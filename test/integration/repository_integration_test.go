package integration

import (
	"context"
	"testing"

	"tcg-labeler/internal/model"
	"tcg-labeler/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// backend is one implementation of the record store.
type backend struct {
	name     string
	orders   repository.OrderRepository
	batches  repository.BatchRepository
	settings repository.SettingsRepository
}

func backends(t *testing.T) []backend {
	t.Helper()
	logger := zerolog.Nop()

	testDB := SetupTestDB(t)
	CleanupDB(t, testDB.Pool)

	pebble, err := repository.OpenPebbleStore(t.TempDir(), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pebble.Close() })

	return []backend{
		{
			name:     "postgres",
			orders:   repository.NewOrderRepository(testDB.Pool, logger),
			batches:  repository.NewBatchRepository(testDB.Pool, logger),
			settings: repository.NewSettingsRepository(testDB.Pool, logger),
		},
		{
			name:     "pebble",
			orders:   pebble.Orders(),
			batches:  pebble.Batches(),
			settings: pebble.Settings(),
		},
	}
}

// TestRecordStores_Integration runs the same scenario against every backend
// so both return records in the same order.
func TestRecordStores_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()

	for _, b := range backends(t) {
		t.Run(b.name, func(t *testing.T) {
			batchA := uuid.NewString()
			batchB := uuid.NewString()

			require.NoError(t, b.batches.Create(ctx, &model.BatchRecord{BatchID: batchA, BatchName: "A", UserID: "u1", CreatedAt: 100}))
			require.NoError(t, b.batches.Create(ctx, &model.BatchRecord{BatchID: batchB, BatchName: "B", UserID: "u1", CreatedAt: 200}))
			require.NoError(t, b.batches.Create(ctx, &model.BatchRecord{BatchID: uuid.NewString(), BatchName: "C", UserID: "u2", CreatedAt: 300}))

			docs := []model.OrderDocument{
				{ID: uuid.NewString(), UserID: "u1", BatchID: batchA, BatchName: "A", OrderNumber: "1", TrackingCode: "T1", Postage: decimal.RequireFromString("0.73"), CreatedAt: 110},
				{ID: uuid.NewString(), UserID: "u1", BatchID: batchA, BatchName: "A", OrderNumber: "2", TrackingCode: "T2", Postage: decimal.RequireFromString("9.35"), CreatedAt: 120},
				{ID: uuid.NewString(), UserID: "u1", BatchID: batchB, BatchName: "B", OrderNumber: "3", TrackingCode: "T3", CreatedAt: 210},
			}
			for i := range docs {
				require.NoError(t, b.orders.Create(ctx, &docs[i]))
			}

			batches, err := b.batches.ListByUser(ctx, "u1", 10)
			require.NoError(t, err)
			require.Len(t, batches, 2)
			assert.Equal(t, batchB, batches[0].BatchID)
			assert.Equal(t, batchA, batches[1].BatchID)

			got, err := b.batches.GetByID(ctx, batchA)
			require.NoError(t, err)
			assert.Equal(t, "u1", got.UserID)

			_, err = b.batches.GetByID(ctx, "missing")
			assert.ErrorIs(t, err, repository.ErrNotFound)

			inA, err := b.orders.ListByBatch(ctx, "u1", batchA)
			require.NoError(t, err)
			require.Len(t, inA, 2)
			assert.Equal(t, "2", inA[0].OrderNumber)
			assert.True(t, decimal.RequireFromString("9.35").Equal(inA[0].Postage))

			foreign, err := b.orders.ListByBatch(ctx, "u2", batchA)
			require.NoError(t, err)
			assert.Empty(t, foreign)

			recent, err := b.orders.ListByUser(ctx, "u1", 2)
			require.NoError(t, err)
			require.Len(t, recent, 2)
			assert.Equal(t, "3", recent[0].OrderNumber)
			assert.Equal(t, "2", recent[1].OrderNumber)

			require.NoError(t, b.settings.Save(ctx, &model.UserSettings{UserID: "u1", EasypostAPIKey: "EZTK12345678", UpdatedAt: 1}))
			s, err := b.settings.Get(ctx, "u1")
			require.NoError(t, err)
			assert.Equal(t, "EZTK12345678", s.EasypostAPIKey)

			_, err = b.settings.Get(ctx, "nobody")
			assert.ErrorIs(t, err, repository.ErrNotFound)
		})
	}
}
