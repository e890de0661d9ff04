package service

import (
	"context"
	"errors"
	"fmt"
	"io"

	"tcg-labeler/internal/cache"
	"tcg-labeler/internal/model"
	"tcg-labeler/internal/orderimport"
	"tcg-labeler/internal/repository"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// batchService implements BatchService.
type batchService struct {
	batches repository.BatchRepository
	orders  repository.OrderRepository
	cache   cache.BatchCache
	logger  zerolog.Logger
}

// NewBatchService creates a new batch service. A nil cache disables caching.
func NewBatchService(
	batches repository.BatchRepository,
	orders repository.OrderRepository,
	batchCache cache.BatchCache,
	logger zerolog.Logger,
) BatchService {
	if batchCache == nil {
		batchCache = cache.NopBatchCache{}
	}
	return &batchService{
		batches: batches,
		orders:  orders,
		cache:   batchCache,
		logger:  logger.With().Str("service", "batch").Logger(),
	}
}

func (s *batchService) List(ctx context.Context, userID string, limit int) ([]model.BatchRecord, error) {
	batches, err := s.batches.ListByUser(ctx, userID, limit)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("failed to list batches")
		return nil, fmt.Errorf("failed to list batches: %w", err)
	}
	return batches, nil
}

func (s *batchService) Get(ctx context.Context, userID, batchID string) (*model.BatchDetail, error) {
	if cached, ok, err := s.cache.Get(ctx, userID, batchID); err != nil {
		s.logger.Warn().Err(err).Str("batch_id", batchID).Msg("batch cache unavailable")
	} else if ok {
		s.logger.Debug().Str("batch_id", batchID).Msg("batch served from cache")
		return cached, nil
	}

	batch, err := s.batches.GetByID(ctx, batchID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, model.ErrBatchNotFound
		}
		s.logger.Error().Err(err).Str("batch_id", batchID).Msg("failed to get batch")
		return nil, fmt.Errorf("failed to get batch: %w", err)
	}

	// Other users' batches are indistinguishable from missing ones.
	if batch.UserID != userID {
		s.logger.Warn().
			Str("batch_id", batchID).
			Str("user_id", userID).
			Msg("batch requested by non-owner")
		return nil, model.ErrBatchNotFound
	}

	docs, err := s.orders.ListByBatch(ctx, userID, batchID)
	if err != nil {
		s.logger.Error().Err(err).Str("batch_id", batchID).Msg("failed to list batch orders")
		return nil, fmt.Errorf("failed to list batch orders: %w", err)
	}

	total := decimal.Zero
	for _, d := range docs {
		total = total.Add(d.Postage)
	}

	detail := &model.BatchDetail{
		Batch:        *batch,
		Orders:       docs,
		TotalPostage: total,
	}

	if err := s.cache.Set(ctx, userID, detail); err != nil {
		s.logger.Warn().Err(err).Str("batch_id", batchID).Msg("failed to cache batch")
	}

	return detail, nil
}

func (s *batchService) WriteTrackingCSV(ctx context.Context, userID, batchID string, w io.Writer) error {
	detail, err := s.Get(ctx, userID, batchID)
	if err != nil {
		return err
	}

	if err := orderimport.WriteTrackingCSV(w, detail.Orders); err != nil {
		s.logger.Error().Err(err).Str("batch_id", batchID).Msg("failed to write tracking csv")
		return fmt.Errorf("failed to write tracking csv: %w", err)
	}
	return nil
}
