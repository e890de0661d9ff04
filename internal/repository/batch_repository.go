package repository

import (
	"context"
	"errors"
	"fmt"

	"tcg-labeler/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// batchRepository implements the BatchRepository interface using PostgreSQL.
type batchRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewBatchRepository creates a new PostgreSQL-backed batch repository.
func NewBatchRepository(pool *pgxpool.Pool, logger zerolog.Logger) BatchRepository {
	return &batchRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "batch").Logger(),
	}
}

// Create upserts the batch record keyed by batch id. An existing batch is
// only replaced by its owner.
func (r *batchRepository) Create(ctx context.Context, batch *model.BatchRecord) error {
	query := `
		INSERT INTO batches (batch_id, batch_name, user_id, archived, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (batch_id) DO UPDATE
		SET batch_name = EXCLUDED.batch_name,
			archived = EXCLUDED.archived,
			created_at = EXCLUDED.created_at
		WHERE batches.user_id = EXCLUDED.user_id
	`

	tag, err := r.pool.Exec(ctx, query, batch.BatchID, batch.BatchName, batch.UserID, batch.Archived, batch.CreatedAt)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("batch_id", batch.BatchID).
			Msg("failed to create batch")
		return fmt.Errorf("failed to create batch: %w", err)
	}
	if tag.RowsAffected() == 0 {
		r.logger.Warn().
			Str("batch_id", batch.BatchID).
			Str("user_id", batch.UserID).
			Msg("batch owned by another user")
		return ErrBatchOwned
	}

	r.logger.Debug().
		Str("batch_id", batch.BatchID).
		Str("batch_name", batch.BatchName).
		Msg("batch created successfully")

	return nil
}

// GetByID returns the batch or ErrNotFound.
func (r *batchRepository) GetByID(ctx context.Context, batchID string) (*model.BatchRecord, error) {
	query := `
		SELECT batch_id, batch_name, user_id, archived, created_at
		FROM batches
		WHERE batch_id = $1
	`

	var batch model.BatchRecord
	err := r.pool.QueryRow(ctx, query, batchID).Scan(
		&batch.BatchID,
		&batch.BatchName,
		&batch.UserID,
		&batch.Archived,
		&batch.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("batch_id", batchID).Msg("batch not found")
			return nil, ErrNotFound
		}
		r.logger.Error().Err(err).Str("batch_id", batchID).Msg("failed to query batch")
		return nil, fmt.Errorf("failed to query batch: %w", err)
	}

	return &batch, nil
}

// ListByUser returns the user's batches, newest first.
func (r *batchRepository) ListByUser(ctx context.Context, userID string, limit int) ([]model.BatchRecord, error) {
	query := `
		SELECT batch_id, batch_name, user_id, archived, created_at
		FROM batches
		WHERE user_id = $1
		ORDER BY created_at DESC, batch_id
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, userID, normalizeLimit(limit))
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", userID).Msg("failed to query batches")
		return nil, fmt.Errorf("failed to query batches: %w", err)
	}
	defer rows.Close()

	batches := []model.BatchRecord{}
	for rows.Next() {
		var batch model.BatchRecord
		if err := rows.Scan(&batch.BatchID, &batch.BatchName, &batch.UserID, &batch.Archived, &batch.CreatedAt); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan batch row")
			return nil, fmt.Errorf("failed to scan batch: %w", err)
		}
		batches = append(batches, batch)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating batch rows")
		return nil, fmt.Errorf("error iterating batches: %w", err)
	}

	return batches, nil
}
