package repository

import (
	"context"
	"fmt"

	"tcg-labeler/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// orderRepository implements the OrderRepository interface using PostgreSQL.
type orderRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool *pgxpool.Pool, logger zerolog.Logger) OrderRepository {
	return &orderRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "order").Logger(),
	}
}

const orderColumns = `id, user_id, batch_id, batch_name, order_number, tracking_code,
	label_url, to_name, carrier, service, postage, created_at`

// Create inserts a new order document.
func (r *orderRepository) Create(ctx context.Context, doc *model.OrderDocument) error {
	query := `
		INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.pool.Exec(ctx, query,
		doc.ID,
		doc.UserID,
		doc.BatchID,
		doc.BatchName,
		doc.OrderNumber,
		doc.TrackingCode,
		doc.LabelURL,
		doc.ToName,
		doc.Carrier,
		doc.Service,
		doc.Postage,
		doc.CreatedAt,
	)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", doc.ID).
			Str("batch_id", doc.BatchID).
			Msg("failed to create order document")
		return fmt.Errorf("failed to create order document: %w", err)
	}

	r.logger.Debug().
		Str("order_id", doc.ID).
		Str("order_number", doc.OrderNumber).
		Msg("order document created successfully")

	return nil
}

// ListByBatch returns the user's documents in a batch, newest first.
func (r *orderRepository) ListByBatch(ctx context.Context, userID, batchID string) ([]model.OrderDocument, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE batch_id = $1 AND user_id = $2
		ORDER BY created_at DESC, id
	`

	return r.query(ctx, query, batchID, userID)
}

// ListByUser returns the user's most recent documents, newest first.
func (r *orderRepository) ListByUser(ctx context.Context, userID string, limit int) ([]model.OrderDocument, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2
	`

	return r.query(ctx, query, userID, normalizeLimit(limit))
}

func (r *orderRepository) query(ctx context.Context, query string, args ...any) ([]model.OrderDocument, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query order documents")
		return nil, fmt.Errorf("failed to query order documents: %w", err)
	}
	defer rows.Close()

	docs := []model.OrderDocument{}
	for rows.Next() {
		doc, err := scanOrder(rows)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order document row")
			return nil, fmt.Errorf("failed to scan order document: %w", err)
		}
		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating order document rows")
		return nil, fmt.Errorf("error iterating order documents: %w", err)
	}

	return docs, nil
}

func scanOrder(row pgx.Row) (model.OrderDocument, error) {
	var doc model.OrderDocument
	err := row.Scan(
		&doc.ID,
		&doc.UserID,
		&doc.BatchID,
		&doc.BatchName,
		&doc.OrderNumber,
		&doc.TrackingCode,
		&doc.LabelURL,
		&doc.ToName,
		&doc.Carrier,
		&doc.Service,
		&doc.Postage,
		&doc.CreatedAt,
	)
	return doc, err
}
