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

type settingsRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewSettingsRepository creates a new PostgreSQL-backed settings repository.
func NewSettingsRepository(pool *pgxpool.Pool, logger zerolog.Logger) SettingsRepository {
	return &settingsRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "settings").Logger(),
	}
}

func (r *settingsRepository) Get(ctx context.Context, userID string) (*model.UserSettings, error) {
	query := `
		SELECT user_id, easypost_api_key, logo_url, updated_at
		FROM user_settings
		WHERE user_id = $1
	`

	var s model.UserSettings
	err := r.pool.QueryRow(ctx, query, userID).Scan(&s.UserID, &s.EasypostAPIKey, &s.LogoURL, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		r.logger.Error().Err(err).Str("user_id", userID).Msg("failed to query settings")
		return nil, fmt.Errorf("failed to query settings: %w", err)
	}

	return &s, nil
}

func (r *settingsRepository) Save(ctx context.Context, s *model.UserSettings) error {
	query := `
		INSERT INTO user_settings (user_id, easypost_api_key, logo_url, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE
		SET easypost_api_key = EXCLUDED.easypost_api_key,
			logo_url = EXCLUDED.logo_url,
			updated_at = EXCLUDED.updated_at
	`

	if _, err := r.pool.Exec(ctx, query, s.UserID, s.EasypostAPIKey, s.LogoURL, s.UpdatedAt); err != nil {
		r.logger.Error().Err(err).Str("user_id", s.UserID).Msg("failed to save settings")
		return fmt.Errorf("failed to save settings: %w", err)
	}

	return nil
}
