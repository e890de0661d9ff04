package service

import (
	"context"
	"fmt"
	"io"
	"strings"

	"tcg-labeler/internal/model"
	"tcg-labeler/internal/orderimport"

	"github.com/rs/zerolog"
)

// MaxUploadBytes bounds an uploaded export.
const MaxUploadBytes = 10 << 20

// importService implements ImportService.
type importService struct {
	loader orderimport.Loader
	logger zerolog.Logger
}

// NewImportService creates a new import service reading stored exports
// through loader.
func NewImportService(loader orderimport.Loader, logger zerolog.Logger) ImportService {
	return &importService{
		loader: loader,
		logger: logger.With().Str("service", "import").Logger(),
	}
}

func (s *importService) Parse(ctx context.Context, r io.Reader) ([]model.OrderRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(io.LimitReader(r, MaxUploadBytes+1))
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to read uploaded export")
		return nil, model.NewDomainError(model.ErrCodeInvalidCSV, "Order export could not be read")
	}
	if len(data) > MaxUploadBytes {
		s.logger.Warn().Int("limit_bytes", MaxUploadBytes).Msg("uploaded export too large")
		return nil, model.NewDomainError(model.ErrCodeInvalidCSV, fmt.Sprintf("Order export exceeds %d bytes", MaxUploadBytes))
	}

	orders := orderimport.Parse(string(data))

	s.logger.Info().Int("order_count", len(orders)).Msg("parsed uploaded export")
	return orders, nil
}

func (s *importService) Import(ctx context.Context, key string) ([]model.OrderRecord, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, model.NewDomainError(model.ErrCodeMissingField, "key is required")
	}

	orders, err := s.loader.Load(ctx, key)
	if err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("failed to load export")
		return nil, fmt.Errorf("failed to import %s: %w", key, model.ErrExportNotFound)
	}

	s.logger.Info().Str("key", key).Int("order_count", len(orders)).Msg("imported export")
	return orders, nil
}
