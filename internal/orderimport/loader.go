package orderimport

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"tcg-labeler/internal/model"

	"github.com/rs/zerolog"
)

// Loader fetches an order export by path or key and parses it.
type Loader interface {
	Load(ctx context.Context, path string) ([]model.OrderRecord, error)
}

// fileLoader implements Loader for exports on the local file system.
type fileLoader struct {
	baseDir string
	logger  zerolog.Logger
}

// NewFileLoader creates a file loader. When baseDir is set, paths must be
// local and are resolved inside it.
func NewFileLoader(baseDir string, logger zerolog.Logger) Loader {
	return &fileLoader{
		baseDir: baseDir,
		logger:  logger.With().Str("component", "export-loader").Logger(),
	}
}

// Load reads a CSV export, transparently decompressing files ending in .gz.
func (l *fileLoader) Load(ctx context.Context, path string) ([]model.OrderRecord, error) {
	fullPath := path
	if l.baseDir != "" {
		if !filepath.IsLocal(path) {
			return nil, fmt.Errorf("order export path %q escapes %s", path, l.baseDir)
		}
		fullPath = filepath.Join(l.baseDir, path)
	}

	l.logger.Info().Str("file", fullPath).Msg("loading order export")

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	file, err := os.Open(fullPath)
	if err != nil {
		l.logger.Error().Err(err).Str("file", fullPath).Msg("failed to open order export")
		return nil, fmt.Errorf("failed to open order export %s: %w", fullPath, err)
	}
	defer file.Close()

	orders, err := readExport(file, strings.HasSuffix(fullPath, ".gz"))
	if err != nil {
		l.logger.Error().Err(err).Str("file", fullPath).Msg("failed to read order export")
		return nil, fmt.Errorf("failed to read order export %s: %w", fullPath, err)
	}

	l.logger.Info().
		Str("file", fullPath).
		Int("orders_loaded", len(orders)).
		Msg("order export loaded successfully")

	return orders, nil
}

func readExport(r io.Reader, gzipped bool) ([]model.OrderRecord, error) {
	if !gzipped {
		return ParseReader(r)
	}

	gzipReader, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gzipReader.Close()

	return ParseReader(gzipReader)
}
