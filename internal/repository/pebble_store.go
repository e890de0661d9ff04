package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"sync"

	"tcg-labeler/internal/model"

	"github.com/cockroachdb/pebble"
	"github.com/rs/zerolog"
)

// Key prefixes of the embedded store, one per collection.
var (
	prefixOrders   = []byte("orders/")
	prefixBatches  = []byte("batches/")
	prefixSettings = []byte("settings/")
)

// PebbleStore keeps the record collections in an embedded Pebble database.
// Values are JSON documents keyed by collection prefix plus record id.
type PebbleStore struct {
	db     *pebble.DB
	logger zerolog.Logger

	// batchMu serializes the owner check and write of batch records.
	batchMu sync.Mutex
}

// OpenPebbleStore opens or creates the database in dir.
func OpenPebbleStore(dir string, logger zerolog.Logger) (*PebbleStore, error) {
	db, err := pebble.Open(filepath.Clean(dir), &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open pebble store: %w", err)
	}

	logger = logger.With().Str("repository", "pebble").Logger()
	logger.Info().Str("dir", dir).Msg("pebble store opened")

	return &PebbleStore{db: db, logger: logger}, nil
}

// Close flushes and closes the database.
func (s *PebbleStore) Close() error { return s.db.Close() }

// Orders returns the order collection.
func (s *PebbleStore) Orders() OrderRepository { return &pebbleOrders{store: s} }

// Batches returns the batch collection.
func (s *PebbleStore) Batches() BatchRepository { return &pebbleBatches{store: s} }

// Settings returns the settings collection.
func (s *PebbleStore) Settings() SettingsRepository { return &pebbleSettings{store: s} }

func recordKey(prefix []byte, id string) []byte {
	k := make([]byte, 0, len(prefix)+len(id))
	k = append(k, prefix...)
	return append(k, id...)
}

// prefixUpperBound returns the smallest key greater than every key with prefix.
func prefixUpperBound(prefix []byte) []byte {
	end := append([]byte(nil), prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil
}

func (s *PebbleStore) put(ctx context.Context, key []byte, v any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}
	return s.db.Set(key, data, pebble.Sync)
}

func (s *PebbleStore) get(ctx context.Context, key []byte, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	v, closer, err := s.db.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	defer closer.Close()
	return json.Unmarshal(v, out)
}

// scan decodes every value under prefix and hands it to fn.
func scan[T any](ctx context.Context, s *PebbleStore, prefix []byte, fn func(T)) error {
	it, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: prefixUpperBound(prefix),
	})
	if err != nil {
		return err
	}
	defer it.Close()

	for it.First(); it.Valid(); it.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !bytes.HasPrefix(it.Key(), prefix) {
			break
		}
		var rec T
		if err := json.Unmarshal(it.Value(), &rec); err != nil {
			return fmt.Errorf("failed to decode record %s: %w", it.Key(), err)
		}
		fn(rec)
	}
	return it.Error()
}

type pebbleOrders struct{ store *PebbleStore }

func (r *pebbleOrders) Create(ctx context.Context, doc *model.OrderDocument) error {
	if err := r.store.put(ctx, recordKey(prefixOrders, doc.ID), doc); err != nil {
		r.store.logger.Error().Err(err).Str("order_id", doc.ID).Msg("failed to create order document")
		return fmt.Errorf("failed to create order document: %w", err)
	}
	return nil
}

func (r *pebbleOrders) ListByBatch(ctx context.Context, userID, batchID string) ([]model.OrderDocument, error) {
	return r.list(ctx, 0, func(d model.OrderDocument) bool {
		return d.UserID == userID && d.BatchID == batchID
	})
}

func (r *pebbleOrders) ListByUser(ctx context.Context, userID string, limit int) ([]model.OrderDocument, error) {
	return r.list(ctx, normalizeLimit(limit), func(d model.OrderDocument) bool {
		return d.UserID == userID
	})
}

func (r *pebbleOrders) list(ctx context.Context, limit int, match func(model.OrderDocument) bool) ([]model.OrderDocument, error) {
	docs := []model.OrderDocument{}
	err := scan(ctx, r.store, prefixOrders, func(d model.OrderDocument) {
		if match(d) {
			docs = append(docs, d)
		}
	})
	if err != nil {
		r.store.logger.Error().Err(err).Msg("failed to scan order documents")
		return nil, fmt.Errorf("failed to query order documents: %w", err)
	}

	sort.SliceStable(docs, func(i, j int) bool {
		if docs[i].CreatedAt != docs[j].CreatedAt {
			return docs[i].CreatedAt > docs[j].CreatedAt
		}
		return docs[i].ID < docs[j].ID
	})
	if limit > 0 && len(docs) > limit {
		docs = docs[:limit]
	}
	return docs, nil
}

type pebbleBatches struct{ store *PebbleStore }

func (r *pebbleBatches) Create(ctx context.Context, batch *model.BatchRecord) error {
	r.store.batchMu.Lock()
	defer r.store.batchMu.Unlock()

	existing, err := r.GetByID(ctx, batch.BatchID)
	switch {
	case errors.Is(err, ErrNotFound):
	case err != nil:
		return fmt.Errorf("failed to create batch: %w", err)
	case existing.UserID != batch.UserID:
		r.store.logger.Warn().
			Str("batch_id", batch.BatchID).
			Str("user_id", batch.UserID).
			Msg("batch owned by another user")
		return ErrBatchOwned
	}

	if err := r.store.put(ctx, recordKey(prefixBatches, batch.BatchID), batch); err != nil {
		r.store.logger.Error().Err(err).Str("batch_id", batch.BatchID).Msg("failed to create batch")
		return fmt.Errorf("failed to create batch: %w", err)
	}
	return nil
}

func (r *pebbleBatches) GetByID(ctx context.Context, batchID string) (*model.BatchRecord, error) {
	var batch model.BatchRecord
	if err := r.store.get(ctx, recordKey(prefixBatches, batchID), &batch); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query batch: %w", err)
	}
	return &batch, nil
}

func (r *pebbleBatches) ListByUser(ctx context.Context, userID string, limit int) ([]model.BatchRecord, error) {
	batches := []model.BatchRecord{}
	err := scan(ctx, r.store, prefixBatches, func(b model.BatchRecord) {
		if b.UserID == userID {
			batches = append(batches, b)
		}
	})
	if err != nil {
		r.store.logger.Error().Err(err).Str("user_id", userID).Msg("failed to scan batches")
		return nil, fmt.Errorf("failed to query batches: %w", err)
	}

	sort.SliceStable(batches, func(i, j int) bool {
		if batches[i].CreatedAt != batches[j].CreatedAt {
			return batches[i].CreatedAt > batches[j].CreatedAt
		}
		return batches[i].BatchID < batches[j].BatchID
	})
	if limit = normalizeLimit(limit); len(batches) > limit {
		batches = batches[:limit]
	}
	return batches, nil
}

type pebbleSettings struct{ store *PebbleStore }

func (r *pebbleSettings) Get(ctx context.Context, userID string) (*model.UserSettings, error) {
	var s model.UserSettings
	if err := r.store.get(ctx, recordKey(prefixSettings, userID), &s); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query settings: %w", err)
	}
	return &s, nil
}

func (r *pebbleSettings) Save(ctx context.Context, s *model.UserSettings) error {
	if err := r.store.put(ctx, recordKey(prefixSettings, s.UserID), s); err != nil {
		r.store.logger.Error().Err(err).Str("user_id", s.UserID).Msg("failed to save settings")
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}
