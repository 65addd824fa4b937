// Coldcase - True-Crime Media Aggregation and Recommendations
// Copyright 2026 Coldcase Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coldcaselabs/coldcase

package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/coldcaselabs/coldcase/internal/logging"
	"github.com/coldcaselabs/coldcase/internal/models"
)

// Key layout:
//
//	content:<id>                      -> JSON-encoded models.Content
//	extid:<provider>:<externalID>     -> canonical id
const (
	contentPrefix = "content:"
	extIDPrefix   = "extid:"
)

// Badger is a ContentStore backed by an embedded Badger database.
// Values are JSON-encoded; the external-id index is maintained in the
// same transaction as the content write.
type Badger struct {
	db *badger.DB
}

// OpenBadger opens (or creates) a Badger content store at path.
func OpenBadger(path string) (*Badger, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil // Badger's own logger is too chatty; we log open/close ourselves

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %s: %w", path, err)
	}

	logging.Info().Str("path", path).Msg("content store opened")
	return &Badger{db: db}, nil
}

// Close releases the underlying database.
func (b *Badger) Close() error {
	return b.db.Close()
}

func contentKey(id string) []byte {
	return []byte(contentPrefix + id)
}

func externalIDKey(provider models.Provider, externalID string) []byte {
	return []byte(extIDPrefix + string(provider) + ":" + externalID)
}

// FindContentByExternalID implements ContentStore.
func (b *Badger) FindContentByExternalID(ctx context.Context, provider models.Provider, externalID string) (*models.Content, error) {
	var id string
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(externalIDKey(provider, externalID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			id = string(val)
			return nil
		})
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("lookup external id: %w: %w", ErrStorageUnavailable, err)
	}

	return b.FindContentByID(ctx, id)
}

// FindContentByID implements ContentStore.
func (b *Badger) FindContentByID(_ context.Context, id string) (*models.Content, error) {
	var content models.Content
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(contentKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &content)
		})
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load content %s: %w: %w", id, ErrStorageUnavailable, err)
	}
	return &content, nil
}

// ListContent implements ContentStore via a prefix scan.
func (b *Badger) ListContent(_ context.Context) ([]models.Content, error) {
	var out []models.Content
	err := b.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(contentPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var c models.Content
				if err := json.Unmarshal(val, &c); err != nil {
					return err
				}
				out = append(out, c)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list content: %w: %w", ErrStorageUnavailable, err)
	}
	return out, nil
}

// UpsertContent implements ContentStore. The content record and its
// external-id index entries commit atomically.
func (b *Badger) UpsertContent(_ context.Context, content *models.Content) error {
	payload, err := json.Marshal(content)
	if err != nil {
		return fmt.Errorf("encode content %s: %w", content.ID, err)
	}

	err = b.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(contentKey(content.ID), payload); err != nil {
			return err
		}
		for provider, extID := range content.ExternalIDs {
			idVal := []byte(content.ID)

			// Skip redundant writes when the index entry already points here
			if item, err := txn.Get(externalIDKey(provider, extID)); err == nil {
				same := false
				_ = item.Value(func(val []byte) error {
					same = bytes.Equal(val, idVal)
					return nil
				})
				if same {
					continue
				}
			}
			if err := txn.Set(externalIDKey(provider, extID), idVal); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("upsert content %s: %w: %w", content.ID, ErrStorageUnavailable, err)
	}
	return nil
}
