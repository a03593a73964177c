// Clinicguard - Clinic Platform Request Authorization Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clinicguard

package audit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

// Key prefixes for BadgerDB storage
const (
	eventKeyPrefix   = "audit_event:"
	eventIndexPrefix = "audit_id:"
)

// BadgerStore implements Store using BadgerDB for durable local storage.
// Events are keyed by timestamp so iteration follows decision order.
type BadgerStore struct {
	db *badger.DB
}

// NewBadgerStore creates a store over an open database.
func NewBadgerStore(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db}
}

// OpenBadgerStore opens (or creates) a BadgerDB at path.
// An empty path opens an in-memory database.
func OpenBadgerStore(path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open audit badger db: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

// ErrInvalidTimestamp is returned by BadgerStore.Append for events stamped
// at or before the Unix epoch, which would sort ahead of every real event.
var ErrInvalidTimestamp = errors.New("audit event timestamp must be after the unix epoch")

// eventKey orders events by timestamp, then ID. Timestamps are positive, so
// the zero-padded decimal sorts numerically.
func eventKey(e *Event) []byte {
	return []byte(fmt.Sprintf("%s%020d:%s", eventKeyPrefix, e.Timestamp.UnixNano(), e.ID))
}

// Append stores event. Existing IDs are never overwritten.
func (s *BadgerStore) Append(ctx context.Context, event *Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if event.Timestamp.IsZero() || event.Timestamp.UnixNano() <= 0 {
		return fmt.Errorf("%w: event %s at %s", ErrInvalidTimestamp, event.ID, event.Timestamp.Format(time.RFC3339Nano))
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}

	key := eventKey(event)
	return s.db.Update(func(txn *badger.Txn) error {
		indexKey := []byte(eventIndexPrefix + event.ID)
		if _, err := txn.Get(indexKey); err == nil {
			return fmt.Errorf("audit event %s already stored", event.ID)
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("check audit event: %w", err)
		}

		if err := txn.Set(key, data); err != nil {
			return fmt.Errorf("set audit event: %w", err)
		}
		if err := txn.Set(indexKey, key); err != nil {
			return fmt.Errorf("set audit index: %w", err)
		}
		return nil
	})
}

// Get retrieves an event by ID.
func (s *BadgerStore) Get(ctx context.Context, id string) (*Event, error) {
	var event Event

	err := s.db.View(func(txn *badger.Txn) error {
		idx, err := txn.Get([]byte(eventIndexPrefix + id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("%w: %s", ErrEventNotFound, id)
		}
		if err != nil {
			return fmt.Errorf("get audit index: %w", err)
		}
		key, err := idx.ValueCopy(nil)
		if err != nil {
			return err
		}

		item, err := txn.Get(key)
		if err != nil {
			return fmt.Errorf("get audit event: %w", err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &event)
		})
	})
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// Query returns matching events, most recent first.
func (s *BadgerStore) Query(ctx context.Context, filter QueryFilter) ([]Event, error) {
	var results []Event

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = []byte(eventKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		// Reverse iteration starts from the largest key under the prefix.
		seek := append([]byte(eventKeyPrefix), 0xFF)
		for it.Seek(seek); it.ValidForPrefix(opts.Prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			var event Event
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &event)
			}); err != nil {
				return fmt.Errorf("decode audit event: %w", err)
			}
			if !filter.Matches(&event) {
				continue
			}
			results = append(results, event)
			if filter.Limit > 0 && len(results) >= filter.Limit {
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// Close closes the underlying database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}
