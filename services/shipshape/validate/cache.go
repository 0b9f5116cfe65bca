// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package validate

import (
	"encoding/json"
	"fmt"
	"time"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/AleutianAI/Shipshape/pkg/logging"
)

// ResultCache persists validation records keyed by workspace digest.
//
// Validation is the slowest phase of a run; when the tree has not
// changed since the last pass, replaying cached records is safe because
// the digest covers every file that could influence a validator.
//
// Thread Safety: Safe for concurrent use; Badger handles locking.
type ResultCache struct {
	db     *badger.DB
	ttl    time.Duration
	logger *logging.Logger
}

// OpenResultCache opens (or creates) the cache at dir.
//
// Inputs:
//
//	dir - Cache directory, created if absent.
//	ttl - Entry lifetime. Entries expire through Badger's native TTL.
//	logger - Destination for degrade events.
//
// Outputs:
//
//	*ResultCache - Open cache. Callers own Close.
//	error - Non-nil when the store cannot be opened.
func OpenResultCache(dir string, ttl time.Duration, logger *logging.Logger) (*ResultCache, error) {
	opts := badger.DefaultOptions(dir).
		WithLogger(nil).
		WithCompactL0OnClose(true)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening validation cache at %s: %w", dir, err)
	}
	return &ResultCache{db: db, ttl: ttl, logger: logger}, nil
}

// Close releases the underlying store.
func (c *ResultCache) Close() error {
	return c.db.Close()
}

// cacheKey builds the store key for one validator's record under one
// workspace state.
func cacheKey(digest, name string) []byte {
	return []byte("validation/" + digest + "/" + name)
}

// Get returns the cached record for a validator under the given
// workspace digest. Store errors degrade to a miss.
func (c *ResultCache) Get(digest, name string) (Record, bool) {
	var rec Record
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(cacheKey(digest, name))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	if err != nil {
		if err != badger.ErrKeyNotFound {
			c.logger.Warn("validation cache read degraded", "validator", name, "error", err)
		}
		return Record{}, false
	}
	return rec, true
}

// Put stores a record under the given workspace digest. Store errors
// are logged and dropped; the cache never blocks a run.
func (c *ResultCache) Put(digest string, rec Record) {
	data, err := json.Marshal(rec)
	if err != nil {
		c.logger.Warn("validation cache encode degraded", "validator", rec.Name, "error", err)
		return
	}
	err = c.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry(cacheKey(digest, rec.Name), data)
		if c.ttl > 0 {
			entry = entry.WithTTL(c.ttl)
		}
		return txn.SetEntry(entry)
	})
	if err != nil {
		c.logger.Warn("validation cache write degraded", "validator", rec.Name, "error", err)
	}
}
