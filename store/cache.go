// Package store persists analysis results: a key-value cache of per-stem
// analyses and a history of finished reports.
package store

import (
	"context"
	"errors"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/RyanBlaney/sonido-mix/logging"
	"github.com/RyanBlaney/sonido-mix/mixfit/model"
)

// ErrNotFound is returned when a key or report does not exist.
var ErrNotFound = errors.New("store: not found")

const cachePrefix = "analysis:v1:"

// CacheOptions configures the analysis cache.
type CacheOptions struct {
	// Dir is the directory for BadgerDB data files. Required unless InMemory.
	Dir string

	// InMemory runs BadgerDB without disk persistence.
	InMemory bool
}

// Cache stores SpectralAnalysis values keyed by content hash in BadgerDB,
// encoded with msgpack.
type Cache struct {
	db     *badger.DB
	logger logging.Logger
}

// OpenCache opens or creates the analysis cache.
func OpenCache(opts CacheOptions) (*Cache, error) {
	if !opts.InMemory && opts.Dir == "" {
		return nil, errors.New("store: cache directory is required for on-disk mode")
	}

	logger := logging.WithFields(logging.Fields{"component": "analysis_cache"})

	dbOpts := badger.DefaultOptions(opts.Dir)
	if opts.InMemory {
		dbOpts = badger.DefaultOptions("").WithInMemory(true)
	}
	dbOpts = dbOpts.WithLogger(logging.BadgerLogger{Logger: logger})

	db, err := badger.Open(dbOpts)
	if err != nil {
		return nil, fmt.Errorf("open analysis cache: %w", err)
	}

	return &Cache{db: db, logger: logger}, nil
}

// Get returns the cached analysis for key, or ErrNotFound.
func (c *Cache) Get(_ context.Context, key string) (model.SpectralAnalysis, error) {
	var val []byte
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(cachePrefix + key))
		if err != nil {
			return err
		}
		val, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return model.SpectralAnalysis{}, ErrNotFound
	}
	if err != nil {
		return model.SpectralAnalysis{}, fmt.Errorf("cache get: %w", err)
	}

	var analysis model.SpectralAnalysis
	if err := msgpack.Unmarshal(val, &analysis); err != nil {
		return model.SpectralAnalysis{}, fmt.Errorf("cache decode: %w", err)
	}
	return analysis, nil
}

// Put stores analysis under key, replacing any previous value.
func (c *Cache) Put(_ context.Context, key string, analysis model.SpectralAnalysis) error {
	data, err := msgpack.Marshal(analysis)
	if err != nil {
		return fmt.Errorf("cache encode: %w", err)
	}

	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(cachePrefix+key), data)
	})
}

// Len counts the cached analyses.
func (c *Cache) Len() (int, error) {
	n := 0
	err := c.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(cachePrefix)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			n++
		}
		return nil
	})
	return n, err
}

// Close releases the underlying database.
func (c *Cache) Close() error {
	return c.db.Close()
}
