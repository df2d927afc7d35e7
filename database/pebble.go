package database

import (
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	"go.uber.org/zap"
)

// PebbleDatabase is a pebble backed Database.
type PebbleDatabase struct {
	path   string
	db     *pebble.DB
	logger *zap.Logger
}

var _ Database = (*PebbleDatabase)(nil)

// NewPebbleDatabase opens or creates a pebble database at path.
// cache is in megabytes.
func NewPebbleDatabase(path string, cache int, logger *zap.Logger) (*PebbleDatabase, error) {
	if cache < 16 {
		cache = 16
	}
	c := pebble.NewCache(int64(cache) * 1024 * 1024)
	defer c.Unref()
	db, err := pebble.Open(path, &pebble.Options{Cache: c})
	if err != nil {
		return nil, fmt.Errorf("open pebble %s: %w", path, err)
	}
	logger.Info("opened pebble", zap.String("path", path), zap.Int("cache_size", cache))
	return &PebbleDatabase{path: path, db: db, logger: logger}, nil
}

// NewMemPebbleDatabase returns a pebble instance over an in-memory filesystem.
func NewMemPebbleDatabase() *PebbleDatabase {
	db, err := pebble.Open("", &pebble.Options{FS: vfs.NewMem()})
	if err != nil {
		panic("can't open in-memory pebble: " + err.Error())
	}
	return &PebbleDatabase{db: db, logger: zap.NewNop()}
}

func (db *PebbleDatabase) Put(key, value []byte) error {
	if err := db.db.Set(key, value, pebble.Sync); err != nil {
		return fmt.Errorf("put value: %w", err)
	}
	return nil
}

func (db *PebbleDatabase) Has(key []byte) (bool, error) {
	_, closer, err := db.db.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return false, nil
	} else if err != nil {
		return false, fmt.Errorf("check value: %w", err)
	}
	closer.Close()
	return true, nil
}

func (db *PebbleDatabase) Get(key []byte) ([]byte, error) {
	val, closer, err := db.db.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("get value: %w", err)
	}
	defer closer.Close()
	rst := make([]byte, len(val))
	copy(rst, val)
	return rst, nil
}

func (db *PebbleDatabase) NewBatch() Batch {
	return &pebbleBatch{db: db, b: db.db.NewBatch()}
}

func (db *PebbleDatabase) Close() error {
	if err := db.db.Close(); err != nil {
		db.logger.Error("failed to close database", zap.String("path", db.path), zap.Error(err))
		return err
	}
	return nil
}

type pebbleBatch struct {
	db   *PebbleDatabase
	b    *pebble.Batch
	size int
}

func (b *pebbleBatch) Put(key, value []byte) error {
	if err := b.b.Set(key, value, nil); err != nil {
		return fmt.Errorf("batch set: %w", err)
	}
	b.size += len(value)
	return nil
}

func (b *pebbleBatch) ValueSize() int {
	return b.size
}

func (b *pebbleBatch) Write() error {
	if err := b.b.Commit(pebble.Sync); err != nil {
		return fmt.Errorf("write batch: %w", err)
	}
	return nil
}

func (b *pebbleBatch) Reset() {
	b.b.Reset()
	b.size = 0
}
