package database

import (
	"errors"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"
	lerrors "github.com/syndtr/goleveldb/leveldb/errors"
	"github.com/syndtr/goleveldb/leveldb/filter"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"go.uber.org/zap"
)

// LDBDatabase is a leveldb backed Database.
type LDBDatabase struct {
	fn     string
	db     *leveldb.DB
	wo     *opt.WriteOptions
	logger *zap.Logger
}

var _ Database = (*LDBDatabase)(nil)

// NewLDBDatabase opens or creates a leveldb database at file.
// cache is in megabytes.
func NewLDBDatabase(file string, cache, handles int, logger *zap.Logger) (*LDBDatabase, error) {
	if cache < 16 {
		cache = 16
	}
	if handles < 16 {
		handles = 16
	}
	logger.Info("opening leveldb",
		zap.String("path", file),
		zap.Int("cache_size", cache),
		zap.Int("num_handles", handles),
	)
	db, err := leveldb.OpenFile(file, &opt.Options{
		OpenFilesCacheCapacity: handles,
		BlockCacheCapacity:     cache / 2 * opt.MiB,
		WriteBuffer:            cache / 4 * opt.MiB,
		Filter:                 filter.NewBloomFilter(10),
	})
	var corrupted *lerrors.ErrCorrupted
	if errors.As(err, &corrupted) {
		logger.Warn("recovering corrupted leveldb", zap.String("path", file), zap.Error(err))
		db, err = leveldb.RecoverFile(file, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("open leveldb %s: %w", file, err)
	}
	return &LDBDatabase{
		fn:     file,
		db:     db,
		wo:     &opt.WriteOptions{Sync: true},
		logger: logger,
	}, nil
}

// NewMemDatabase returns a leveldb instance over in-memory storage.
func NewMemDatabase() *LDBDatabase {
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		panic("can't open in-memory leveldb: " + err.Error())
	}
	return &LDBDatabase{db: db, logger: zap.NewNop()}
}

// Path returns the path to the database directory.
func (db *LDBDatabase) Path() string {
	return db.fn
}

func (db *LDBDatabase) Put(key, value []byte) error {
	if err := db.db.Put(key, value, db.wo); err != nil {
		return fmt.Errorf("put value: %w", err)
	}
	return nil
}

func (db *LDBDatabase) Has(key []byte) (bool, error) {
	has, err := db.db.Has(key, nil)
	if err != nil {
		return false, fmt.Errorf("check value: %w", err)
	}
	return has, nil
}

func (db *LDBDatabase) Get(key []byte) ([]byte, error) {
	dat, err := db.db.Get(key, nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("get value: %w", err)
	}
	return dat, nil
}

func (db *LDBDatabase) NewBatch() Batch {
	return &ldbBatch{db: db}
}

// Close flushes pending writes and releases the database.
func (db *LDBDatabase) Close() error {
	if err := db.db.Close(); err != nil {
		db.logger.Error("failed to close database", zap.String("path", db.fn), zap.Error(err))
		return err
	}
	db.logger.Debug("database closed", zap.String("path", db.fn))
	return nil
}

type ldbBatch struct {
	db   *LDBDatabase
	b    leveldb.Batch
	size int
}

func (b *ldbBatch) Put(key, value []byte) error {
	b.b.Put(key, value)
	b.size += len(value)
	return nil
}

func (b *ldbBatch) ValueSize() int {
	return b.size
}

func (b *ldbBatch) Write() error {
	if err := b.db.db.Write(&b.b, b.db.wo); err != nil {
		return fmt.Errorf("write batch: %w", err)
	}
	return nil
}

func (b *ldbBatch) Reset() {
	b.b.Reset()
	b.size = 0
}
