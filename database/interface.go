// Package database provides the ordered key-value engines the trie keeps its nodes in.
//
// There is no delete operation. Trie nodes are content addressed and are never removed,
// so any root that was ever committed stays resolvable.
package database

import "errors"

// ErrNotFound is returned by Get for absent keys.
var ErrNotFound = errors.New("database: not found")

// IdealBatchSize is the amount of data a batch should accumulate before it is written.
const IdealBatchSize = 100 * 1024

// Putter wraps the database write operation supported by both batches and databases.
type Putter interface {
	Put(key, value []byte) error
}

// Database wraps all database operations. All methods are safe for concurrent use.
type Database interface {
	Putter
	Get(key []byte) ([]byte, error)
	Has(key []byte) (bool, error)
	NewBatch() Batch
	Close() error
}

// Batch is a write-only view that commits to its database when Write is called.
// Batch cannot be used concurrently.
type Batch interface {
	Putter
	// ValueSize is the amount of data in the batch.
	ValueSize() int
	Write() error
	Reset()
}
