// Package bolt stores subscribers in a single bbolt file through storm.
package bolt

import (
	"time"

	"github.com/asdine/storm/v3"
	"github.com/go-errors/errors"
	bbolt "go.etcd.io/bbolt"

	"github.com/quantonganh/newsletter"
)

// lockTimeout bounds the wait for the file lock held by another process.
const lockTimeout = time.Second

// DB wraps a storm database holding the subscriber bucket.
type DB struct {
	path    string
	stormDB *storm.DB
}

// NewDB returns an unopened database at path.
func NewDB(path string) *DB {
	return &DB{path: path}
}

// Open opens the file and makes sure the subscriber indexes exist.
func (db *DB) Open() error {
	if db.path == "" {
		return errors.New("path required")
	}

	stormDB, err := storm.Open(db.path, storm.BoltOptions(0o600, &bbolt.Options{Timeout: lockTimeout}))
	if err != nil {
		return errors.Errorf("failed to open %s: %v", db.path, err)
	}

	if err := stormDB.Init(&newsletter.Subscriber{}); err != nil {
		_ = stormDB.Close()
		return errors.Errorf("failed to init subscriber bucket: %v", err)
	}
	db.stormDB = stormDB

	return nil
}

// Close releases the file lock.
func (db *DB) Close() error {
	if db.stormDB == nil {
		return nil
	}
	return db.stormDB.Close()
}
