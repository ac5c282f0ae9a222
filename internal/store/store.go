// Package store persists the wallet vault and other agent state behind a small key/value contract.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

// ErrNotFound is returned by Get when the key is absent.
var ErrNotFound = errors.New("key not found")

// KV is the durable key/value contract used by the vault, the registry and the session.
// Writes are durable when the call returns.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	DeletePrefix(ctx context.Context, prefix string) error
	Close() error
}

const (
	DriverBadger = "badger"
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

// Open opens the backend selected by driver. path is a directory for badger and a file for sqlite.
func Open(driver, path string, logger badger.Logger) (KV, error) {
	switch driver {
	case DriverBadger:
		return OpenBadger(path, logger)
	case DriverSQLite:
		return OpenSQLite(path)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unsupported store driver %q", driver)
	}
}
