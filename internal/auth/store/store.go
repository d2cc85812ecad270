// Package store is the local key-value persistence behind the credential
// session. All values are opaque strings; the store is fully owned by this
// process, so there is no schema versioning.
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the key has no value.
var ErrNotFound = errors.New("key not found")

// Store is the persistence interface for session state. It is a mirror of
// the live session, written through on every mutation, and read only at
// startup hydration.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	// Clear removes every key. Used on disconnect so no partial state survives.
	Clear(ctx context.Context) error
}
