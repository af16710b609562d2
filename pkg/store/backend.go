package store

import "context"

// Backend persists a Store wholesale.
type Backend interface {
	// Load returns the persisted store, or an empty one if nothing has
	// been saved yet.
	Load(ctx context.Context) (*Store, error)

	// Save replaces the persisted store with s. A failed save leaves the
	// previous contents intact.
	Save(ctx context.Context, s *Store) error

	// Location names where the store lives, for logs and reports.
	Location() string

	Close() error
}

// Locker is implemented by backends that can exclude other writers for the
// duration of a read-merge-write cycle.
type Locker interface {
	Lock(ctx context.Context) (Unlock, error)
}

// Unlock releases a lock taken by Locker.
type Unlock func() error
