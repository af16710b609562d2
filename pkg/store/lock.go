package store

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/agentstation/uppbod/pkg/constants"
	"github.com/agentstation/uppbod/pkg/errors"
	"github.com/agentstation/uppbod/pkg/logging"
)

// FileLock is an advisory lock on <path>.lock shared by file-backed stores.
type FileLock struct {
	path       string
	retryDelay time.Duration
}

// NewFileLock returns a lock guarding the store at storePath.
func NewFileLock(storePath string) *FileLock {
	return &FileLock{path: storePath + ".lock", retryDelay: constants.LockRetryDelay}
}

// Path returns the lock file path.
func (l *FileLock) Path() string {
	return l.path
}

// Lock waits for the lock until ctx is done.
func (l *FileLock) Lock(ctx context.Context) (Unlock, error) {
	if err := os.MkdirAll(filepath.Dir(l.path), constants.DirPermissions); err != nil {
		return nil, &errors.LockError{Path: l.path, Err: err}
	}

	fl := flock.New(l.path)
	logging.FromContext(ctx).Debug().Str("lock", l.path).Msg("waiting for store lock")

	ok, err := fl.TryLockContext(ctx, l.retryDelay)
	if err != nil {
		return nil, &errors.LockError{Path: l.path, Err: err}
	}
	if !ok {
		return nil, &errors.LockError{Path: l.path}
	}

	return func() error {
		if err := fl.Unlock(); err != nil {
			return &errors.LockError{Path: l.path, Err: err}
		}
		return nil
	}, nil
}
