package storage

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/gofrs/flock"
)

// LockFileName is the advisory lock file kept in the caches directory.
const LockFileName = "mediajob.lock"

// ErrWorkspaceLocked is returned when another session holds the workspace.
var ErrWorkspaceLocked = errors.New("workspace is in use by another session")

// WorkspaceLock guards the fixed artifact names against a second concurrent session.
type WorkspaceLock struct {
	lock *flock.Flock
}

// AcquireLock takes the workspace lock in dir without blocking.
func AcquireLock(dir string) (*WorkspaceLock, error) {
	l := flock.New(filepath.Join(dir, LockFileName))
	ok, err := l.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrWorkspaceLocked, dir)
	}
	return &WorkspaceLock{lock: l}, nil
}

// Path returns the lock file path.
func (l *WorkspaceLock) Path() string {
	return l.lock.Path()
}

// Release unlocks the workspace.
func (l *WorkspaceLock) Release() error {
	return l.lock.Unlock()
}
