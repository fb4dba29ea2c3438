package store

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// FileLock serializes writers of the run database across processes.
type FileLock struct {
	path   string
	flock  *flock.Flock
	locked bool
}

// NewFileLock creates a lock file at <dir>/.runs.lock.
func NewFileLock(dir string) *FileLock {
	path := filepath.Join(dir, ".runs.lock")
	return &FileLock{
		path:  path,
		flock: flock.New(path),
	}
}

// TryLock acquires the lock without blocking and reports whether it did.
func (l *FileLock) TryLock() (bool, error) {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return false, fmt.Errorf("create lock directory: %w", err)
	}
	ok, err := l.flock.TryLock()
	if err != nil {
		return false, fmt.Errorf("acquire lock: %w", err)
	}
	l.locked = ok
	return ok, nil
}

// Unlock releases the lock. Unlocking an unlocked FileLock is a no-op.
func (l *FileLock) Unlock() error {
	if !l.locked {
		return nil
	}
	l.locked = false
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("release lock: %w", err)
	}
	return nil
}

// Path returns the lock file path.
func (l *FileLock) Path() string { return l.path }
