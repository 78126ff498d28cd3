package workflow

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"ndump/internal/config"
)

// InstanceLock guards against two processes working the same queue database.
type InstanceLock struct {
	lock *flock.Flock
}

// AcquireInstanceLock takes an exclusive advisory lock in the data directory.
// A second process gets an immediate error rather than blocking.
func AcquireInstanceLock(cfg *config.Config) (*InstanceLock, error) {
	if err := os.MkdirAll(cfg.Paths.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	path := filepath.Join(cfg.Paths.DataDir, "ndump.lock")
	lock := flock.New(path)
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire instance lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("another ndump process holds %s", path)
	}
	return &InstanceLock{lock: lock}, nil
}

// Release drops the advisory lock.
func (l *InstanceLock) Release() error {
	if l == nil || l.lock == nil {
		return nil
	}
	return l.lock.Unlock()
}
