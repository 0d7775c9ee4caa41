package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const runLockPath = ".mlsweep/run.lock"

// runLockStaleAfter is how old a lock file may be before it is assumed
// left behind by a crashed run.
const runLockStaleAfter = 10 * time.Minute

// runLock serializes teardown runs against one deployment. Two engines
// deleting and re-discovering the same resources would race each
// other's verification.
type runLock struct {
	path string
}

func newRunLock(path string) *runLock {
	return &runLock{path: path}
}

// Acquire takes the lock or fails if another live run holds it.
func (l *runLock) Acquire() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return fmt.Errorf("failed to create lock directory: %w", err)
	}

	if info, err := os.Stat(l.path); err == nil {
		if time.Since(info.ModTime()) > runLockStaleAfter {
			os.Remove(l.path)
		} else {
			return fmt.Errorf("another teardown appears to be running (lock file: %s). "+
				"If this is an error, remove the lock file manually", l.path)
		}
	}

	content := fmt.Sprintf("pid=%d\ntime=%s\n", os.Getpid(), time.Now().UTC().Format(time.RFC3339))
	if err := os.WriteFile(l.path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to create lock file: %w", err)
	}
	return nil
}

// Release removes the lock file.
func (l *runLock) Release() error {
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove lock file: %w", err)
	}
	return nil
}
