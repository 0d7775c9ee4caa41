package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunLock_AcquireRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".mlsweep", "run.lock")
	lock := newRunLock(path)

	require.NoError(t, lock.Acquire())
	_, err := os.Stat(path)
	assert.NoError(t, err, "lock file should exist while held")

	require.NoError(t, lock.Release())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "lock file should be gone after release")
}

func TestRunLock_SecondAcquireFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.lock")
	first := newRunLock(path)
	require.NoError(t, first.Acquire())
	defer first.Release()

	second := newRunLock(path)
	err := second.Acquire()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "another teardown")
}

func TestRunLock_StaleLockIsReplaced(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.lock")
	require.NoError(t, os.WriteFile(path, []byte("pid=1\n"), 0644))
	old := time.Now().Add(-runLockStaleAfter - time.Minute)
	require.NoError(t, os.Chtimes(path, old, old))

	lock := newRunLock(path)
	assert.NoError(t, lock.Acquire())
	lock.Release()
}

func TestRunLock_ReleaseWithoutAcquire(t *testing.T) {
	lock := newRunLock(filepath.Join(t.TempDir(), "run.lock"))
	assert.NoError(t, lock.Release())
}

func TestExitCodeError(t *testing.T) {
	cause := errors.New("3 resource(s) not confirmed absent")
	err := &ExitCodeError{Code: ExitIncomplete, Err: cause}

	assert.Equal(t, cause.Error(), err.Error())
	assert.ErrorIs(t, err, cause)

	var exitErr *ExitCodeError
	wrapped := fmt.Errorf("teardown: %w", err)
	require.True(t, errors.As(wrapped, &exitErr))
	assert.Equal(t, ExitIncomplete, exitErr.Code)
}
