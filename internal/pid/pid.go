// Package pid guards against running two engines against the same buses.
package pid

import (
	"os"
	"strconv"
	"strings"
	"syscall"

	"github.com/Bhuvan-2005/SecLyzer/internal/errors"
)

// Write writes the current process ID to path. A file left by a process that
// is no longer alive is overwritten.
func Write(path string) error {
	errFactory := errors.New()

	if running, err := isRunning(path); err != nil {
		return err
	} else if running {
		return errFactory.WithData(errors.ErrAlreadyRunning, path)
	}

	if err := os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o600); err != nil {
		return errFactory.Wrap(errors.ErrInternal, err)
	}

	return nil
}

// Remove removes the PID file.
func Remove(path string) error {
	errFactory := errors.New()

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errFactory.Wrap(errors.ErrInternal, err)
	}

	return nil
}

func isRunning(path string) (bool, error) {
	errFactory := errors.New()

	bytes, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, errFactory.Wrap(errors.ErrInternal, err)
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(bytes)))
	if err != nil || pid <= 0 {
		// Garbage in the file; treat as stale.
		return false, nil
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return false, nil
	}

	return process.Signal(syscall.Signal(0)) == nil, nil
}
