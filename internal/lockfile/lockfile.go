// Package lockfile keeps a second sqirvy process from writing to the same
// database. The lock is a file holding "pid|executable"; a lock whose process
// is gone is stale and gets replaced.
package lockfile

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mitchellh/go-ps"

	"github.com/julianstephens/sqirvy-health/internal/logger"
)

var (
	findProcessFunc = ps.FindProcess
	getpid          = os.Getpid

	// ErrLocked is returned when another live process holds the lock
	ErrLocked = errors.New("database is locked by another process")
)

// Lock is a held lockfile
type Lock struct {
	path string
	pid  int
}

// Acquire takes the lock at path, replacing it when its owner is no longer running
func Acquire(path string) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}

	pid := getpid()
	content := fmt.Sprintf("%d|%s", pid, executableOf(pid))

	for attempt := 0; attempt < 2; attempt++ {
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
		if err == nil {
			_, werr := f.WriteString(content)
			cerr := f.Close()
			if werr != nil || cerr != nil {
				os.Remove(path)
				return nil, fmt.Errorf("failed to write lockfile: %w", errors.Join(werr, cerr))
			}
			return &Lock{path: path, pid: pid}, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, fmt.Errorf("failed to create lockfile: %w", err)
		}

		holder, alive := inspect(path)
		if alive {
			return nil, fmt.Errorf("%w (pid %d, lockfile %s)", ErrLocked, holder, path)
		}
		logger.Warn("removing stale lockfile", "path", path, "pid", holder)
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to remove stale lockfile: %w", err)
		}
	}
	return nil, fmt.Errorf("%w (lockfile %s)", ErrLocked, path)
}

// Release removes the lockfile if this process still owns it
func (l *Lock) Release() error {
	if l == nil {
		return nil
	}
	holder, _ := inspect(l.path)
	if holder != l.pid {
		return nil
	}
	if err := os.Remove(l.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove lockfile: %w", err)
	}
	return nil
}

// inspect reads the holder's pid and reports whether that process is still
// running the same executable. Malformed lockfiles are treated as stale.
func inspect(path string) (int, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, false
	}
	parts := strings.SplitN(strings.TrimSpace(string(data)), "|", 2)
	pid, err := strconv.Atoi(parts[0])
	if err != nil || pid <= 0 {
		return 0, false
	}

	process, err := findProcessFunc(pid)
	if err != nil || process == nil {
		return pid, false
	}
	if len(parts) == 2 && parts[1] != "" && process.Executable() != parts[1] {
		return pid, false
	}
	return pid, true
}

func executableOf(pid int) string {
	if p, err := findProcessFunc(pid); err == nil && p != nil {
		return p.Executable()
	}
	return filepath.Base(os.Args[0])
}
