package store

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"
	"time"
)

// LockSuffix is appended to the database path to name the ingest lock file.
const LockSuffix = ".lock"

// LockFilePath returns the ingest lock path for a database path.
func LockFilePath(dbPath string) string {
	return dbPath + LockSuffix
}

// IsLocked reports whether an ingest lock exists for dbPath.
func IsLocked(dbPath string) bool {
	_, err := os.Stat(LockFilePath(dbPath))
	return err == nil
}

// LockHolder returns the pid recorded in the ingest lock for dbPath. ok is
// false when there is no lock or it records no pid.
func LockHolder(dbPath string) (pid int, ok bool) {
	data, err := os.ReadFile(LockFilePath(dbPath))
	if err != nil {
		return 0, false
	}
	for _, line := range strings.Split(string(data), "\n") {
		k, v, found := strings.Cut(strings.TrimSpace(line), "=")
		if !found || k != "pid" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

// IsLockStale reports whether the ingest lock for dbPath names a process
// that is no longer running. A lock without a readable pid is never stale.
func IsLockStale(dbPath string) bool {
	pid, ok := LockHolder(dbPath)
	return ok && !processAlive(pid)
}

// processAlive sends signal 0 to pid.
func processAlive(pid int) bool {
	p, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = p.Signal(syscall.Signal(0))
	return err == nil || errors.Is(err, syscall.EPERM)
}

// LockFilePath returns the path of this store's ingest lock.
func (s *Store) LockFilePath() string {
	return LockFilePath(s.path)
}

// AcquireLock creates the ingest lock file. Returns ErrLocked if one exists.
func (s *Store) AcquireLock() error {
	if s.readOnly {
		return ErrReadOnly
	}
	lockPath := s.LockFilePath()
	content := fmt.Sprintf("pid=%d\ntime=%s\n", os.Getpid(), time.Now().Format(time.RFC3339))

	f, err := os.OpenFile(lockPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if os.IsExist(err) {
		return fmt.Errorf("%s: %w", lockPath, ErrLocked)
	}
	if err != nil {
		return fmt.Errorf("create lock file: %w", err)
	}
	if _, err := f.WriteString(content); err != nil {
		f.Close()
		return fmt.Errorf("write lock file: %w", err)
	}
	return f.Close()
}

// ReleaseLock removes the ingest lock file.
func (s *Store) ReleaseLock() error {
	if err := os.Remove(s.LockFilePath()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove lock file: %w", err)
	}
	return nil
}
