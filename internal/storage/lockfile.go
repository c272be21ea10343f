package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/valter-silva-au/agent-session/pkg/models"
	"gopkg.in/yaml.v3"
)

// ErrLockHeld indicates another identity holds a fresh lock on the session.
var ErrLockHeld = errors.New("session lock held by another identity")

// LockManager defines the interface for the session's advisory lock file.
// The lock is advisory in the strict sense: all participants must go
// through this interface, and OS-level file locks are deliberately not
// used because ownership has to survive process exit and be inspectable by
// other invocations.
type LockManager interface {
	// Acquire takes the lock for holder. It succeeds when no lock
	// exists, when holder already owns it, or when the existing lock is
	// older than staleness (a forced takeover, reported via takeover).
	// A fresh lock owned by someone else fails with ErrLockHeld.
	Acquire(holder string, staleness time.Duration) (info *models.LockInfo, takeover bool, err error)

	// Release removes the lock if holder owns it. It is a no-op if the
	// lock is absent or held by someone else.
	Release(holder string) error

	// Read returns the current lock, or nil if no lock exists.
	Read() (*models.LockInfo, error)
}

// fileLockManager implements LockManager over a YAML lock file in the
// session directory.
type fileLockManager struct {
	sessionDir string
	clock      func() time.Time
}

// NewLockManager creates a LockManager for the given session directory.
func NewLockManager(sessionDir string) LockManager {
	return &fileLockManager{sessionDir: sessionDir, clock: time.Now}
}

// NewLockManagerWithClock creates a LockManager with an injectable clock
// for staleness tests.
func NewLockManagerWithClock(sessionDir string, clock func() time.Time) LockManager {
	return &fileLockManager{sessionDir: sessionDir, clock: clock}
}

func (m *fileLockManager) lockPath() string {
	return filepath.Join(m.sessionDir, "session.lock")
}

// Read returns the current lock file contents, or nil if absent.
func (m *fileLockManager) Read() (*models.LockInfo, error) {
	data, err := os.ReadFile(m.lockPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading lock file: %w", err)
	}

	var info models.LockInfo
	if err := yaml.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("parsing lock file: %w", err)
	}
	if info.Holder == "" {
		// An empty lock file is treated as no lock; a crashed writer
		// left nothing worth honoring.
		return nil, nil
	}
	return &info, nil
}

// Acquire takes or refreshes the lock for holder.
func (m *fileLockManager) Acquire(holder string, staleness time.Duration) (*models.LockInfo, bool, error) {
	if holder == "" {
		return nil, false, fmt.Errorf("acquiring lock: holder must not be empty")
	}

	existing, err := m.Read()
	if err != nil {
		return nil, false, fmt.Errorf("acquiring lock: %w", err)
	}

	takeover := false
	if existing != nil && existing.Holder != holder {
		if existing.Age(m.clock()) <= staleness {
			return nil, false, fmt.Errorf("%w: %s since %s",
				ErrLockHeld, existing.Holder, existing.AcquiredAt.Format(time.RFC3339))
		}
		takeover = true
	}

	info := &models.LockInfo{
		Holder:     holder,
		AcquiredAt: m.clock().UTC(),
	}
	if existing != nil && existing.Holder == holder {
		// Re-entrant acquire keeps the original acquisition time so the
		// staleness window measures the whole turn, not the last call.
		info.AcquiredAt = existing.AcquiredAt
	}

	if err := m.write(info); err != nil {
		return nil, false, fmt.Errorf("acquiring lock: %w", err)
	}
	return info, takeover, nil
}

// Release removes the lock if holder owns it.
func (m *fileLockManager) Release(holder string) error {
	existing, err := m.Read()
	if err != nil {
		return fmt.Errorf("releasing lock: %w", err)
	}
	if existing == nil || existing.Holder != holder {
		return nil
	}
	if err := os.Remove(m.lockPath()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("releasing lock: %w", err)
	}
	return nil
}

// write installs the lock file atomically via temp file + rename.
func (m *fileLockManager) write(info *models.LockInfo) error {
	data, err := yaml.Marshal(info)
	if err != nil {
		return fmt.Errorf("serializing lock: %w", err)
	}

	tmp, err := os.CreateTemp(m.sessionDir, "session.lock.tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp lock file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing temp lock file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp lock file: %w", err)
	}

	if err := os.Rename(tmpPath, m.lockPath()); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("installing lock file: %w", err)
	}
	return nil
}
