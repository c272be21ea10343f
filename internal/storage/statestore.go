// Package storage provides the durable persistence layer for a session
// directory: the atomically-written, versioned state file and the advisory
// lock file. External renderers may read both files but must never write
// them.
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

var (
	// ErrCorruptState indicates the state file is missing, truncated, or
	// not parseable. This is fatal to the invocation; the engine never
	// silently defaults over it.
	ErrCorruptState = errors.New("corrupt session state")

	// ErrStaleVersion indicates the on-disk version no longer matches the
	// version the caller loaded. The caller must reload and retry.
	ErrStaleVersion = errors.New("stale session version")

	// ErrStateExists indicates an attempt to create a session over an
	// existing state file.
	ErrStateExists = errors.New("session state already exists")
)

// StateStore defines the interface for loading and saving a session's
// durable state with optimistic concurrency control.
type StateStore interface {
	// Create writes the initial state file. It fails with ErrStateExists
	// if the session is already initialized.
	Create(state *models.SessionState) error

	// Load reads and parses the state file. A missing or unparseable
	// file fails with an error wrapping ErrCorruptState.
	Load() (*models.SessionState, error)

	// Save persists the state if the on-disk version still equals
	// expectedVersion, bumping the version by exactly one. The write is
	// atomic: serialize to a temp file in the session directory, then
	// rename over the previous file.
	Save(state *models.SessionState, expectedVersion int) error
}

// fileStateStore implements StateStore over a single YAML file in the
// session directory.
type fileStateStore struct {
	sessionDir string
	fileName   string
}

// NewStateStore creates a StateStore backed by fileName inside sessionDir.
func NewStateStore(sessionDir, fileName string) StateStore {
	if fileName == "" {
		fileName = "session.yaml"
	}
	return &fileStateStore{sessionDir: sessionDir, fileName: fileName}
}

func (s *fileStateStore) statePath() string {
	return filepath.Join(s.sessionDir, s.fileName)
}

// Create writes the initial state file with version 1.
func (s *fileStateStore) Create(state *models.SessionState) error {
	if _, err := os.Stat(s.statePath()); err == nil {
		return fmt.Errorf("creating session state: %w", ErrStateExists)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("creating session state: %w", err)
	}

	if err := os.MkdirAll(s.sessionDir, 0o755); err != nil {
		return fmt.Errorf("creating session directory: %w", err)
	}

	now := time.Now().UTC()
	state.Version = 1
	if state.CreatedAt.IsZero() {
		state.CreatedAt = now
	}
	state.LastUpdatedAt = now
	if state.NextTaskID < 1 {
		state.NextTaskID = 1
	}

	return s.install(state)
}

// Load reads the state file from disk.
func (s *fileStateStore) Load() (*models.SessionState, error) {
	data, err := os.ReadFile(s.statePath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: state file %s does not exist", ErrCorruptState, s.statePath())
		}
		return nil, fmt.Errorf("%w: reading state file: %v", ErrCorruptState, err)
	}

	var state models.SessionState
	if err := yaml.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("%w: parsing state file: %v", ErrCorruptState, err)
	}

	// A well-formed state always carries a session ID and a positive
	// version; anything else is a partial or foreign file.
	if state.Session == "" || state.Version < 1 {
		return nil, fmt.Errorf("%w: state file is incomplete", ErrCorruptState)
	}

	return &state, nil
}

// Save persists the state with an optimistic version check.
func (s *fileStateStore) Save(state *models.SessionState, expectedVersion int) error {
	current, err := s.Load()
	if err != nil {
		return fmt.Errorf("saving session state: %w", err)
	}
	if current.Version != expectedVersion {
		return fmt.Errorf("%w: disk has version %d, caller expected %d",
			ErrStaleVersion, current.Version, expectedVersion)
	}

	state.Version = expectedVersion + 1
	state.LastUpdatedAt = time.Now().UTC()

	return s.install(state)
}

// install serializes the state to a temp file in the session directory and
// rename-installs it over the state file, so a crash mid-write never leaves
// a truncated file visible to readers.
func (s *fileStateStore) install(state *models.SessionState) error {
	data, err := yaml.Marshal(state)
	if err != nil {
		return fmt.Errorf("serializing session state: %w", err)
	}

	tmp, err := os.CreateTemp(s.sessionDir, s.fileName+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp state file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing temp state file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("syncing temp state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp state file: %w", err)
	}

	if err := os.Rename(tmpPath, s.statePath()); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("installing state file: %w", err)
	}
	return nil
}
