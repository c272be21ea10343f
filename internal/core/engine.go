package core

import (
	"errors"
	"fmt"
	"time"

	"github.com/valter-silva-au/agent-session/internal/storage"
	"github.com/valter-silva-au/agent-session/pkg/models"
)

// VersionCurrent tells the engine to use whatever version is currently on
// disk instead of enforcing one supplied by the caller.
const VersionCurrent = -1

// SessionEngine is the entry point the CLI and MCP surfaces use: status
// queries, verdict surfacing, and the mutating commands, all against one
// session directory.
type SessionEngine interface {
	// InitSession creates a new empty session.
	InitSession(id, description string) (*models.SessionState, error)

	// Status returns the verdict plus the full state. Read-only and
	// lock-free: it never mutates anything, including attempts counters.
	Status() (*models.StatusReport, error)

	// SurfaceNow returns the verdict as delivered to the agent. When the
	// verdict is an open blocker, that signal's attempts counter is
	// incremented and persisted, so stuck loops are detectable.
	SurfaceNow() (models.Now, error)

	// ApplyUpdate runs the update pipeline. Pass VersionCurrent to
	// accept whatever version is on disk.
	ApplyUpdate(payload models.UpdatePayload, expectedVersion int, release bool) (*models.SessionState, error)

	// OpenSignal and CloseSignal are thin entry points into the signal
	// ledger, subject to the same lock and version discipline as
	// ApplyUpdate.
	OpenSignal(sig models.Signal, expectedVersion int) (*models.SessionState, error)
	CloseSignal(id string, expectedVersion int) (*models.SessionState, error)

	// ReleaseLock gives up the floor if this identity holds it.
	ReleaseLock() error
}

// sessionEngine wires the persistence, validation, and resolution
// collaborators together.
type sessionEngine struct {
	cfg       *models.EngineConfig
	store     storage.StateStore
	locks     storage.LockManager
	pipeline  UpdatePipeline
	resolver  ReadinessResolver
	revisions RevisionComparator
	events    EventRecorder
	clock     func() time.Time
}

// NewSessionEngine creates a SessionEngine. events may be nil; revisions
// may be nil, in which case instructions are always considered in sync.
func NewSessionEngine(cfg *models.EngineConfig, store storage.StateStore, locks storage.LockManager, pipeline UpdatePipeline, resolver ReadinessResolver, revisions RevisionComparator, events EventRecorder) SessionEngine {
	if revisions == nil {
		revisions = StaticRevisionComparator(true)
	}
	return &sessionEngine{
		cfg:       cfg,
		store:     store,
		locks:     locks,
		pipeline:  pipeline,
		resolver:  resolver,
		revisions: revisions,
		events:    events,
		clock:     time.Now,
	}
}

func (e *sessionEngine) InitSession(id, description string) (*models.SessionState, error) {
	if id == "" {
		return nil, fmt.Errorf("initializing session: id must not be empty")
	}
	state := &models.SessionState{
		Session:     id,
		Description: description,
		NextTaskID:  1,
	}
	if err := e.store.Create(state); err != nil {
		return nil, fmt.Errorf("initializing session: %w", err)
	}
	return state, nil
}

// resolveInput loads everything the resolver needs for one call.
func (e *sessionEngine) resolveInput() (ResolveInput, error) {
	state, err := e.store.Load()
	if err != nil {
		if errors.Is(err, storage.ErrCorruptState) {
			return ResolveInput{}, rejected(ErrorCorruptState, err)
		}
		return ResolveInput{}, err
	}
	lock, err := e.locks.Read()
	if err != nil {
		return ResolveInput{}, err
	}
	inSync, err := e.revisions.InSync()
	if err != nil {
		return ResolveInput{}, fmt.Errorf("checking instruction revision: %w", err)
	}
	return ResolveInput{
		State:              state,
		Lock:               lock,
		Identity:           e.cfg.Identity,
		InstructionsInSync: inSync,
		LockStaleness:      e.cfg.LockStalenessTimeout,
		Now:                e.clock(),
	}, nil
}

func (e *sessionEngine) Status() (*models.StatusReport, error) {
	in, err := e.resolveInput()
	if err != nil {
		return nil, err
	}
	return &models.StatusReport{
		Now:   e.resolver.Peek(in),
		State: in.State,
		Lock:  in.Lock,
	}, nil
}

func (e *sessionEngine) SurfaceNow() (models.Now, error) {
	in, err := e.resolveInput()
	if err != nil {
		return models.Now{}, err
	}

	verdict, bumped := e.resolver.Surface(in)
	if bumped {
		// The attempts bump is an audit write, not a plan mutation: it
		// goes through the same optimistic save, but a racing writer
		// winning the version simply costs us this one count.
		if err := e.store.Save(in.State, in.State.Version); err != nil && !errors.Is(err, storage.ErrStaleVersion) {
			return models.Now{}, fmt.Errorf("recording surfaced blocker: %w", err)
		}
		if sig := in.State.FindSignal(verdict.SignalID); sig != nil {
			e.record("blocker.surfaced", fmt.Sprintf("signal %s surfaced as %s", sig.ID, verdict.Reason),
				map[string]any{"signal_id": sig.ID, "attempts": sig.Attempts})
		}
	}
	return verdict, nil
}

func (e *sessionEngine) ApplyUpdate(payload models.UpdatePayload, expectedVersion int, release bool) (*models.SessionState, error) {
	if expectedVersion == VersionCurrent {
		state, err := e.store.Load()
		if err != nil {
			if errors.Is(err, storage.ErrCorruptState) {
				return nil, rejected(ErrorCorruptState, err)
			}
			return nil, err
		}
		expectedVersion = state.Version
	}
	return e.pipeline.Apply(e.cfg.Identity, payload, expectedVersion, release)
}

func (e *sessionEngine) OpenSignal(sig models.Signal, expectedVersion int) (*models.SessionState, error) {
	return e.ApplyUpdate(models.UpdatePayload{SignalsOpen: []models.Signal{sig}}, expectedVersion, false)
}

func (e *sessionEngine) CloseSignal(id string, expectedVersion int) (*models.SessionState, error) {
	return e.ApplyUpdate(models.UpdatePayload{SignalsClose: []string{id}}, expectedVersion, false)
}

func (e *sessionEngine) ReleaseLock() error {
	return e.locks.Release(e.cfg.Identity)
}

func (e *sessionEngine) record(eventType, message string, data map[string]any) {
	if e.events != nil {
		e.events.Record(eventType, message, data)
	}
}
