package core

import (
	"errors"
	"fmt"
	"time"

	"github.com/valter-silva-au/agent-session/internal/storage"
	"github.com/valter-silva-au/agent-session/pkg/models"
)

// EventRecorder is the subset of the observability event log the pipeline
// needs. A nil recorder disables event recording.
type EventRecorder interface {
	Record(eventType, message string, data map[string]any)
}

// UpdatePipeline applies a batch of mutations to a session as one
// all-or-nothing operation: load, version check, lock, validate, apply,
// persist. Each step short-circuits on failure with no partial effect
// visible on disk.
type UpdatePipeline interface {
	Apply(identity string, payload models.UpdatePayload, expectedVersion int, release bool) (*models.SessionState, error)
}

// updatePipeline implements UpdatePipeline over the injected persistence
// and validation collaborators.
type updatePipeline struct {
	store     storage.StateStore
	locks     storage.LockManager
	validator BatchValidator
	ledger    SignalLedger
	events    EventRecorder
	staleness time.Duration
	clock     func() time.Time
}

// NewUpdatePipeline creates an UpdatePipeline. events may be nil.
func NewUpdatePipeline(store storage.StateStore, locks storage.LockManager, validator BatchValidator, ledger SignalLedger, events EventRecorder, staleness time.Duration) UpdatePipeline {
	return &updatePipeline{
		store:     store,
		locks:     locks,
		validator: validator,
		ledger:    ledger,
		events:    events,
		staleness: staleness,
		clock:     time.Now,
	}
}

// Apply runs the full pipeline. The lock is released afterwards only when
// release is true, so an agent can make several calls while holding the
// floor.
func (p *updatePipeline) Apply(identity string, payload models.UpdatePayload, expectedVersion int, release bool) (*models.SessionState, error) {
	// 1. Load current state; the in-memory copy is the only thing
	// mutated until the final save.
	state, err := p.store.Load()
	if err != nil {
		if errors.Is(err, storage.ErrCorruptState) {
			return nil, rejected(ErrorCorruptState, err)
		}
		return nil, fmt.Errorf("applying update: %w", err)
	}
	if state.Version != expectedVersion {
		return nil, rejected(ErrorStaleVersion, storage.ErrStaleVersion,
			fmt.Sprintf("disk has version %d, caller expected %d", state.Version, expectedVersion))
	}

	// 2. Acquire or confirm the lock.
	_, takeover, err := p.locks.Acquire(identity, p.staleness)
	if err != nil {
		if errors.Is(err, storage.ErrLockHeld) {
			return nil, rejected(ErrorWaitingOnLock, err)
		}
		return nil, fmt.Errorf("applying update: %w", err)
	}
	if takeover {
		p.record("lock.takeover", fmt.Sprintf("%s force-acquired a stale lock", identity),
			map[string]any{"holder": identity})
	}

	// 3. Validate the add batch as a whole.
	added, violations := p.validator.ValidateBatch(state, payload.AddTasks)
	if len(violations) > 0 {
		return nil, rejectedViolations(violations)
	}

	now := p.clock().UTC()
	for i := range added {
		added[i].CreatedAt = now
		added[i].LastUpdatedAt = now
	}
	state.Tasks = append(state.Tasks, added...)
	state.NextTaskID += len(added)

	// 4. Apply field updates to existing tasks.
	if err := p.applyTaskUpdates(state, payload.UpdateTasks, now); err != nil {
		return nil, err
	}

	// 5. Apply signal changes through the ledger.
	for _, sig := range payload.SignalsOpen {
		if err := p.ledger.Open(state, sig); err != nil {
			if errors.Is(err, ErrSignalAlreadyOpen) {
				return nil, rejected(ErrorSignalAlreadyOpen, err)
			}
			return nil, rejected(ErrorValidationFailed, err)
		}
	}
	for _, id := range payload.SignalsClose {
		if err := p.ledger.Close(state, id); err != nil {
			return nil, rejected(ErrorSignalNotFound, err)
		}
	}

	if payload.FinalSummary != "" {
		state.FinalSummary = payload.FinalSummary
	}

	// 6. Persist atomically with the version check; a racing writer that
	// landed since step 1 turns this into a stale rejection.
	if err := p.store.Save(state, expectedVersion); err != nil {
		if errors.Is(err, storage.ErrStaleVersion) {
			return nil, rejected(ErrorStaleVersion, err)
		}
		if errors.Is(err, storage.ErrCorruptState) {
			return nil, rejected(ErrorCorruptState, err)
		}
		return nil, fmt.Errorf("applying update: %w", err)
	}

	if release {
		if err := p.locks.Release(identity); err != nil {
			return nil, fmt.Errorf("releasing lock after update: %w", err)
		}
	}

	for _, sig := range payload.SignalsOpen {
		p.record("signal.opened", fmt.Sprintf("signal %s opened at level %s", sig.ID, sig.Level),
			map[string]any{"signal_id": sig.ID, "level": string(sig.Level)})
	}
	for _, id := range payload.SignalsClose {
		p.record("signal.closed", fmt.Sprintf("signal %s closed", id),
			map[string]any{"signal_id": id})
	}
	p.record("update.applied", fmt.Sprintf("version %d committed by %s", state.Version, identity),
		map[string]any{
			"version":        state.Version,
			"tasks_added":    len(payload.AddTasks),
			"tasks_updated":  len(payload.UpdateTasks),
			"signals_opened": len(payload.SignalsOpen),
			"signals_closed": len(payload.SignalsClose),
		})

	return state, nil
}

// applyTaskUpdates applies status and field changes, enforcing that at most
// one task ends up IN_PROGRESS.
func (p *updatePipeline) applyTaskUpdates(state *models.SessionState, updates []models.TaskUpdate, now time.Time) error {
	var violations []models.Violation

	for _, u := range updates {
		task := state.FindTask(u.ID)
		if task == nil {
			return rejected(ErrorTaskNotFound, nil, fmt.Sprintf("task %d not found", u.ID))
		}

		if u.Status != nil {
			if !models.ValidTaskStatuses[*u.Status] {
				violations = append(violations, models.Violation{
					Code:    models.ViolationInvalidStatus,
					TaskID:  u.ID,
					Message: fmt.Sprintf("task %d: invalid status %q", u.ID, *u.Status),
				})
				continue
			}
			task.Status = *u.Status
		}
		if u.Title != nil {
			if *u.Title == "" {
				violations = append(violations, models.Violation{
					Code:    models.ViolationMissingTitle,
					TaskID:  u.ID,
					Message: fmt.Sprintf("task %d: title must not be emptied", u.ID),
				})
				continue
			}
			task.Title = *u.Title
		}
		if u.CommitSHA != nil {
			task.CommitSHA = *u.CommitSHA
		}
		task.LastUpdatedAt = now
	}

	active := 0
	for _, t := range state.Tasks {
		if t.Status == models.StatusInProgress {
			active++
		}
	}
	if active > 1 {
		violations = append(violations, models.Violation{
			Code:    models.ViolationMultipleInProgress,
			Message: fmt.Sprintf("%d tasks would be IN_PROGRESS; at most one is allowed", active),
		})
	}

	if len(violations) > 0 {
		return rejectedViolations(violations)
	}
	return nil
}

func (p *updatePipeline) record(eventType, message string, data map[string]any) {
	if p.events != nil {
		p.events.Record(eventType, message, data)
	}
}
