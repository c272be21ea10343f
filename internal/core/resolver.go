package core

import (
	"time"

	"github.com/valter-silva-au/agent-session/pkg/models"
)

// ResolveInput bundles everything the readiness resolver needs to compute
// the verdict for one caller.
type ResolveInput struct {
	State              *models.SessionState
	Lock               *models.LockInfo
	Identity           string
	InstructionsInSync bool
	LockStaleness      time.Duration
	Now                time.Time
}

// ReadinessResolver turns a session snapshot into a single next-action
// verdict. Resolution is a pure function of its input; calling it twice on
// identical state yields identical output.
type ReadinessResolver interface {
	// Peek computes the verdict without side effects. Status queries use
	// this.
	Peek(in ResolveInput) models.Now

	// Surface computes the verdict and, when it is an open blocker,
	// increments that signal's attempts counter on the in-memory state.
	// The caller decides whether the bump is persisted. It returns the
	// verdict and whether state was mutated.
	Surface(in ResolveInput) (models.Now, bool)
}

type readinessResolver struct{}

// NewReadinessResolver creates the standard resolver.
func NewReadinessResolver() ReadinessResolver {
	return &readinessResolver{}
}

func (r *readinessResolver) Peek(in ResolveInput) models.Now {
	verdict, _ := r.resolve(in)
	return verdict
}

func (r *readinessResolver) Surface(in ResolveInput) (models.Now, bool) {
	verdict, blocker := r.resolve(in)
	if blocker != nil {
		blocker.Attempts++
		return verdict, true
	}
	return verdict, false
}

// resolve evaluates the readiness states in priority order, first match
// wins. When the verdict is an open blocker it also returns a pointer to
// that signal within the state so Surface can count it.
func (r *readinessResolver) resolve(in ResolveInput) (models.Now, *models.Signal) {
	state := in.State

	// 1. Instructions out of date trump everything: the agent must not
	// act on a stale playbook.
	if !in.InstructionsInSync {
		return models.Now{Reason: models.NowSyncInstructions}, nil
	}

	// 2. Open blocker signals. Tie-break by oldest opened_at, then by id,
	// so repeated calls return the same signal.
	if blocker := pickBlocker(state); blocker != nil {
		return models.Now{
			Reason:   blockerReason(blocker.Type),
			SignalID: blocker.ID,
		}, blocker
	}

	// 3. Someone else holds a fresh lock.
	if in.Lock != nil && in.Lock.Holder != in.Identity && in.Lock.Age(in.Now) <= in.LockStaleness {
		return models.Now{Reason: models.NowWaitingOnLock}, nil
	}

	// 4. Dependency cycle among live tasks. The validator should make
	// this unreachable; if a bad state reaches us anyway we report it
	// rather than loop.
	if id, deadlocked := todoCycleMember(state.Tasks); deadlocked {
		return models.Now{Reason: models.NowDeadlocked, TaskID: &id}, nil
	}

	// 5/6. Task dispatch.
	if verdict, ok := pickTask(state.Tasks); ok {
		return verdict, nil
	}

	// 7. Every task is terminal (or there are none).
	return models.Now{Reason: models.NowCompleted}, nil
}

// pickBlocker returns the open blocker-level signal with the oldest
// opened_at timestamp, breaking ties by id.
func pickBlocker(state *models.SessionState) *models.Signal {
	var chosen *models.Signal
	for i := range state.Signals {
		sig := &state.Signals[i]
		if !sig.Open || sig.Level != models.LevelBlocker {
			continue
		}
		if chosen == nil {
			chosen = sig
			continue
		}
		if sig.OpenedAt.Before(chosen.OpenedAt) ||
			(sig.OpenedAt.Equal(chosen.OpenedAt) && sig.ID < chosen.ID) {
			chosen = sig
		}
	}
	return chosen
}

// blockerReason maps a signal type to the verdict reason it surfaces as.
func blockerReason(t models.SignalType) models.NowReason {
	switch t {
	case models.SignalTypeCI:
		return models.NowCIBlocker
	case models.SignalTypeLint:
		return models.NowLintBlocker
	default:
		return models.NowSignalBlocker
	}
}

// todoCycleMember reports the lowest-id TODO task caught in (or stuck
// behind) a dependency cycle among non-terminal tasks.
func todoCycleMember(tasks []models.Task) (int, bool) {
	live := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if !t.Status.IsTerminal() {
			live = append(live, t)
		}
	}

	byID := make(map[int]models.TaskStatus, len(live))
	for _, t := range live {
		byID[t.ID] = t.Status
	}
	for _, id := range CycleMembers(live) {
		// CycleMembers returns ids in ascending order.
		if byID[id] == models.StatusTodo {
			return id, true
		}
	}
	return 0, false
}

// pickTask implements dispatch: resume the active task if one exists,
// otherwise start the lowest-id TODO task whose dependencies are all DONE.
// If non-terminal work remains but nothing is dispatchable, the plan is
// stuck and the verdict escalates. Returns ok=false when every task is
// terminal.
func pickTask(tasks []models.Task) (models.Now, bool) {
	byID := make(map[int]models.TaskStatus, len(tasks))
	for _, t := range tasks {
		byID[t.ID] = t.Status
	}

	inProgress := -1
	ready := -1
	nonTerminal := 0
	for _, t := range tasks {
		if t.Status.IsTerminal() {
			continue
		}
		nonTerminal++

		switch t.Status {
		case models.StatusInProgress:
			if inProgress == -1 || t.ID < inProgress {
				inProgress = t.ID
			}
		case models.StatusTodo:
			if depsSatisfied(t, byID) && (ready == -1 || t.ID < ready) {
				ready = t.ID
			}
		}
	}

	if nonTerminal == 0 {
		return models.Now{}, false
	}

	// An already-active task is resumed in preference to starting new work.
	if inProgress != -1 {
		id := inProgress
		return models.Now{Reason: models.NowReadyForTask, TaskID: &id}, true
	}
	if ready != -1 {
		id := ready
		return models.Now{Reason: models.NowReadyForTask, TaskID: &id}, true
	}

	return models.Now{Reason: models.NowEscalated}, true
}

// depsSatisfied reports whether every dependency of the task is DONE. A
// dependency missing from the plan counts as unsatisfied.
func depsSatisfied(t models.Task, byID map[int]models.TaskStatus) bool {
	for _, dep := range t.DependsOn {
		if byID[dep] != models.StatusDone {
			return false
		}
	}
	return true
}
