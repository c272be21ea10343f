package models

import "time"

// SessionState is the aggregate root for a coding session: the full task
// plan, all signals ever raised, and the optimistic-concurrency version
// counter. It is the single authoritative object for a session; rendered
// plan documents and dashboard views are derived projections.
type SessionState struct {
	Session       string    `yaml:"session" json:"session"`
	Description   string    `yaml:"description,omitempty" json:"description,omitempty"`
	Tasks         []Task    `yaml:"tasks" json:"tasks"`
	Signals       []Signal  `yaml:"signals,omitempty" json:"signals,omitempty"`
	NextTaskID    int       `yaml:"next_task_id" json:"next_task_id"`
	FinalSummary  string    `yaml:"final_summary,omitempty" json:"final_summary,omitempty"`
	CreatedAt     time.Time `yaml:"created_at" json:"created_at"`
	LastUpdatedAt time.Time `yaml:"last_updated_at" json:"last_updated_at"`
	Version       int       `yaml:"version" json:"version"`
}

// FindTask returns a pointer to the task with the given ID, or nil.
func (s *SessionState) FindTask(id int) *Task {
	for i := range s.Tasks {
		if s.Tasks[i].ID == id {
			return &s.Tasks[i]
		}
	}
	return nil
}

// FindSignal returns a pointer to the signal with the given ID, or nil.
func (s *SessionState) FindSignal(id string) *Signal {
	for i := range s.Signals {
		if s.Signals[i].ID == id {
			return &s.Signals[i]
		}
	}
	return nil
}

// LockInfo records the advisory lock for a session directory: the identity
// currently permitted to mutate state and when it took the lock.
type LockInfo struct {
	Holder     string    `yaml:"holder" json:"holder"`
	AcquiredAt time.Time `yaml:"acquired_at" json:"acquired_at"`
}

// Age returns how long the lock has been held as of now.
func (l LockInfo) Age(now time.Time) time.Duration {
	return now.Sub(l.AcquiredAt)
}

// NowReason identifies the kind of next action the readiness resolver
// computed for the agent.
type NowReason string

const (
	NowSyncInstructions NowReason = "sync_instructions"
	NowCIBlocker        NowReason = "ci_blocker"
	NowLintBlocker      NowReason = "lint_blocker"
	NowSignalBlocker    NowReason = "signal_blocker"
	NowWaitingOnLock    NowReason = "waiting_on_lock"
	NowDeadlocked       NowReason = "deadlocked"
	NowEscalated        NowReason = "escalated"
	NowReadyForTask     NowReason = "ready_for_task"
	NowCompleted        NowReason = "completed"
)

// Now is the readiness verdict: what the agent should do right now. It is
// recomputed on every query and never persisted as authoritative state.
type Now struct {
	Reason   NowReason `yaml:"reason" json:"reason"`
	TaskID   *int      `yaml:"task_id,omitempty" json:"task_id,omitempty"`
	SignalID string    `yaml:"signal_id,omitempty" json:"signal_id,omitempty"`
}

// StatusReport is the read-only answer to a status query: the verdict, the
// full task list, and session metadata.
type StatusReport struct {
	Now   Now           `yaml:"now" json:"now"`
	State *SessionState `yaml:"state" json:"state"`
	Lock  *LockInfo     `yaml:"lock,omitempty" json:"lock,omitempty"`
}
