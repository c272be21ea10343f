package core

import (
	"testing"
	"time"

	"github.com/valter-silva-au/agent-session/pkg/models"
	"pgregory.net/rapid"
)

func drawPlan(rt *rapid.T) *models.SessionState {
	statuses := []models.TaskStatus{
		models.StatusTodo, models.StatusInProgress, models.StatusDone,
		models.StatusBlocked, models.StatusWaiting, models.StatusFailed,
		models.StatusSkipped, models.StatusOutOfScope, models.StatusCancelled,
	}

	n := rapid.IntRange(0, 12).Draw(rt, "n")
	state := baseState()
	for i := 1; i <= n; i++ {
		task := todoTask(i)
		task.Status = rapid.SampledFrom(statuses).Draw(rt, "status")
		for d := 1; d < i; d++ {
			if rapid.Bool().Draw(rt, "dep") {
				task.DependsOn = append(task.DependsOn, d)
			}
		}
		state.Tasks = append(state.Tasks, task)
	}
	state.NextTaskID = n + 1

	sigs := rapid.IntRange(0, 3).Draw(rt, "sigs")
	for i := 0; i < sigs; i++ {
		state.Signals = append(state.Signals, models.Signal{
			ID:       rapid.StringMatching(`sig-[a-z]{3}`).Draw(rt, "sig_id"),
			Type:     rapid.SampledFrom([]models.SignalType{models.SignalTypeCI, models.SignalTypeLint, models.SignalTypeOther}).Draw(rt, "sig_type"),
			Level:    rapid.SampledFrom([]models.SignalLevel{models.LevelBlocker, models.LevelHigh, models.LevelInfo}).Draw(rt, "sig_level"),
			Open:     rapid.Bool().Draw(rt, "sig_open"),
			OpenedAt: resolveAt.Add(-time.Duration(rapid.IntRange(0, 3600).Draw(rt, "age")) * time.Second),
		})
	}
	return state
}

// Property: resolution is a pure function of state. Repeated peeks agree,
// and shuffling task insertion order never changes the verdict.
func TestProperty_ResolutionDeterministic(t *testing.T) {
	r := NewReadinessResolver()

	rapid.Check(t, func(rt *rapid.T) {
		state := drawPlan(rt)

		first := r.Peek(input(state))
		second := r.Peek(input(state))
		if first.Reason != second.Reason || first.SignalID != second.SignalID {
			rt.Fatalf("verdict changed between identical calls: %+v vs %+v", first, second)
		}

		// Reverse the task slice; selection must be by id, not position.
		reversed := baseState()
		reversed.Signals = state.Signals
		for i := len(state.Tasks) - 1; i >= 0; i-- {
			reversed.Tasks = append(reversed.Tasks, state.Tasks[i])
		}
		reversed.NextTaskID = state.NextTaskID

		third := r.Peek(input(reversed))
		if first.Reason != third.Reason || first.SignalID != third.SignalID {
			rt.Fatalf("verdict depends on task order: %+v vs %+v", first, third)
		}
		if (first.TaskID == nil) != (third.TaskID == nil) {
			rt.Fatalf("task selection depends on task order: %+v vs %+v", first, third)
		}
		if first.TaskID != nil && *first.TaskID != *third.TaskID {
			rt.Fatalf("task selection depends on task order: %d vs %d", *first.TaskID, *third.TaskID)
		}
	})
}

// Property: when the verdict is ready_for_task with no active task, the
// selected task is the lowest-id TODO whose dependencies are all DONE.
func TestProperty_LowestEligibleTaskSelected(t *testing.T) {
	r := NewReadinessResolver()

	rapid.Check(t, func(rt *rapid.T) {
		state := drawPlan(rt)
		verdict := r.Peek(input(state))
		if verdict.Reason != models.NowReadyForTask || verdict.TaskID == nil {
			return
		}

		byID := make(map[int]models.TaskStatus)
		for _, t := range state.Tasks {
			byID[t.ID] = t.Status
		}
		hasActive := false
		for _, t := range state.Tasks {
			if t.Status == models.StatusInProgress {
				hasActive = true
			}
		}
		if hasActive {
			if byID[*verdict.TaskID] != models.StatusInProgress {
				rt.Fatalf("active task exists but %d (%s) was selected", *verdict.TaskID, byID[*verdict.TaskID])
			}
			return
		}

		for _, task := range state.Tasks {
			if task.Status != models.StatusTodo || task.ID >= *verdict.TaskID {
				continue
			}
			if depsSatisfied(task, byID) {
				rt.Fatalf("task %d was eligible but %d was selected", task.ID, *verdict.TaskID)
			}
		}
	})
}
