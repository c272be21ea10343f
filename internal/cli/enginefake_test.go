package cli

import (
	"time"

	"github.com/valter-silva-au/agent-session/pkg/models"
)

// fakeEngine implements core.SessionEngine for command tests.
type fakeEngine struct {
	state       *models.SessionState
	lock        *models.LockInfo
	now         models.Now
	initErr     error
	applyErr    error
	lastPayload models.UpdatePayload
	lastVersion int
	lastRelease bool
	released    bool
}

func (f *fakeEngine) InitSession(id, description string) (*models.SessionState, error) {
	if f.initErr != nil {
		return nil, f.initErr
	}
	f.state = &models.SessionState{Session: id, Description: description, Version: 1, NextTaskID: 1}
	return f.state, nil
}

func (f *fakeEngine) Status() (*models.StatusReport, error) {
	return &models.StatusReport{Now: f.now, State: f.state, Lock: f.lock}, nil
}

func (f *fakeEngine) SurfaceNow() (models.Now, error) {
	return f.now, nil
}

func (f *fakeEngine) ApplyUpdate(payload models.UpdatePayload, expectedVersion int, release bool) (*models.SessionState, error) {
	f.lastPayload = payload
	f.lastVersion = expectedVersion
	f.lastRelease = release
	if f.applyErr != nil {
		return nil, f.applyErr
	}
	f.state.Version++
	return f.state, nil
}

func (f *fakeEngine) OpenSignal(sig models.Signal, expectedVersion int) (*models.SessionState, error) {
	return f.ApplyUpdate(models.UpdatePayload{SignalsOpen: []models.Signal{sig}}, expectedVersion, false)
}

func (f *fakeEngine) CloseSignal(id string, expectedVersion int) (*models.SessionState, error) {
	return f.ApplyUpdate(models.UpdatePayload{SignalsClose: []string{id}}, expectedVersion, false)
}

func (f *fakeEngine) ReleaseLock() error {
	f.released = true
	return nil
}

func newFakeEngine() *fakeEngine {
	taskID := 1
	return &fakeEngine{
		now: models.Now{Reason: models.NowReadyForTask, TaskID: &taskID},
		state: &models.SessionState{
			Session: "demo",
			Version: 2,
			Tasks: []models.Task{
				{ID: 1, Title: "wire parser", Type: models.TaskTypeFeature, Status: models.StatusTodo,
					ContextHints: []string{"keep API stable"}, RelevantFilePaths: []string{"parser.go"}},
			},
			CreatedAt:     time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
			LastUpdatedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
			NextTaskID:    2,
		},
	}
}

// swapEngine installs a fake engine and returns a restore func.
func swapEngine(f *fakeEngine) func() {
	orig := Engine
	Engine = f
	return func() { Engine = orig }
}
