package core

import (
	"testing"
	"time"

	"github.com/valter-silva-au/agent-session/internal/storage"
	"github.com/valter-silva-au/agent-session/pkg/models"
)

func setupEngine(t *testing.T) (SessionEngine, storage.StateStore, storage.LockManager) {
	t.Helper()
	dir := t.TempDir()
	cfg := &models.EngineConfig{
		Identity:             "agent-a",
		LockStalenessTimeout: 5 * time.Minute,
		ProjectRoot:          dir,
		StateFile:            "session.yaml",
	}
	store := storage.NewStateStore(dir, cfg.StateFile)
	locks := storage.NewLockManager(dir)
	pipeline := NewUpdatePipeline(store, locks, NewBatchValidator(allPaths{}), NewSignalLedger(), nil, cfg.LockStalenessTimeout)
	engine := NewSessionEngine(cfg, store, locks, pipeline, NewReadinessResolver(), nil, nil)
	return engine, store, locks
}

func TestEngineInitAndStatus(t *testing.T) {
	engine, _, _ := setupEngine(t)

	if _, err := engine.InitSession("s-1", "try the engine"); err != nil {
		t.Fatalf("InitSession failed: %v", err)
	}

	report, err := engine.Status()
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if report.Now.Reason != models.NowCompleted {
		t.Errorf("empty plan should be completed, got %s", report.Now.Reason)
	}
	if report.State.Session != "s-1" || report.State.Version != 1 {
		t.Errorf("unexpected state: %+v", report.State)
	}
}

func TestEngineInitRequiresID(t *testing.T) {
	engine, _, _ := setupEngine(t)
	if _, err := engine.InitSession("", ""); err == nil {
		t.Fatal("expected error for empty session id")
	}
}

func TestEngineApplyWithCurrentVersion(t *testing.T) {
	engine, store, _ := setupEngine(t)
	if _, err := engine.InitSession("s-1", ""); err != nil {
		t.Fatalf("InitSession failed: %v", err)
	}

	if _, err := engine.ApplyUpdate(models.UpdatePayload{
		AddTasks: []models.NewTask{validNewTask("first")},
	}, VersionCurrent, true); err != nil {
		t.Fatalf("ApplyUpdate failed: %v", err)
	}
	if _, err := engine.ApplyUpdate(models.UpdatePayload{
		AddTasks: []models.NewTask{validNewTask("second", 1)},
	}, VersionCurrent, true); err != nil {
		t.Fatalf("second ApplyUpdate failed: %v", err)
	}

	state, err := store.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if state.Version != 3 || len(state.Tasks) != 2 {
		t.Errorf("unexpected state: version=%d tasks=%d", state.Version, len(state.Tasks))
	}
}

func TestEngineStatusDoesNotBumpAttempts(t *testing.T) {
	engine, store, _ := setupEngine(t)
	if _, err := engine.InitSession("s-1", ""); err != nil {
		t.Fatalf("InitSession failed: %v", err)
	}
	if _, err := engine.OpenSignal(blockerSignal("ci-1"), VersionCurrent); err != nil {
		t.Fatalf("OpenSignal failed: %v", err)
	}

	for i := 0; i < 3; i++ {
		report, err := engine.Status()
		if err != nil {
			t.Fatalf("Status failed: %v", err)
		}
		if report.Now.Reason != models.NowCIBlocker {
			t.Fatalf("expected ci_blocker, got %s", report.Now.Reason)
		}
	}

	state, _ := store.Load()
	if got := state.FindSignal("ci-1").Attempts; got != 0 {
		t.Errorf("status queries must not count attempts, got %d", got)
	}
}

func TestEngineSurfaceNowPersistsAttempts(t *testing.T) {
	engine, store, _ := setupEngine(t)
	if _, err := engine.InitSession("s-1", ""); err != nil {
		t.Fatalf("InitSession failed: %v", err)
	}
	if _, err := engine.OpenSignal(blockerSignal("ci-1"), VersionCurrent); err != nil {
		t.Fatalf("OpenSignal failed: %v", err)
	}

	for want := 1; want <= 2; want++ {
		verdict, err := engine.SurfaceNow()
		if err != nil {
			t.Fatalf("SurfaceNow failed: %v", err)
		}
		if verdict.Reason != models.NowCIBlocker || verdict.SignalID != "ci-1" {
			t.Fatalf("unexpected verdict: %+v", verdict)
		}
		state, _ := store.Load()
		if got := state.FindSignal("ci-1").Attempts; got != want {
			t.Errorf("expected persisted attempts %d, got %d", want, got)
		}
	}
}

func TestEngineAttemptsResetOnlyOnClose(t *testing.T) {
	engine, store, _ := setupEngine(t)
	if _, err := engine.InitSession("s-1", ""); err != nil {
		t.Fatalf("InitSession failed: %v", err)
	}
	if _, err := engine.OpenSignal(blockerSignal("ci-1"), VersionCurrent); err != nil {
		t.Fatalf("OpenSignal failed: %v", err)
	}
	if _, err := engine.SurfaceNow(); err != nil {
		t.Fatalf("SurfaceNow failed: %v", err)
	}

	// Unrelated plan activity does not reset the counter.
	if _, err := engine.ApplyUpdate(models.UpdatePayload{
		AddTasks: []models.NewTask{validNewTask("side quest")},
	}, VersionCurrent, true); err != nil {
		t.Fatalf("ApplyUpdate failed: %v", err)
	}
	state, _ := store.Load()
	if got := state.FindSignal("ci-1").Attempts; got != 1 {
		t.Fatalf("attempts reset by unrelated update, got %d", got)
	}

	if _, err := engine.CloseSignal("ci-1", VersionCurrent); err != nil {
		t.Fatalf("CloseSignal failed: %v", err)
	}
	if _, err := engine.OpenSignal(blockerSignal("ci-1"), VersionCurrent); err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	state, _ = store.Load()
	if got := state.FindSignal("ci-1").Attempts; got != 0 {
		t.Errorf("expected attempts reset after close/reopen, got %d", got)
	}
}

func TestEngineSignalCommands(t *testing.T) {
	engine, _, _ := setupEngine(t)
	if _, err := engine.InitSession("s-1", ""); err != nil {
		t.Fatalf("InitSession failed: %v", err)
	}

	if _, err := engine.OpenSignal(blockerSignal("lint-1"), VersionCurrent); err != nil {
		t.Fatalf("OpenSignal failed: %v", err)
	}
	_, err := engine.OpenSignal(blockerSignal("lint-1"), VersionCurrent)
	if rej, ok := AsRejected(err); !ok || rej.Type != ErrorSignalAlreadyOpen {
		t.Fatalf("expected signal_already_open, got %v", err)
	}
	if _, err := engine.CloseSignal("lint-1", VersionCurrent); err != nil {
		t.Fatalf("CloseSignal failed: %v", err)
	}
	_, err = engine.CloseSignal("lint-1", VersionCurrent)
	if rej, ok := AsRejected(err); !ok || rej.Type != ErrorSignalNotFound {
		t.Fatalf("expected signal_not_found, got %v", err)
	}
}

func TestEngineReleaseLock(t *testing.T) {
	engine, _, locks := setupEngine(t)
	if _, err := engine.InitSession("s-1", ""); err != nil {
		t.Fatalf("InitSession failed: %v", err)
	}
	if _, err := engine.ApplyUpdate(models.UpdatePayload{
		AddTasks: []models.NewTask{validNewTask("held")},
	}, VersionCurrent, false); err != nil {
		t.Fatalf("ApplyUpdate failed: %v", err)
	}

	if err := engine.ReleaseLock(); err != nil {
		t.Fatalf("ReleaseLock failed: %v", err)
	}
	info, err := locks.Read()
	if err != nil {
		t.Fatalf("Read lock: %v", err)
	}
	if info != nil {
		t.Errorf("expected lock released, got %+v", info)
	}
}

func TestEngineOutOfSyncInstructions(t *testing.T) {
	dir := t.TempDir()
	cfg := &models.EngineConfig{Identity: "agent-a", LockStalenessTimeout: 5 * time.Minute, StateFile: "session.yaml"}
	store := storage.NewStateStore(dir, cfg.StateFile)
	locks := storage.NewLockManager(dir)
	pipeline := NewUpdatePipeline(store, locks, NewBatchValidator(allPaths{}), NewSignalLedger(), nil, cfg.LockStalenessTimeout)
	engine := NewSessionEngine(cfg, store, locks, pipeline, NewReadinessResolver(), StaticRevisionComparator(false), nil)

	if _, err := engine.InitSession("s-1", ""); err != nil {
		t.Fatalf("InitSession failed: %v", err)
	}
	report, err := engine.Status()
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if report.Now.Reason != models.NowSyncInstructions {
		t.Errorf("expected sync_instructions, got %s", report.Now.Reason)
	}
}
