// Package internal provides the App struct that wires all components of the
// Agent Session Engine together and initializes the CLI layer.
package internal

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/valter-silva-au/agent-session/internal/cli"
	"github.com/valter-silva-au/agent-session/internal/core"
	"github.com/valter-silva-au/agent-session/internal/observability"
	"github.com/valter-silva-au/agent-session/internal/render"
	"github.com/valter-silva-au/agent-session/internal/storage"
	"github.com/valter-silva-au/agent-session/pkg/models"
)

// App holds all service dependencies for the Agent Session Engine.
type App struct {
	SessionDir string
	Config     *models.EngineConfig

	// Storage layer
	Store storage.StateStore
	Locks storage.LockManager

	// Core services
	Validator core.BatchValidator
	Ledger    core.SignalLedger
	Pipeline  core.UpdatePipeline
	Resolver  core.ReadinessResolver
	Revisions core.RevisionComparator
	Engine    core.SessionEngine

	// Projections and observability
	Renderer render.PlanRenderer
	EventLog observability.EventLog
}

// NewApp creates and wires all components of the Agent Session Engine.
// sessionDir is the directory holding the state file, lock file, and event
// log (typically <project>/.ase).
func NewApp(sessionDir string) (*App, error) {
	app := &App{SessionDir: sessionDir}

	// --- Configuration ---
	cfg, err := core.NewConfigLoader().Load(sessionDir)
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	app.Config = cfg

	// --- Storage layer ---
	app.Store = storage.NewStateStore(sessionDir, cfg.StateFile)
	app.Locks = storage.NewLockManager(sessionDir)

	// --- Observability ---
	if err := os.MkdirAll(sessionDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating session directory: %w", err)
	}
	app.EventLog, err = observability.NewEventLog(sessionDir)
	if err != nil {
		// Non-fatal: the engine runs without an audit trail.
		app.EventLog = nil
	}

	// --- Core services ---
	paths := core.NewPathChecker(cfg.ProjectRoot)
	app.Validator = core.NewBatchValidator(paths)
	app.Ledger = core.NewSignalLedger()
	app.Resolver = core.NewReadinessResolver()
	app.Revisions = core.NewRevisionComparator(
		filepath.Join(cfg.ProjectRoot, "instructions.rev"),
		filepath.Join(sessionDir, "instructions.rev"),
	)

	var events core.EventRecorder
	if app.EventLog != nil {
		events = app.EventLog
	}
	app.Pipeline = core.NewUpdatePipeline(app.Store, app.Locks, app.Validator, app.Ledger, events, cfg.LockStalenessTimeout)
	app.Engine = core.NewSessionEngine(cfg, app.Store, app.Locks, app.Pipeline, app.Resolver, app.Revisions, events)

	app.Renderer, err = render.NewPlanRenderer()
	if err != nil {
		return nil, fmt.Errorf("building plan renderer: %w", err)
	}

	// --- Wire CLI package-level variables ---
	cli.SessionDir = sessionDir
	cli.Config = cfg
	cli.Engine = app.Engine
	cli.Renderer = app.Renderer
	cli.EventLog = app.EventLog

	return app, nil
}

// Close releases resources held by the App, such as the event log file
// handle. Safe to call when EventLog is nil.
func (a *App) Close() error {
	if a.EventLog != nil {
		return a.EventLog.Close()
	}
	return nil
}

// ResolveSessionDir determines the session directory. It checks the
// ASE_HOME env var, then walks up from the current directory looking for an
// existing .ase directory, and falls back to .ase under the cwd.
func ResolveSessionDir() string {
	if home := os.Getenv("ASE_HOME"); home != "" {
		return home
	}

	cwd, err := os.Getwd()
	if err != nil {
		return ".ase"
	}
	dir := cwd
	for {
		candidate := filepath.Join(dir, ".ase")
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return filepath.Join(cwd, ".ase")
}
