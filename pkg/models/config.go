package models

import "time"

// EngineConfig holds the runtime configuration for the session engine,
// loaded from an optional .aserc file with defaults applied.
type EngineConfig struct {
	// Identity is the name this invocation uses when acquiring the lock.
	Identity string `yaml:"identity" mapstructure:"identity"`

	// LockStalenessTimeout is how old a lock may be before another
	// identity is allowed to force-acquire it.
	LockStalenessTimeout time.Duration `yaml:"lock_staleness_timeout" mapstructure:"lock_staleness_timeout"`

	// ProjectRoot is the directory relevant_file_paths entries are
	// resolved against. Defaults to the session directory's parent.
	ProjectRoot string `yaml:"project_root" mapstructure:"project_root"`

	// StateFile is the name of the session state file inside the
	// session directory.
	StateFile string `yaml:"state_file" mapstructure:"state_file"`
}
