// Package core contains the business logic for the agent session engine:
// batch validation, the signal ledger, readiness resolution, and the
// transactional update pipeline.
package core

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/viper"
	"github.com/valter-silva-au/agent-session/pkg/models"
)

// DefaultLockStaleness is how old a lock may grow before another identity
// is allowed to force-acquire it.
const DefaultLockStaleness = 5 * time.Minute

// ConfigLoader defines the interface for loading engine configuration for a
// session directory.
type ConfigLoader interface {
	Load(sessionDir string) (*models.EngineConfig, error)
}

// viperConfigLoader implements ConfigLoader using Viper to read an optional
// .aserc YAML file from the session directory or its parent.
type viperConfigLoader struct{}

// NewConfigLoader creates a ConfigLoader backed by Viper.
func NewConfigLoader() ConfigLoader {
	return &viperConfigLoader{}
}

// defaultIdentity builds a reasonably unique identity for this invocation:
// hostname plus a short random suffix, so two retries on the same machine
// still tell each other apart in the lock file.
func defaultIdentity() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "agent"
	}
	return fmt.Sprintf("%s-%s", host, uuid.NewString()[:8])
}

// Load reads .aserc and applies defaults for any missing key.
func (l *viperConfigLoader) Load(sessionDir string) (*models.EngineConfig, error) {
	cfg := &models.EngineConfig{
		Identity:             defaultIdentity(),
		LockStalenessTimeout: DefaultLockStaleness,
		ProjectRoot:          filepath.Dir(sessionDir),
		StateFile:            "session.yaml",
	}

	v := viper.New()
	v.SetConfigName(".aserc")
	v.SetConfigType("yaml")
	v.AddConfigPath(sessionDir)
	v.AddConfigPath(filepath.Dir(sessionDir))

	v.SetDefault("identity", cfg.Identity)
	v.SetDefault("lock.staleness_timeout", cfg.LockStalenessTimeout.String())
	v.SetDefault("project_root", cfg.ProjectRoot)
	v.SetDefault("state.file", cfg.StateFile)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// No config file found, defaults apply.
			return cfg, nil
		}
		return nil, fmt.Errorf("reading .aserc: %w", err)
	}

	cfg.Identity = v.GetString("identity")
	cfg.ProjectRoot = v.GetString("project_root")
	cfg.StateFile = v.GetString("state.file")

	raw := v.GetString("lock.staleness_timeout")
	timeout, err := time.ParseDuration(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing lock.staleness_timeout %q: %w", raw, err)
	}
	if timeout <= 0 {
		return nil, fmt.Errorf("lock.staleness_timeout must be positive, got %s", timeout)
	}
	cfg.LockStalenessTimeout = timeout

	if cfg.Identity == "" {
		cfg.Identity = defaultIdentity()
	}
	if cfg.StateFile == "" {
		cfg.StateFile = "session.yaml"
	}

	return cfg, nil
}
