package models

import "time"

// SignalType classifies where an external condition originated.
type SignalType string

const (
	SignalTypeCI     SignalType = "ci"
	SignalTypeLint   SignalType = "lint"
	SignalTypeBench  SignalType = "bench"
	SignalTypeSystem SignalType = "system"
	SignalTypeOther  SignalType = "other"
)

// ValidSignalTypes is the set of allowed SignalType values.
var ValidSignalTypes = map[SignalType]bool{
	SignalTypeCI:     true,
	SignalTypeLint:   true,
	SignalTypeBench:  true,
	SignalTypeSystem: true,
	SignalTypeOther:  true,
}

// SignalLevel represents the severity of a signal. Only blocker-level
// signals prevent task dispatch.
type SignalLevel string

const (
	LevelBlocker SignalLevel = "blocker"
	LevelHigh    SignalLevel = "high"
	LevelInfo    SignalLevel = "info"
)

// ValidSignalLevels is the set of allowed SignalLevel values.
var ValidSignalLevels = map[SignalLevel]bool{
	LevelBlocker: true,
	LevelHigh:    true,
	LevelInfo:    true,
}

// Signal represents an externally-reported condition (CI failure, lint
// error) that can block or inform the agent's work. Closed signals are
// retained for audit history rather than deleted.
type Signal struct {
	ID       string         `yaml:"id" json:"id"`
	Type     SignalType     `yaml:"type" json:"type"`
	Kind     string         `yaml:"kind,omitempty" json:"kind,omitempty"`
	Level    SignalLevel    `yaml:"level" json:"level"`
	Open     bool           `yaml:"open" json:"open"`
	Title    string         `yaml:"title" json:"title"`
	Message  string         `yaml:"message,omitempty" json:"message,omitempty"`
	Link     string         `yaml:"link,omitempty" json:"link,omitempty"`
	Extra    map[string]any `yaml:"extra,omitempty" json:"extra,omitempty"`
	Attempts int            `yaml:"attempts" json:"attempts"`
	OpenedAt time.Time      `yaml:"opened_at" json:"opened_at"`
	ClosedAt *time.Time     `yaml:"closed_at,omitempty" json:"closed_at,omitempty"`
}
