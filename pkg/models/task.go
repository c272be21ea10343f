package models

import "time"

// TaskType represents the type of work a task involves.
type TaskType string

const (
	TaskTypeFeature     TaskType = "feature"
	TaskTypeFix         TaskType = "fix"
	TaskTypeTest        TaskType = "test"
	TaskTypeChore       TaskType = "chore"
	TaskTypeRefactor    TaskType = "refactor"
	TaskTypeDoc         TaskType = "doc"
	TaskTypeDesign      TaskType = "design"
	TaskTypeInvestigate TaskType = "investigate"
)

// ValidTaskTypes is the set of allowed TaskType values.
var ValidTaskTypes = map[TaskType]bool{
	TaskTypeFeature:     true,
	TaskTypeFix:         true,
	TaskTypeTest:        true,
	TaskTypeChore:       true,
	TaskTypeRefactor:    true,
	TaskTypeDoc:         true,
	TaskTypeDesign:      true,
	TaskTypeInvestigate: true,
}

// TaskStatus represents the current lifecycle state of a task.
type TaskStatus string

const (
	StatusTodo       TaskStatus = "TODO"
	StatusInProgress TaskStatus = "IN_PROGRESS"
	StatusDone       TaskStatus = "DONE"
	StatusBlocked    TaskStatus = "BLOCKED"
	StatusWaiting    TaskStatus = "WAITING"
	StatusFailed     TaskStatus = "FAILED"
	StatusSkipped    TaskStatus = "SKIPPED"
	StatusOutOfScope TaskStatus = "OUT_OF_SCOPE"
	StatusCancelled  TaskStatus = "CANCELLED"
)

// ValidTaskStatuses is the set of allowed TaskStatus values.
var ValidTaskStatuses = map[TaskStatus]bool{
	StatusTodo:       true,
	StatusInProgress: true,
	StatusDone:       true,
	StatusBlocked:    true,
	StatusWaiting:    true,
	StatusFailed:     true,
	StatusSkipped:    true,
	StatusOutOfScope: true,
	StatusCancelled:  true,
}

// IsTerminal reports whether the status is a final lifecycle state that no
// further work will transition out of.
func (s TaskStatus) IsTerminal() bool {
	switch s {
	case StatusDone, StatusCancelled, StatusSkipped, StatusOutOfScope:
		return true
	}
	return false
}

// Task represents a unit of work in the session plan, identified by an
// integer ID assigned monotonically on creation and never reused.
type Task struct {
	ID                int        `yaml:"id" json:"id"`
	Title             string     `yaml:"title" json:"title"`
	Type              TaskType   `yaml:"type" json:"type"`
	Status            TaskStatus `yaml:"status" json:"status"`
	DependsOn         []int      `yaml:"depends_on,omitempty" json:"depends_on,omitempty"`
	ContextHints      []string   `yaml:"context_hints" json:"context_hints"`
	RelevantFilePaths []string   `yaml:"relevant_file_paths" json:"relevant_file_paths"`
	CommitSHA         string     `yaml:"commit_sha,omitempty" json:"commit_sha,omitempty"`
	CreatedAt         time.Time  `yaml:"created_at" json:"created_at"`
	LastUpdatedAt     time.Time  `yaml:"last_updated_at" json:"last_updated_at"`
}
