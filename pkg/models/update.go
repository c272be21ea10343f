package models

// NewTask describes a task to be added by an update batch. The engine
// assigns the ID; intra-batch dependencies may reference the prospective
// IDs of earlier entries in the same batch.
type NewTask struct {
	Title             string   `yaml:"title" json:"title"`
	Type              TaskType `yaml:"type" json:"type"`
	DependsOn         []int    `yaml:"depends_on,omitempty" json:"depends_on,omitempty"`
	ContextHints      []string `yaml:"context_hints" json:"context_hints"`
	RelevantFilePaths []string `yaml:"relevant_file_paths" json:"relevant_file_paths"`
}

// TaskUpdate describes field changes to an existing task. Nil pointer
// fields are left untouched.
type TaskUpdate struct {
	ID        int         `yaml:"id" json:"id"`
	Status    *TaskStatus `yaml:"status,omitempty" json:"status,omitempty"`
	Title     *string     `yaml:"title,omitempty" json:"title,omitempty"`
	CommitSHA *string     `yaml:"commit_sha,omitempty" json:"commit_sha,omitempty"`
}

// UpdatePayload is the batch of mutations an update command applies as one
// all-or-nothing operation.
type UpdatePayload struct {
	AddTasks     []NewTask    `yaml:"add_tasks,omitempty" json:"add_tasks,omitempty"`
	UpdateTasks  []TaskUpdate `yaml:"update_tasks,omitempty" json:"update_tasks,omitempty"`
	SignalsOpen  []Signal     `yaml:"signals_open,omitempty" json:"signals_open,omitempty"`
	SignalsClose []string     `yaml:"signals_close,omitempty" json:"signals_close,omitempty"`
	FinalSummary string       `yaml:"final_summary,omitempty" json:"final_summary,omitempty"`
}

// Empty reports whether the payload contains no mutations at all.
func (p UpdatePayload) Empty() bool {
	return len(p.AddTasks) == 0 && len(p.UpdateTasks) == 0 &&
		len(p.SignalsOpen) == 0 && len(p.SignalsClose) == 0 && p.FinalSummary == ""
}

// ViolationCode classifies a single validation failure within a batch.
type ViolationCode string

const (
	ViolationMissingTitle       ViolationCode = "missing_title"
	ViolationMissingHints       ViolationCode = "missing_context_hints"
	ViolationMissingPaths       ViolationCode = "missing_file_paths"
	ViolationInvalidType        ViolationCode = "invalid_type"
	ViolationInvalidStatus      ViolationCode = "invalid_status"
	ViolationUnknownDependency  ViolationCode = "unknown_dependency"
	ViolationDependencyCycle    ViolationCode = "dependency_cycle"
	ViolationPathNotFound       ViolationCode = "path_not_found"
	ViolationTaskNotFound       ViolationCode = "task_not_found"
	ViolationMultipleInProgress ViolationCode = "multiple_in_progress"
)

// Violation is a single plan quality gate failure. TaskID refers to the
// prospective ID for new tasks.
type Violation struct {
	Code    ViolationCode `yaml:"code" json:"code"`
	TaskID  int           `yaml:"task_id,omitempty" json:"task_id,omitempty"`
	Path    string        `yaml:"path,omitempty" json:"path,omitempty"`
	Message string        `yaml:"message" json:"message"`
}
