package core

import (
	"fmt"
	"sort"

	"github.com/valter-silva-au/agent-session/pkg/models"
)

// BatchValidator defines the plan quality gate for task batches. It reports
// every violation in one pass; on any violation the whole batch is rejected
// and nothing is applied.
type BatchValidator interface {
	// ValidateBatch materializes the prospective tasks for addTasks,
	// assigning IDs from state.NextTaskID onward, and returns them along
	// with all violations found.
	ValidateBatch(state *models.SessionState, addTasks []models.NewTask) ([]models.Task, []models.Violation)
}

// batchValidator implements BatchValidator with an injected filesystem
// collaborator for path existence checks.
type batchValidator struct {
	paths PathChecker
}

// NewBatchValidator creates a BatchValidator that resolves
// relevant_file_paths through the given PathChecker.
func NewBatchValidator(paths PathChecker) BatchValidator {
	return &batchValidator{paths: paths}
}

// ValidateBatch runs completeness, reference-integrity, acyclicity, and
// path-existence checks over the prospective plan.
func (v *batchValidator) ValidateBatch(state *models.SessionState, addTasks []models.NewTask) ([]models.Task, []models.Violation) {
	var violations []models.Violation

	// Prospective IDs are assigned up front so intra-batch dependencies
	// and violation reports can name them.
	known := make(map[int]bool, len(state.Tasks)+len(addTasks))
	for _, t := range state.Tasks {
		known[t.ID] = true
	}
	tasks := make([]models.Task, 0, len(addTasks))
	for i, nt := range addTasks {
		id := state.NextTaskID + i
		known[id] = true
		tasks = append(tasks, models.Task{
			ID:                id,
			Title:             nt.Title,
			Type:              nt.Type,
			Status:            models.StatusTodo,
			DependsOn:         append([]int(nil), nt.DependsOn...),
			ContextHints:      append([]string(nil), nt.ContextHints...),
			RelevantFilePaths: append([]string(nil), nt.RelevantFilePaths...),
		})
	}

	for _, task := range tasks {
		violations = append(violations, v.checkCompleteness(task)...)

		for _, dep := range task.DependsOn {
			if !known[dep] {
				violations = append(violations, models.Violation{
					Code:    models.ViolationUnknownDependency,
					TaskID:  task.ID,
					Message: fmt.Sprintf("task %d depends on %d, which exists neither in the plan nor in this batch", task.ID, dep),
				})
			}
		}

		for _, path := range task.RelevantFilePaths {
			if path != "" && !v.paths.Exists(path) {
				violations = append(violations, models.Violation{
					Code:    models.ViolationPathNotFound,
					TaskID:  task.ID,
					Path:    path,
					Message: fmt.Sprintf("task %d references %s, which does not resolve in the project", task.ID, path),
				})
			}
		}
	}

	// Acyclicity over the prospective graph: current tasks plus the batch.
	prospective := make([]models.Task, 0, len(state.Tasks)+len(tasks))
	prospective = append(prospective, state.Tasks...)
	prospective = append(prospective, tasks...)
	for _, id := range CycleMembers(prospective) {
		violations = append(violations, models.Violation{
			Code:    models.ViolationDependencyCycle,
			TaskID:  id,
			Message: fmt.Sprintf("task %d is part of a dependency cycle", id),
		})
	}

	return tasks, violations
}

// checkCompleteness enforces the per-task quality gate: non-empty title,
// context hints, and file paths, plus a valid type.
func (v *batchValidator) checkCompleteness(task models.Task) []models.Violation {
	var violations []models.Violation

	if task.Title == "" {
		violations = append(violations, models.Violation{
			Code:    models.ViolationMissingTitle,
			TaskID:  task.ID,
			Message: fmt.Sprintf("task %d has no title", task.ID),
		})
	}
	if !models.ValidTaskTypes[task.Type] {
		violations = append(violations, models.Violation{
			Code:    models.ViolationInvalidType,
			TaskID:  task.ID,
			Message: fmt.Sprintf("task %d has invalid type %q", task.ID, task.Type),
		})
	}
	if len(task.ContextHints) == 0 {
		violations = append(violations, models.Violation{
			Code:    models.ViolationMissingHints,
			TaskID:  task.ID,
			Message: fmt.Sprintf("task %d has no context hints", task.ID),
		})
	}
	if len(task.RelevantFilePaths) == 0 {
		violations = append(violations, models.Violation{
			Code:    models.ViolationMissingPaths,
			TaskID:  task.ID,
			Message: fmt.Sprintf("task %d has no relevant file paths", task.ID),
		})
	}

	return violations
}

// CycleMembers runs Kahn's algorithm over the depends_on graph and returns
// the sorted IDs of every task left unordered after topological reduction,
// i.e. every task in or downstream of a cycle. Dependencies on IDs absent
// from tasks contribute no edge.
func CycleMembers(tasks []models.Task) []int {
	present := make(map[int]bool, len(tasks))
	for _, t := range tasks {
		present[t.ID] = true
	}

	// Edge dep -> task: a task's in-degree is its number of in-graph
	// dependencies.
	inDegree := make(map[int]int, len(tasks))
	dependents := make(map[int][]int, len(tasks))
	for _, t := range tasks {
		inDegree[t.ID] = 0
	}
	for _, t := range tasks {
		for _, dep := range t.DependsOn {
			if !present[dep] {
				continue
			}
			inDegree[t.ID]++
			dependents[dep] = append(dependents[dep], t.ID)
		}
	}

	queue := make([]int, 0, len(tasks))
	for id, deg := range inDegree {
		if deg == 0 {
			queue = append(queue, id)
		}
	}

	ordered := 0
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		ordered++
		for _, next := range dependents[id] {
			inDegree[next]--
			if inDegree[next] == 0 {
				queue = append(queue, next)
			}
		}
	}

	if ordered == len(tasks) {
		return nil
	}

	var members []int
	for id, deg := range inDegree {
		if deg > 0 {
			members = append(members, id)
		}
	}
	sort.Ints(members)
	return members
}
