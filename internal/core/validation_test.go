package core

import (
	"testing"
	"time"

	"github.com/valter-silva-au/agent-session/pkg/models"
)

// fakePaths implements PathChecker over a fixed set of known paths.
type fakePaths map[string]bool

func (f fakePaths) Exists(path string) bool { return f[path] }

// allPaths is a PathChecker for tests that do not care about path checks.
type allPaths struct{}

func (allPaths) Exists(string) bool { return true }

func baseState(tasks ...models.Task) *models.SessionState {
	next := 1
	for _, t := range tasks {
		if t.ID >= next {
			next = t.ID + 1
		}
	}
	return &models.SessionState{
		Session:    "validation-test",
		Tasks:      tasks,
		NextTaskID: next,
		Version:    1,
		CreatedAt:  time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}
}

func validNewTask(title string, deps ...int) models.NewTask {
	return models.NewTask{
		Title:             title,
		Type:              models.TaskTypeFeature,
		DependsOn:         deps,
		ContextHints:      []string{"a hint"},
		RelevantFilePaths: []string{"main.go"},
	}
}

func codes(violations []models.Violation) map[models.ViolationCode]int {
	m := make(map[models.ViolationCode]int)
	for _, v := range violations {
		m[v.Code]++
	}
	return m
}

func TestValidateBatchAssignsSequentialIDs(t *testing.T) {
	v := NewBatchValidator(allPaths{})
	state := baseState(models.Task{ID: 3, Status: models.StatusDone})
	state.NextTaskID = 7

	tasks, violations := v.ValidateBatch(state, []models.NewTask{
		validNewTask("first"),
		validNewTask("second"),
	})
	if len(violations) != 0 {
		t.Fatalf("unexpected violations: %+v", violations)
	}
	if tasks[0].ID != 7 || tasks[1].ID != 8 {
		t.Errorf("expected IDs 7 and 8, got %d and %d", tasks[0].ID, tasks[1].ID)
	}
	if tasks[0].Status != models.StatusTodo {
		t.Errorf("new tasks must start TODO, got %s", tasks[0].Status)
	}
}

func TestValidateBatchCompleteness(t *testing.T) {
	v := NewBatchValidator(allPaths{})
	state := baseState()

	_, violations := v.ValidateBatch(state, []models.NewTask{
		{Type: "banana"}, // missing everything, bad type
	})

	got := codes(violations)
	for _, want := range []models.ViolationCode{
		models.ViolationMissingTitle,
		models.ViolationInvalidType,
		models.ViolationMissingHints,
		models.ViolationMissingPaths,
	} {
		if got[want] == 0 {
			t.Errorf("expected a %s violation, got %+v", want, violations)
		}
	}
}

func TestValidateBatchReportsAllViolationsInOnePass(t *testing.T) {
	v := NewBatchValidator(allPaths{})
	state := baseState()

	_, violations := v.ValidateBatch(state, []models.NewTask{
		{Title: "", Type: models.TaskTypeFix, ContextHints: []string{"h"}, RelevantFilePaths: []string{"p"}},
		{Title: "ok", Type: models.TaskTypeFix, ContextHints: nil, RelevantFilePaths: []string{"p"}},
	})

	// Violations from both tasks must be present together.
	got := codes(violations)
	if got[models.ViolationMissingTitle] == 0 || got[models.ViolationMissingHints] == 0 {
		t.Fatalf("expected violations from both tasks in one pass, got %+v", violations)
	}
}

func TestValidateBatchUnknownDependency(t *testing.T) {
	v := NewBatchValidator(allPaths{})
	state := baseState()

	_, violations := v.ValidateBatch(state, []models.NewTask{
		validNewTask("depends on a ghost", 99),
	})

	if codes(violations)[models.ViolationUnknownDependency] != 1 {
		t.Fatalf("expected unknown_dependency violation, got %+v", violations)
	}
}

func TestValidateBatchIntraBatchDependency(t *testing.T) {
	v := NewBatchValidator(allPaths{})
	state := baseState()
	state.NextTaskID = 1

	// Second entry depends on the first entry's prospective ID.
	_, violations := v.ValidateBatch(state, []models.NewTask{
		validNewTask("base"),
		validNewTask("on top", 1),
	})
	if len(violations) != 0 {
		t.Fatalf("intra-batch dependency should be valid, got %+v", violations)
	}
}

func TestValidateBatchRejectsCycleWithinBatch(t *testing.T) {
	v := NewBatchValidator(allPaths{})
	state := baseState()
	state.NextTaskID = 1

	_, violations := v.ValidateBatch(state, []models.NewTask{
		validNewTask("a", 2),
		validNewTask("b", 1),
	})

	if codes(violations)[models.ViolationDependencyCycle] != 2 {
		t.Fatalf("expected both cycle members reported, got %+v", violations)
	}
}

func TestValidateBatchRejectsCycleThroughExistingTask(t *testing.T) {
	v := NewBatchValidator(allPaths{})
	existing := models.Task{
		ID:                1,
		Title:             "existing",
		Type:              models.TaskTypeFeature,
		Status:            models.StatusTodo,
		DependsOn:         []int{2}, // forward reference to the batch task
		ContextHints:      []string{"h"},
		RelevantFilePaths: []string{"p"},
	}
	state := baseState(existing)

	_, violations := v.ValidateBatch(state, []models.NewTask{
		validNewTask("new", 1),
	})

	if codes(violations)[models.ViolationDependencyCycle] == 0 {
		t.Fatalf("expected cycle through existing task to be rejected, got %+v", violations)
	}
}

func TestValidateBatchPathExistence(t *testing.T) {
	v := NewBatchValidator(fakePaths{"exists.go": true})
	state := baseState()

	nt := validNewTask("paths")
	nt.RelevantFilePaths = []string{"exists.go", "missing.go"}
	_, violations := v.ValidateBatch(state, []models.NewTask{nt})

	if len(violations) != 1 || violations[0].Code != models.ViolationPathNotFound {
		t.Fatalf("expected exactly one path_not_found, got %+v", violations)
	}
	if violations[0].Path != "missing.go" {
		t.Errorf("expected missing.go reported, got %s", violations[0].Path)
	}
}

func TestCycleMembersCleanGraph(t *testing.T) {
	tasks := []models.Task{
		{ID: 1},
		{ID: 2, DependsOn: []int{1}},
		{ID: 3, DependsOn: []int{1, 2}},
	}
	if members := CycleMembers(tasks); members != nil {
		t.Fatalf("expected no cycle members, got %v", members)
	}
}

func TestCycleMembersSelfLoop(t *testing.T) {
	tasks := []models.Task{{ID: 1, DependsOn: []int{1}}}
	members := CycleMembers(tasks)
	if len(members) != 1 || members[0] != 1 {
		t.Fatalf("expected [1], got %v", members)
	}
}

func TestCycleMembersIncludesDownstream(t *testing.T) {
	tasks := []models.Task{
		{ID: 1, DependsOn: []int{2}},
		{ID: 2, DependsOn: []int{1}},
		{ID: 3, DependsOn: []int{2}}, // stuck behind the cycle
		{ID: 4},
	}
	members := CycleMembers(tasks)
	if len(members) != 3 || members[0] != 1 || members[1] != 2 || members[2] != 3 {
		t.Fatalf("expected [1 2 3], got %v", members)
	}
}

func TestCycleMembersIgnoresMissingDeps(t *testing.T) {
	tasks := []models.Task{{ID: 1, DependsOn: []int{42}}}
	if members := CycleMembers(tasks); members != nil {
		t.Fatalf("dangling dependency is not a cycle, got %v", members)
	}
}
