package cli

import (
	"errors"
	"strings"
	"testing"

	"github.com/valter-silva-au/agent-session/internal/core"
	"github.com/valter-silva-au/agent-session/pkg/models"
)

func TestNowCommand(t *testing.T) {
	engine := newFakeEngine()
	defer swapEngine(engine)()

	rootCmd.SetArgs([]string{"now"})
	defer rootCmd.SetArgs(nil)

	if err := Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNowCommandNilEngine(t *testing.T) {
	orig := Engine
	Engine = nil
	defer func() { Engine = orig }()

	rootCmd.SetArgs([]string{"now"})
	defer rootCmd.SetArgs(nil)

	if err := Execute(); err == nil {
		t.Fatal("expected error when engine is not initialized")
	}
}

func TestFormatNow(t *testing.T) {
	taskID := 4

	tests := []struct {
		name string
		now  models.Now
		want string
	}{
		{"ready", models.Now{Reason: models.NowReadyForTask, TaskID: &taskID}, "ready_for_task: start task 4"},
		{"deadlocked", models.Now{Reason: models.NowDeadlocked, TaskID: &taskID}, "deadlocked: task 4 is in a dependency cycle"},
		{"ci blocker", models.Now{Reason: models.NowCIBlocker, SignalID: "ci-1"}, "ci_blocker: handle signal ci-1"},
		{"sync", models.Now{Reason: models.NowSyncInstructions}, "sync_instructions"},
		{"completed", models.Now{Reason: models.NowCompleted}, "completed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatNow(tt.now); got != tt.want {
				t.Errorf("formatNow() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRejectionErrorFlattensViolations(t *testing.T) {
	err := rejectionError(&core.RejectedError{
		Type: core.ErrorValidationFailed,
		Violations: []models.Violation{
			{Code: models.ViolationDependencyCycle, TaskID: 2, Message: "task 2 is part of a dependency cycle"},
		},
		Details: []string{"nothing was applied"},
	})

	for _, want := range []string{"plan_validation_failed", "dependency_cycle", "nothing was applied"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected %q in error, got: %v", want, err)
		}
	}
}

func TestRejectionErrorPassesPlainErrorsThrough(t *testing.T) {
	plain := errors.New("disk full")
	if got := rejectionError(plain); got != plain {
		t.Errorf("expected plain error returned unchanged, got %v", got)
	}
}
