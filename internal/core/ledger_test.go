package core

import (
	"errors"
	"testing"
	"time"

	"github.com/valter-silva-au/agent-session/pkg/models"
)

func testClock() func() time.Time {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time { return at }
}

func blockerSignal(id string) models.Signal {
	return models.Signal{
		ID:    id,
		Type:  models.SignalTypeCI,
		Kind:  "build",
		Level: models.LevelBlocker,
		Title: "build failed",
	}
}

func TestOpenSignal(t *testing.T) {
	ledger := NewSignalLedgerWithClock(testClock())
	state := baseState()

	if err := ledger.Open(state, blockerSignal("ci-1")); err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	sig := state.FindSignal("ci-1")
	if sig == nil {
		t.Fatal("signal not recorded")
	}
	if !sig.Open || sig.Attempts != 0 || sig.OpenedAt.IsZero() {
		t.Errorf("unexpected signal state: %+v", sig)
	}
}

func TestOpenDuplicateRejected(t *testing.T) {
	ledger := NewSignalLedgerWithClock(testClock())
	state := baseState()

	if err := ledger.Open(state, blockerSignal("ci-1")); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	err := ledger.Open(state, blockerSignal("ci-1"))
	if !errors.Is(err, ErrSignalAlreadyOpen) {
		t.Fatalf("expected ErrSignalAlreadyOpen, got %v", err)
	}
}

func TestCloseRetainsRecord(t *testing.T) {
	ledger := NewSignalLedgerWithClock(testClock())
	state := baseState()

	if err := ledger.Open(state, blockerSignal("ci-1")); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := ledger.Close(state, "ci-1"); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	sig := state.FindSignal("ci-1")
	if sig == nil {
		t.Fatal("closed signal must be retained for audit history")
	}
	if sig.Open {
		t.Error("signal still open after close")
	}
	if sig.ClosedAt == nil {
		t.Error("closed_at not recorded")
	}
}

func TestCloseUnknownRejected(t *testing.T) {
	ledger := NewSignalLedgerWithClock(testClock())
	state := baseState()

	if err := ledger.Close(state, "nope"); !errors.Is(err, ErrSignalNotFound) {
		t.Fatalf("expected ErrSignalNotFound, got %v", err)
	}
}

func TestCloseAlreadyClosedRejected(t *testing.T) {
	ledger := NewSignalLedgerWithClock(testClock())
	state := baseState()

	if err := ledger.Open(state, blockerSignal("ci-1")); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := ledger.Close(state, "ci-1"); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := ledger.Close(state, "ci-1"); !errors.Is(err, ErrSignalNotFound) {
		t.Fatalf("expected ErrSignalNotFound on double close, got %v", err)
	}
}

func TestReopenResetsAttempts(t *testing.T) {
	ledger := NewSignalLedgerWithClock(testClock())
	state := baseState()

	if err := ledger.Open(state, blockerSignal("ci-1")); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	state.FindSignal("ci-1").Attempts = 4
	if err := ledger.Close(state, "ci-1"); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if err := ledger.Open(state, blockerSignal("ci-1")); err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	sig := state.FindSignal("ci-1")
	if sig.Attempts != 0 {
		t.Errorf("reopen must reset attempts, got %d", sig.Attempts)
	}
	if !sig.Open || sig.ClosedAt != nil {
		t.Errorf("unexpected signal state after reopen: %+v", sig)
	}
	if len(state.Signals) != 1 {
		t.Errorf("reopen must replace the record, got %d records", len(state.Signals))
	}
}

func TestOpenValidatesTypeAndLevel(t *testing.T) {
	ledger := NewSignalLedgerWithClock(testClock())
	state := baseState()

	bad := blockerSignal("x")
	bad.Type = "weather"
	if err := ledger.Open(state, bad); err == nil {
		t.Error("expected error for invalid type")
	}

	bad = blockerSignal("y")
	bad.Level = "mild"
	if err := ledger.Open(state, bad); err == nil {
		t.Error("expected error for invalid level")
	}
}
