package core

import (
	"fmt"
	"time"

	"github.com/valter-silva-au/agent-session/pkg/models"
)

// SignalLedger defines open/close bookkeeping for signals on an in-memory
// SessionState. Surfacing counts (attempts) are deliberately not the
// ledger's concern; the readiness resolver owns those.
type SignalLedger interface {
	// Open records a signal as open. It fails with ErrSignalAlreadyOpen
	// if a signal with the same ID is already open. Re-opening a closed
	// signal replaces its record and resets attempts.
	Open(state *models.SessionState, sig models.Signal) error

	// Close marks the open signal with the given ID as closed. It fails
	// with ErrSignalNotFound if no such signal is open. The record is
	// retained for audit history.
	Close(state *models.SessionState, id string) error
}

// signalLedger implements SignalLedger.
type signalLedger struct {
	clock func() time.Time
}

// NewSignalLedger creates a SignalLedger using the wall clock.
func NewSignalLedger() SignalLedger {
	return &signalLedger{clock: time.Now}
}

// NewSignalLedgerWithClock creates a SignalLedger with an injectable clock.
func NewSignalLedgerWithClock(clock func() time.Time) SignalLedger {
	return &signalLedger{clock: clock}
}

func (l *signalLedger) Open(state *models.SessionState, sig models.Signal) error {
	if sig.ID == "" {
		return fmt.Errorf("opening signal: id must not be empty")
	}
	if !models.ValidSignalTypes[sig.Type] {
		return fmt.Errorf("opening signal %s: invalid type %q", sig.ID, sig.Type)
	}
	if !models.ValidSignalLevels[sig.Level] {
		return fmt.Errorf("opening signal %s: invalid level %q", sig.ID, sig.Level)
	}

	sig.Open = true
	sig.Attempts = 0
	sig.ClosedAt = nil
	if sig.OpenedAt.IsZero() {
		sig.OpenedAt = l.clock().UTC()
	}

	if existing := state.FindSignal(sig.ID); existing != nil {
		if existing.Open {
			return fmt.Errorf("signal %s: %w", sig.ID, ErrSignalAlreadyOpen)
		}
		*existing = sig
		return nil
	}

	state.Signals = append(state.Signals, sig)
	return nil
}

func (l *signalLedger) Close(state *models.SessionState, id string) error {
	existing := state.FindSignal(id)
	if existing == nil || !existing.Open {
		return fmt.Errorf("signal %s: %w", id, ErrSignalNotFound)
	}

	existing.Open = false
	closedAt := l.clock().UTC()
	existing.ClosedAt = &closedAt
	return nil
}
