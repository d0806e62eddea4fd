package draws

import (
	"context"
	"fmt"
	"sync"
	"time"

	"mutapa-lotto/database"
)

// DrawState is the process-wide "a draw is executing" gate shared by the
// scheduler and the ticket purchase path. At most one draw of any type
// is in progress at a time; purchases are refused while one is.
//
// The state lives only in memory. A process restart therefore always
// starts idle, so a crash mid-draw can never leave purchases locked.
type DrawState struct {
	mu sync.RWMutex

	inProgress bool
	generation uint64
	drawType   database.DrawType
	drawID     uint64
	startedAt  time.Time
	cancelExec context.CancelFunc
}

// StateSnapshot is a consistent read of the draw state.
type StateSnapshot struct {
	InProgress bool              `json:"inProgress"`
	DrawType   database.DrawType `json:"drawType,omitempty"`
	DrawID     uint64            `json:"drawId,omitempty"`
	StartedAt  time.Time         `json:"startedAt,omitempty"`
}

// PurchaseGate tells the purchase path whether tickets may be sold right
// now. When Allowed is false the condition is temporary and the caller
// should retry after the draw finishes.
type PurchaseGate struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

// TryBegin marks a draw as executing and reports false if another draw
// is already in progress, whatever its type. The cancel function aborts
// the execution and is invoked by Abort.
//
// On success it returns a token identifying this execution. Cleanup
// must go through Release with that token: an execution that was
// aborted keeps unwinding after its successor has begun, and its
// cleanup must not touch state it no longer owns.
func (s *DrawState) TryBegin(drawType database.DrawType, drawID uint64, cancel context.CancelFunc) (uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.inProgress {
		return 0, false
	}
	s.generation++
	s.inProgress = true
	s.drawType = drawType
	s.drawID = drawID
	s.startedAt = time.Now()
	s.cancelExec = cancel
	return s.generation, true
}

// Release returns the state to idle if the execution identified by
// token still owns it. A no-op otherwise, including when already idle.
func (s *DrawState) Release(token uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inProgress && s.generation == token {
		s.reset()
	}
}

func (s *DrawState) reset() {
	s.inProgress = false
	s.drawType = ""
	s.drawID = 0
	s.startedAt = time.Time{}
	s.cancelExec = nil
}

// Abort cancels the in-flight execution, if there is one, and resets
// the state to idle. It reports whether an execution was aborted.
func (s *DrawState) Abort() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	aborted := s.inProgress
	if s.cancelExec != nil {
		s.cancelExec()
	}
	s.reset()
	return aborted
}

func (s *DrawState) Snapshot() StateSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return StateSnapshot{
		InProgress: s.inProgress,
		DrawType:   s.drawType,
		DrawID:     s.drawID,
		StartedAt:  s.startedAt,
	}
}

// CanPurchaseTickets is the purchase-path check. It must be consulted
// before debiting a player or creating a ticket.
func (s *DrawState) CanPurchaseTickets() PurchaseGate {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.inProgress {
		return PurchaseGate{Allowed: true}
	}
	return PurchaseGate{
		Allowed: false,
		Reason: fmt.Sprintf("%s draw %d has been executing for %s, retry shortly",
			s.drawType, s.drawID, time.Since(s.startedAt).Round(time.Second)),
	}
}
