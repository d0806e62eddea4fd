//go:build !integration
// +build !integration

package draws

import (
	"testing"

	"mutapa-lotto/database"

	"github.com/stretchr/testify/require"
)

func TestDrawStateSingleExecution(t *testing.T) {
	state := &DrawState{}

	token, ok := state.TryBegin(database.DrawTypeDaily, 7, nil)
	require.True(t, ok)

	// a second draw of any type is refused while the first is running
	_, ok = state.TryBegin(database.DrawTypeDaily, 8, nil)
	require.False(t, ok)
	_, ok = state.TryBegin(database.DrawTypeWeekly, 9, nil)
	require.False(t, ok)

	snapshot := state.Snapshot()
	require.True(t, snapshot.InProgress)
	require.Equal(t, database.DrawTypeDaily, snapshot.DrawType)
	require.Equal(t, uint64(7), snapshot.DrawID)
	require.False(t, snapshot.StartedAt.IsZero())

	state.Release(token)
	require.False(t, state.Snapshot().InProgress)
	_, ok = state.TryBegin(database.DrawTypeWeekly, 9, nil)
	require.True(t, ok)
}

func TestDrawStatePurchaseGate(t *testing.T) {
	state := &DrawState{}

	gate := state.CanPurchaseTickets()
	require.True(t, gate.Allowed)
	require.Empty(t, gate.Reason)

	token, ok := state.TryBegin(database.DrawTypeWeekly, 42, nil)
	require.True(t, ok)

	gate = state.CanPurchaseTickets()
	require.False(t, gate.Allowed)
	require.Contains(t, gate.Reason, "weekly draw 42")
	require.Contains(t, gate.Reason, "retry shortly")

	state.Release(token)
	require.True(t, state.CanPurchaseTickets().Allowed)
}

func TestDrawStateAbort(t *testing.T) {
	state := &DrawState{}

	// aborting an idle state is a no-op
	require.False(t, state.Abort())

	cancelled := false
	token, ok := state.TryBegin(database.DrawTypeDaily, 3, func() { cancelled = true })
	require.True(t, ok)

	require.True(t, state.Abort())
	require.True(t, cancelled)
	require.False(t, state.Snapshot().InProgress)
	require.True(t, state.CanPurchaseTickets().Allowed)

	// the aborted execution's deferred release finds nothing to do
	state.Release(token)

	// a new draw can begin after the abort
	_, ok = state.TryBegin(database.DrawTypeDaily, 4, nil)
	require.True(t, ok)
}

func TestDrawStateStaleReleaseKeepsSuccessor(t *testing.T) {
	state := &DrawState{}

	stale, ok := state.TryBegin(database.DrawTypeDaily, 1, nil)
	require.True(t, ok)
	require.True(t, state.Abort())

	successor, ok := state.TryBegin(database.DrawTypeWeekly, 2, nil)
	require.True(t, ok)

	// the aborted execution unwinds only now; releasing its stale
	// token must leave the successor's state intact
	state.Release(stale)

	snapshot := state.Snapshot()
	require.True(t, snapshot.InProgress)
	require.Equal(t, database.DrawTypeWeekly, snapshot.DrawType)
	require.Equal(t, uint64(2), snapshot.DrawID)
	require.False(t, state.CanPurchaseTickets().Allowed)

	_, ok = state.TryBegin(database.DrawTypeDaily, 3, nil)
	require.False(t, ok)

	state.Release(successor)
	require.False(t, state.Snapshot().InProgress)
	require.True(t, state.CanPurchaseTickets().Allowed)
}
