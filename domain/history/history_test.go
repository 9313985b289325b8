package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeTarget is a history target holding a single JSON string state.
type fakeTarget struct {
	mu       sync.Mutex
	state    string
	applyErr error
}

func newFakeTarget(state string) *fakeTarget {
	return &fakeTarget{state: state}
}

func (t *fakeTarget) set(state string) {
	t.mu.Lock()
	t.state = state
	t.mu.Unlock()
}

func (t *fakeTarget) get() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *fakeTarget) AsJSON() (json.RawMessage, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return json.RawMessage(fmt.Sprintf("%q", t.state)), nil
}

func (t *fakeTarget) ApplyJSON(data json.RawMessage) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.applyErr != nil {
		return t.applyErr
	}
	var state string
	if err := json.Unmarshal(data, &state); err != nil {
		return err
	}
	t.state = state
	return nil
}

// newTestManager builds a manager with short delays and a seeded timeline.
func newTestManager(t *testing.T, target *fakeTarget) *Manager {
	t.Helper()
	m := NewManager(target, zap.NewNop(),
		WithPushDelay(20*time.Millisecond),
		WithRestoreGuard(10*time.Millisecond))
	initial, err := target.AsJSON()
	require.NoError(t, err)
	m.Reset(initial)
	return m
}

// edit mutates the target and reports the change.
func edit(m *Manager, target *fakeTarget, state string) {
	target.set(state)
	m.OnDataChange()
}

func TestManagerDebouncesEditBursts(t *testing.T) {
	target := newFakeTarget("v0")
	m := newTestManager(t, target)

	// A rapid burst collapses into a single timeline entry.
	edit(m, target, "v1")
	edit(m, target, "v2")
	edit(m, target, "v3")
	time.Sleep(60 * time.Millisecond)

	status := m.Status()
	assert.Equal(t, 2, status.Size)
	assert.Equal(t, 1, status.Cursor)
	assert.True(t, status.CanUndo)
	assert.False(t, status.CanRedo)

	require.NoError(t, m.Undo())
	assert.Equal(t, "v0", target.get())
}

func TestManagerFlushesPendingBeforeUndo(t *testing.T) {
	target := newFakeTarget("v0")
	m := newTestManager(t, target)

	edit(m, target, "v1")
	time.Sleep(40 * time.Millisecond)
	edit(m, target, "v2")

	// The last edit is still pending; Undo must commit it first so it is
	// itself undoable, then step back to v1.
	require.NoError(t, m.Undo())
	assert.Equal(t, "v1", target.get())

	require.NoError(t, m.Redo())
	assert.Equal(t, "v2", target.get())
}

func TestManagerUndoRedoSequence(t *testing.T) {
	target := newFakeTarget("v0")
	m := newTestManager(t, target)

	for _, state := range []string{"v1", "v2", "v3"} {
		edit(m, target, state)
		time.Sleep(40 * time.Millisecond)
	}
	assert.Equal(t, 4, m.Status().Size)

	require.NoError(t, m.Undo())
	assert.Equal(t, "v2", target.get())
	require.NoError(t, m.Undo())
	assert.Equal(t, "v1", target.get())
	require.NoError(t, m.Redo())
	assert.Equal(t, "v2", target.get())
	require.NoError(t, m.Redo())
	assert.Equal(t, "v3", target.get())
	assert.False(t, m.CanRedo())
}

func TestManagerNoOpAtTimelineBoundaries(t *testing.T) {
	target := newFakeTarget("v0")
	m := newTestManager(t, target)

	require.NoError(t, m.Undo())
	assert.Equal(t, "v0", target.get())
	require.NoError(t, m.Redo())
	assert.Equal(t, "v0", target.get())
	assert.False(t, m.CanUndo())
	assert.False(t, m.CanRedo())
}

func TestManagerTruncatesRedoBranchOnNewEdit(t *testing.T) {
	target := newFakeTarget("v0")
	m := newTestManager(t, target)

	edit(m, target, "v1")
	time.Sleep(40 * time.Millisecond)
	edit(m, target, "v2")
	time.Sleep(40 * time.Millisecond)

	require.NoError(t, m.Undo())
	assert.Equal(t, "v1", target.get())
	assert.True(t, m.CanRedo())

	// Editing after an undo discards the redo branch.
	time.Sleep(20 * time.Millisecond) // leave the restore guard window
	edit(m, target, "v2b")
	time.Sleep(40 * time.Millisecond)

	assert.False(t, m.CanRedo())
	require.NoError(t, m.Undo())
	assert.Equal(t, "v1", target.get())
	require.NoError(t, m.Redo())
	assert.Equal(t, "v2b", target.get())
}

func TestManagerIgnoresChangesInsideRestoreGuard(t *testing.T) {
	target := newFakeTarget("v0")
	m := NewManager(target, zap.NewNop(),
		WithPushDelay(20*time.Millisecond),
		WithRestoreGuard(100*time.Millisecond))
	initial, err := target.AsJSON()
	require.NoError(t, err)
	m.Reset(initial)

	edit(m, target, "v1")
	time.Sleep(40 * time.Millisecond)
	require.NoError(t, m.Undo())

	// A change notification right after the restore is the restore's own
	// echo and must not become a new timeline entry.
	m.OnDataChange()
	time.Sleep(40 * time.Millisecond)
	assert.True(t, m.CanRedo())
	assert.Equal(t, 2, m.Status().Size)
}

func TestManagerBlockStateChanges(t *testing.T) {
	target := newFakeTarget("v0")
	m := newTestManager(t, target)

	BlockStateChanges()
	assert.True(t, StateChangesBlocked())
	edit(m, target, "v1")
	edit(m, target, "v2")
	UnblockStateChanges()
	assert.False(t, StateChangesBlocked())

	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, 1, m.Status().Size)

	// After unblocking, one notification records the compound result.
	m.OnDataChange()
	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, 2, m.Status().Size)

	require.NoError(t, m.Undo())
	assert.Equal(t, "v0", target.get())
}

func TestManagerCommitSkippedWhileBlocked(t *testing.T) {
	target := newFakeTarget("v0")
	m := newTestManager(t, target)

	edit(m, target, "v1")
	BlockStateChanges()
	time.Sleep(40 * time.Millisecond)

	// The push timer fired while recording was suspended; the snapshot
	// stays parked instead of entering the timeline.
	assert.Equal(t, 1, m.Status().Size)
	assert.False(t, m.CanUndo())
	UnblockStateChanges()

	// A later change supersedes the parked snapshot and commits normally.
	edit(m, target, "v2")
	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, 2, m.Status().Size)
	require.NoError(t, m.Undo())
	assert.Equal(t, "v0", target.get())
}

func TestManagerBlockNests(t *testing.T) {
	BlockStateChanges()
	BlockStateChanges()
	UnblockStateChanges()
	assert.True(t, StateChangesBlocked())
	UnblockStateChanges()
	assert.False(t, StateChangesBlocked())
}

func TestManagerRestoreFailureRollsBackCursor(t *testing.T) {
	target := newFakeTarget("v0")
	m := newTestManager(t, target)

	edit(m, target, "v1")
	time.Sleep(40 * time.Millisecond)

	target.applyErr = errors.New("apply failed")
	err := m.Undo()
	require.Error(t, err)
	assert.Equal(t, "v1", target.get())

	// The cursor rolled back, so the undo can be retried.
	status := m.Status()
	assert.Equal(t, 1, status.Cursor)
	assert.True(t, status.CanUndo)

	target.applyErr = nil
	require.NoError(t, m.Undo())
	assert.Equal(t, "v0", target.get())
}

func TestManagerReset(t *testing.T) {
	target := newFakeTarget("v0")
	m := newTestManager(t, target)

	edit(m, target, "v1")
	time.Sleep(40 * time.Millisecond)
	assert.True(t, m.CanUndo())

	snapshot, err := target.AsJSON()
	require.NoError(t, err)
	m.Reset(snapshot)

	status := m.Status()
	assert.Equal(t, 1, status.Size)
	assert.Equal(t, 0, status.Cursor)
	assert.False(t, status.CanUndo)
	assert.False(t, status.CanRedo)
}

func TestManagerNotifiesSubscribers(t *testing.T) {
	target := newFakeTarget("v0")
	m := newTestManager(t, target)

	var mu sync.Mutex
	var events []Event
	m.Subscribe(func(e Event) {
		mu.Lock()
		events = append(events, e)
		mu.Unlock()
	})

	edit(m, target, "v1")
	time.Sleep(40 * time.Millisecond)
	require.NoError(t, m.Undo())

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, events)
	last := events[len(events)-1]
	assert.False(t, last.CanUndo)
	assert.True(t, last.CanRedo)
}

func TestManagerCancelPending(t *testing.T) {
	target := newFakeTarget("v0")
	m := newTestManager(t, target)

	edit(m, target, "v1")
	m.CancelPending()
	time.Sleep(40 * time.Millisecond)

	assert.Equal(t, 1, m.Status().Size)
	assert.False(t, m.CanUndo())
}
