// Package history provides linear, debounced undo/redo over full-state
// snapshots. It knows nothing about the document structure; targets expose
// their state as opaque JSON.
package history

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/ArthurHeitmann/satisfactory-architect-sub001/pkg/async"
)

// Target is anything the manager can snapshot and restore.
type Target interface {
	// AsJSON returns the target's complete serialized state.
	AsJSON() (json.RawMessage, error)
	// ApplyJSON replaces the target's state with a previously captured
	// snapshot. Must leave the target unchanged on error.
	ApplyJSON(data json.RawMessage) error
}

const (
	// DefaultPushDelay is how long after the last change a snapshot is
	// committed to the timeline. Rapid edit bursts (dragging, typing)
	// collapse into one history entry.
	DefaultPushDelay = 500 * time.Millisecond
	// DefaultRestoreGuard is the window after a restore during which
	// change notifications are ignored, so applying a snapshot does not
	// itself get recorded as a new edit.
	DefaultRestoreGuard = 50 * time.Millisecond
)

// Event describes the manager's state after a timeline change. Subscribers
// typically use it to enable or disable undo/redo affordances.
type Event struct {
	CanUndo bool
	CanRedo bool
	Cursor  int
	Size    int
}

// Manager records a linear timeline of target snapshots. Edits are reported
// through OnDataChange; the snapshot is captured immediately (while the
// caller still holds whatever lock serializes target access) but committed
// to the timeline only after the push delay elapses without further changes.
type Manager struct {
	mu          sync.Mutex
	target      Target
	logger      *zap.Logger
	snapshots   []json.RawMessage
	cursor      int
	pending     json.RawMessage
	push        *async.Debouncer
	pushDelay   time.Duration
	guard       time.Duration
	restoredAt  time.Time
	subscribers []func(Event)
}

// Option configures a Manager.
type Option func(*Manager)

// WithPushDelay overrides the debounce delay for committing snapshots.
func WithPushDelay(d time.Duration) Option {
	return func(m *Manager) { m.pushDelay = d }
}

// WithRestoreGuard overrides the post-restore guard window.
func WithRestoreGuard(d time.Duration) Option {
	return func(m *Manager) { m.guard = d }
}

// NewManager creates a history manager for the given target. The timeline
// starts empty; seed it with Reset so the pre-edit state is undoable.
func NewManager(target Target, logger *zap.Logger, opts ...Option) *Manager {
	m := &Manager{
		target:    target,
		logger:    logger,
		cursor:    -1,
		pushDelay: DefaultPushDelay,
		guard:     DefaultRestoreGuard,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.push = async.NewDebouncer(m.pushDelay, m.commitPending)
	return m
}

// Reset clears the timeline and seeds it with the given snapshot, which
// becomes the single committed state. Used when a document is opened or
// wholly replaced from storage.
func (m *Manager) Reset(initial json.RawMessage) {
	m.push.Cancel()
	m.mu.Lock()
	m.pending = nil
	m.snapshots = []json.RawMessage{initial}
	m.cursor = 0
	m.restoredAt = time.Time{}
	event := m.eventLocked()
	m.mu.Unlock()
	m.notify(event)
}

// Subscribe registers a callback invoked after every timeline change.
// Callbacks run outside the manager's lock, on the goroutine that caused
// the change.
func (m *Manager) Subscribe(fn func(Event)) {
	m.mu.Lock()
	m.subscribers = append(m.subscribers, fn)
	m.mu.Unlock()
}

// OnDataChange reports that the target's state changed. The snapshot is
// captured now, so the caller must still hold whatever lock serializes
// access to the target. Calls inside the restore guard window or while
// state changes are blocked are ignored.
func (m *Manager) OnDataChange() {
	if StateChangesBlocked() {
		return
	}
	m.mu.Lock()
	if !m.restoredAt.IsZero() && time.Since(m.restoredAt) < m.guard {
		m.mu.Unlock()
		return
	}
	snapshot, err := m.target.AsJSON()
	if err != nil {
		m.mu.Unlock()
		m.logger.Error("failed to capture history snapshot", zap.Error(err))
		return
	}
	m.pending = snapshot
	m.mu.Unlock()
	m.push.Trigger()
}

// commitPending moves the pending snapshot into the timeline. Runs on the
// debounce timer goroutine, or synchronously via FlushPending. While state
// changes are blocked the commit is skipped; the snapshot stays parked until
// a later change or flush picks it up.
func (m *Manager) commitPending() {
	if StateChangesBlocked() {
		return
	}
	m.mu.Lock()
	snapshot := m.pending
	m.pending = nil
	if snapshot == nil {
		m.mu.Unlock()
		return
	}
	// A new committed state invalidates everything past the cursor.
	m.snapshots = append(m.snapshots[:m.cursor+1], snapshot)
	m.cursor = len(m.snapshots) - 1
	event := m.eventLocked()
	m.mu.Unlock()
	m.notify(event)
}

// FlushPending commits any pending snapshot immediately instead of waiting
// out the debounce delay.
func (m *Manager) FlushPending() {
	m.push.Flush()
}

// CancelPending discards any pending snapshot without committing it. Call
// when the target is being torn down so no timer fires after disposal.
func (m *Manager) CancelPending() {
	m.push.Cancel()
	m.mu.Lock()
	m.pending = nil
	m.mu.Unlock()
}

// Undo commits any pending snapshot first (so the latest burst of edits is
// itself undoable), then steps the cursor back and restores that snapshot.
// At the beginning of the timeline it is a no-op.
func (m *Manager) Undo() error {
	m.push.Flush()
	m.mu.Lock()
	if m.cursor <= 0 {
		m.mu.Unlock()
		return nil
	}
	m.cursor--
	event, err := m.restoreLocked()
	if err != nil {
		m.cursor++
	}
	m.mu.Unlock()
	if err != nil {
		return err
	}
	m.notify(event)
	return nil
}

// Redo steps the cursor forward and restores that snapshot. At the end of
// the timeline it is a no-op.
func (m *Manager) Redo() error {
	m.mu.Lock()
	if m.cursor >= len(m.snapshots)-1 {
		m.mu.Unlock()
		return nil
	}
	m.cursor++
	event, err := m.restoreLocked()
	if err != nil {
		m.cursor--
	}
	m.mu.Unlock()
	if err != nil {
		return err
	}
	m.notify(event)
	return nil
}

// restoreLocked applies the snapshot at the cursor. Any pending snapshot is
// discarded: the restored state supersedes uncommitted edits. On apply
// failure the cursor move is rolled back.
func (m *Manager) restoreLocked() (Event, error) {
	m.push.Cancel()
	m.pending = nil
	if err := m.target.ApplyJSON(m.snapshots[m.cursor]); err != nil {
		m.logger.Error("failed to restore history snapshot",
			zap.Int("cursor", m.cursor),
			zap.Error(err))
		return Event{}, err
	}
	m.restoredAt = time.Now()
	return m.eventLocked(), nil
}

// CanUndo reports whether a snapshot exists before the cursor.
func (m *Manager) CanUndo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cursor > 0
}

// CanRedo reports whether a snapshot exists after the cursor.
func (m *Manager) CanRedo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cursor < len(m.snapshots)-1
}

// Status returns the current timeline state.
func (m *Manager) Status() Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.eventLocked()
}

func (m *Manager) eventLocked() Event {
	return Event{
		CanUndo: m.cursor > 0,
		CanRedo: m.cursor < len(m.snapshots)-1,
		Cursor:  m.cursor,
		Size:    len(m.snapshots),
	}
}

func (m *Manager) notify(event Event) {
	m.mu.Lock()
	subscribers := make([]func(Event), len(m.subscribers))
	copy(subscribers, m.subscribers)
	m.mu.Unlock()
	for _, fn := range subscribers {
		fn(event)
	}
}

// blockCount suspends history recording process-wide. Compound operations
// (e.g. a multi-step import) raise it so intermediate states never become
// undo steps; the caller reports one change after unblocking.
var blockCount atomic.Int32

// BlockStateChanges suspends recording. Calls nest.
func BlockStateChanges() {
	blockCount.Add(1)
}

// UnblockStateChanges releases one level of suspension.
func UnblockStateChanges() {
	blockCount.Add(-1)
}

// StateChangesBlocked reports whether recording is currently suspended.
func StateChangesBlocked() bool {
	return blockCount.Load() > 0
}
