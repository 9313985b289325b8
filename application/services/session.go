package services

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ArthurHeitmann/satisfactory-architect-sub001/application/ports"
	"github.com/ArthurHeitmann/satisfactory-architect-sub001/domain/core/aggregates"
	"github.com/ArthurHeitmann/satisfactory-architect-sub001/domain/core/entities"
	"github.com/ArthurHeitmann/satisfactory-architect-sub001/domain/core/valueobjects"
	"github.com/ArthurHeitmann/satisfactory-architect-sub001/domain/events"
	"github.com/ArthurHeitmann/satisfactory-architect-sub001/domain/history"
	"github.com/ArthurHeitmann/satisfactory-architect-sub001/pkg/async"
	pkgerrors "github.com/ArthurHeitmann/satisfactory-architect-sub001/pkg/errors"
)

const saveTimeout = 10 * time.Second

// Session is an open editing session on one plan. All mutations serialize on
// the session mutex; every successful mutation feeds the history manager and
// schedules a debounced save, so rapid edit bursts collapse into one history
// entry and one write.
type Session struct {
	svc     *PlanService
	key     string
	ownerID string
	name    string

	mu      sync.Mutex
	doc     *aggregates.Document
	history *history.Manager
	closed  bool

	save *async.Debouncer
	// pendingSave is written under saveMu only, never under mu, so the
	// save timer can drain it without racing session mutations.
	saveMu      sync.Mutex
	pendingSave *savePayload
}

type savePayload struct {
	data      []byte
	pageCount int
}

func newSaveDebouncer(s *Session, delay time.Duration) *async.Debouncer {
	return async.NewDebouncer(delay, s.flushSave)
}

// Key returns the plan key.
func (s *Session) Key() string { return s.key }

// OwnerID returns the plan owner.
func (s *Session) OwnerID() string { return s.ownerID }

// Name returns the plan's display name.
func (s *Session) Name() string { return s.name }

// Snapshot returns the document's full serialized state.
func (s *Session) Snapshot() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.ToJSON()
}

// Export serializes the document, optionally narrowed to the given pages.
func (s *Session) Export(pageIDs ...string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(pageIDs) == 0 {
		return s.doc.ToJSON()
	}
	return s.doc.ToJSON(aggregates.WithPages(pageIDs...))
}

// ImportPages imports the pages of a serialized document at the given index
// (-1 appends), remapping all ids.
func (s *Session) ImportPages(data []byte, source aggregates.PasteSource, index int) ([]*aggregates.Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pages, err := s.doc.InsertPagesFromJSON(data, source, index)
	if err != nil {
		return nil, err
	}
	s.markChangedLocked()
	return pages, nil
}

// AddPage appends a new empty page and returns it.
func (s *Session) AddPage(name string) (*aggregates.Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	page, err := aggregates.NewPage(s.doc.IDGen().Allocate(), name)
	if err != nil {
		return nil, err
	}
	if err := s.doc.AddPage(page); err != nil {
		return nil, err
	}
	s.markChangedLocked()
	return page, nil
}

// RemovePage removes a page. The document's last page cannot be removed.
func (s *Session) RemovePage(pageID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.doc.RemovePage(pageID); err != nil {
		return err
	}
	s.markChangedLocked()
	return nil
}

// RenamePage sets a page's display name.
func (s *Session) RenamePage(pageID, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.doc.RenamePage(pageID, name); err != nil {
		return err
	}
	s.markChangedLocked()
	return nil
}

// MovePage moves the page at index from to index to.
func (s *Session) MovePage(from, to int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.doc.SwapPages(from, to); err != nil {
		return err
	}
	s.markChangedLocked()
	return nil
}

// SetCurrentPage makes the given page current.
func (s *Session) SetCurrentPage(pageID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.doc.SetCurrentPage(pageID); err != nil {
		return err
	}
	s.markChangedLocked()
	return nil
}

// DuplicatePage clones a page and returns the clone.
func (s *Session) DuplicatePage(pageID string) (*aggregates.Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone, err := s.doc.DuplicatePage(pageID)
	if err != nil {
		return nil, err
	}
	s.markChangedLocked()
	return clone, nil
}

// SetPageView updates a page's view state. View changes are presentation
// only and deliberately do not create history entries.
func (s *Session) SetPageView(pageID string, view valueobjects.ViewState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	page, err := s.doc.Page(pageID)
	if err != nil {
		return err
	}
	page.SetView(view)
	s.scheduleSaveLocked()
	return nil
}

// AddNode creates a node on a page with a freshly allocated id.
func (s *Session) AddNode(pageID string, nodeType entities.NodeType, position valueobjects.Position, properties map[string]interface{}) (*entities.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	page, err := s.doc.Page(pageID)
	if err != nil {
		return nil, err
	}
	node, err := entities.NewNode(s.doc.IDGen().Allocate(), nodeType, position)
	if err != nil {
		return nil, err
	}
	for key, value := range properties {
		node.SetProperty(key, value)
	}
	if err := page.AddNode(node); err != nil {
		return nil, err
	}
	s.markChangedLocked()
	return node, nil
}

// MoveNode moves a node to a new position.
func (s *Session) MoveNode(pageID, nodeID string, position valueobjects.Position) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	page, err := s.doc.Page(pageID)
	if err != nil {
		return err
	}
	node, err := page.Node(nodeID)
	if err != nil {
		return err
	}
	if node.Locked() {
		return pkgerrors.NewConflictError("node is locked")
	}
	node.MoveTo(position)
	s.markChangedLocked()
	return nil
}

// SetNodeProperties merges values into a node's property bag.
func (s *Session) SetNodeProperties(pageID, nodeID string, properties map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	page, err := s.doc.Page(pageID)
	if err != nil {
		return err
	}
	node, err := page.Node(nodeID)
	if err != nil {
		return err
	}
	for key, value := range properties {
		if value == nil {
			node.RemoveProperty(key)
		} else {
			node.SetProperty(key, value)
		}
	}
	s.markChangedLocked()
	return nil
}

// RemoveNode removes a node together with its dependent edges, detaching
// them from the nodes on the far end.
func (s *Session) RemoveNode(pageID, nodeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	page, err := s.doc.Page(pageID)
	if err != nil {
		return err
	}
	node, err := page.Node(nodeID)
	if err != nil {
		return err
	}
	for _, edgeID := range node.EdgeIDs() {
		edge, err := page.Edge(edgeID)
		if err != nil {
			continue
		}
		if err := s.removeEdgeLocked(page, edge); err != nil {
			return err
		}
	}
	if err := page.RemoveNode(nodeID); err != nil {
		return err
	}
	s.markChangedLocked()
	return nil
}

// ConnectNodes creates an edge between two nodes with a freshly allocated
// id, maintaining node adjacency.
func (s *Session) ConnectNodes(pageID string, edgeType entities.EdgeType, startNodeID, endNodeID string, properties map[string]interface{}) (*entities.Edge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	page, err := s.doc.Page(pageID)
	if err != nil {
		return nil, err
	}
	edge, err := entities.NewEdge(s.doc.IDGen().Allocate(), edgeType)
	if err != nil {
		return nil, err
	}
	for key, value := range properties {
		edge.SetProperty(key, value)
	}
	if err := page.AddEdgeBetweenNodes(edge, startNodeID, endNodeID); err != nil {
		return nil, err
	}
	s.markChangedLocked()
	return edge, nil
}

// SetEdgeProperties merges values into an edge's property bag.
func (s *Session) SetEdgeProperties(pageID, edgeID string, properties map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	page, err := s.doc.Page(pageID)
	if err != nil {
		return err
	}
	edge, err := page.Edge(edgeID)
	if err != nil {
		return err
	}
	for key, value := range properties {
		edge.SetProperty(key, value)
	}
	s.markChangedLocked()
	return nil
}

// RemoveEdge removes an edge and detaches it from both endpoint nodes.
func (s *Session) RemoveEdge(pageID, edgeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	page, err := s.doc.Page(pageID)
	if err != nil {
		return err
	}
	edge, err := page.Edge(edgeID)
	if err != nil {
		return err
	}
	if err := s.removeEdgeLocked(page, edge); err != nil {
		return err
	}
	s.markChangedLocked()
	return nil
}

// removeEdgeLocked removes an edge and performs the paired adjacency
// cleanup on its endpoint nodes.
func (s *Session) removeEdgeLocked(page *aggregates.Page, edge *entities.Edge) error {
	if err := page.RemoveEdge(edge.ID()); err != nil {
		return err
	}
	for _, nodeID := range []string{edge.StartNodeID(), edge.EndNodeID()} {
		if node, err := page.Node(nodeID); err == nil {
			node.DetachEdge(edge.ID())
		}
	}
	return nil
}

// Batch runs fn as one compound mutation: history recording and autosave
// are suspended while it runs, and on success the whole batch is reported
// as a single change.
func (s *Session) Batch(fn func(doc *aggregates.Document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	// The block counter must unwind even when fn panics, and must be back
	// to zero before markChangedLocked records the batch as one change.
	err := func() error {
		history.BlockStateChanges()
		defer history.UnblockStateChanges()
		return fn(s.doc)
	}()
	if err != nil {
		return err
	}
	s.markChangedLocked()
	return nil
}

// Undo steps the document back one history entry. Returns the resulting
// history status.
func (s *Session) Undo() (history.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.history.Undo(); err != nil {
		return s.history.Status(), err
	}
	s.scheduleSaveLocked()
	return s.history.Status(), nil
}

// Redo steps the document forward one history entry.
func (s *Session) Redo() (history.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.history.Redo(); err != nil {
		return s.history.Status(), err
	}
	s.scheduleSaveLocked()
	return s.history.Status(), nil
}

// HistoryStatus returns the current undo/redo availability.
func (s *Session) HistoryStatus() history.Event {
	return s.history.Status()
}

// Close flushes the pending save synchronously and cancels every deferred
// action, so nothing fires after the session is gone.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.save.Flush()
	s.save.Cancel()
	s.history.CancelPending()
	return nil
}

// discard drops the session without a final save. Used when the plan is
// being deleted.
func (s *Session) discard() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.save.Cancel()
	s.saveMu.Lock()
	s.pendingSave = nil
	s.saveMu.Unlock()
	s.history.CancelPending()
}

// markChangedLocked reports a document mutation: it feeds the history
// manager and schedules a save. While state changes are blocked, neither
// history nor persistence observes the intermediate state.
func (s *Session) markChangedLocked() {
	if s.closed {
		return
	}
	s.history.OnDataChange()
	if history.StateChangesBlocked() {
		return
	}
	s.scheduleSaveLocked()
}

// scheduleSaveLocked captures the document state now and arms the save
// debouncer. The capture happens under the session lock; the write happens
// later on the timer goroutine.
func (s *Session) scheduleSaveLocked() {
	if s.closed {
		return
	}
	data, err := s.doc.ToJSON()
	if err != nil {
		s.svc.logger.Error("failed to serialize plan for save",
			zap.String("planKey", s.key),
			zap.Error(err))
		return
	}
	s.saveMu.Lock()
	s.pendingSave = &savePayload{data: data, pageCount: s.doc.PageCount()}
	s.saveMu.Unlock()
	s.save.Trigger()
}

// flushSave writes the captured state to the store. Runs on the debounce
// timer goroutine, or synchronously from Close.
func (s *Session) flushSave() {
	s.saveMu.Lock()
	payload := s.pendingSave
	s.pendingSave = nil
	s.saveMu.Unlock()
	if payload == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()

	record := &ports.PlanRecord{
		Key:       s.key,
		OwnerID:   s.ownerID,
		Name:      s.name,
		UpdatedAt: time.Now(),
		Data:      payload.data,
	}
	if err := s.svc.store.Set(ctx, record); err != nil {
		s.svc.logger.Error("failed to save plan",
			zap.String("planKey", s.key),
			zap.Error(err))
		return
	}

	if err := s.svc.bus.Publish(ctx, events.NewPlanSaved(s.key, s.ownerID, payload.pageCount, len(payload.data), time.Now())); err != nil {
		s.svc.logger.Warn("failed to publish plan saved event",
			zap.String("planKey", s.key),
			zap.Error(err))
	}
	s.svc.metrics.RecordBytes(ctx, "PlanSize", len(payload.data), map[string]string{"Owner": s.ownerID})
	s.svc.logger.Debug("plan saved",
		zap.String("planKey", s.key),
		zap.Int("bytes", len(payload.data)))
}
