package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ArthurHeitmann/satisfactory-architect-sub001/application/ports"
	"github.com/ArthurHeitmann/satisfactory-architect-sub001/domain/core/aggregates"
	"github.com/ArthurHeitmann/satisfactory-architect-sub001/domain/core/entities"
	"github.com/ArthurHeitmann/satisfactory-architect-sub001/domain/core/valueobjects"
	"github.com/ArthurHeitmann/satisfactory-architect-sub001/domain/history"
	"github.com/ArthurHeitmann/satisfactory-architect-sub001/infrastructure/persistence/memory"
	pkgerrors "github.com/ArthurHeitmann/satisfactory-architect-sub001/pkg/errors"
	"github.com/ArthurHeitmann/satisfactory-architect-sub001/pkg/observability"
)

const testOwner = "owner-1"

func newTestService() (*PlanService, *memory.Store) {
	store := memory.NewStore()
	svc := NewPlanService(
		store,
		&ports.NoopEventBus{},
		observability.NewMetrics(nil, "Test", zap.NewNop()),
		zap.NewNop(),
		20*time.Millisecond, // autosave delay
		10*time.Millisecond, // history push delay
	)
	return svc, store
}

// currentPage returns the session document's current page id.
func currentPage(t *testing.T, session *Session) string {
	t.Helper()
	data, err := session.Snapshot()
	require.NoError(t, err)
	doc, err := aggregates.FromJSON(data)
	require.NoError(t, err)
	return doc.CurrentPageID()
}

// snapshotDoc reconstructs the session's document from its snapshot.
func snapshotDoc(t *testing.T, session *Session) *aggregates.Document {
	t.Helper()
	data, err := session.Snapshot()
	require.NoError(t, err)
	doc, err := aggregates.FromJSON(data)
	require.NoError(t, err)
	return doc
}

func TestCreatePlanPersistsAndOpensSession(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	session, err := svc.CreatePlan(ctx, testOwner, "My factory")
	require.NoError(t, err)
	assert.Equal(t, "My factory", session.Name())

	record, err := store.Get(ctx, testOwner, session.Key())
	require.NoError(t, err)
	doc, err := aggregates.FromJSON(record.Data)
	require.NoError(t, err)
	assert.Equal(t, 1, doc.PageCount())

	// The session is registered; a second open returns the same one.
	again, err := svc.OpenPlan(ctx, testOwner, session.Key())
	require.NoError(t, err)
	assert.Same(t, session, again)
}

func TestCreatePlanDefaultsName(t *testing.T) {
	svc, _ := newTestService()
	session, err := svc.CreatePlan(context.Background(), testOwner, "")
	require.NoError(t, err)
	assert.Equal(t, "Untitled plan", session.Name())
}

func TestOpenPlanNotFound(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.OpenPlan(context.Background(), testOwner, "missing")
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestSessionGraphEditing(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	session, err := svc.CreatePlan(ctx, testOwner, "Plan")
	require.NoError(t, err)
	pageID := currentPage(t, session)

	n1, err := session.AddNode(pageID, entities.NodeTypeMachine, valueobjects.NewPosition(0, 0), nil)
	require.NoError(t, err)
	n2, err := session.AddNode(pageID, entities.NodeTypeSplitter, valueobjects.NewPosition(100, 0), map[string]interface{}{"label": "out"})
	require.NoError(t, err)

	edge, err := session.ConnectNodes(pageID, entities.EdgeTypeBelt, n1.ID(), n2.ID(), nil)
	require.NoError(t, err)

	doc := snapshotDoc(t, session)
	page, err := doc.Page(pageID)
	require.NoError(t, err)
	assert.Equal(t, 2, page.NodeCount())
	assert.Equal(t, 1, page.EdgeCount())
	assert.NoError(t, page.Validate())
	assert.True(t, page.HasEdge(edge.ID()))
}

func TestSessionRemoveNodeCascadesEdges(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	session, err := svc.CreatePlan(ctx, testOwner, "Plan")
	require.NoError(t, err)
	pageID := currentPage(t, session)

	n1, err := session.AddNode(pageID, entities.NodeTypeMachine, valueobjects.NewPosition(0, 0), nil)
	require.NoError(t, err)
	n2, err := session.AddNode(pageID, entities.NodeTypeMerger, valueobjects.NewPosition(50, 50), nil)
	require.NoError(t, err)
	edge, err := session.ConnectNodes(pageID, entities.EdgeTypeBelt, n1.ID(), n2.ID(), nil)
	require.NoError(t, err)

	require.NoError(t, session.RemoveNode(pageID, n1.ID()))

	doc := snapshotDoc(t, session)
	page, err := doc.Page(pageID)
	require.NoError(t, err)
	assert.False(t, page.HasNode(n1.ID()))
	assert.False(t, page.HasEdge(edge.ID()))

	// The surviving node's adjacency was cleaned up too.
	survivor, err := page.Node(n2.ID())
	require.NoError(t, err)
	assert.Equal(t, 0, survivor.EdgeCount())
	assert.NoError(t, page.Validate())
}

func TestSessionMoveLockedNodeFails(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	session, err := svc.CreatePlan(ctx, testOwner, "Plan")
	require.NoError(t, err)
	pageID := currentPage(t, session)

	node, err := session.AddNode(pageID, entities.NodeTypeMachine, valueobjects.NewPosition(0, 0),
		map[string]interface{}{entities.PropertyLocked: true})
	require.NoError(t, err)

	err = session.MoveNode(pageID, node.ID(), valueobjects.NewPosition(10, 10))
	assert.True(t, pkgerrors.IsConflict(err))
}

func TestSessionUndoRestoresDocument(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	session, err := svc.CreatePlan(ctx, testOwner, "Plan")
	require.NoError(t, err)

	_, err = session.AddPage("Second")
	require.NoError(t, err)
	time.Sleep(40 * time.Millisecond) // let the history debounce commit
	assert.Equal(t, 2, snapshotDoc(t, session).PageCount())

	status, err := session.Undo()
	require.NoError(t, err)
	assert.True(t, status.CanRedo)
	assert.Equal(t, 1, snapshotDoc(t, session).PageCount())

	status, err = session.Redo()
	require.NoError(t, err)
	assert.False(t, status.CanRedo)
	assert.Equal(t, 2, snapshotDoc(t, session).PageCount())
}

func TestSessionBatchIsOneHistoryEntry(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	session, err := svc.CreatePlan(ctx, testOwner, "Plan")
	require.NoError(t, err)

	err = session.Batch(func(doc *aggregates.Document) error {
		for _, name := range []string{"A", "B", "C"} {
			page, err := aggregates.NewPage(doc.IDGen().Allocate(), name)
			if err != nil {
				return err
			}
			if err := doc.AddPage(page); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)
	time.Sleep(40 * time.Millisecond)

	assert.Equal(t, 4, snapshotDoc(t, session).PageCount())

	// One undo reverts the whole batch.
	_, err = session.Undo()
	require.NoError(t, err)
	assert.Equal(t, 1, snapshotDoc(t, session).PageCount())
}

func TestSessionBatchUnblocksOnPanic(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	session, err := svc.CreatePlan(ctx, testOwner, "Plan")
	require.NoError(t, err)

	func() {
		defer func() {
			require.NotNil(t, recover())
		}()
		session.Batch(func(doc *aggregates.Document) error {
			panic("mid-batch failure")
		})
	}()

	// The recording suspension unwound with the panic; later edits are
	// recorded normally.
	assert.False(t, history.StateChangesBlocked())

	_, err = session.AddPage("Second")
	require.NoError(t, err)
	time.Sleep(40 * time.Millisecond)
	assert.True(t, session.HistoryStatus().CanUndo)
}

func TestSessionAutosaveWritesToStore(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()
	session, err := svc.CreatePlan(ctx, testOwner, "Plan")
	require.NoError(t, err)

	_, err = session.AddPage("Second")
	require.NoError(t, err)
	time.Sleep(80 * time.Millisecond) // wait out the autosave debounce

	record, err := store.Get(ctx, testOwner, session.Key())
	require.NoError(t, err)
	doc, err := aggregates.FromJSON(record.Data)
	require.NoError(t, err)
	assert.Equal(t, 2, doc.PageCount())
}

func TestClosePlanFlushesFinalSave(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()
	session, err := svc.CreatePlan(ctx, testOwner, "Plan")
	require.NoError(t, err)

	_, err = session.AddPage("Second")
	require.NoError(t, err)

	// Close before the autosave debounce elapses; the write must land anyway.
	require.NoError(t, svc.ClosePlan(ctx, testOwner, session.Key()))

	record, err := store.Get(ctx, testOwner, session.Key())
	require.NoError(t, err)
	doc, err := aggregates.FromJSON(record.Data)
	require.NoError(t, err)
	assert.Equal(t, 2, doc.PageCount())

	// The session is gone; opening again loads the saved state.
	_, err = svc.Session(testOwner, session.Key())
	assert.True(t, pkgerrors.IsNotFound(err))
	reopened, err := svc.OpenPlan(ctx, testOwner, session.Key())
	require.NoError(t, err)
	assert.NotSame(t, session, reopened)
	assert.Equal(t, 2, snapshotDoc(t, reopened).PageCount())
}

func TestDeletePlanDiscardsSession(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()
	session, err := svc.CreatePlan(ctx, testOwner, "Plan")
	require.NoError(t, err)

	_, err = session.AddPage("Second")
	require.NoError(t, err)

	require.NoError(t, svc.DeletePlan(ctx, testOwner, session.Key()))

	_, err = store.Get(ctx, testOwner, session.Key())
	assert.True(t, pkgerrors.IsNotFound(err))

	// No deferred save resurrects the plan.
	time.Sleep(80 * time.Millisecond)
	_, err = store.Get(ctx, testOwner, session.Key())
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestListPlans(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	first, err := svc.CreatePlan(ctx, testOwner, "First")
	require.NoError(t, err)
	_, err = svc.CreatePlan(ctx, testOwner, "Second")
	require.NoError(t, err)
	_, err = svc.CreatePlan(ctx, "someone-else", "Other")
	require.NoError(t, err)

	records, err := svc.ListPlans(ctx, testOwner)
	require.NoError(t, err)
	require.Len(t, records, 2)
	keys := []string{records[0].Key, records[1].Key}
	assert.Contains(t, keys, first.Key())
}

func TestSessionExportAndImport(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	source, err := svc.CreatePlan(ctx, testOwner, "Source")
	require.NoError(t, err)
	srcPage := currentPage(t, source)
	_, err = source.AddNode(srcPage, entities.NodeTypeResource, valueobjects.NewPosition(5, 5), nil)
	require.NoError(t, err)
	payload, err := source.Export(srcPage)
	require.NoError(t, err)

	target, err := svc.CreatePlan(ctx, testOwner, "Target")
	require.NoError(t, err)
	pages, err := target.ImportPages(payload, aggregates.PasteSourceExternal, -1)
	require.NoError(t, err)
	require.Len(t, pages, 1)

	doc := snapshotDoc(t, target)
	assert.Equal(t, 2, doc.PageCount())
	imported, err := doc.Page(pages[0].ID())
	require.NoError(t, err)
	assert.Equal(t, 1, imported.NodeCount())
	assert.NoError(t, imported.Validate())
}

func TestSessionPageManagement(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	session, err := svc.CreatePlan(ctx, testOwner, "Plan")
	require.NoError(t, err)
	first := currentPage(t, session)

	second, err := session.AddPage("Second")
	require.NoError(t, err)

	require.NoError(t, session.RenamePage(second.ID(), "Renamed"))
	require.NoError(t, session.SetCurrentPage(second.ID()))
	require.NoError(t, session.MovePage(1, 0))

	doc := snapshotDoc(t, session)
	assert.Equal(t, second.ID(), doc.Pages()[0].ID())
	assert.Equal(t, "Renamed", doc.Pages()[0].Name())
	assert.Equal(t, second.ID(), doc.CurrentPageID())

	clone, err := session.DuplicatePage(second.ID())
	require.NoError(t, err)
	assert.Equal(t, "Renamed copy", clone.Name())

	require.NoError(t, session.RemovePage(first))
	assert.Equal(t, 2, snapshotDoc(t, session).PageCount())
}

func TestShutdownClosesAllSessions(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	session, err := svc.CreatePlan(ctx, testOwner, "Plan")
	require.NoError(t, err)
	_, err = session.AddPage("Second")
	require.NoError(t, err)

	svc.Shutdown(ctx)

	record, err := store.Get(ctx, testOwner, session.Key())
	require.NoError(t, err)
	doc, err := aggregates.FromJSON(record.Data)
	require.NoError(t, err)
	assert.Equal(t, 2, doc.PageCount())

	_, err = svc.Session(testOwner, session.Key())
	assert.True(t, pkgerrors.IsNotFound(err))
}
