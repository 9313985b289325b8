// Package integration exercises the full HTTP stack against the in-memory
// store, the way a local development deployment runs.
package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ArthurHeitmann/satisfactory-architect-sub001/application/ports"
	"github.com/ArthurHeitmann/satisfactory-architect-sub001/application/services"
	"github.com/ArthurHeitmann/satisfactory-architect-sub001/infrastructure/config"
	"github.com/ArthurHeitmann/satisfactory-architect-sub001/infrastructure/persistence/memory"
	"github.com/ArthurHeitmann/satisfactory-architect-sub001/interfaces/http/rest"
	"github.com/ArthurHeitmann/satisfactory-architect-sub001/pkg/observability"
)

const historyDelay = 20 * time.Millisecond

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type testAPI struct {
	t      *testing.T
	server *httptest.Server
	client *http.Client
	user   string
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	logger := zap.NewNop()
	store := memory.NewStore()
	plans := services.NewPlanService(
		store,
		&ports.NoopEventBus{},
		observability.NewMetrics(nil, "Test", logger),
		logger,
		20*time.Millisecond,
		historyDelay,
	)
	cfg := &config.Config{
		Environment:    "development",
		UseMemoryStore: true,
	}
	server := httptest.NewServer(rest.NewRouter(plans, cfg, logger).Setup())
	t.Cleanup(server.Close)
	return &testAPI{
		t:      t,
		server: server,
		client: server.Client(),
		user:   "test-user",
	}
}

// do issues a request with the development identity header and decodes the
// response envelope.
func (a *testAPI) do(method, path string, body interface{}) (int, envelope) {
	a.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, a.server.URL+path, reader)
	require.NoError(a.t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", a.user)

	resp, err := a.client.Do(req)
	require.NoError(a.t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(a.t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func (a *testAPI) decode(env envelope, v interface{}) {
	a.t.Helper()
	require.NoError(a.t, json.Unmarshal(env.Data, v))
}

// createPlan creates a plan and returns its key and first page id.
func (a *testAPI) createPlan(name string) (planKey, pageID string) {
	a.t.Helper()
	status, env := a.do(http.MethodPost, "/api/v1/plans", map[string]string{"name": name})
	require.Equal(a.t, http.StatusCreated, status)
	var created struct {
		Key string `json:"key"`
	}
	a.decode(env, &created)

	status, env = a.do(http.MethodGet, "/api/v1/plans/"+created.Key, nil)
	require.Equal(a.t, http.StatusOK, status)
	var doc struct {
		CurrentPageID string `json:"currentPageId"`
	}
	a.decode(env, &doc)
	return created.Key, doc.CurrentPageID
}

func TestHealthEndpoints(t *testing.T) {
	api := newTestAPI(t)

	resp, err := api.client.Get(api.server.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = api.client.Get(api.server.URL + "/ready")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestPlanLifecycle(t *testing.T) {
	api := newTestAPI(t)

	planKey, _ := api.createPlan("Integration plan")

	status, env := api.do(http.MethodGet, "/api/v1/plans", nil)
	require.Equal(t, http.StatusOK, status)
	var plans []struct {
		Key  string `json:"key"`
		Name string `json:"name"`
	}
	api.decode(env, &plans)
	require.Len(t, plans, 1)
	assert.Equal(t, planKey, plans[0].Key)
	assert.Equal(t, "Integration plan", plans[0].Name)

	status, _ = api.do(http.MethodPost, "/api/v1/plans/"+planKey+"/close", nil)
	assert.Equal(t, http.StatusOK, status)

	status, _ = api.do(http.MethodDelete, "/api/v1/plans/"+planKey, nil)
	assert.Equal(t, http.StatusOK, status)

	status, env = api.do(http.MethodGet, "/api/v1/plans/"+planKey, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.False(t, env.Success)
	require.NotNil(t, env.Error)
}

func TestGraphEditingFlow(t *testing.T) {
	api := newTestAPI(t)
	planKey, pageID := api.createPlan("Factory plan")
	pagesBase := fmt.Sprintf("/api/v1/plans/%s/pages/%s", planKey, pageID)

	var n1, n2 struct {
		ID string `json:"id"`
	}
	status, env := api.do(http.MethodPost, pagesBase+"/nodes", map[string]interface{}{
		"type":     "machine",
		"position": map[string]float64{"x": 100, "y": 200},
		"properties": map[string]interface{}{
			"recipe": "iron-plate",
		},
	})
	require.Equal(t, http.StatusCreated, status)
	api.decode(env, &n1)

	status, env = api.do(http.MethodPost, pagesBase+"/nodes", map[string]interface{}{
		"type":     "splitter",
		"position": map[string]float64{"x": 300, "y": 200},
	})
	require.Equal(t, http.StatusCreated, status)
	api.decode(env, &n2)

	status, env = api.do(http.MethodPost, pagesBase+"/edges", map[string]interface{}{
		"type":        "belt",
		"startNodeId": n1.ID,
		"endNodeId":   n2.ID,
	})
	require.Equal(t, http.StatusCreated, status)
	var edge struct {
		ID          string `json:"id"`
		StartNodeID string `json:"startNodeId"`
		EndNodeID   string `json:"endNodeId"`
	}
	api.decode(env, &edge)
	assert.Equal(t, n1.ID, edge.StartNodeID)
	assert.Equal(t, n2.ID, edge.EndNodeID)

	// Invalid node type is rejected by request validation.
	status, env = api.do(http.MethodPost, pagesBase+"/nodes", map[string]interface{}{
		"type": "conveyor",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.False(t, env.Success)

	// Removing a node cascades to its edges.
	status, _ = api.do(http.MethodDelete, pagesBase+"/nodes/"+n1.ID, nil)
	require.Equal(t, http.StatusOK, status)

	status, env = api.do(http.MethodGet, "/api/v1/plans/"+planKey, nil)
	require.Equal(t, http.StatusOK, status)
	var doc struct {
		Pages []struct {
			ID    string                     `json:"id"`
			Nodes map[string]json.RawMessage `json:"nodes"`
			Edges map[string]json.RawMessage `json:"edges"`
		} `json:"pages"`
	}
	api.decode(env, &doc)
	require.Len(t, doc.Pages, 1)
	assert.NotContains(t, doc.Pages[0].Nodes, n1.ID)
	assert.NotContains(t, doc.Pages[0].Edges, edge.ID)
	assert.Contains(t, doc.Pages[0].Nodes, n2.ID)
}

func TestUndoRedoOverHTTP(t *testing.T) {
	api := newTestAPI(t)
	planKey, _ := api.createPlan("Undo plan")
	base := "/api/v1/plans/" + planKey

	status, env := api.do(http.MethodPost, base+"/pages", map[string]string{"name": "Second"})
	require.Equal(t, http.StatusCreated, status)
	time.Sleep(3 * historyDelay) // let the history debounce commit

	status, env = api.do(http.MethodGet, base+"/history", nil)
	require.Equal(t, http.StatusOK, status)
	var hist struct {
		CanUndo bool `json:"canUndo"`
		CanRedo bool `json:"canRedo"`
		Size    int  `json:"size"`
	}
	api.decode(env, &hist)
	assert.True(t, hist.CanUndo)
	assert.False(t, hist.CanRedo)
	assert.Equal(t, 2, hist.Size)

	status, env = api.do(http.MethodPost, base+"/undo", nil)
	require.Equal(t, http.StatusOK, status)
	api.decode(env, &hist)
	assert.False(t, hist.CanUndo)
	assert.True(t, hist.CanRedo)

	status, env = api.do(http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, status)
	var doc struct {
		Pages []json.RawMessage `json:"pages"`
	}
	api.decode(env, &doc)
	assert.Len(t, doc.Pages, 1)

	status, env = api.do(http.MethodPost, base+"/redo", nil)
	require.Equal(t, http.StatusOK, status)
	api.decode(env, &hist)
	assert.False(t, hist.CanRedo)

	status, env = api.do(http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, status)
	api.decode(env, &doc)
	assert.Len(t, doc.Pages, 2)
}

func TestPageOperationsOverHTTP(t *testing.T) {
	api := newTestAPI(t)
	planKey, pageID := api.createPlan("Pages plan")
	base := "/api/v1/plans/" + planKey

	status, env := api.do(http.MethodPost, base+"/pages", map[string]string{"name": "Second"})
	require.Equal(t, http.StatusCreated, status)
	var second struct {
		ID string `json:"id"`
	}
	api.decode(env, &second)

	status, _ = api.do(http.MethodPut, base+"/pages/"+second.ID+"/name", map[string]string{"name": "Renamed"})
	require.Equal(t, http.StatusOK, status)

	status, _ = api.do(http.MethodPut, base+"/pages/current", map[string]string{"pageId": second.ID})
	require.Equal(t, http.StatusOK, status)

	status, _ = api.do(http.MethodPost, base+"/pages/move", map[string]int{"from": 1, "to": 0})
	require.Equal(t, http.StatusOK, status)

	status, env = api.do(http.MethodPost, base+"/pages/"+second.ID+"/duplicate", nil)
	require.Equal(t, http.StatusCreated, status)
	var clone struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	api.decode(env, &clone)
	assert.Equal(t, "Renamed copy", clone.Name)

	status, _ = api.do(http.MethodDelete, base+"/pages/"+pageID, nil)
	require.Equal(t, http.StatusOK, status)

	status, env = api.do(http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, status)
	var doc struct {
		CurrentPageID string `json:"currentPageId"`
		Pages         []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"pages"`
	}
	api.decode(env, &doc)
	require.Len(t, doc.Pages, 2)
	assert.Equal(t, second.ID, doc.Pages[0].ID)
	assert.Equal(t, "Renamed", doc.Pages[0].Name)
	assert.Equal(t, second.ID, doc.CurrentPageID)

	// The last page cannot be removed.
	status, _ = api.do(http.MethodDelete, base+"/pages/"+second.ID, nil)
	require.Equal(t, http.StatusOK, status)
	status, env = api.do(http.MethodDelete, base+"/pages/"+clone.ID, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.False(t, env.Success)
}

func TestExportImportOverHTTP(t *testing.T) {
	api := newTestAPI(t)
	srcKey, srcPage := api.createPlan("Source")
	dstKey, _ := api.createPlan("Destination")

	status, _ := api.do(http.MethodPost,
		fmt.Sprintf("/api/v1/plans/%s/pages/%s/nodes", srcKey, srcPage),
		map[string]interface{}{
			"type":     "resource",
			"position": map[string]float64{"x": 0, "y": 0},
		})
	require.Equal(t, http.StatusCreated, status)

	status, env := api.do(http.MethodGet, "/api/v1/plans/"+srcKey+"/export?pages="+srcPage, nil)
	require.Equal(t, http.StatusOK, status)
	exported := env.Data

	status, env = api.do(http.MethodPost, "/api/v1/plans/"+dstKey+"/import", map[string]interface{}{
		"document": json.RawMessage(exported),
		"source":   "external",
	})
	require.Equal(t, http.StatusCreated, status)
	var pages []struct {
		ID        string `json:"id"`
		NodeCount int    `json:"nodeCount"`
	}
	api.decode(env, &pages)
	require.Len(t, pages, 1)
	assert.Equal(t, 1, pages[0].NodeCount)

	// Garbage payloads are rejected with an unprocessable-format error.
	status, env = api.do(http.MethodPost, "/api/v1/plans/"+dstKey+"/import", map[string]interface{}{
		"document": map[string]interface{}{"version": 1, "type": "factory-plan"},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.False(t, env.Success)
}

func TestUsersAreIsolated(t *testing.T) {
	api := newTestAPI(t)
	planKey, _ := api.createPlan("Private plan")

	api.user = "someone-else"
	status, env := api.do(http.MethodGet, "/api/v1/plans/"+planKey, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.False(t, env.Success)

	status, env = api.do(http.MethodGet, "/api/v1/plans", nil)
	require.Equal(t, http.StatusOK, status)
	var plans []json.RawMessage
	api.decode(env, &plans)
	assert.Empty(t, plans)
}
