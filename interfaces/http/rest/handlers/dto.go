// Package handlers contains the REST handlers of the plan API.
package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ArthurHeitmann/satisfactory-architect-sub001/application/ports"
	"github.com/ArthurHeitmann/satisfactory-architect-sub001/application/services"
	"github.com/ArthurHeitmann/satisfactory-architect-sub001/domain/core/aggregates"
	"github.com/ArthurHeitmann/satisfactory-architect-sub001/domain/core/entities"
	"github.com/ArthurHeitmann/satisfactory-architect-sub001/domain/core/valueobjects"
	"github.com/ArthurHeitmann/satisfactory-architect-sub001/domain/history"
	"github.com/ArthurHeitmann/satisfactory-architect-sub001/pkg/auth"
	"github.com/ArthurHeitmann/satisfactory-architect-sub001/pkg/common"
	pkgerrors "github.com/ArthurHeitmann/satisfactory-architect-sub001/pkg/errors"
)

const maxBodyBytes = 10 << 20 // plan documents can get large

// PlanSummaryResponse is a plan listing entry.
type PlanSummaryResponse struct {
	Key       string    `json:"key"`
	Name      string    `json:"name"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func planSummaryResponse(record *ports.PlanRecord) PlanSummaryResponse {
	return PlanSummaryResponse{
		Key:       record.Key,
		Name:      record.Name,
		UpdatedAt: record.UpdatedAt,
	}
}

// PageResponse describes a page without its full graph.
type PageResponse struct {
	ID        string                 `json:"id"`
	Name      string                 `json:"name"`
	View      valueobjects.ViewState `json:"view"`
	NodeCount int                    `json:"nodeCount"`
	EdgeCount int                    `json:"edgeCount"`
}

func pageResponse(page *aggregates.Page) PageResponse {
	return PageResponse{
		ID:        page.ID(),
		Name:      page.Name(),
		View:      page.View(),
		NodeCount: page.NodeCount(),
		EdgeCount: page.EdgeCount(),
	}
}

// NodeResponse is the wire shape of a node.
type NodeResponse struct {
	ID         string                 `json:"id"`
	Type       string                 `json:"type"`
	Position   valueobjects.Position  `json:"position"`
	Edges      []string               `json:"edges"`
	Properties map[string]interface{} `json:"properties"`
}

func nodeResponse(node *entities.Node) NodeResponse {
	return NodeResponse{
		ID:         node.ID(),
		Type:       string(node.Type()),
		Position:   node.Position(),
		Edges:      node.EdgeIDs(),
		Properties: node.Properties(),
	}
}

// EdgeResponse is the wire shape of an edge.
type EdgeResponse struct {
	ID          string                 `json:"id"`
	Type        string                 `json:"type"`
	StartNodeID string                 `json:"startNodeId"`
	EndNodeID   string                 `json:"endNodeId"`
	Properties  map[string]interface{} `json:"properties"`
}

func edgeResponse(edge *entities.Edge) EdgeResponse {
	return EdgeResponse{
		ID:          edge.ID(),
		Type:        string(edge.Type()),
		StartNodeID: edge.StartNodeID(),
		EndNodeID:   edge.EndNodeID(),
		Properties:  edge.Properties(),
	}
}

// HistoryResponse describes undo/redo availability.
type HistoryResponse struct {
	CanUndo bool `json:"canUndo"`
	CanRedo bool `json:"canRedo"`
	Cursor  int  `json:"cursor"`
	Size    int  `json:"size"`
}

func historyResponse(event history.Event) HistoryResponse {
	return HistoryResponse{
		CanUndo: event.CanUndo,
		CanRedo: event.CanRedo,
		Cursor:  event.Cursor,
		Size:    event.Size,
	}
}

// userID extracts the authenticated user, which the auth middleware
// guarantees to be present on API routes.
func userID(r *http.Request) (string, error) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		return "", err
	}
	return user.UserID, nil
}

// openSession resolves the request's plan session from the {planKey} URL
// parameter, loading the plan from the store if it is not open yet. On
// failure it writes the error response and returns false.
func openSession(plans *services.PlanService, w http.ResponseWriter, r *http.Request) (*services.Session, bool) {
	owner, err := userID(r)
	if err != nil {
		common.RespondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
		return nil, false
	}
	planKey := chi.URLParam(r, "planKey")
	if planKey == "" {
		common.RespondAppError(w, pkgerrors.NewValidationError("plan key is required"))
		return nil, false
	}
	session, err := plans.OpenPlan(r.Context(), owner, planKey)
	if err != nil {
		common.RespondAppError(w, err)
		return nil, false
	}
	return session, true
}
