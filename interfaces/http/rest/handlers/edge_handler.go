package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ArthurHeitmann/satisfactory-architect-sub001/application/services"
	"github.com/ArthurHeitmann/satisfactory-architect-sub001/domain/core/entities"
	"github.com/ArthurHeitmann/satisfactory-architect-sub001/pkg/common"
	"github.com/ArthurHeitmann/satisfactory-architect-sub001/pkg/utils"
)

// EdgeHandler handles edge-level requests.
type EdgeHandler struct {
	plans  *services.PlanService
	logger *zap.Logger
}

// NewEdgeHandler creates an edge handler.
func NewEdgeHandler(plans *services.PlanService, logger *zap.Logger) *EdgeHandler {
	return &EdgeHandler{plans: plans, logger: logger}
}

// ConnectNodesRequest is the create-edge payload.
type ConnectNodesRequest struct {
	Type        string                 `json:"type" validate:"required,oneof=belt pipe"`
	StartNodeID string                 `json:"startNodeId" validate:"required"`
	EndNodeID   string                 `json:"endNodeId" validate:"required"`
	Properties  map[string]interface{} `json:"properties"`
}

// ConnectNodes handles POST /plans/{planKey}/pages/{pageID}/edges.
func (h *EdgeHandler) ConnectNodes(w http.ResponseWriter, r *http.Request) {
	session, ok := openSession(h.plans, w, r)
	if !ok {
		return
	}

	var req ConnectNodesRequest
	if err := common.ParseJSONBody(r, &req, maxBodyBytes); err != nil {
		common.RespondError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondAppError(w, err)
		return
	}

	edge, err := session.ConnectNodes(chi.URLParam(r, "pageID"), entities.EdgeType(req.Type), req.StartNodeID, req.EndNodeID, req.Properties)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusCreated, edgeResponse(edge))
}

// UpdateEdgePropertiesRequest is the properties-merge payload.
type UpdateEdgePropertiesRequest struct {
	Properties map[string]interface{} `json:"properties" validate:"required"`
}

// UpdateEdgeProperties handles PATCH /plans/{planKey}/pages/{pageID}/edges/{edgeID}/properties.
func (h *EdgeHandler) UpdateEdgeProperties(w http.ResponseWriter, r *http.Request) {
	session, ok := openSession(h.plans, w, r)
	if !ok {
		return
	}

	var req UpdateEdgePropertiesRequest
	if err := common.ParseJSONBody(r, &req, maxBodyBytes); err != nil {
		common.RespondError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondAppError(w, err)
		return
	}

	if err := session.SetEdgeProperties(chi.URLParam(r, "pageID"), chi.URLParam(r, "edgeID"), req.Properties); err != nil {
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// RemoveEdge handles DELETE /plans/{planKey}/pages/{pageID}/edges/{edgeID}.
func (h *EdgeHandler) RemoveEdge(w http.ResponseWriter, r *http.Request) {
	session, ok := openSession(h.plans, w, r)
	if !ok {
		return
	}

	if err := session.RemoveEdge(chi.URLParam(r, "pageID"), chi.URLParam(r, "edgeID")); err != nil {
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}
