package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ArthurHeitmann/satisfactory-architect-sub001/application/services"
	"github.com/ArthurHeitmann/satisfactory-architect-sub001/domain/core/entities"
	"github.com/ArthurHeitmann/satisfactory-architect-sub001/domain/core/valueobjects"
	"github.com/ArthurHeitmann/satisfactory-architect-sub001/pkg/common"
	"github.com/ArthurHeitmann/satisfactory-architect-sub001/pkg/utils"
)

// NodeHandler handles node-level requests.
type NodeHandler struct {
	plans  *services.PlanService
	logger *zap.Logger
}

// NewNodeHandler creates a node handler.
func NewNodeHandler(plans *services.PlanService, logger *zap.Logger) *NodeHandler {
	return &NodeHandler{plans: plans, logger: logger}
}

// AddNodeRequest is the add-node payload.
type AddNodeRequest struct {
	Type       string                 `json:"type" validate:"required,oneof=machine splitter merger resource text"`
	Position   valueobjects.Position  `json:"position"`
	Properties map[string]interface{} `json:"properties"`
}

// AddNode handles POST /plans/{planKey}/pages/{pageID}/nodes.
func (h *NodeHandler) AddNode(w http.ResponseWriter, r *http.Request) {
	session, ok := openSession(h.plans, w, r)
	if !ok {
		return
	}

	var req AddNodeRequest
	if err := common.ParseJSONBody(r, &req, maxBodyBytes); err != nil {
		common.RespondError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondAppError(w, err)
		return
	}

	node, err := session.AddNode(chi.URLParam(r, "pageID"), entities.NodeType(req.Type), req.Position, req.Properties)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusCreated, nodeResponse(node))
}

// MoveNodeRequest is the move payload.
type MoveNodeRequest struct {
	Position valueobjects.Position `json:"position"`
}

// MoveNode handles PUT /plans/{planKey}/pages/{pageID}/nodes/{nodeID}/position.
func (h *NodeHandler) MoveNode(w http.ResponseWriter, r *http.Request) {
	session, ok := openSession(h.plans, w, r)
	if !ok {
		return
	}

	var req MoveNodeRequest
	if err := common.ParseJSONBody(r, &req, maxBodyBytes); err != nil {
		common.RespondError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		return
	}

	if err := session.MoveNode(chi.URLParam(r, "pageID"), chi.URLParam(r, "nodeID"), req.Position); err != nil {
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// UpdateNodePropertiesRequest is the properties-merge payload. Null values
// delete the key.
type UpdateNodePropertiesRequest struct {
	Properties map[string]interface{} `json:"properties" validate:"required"`
}

// UpdateNodeProperties handles PATCH /plans/{planKey}/pages/{pageID}/nodes/{nodeID}/properties.
func (h *NodeHandler) UpdateNodeProperties(w http.ResponseWriter, r *http.Request) {
	session, ok := openSession(h.plans, w, r)
	if !ok {
		return
	}

	var req UpdateNodePropertiesRequest
	if err := common.ParseJSONBody(r, &req, maxBodyBytes); err != nil {
		common.RespondError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondAppError(w, err)
		return
	}

	if err := session.SetNodeProperties(chi.URLParam(r, "pageID"), chi.URLParam(r, "nodeID"), req.Properties); err != nil {
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// RemoveNode handles DELETE /plans/{planKey}/pages/{pageID}/nodes/{nodeID}.
// Dependent edges are removed along with the node.
func (h *NodeHandler) RemoveNode(w http.ResponseWriter, r *http.Request) {
	session, ok := openSession(h.plans, w, r)
	if !ok {
		return
	}

	if err := session.RemoveNode(chi.URLParam(r, "pageID"), chi.URLParam(r, "nodeID")); err != nil {
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}
