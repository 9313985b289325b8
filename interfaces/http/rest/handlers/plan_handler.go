package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ArthurHeitmann/satisfactory-architect-sub001/application/services"
	"github.com/ArthurHeitmann/satisfactory-architect-sub001/domain/core/aggregates"
	"github.com/ArthurHeitmann/satisfactory-architect-sub001/pkg/common"
	"github.com/ArthurHeitmann/satisfactory-architect-sub001/pkg/utils"
)

// PlanHandler handles plan lifecycle requests.
type PlanHandler struct {
	plans  *services.PlanService
	logger *zap.Logger
}

// NewPlanHandler creates a plan handler.
func NewPlanHandler(plans *services.PlanService, logger *zap.Logger) *PlanHandler {
	return &PlanHandler{plans: plans, logger: logger}
}

// CreatePlanRequest is the create-plan payload.
type CreatePlanRequest struct {
	Name string `json:"name" validate:"max=200"`
}

// CreatePlan handles POST /plans.
func (h *PlanHandler) CreatePlan(w http.ResponseWriter, r *http.Request) {
	owner, err := userID(r)
	if err != nil {
		common.RespondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
		return
	}

	var req CreatePlanRequest
	if err := common.ParseJSONBody(r, &req, maxBodyBytes); err != nil {
		common.RespondError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondAppError(w, err)
		return
	}

	session, err := h.plans.CreatePlan(r.Context(), owner, req.Name)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusCreated, map[string]string{
		"key":  session.Key(),
		"name": session.Name(),
	})
}

// ListPlans handles GET /plans.
func (h *PlanHandler) ListPlans(w http.ResponseWriter, r *http.Request) {
	owner, err := userID(r)
	if err != nil {
		common.RespondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
		return
	}

	records, err := h.plans.ListPlans(r.Context(), owner)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	summaries := make([]PlanSummaryResponse, 0, len(records))
	for _, record := range records {
		summaries = append(summaries, planSummaryResponse(record))
	}
	common.RespondJSON(w, http.StatusOK, summaries)
}

// GetPlan handles GET /plans/{planKey}, returning the full document.
func (h *PlanHandler) GetPlan(w http.ResponseWriter, r *http.Request) {
	session, ok := openSession(h.plans, w, r)
	if !ok {
		return
	}

	snapshot, err := session.Snapshot()
	if err != nil {
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, json.RawMessage(snapshot))
}

// DeletePlan handles DELETE /plans/{planKey}.
func (h *PlanHandler) DeletePlan(w http.ResponseWriter, r *http.Request) {
	owner, err := userID(r)
	if err != nil {
		common.RespondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
		return
	}

	if err := h.plans.DeletePlan(r.Context(), owner, chi.URLParam(r, "planKey")); err != nil {
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// ClosePlan handles POST /plans/{planKey}/close, flushing pending saves.
func (h *PlanHandler) ClosePlan(w http.ResponseWriter, r *http.Request) {
	owner, err := userID(r)
	if err != nil {
		common.RespondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
		return
	}

	if err := h.plans.ClosePlan(r.Context(), owner, chi.URLParam(r, "planKey")); err != nil {
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, map[string]string{"status": "closed"})
}

// ExportPlan handles GET /plans/{planKey}/export. An optional "pages" query
// parameter narrows the export to a comma-separated list of page ids.
func (h *PlanHandler) ExportPlan(w http.ResponseWriter, r *http.Request) {
	session, ok := openSession(h.plans, w, r)
	if !ok {
		return
	}

	var pageIDs []string
	if pages := r.URL.Query().Get("pages"); pages != "" {
		pageIDs = strings.Split(pages, ",")
	}

	data, err := session.Export(pageIDs...)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, json.RawMessage(data))
}

// ImportPagesRequest is the import payload: a full serialized document plus
// placement hints.
type ImportPagesRequest struct {
	Document json.RawMessage `json:"document" validate:"required"`
	Source   string          `json:"source" validate:"omitempty,oneof=internal external duplicate"`
	Index    *int            `json:"index"`
}

// ImportPages handles POST /plans/{planKey}/import.
func (h *PlanHandler) ImportPages(w http.ResponseWriter, r *http.Request) {
	session, ok := openSession(h.plans, w, r)
	if !ok {
		return
	}

	var req ImportPagesRequest
	if err := common.ParseJSONBody(r, &req, maxBodyBytes); err != nil {
		common.RespondError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondAppError(w, err)
		return
	}

	source := aggregates.PasteSource(req.Source)
	if source == "" {
		source = aggregates.PasteSourceExternal
	}
	index := -1
	if req.Index != nil {
		index = *req.Index
	}

	pages, err := session.ImportPages(req.Document, source, index)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	responses := make([]PageResponse, 0, len(pages))
	for _, page := range pages {
		responses = append(responses, pageResponse(page))
	}
	common.RespondJSON(w, http.StatusCreated, responses)
}

