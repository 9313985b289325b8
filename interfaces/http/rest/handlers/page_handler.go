package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ArthurHeitmann/satisfactory-architect-sub001/application/services"
	"github.com/ArthurHeitmann/satisfactory-architect-sub001/domain/core/valueobjects"
	"github.com/ArthurHeitmann/satisfactory-architect-sub001/pkg/common"
	"github.com/ArthurHeitmann/satisfactory-architect-sub001/pkg/utils"
)

// PageHandler handles page-level requests.
type PageHandler struct {
	plans  *services.PlanService
	logger *zap.Logger
}

// NewPageHandler creates a page handler.
func NewPageHandler(plans *services.PlanService, logger *zap.Logger) *PageHandler {
	return &PageHandler{plans: plans, logger: logger}
}

// AddPageRequest is the add-page payload.
type AddPageRequest struct {
	Name string `json:"name" validate:"required,max=200"`
}

// AddPage handles POST /plans/{planKey}/pages.
func (h *PageHandler) AddPage(w http.ResponseWriter, r *http.Request) {
	session, ok := openSession(h.plans, w, r)
	if !ok {
		return
	}

	var req AddPageRequest
	if err := common.ParseJSONBody(r, &req, maxBodyBytes); err != nil {
		common.RespondError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondAppError(w, err)
		return
	}

	page, err := session.AddPage(req.Name)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusCreated, pageResponse(page))
}

// RemovePage handles DELETE /plans/{planKey}/pages/{pageID}.
func (h *PageHandler) RemovePage(w http.ResponseWriter, r *http.Request) {
	session, ok := openSession(h.plans, w, r)
	if !ok {
		return
	}

	if err := session.RemovePage(chi.URLParam(r, "pageID")); err != nil {
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

// RenamePageRequest is the rename payload.
type RenamePageRequest struct {
	Name string `json:"name" validate:"required,max=200"`
}

// RenamePage handles PUT /plans/{planKey}/pages/{pageID}/name.
func (h *PageHandler) RenamePage(w http.ResponseWriter, r *http.Request) {
	session, ok := openSession(h.plans, w, r)
	if !ok {
		return
	}

	var req RenamePageRequest
	if err := common.ParseJSONBody(r, &req, maxBodyBytes); err != nil {
		common.RespondError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondAppError(w, err)
		return
	}

	if err := session.RenamePage(chi.URLParam(r, "pageID"), req.Name); err != nil {
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, map[string]string{"status": "renamed"})
}

// DuplicatePage handles POST /plans/{planKey}/pages/{pageID}/duplicate.
func (h *PageHandler) DuplicatePage(w http.ResponseWriter, r *http.Request) {
	session, ok := openSession(h.plans, w, r)
	if !ok {
		return
	}

	clone, err := session.DuplicatePage(chi.URLParam(r, "pageID"))
	if err != nil {
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusCreated, pageResponse(clone))
}

// MovePageRequest is the reorder payload.
type MovePageRequest struct {
	From int `json:"from" validate:"gte=0"`
	To   int `json:"to" validate:"gte=0"`
}

// MovePage handles POST /plans/{planKey}/pages/move.
func (h *PageHandler) MovePage(w http.ResponseWriter, r *http.Request) {
	session, ok := openSession(h.plans, w, r)
	if !ok {
		return
	}

	var req MovePageRequest
	if err := common.ParseJSONBody(r, &req, maxBodyBytes); err != nil {
		common.RespondError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondAppError(w, err)
		return
	}

	if err := session.MovePage(req.From, req.To); err != nil {
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, map[string]string{"status": "moved"})
}

// SetCurrentPageRequest is the current-page payload.
type SetCurrentPageRequest struct {
	PageID string `json:"pageId" validate:"required"`
}

// SetCurrentPage handles PUT /plans/{planKey}/pages/current.
func (h *PageHandler) SetCurrentPage(w http.ResponseWriter, r *http.Request) {
	session, ok := openSession(h.plans, w, r)
	if !ok {
		return
	}

	var req SetCurrentPageRequest
	if err := common.ParseJSONBody(r, &req, maxBodyBytes); err != nil {
		common.RespondError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondAppError(w, err)
		return
	}

	if err := session.SetCurrentPage(req.PageID); err != nil {
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// SetViewRequest is the view-state payload.
type SetViewRequest struct {
	Offset valueobjects.Position `json:"offset"`
	Scale  float64               `json:"scale" validate:"gt=0"`
}

// SetView handles PUT /plans/{planKey}/pages/{pageID}/view.
func (h *PageHandler) SetView(w http.ResponseWriter, r *http.Request) {
	session, ok := openSession(h.plans, w, r)
	if !ok {
		return
	}

	var req SetViewRequest
	if err := common.ParseJSONBody(r, &req, maxBodyBytes); err != nil {
		common.RespondError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondAppError(w, err)
		return
	}

	view := valueobjects.ViewState{Offset: req.Offset, Scale: req.Scale}
	if err := session.SetPageView(chi.URLParam(r, "pageID"), view); err != nil {
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
