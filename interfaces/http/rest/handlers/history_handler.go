package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/ArthurHeitmann/satisfactory-architect-sub001/application/services"
	"github.com/ArthurHeitmann/satisfactory-architect-sub001/pkg/common"
)

// HistoryHandler handles undo/redo requests.
type HistoryHandler struct {
	plans  *services.PlanService
	logger *zap.Logger
}

// NewHistoryHandler creates a history handler.
func NewHistoryHandler(plans *services.PlanService, logger *zap.Logger) *HistoryHandler {
	return &HistoryHandler{plans: plans, logger: logger}
}

// Undo handles POST /plans/{planKey}/undo. Undoing at the beginning of the
// timeline is a no-op and still returns the current status.
func (h *HistoryHandler) Undo(w http.ResponseWriter, r *http.Request) {
	session, ok := openSession(h.plans, w, r)
	if !ok {
		return
	}

	event, err := session.Undo()
	if err != nil {
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, historyResponse(event))
}

// Redo handles POST /plans/{planKey}/redo.
func (h *HistoryHandler) Redo(w http.ResponseWriter, r *http.Request) {
	session, ok := openSession(h.plans, w, r)
	if !ok {
		return
	}

	event, err := session.Redo()
	if err != nil {
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, historyResponse(event))
}

// Status handles GET /plans/{planKey}/history.
func (h *HistoryHandler) Status(w http.ResponseWriter, r *http.Request) {
	session, ok := openSession(h.plans, w, r)
	if !ok {
		return
	}
	common.RespondJSON(w, http.StatusOK, historyResponse(session.HistoryStatus()))
}
