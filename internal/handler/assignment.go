package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/screenquest/screenquest/internal/economy"
	"github.com/screenquest/screenquest/internal/model"
	"github.com/screenquest/screenquest/internal/store"
	"github.com/screenquest/screenquest/internal/task"
)

type AssignmentHandler struct {
	svc         *task.Service
	assignments *store.AssignmentStore
	members     *store.MemberStore
	logger      *slog.Logger
}

func NewAssignmentHandler(svc *task.Service, as *store.AssignmentStore, ms *store.MemberStore, logger *slog.Logger) *AssignmentHandler {
	return &AssignmentHandler{svc: svc, assignments: as, members: ms, logger: logger}
}

type createAssignmentRequest struct {
	TemplateID  *int64     `json:"template_id"`
	ChildID     int64      `json:"child_id"`
	AssignedBy  *int64     `json:"assigned_by"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Category    string     `json:"category"`
	Level       string     `json:"level"`
	DueDate     *time.Time `json:"due_date"`
}

func (h *AssignmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createAssignmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	child, err := h.members.GetByID(req.ChildID)
	if err != nil {
		h.logger.Error("check child", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to check child"})
		return
	}
	if child == nil || child.Role != model.RoleChild {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "child not found"})
		return
	}

	a, err := h.svc.Create(task.CreateParams{
		TemplateID:  req.TemplateID,
		ChildID:     req.ChildID,
		AssignedBy:  req.AssignedBy,
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Level:       economy.Level(req.Level),
		DueDate:     req.DueDate,
	})
	if err != nil {
		writeTaskError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

func (h *AssignmentHandler) List(w http.ResponseWriter, r *http.Request) {
	childID, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid child id"})
		return
	}

	var statusFilter *model.Status
	if s := model.Status(r.URL.Query().Get("status")); s != "" {
		if !s.Valid() {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown status"})
			return
		}
		statusFilter = &s
	}

	assignments, err := h.assignments.ListByChild(childID, statusFilter)
	if err != nil {
		h.logger.Error("list assignments", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list assignments"})
		return
	}
	if assignments == nil {
		assignments = []model.TaskAssignment{}
	}
	writeJSON(w, http.StatusOK, assignments)
}

func (h *AssignmentHandler) PendingReview(w http.ResponseWriter, r *http.Request) {
	assignments, err := h.assignments.ListPendingReview()
	if err != nil {
		h.logger.Error("list pending review", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list pending approvals"})
		return
	}
	if assignments == nil {
		assignments = []model.TaskAssignment{}
	}
	writeJSON(w, http.StatusOK, assignments)
}

func (h *AssignmentHandler) UnseenDeclines(w http.ResponseWriter, r *http.Request) {
	childID, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid child id"})
		return
	}
	assignments, err := h.assignments.ListUnseenDeclines(childID)
	if err != nil {
		h.logger.Error("list unseen declines", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list declines"})
		return
	}
	if assignments == nil {
		assignments = []model.TaskAssignment{}
	}
	writeJSON(w, http.StatusOK, assignments)
}

func (h *AssignmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseAssignmentID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid assignment id"})
		return
	}
	a, err := h.assignments.GetByID(id)
	if err != nil {
		h.logger.Error("get assignment", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get assignment"})
		return
	}
	if a == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "assignment not found"})
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *AssignmentHandler) Start(w http.ResponseWriter, r *http.Request) {
	id, err := parseAssignmentID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid assignment id"})
		return
	}
	a, err := h.svc.Start(id)
	if err != nil {
		writeTaskError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *AssignmentHandler) PauseTimer(w http.ResponseWriter, r *http.Request) {
	id, err := parseAssignmentID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid assignment id"})
		return
	}
	if err := h.svc.PauseTimer(id); err != nil {
		writeTaskError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "paused"})
}

func (h *AssignmentHandler) ResumeTimer(w http.ResponseWriter, r *http.Request) {
	id, err := parseAssignmentID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid assignment id"})
		return
	}
	if err := h.svc.ResumeTimer(id); err != nil {
		writeTaskError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "resumed"})
}

func (h *AssignmentHandler) Elapsed(w http.ResponseWriter, r *http.Request) {
	id, err := parseAssignmentID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid assignment id"})
		return
	}
	elapsed, err := h.svc.Elapsed(id)
	if err != nil {
		writeTaskError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"elapsed_seconds": int(elapsed.Seconds()),
		"elapsed_minutes": int(elapsed.Minutes()),
	})
}

type submitRequest struct {
	ProofRef        string `json:"proof_ref"`
	Notes           string `json:"notes"`
	MeasuredMinutes *int   `json:"measured_minutes"`
}

func (h *AssignmentHandler) Submit(w http.ResponseWriter, r *http.Request) {
	id, err := parseAssignmentID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid assignment id"})
		return
	}
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	a, err := h.svc.SubmitCompletion(id, req.ProofRef, req.Notes, req.MeasuredMinutes)
	if err != nil {
		writeTaskError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

type reviewRequest struct {
	ReviewerID    int64  `json:"reviewer_id"`
	PIN           string `json:"pin"`
	OverrideLevel string `json:"override_level"`
	Notes         string `json:"notes"`
	Reason        string `json:"reason"`
}

// requireParent resolves the reviewer and rejects non-parents. Children
// cannot settle their own reviews. When the reviewer has a PIN set, the
// request must carry it.
func (h *AssignmentHandler) requireParent(w http.ResponseWriter, reviewerID int64, pin string) bool {
	reviewer, err := h.members.GetByID(reviewerID)
	if err != nil {
		h.logger.Error("check reviewer", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to check reviewer"})
		return false
	}
	if reviewer == nil || reviewer.Role != model.RoleParent {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "reviewer must be a parent"})
		return false
	}
	if reviewer.HasPIN {
		hash, err := h.members.GetPINHash(reviewerID)
		if err != nil {
			h.logger.Error("get pin hash", "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to check reviewer"})
			return false
		}
		if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(pin)); err != nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "incorrect PIN"})
			return false
		}
	}
	return true
}

func (h *AssignmentHandler) Approve(w http.ResponseWriter, r *http.Request) {
	id, err := parseAssignmentID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid assignment id"})
		return
	}
	var req reviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if !h.requireParent(w, req.ReviewerID, req.PIN) {
		return
	}

	var override *economy.Level
	if req.OverrideLevel != "" {
		level, err := economy.ParseLevel(req.OverrideLevel)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		override = &level
	}

	result, err := h.svc.Approve(id, req.ReviewerID, override, req.Notes)
	if err != nil {
		writeTaskError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *AssignmentHandler) Decline(w http.ResponseWriter, r *http.Request) {
	id, err := parseAssignmentID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid assignment id"})
		return
	}
	var req reviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if !h.requireParent(w, req.ReviewerID, req.PIN) {
		return
	}

	result, err := h.svc.Decline(id, req.ReviewerID, req.Reason)
	if err != nil {
		writeTaskError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *AssignmentHandler) AcknowledgeDecline(w http.ResponseWriter, r *http.Request) {
	id, err := parseAssignmentID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid assignment id"})
		return
	}
	if err := h.svc.AcknowledgeDecline(id); err != nil {
		writeTaskError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "acknowledged"})
}

func (h *AssignmentHandler) Expire(w http.ResponseWriter, r *http.Request) {
	id, err := parseAssignmentID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid assignment id"})
		return
	}
	if err := h.svc.Expire(id); err != nil {
		writeTaskError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "expired"})
}

func (h *AssignmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseAssignmentID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid assignment id"})
		return
	}
	if err := h.svc.Delete(id); err != nil {
		writeTaskError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
