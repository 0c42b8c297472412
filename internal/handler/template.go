package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/screenquest/screenquest/internal/economy"
	"github.com/screenquest/screenquest/internal/model"
	"github.com/screenquest/screenquest/internal/store"
)

type TemplateHandler struct {
	store  *store.TemplateStore
	logger *slog.Logger
}

func NewTemplateHandler(s *store.TemplateStore, logger *slog.Logger) *TemplateHandler {
	return &TemplateHandler{store: s, logger: logger}
}

type templateRequest struct {
	Title          string `json:"title"`
	Description    string `json:"description"`
	Category       string `json:"category"`
	SuggestedLevel string `json:"suggested_level"`
	CreatedBy      *int64 `json:"created_by"`
}

func (h *TemplateHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req templateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "title is required"})
		return
	}
	level, err := economy.ParseLevel(req.SuggestedLevel)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	tpl, err := h.store.Create(req.Title, req.Description, req.Category, level, req.CreatedBy)
	if err != nil {
		h.logger.Error("create template", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create template"})
		return
	}
	writeJSON(w, http.StatusCreated, tpl)
}

func (h *TemplateHandler) List(w http.ResponseWriter, r *http.Request) {
	var (
		templates []model.TaskTemplate
		err       error
	)
	if category := r.URL.Query().Get("category"); category != "" {
		templates, err = h.store.ListByCategory(category)
	} else {
		templates, err = h.store.List()
	}
	if err != nil {
		h.logger.Error("list templates", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list templates"})
		return
	}
	if templates == nil {
		templates = []model.TaskTemplate{}
	}
	writeJSON(w, http.StatusOK, templates)
}

func (h *TemplateHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}
	tpl, err := h.store.GetByID(id)
	if err != nil {
		h.logger.Error("get template", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get template"})
		return
	}
	if tpl == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "template not found"})
		return
	}
	writeJSON(w, http.StatusOK, tpl)
}

func (h *TemplateHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	existing, err := h.store.GetByID(id)
	if err != nil {
		h.logger.Error("get template", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get template"})
		return
	}
	if existing == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "template not found"})
		return
	}
	if existing.Builtin {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "builtin templates cannot be edited"})
		return
	}

	var req templateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "title is required"})
		return
	}
	level, err := economy.ParseLevel(req.SuggestedLevel)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	tpl, err := h.store.Update(id, req.Title, req.Description, req.Category, level)
	if err != nil {
		h.logger.Error("update template", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update template"})
		return
	}
	writeJSON(w, http.StatusOK, tpl)
}

func (h *TemplateHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}
	if err := h.store.Delete(id); err != nil {
		h.logger.Error("delete template", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to delete template"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
