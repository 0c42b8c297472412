package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/screenquest/screenquest/internal/model"
	"github.com/screenquest/screenquest/internal/store"
)

var hexColorRegexp = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

type MemberHandler struct {
	store  *store.MemberStore
	logger *slog.Logger
}

func NewMemberHandler(s *store.MemberStore, logger *slog.Logger) *MemberHandler {
	return &MemberHandler{store: s, logger: logger}
}

type memberRequest struct {
	Name        string     `json:"name"`
	Role        model.Role `json:"role"`
	Color       string     `json:"color"`
	AvatarEmoji string     `json:"avatar_emoji"`
}

func (h *MemberHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req memberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}
	if req.Role == "" {
		req.Role = model.RoleChild
	}
	if !req.Role.Valid() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "role must be parent or child"})
		return
	}
	if req.Color != "" && !hexColorRegexp.MatchString(req.Color) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "color must be a hex value like #aabbcc"})
		return
	}

	member, err := h.store.Create(req.Name, req.Role, req.Color, req.AvatarEmoji)
	if err != nil {
		h.logger.Error("create member", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create member"})
		return
	}
	writeJSON(w, http.StatusCreated, member)
}

func (h *MemberHandler) List(w http.ResponseWriter, r *http.Request) {
	var (
		members []model.Member
		err     error
	)
	if role := model.Role(r.URL.Query().Get("role")); role != "" {
		if !role.Valid() {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown role"})
			return
		}
		members, err = h.store.ListByRole(role)
	} else {
		members, err = h.store.List()
	}
	if err != nil {
		h.logger.Error("list members", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list members"})
		return
	}
	if members == nil {
		members = []model.Member{}
	}
	writeJSON(w, http.StatusOK, members)
}

func (h *MemberHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}
	member, err := h.store.GetByID(id)
	if err != nil {
		h.logger.Error("get member", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get member"})
		return
	}
	if member == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "member not found"})
		return
	}
	writeJSON(w, http.StatusOK, member)
}

func (h *MemberHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	existing, err := h.store.GetByID(id)
	if err != nil {
		h.logger.Error("get member", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get member"})
		return
	}
	if existing == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "member not found"})
		return
	}

	var req memberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}
	if req.Color != "" && !hexColorRegexp.MatchString(req.Color) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "color must be a hex value like #aabbcc"})
		return
	}

	member, err := h.store.Update(id, req.Name, req.Color, req.AvatarEmoji)
	if err != nil {
		h.logger.Error("update member", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update member"})
		return
	}
	writeJSON(w, http.StatusOK, member)
}

func (h *MemberHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}
	if err := h.store.Delete(id); err != nil {
		h.logger.Error("delete member", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to delete member"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type pinRequest struct {
	PIN string `json:"pin"`
}

func (h *MemberHandler) SetPIN(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	var req pinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if len(req.PIN) < 4 || len(req.PIN) > 8 || !isDigits(req.PIN) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "PIN must be 4-8 digits"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.PIN), bcrypt.DefaultCost)
	if err != nil {
		h.logger.Error("hash pin", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to hash PIN"})
		return
	}
	if err := h.store.SetPIN(id, string(hash)); err != nil {
		h.logger.Error("set pin", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to set PIN"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "pin set"})
}

func (h *MemberHandler) ClearPIN(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}
	if err := h.store.ClearPIN(id); err != nil {
		h.logger.Error("clear pin", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to clear PIN"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "pin cleared"})
}

func (h *MemberHandler) VerifyPIN(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	var req pinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	hash, err := h.store.GetPINHash(id)
	if err != nil {
		h.logger.Error("get pin hash", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to verify PIN"})
		return
	}
	if hash == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "no PIN set"})
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.PIN)); err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "incorrect PIN"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "verified"})
}
