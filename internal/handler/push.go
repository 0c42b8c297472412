package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/screenquest/screenquest/internal/model"
	"github.com/screenquest/screenquest/internal/push"
	"github.com/screenquest/screenquest/internal/store"
)

type PushHandler struct {
	svc    *push.Service
	store  *store.PushStore
	logger *slog.Logger
}

func NewPushHandler(svc *push.Service, s *store.PushStore, logger *slog.Logger) *PushHandler {
	return &PushHandler{svc: svc, store: s, logger: logger}
}

func (h *PushHandler) VAPIDPublicKey(w http.ResponseWriter, r *http.Request) {
	if h.svc == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "push notifications not configured"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"public_key": h.svc.VAPIDPublicKey()})
}

type subscribeRequest struct {
	MemberID   int64  `json:"member_id"`
	Endpoint   string `json:"endpoint"`
	P256dhKey  string `json:"p256dh_key"`
	AuthKey    string `json:"auth_key"`
	DeviceName string `json:"device_name"`
}

func (h *PushHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if req.MemberID <= 0 || req.Endpoint == "" || req.P256dhKey == "" || req.AuthKey == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "member_id, endpoint, p256dh_key, and auth_key are required"})
		return
	}

	sub, err := h.store.CreateSubscription(req.MemberID, req.Endpoint, req.P256dhKey, req.AuthKey, req.DeviceName)
	if err != nil {
		h.logger.Error("create push subscription", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create subscription"})
		return
	}
	writeJSON(w, http.StatusCreated, sub)
}

func (h *PushHandler) List(w http.ResponseWriter, r *http.Request) {
	memberID, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid member id"})
		return
	}
	subs, err := h.store.ListByMember(memberID)
	if err != nil {
		h.logger.Error("list push subscriptions", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list subscriptions"})
		return
	}
	if subs == nil {
		subs = []model.PushSubscription{}
	}
	writeJSON(w, http.StatusOK, subs)
}

type unsubscribeRequest struct {
	Endpoint string `json:"endpoint"`
}

func (h *PushHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	var req unsubscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if req.Endpoint == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "endpoint is required"})
		return
	}
	if err := h.store.DeleteByEndpoint(req.Endpoint); err != nil {
		h.logger.Error("delete push subscription", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to delete subscription"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Test sends a notification to every device a member has registered, so
// setup can be verified end to end from the browser.
func (h *PushHandler) Test(w http.ResponseWriter, r *http.Request) {
	if h.svc == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "push notifications not configured"})
		return
	}
	memberID, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid member id"})
		return
	}
	subs, err := h.store.ListByMember(memberID)
	if err != nil {
		h.logger.Error("list push subscriptions", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list subscriptions"})
		return
	}
	if len(subs) == 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no subscriptions for member"})
		return
	}

	sent := 0
	for i := range subs {
		err := h.svc.Send(r.Context(), &subs[i], push.Payload{
			Title: "Test notification",
			Body:  "Push notifications are working.",
			Tag:   "test",
		})
		if err != nil {
			h.logger.Warn("send test push", "endpoint", subs[i].Endpoint, "error", err)
			continue
		}
		sent++
	}
	writeJSON(w, http.StatusOK, map[string]int{"sent": sent})
}
