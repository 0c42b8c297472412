package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/screenquest/screenquest/internal/economy"
	"github.com/screenquest/screenquest/internal/model"
	"github.com/screenquest/screenquest/internal/store"
	"github.com/screenquest/screenquest/internal/task"
)

// EconomyHandler exposes the XP ledger, credibility scores, and the reward
// reference tables. Mutations that must be atomic go through the task service;
// reads hit the stores directly.
type EconomyHandler struct {
	svc         *task.Service
	ledger      *store.LedgerStore
	credibility *store.CredibilityStore
	logger      *slog.Logger
}

func NewEconomyHandler(svc *task.Service, ledger *store.LedgerStore, credibility *store.CredibilityStore, logger *slog.Logger) *EconomyHandler {
	return &EconomyHandler{svc: svc, ledger: ledger, credibility: credibility, logger: logger}
}

func (h *EconomyHandler) Balance(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid member id"})
		return
	}
	balance, err := h.ledger.Balance(id)
	if err != nil {
		h.logger.Error("get balance", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get balance"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"member_id":           balance.MemberID,
		"current_xp":          balance.CurrentXP,
		"lifetime_xp":         balance.LifetimeXP,
		"screen_time_minutes": economy.ScreenTimeMinutes(balance.CurrentXP),
	})
}

func (h *EconomyHandler) Credibility(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid member id"})
		return
	}
	score, err := h.credibility.Score(id)
	if err != nil {
		h.logger.Error("get credibility", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get credibility"})
		return
	}
	tier := economy.TierFor(score)
	writeJSON(w, http.StatusOK, map[string]any{
		"member_id":  id,
		"score":      score,
		"tier":       tier.Name,
		"multiplier": tier.Multiplier,
	})
}

func (h *EconomyHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid member id"})
		return
	}
	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		limit, err = strconv.Atoi(s)
		if err != nil || limit < 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid limit"})
			return
		}
	}
	txs, err := h.ledger.Transactions(id, limit)
	if err != nil {
		h.logger.Error("list transactions", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list transactions"})
		return
	}
	if txs == nil {
		txs = []model.XPTransaction{}
	}
	writeJSON(w, http.StatusOK, txs)
}

type redeemRequest struct {
	Minutes int `json:"minutes"`
}

func (h *EconomyHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid member id"})
		return
	}
	var req redeemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if req.Minutes <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "minutes must be positive"})
		return
	}

	balance, err := h.svc.RedeemScreenTime(id, req.Minutes)
	if err != nil {
		writeTaskError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"member_id":           balance.MemberID,
		"redeemed_minutes":    req.Minutes,
		"current_xp":          balance.CurrentXP,
		"lifetime_xp":         balance.LifetimeXP,
		"screen_time_minutes": economy.ScreenTimeMinutes(balance.CurrentXP),
	})
}

func (h *EconomyHandler) PreviewXP(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid member id"})
		return
	}
	level, err := economy.ParseLevel(r.URL.Query().Get("level"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	xp, err := h.svc.PreviewXP(id, level)
	if err != nil {
		writeTaskError(w, h.logger, err)
		return
	}
	score, err := h.credibility.Score(id)
	if err != nil {
		h.logger.Error("get credibility", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get credibility"})
		return
	}
	tier := economy.TierFor(score)
	writeJSON(w, http.StatusOK, map[string]any{
		"level":      level,
		"base_xp":    level.BaseXP(),
		"tier":       tier.Name,
		"multiplier": tier.Multiplier,
		"xp":         xp,
	})
}

func (h *EconomyHandler) ResetBalance(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid member id"})
		return
	}
	if err := h.ledger.Reset(id); err != nil {
		h.logger.Error("reset balance", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to reset balance"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "balance reset"})
}

func (h *EconomyHandler) ClearHistory(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid member id"})
		return
	}
	if err := h.ledger.ClearHistory(id); err != nil {
		h.logger.Error("clear history", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to clear history"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *EconomyHandler) ResetCredibility(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid member id"})
		return
	}
	if err := h.credibility.Reset(id); err != nil {
		h.logger.Error("reset credibility", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to reset credibility"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"member_id": id, "score": economy.DefaultScore})
}

// Levels returns the reward reference table so clients never hardcode it.
func (h *EconomyHandler) Levels(w http.ResponseWriter, r *http.Request) {
	type levelInfo struct {
		Level  economy.Level `json:"level"`
		BaseXP int           `json:"base_xp"`
	}
	levels := economy.Levels()
	out := make([]levelInfo, 0, len(levels))
	for _, l := range levels {
		out = append(out, levelInfo{Level: l, BaseXP: l.BaseXP()})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *EconomyHandler) Tiers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, economy.Tiers())
}
