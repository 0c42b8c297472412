package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/screenquest/screenquest/internal/proof"
)

// maxProofSize caps uploads at 10 MB.
const maxProofSize = 10 << 20

type ProofHandler struct {
	store  *proof.Store
	logger *slog.Logger
}

func NewProofHandler(s *proof.Store, logger *slog.Logger) *ProofHandler {
	return &ProofHandler{store: s, logger: logger}
}

// Upload stores a proof image and returns the reference to attach to a
// submission. The body is the raw image; Content-Type is preserved.
func (h *ProofHandler) Upload(w http.ResponseWriter, r *http.Request) {
	childID, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid child id"})
		return
	}

	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	body := http.MaxBytesReader(w, r.Body, maxProofSize)
	ref, err := h.store.Put(r.Context(), childID, contentType, body)
	if err != nil {
		if errors.Is(err, proof.ErrDisabled) {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "proof storage not configured"})
			return
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "proof too large"})
			return
		}
		h.logger.Error("upload proof", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to upload proof"})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"proof_ref": ref})
}

// Fetch streams a proof object back by its reference.
func (h *ProofHandler) Fetch(w http.ResponseWriter, r *http.Request) {
	ref := r.PathValue("ref")
	if ref == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "proof reference required"})
		return
	}

	body, contentType, err := h.store.Get(r.Context(), ref)
	if err != nil {
		if errors.Is(err, proof.ErrDisabled) {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "proof storage not configured"})
			return
		}
		h.logger.Error("fetch proof", "ref", ref, "error", err)
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "proof not found"})
		return
	}
	defer body.Close()

	if contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}
	w.Header().Set("Cache-Control", "private, max-age=3600")
	if _, err := io.Copy(w, body); err != nil {
		h.logger.Warn("stream proof", "ref", ref, "error", err)
	}
}
