package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/murder-mystery/internal/domain"
)

// Dashboard returns the round, vote tallies and rankings
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	dashboard, err := h.service.Dashboard(r.Context(), userFrom(r))
	if err != nil {
		h.writeServiceError(w, r, "dashboard", err)
		return
	}
	h.writeSuccess(w, dashboard)
}

type roundRequest struct {
	Round *int `json:"round"`
}

// SetRound moves the round gate
func (h *Handler) SetRound(w http.ResponseWriter, r *http.Request) {
	var req roundRequest
	if err := decode(r, &req); err != nil || req.Round == nil {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	state, err := h.service.SetRound(r.Context(), userFrom(r), *req.Round)
	if err != nil {
		h.writeServiceError(w, r, "set round", err)
		return
	}
	h.writeSuccess(w, state)
}

// AnswerKeyQRCode renders the printable QR code of an answer key
func (h *Handler) AnswerKeyQRCode(w http.ResponseWriter, r *http.Request) {
	gameID, err := strconv.Atoi(chi.URLParam(r, "gameID"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	png, err := h.service.AnswerKeyQRCode(r.Context(), userFrom(r), gameID, chi.URLParam(r, "keyID"))
	if err != nil {
		h.writeServiceError(w, r, "answer key qr code", err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

// RebuildStandings recomputes every live scoreboard from the store
func (h *Handler) RebuildStandings(w http.ResponseWriter, r *http.Request) {
	if err := h.service.RebuildStandings(r.Context()); err != nil {
		h.writeServiceError(w, r, "rebuild standings", err)
		return
	}
	h.writeSuccess(w, map[string]string{"status": "rebuilt"})
}
