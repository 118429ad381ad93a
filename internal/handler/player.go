package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/murder-mystery/internal/domain"
	"github.com/murder-mystery/internal/service"
)

// MeResponse is the session view of the viewer
type MeResponse struct {
	User      *domain.User            `json:"user"`
	Character *service.CharacterSheet `json:"character,omitempty"`
}

// Me returns the viewer and, when they play one, their character sheet
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r)
	resp := MeResponse{User: user}

	if user.CharacterID != "" {
		sheet, err := h.service.MyCharacter(r.Context(), user)
		if err != nil {
			h.writeServiceError(w, r, "me", err)
			return
		}
		resp.Character = sheet
	}
	h.writeSuccess(w, resp)
}

// GetRound returns the round gate
func (h *Handler) GetRound(w http.ResponseWriter, r *http.Request) {
	state, err := h.service.CurrentRound(r.Context())
	if err != nil {
		h.writeServiceError(w, r, "get round", err)
		return
	}
	h.writeSuccess(w, state)
}

// ListCandidates returns the characters that can be voted for
func (h *Handler) ListCandidates(w http.ResponseWriter, r *http.Request) {
	candidates, err := h.service.VoteCandidates(r.Context())
	if err != nil {
		h.writeServiceError(w, r, "list candidates", err)
		return
	}
	h.writeSuccess(w, candidates)
}

// ListGuests returns the guest list with the viewer's notes
func (h *Handler) ListGuests(w http.ResponseWriter, r *http.Request) {
	guests, err := h.service.Guests(r.Context(), userFrom(r))
	if err != nil {
		h.writeServiceError(w, r, "list guests", err)
		return
	}
	h.writeSuccess(w, guests)
}

type suspectRequest struct {
	IsSuspect bool `json:"is_suspect"`
}

// SetSuspect toggles the viewer's suspect flag on a character
func (h *Handler) SetSuspect(w http.ResponseWriter, r *http.Request) {
	var req suspectRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	characterID := chi.URLParam(r, "characterID")
	if err := h.service.SetSuspect(r.Context(), userFrom(r), characterID, req.IsSuspect); err != nil {
		h.writeServiceError(w, r, "set suspect", err)
		return
	}
	h.writeSuccess(w, map[string]interface{}{"character_id": characterID, "is_suspect": req.IsSuspect})
}

type noteRequest struct {
	Text string `json:"text"`
}

// AddNote stores a private note about a character
func (h *Handler) AddNote(w http.ResponseWriter, r *http.Request) {
	var req noteRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	note, err := h.service.AddNote(r.Context(), userFrom(r), chi.URLParam(r, "characterID"), req.Text)
	if err != nil {
		h.writeServiceError(w, r, "add note", err)
		return
	}
	h.writeJSON(w, http.StatusCreated, APIResponse{Success: true, Data: note})
}

// DeleteNote removes one of the viewer's notes
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	err := h.service.DeleteNote(r.Context(), userFrom(r), chi.URLParam(r, "characterID"), chi.URLParam(r, "noteID"))
	if err != nil {
		h.writeServiceError(w, r, "delete note", err)
		return
	}
	h.writeSuccess(w, map[string]string{"status": "deleted"})
}

// GetClues returns the viewer's clue buckets
func (h *Handler) GetClues(w http.ResponseWriter, r *http.Request) {
	board, err := h.service.Clues(r.Context(), userFrom(r))
	if err != nil {
		h.writeServiceError(w, r, "get clues", err)
		return
	}
	h.writeSuccess(w, board)
}

// GetCaseFiles returns the released case files grouped by round
func (h *Handler) GetCaseFiles(w http.ResponseWriter, r *http.Request) {
	files, err := h.service.CaseFiles(r.Context())
	if err != nil {
		h.writeServiceError(w, r, "get case files", err)
		return
	}
	h.writeSuccess(w, files)
}

// GetHints returns the viewer's hint board
func (h *Handler) GetHints(w http.ResponseWriter, r *http.Request) {
	board, err := h.service.Hints(r.Context(), userFrom(r))
	if err != nil {
		h.writeServiceError(w, r, "get hints", err)
		return
	}
	h.writeSuccess(w, board)
}

// BuyHint purchases a specific hint
func (h *Handler) BuyHint(w http.ResponseWriter, r *http.Request) {
	purchase, err := h.service.BuyHint(r.Context(), userFrom(r), chi.URLParam(r, "hintID"))
	if err != nil {
		h.writeServiceError(w, r, "buy hint", err)
		return
	}
	h.writeSuccess(w, purchase)
}

// BuyRandomHint purchases a random unbought hint
func (h *Handler) BuyRandomHint(w http.ResponseWriter, r *http.Request) {
	purchase, err := h.service.BuyRandomHint(r.Context(), userFrom(r))
	if err != nil {
		h.writeServiceError(w, r, "buy random hint", err)
		return
	}
	h.writeSuccess(w, purchase)
}

// ListRecipients returns the characters cash can be sent to
func (h *Handler) ListRecipients(w http.ResponseWriter, r *http.Request) {
	recipients, err := h.service.Recipients(r.Context(), userFrom(r))
	if err != nil {
		h.writeServiceError(w, r, "list recipients", err)
		return
	}
	h.writeSuccess(w, recipients)
}

type transferRequest struct {
	To     string `json:"to"`
	Amount int64  `json:"amount"`
}

// Transfer sends cash to another character
func (h *Handler) Transfer(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidAmount)
		return
	}

	result, err := h.service.Transfer(r.Context(), userFrom(r), req.To, req.Amount)
	if err != nil {
		h.writeServiceError(w, r, "transfer", err)
		return
	}
	h.writeSuccess(w, result)
}

// GetPot returns the poker pot balance
func (h *Handler) GetPot(w http.ResponseWriter, r *http.Request) {
	pot, err := h.service.Pot(r.Context())
	if err != nil {
		h.writeServiceError(w, r, "get pot", err)
		return
	}
	h.writeSuccess(w, pot)
}

type contributionRequest struct {
	Amount int64 `json:"amount"`
}

// ContributeToPot moves cash from the viewer into the pot
func (h *Handler) ContributeToPot(w http.ResponseWriter, r *http.Request) {
	var req contributionRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidAmount)
		return
	}

	result, err := h.service.ContributeToPot(r.Context(), userFrom(r), req.Amount)
	if err != nil {
		h.writeServiceError(w, r, "contribute to pot", err)
		return
	}
	h.writeSuccess(w, result)
}

// GetVote returns the viewer's ballot for a category, or null when there
// is none yet
func (h *Handler) GetVote(w http.ResponseWriter, r *http.Request) {
	category := domain.VoteCategory(chi.URLParam(r, "category"))
	vote, err := h.service.GetVote(r.Context(), userFrom(r), category)
	if err != nil {
		if errors.Is(err, domain.ErrVoteNotFound) {
			h.writeSuccess(w, nil)
			return
		}
		h.writeServiceError(w, r, "get vote", err)
		return
	}
	h.writeSuccess(w, vote)
}

type voteRequest struct {
	Category domain.VoteCategory `json:"category"`
	VotedFor string              `json:"voted_for"`
}

// CastVote records the viewer's ballot
func (h *Handler) CastVote(w http.ResponseWriter, r *http.Request) {
	var req voteRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	vote, err := h.service.CastVote(r.Context(), userFrom(r), req.Category, req.VotedFor)
	if err != nil {
		h.writeServiceError(w, r, "cast vote", err)
		return
	}
	h.writeSuccess(w, vote)
}

// GetSecrets returns the viewer's secret and rumor slots
func (h *Handler) GetSecrets(w http.ResponseWriter, r *http.Request) {
	board, err := h.service.Secrets(r.Context(), userFrom(r))
	if err != nil {
		h.writeServiceError(w, r, "get secrets", err)
		return
	}
	h.writeSuccess(w, board)
}

type answerRequest struct {
	Category domain.AnswerCategory `json:"category"`
	Index    int                   `json:"index"`
	Answer   string                `json:"answer"`
}

// SubmitSecret checks a secret or rumor answer
func (h *Handler) SubmitSecret(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Category != domain.CategorySecret && req.Category != domain.CategoryRumor {
		h.writeError(w, http.StatusUnprocessableEntity, domain.ErrInvalidCategory)
		return
	}
	h.submit(w, r, req.Category, req.Index, req.Answer)
}

// GetQR returns the viewer's QR words and sentence state
func (h *Handler) GetQR(w http.ResponseWriter, r *http.Request) {
	board, err := h.service.QR(r.Context(), userFrom(r))
	if err != nil {
		h.writeServiceError(w, r, "get qr", err)
		return
	}
	h.writeSuccess(w, board)
}

// SubmitWord checks a scanned QR word
func (h *Handler) SubmitWord(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}
	h.submit(w, r, domain.CategoryQR, req.Index, req.Answer)
}

// SubmitSentence checks the final QR sentence
func (h *Handler) SubmitSentence(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}
	h.submit(w, r, domain.CategorySentence, 0, req.Answer)
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request, category domain.AnswerCategory, index int, answer string) {
	user := userFrom(r)
	if user.CharacterID == "" {
		h.writeError(w, http.StatusNotFound, domain.ErrCharacterNotFound)
		return
	}

	result, err := h.service.Submit(r.Context(), domain.Submission{
		CharacterID: user.CharacterID,
		Category:    category,
		Index:       index,
		Answer:      answer,
	})
	if err != nil {
		h.writeServiceError(w, r, "submit answer", err)
		return
	}
	h.writeSuccess(w, result)
}

// GetScoreboard returns the live standings of a board
func (h *Handler) GetScoreboard(w http.ResponseWriter, r *http.Request) {
	board := chi.URLParam(r, "board")
	if !service.ValidBoard(board) {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	entries, err := h.service.Scoreboard(r.Context(), board)
	if err != nil {
		h.writeServiceError(w, r, "get scoreboard", err)
		return
	}
	h.writeSuccess(w, entries)
}
