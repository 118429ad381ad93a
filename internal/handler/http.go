package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/murder-mystery/internal/domain"
	"github.com/murder-mystery/internal/service"
	"github.com/murder-mystery/internal/websocket"
)

// DefaultUserHeader carries the user id forwarded by the identity proxy
const DefaultUserHeader = "X-Forwarded-User"

// Handler provides HTTP handlers for the party API
type Handler struct {
	service    *service.GameService
	hub        *websocket.Hub
	userHeader string
	logger     *slog.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(service *service.GameService, hub *websocket.Hub, userHeader string, logger *slog.Logger) *Handler {
	if userHeader == "" {
		userHeader = DefaultUserHeader
	}
	return &Handler{
		service:    service,
		hub:        hub,
		userHeader: userHeader,
		logger:     logger,
	}
}

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Router creates and configures the HTTP router
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(h.corsMiddleware)

	// Public
	r.Get("/", h.Landing)
	r.Get("/health", h.HealthCheck)
	r.Get("/ready", h.ReadyCheck)
	r.Get("/ws", h.HandleWebSocket)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(h.requireUser)

		r.Get("/me", h.Me)
		r.Get("/round", h.GetRound)
		r.Get("/characters", h.ListCandidates)

		r.Route("/guests", func(r chi.Router) {
			r.Get("/", h.ListGuests)
			r.Put("/{characterID}/suspect", h.SetSuspect)
			r.Post("/{characterID}/notes", h.AddNote)
			r.Delete("/{characterID}/notes/{noteID}", h.DeleteNote)
		})

		r.Get("/clues", h.GetClues)
		r.Get("/case-files", h.GetCaseFiles)

		r.Route("/hints", func(r chi.Router) {
			r.Get("/", h.GetHints)
			r.Post("/random", h.BuyRandomHint)
			r.Post("/{hintID}/purchase", h.BuyHint)
		})

		r.Get("/transfers/recipients", h.ListRecipients)
		r.Post("/transfers", h.Transfer)

		r.Get("/poker", h.GetPot)
		r.Post("/poker/contributions", h.ContributeToPot)

		r.Get("/votes/{category}", h.GetVote)
		r.Post("/votes", h.CastVote)

		r.Get("/secrets", h.GetSecrets)
		r.Post("/secrets", h.SubmitSecret)

		r.Get("/qr", h.GetQR)
		r.Post("/qr/words", h.SubmitWord)
		r.Post("/qr/sentence", h.SubmitSentence)

		r.Get("/scoreboard/{board}", h.GetScoreboard)

		r.Route("/admin", func(r chi.Router) {
			r.Use(h.requireAdmin)

			r.Get("/dashboard", h.Dashboard)
			r.Put("/round", h.SetRound)
			r.Get("/answer-keys/{gameID}/{keyID}/qr.png", h.AnswerKeyQRCode)
			r.Post("/standings/rebuild", h.RebuildStandings)
			r.Get("/ws/stats", h.GetWebSocketStats)
		})
	})

	return r
}

// corsMiddleware adds CORS headers
func (h *Handler) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, X-Request-ID, "+h.userHeader)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeSuccess writes a successful JSON response
func (h *Handler) writeSuccess(w http.ResponseWriter, data interface{}) {
	h.writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    data,
	})
}

// writeError writes an error JSON response
func (h *Handler) writeError(w http.ResponseWriter, status int, err error) {
	h.writeJSON(w, status, APIResponse{
		Success: false,
		Error:   err.Error(),
	})
}

// statusFor maps a service error to its HTTP status
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case domain.IsNotFoundError(err):
		return http.StatusNotFound
	case domain.IsConflictError(err):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidRequest):
		return http.StatusBadRequest
	case domain.IsValidationError(err):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// writeServiceError reports a service error. Expected errors carry their
// message; anything else is logged and hidden behind a generic message.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed",
			"op", op,
			"request_id", middleware.GetReqID(r.Context()),
			"error", err,
		)
		h.writeError(w, status, domain.ErrInternalError)
		return
	}
	h.writeError(w, status, err)
}

// decode reads a JSON request body into dst
func decode(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return domain.ErrInvalidRequest
	}
	return nil
}

// Landing is the public entry point shown to visitors without a session
func (h *Handler) Landing(w http.ResponseWriter, r *http.Request) {
	_, err := h.service.Authenticate(r.Context(), r.Header.Get(h.userHeader))
	h.writeSuccess(w, map[string]interface{}{
		"name":          "murder-mystery",
		"authenticated": err == nil,
	})
}

// HandleWebSocket handles WebSocket upgrade requests
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	websocket.ServeWs(h.hub, h.logger, w, r)
}

// GetWebSocketStats returns WebSocket connection statistics
func (h *Handler) GetWebSocketStats(w http.ResponseWriter, r *http.Request) {
	h.writeSuccess(w, map[string]interface{}{
		"total_connections":      h.hub.GetTotalConnections(),
		"round_subscribers":      h.hub.GetSubscriberCount(websocket.TopicRound),
		"scoreboard_subscribers": h.hub.GetSubscriberCount(websocket.TopicScoreboard),
	})
}

// HealthCheck returns service health status
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	h.writeSuccess(w, map[string]string{"status": "healthy"})
}

// ReadyCheck reports whether the store is reachable
func (h *Handler) ReadyCheck(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Ping(r.Context()); err != nil {
		h.logger.Warn("readiness check failed", "error", err)
		h.writeJSON(w, http.StatusServiceUnavailable, APIResponse{
			Success: false,
			Error:   "store unavailable",
		})
		return
	}
	h.writeSuccess(w, map[string]string{"status": "ready"})
}
