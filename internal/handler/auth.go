package handler

import (
	"context"
	"net/http"

	"github.com/murder-mystery/internal/domain"
)

type contextKey struct{}

// requireUser resolves the forwarded principal and rejects requests
// without a known user
func (h *Handler) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := h.service.Authenticate(r.Context(), r.Header.Get(h.userHeader))
		if err != nil {
			h.writeServiceError(w, r, "authenticate", err)
			return
		}
		ctx := context.WithValue(r.Context(), contextKey{}, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireAdmin rejects users without the admin permission. It must run
// after requireUser.
func (h *Handler) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !userFrom(r).IsAdmin() {
			h.writeError(w, http.StatusForbidden, domain.ErrForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// userFrom returns the authenticated user of a request
func userFrom(r *http.Request) *domain.User {
	user, _ := r.Context().Value(contextKey{}).(*domain.User)
	return user
}
