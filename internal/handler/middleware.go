package handler

import (
	"context"
	"net/http"
)

// ctxKeyUserID is the request-context key for the authenticated user ID.
type ctxKeyUserID struct{}

// requireSession resolves the session cookie to a user ID and stores it in
// the request context. Requests without a valid session are redirected to
// the login page.
func (h *Handler) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(sessionCookie)
		if err != nil {
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}

		userID, err := h.sessions.Resolve(r.Context(), cookie.Value)
		if err != nil {
			// Unknown, expired, or destroyed token: treat as signed out.
			h.clearSessionCookie(w)
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}

		ctx := context.WithValue(r.Context(), ctxKeyUserID{}, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// userIDFrom returns the authenticated user ID stored by requireSession.
func userIDFrom(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(ctxKeyUserID{}).(int64)
	return id, ok
}
