package handler

import (
	"net/http"

	"github.com/prn-tf/gatehouse/internal/service"
)

// handleLoginPage renders the login form.
func (h *Handler) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusOK, "login.html", PageData{Title: "Sign in"})
}

// handleLogin runs the authenticator and starts a session on success.
func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.render(w, http.StatusBadRequest, "login.html", PageData{
			Title: "Sign in",
			Error: "Invalid form data",
		})
		return
	}

	email := r.FormValue("email")
	plaintext := r.FormValue("password")

	user, err := h.auth.Authenticate(r.Context(), email, plaintext)
	if err != nil {
		status, msg := mapError(err)
		h.render(w, status, "login.html", PageData{Title: "Sign in", Error: msg})
		return
	}

	token, err := h.sessions.Create(r.Context(), user.ID, h.sessionTTL)
	if err != nil {
		h.logger.Error().Err(err).Int64("user_id", user.ID).Msg("failed to create session")
		status, msg := mapError(err)
		h.render(w, status, "login.html", PageData{Title: "Sign in", Error: msg})
		return
	}

	h.setSessionCookie(w, token)
	http.Redirect(w, r, "/dashboard", http.StatusFound)
}

// handleRegisterPage renders the registration form.
func (h *Handler) handleRegisterPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusOK, "register.html", PageData{Title: "Register"})
}

// handleRegister creates a new account and redirects to the login page.
func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.render(w, http.StatusBadRequest, "register.html", PageData{
			Title: "Register",
			Error: "Invalid form data",
		})
		return
	}

	_, err := h.users.Register(r.Context(), service.RegisterInput{
		Username: r.FormValue("username"),
		Email:    r.FormValue("email"),
		Password: r.FormValue("password"),
	})
	if err != nil {
		status, msg := mapError(err)
		h.render(w, status, "register.html", PageData{Title: "Register", Error: msg})
		return
	}

	http.Redirect(w, r, "/login", http.StatusFound)
}

// handleLogout destroys the session and redirects to the login page.
func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(sessionCookie); err == nil {
		if err := h.sessions.Destroy(r.Context(), cookie.Value); err != nil {
			h.logger.Error().Err(err).Msg("failed to destroy session")
		}
	}
	h.clearSessionCookie(w)
	http.Redirect(w, r, "/login", http.StatusFound)
}

// handleDashboard shows the signed-in user.
func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r.Context())
	if !ok {
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}

	user, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		// Account deleted while the session was still live.
		h.clearSessionCookie(w)
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}

	h.render(w, http.StatusOK, "dashboard.html", PageData{
		Title: "Dashboard",
		User:  user,
	})
}
