package handler

import (
	"errors"
	"net/http"

	"github.com/prn-tf/gatehouse/internal/service"
)

// handleProfilePage shows the editable profile.
func (h *Handler) handleProfilePage(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r.Context())
	if !ok {
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}

	user, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		h.clearSessionCookie(w)
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}

	h.render(w, http.StatusOK, "profile.html", PageData{
		Title: "Profile",
		User:  user,
	})
}

// handleProfileUpdate applies a partial profile update, including an
// optional avatar upload. Empty form fields leave the stored values alone.
func (h *Handler) handleProfileUpdate(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r.Context())
	if !ok {
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}

	if h.maxUpload > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+64*1024) // headroom for form fields
	}
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		h.renderProfileError(w, r, userID, http.StatusBadRequest, "Invalid form data")
		return
	}

	input := service.UpdateProfileInput{
		UserID:   userID,
		Username: r.FormValue("username"),
		Email:    r.FormValue("email"),
		Password: r.FormValue("password"),
	}

	// The avatar file is stored first; the profile service only ever sees
	// the resulting public path.
	file, header, err := r.FormFile("avatar")
	switch {
	case err == nil:
		defer file.Close()
		path, err := h.avatars.Save(r.Context(), header.Filename, file, header.Size)
		if err != nil {
			status, msg := mapError(err)
			h.renderProfileError(w, r, userID, status, msg)
			return
		}
		input.AvatarPath = path
	case errors.Is(err, http.ErrMissingFile):
		// No new avatar; keep the current one.
	default:
		h.renderProfileError(w, r, userID, http.StatusBadRequest, "Invalid avatar upload")
		return
	}

	user, err := h.users.UpdateProfile(r.Context(), input)
	if err != nil {
		status, msg := mapError(err)
		h.renderProfileError(w, r, userID, status, msg)
		return
	}

	h.render(w, http.StatusOK, "profile.html", PageData{
		Title:   "Profile",
		Success: "Profile updated successfully!",
		User:    user,
	})
}

// handleProfileDelete deletes the account, destroys all its sessions, and
// redirects to the registration page.
func (h *Handler) handleProfileDelete(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r.Context())
	if !ok {
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}

	if err := h.users.Delete(r.Context(), userID); err != nil {
		status, msg := mapError(err)
		h.renderProfileError(w, r, userID, status, msg)
		return
	}

	// The old token must never resolve again, so sessions are destroyed
	// before the response is written.
	if err := h.sessions.DestroyUser(r.Context(), userID); err != nil {
		h.logger.Error().Err(err).Int64("user_id", userID).Msg("failed to destroy sessions after account deletion")
	}

	h.clearSessionCookie(w)
	http.Redirect(w, r, "/register", http.StatusFound)
}

// renderProfileError re-renders the profile page with an error banner.
func (h *Handler) renderProfileError(w http.ResponseWriter, r *http.Request, userID int64, status int, msg string) {
	user, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		h.clearSessionCookie(w)
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}
	h.render(w, status, "profile.html", PageData{
		Title: "Profile",
		Error: msg,
		User:  user,
	})
}
