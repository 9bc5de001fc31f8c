package handler

import (
	"context"
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/prn-tf/gatehouse/internal/domain"
	"github.com/prn-tf/gatehouse/internal/service"
	"github.com/prn-tf/gatehouse/internal/session"
	"github.com/prn-tf/gatehouse/internal/storage"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFiles embed.FS

// sessionCookie is the name of the session cookie.
const sessionCookie = "gatehouse_session"

// authenticator is the slice of AuthService the handlers need.
type authenticator interface {
	Authenticate(ctx context.Context, email, plaintext string) (*domain.User, error)
}

// userManager is the slice of UserService the handlers need.
type userManager interface {
	Register(ctx context.Context, input service.RegisterInput) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	UpdateProfile(ctx context.Context, input service.UpdateProfileInput) (*domain.User, error)
	Delete(ctx context.Context, userID int64) error
}

// Handler carries the dependencies shared by all HTTP handlers.
type Handler struct {
	auth         authenticator
	users        userManager
	sessions     session.Store
	avatars      storage.Backend
	sessionTTL   time.Duration
	cookieSecure bool
	maxUpload    int64
	templates    *template.Template
	logger       zerolog.Logger
}

// mustParseTemplates parses the embedded page templates.
func mustParseTemplates() *template.Template {
	return template.Must(template.ParseFS(templateFS, "templates/*.html"))
}

// staticFS returns the embedded static assets rooted at static/.
func staticFS() fs.FS {
	sub, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

// PageData contains common page data.
type PageData struct {
	Title   string
	Error   string
	Success string
	User    *domain.User
}

// render writes a template response.
func (h *Handler) render(w http.ResponseWriter, status int, name string, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.templates.ExecuteTemplate(w, name, data); err != nil {
		h.logger.Error().Err(err).Str("template", name).Msg("failed to render template")
	}
}

// setSessionCookie sets the session cookie on the response.
func (h *Handler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.sessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// clearSessionCookie expires the session cookie.
func (h *Handler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
