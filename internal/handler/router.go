// Package handler provides the HTTP surface of Gatehouse: registration,
// login, and the session-guarded dashboard and profile pages.
package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/prn-tf/gatehouse/internal/metrics"
	"github.com/prn-tf/gatehouse/internal/session"
	"github.com/prn-tf/gatehouse/internal/storage"
)

// RouterConfig contains everything the router needs.
type RouterConfig struct {
	AuthService    authenticator
	UserService    userManager
	Sessions       session.Store
	Avatars        storage.Backend
	Metrics        *metrics.Metrics
	SessionTTL     time.Duration
	CookieSecure   bool
	MaxUploadBytes int64

	// UploadsDir, when non-empty, is served under /uploads/
	// (filesystem avatar backend).
	UploadsDir string

	Logger zerolog.Logger
}

// NewRouter builds the chi router with all application routes.
func NewRouter(cfg RouterConfig) http.Handler {
	h := &Handler{
		auth:         cfg.AuthService,
		users:        cfg.UserService,
		sessions:     cfg.Sessions,
		avatars:      cfg.Avatars,
		sessionTTL:   cfg.SessionTTL,
		cookieSecure: cfg.CookieSecure,
		maxUpload:    cfg.MaxUploadBytes,
		templates:    mustParseTemplates(),
		logger:       cfg.Logger.With().Str("component", "handler").Logger(),
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(requestLogger(cfg.Logger))
	r.Use(middleware.Recoverer)
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware)
	}

	// Public pages
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/login", http.StatusFound)
	})
	r.Get("/login", h.handleLoginPage)
	r.Post("/login", h.handleLogin)
	r.Get("/register", h.handleRegisterPage)
	r.Post("/register", h.handleRegister)
	r.Get("/logout", h.handleLogout)

	r.Get("/healthz", h.handleHealth)

	// Session-guarded pages
	r.Group(func(r chi.Router) {
		r.Use(h.requireSession)
		r.Get("/dashboard", h.handleDashboard)
		r.Get("/profile", h.handleProfilePage)
		r.Post("/profile", h.handleProfileUpdate)
		r.Post("/profile/delete", h.handleProfileDelete)
	})

	// Static assets and filesystem-backed avatars
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS()))))
	if cfg.UploadsDir != "" {
		r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.UploadsDir))))
	}

	return r
}

// handleHealth handles health check requests.
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"healthy"}`))
}

// requestLogger logs each request with zerolog.
func requestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			logger.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("duration", time.Since(start)).
				Str("remote", r.RemoteAddr).
				Msg("request")
		})
	}
}
