package handler

import (
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prn-tf/gatehouse/internal/domain"
	"github.com/prn-tf/gatehouse/internal/metrics"
	"github.com/prn-tf/gatehouse/internal/service"
	"github.com/prn-tf/gatehouse/internal/session"
	"github.com/prn-tf/gatehouse/internal/storage"
)

// fakeAuth authenticates a single known credential pair.
type fakeAuth struct {
	email    string
	password string
	user     *domain.User
	err      error
}

func (f *fakeAuth) Authenticate(ctx context.Context, email, plaintext string) (*domain.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	if email != f.email || plaintext != f.password {
		return nil, domain.ErrInvalidCredentials
	}
	return f.user, nil
}

// fakeUsers is a map-backed stand-in for the user service.
type fakeUsers struct {
	users  map[int64]*domain.User
	nextID int64

	lastUpdate service.UpdateProfileInput
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{users: make(map[int64]*domain.User), nextID: 1}
}

func (f *fakeUsers) Register(ctx context.Context, input service.RegisterInput) (*domain.User, error) {
	for _, u := range f.users {
		if u.Username == input.Username || u.Email == input.Email {
			return nil, domain.ErrUserAlreadyExists
		}
	}
	user := domain.NewUser(input.Username, input.Email, "hash")
	user.ID = f.nextID
	f.nextID++
	f.users[user.ID] = user
	return user, nil
}

func (f *fakeUsers) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, domain.ErrUserNotFound
}

func (f *fakeUsers) UpdateProfile(ctx context.Context, input service.UpdateProfileInput) (*domain.User, error) {
	f.lastUpdate = input
	u, ok := f.users[input.UserID]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	if input.Username != "" {
		u.Username = input.Username
	}
	if input.Email != "" {
		u.Email = input.Email
	}
	if input.AvatarPath != "" {
		u.AvatarPath = input.AvatarPath
	}
	return u, nil
}

func (f *fakeUsers) Delete(ctx context.Context, userID int64) error {
	if _, ok := f.users[userID]; !ok {
		return domain.ErrUserNotFound
	}
	delete(f.users, userID)
	return nil
}

// testEnv wires a router around fakes and an in-memory session store.
type testEnv struct {
	router   http.Handler
	auth     *fakeAuth
	users    *fakeUsers
	sessions *session.MemoryStore
	user     *domain.User
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	users := newFakeUsers()
	user, err := users.Register(context.Background(), service.RegisterInput{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "correct-horse",
	})
	require.NoError(t, err)

	auth := &fakeAuth{email: "alice@example.com", password: "correct-horse", user: user}

	sessions := session.NewMemoryStore()
	t.Cleanup(func() { sessions.Close() })

	avatars, err := storage.NewFilesystemBackend(t.TempDir(), 1024*1024, zerolog.Nop())
	require.NoError(t, err)

	router := NewRouter(RouterConfig{
		AuthService:    auth,
		UserService:    users,
		Sessions:       sessions,
		Avatars:        avatars,
		Metrics:        metrics.New(),
		SessionTTL:     time.Hour,
		MaxUploadBytes: 1024 * 1024,
		Logger:         zerolog.Nop(),
	})

	return &testEnv{router: router, auth: auth, users: users, sessions: sessions, user: user}
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

// login performs a form login and returns the issued session cookie.
func (e *testEnv) login(t *testing.T) *http.Cookie {
	t.Helper()
	form := url.Values{"email": {"alice@example.com"}, "password": {"correct-horse"}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := e.do(req)

	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "/dashboard", rec.Header().Get("Location"))
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookie && c.Value != "" {
			return c
		}
	}
	t.Fatal("no session cookie issued")
	return nil
}

func TestRootRedirectsToLogin(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())
}

func TestLoginSuccess(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t)

	assert.True(t, cookie.HttpOnly)

	userID, err := env.sessions.Resolve(context.Background(), cookie.Value)
	require.NoError(t, err)
	assert.Equal(t, env.user.ID, userID)
}

func TestLoginInvalidCredentials(t *testing.T) {
	env := newTestEnv(t)

	form := url.Values{"email": {"alice@example.com"}, "password": {"wrong"}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := env.do(req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid credentials")
}

func TestLoginLockedAccount(t *testing.T) {
	env := newTestEnv(t)
	env.auth.err = domain.ErrAccountLocked

	form := url.Values{"email": {"alice@example.com"}, "password": {"correct-horse"}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := env.do(req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "locked")
}

func TestRegister(t *testing.T) {
	env := newTestEnv(t)

	form := url.Values{
		"username": {"bob"},
		"email":    {"bob@example.com"},
		"password": {"longenough"},
	}
	req := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := env.do(req)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}

func TestRegisterDuplicate(t *testing.T) {
	env := newTestEnv(t)

	form := url.Values{
		"username": {"alice"},
		"email":    {"alice@example.com"},
		"password": {"longenough"},
	}
	req := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := env.do(req)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "already taken")
}

func TestDashboardRequiresSession(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}

func TestDashboardWithSession(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t)

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.AddCookie(cookie)
	rec := env.do(req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "alice")
}

func TestDashboardRejectsGarbageToken(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookie, Value: "forged-token"})
	rec := env.do(req)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}

func TestLogoutDestroysSession(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t)

	req := httptest.NewRequest(http.MethodGet, "/logout", nil)
	req.AddCookie(cookie)
	rec := env.do(req)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))

	// The old token no longer grants access.
	req = httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.AddCookie(cookie)
	rec = env.do(req)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}

// multipartForm builds a multipart body from fields plus an optional file part.
func multipartForm(t *testing.T, fields map[string]string, fileField, fileName, fileContent string) (io.Reader, string) {
	t.Helper()
	var buf strings.Builder
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if fileField != "" {
		part, err := w.CreateFormFile(fileField, fileName)
		require.NoError(t, err)
		_, err = part.Write([]byte(fileContent))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return strings.NewReader(buf.String()), w.FormDataContentType()
}

func TestProfileUpdateEmailOnly(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t)

	body, contentType := multipartForm(t, map[string]string{"email": "new@example.com"}, "", "", "")
	req := httptest.NewRequest(http.MethodPost, "/profile", body)
	req.Header.Set("Content-Type", contentType)
	req.AddCookie(cookie)
	rec := env.do(req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Profile updated successfully!")

	// Only the email field reached the service; no avatar path was set.
	assert.Equal(t, "new@example.com", env.users.lastUpdate.Email)
	assert.Empty(t, env.users.lastUpdate.Username)
	assert.Empty(t, env.users.lastUpdate.AvatarPath)
}

func TestProfileUpdateWithAvatar(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t)

	body, contentType := multipartForm(t, nil, "avatar", "me.png", "fake png bytes")
	req := httptest.NewRequest(http.MethodPost, "/profile", body)
	req.Header.Set("Content-Type", contentType)
	req.AddCookie(cookie)
	rec := env.do(req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.True(t, strings.HasPrefix(env.users.lastUpdate.AvatarPath, "/uploads/"),
		"avatar path %q", env.users.lastUpdate.AvatarPath)
	assert.True(t, strings.HasSuffix(env.users.lastUpdate.AvatarPath, ".png"))
}

func TestProfileUpdateRejectsBadAvatarType(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t)

	body, contentType := multipartForm(t, nil, "avatar", "evil.exe", "MZ")
	req := httptest.NewRequest(http.MethodPost, "/profile", body)
	req.Header.Set("Content-Type", contentType)
	req.AddCookie(cookie)
	rec := env.do(req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	// The profile itself was not touched.
	assert.Empty(t, env.users.lastUpdate.AvatarPath)
}

func TestProfileDelete(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t)

	req := httptest.NewRequest(http.MethodPost, "/profile/delete", nil)
	req.AddCookie(cookie)
	rec := env.do(req)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/register", rec.Header().Get("Location"))

	// The account is gone and the old session no longer resolves.
	_, err := env.users.GetByID(context.Background(), env.user.ID)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
	_, err = env.sessions.Resolve(context.Background(), cookie.Value)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	req = httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.AddCookie(cookie)
	rec = env.do(req)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}

func TestStaticAssets(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(httptest.NewRequest(http.MethodGet, "/static/default-profile.svg", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMapError(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{domain.ErrInvalidCredentials, http.StatusUnauthorized},
		{domain.ErrAccountLocked, http.StatusForbidden},
		{domain.ErrUserAlreadyExists, http.StatusConflict},
		{domain.ErrUserNotFound, http.StatusNotFound},
		{service.ErrInvalidEmail, http.StatusBadRequest},
		{storage.ErrFileTooLarge, http.StatusRequestEntityTooLarge},
		{storage.ErrUnsupportedType, http.StatusBadRequest},
		{io.ErrUnexpectedEOF, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		status, msg := mapError(tt.err)
		assert.Equal(t, tt.status, status, "error %v", tt.err)
		assert.NotEmpty(t, msg)
	}
}
