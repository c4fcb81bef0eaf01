package auth_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quiltfolk/quiltfolk/internal/app"
	"github.com/quiltfolk/quiltfolk/internal/auth"
	"github.com/quiltfolk/quiltfolk/internal/platform/httpx"
	"github.com/quiltfolk/quiltfolk/internal/shared"
	_ "github.com/quiltfolk/quiltfolk/internal/testing/guard"
)

type stubRepo struct {
	usersByID    map[string]*auth.User
	usersByEmail map[string]*auth.User
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		usersByID:    make(map[string]*auth.User),
		usersByEmail: make(map[string]*auth.User),
	}
}

func (s *stubRepo) CreateUser(_ context.Context, user *auth.User) error {
	if _, ok := s.usersByEmail[user.Email]; ok {
		return httpx.ErrDuplicate
	}
	clone := *user
	s.usersByID[user.ID] = &clone
	s.usersByEmail[user.Email] = &clone
	return nil
}

func (s *stubRepo) FindByEmail(_ context.Context, email string) (*auth.User, error) {
	user, ok := s.usersByEmail[email]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return user, nil
}

func (s *stubRepo) FindByID(_ context.Context, id string) (*auth.User, error) {
	user, ok := s.usersByID[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return user, nil
}

func (s *stubRepo) CreateSession(context.Context, string, string, time.Time, string, string) error {
	return nil
}

func (s *stubRepo) DeleteSession(context.Context, string) error { return nil }

func (s *stubRepo) TouchLastLogin(context.Context, string, time.Time) error { return nil }

func newAPIServer(t *testing.T) *httptest.Server {
	t.Helper()

	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = redisClient.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sessions := shared.NewSessionManager(redisClient, "quiltfolk_session", "test-secret", time.Hour, false)
	csrf := shared.NewCSRFManager("csrf-secret")

	service := auth.NewService(newStubRepo())
	handler := auth.NewHandler(logger, service, sessions, csrf)

	r := chi.NewRouter()
	for _, mw := range app.MiddlewareStack(app.MiddlewareConfig{
		Logger:         logger,
		Config:         &app.Config{AppRequestTimeout: 5 * time.Second},
		SessionManager: sessions,
		CSRFManager:    csrf,
	}) {
		r.Use(mw)
	}
	r.Route("/api/auth", handler.MountRoutes)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func newBrowser(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar}
}

func postJSON(t *testing.T, client *http.Client, url string, body any, headers map[string]string) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(data))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := client.Do(req)
	require.NoError(t, err)
	return resp
}

func register(t *testing.T, client *http.Client, baseURL, email string) map[string]any {
	t.Helper()
	resp := postJSON(t, client, baseURL+"/api/auth/register", map[string]string{
		"email":     email,
		"password":  "correct horse",
		"firstName": "Alice",
	}, nil)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var user map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&user))
	return user
}

func TestRegisterStartsTrialAndSession(t *testing.T) {
	srv := newAPIServer(t)
	client := newBrowser(t)

	user := register(t, client, srv.URL, "alice@example.com")
	assert.Equal(t, "trial", user["subscriptionStatus"])
	assert.Equal(t, "quilter", user["status"])
	assert.NotContains(t, user, "password")
	assert.NotContains(t, user, "passwordHash")

	// The register response also established a session.
	resp, err := client.Get(srv.URL + "/api/auth/user")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMutatingRequestsRequireCSRFToken(t *testing.T) {
	srv := newAPIServer(t)
	client := newBrowser(t)

	register(t, client, srv.URL, "alice@example.com")

	// No token: rejected before the handler runs.
	resp := postJSON(t, client, srv.URL+"/api/auth/logout", nil, nil)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Fetch a token and retry.
	tokenResp, err := client.Get(srv.URL + "/api/auth/csrf")
	require.NoError(t, err)
	var payload struct {
		CSRFToken string `json:"csrfToken"`
	}
	require.NoError(t, json.NewDecoder(tokenResp.Body).Decode(&payload))
	_ = tokenResp.Body.Close()
	require.NotEmpty(t, payload.CSRFToken)

	resp = postJSON(t, client, srv.URL+"/api/auth/logout", nil, map[string]string{
		shared.CSRFHeader: payload.CSRFToken,
	})
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Session is gone now.
	userResp, err := client.Get(srv.URL + "/api/auth/user")
	require.NoError(t, err)
	_ = userResp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, userResp.StatusCode)
}

func TestLoginFailuresShareOneMessage(t *testing.T) {
	srv := newAPIServer(t)
	client := newBrowser(t)

	register(t, client, srv.URL, "alice@example.com")

	for _, creds := range []map[string]string{
		{"email": "alice@example.com", "password": "wrong"},
		{"email": "ghost@example.com", "password": "whatever"},
	} {
		resp := postJSON(t, client, srv.URL+"/api/auth/login", creds, nil)
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

		var problem struct {
			Detail string `json:"detail"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&problem))
		_ = resp.Body.Close()
		assert.Equal(t, "Invalid email or password", problem.Detail)
	}
}
