package shared

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) (*SessionManager, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewSessionManager(client, "quiltfolk_session", "test-secret", time.Hour, false), mr
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("cookie %s not set", name)
	return nil
}

func TestSessionRoundTrip(t *testing.T) {
	sm, _ := newTestManager(t)
	ctx := context.Background()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sm.Load(ctx, req)
	require.NoError(t, err)
	sess.SetUser("user-1")
	sess.Set("theme", "dark")

	rec := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, rec, req, sess))
	cookie := sessionCookie(t, rec, "quiltfolk_session")
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, http.SameSiteStrictMode, cookie.SameSite)

	// Replay the cookie and get the same state back.
	req2 := httptest.NewRequest(http.MethodGet, "/", nil)
	req2.AddCookie(cookie)
	loaded, err := sm.Load(ctx, req2)
	require.NoError(t, err)
	assert.Equal(t, "user-1", loaded.User())
	assert.Equal(t, "dark", loaded.Get("theme"))
}

func TestSessionExpiryLooksLikeNoSession(t *testing.T) {
	sm, mr := newTestManager(t)
	ctx := context.Background()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sm.Load(ctx, req)
	require.NoError(t, err)
	sess.SetUser("user-1")

	rec := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, rec, req, sess))
	cookie := sessionCookie(t, rec, "quiltfolk_session")

	mr.FastForward(2 * time.Hour)

	req2 := httptest.NewRequest(http.MethodGet, "/", nil)
	req2.AddCookie(cookie)
	loaded, err := sm.Load(ctx, req2)
	require.NoError(t, err)
	assert.Empty(t, loaded.User())
}

func TestDestroyClearsStateAndCookie(t *testing.T) {
	sm, mr := newTestManager(t)
	ctx := context.Background()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sm.Load(ctx, req)
	require.NoError(t, err)
	sess.SetUser("user-1")

	rec := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, rec, req, sess))
	cookie := sessionCookie(t, rec, "quiltfolk_session")

	sm.Destroy(sess)
	rec2 := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, rec2, req, sess))

	cleared := sessionCookie(t, rec2, "quiltfolk_session")
	assert.Equal(t, -1, cleared.MaxAge)
	assert.False(t, mr.Exists("session:"+cookie.Value))
}
