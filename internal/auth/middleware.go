package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/quiltfolk/quiltfolk/internal/platform/httpx"
	"github.com/quiltfolk/quiltfolk/internal/shared"
	"github.com/quiltfolk/quiltfolk/internal/subscription"
)

type userContextKey struct{}

// ContextWithUser stores the authenticated user in context.
func ContextWithUser(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// UserFromContext extracts the authenticated user from context.
func UserFromContext(ctx context.Context) *User {
	user, _ := ctx.Value(userContextKey{}).(*User)
	return user
}

// Middleware guards routes that need an authenticated user or an active
// entitlement.
type Middleware struct {
	Service        *Service
	SessionManager *shared.SessionManager
	Logger         *slog.Logger
}

// RequireUser resolves the session user and stores it in context.
// No session user yields 401; a session whose account has vanished
// yields 404 and destroys the stale session, so clients know to force a
// clean sign-in rather than retry credentials.
func (m Middleware) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		if sess == nil || sess.User() == "" {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
			return
		}
		user, err := m.Service.UserByID(r.Context(), sess.User())
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				if m.SessionManager != nil {
					m.SessionManager.Destroy(sess)
				}
				httpx.Problem(w, http.StatusNotFound, "Not Found", "account no longer exists")
				return
			}
			if m.Logger != nil {
				m.Logger.Error("load session user", slog.Any("error", err))
			}
			httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
			return
		}
		next.ServeHTTP(w, r.WithContext(ContextWithUser(r.Context(), user)))
	})
}

// RequireSubscriber allows only users with an active subscription or a
// running trial. It must run after RequireUser.
func (m Middleware) RequireSubscriber(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := UserFromContext(r.Context())
		if user == nil {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
			return
		}
		if !subscription.Active(user.SubscriptionStatus, user.TrialEndsAt, time.Now().UTC()) {
			httpx.Problem(w, http.StatusForbidden, "Forbidden", "an active subscription is required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireDesigner allows only accounts registered as designers. It must
// run after RequireUser.
func (m Middleware) RequireDesigner(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := UserFromContext(r.Context())
		if user == nil {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
			return
		}
		if user.Status != StatusDesigner {
			httpx.Problem(w, http.StatusForbidden, "Forbidden", "designer account required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
