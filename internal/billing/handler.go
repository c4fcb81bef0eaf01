// Package billing exposes the entitlement view derived from the billing
// fields on the user record. Webhook-driven state transitions are owned
// by the external billing collaborator; nothing here mutates billing
// state.
package billing

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/quiltfolk/quiltfolk/internal/auth"
	"github.com/quiltfolk/quiltfolk/internal/platform/httpx"
	"github.com/quiltfolk/quiltfolk/internal/subscription"
)

// Handler serves the subscription status endpoint.
type Handler struct {
	authMW auth.Middleware
	now    func() time.Time
}

// NewHandler constructs a Handler.
func NewHandler(authMW auth.Middleware) *Handler {
	return &Handler{authMW: authMW, now: func() time.Time { return time.Now().UTC() }}
}

// MountRoutes registers billing routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.authMW.RequireUser)
		r.Get("/subscription", h.handleSubscription)
	})
}

// EntitlementView is the display-side projection of billing state. The
// active flag comes from the same evaluator that gates premium
// features, so the two can never disagree.
type EntitlementView struct {
	Status        string     `json:"status"`
	Plan          string     `json:"plan"`
	TrialEndsAt   *time.Time `json:"trialEndsAt"`
	TrialDaysLeft int        `json:"trialDaysLeft"`
	Active        bool       `json:"active"`
}

func (h *Handler) handleSubscription(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	now := h.now()
	httpx.JSON(w, http.StatusOK, EntitlementView{
		Status:        user.SubscriptionStatus,
		Plan:          user.SubscriptionPlan,
		TrialEndsAt:   user.TrialEndsAt,
		TrialDaysLeft: subscription.TrialDaysLeft(user.TrialEndsAt, now),
		Active:        subscription.Active(user.SubscriptionStatus, user.TrialEndsAt, now),
	})
}
