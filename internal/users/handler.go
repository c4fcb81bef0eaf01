package users

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/quiltfolk/quiltfolk/internal/auth"
	"github.com/quiltfolk/quiltfolk/internal/platform/httpx"
	"github.com/quiltfolk/quiltfolk/internal/shared"
)

// Handler wires member profile endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	authMW  auth.Middleware
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service, authMW auth.Middleware) *Handler {
	return &Handler{logger: logger, service: service, authMW: authMW}
}

// MountRoutes registers profile routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/{id}", h.handleProfile)
	r.Group(func(r chi.Router) {
		r.Use(h.authMW.RequireUser)
		r.Patch("/me", h.handleUpdateMe)
		r.Put("/me/preferences", h.handleUpdatePreferences)
	})
}

func (h *Handler) handleProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.service.Profile(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "no such member")
			return
		}
		h.logger.Error("load profile", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, profile)
}

type updateMeRequest struct {
	FirstName   string `json:"firstName"`
	DisplayName string `json:"displayName"`
}

func (h *Handler) handleUpdateMe(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	var req updateMeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := h.service.UpdateNames(r.Context(), user.ID, req.FirstName, req.DisplayName); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "Profile updated"})
}

func (h *Handler) handleUpdatePreferences(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	var prefs Preferences
	if err := httpx.DecodeJSON(r, &prefs); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := h.service.UpdatePreferences(r.Context(), user.ID, prefs); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, prefs)
}
