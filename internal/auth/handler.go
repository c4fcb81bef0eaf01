package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/quiltfolk/quiltfolk/internal/platform/httpx"
	"github.com/quiltfolk/quiltfolk/internal/shared"
)

// invalidCredentialsDetail is the one message returned for every failed
// login, whether the email is unknown or the password is wrong.
const invalidCredentialsDetail = "Invalid email or password"

// Handler wires the JSON endpoints for authentication flows.
type Handler struct {
	logger         *slog.Logger
	service        *Service
	sessionManager *shared.SessionManager
	csrfManager    *shared.CSRFManager
	validator      *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, sessions *shared.SessionManager, csrf *shared.CSRFManager) *Handler {
	return &Handler{
		logger:         logger,
		service:        service,
		sessionManager: sessions,
		csrfManager:    csrf,
		validator:      validator.New(),
	}
}

// MountRoutes registers auth routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/register", h.handleRegister)
	r.Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)
	r.Get("/user", h.handleCurrentUser)
	r.Get("/csrf", h.handleCSRF)
}

type registerRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	FirstName string `json:"firstName" validate:"required"`
	Status    string `json:"status" validate:"omitempty,oneof=quilter designer"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", validationDetail(err))
		return
	}

	user, err := h.service.Register(r.Context(), RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		Status:    req.Status,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	h.establishSession(r, user)
	httpx.JSON(w, http.StatusCreated, user.Public())
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", invalidCredentialsDetail)
		return
	}

	user, err := h.service.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, shared.ErrInvalidCredentials) {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", invalidCredentialsDetail)
			return
		}
		h.logger.Error("authenticate", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}

	h.establishSession(r, user)

	// Last-seen bookkeeping is fire-and-forget: it never delays or
	// fails the login response.
	go func(id string) {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), 5*time.Second)
		defer cancel()
		if err := h.service.TouchLastLogin(ctx, id); err != nil {
			h.logger.Warn("touch last login", slog.Any("error", err))
		}
	}(user.ID)

	httpx.JSON(w, http.StatusOK, user.Public())
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess != nil && sess.User() != "" {
		if err := h.service.RemoveSession(r.Context(), sess.ID); err != nil {
			h.logger.Error("remove session", slog.Any("error", err))
			httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "failed to end session")
			return
		}
	}
	if sess != nil {
		h.sessionManager.Destroy(sess)
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

// handleCurrentUser resolves the session to a sanitized user. A missing
// or expired session is the normal unauthenticated state (401); a
// session pointing at a deleted account is distinct (404) so clients
// can force a clean sign-out instead of retrying credentials.
func (h *Handler) handleCurrentUser(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil || sess.User() == "" {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "unauthenticated")
		return
	}
	user, err := h.service.UserByID(r.Context(), sess.User())
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			h.sessionManager.Destroy(sess)
			httpx.Problem(w, http.StatusNotFound, "Not Found", "account no longer exists")
			return
		}
		h.logger.Error("current user", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, user.Public())
}

func (h *Handler) handleCSRF(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	token, err := h.csrfManager.EnsureToken(r.Context(), sess)
	if err != nil {
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"csrfToken": token})
}

// establishSession binds the request session to the user and mirrors it
// to the postgres audit table. The audit write is advisory only.
func (h *Handler) establishSession(r *http.Request, user *User) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		h.logger.Error("session missing during sign-in")
		return
	}
	sess.SetUser(user.ID)
	expiresAt := time.Now().Add(h.sessionManager.TTL())
	if err := h.service.RegisterSession(r.Context(), sess.ID, user.ID, expiresAt, r.RemoteAddr, r.UserAgent()); err != nil {
		h.logger.Warn("register session", slog.Any("error", err))
	}
}

func validationDetail(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return "invalid request"
	}
	detail := ""
	for i, fieldErr := range fieldErrs {
		if i > 0 {
			detail += "; "
		}
		switch fieldErr.Tag() {
		case "required":
			detail += fieldErr.Field() + " is required"
		case "email":
			detail += fieldErr.Field() + " must be a valid email"
		case "min":
			detail += fieldErr.Field() + " is too short"
		case "oneof":
			detail += fieldErr.Field() + " must be one of: " + fieldErr.Param()
		default:
			detail += fieldErr.Field() + " is invalid"
		}
	}
	return detail
}
