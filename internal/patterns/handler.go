package patterns

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/quiltfolk/quiltfolk/internal/auth"
	"github.com/quiltfolk/quiltfolk/internal/platform/httpx"
	"github.com/quiltfolk/quiltfolk/internal/shared"
	"github.com/quiltfolk/quiltfolk/internal/subscription"
)

// Handler wires pattern endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	authMW    auth.Middleware
	validator *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service, authMW auth.Middleware) *Handler {
	return &Handler{logger: logger, service: service, authMW: authMW, validator: validator.New()}
}

// MountRoutes registers pattern routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.handleList)
	r.Get("/popular", h.handlePopular)
	r.Get("/{slug}", h.handleGet)

	r.Group(func(r chi.Router) {
		r.Use(h.authMW.RequireUser)
		r.Get("/{slug}/download", h.handleDownload)
		r.Post("/{slug}/favorite", h.handleFavorite)
		r.Delete("/{slug}/favorite", h.handleUnfavorite)
	})

	r.Group(func(r chi.Router) {
		r.Use(h.authMW.RequireUser, h.authMW.RequireDesigner)
		r.Post("/", h.handleCreate)
	})
}

type listResponse struct {
	Patterns   []Pattern         `json:"patterns"`
	Pagination shared.Pagination `json:"pagination"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	page, perPage := shared.PageParams(r, 20, 100)
	q := r.URL.Query()
	patterns, pagination, err := h.service.List(r.Context(), ListFilter{
		Category:   q.Get("category"),
		Difficulty: q.Get("difficulty"),
		Query:      q.Get("q"),
		Page:       page,
		PerPage:    perPage,
	})
	if err != nil {
		h.logger.Error("list patterns", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	if patterns == nil {
		patterns = []Pattern{}
	}
	httpx.JSON(w, http.StatusOK, listResponse{Patterns: patterns, Pagination: pagination})
}

func (h *Handler) handlePopular(w http.ResponseWriter, r *http.Request) {
	patterns, err := h.service.Popular(r.Context())
	if err != nil {
		h.logger.Error("popular patterns", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	if patterns == nil {
		patterns = []Pattern{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"patterns": patterns})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	pattern, err := h.service.Get(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "no such pattern")
			return
		}
		h.logger.Error("get pattern", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, pattern)
}

// handleDownload hands out the pattern file. Premium files need an
// active subscription or running trial; free files only need a sign-in.
func (h *Handler) handleDownload(w http.ResponseWriter, r *http.Request) {
	pattern, err := h.service.Get(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "no such pattern")
			return
		}
		h.logger.Error("download pattern", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	if pattern.Premium {
		user := auth.UserFromContext(r.Context())
		if !subscription.Active(user.SubscriptionStatus, user.TrialEndsAt, time.Now().UTC()) {
			httpx.Problem(w, http.StatusForbidden, "Forbidden", "an active subscription is required for premium patterns")
			return
		}
	}
	httpx.JSON(w, http.StatusOK, Download{Slug: pattern.Slug, PDFURL: pattern.PDFURL})
}

type createRequest struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	Category    string `json:"category" validate:"required"`
	Difficulty  string `json:"difficulty" validate:"required,oneof=beginner intermediate advanced"`
	PieceCount  int    `json:"pieceCount" validate:"gte=0"`
	Premium     bool   `json:"premium"`
	ImageURL    string `json:"imageUrl" validate:"omitempty,url"`
	PDFURL      string `json:"pdfUrl" validate:"omitempty,url"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid pattern fields")
		return
	}
	user := auth.UserFromContext(r.Context())
	pattern, err := h.service.Create(r.Context(), user.ID, CreateInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Difficulty:  req.Difficulty,
		PieceCount:  req.PieceCount,
		Premium:     req.Premium,
		ImageURL:    req.ImageURL,
		PDFURL:      req.PDFURL,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, pattern)
}
