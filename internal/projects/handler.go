package projects

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/quiltfolk/quiltfolk/internal/auth"
	"github.com/quiltfolk/quiltfolk/internal/platform/httpx"
	"github.com/quiltfolk/quiltfolk/internal/shared"
)

// Handler wires project gallery endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	authMW  auth.Middleware
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service, authMW auth.Middleware) *Handler {
	return &Handler{logger: logger, service: service, authMW: authMW}
}

// MountRoutes registers project routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.handleGallery)
	r.Get("/{id}", h.handleGet)

	r.Group(func(r chi.Router) {
		r.Use(h.authMW.RequireUser)
		r.Post("/", h.handleCreate)
		r.Patch("/{id}", h.handleUpdate)
		r.Post("/{id}/like", h.handleLike)
		r.Delete("/{id}/like", h.handleUnlike)
	})
}

type galleryResponse struct {
	Projects   []Project         `json:"projects"`
	Pagination shared.Pagination `json:"pagination"`
}

func (h *Handler) handleGallery(w http.ResponseWriter, r *http.Request) {
	if owner := r.URL.Query().Get("owner"); owner != "" {
		projects, err := h.service.ByOwner(r.Context(), owner)
		if err != nil {
			h.logger.Error("list projects by owner", slog.Any("error", err))
			httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
			return
		}
		if projects == nil {
			projects = []Project{}
		}
		httpx.JSON(w, http.StatusOK, map[string]any{"projects": projects})
		return
	}

	page, perPage := shared.PageParams(r, 20, 100)
	projects, pagination, err := h.service.Gallery(r.Context(), page, perPage)
	if err != nil {
		h.logger.Error("list gallery", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	if projects == nil {
		projects = []Project{}
	}
	httpx.JSON(w, http.StatusOK, galleryResponse{Projects: projects, Pagination: pagination})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	project, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "no such project")
			return
		}
		h.logger.Error("get project", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, project)
}

type createRequest struct {
	PatternID *string `json:"patternId"`
	Title     string  `json:"title"`
	Notes     string  `json:"notes"`
	PhotoURL  string  `json:"photoUrl"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	user := auth.UserFromContext(r.Context())
	project, err := h.service.Create(r.Context(), user.ID, CreateInput{
		PatternID: req.PatternID,
		Title:     req.Title,
		Notes:     req.Notes,
		PhotoURL:  req.PhotoURL,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, project)
}

type updateRequest struct {
	Title    *string `json:"title"`
	Notes    *string `json:"notes"`
	PhotoURL *string `json:"photoUrl"`
	Status   *string `json:"status"`
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	user := auth.UserFromContext(r.Context())
	project, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), user.ID, UpdateInput{
		Title:    req.Title,
		Notes:    req.Notes,
		PhotoURL: req.PhotoURL,
		Status:   req.Status,
	})
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "no such project")
			return
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, project)
}

func (h *Handler) handleLike(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	if err := h.service.Like(r.Context(), chi.URLParam(r, "id"), user.ID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "no such project")
			return
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "Liked"})
}

func (h *Handler) handleUnlike(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	if err := h.service.Unlike(r.Context(), chi.URLParam(r, "id"), user.ID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "no such project")
			return
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "Unliked"})
}
