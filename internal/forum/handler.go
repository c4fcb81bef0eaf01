package forum

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/quiltfolk/quiltfolk/internal/auth"
	"github.com/quiltfolk/quiltfolk/internal/platform/httpx"
	"github.com/quiltfolk/quiltfolk/internal/shared"
)

// Handler wires forum endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	authMW  auth.Middleware
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service, authMW auth.Middleware) *Handler {
	return &Handler{logger: logger, service: service, authMW: authMW}
}

// MountRoutes registers forum routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/categories", h.handleCategories)
	r.Get("/categories/{slug}/threads", h.handleThreads)
	r.Get("/threads/{id}", h.handleThread)

	r.Group(func(r chi.Router) {
		r.Use(h.authMW.RequireUser)
		r.Post("/categories/{slug}/threads", h.handleStartThread)
		r.Post("/threads/{id}/posts", h.handleReply)
	})
}

func (h *Handler) handleCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.Categories(r.Context())
	if err != nil {
		h.logger.Error("list forum categories", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	if categories == nil {
		categories = []Category{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"categories": categories})
}

type threadsResponse struct {
	Category   Category          `json:"category"`
	Threads    []Thread          `json:"threads"`
	Pagination shared.Pagination `json:"pagination"`
}

func (h *Handler) handleThreads(w http.ResponseWriter, r *http.Request) {
	page, perPage := shared.PageParams(r, 20, 100)
	category, threads, pagination, err := h.service.Threads(r.Context(), chi.URLParam(r, "slug"), page, perPage)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "no such category")
			return
		}
		h.logger.Error("list threads", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	if threads == nil {
		threads = []Thread{}
	}
	httpx.JSON(w, http.StatusOK, threadsResponse{Category: *category, Threads: threads, Pagination: pagination})
}

func (h *Handler) handleThread(w http.ResponseWriter, r *http.Request) {
	thread, posts, err := h.service.Thread(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "no such thread")
			return
		}
		h.logger.Error("get thread", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	if posts == nil {
		posts = []Post{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"thread": thread, "posts": posts})
}

type startThreadRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

func (h *Handler) handleStartThread(w http.ResponseWriter, r *http.Request) {
	var req startThreadRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	user := auth.UserFromContext(r.Context())
	thread, err := h.service.StartThread(r.Context(), user.ID, user.DisplayName, StartThreadInput{
		CategorySlug: chi.URLParam(r, "slug"),
		Title:        req.Title,
		Body:         req.Body,
	})
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "no such category")
			return
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, thread)
}

type replyRequest struct {
	Body string `json:"body"`
}

func (h *Handler) handleReply(w http.ResponseWriter, r *http.Request) {
	var req replyRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	user := auth.UserFromContext(r.Context())
	post, err := h.service.Reply(r.Context(), chi.URLParam(r, "id"), user.ID, user.DisplayName, req.Body)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "no such thread")
			return
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, post)
}
