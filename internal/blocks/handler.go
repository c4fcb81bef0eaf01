package blocks

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/quiltfolk/quiltfolk/internal/platform/httpx"
	"github.com/quiltfolk/quiltfolk/internal/shared"
)

// Handler wires block library endpoints. The library is read-only.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers block routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.handleList)
	r.Get("/of-the-month", h.handleOfTheMonth)
	r.Get("/{slug}", h.handleGet)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	blocks, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list blocks", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	if blocks == nil {
		blocks = []Block{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"blocks": blocks})
}

func (h *Handler) handleOfTheMonth(w http.ResponseWriter, r *http.Request) {
	block, err := h.service.OfTheMonth(r.Context())
	if err != nil {
		h.logger.Error("block of the month", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	if block == nil {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "the library is empty")
		return
	}
	httpx.JSON(w, http.StatusOK, block)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	block, err := h.service.Get(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "no such block")
			return
		}
		h.logger.Error("get block", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, block)
}
