package comments

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/quillpress/quillpress/internal/identity"
	"github.com/quillpress/quillpress/internal/platform/httpx"
)

type editRequest struct {
	Content string `json:"content" validate:"required,max=2000"`
}

// Handler wires HTTP endpoints for comment moderation.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers comment routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Put("/{id}", h.edit)
	r.Delete("/{id}", h.delete)
}

func (h *Handler) edit(w http.ResponseWriter, r *http.Request) {
	principal, ok := identity.PrincipalFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}

	var req editRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	comment, err := h.service.Edit(r.Context(), principal, id, req.Content)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, comment)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	principal, ok := identity.PrincipalFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}

	if err := h.service.Delete(r.Context(), principal, id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.NoContent(w)
}
