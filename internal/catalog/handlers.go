package catalog

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/toko-dyntax/internal/common"
)

var categoryErrors = []common.ErrorMapping{
	{Target: ErrCategoryNotFound, Status: http.StatusNotFound, Code: "CATEGORY_NOT_FOUND"},
}

// Handler serves the read-only category endpoints used by the admin form.
type Handler struct {
	service *Service
}

// NewHandler wires svc into HTTP handlers.
func NewHandler(svc *Service) *Handler {
	return &Handler{service: svc}
}

// Categories lists every category, empty ones included.
func (h *Handler) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.ListCategories(r.Context())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, categories)
}

// Category returns a single category by numeric id.
func (h *Handler) Category(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		common.JSONError(w, http.StatusBadRequest, "INVALID_CATEGORY_ID", "category id must be a positive integer", nil)
		return
	}
	category, err := h.service.Category(r.Context(), id)
	if err != nil {
		common.WriteError(w, err, categoryErrors...)
		return
	}
	common.Data(w, http.StatusOK, category)
}
