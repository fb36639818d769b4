package handlers

import (
	"log/slog"
	"net/http"

	"github.com/hugh/blogit/internal/api/dto"
	"github.com/hugh/blogit/internal/categories"
)

type CategoryHandler struct {
	service *categories.Service
	logger  *slog.Logger
}

func NewCategoryHandler(service *categories.Service, logger *slog.Logger) *CategoryHandler {
	return &CategoryHandler{service: service, logger: logger}
}

// List handles GET /api/categories
func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.List(r.Context())
	if err != nil {
		writeFailure(w, r, h.logger, err)
		return
	}

	resp := make([]dto.CategoryResponse, 0, len(list))
	for i := range list {
		resp = append(resp, dto.NewCategoryResponse(&list[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Create handles POST /api/categories
func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CategoryRequest
	if !decode(w, r, &req) {
		return
	}

	category, err := h.service.Create(r.Context(), req.Category.Name)
	if err != nil {
		writeFailure(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.NewCategoryResponse(category))
}
