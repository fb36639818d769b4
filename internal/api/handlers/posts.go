package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/hugh/blogit/internal/api/dto"
	"github.com/hugh/blogit/internal/api/middleware"
	"github.com/hugh/blogit/internal/posts"
)

type PostHandler struct {
	filter  *posts.Filter
	service *posts.Service
	logger  *slog.Logger
}

func NewPostHandler(filter *posts.Filter, service *posts.Service, logger *slog.Logger) *PostHandler {
	return &PostHandler{filter: filter, service: service, logger: logger}
}

// List handles GET /api/posts
func (h *PostHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	params := posts.FilterParams{
		Status: q.Get("status"),
	}
	params.Page, _ = strconv.Atoi(q.Get("page"))
	params.Items, _ = strconv.Atoi(q.Get("items"))

	rawIDs := q["category_ids[]"]
	if len(rawIDs) == 0 {
		rawIDs = q["category_ids"]
	}
	if len(rawIDs) > 0 {
		params.CategoryIDs = dto.ParseIDs(rawIDs)
	}

	page, err := h.filter.List(r.Context(), middleware.GetActor(r.Context()), params)
	if err != nil {
		writeFailure(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.NewPostListResponse(page))
}

// Get handles GET /api/posts/{id}
func (h *PostHandler) Get(w http.ResponseWriter, r *http.Request) {
	item, err := h.service.Get(r.Context(), middleware.GetActor(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.NewPostResponse(*item))
}

// Create handles POST /api/posts
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.PostRequest
	if !decode(w, r, &req) {
		return
	}

	item, err := h.service.Create(r.Context(), middleware.GetActor(r.Context()), req.Post.Input())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.NewPostResponse(*item))
}

// Update handles PUT/PATCH /api/posts/{id}
func (h *PostHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req dto.PostRequest
	if !decode(w, r, &req) {
		return
	}

	item, err := h.service.Update(r.Context(), middleware.GetActor(r.Context()), chi.URLParam(r, "id"), req.Post.Input())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.NewPostResponse(*item))
}

// Delete handles DELETE /api/posts/{id}
func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), middleware.GetActor(r.Context()), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.MessageResponse{Message: "Post deleted successfully"})
}

// BulkUpdate handles PUT /api/posts/bulk_update
func (h *PostHandler) BulkUpdate(w http.ResponseWriter, r *http.Request) {
	var req dto.BulkUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	n, err := h.service.BulkUpdate(r.Context(), middleware.GetActor(r.Context()), dto.ParseIDs(req.IDs), req.Status)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.BulkResponse{Message: "Posts updated successfully", Count: n})
}

// BulkDestroy handles DELETE /api/posts/bulk_destroy
func (h *PostHandler) BulkDestroy(w http.ResponseWriter, r *http.Request) {
	var req dto.BulkDestroyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	n, err := h.service.BulkDestroy(r.Context(), middleware.GetActor(r.Context()), dto.ParseIDs(req.IDs))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.BulkResponse{Message: "Posts deleted successfully", Count: n})
}

func (h *PostHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, posts.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Post not found")
		return
	}
	writeFailure(w, r, h.logger, err)
}
