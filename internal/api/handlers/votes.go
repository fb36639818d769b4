package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hugh/blogit/internal/api/dto"
	"github.com/hugh/blogit/internal/api/middleware"
	"github.com/hugh/blogit/internal/votes"
)

type VoteHandler struct {
	tally  *votes.Tally
	logger *slog.Logger
}

func NewVoteHandler(tally *votes.Tally, logger *slog.Logger) *VoteHandler {
	return &VoteHandler{tally: tally, logger: logger}
}

// Create handles POST /api/posts/{id}/votes
func (h *VoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	postID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "Post not found")
		return
	}

	var req dto.VoteRequest
	if !decode(w, r, &req) {
		return
	}

	actor := middleware.GetActor(r.Context())
	result, err := h.tally.Cast(r.Context(), actor, postID, req.Vote.VoteType)
	if err != nil {
		if errors.Is(err, votes.ErrPostNotFound) {
			writeError(w, http.StatusNotFound, "Post not found")
			return
		}
		writeFailure(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.NewVoteResponse(result))
}
