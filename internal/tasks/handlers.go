package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/hugh/blogit/internal/votes"
)

type Handler struct {
	tally  *votes.Tally
	logger *slog.Logger
}

func NewHandler(tally *votes.Tally, logger *slog.Logger) *Handler {
	return &Handler{
		tally:  tally,
		logger: logger,
	}
}

func (h *Handler) RegisterHandlers(mux *asynq.ServeMux) {
	mux.HandleFunc(TypeVoteReconcile, h.HandleVoteReconcile)
}

func (h *Handler) HandleVoteReconcile(ctx context.Context, t *asynq.Task) error {
	var payload VoteReconcilePayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("unmarshal payload: %v: %w", err, asynq.SkipRetry)
		}
	}

	if len(payload.PostIDs) == 0 {
		h.logger.Info("starting full vote reconcile")
		corrected, err := h.tally.ReconcileAll(ctx)
		if err != nil {
			h.logger.Error("vote reconcile failed", "error", err)
			return err
		}
		h.logger.Info("completed full vote reconcile", "corrected", corrected)
		return nil
	}

	h.logger.Info("starting vote reconcile", "posts", len(payload.PostIDs))

	corrected := 0
	for _, id := range payload.PostIDs {
		drifted, err := h.tally.Reconcile(ctx, id)
		if errors.Is(err, votes.ErrPostNotFound) {
			h.logger.Debug("post gone, skipping", "post_id", id)
			continue
		}
		if err != nil {
			return fmt.Errorf("reconciling post %s: %w", id, err)
		}
		if drifted {
			corrected++
		}
	}

	h.logger.Info("completed vote reconcile", "posts", len(payload.PostIDs), "corrected", corrected)
	return nil
}
