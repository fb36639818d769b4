package tasks

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// Task type names
const (
	TypeVoteReconcile = "votes:reconcile"
)

// VoteReconcilePayload names the posts whose tallies should be recomputed.
// An empty list means every post.
type VoteReconcilePayload struct {
	PostIDs []uuid.UUID `json:"post_ids,omitempty"`
}

func NewVoteReconcileTask(postIDs ...uuid.UUID) (*asynq.Task, error) {
	data, err := json.Marshal(VoteReconcilePayload{PostIDs: postIDs})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeVoteReconcile, data, asynq.Queue("low"), asynq.MaxRetry(3)), nil
}
