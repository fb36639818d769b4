package tasks

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/hugh/blogit/internal/database/models"
	"github.com/hugh/blogit/internal/testutil"
	"github.com/hugh/blogit/internal/votes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(t *testing.T) (*Handler, *testutil.TestSetup) {
	t.Helper()
	setup := testutil.NewTestContext(t)
	return NewHandler(votes.NewTally(setup.DB, 0, setup.Logger), setup.Logger), setup
}

func TestNewVoteReconcileTask(t *testing.T) {
	id := uuid.New()

	task, err := NewVoteReconcileTask(id)
	require.NoError(t, err)
	assert.Equal(t, TypeVoteReconcile, task.Type())

	var payload VoteReconcilePayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	assert.Equal(t, []uuid.UUID{id}, payload.PostIDs)

	task, err = NewVoteReconcileTask()
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(task.Payload()))
}

func TestHandleVoteReconcile_InvalidPayload(t *testing.T) {
	handler, setup := newTestHandler(t)
	defer setup.Cleanup()

	task := asynq.NewTask(TypeVoteReconcile, []byte("invalid json"))

	err := handler.HandleVoteReconcile(context.Background(), task)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshal payload")
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestHandleVoteReconcile_SelectedPosts(t *testing.T) {
	handler, setup := newTestHandler(t)
	defer setup.Cleanup()

	drifted := testutil.CreateTestPost(t, setup.DB, setup.User, "Drifted", testutil.WithTally(7, 3))
	testutil.CreateTestVote(t, setup.DB, setup.User, drifted, models.VoteDownvote)
	untouched := testutil.CreateTestPost(t, setup.DB, setup.User, "Untouched", testutil.WithTally(2, 0))

	task, err := NewVoteReconcileTask(drifted.ID, uuid.New())
	require.NoError(t, err)
	require.NoError(t, handler.HandleVoteReconcile(context.Background(), task))

	stored := testutil.ReloadPost(t, setup.DB, drifted.ID)
	assert.Equal(t, 0, stored.Upvotes)
	assert.Equal(t, 1, stored.Downvotes)
	assert.False(t, stored.IsBloggable)

	// Not named in the payload, so left alone
	assert.Equal(t, 2, testutil.ReloadPost(t, setup.DB, untouched.ID).Upvotes)
}

func TestHandleVoteReconcile_AllPosts(t *testing.T) {
	handler, setup := newTestHandler(t)
	defer setup.Cleanup()

	first := testutil.CreateTestPost(t, setup.DB, setup.User, "First", testutil.WithTally(4, 0))
	second := testutil.CreateTestPost(t, setup.DB, setup.User, "Second", testutil.WithTally(0, 4))
	testutil.CreateTestVote(t, setup.DB, setup.User, second, models.VoteUpvote)

	task := asynq.NewTask(TypeVoteReconcile, nil)
	require.NoError(t, handler.HandleVoteReconcile(context.Background(), task))

	assert.Equal(t, 0, testutil.ReloadPost(t, setup.DB, first.ID).Upvotes)

	stored := testutil.ReloadPost(t, setup.DB, second.ID)
	assert.Equal(t, 1, stored.Upvotes)
	assert.Equal(t, 0, stored.Downvotes)
	assert.True(t, stored.IsBloggable)
}

func TestRegisterHandlers(t *testing.T) {
	handler, setup := newTestHandler(t)
	defer setup.Cleanup()

	mux := asynq.NewServeMux()
	assert.NotPanics(t, func() {
		handler.RegisterHandlers(mux)
	})

	h, pattern := mux.Handler(asynq.NewTask(TypeVoteReconcile, nil))
	assert.NotNil(t, h)
	assert.Equal(t, TypeVoteReconcile, pattern)
}
