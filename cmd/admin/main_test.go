package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/hugh/blogit/internal/auth"
	"github.com/hugh/blogit/internal/database/models"
	"github.com/hugh/blogit/internal/tasks"
	"github.com/hugh/blogit/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	setup     *testutil.TestSetup
	enqueued  []*asynq.Task
	forgotten []string
}

func (h *harness) Forget(email string) {
	h.forgotten = append(h.forgotten, email)
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return &harness{setup: testutil.NewTestContext(t)}
}

// run executes the admin CLI against the test database and returns stdout.
func (h *harness) run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	root := newRootCmd(func() (*app, error) {
		return &app{
			db:        h.setup.DB,
			logger:    h.setup.Logger,
			encryptor: h.setup.Encryptor,
			threshold: 0,

			invalidator: h,
			enqueue: func(_ context.Context, task *asynq.Task) error {
				h.enqueued = append(h.enqueued, task)
				return nil
			},
		}, nil
	})

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestMigrate(t *testing.T) {
	h := newHarness(t)
	defer h.setup.Cleanup()

	out, err := h.run(t, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "Database migrated")
}

func TestSeed(t *testing.T) {
	h := newHarness(t)
	defer h.setup.Cleanup()

	out, err := h.run(t, "seed")
	require.NoError(t, err)
	assert.Contains(t, out, "Created 2 of 2 categories")

	out, err = h.run(t, "seed", "Tech", "Go")
	require.NoError(t, err)
	assert.Contains(t, out, "Created 1 of 2 categories")

	var count int64
	h.setup.DB.Model(&models.Category{}).Count(&count)
	assert.Equal(t, int64(3), count)
}

func TestUserRotateToken(t *testing.T) {
	h := newHarness(t)
	defer h.setup.Cleanup()

	out, err := h.run(t, "user", "rotate-token", "--email", strings.ToUpper(h.setup.User.Email))
	require.NoError(t, err)

	token := strings.TrimSpace(out)
	assert.NotEmpty(t, token)
	assert.NotEqual(t, h.setup.Token, token)

	verifier := auth.NewVerifier(h.setup.DB, 0, 0)
	_, err = verifier.Verify(context.Background(), h.setup.User.Email, token)
	assert.NoError(t, err)
	_, err = verifier.Verify(context.Background(), h.setup.User.Email, h.setup.Token)
	assert.ErrorIs(t, err, auth.ErrUnauthenticated)
	assert.Equal(t, []string{h.setup.User.Email}, h.forgotten)

	_, err = h.run(t, "user", "rotate-token", "--email", "ghost@example.com")
	assert.EqualError(t, err, `no user with email "ghost@example.com"`)

	_, err = h.run(t, "user", "rotate-token")
	assert.Error(t, err)
}

func TestUserDelete(t *testing.T) {
	h := newHarness(t)
	defer h.setup.Cleanup()

	author, _ := testutil.CreateTestUser(t, h.setup.DB, h.setup.Encryptor, h.setup.Org)
	post := testutil.CreateTestPost(t, h.setup.DB, author, "Keeps Going")
	testutil.CreateTestVote(t, h.setup.DB, h.setup.User, post, models.VoteUpvote)
	require.NoError(t, h.setup.DB.Model(post).Updates(map[string]interface{}{"upvotes": 1}).Error)

	out, err := h.run(t, "user", "delete", "--email", h.setup.User.Email)
	require.NoError(t, err)
	assert.Contains(t, out, "Refreshed tallies of 1 posts")
	assert.Equal(t, []string{h.setup.User.Email}, h.forgotten)

	stored := testutil.ReloadPost(t, h.setup.DB, post.ID)
	assert.Equal(t, 0, stored.Upvotes)
	assert.False(t, stored.IsBloggable)

	var users int64
	h.setup.DB.Model(&models.User{}).Where("id = ?", h.setup.User.ID).Count(&users)
	assert.Zero(t, users)
}

func TestUserDelete_Enqueue(t *testing.T) {
	h := newHarness(t)
	defer h.setup.Cleanup()

	post := testutil.CreateTestPost(t, h.setup.DB, h.setup.User, "Voted")
	voter, _ := testutil.CreateTestUser(t, h.setup.DB, h.setup.Encryptor, h.setup.Org)
	testutil.CreateTestVote(t, h.setup.DB, voter, post, models.VoteDownvote)

	_, err := h.run(t, "user", "delete", "--email", voter.Email, "--enqueue")
	require.NoError(t, err)

	require.Len(t, h.enqueued, 1)
	assert.Equal(t, tasks.TypeVoteReconcile, h.enqueued[0].Type())
	assert.Contains(t, string(h.enqueued[0].Payload()), post.ID.String())
}

func TestReconcile(t *testing.T) {
	h := newHarness(t)
	defer h.setup.Cleanup()

	post := testutil.CreateTestPost(t, h.setup.DB, h.setup.User, "Drifted", testutil.WithTally(3, 0))

	out, err := h.run(t, "reconcile", "--post", post.ID.String())
	require.NoError(t, err)
	assert.Contains(t, out, "Corrected 1 post")

	out, err = h.run(t, "reconcile")
	require.NoError(t, err)
	assert.Contains(t, out, "Corrected 0 posts")

	_, err = h.run(t, "reconcile", "--post", "nope")
	assert.EqualError(t, err, `invalid post id "nope"`)

	_, err = h.run(t, "reconcile", "--post", uuid.New().String())
	assert.Error(t, err)

	out, err = h.run(t, "reconcile", "--enqueue")
	require.NoError(t, err)
	assert.Contains(t, out, "Reconcile enqueued")
	require.Len(t, h.enqueued, 1)
	assert.Equal(t, tasks.TypeVoteReconcile, h.enqueued[0].Type())
}
