package posts_test

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hugh/blogit/internal/auth"
	"github.com/hugh/blogit/internal/database/models"
	"github.com/hugh/blogit/internal/posts"
	"github.com/hugh/blogit/internal/testutil"
	"github.com/hugh/blogit/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func str(s string) *string { return &s }

func ids(v ...uuid.UUID) *[]uuid.UUID { return &v }

func TestSlugify(t *testing.T) {
	assert.Equal(t, "hello-world", posts.Slugify("Hello World!"))
	assert.Equal(t, "hello-world", posts.Slugify("  Hello   World  "))
	assert.Equal(t, posts.Slugify("Go & Rails"), posts.Slugify("Go & Rails"))
}

func TestService_Create(t *testing.T) {
	tc := testutil.NewTestContext(t)
	defer tc.Cleanup()

	svc := posts.NewService(tc.DB, tc.Logger)
	ctx := testutil.TestContext(t)
	tech := testutil.CreateTestCategory(t, tc.DB, "Tech")

	t.Run("valid post", func(t *testing.T) {
		item, err := svc.Create(ctx, tc.Actor(), posts.Input{
			Title:       str("My First Post"),
			Description: str("Hello"),
			CategoryIDs: ids(tech.ID, tech.ID),
		})
		require.NoError(t, err)

		post := item.Post
		assert.Equal(t, "my-first-post", post.Slug)
		assert.Equal(t, models.PostStatusDraft, post.Status)
		assert.Nil(t, post.PublishedAt)
		assert.True(t, post.IsBloggable)
		assert.Equal(t, tc.User.ID, *post.UserID)
		assert.Equal(t, tc.Org.ID, *post.OrganizationID)
		require.Len(t, post.Categories, 1)
		assert.Equal(t, "Tech", post.Categories[0].Name)
		assert.Equal(t, models.VoteNone, item.UserVote)
	})

	t.Run("published sets published_at", func(t *testing.T) {
		item, err := svc.Create(ctx, tc.Actor(), posts.Input{
			Title:       str("Launch"),
			Description: str("Now live"),
			Status:      str("published"),
		})
		require.NoError(t, err)
		assert.Equal(t, models.PostStatusPublished, item.Post.Status)
		assert.NotNil(t, item.Post.PublishedAt)
	})

	t.Run("collects validation errors", func(t *testing.T) {
		_, err := svc.Create(ctx, tc.Actor(), posts.Input{
			Title:       str(strings.Repeat("a", models.PostTitleMaxLength+1)),
			Status:      str("archived"),
			CategoryIDs: ids(uuid.New()),
		})

		var errs validation.Errors
		require.ErrorAs(t, err, &errs)
		assert.Equal(t, []string{validation.TooLong(models.PostTitleMaxLength)}, errs["title"])
		assert.Equal(t, []string{validation.MsgBlank}, errs["description"])
		assert.Equal(t, []string{validation.MsgNotIncluded}, errs["status"])
		assert.Equal(t, []string{validation.MsgNotValid}, errs["category_ids"])
	})

	t.Run("blank title", func(t *testing.T) {
		_, err := svc.Create(ctx, tc.Actor(), posts.Input{Description: str("x")})

		var errs validation.Errors
		require.ErrorAs(t, err, &errs)
		assert.Equal(t, []string{validation.MsgBlank}, errs["title"])
	})

	t.Run("duplicate slug", func(t *testing.T) {
		_, err := svc.Create(ctx, tc.Actor(), posts.Input{
			Title:       str("my first post"),
			Description: str("again"),
		})

		var errs validation.Errors
		require.ErrorAs(t, err, &errs)
		assert.Equal(t, []string{validation.MsgTaken}, errs["slug"])
	})
}

func TestService_Get(t *testing.T) {
	tc := testutil.NewTestContext(t)
	defer tc.Cleanup()

	svc := posts.NewService(tc.DB, tc.Logger)
	ctx := testutil.TestContext(t)

	post := testutil.CreateTestPost(t, tc.DB, tc.User, "Findable")

	byID, err := svc.Get(ctx, tc.Actor(), post.ID.String())
	require.NoError(t, err)
	assert.Equal(t, post.ID, byID.Post.ID)

	bySlug, err := svc.Get(ctx, tc.Actor(), post.Slug)
	require.NoError(t, err)
	assert.Equal(t, post.ID, bySlug.Post.ID)

	_, err = svc.Get(ctx, tc.Actor(), "no-such-post")
	assert.ErrorIs(t, err, posts.ErrNotFound)

	outsider, _ := testutil.CreateTestUser(t, tc.DB, tc.Encryptor, testutil.CreateTestOrg(t, tc.DB))
	_, err = svc.Get(ctx, auth.ActorFromUser(outsider), post.ID.String())
	assert.ErrorIs(t, err, posts.ErrNotFound)
}

func TestService_Update(t *testing.T) {
	tc := testutil.NewTestContext(t)
	defer tc.Cleanup()

	svc := posts.NewService(tc.DB, tc.Logger)
	ctx := testutil.TestContext(t)
	tech := testutil.CreateTestCategory(t, tc.DB, "Tech")
	ruby := testutil.CreateTestCategory(t, tc.DB, "Ruby")

	created, err := svc.Create(ctx, tc.Actor(), posts.Input{
		Title:       str("Original Title"),
		Description: str("Body"),
		CategoryIDs: ids(tech.ID),
	})
	require.NoError(t, err)
	id := created.Post.ID.String()

	t.Run("unchanged title keeps slug", func(t *testing.T) {
		item, err := svc.Update(ctx, tc.Actor(), "original-title", posts.Input{Description: str("New body")})
		require.NoError(t, err)
		assert.Equal(t, "original-title", item.Post.Slug)
		assert.Equal(t, "New body", item.Post.Description)
		require.Len(t, item.Post.Categories, 1)
	})

	t.Run("changed title regenerates slug", func(t *testing.T) {
		item, err := svc.Update(ctx, tc.Actor(), id, posts.Input{Title: str("Renamed Post")})
		require.NoError(t, err)
		assert.Equal(t, "renamed-post", item.Post.Slug)

		_, err = svc.Get(ctx, tc.Actor(), "original-title")
		assert.ErrorIs(t, err, posts.ErrNotFound)
	})

	t.Run("publish then draft", func(t *testing.T) {
		item, err := svc.Update(ctx, tc.Actor(), id, posts.Input{Status: str("published")})
		require.NoError(t, err)
		require.NotNil(t, item.Post.PublishedAt)
		first := *item.Post.PublishedAt

		item, err = svc.Update(ctx, tc.Actor(), id, posts.Input{Status: str("published")})
		require.NoError(t, err)
		assert.WithinDuration(t, first, *item.Post.PublishedAt, time.Millisecond)

		item, err = svc.Update(ctx, tc.Actor(), id, posts.Input{Status: str("draft")})
		require.NoError(t, err)
		assert.Nil(t, item.Post.PublishedAt)
	})

	t.Run("replaces categories", func(t *testing.T) {
		item, err := svc.Update(ctx, tc.Actor(), id, posts.Input{CategoryIDs: ids(ruby.ID)})
		require.NoError(t, err)
		require.Len(t, item.Post.Categories, 1)
		assert.Equal(t, "Ruby", item.Post.Categories[0].Name)

		item, err = svc.Update(ctx, tc.Actor(), id, posts.Input{CategoryIDs: ids()})
		require.NoError(t, err)
		assert.Empty(t, item.Post.Categories)
	})

	t.Run("invalid update leaves post untouched", func(t *testing.T) {
		_, err := svc.Update(ctx, tc.Actor(), id, posts.Input{Title: str("  ")})
		var errs validation.Errors
		require.ErrorAs(t, err, &errs)

		reloaded := testutil.ReloadPost(t, tc.DB, created.Post.ID)
		assert.Equal(t, "Renamed Post", reloaded.Title)
	})

	t.Run("not visible", func(t *testing.T) {
		outsider, _ := testutil.CreateTestUser(t, tc.DB, tc.Encryptor, testutil.CreateTestOrg(t, tc.DB))
		_, err := svc.Update(ctx, auth.ActorFromUser(outsider), id, posts.Input{Title: str("Hijack")})
		assert.ErrorIs(t, err, posts.ErrNotFound)
	})
}

func TestService_Delete(t *testing.T) {
	tc := testutil.NewTestContext(t)
	defer tc.Cleanup()

	svc := posts.NewService(tc.DB, tc.Logger)
	ctx := testutil.TestContext(t)
	tech := testutil.CreateTestCategory(t, tc.DB, "Tech")

	post := testutil.CreateTestPost(t, tc.DB, tc.User, "Doomed", testutil.WithCategories(tech))
	testutil.CreateTestVote(t, tc.DB, tc.User, post, models.VoteUpvote)

	require.NoError(t, svc.Delete(ctx, tc.Actor(), post.Slug))

	var count int64
	tc.DB.Model(&models.Post{}).Where("id = ?", post.ID).Count(&count)
	assert.Zero(t, count)
	tc.DB.Model(&models.Vote{}).Where("post_id = ?", post.ID).Count(&count)
	assert.Zero(t, count)
	tc.DB.Table("categories_posts").Where("post_id = ?", post.ID).Count(&count)
	assert.Zero(t, count)
	tc.DB.Model(&models.Category{}).Where("id = ?", tech.ID).Count(&count)
	assert.Equal(t, int64(1), count)

	assert.ErrorIs(t, svc.Delete(ctx, tc.Actor(), post.Slug), posts.ErrNotFound)
}

func TestService_BulkUpdate(t *testing.T) {
	tc := testutil.NewTestContext(t)
	defer tc.Cleanup()

	svc := posts.NewService(tc.DB, tc.Logger)
	ctx := testutil.TestContext(t)

	mine := testutil.CreateTestPost(t, tc.DB, tc.User, "Mine")
	outsider, _ := testutil.CreateTestUser(t, tc.DB, tc.Encryptor, testutil.CreateTestOrg(t, tc.DB))
	theirs := testutil.CreateTestPost(t, tc.DB, outsider, "Theirs")

	n, err := svc.BulkUpdate(ctx, tc.Actor(), []uuid.UUID{mine.ID, theirs.ID}, "published")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	published := testutil.ReloadPost(t, tc.DB, mine.ID)
	assert.Equal(t, models.PostStatusPublished, published.Status)
	require.NotNil(t, published.PublishedAt)
	assert.Equal(t, models.PostStatusDraft, testutil.ReloadPost(t, tc.DB, theirs.ID).Status)

	// Publishing again keeps the original timestamp
	_, err = svc.BulkUpdate(ctx, tc.Actor(), []uuid.UUID{mine.ID}, "published")
	require.NoError(t, err)
	again := testutil.ReloadPost(t, tc.DB, mine.ID)
	assert.WithinDuration(t, *published.PublishedAt, *again.PublishedAt, time.Millisecond)

	_, err = svc.BulkUpdate(ctx, tc.Actor(), []uuid.UUID{mine.ID}, "draft")
	require.NoError(t, err)
	assert.Nil(t, testutil.ReloadPost(t, tc.DB, mine.ID).PublishedAt)

	_, err = svc.BulkUpdate(ctx, tc.Actor(), []uuid.UUID{mine.ID}, "archived")
	var errs validation.Errors
	require.ErrorAs(t, err, &errs)
	assert.Equal(t, []string{validation.MsgNotIncluded}, errs["status"])
}

func TestService_BulkDestroy(t *testing.T) {
	tc := testutil.NewTestContext(t)
	defer tc.Cleanup()

	svc := posts.NewService(tc.DB, tc.Logger)
	ctx := testutil.TestContext(t)

	first := testutil.CreateTestPost(t, tc.DB, tc.User, "First")
	second := testutil.CreateTestPost(t, tc.DB, tc.User, "Second")
	kept := testutil.CreateTestPost(t, tc.DB, tc.User, "Kept")
	testutil.CreateTestVote(t, tc.DB, tc.User, first, models.VoteUpvote)

	outsider, _ := testutil.CreateTestUser(t, tc.DB, tc.Encryptor, testutil.CreateTestOrg(t, tc.DB))
	theirs := testutil.CreateTestPost(t, tc.DB, outsider, "Theirs")

	n, err := svc.BulkDestroy(ctx, tc.Actor(), []uuid.UUID{first.ID, second.ID, theirs.ID, uuid.New()})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	var remaining []string
	tc.DB.Model(&models.Post{}).Order("title").Pluck("title", &remaining)
	assert.Equal(t, []string{kept.Title, theirs.Title}, remaining)

	var votes int64
	tc.DB.Model(&models.Vote{}).Count(&votes)
	assert.Zero(t, votes)

	n, err = svc.BulkDestroy(ctx, tc.Actor(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestService_CreateLosesSlugRace(t *testing.T) {
	tc := testutil.NewTestContext(t)
	defer tc.Cleanup()

	svc := posts.NewService(tc.DB, tc.Logger)
	ctx := testutil.TestContext(t)

	testutil.BeforeNextCreate(t, tc.DB, "posts", func(tx *gorm.DB) {
		racer := testutil.CreateTestPost(t, tx, tc.User, "Racing")
		require.NoError(t, tx.Model(racer).Update("slug", "racing").Error)
	})

	_, err := svc.Create(ctx, tc.Actor(), posts.Input{
		Title:       str("Racing"),
		Description: str("Photo finish"),
	})

	var errs validation.Errors
	require.ErrorAs(t, err, &errs)
	assert.Equal(t, []string{validation.MsgTaken}, errs["slug"])
}
