package posts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hugh/blogit/internal/auth"
	"github.com/hugh/blogit/internal/database/models"
	"github.com/hugh/blogit/internal/validation"
	"gorm.io/gorm"
)

var ErrNotFound = errors.New("post not found")

// Input carries the writable post attributes. Nil fields are left unchanged
// on update and treated as empty on create.
type Input struct {
	Title       *string
	Description *string
	Status      *string
	CategoryIDs *[]uuid.UUID
}

type Service struct {
	db     *gorm.DB
	logger *slog.Logger
	now    func() time.Time
}

func NewService(db *gorm.DB, logger *slog.Logger) *Service {
	return &Service{db: db, logger: logger, now: time.Now}
}

// Create stores a new post owned by the actor and their organization. New
// posts start out bloggable.
func (s *Service) Create(ctx context.Context, actor auth.Actor, input Input) (*Item, error) {
	orgID := actor.OrganizationID
	userID := actor.UserID
	post := &models.Post{
		Status:         models.PostStatusDraft,
		IsBloggable:    true,
		UserID:         &userID,
		OrganizationID: &orgID,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		categories, err := s.apply(tx, post, input)
		if err != nil {
			return err
		}
		if err := tx.Create(post).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return slugTakenError()
			}
			return fmt.Errorf("creating post: %w", err)
		}
		if categories != nil {
			return attach(tx, post, categories)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("post created",
		"post_id", post.ID,
		"user_id", actor.UserID,
		"slug", post.Slug,
	)

	return s.Get(ctx, actor, post.ID.String())
}

// Get resolves a post by id or slug within the actor's visibility.
func (s *Service) Get(ctx context.Context, actor auth.Actor, ref string) (*Item, error) {
	post, err := find(s.db.WithContext(ctx), actor, ref)
	if err != nil {
		return nil, err
	}

	votes, err := userVotes(ctx, s.db, actor, []*models.Post{post})
	if err != nil {
		return nil, err
	}
	return &Item{Post: post, UserVote: votes[post.ID]}, nil
}

// Update applies input to a visible post. Changing the title regenerates the
// slug; a category list, when given, replaces the current one.
func (s *Service) Update(ctx context.Context, actor auth.Actor, ref string, input Input) (*Item, error) {
	var id uuid.UUID
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		post, err := find(tx, actor, ref)
		if err != nil {
			return err
		}
		id = post.ID

		categories, err := s.apply(tx, post, input)
		if err != nil {
			return err
		}
		if err := tx.Model(post).Select("Title", "Description", "Slug", "Status", "PublishedAt").
			Updates(post).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return slugTakenError()
			}
			return fmt.Errorf("updating post: %w", err)
		}
		if categories != nil {
			return attach(tx, post, categories)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("post updated", "post_id", id, "user_id", actor.UserID)

	return s.Get(ctx, actor, id.String())
}

// Delete removes a visible post along with its votes and category links.
func (s *Service) Delete(ctx context.Context, actor auth.Actor, ref string) error {
	var id uuid.UUID
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		post, err := find(tx, actor, ref)
		if err != nil {
			return err
		}
		id = post.ID
		return destroy(tx, []uuid.UUID{post.ID})
	})
	if err != nil {
		return err
	}

	s.logger.Info("post deleted", "post_id", id, "user_id", actor.UserID)
	return nil
}

// BulkUpdate moves every visible post in ids to status in one transaction.
// Publishing keeps an existing published_at; moving to draft clears it. Ids
// the actor cannot see are skipped. It returns the number of posts changed.
func (s *Service) BulkUpdate(ctx context.Context, actor auth.Actor, ids []uuid.UUID, status string) (int64, error) {
	st := models.PostStatus(status)
	if !st.Valid() {
		errs := validation.Errors{}
		errs.Add("status", validation.MsgNotIncluded)
		return 0, errs
	}
	if len(ids) == 0 {
		return 0, nil
	}

	updates := map[string]interface{}{"status": st, "published_at": nil}
	if st == models.PostStatusPublished {
		updates["published_at"] = gorm.Expr("COALESCE(published_at, ?)", s.now().UTC())
	}

	var affected int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Post{}).
			Scopes(Visible(actor)).
			Where("posts.id IN ?", ids).
			Updates(updates)
		if res.Error != nil {
			return fmt.Errorf("bulk updating posts: %w", res.Error)
		}
		affected = res.RowsAffected
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info("posts bulk updated",
		"user_id", actor.UserID,
		"status", st,
		"requested", len(ids),
		"updated", affected,
	)
	return affected, nil
}

// BulkDestroy deletes every visible post in ids in one transaction and
// returns how many were removed.
func (s *Service) BulkDestroy(ctx context.Context, actor auth.Actor, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	var visible []uuid.UUID
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Post{}).
			Scopes(Visible(actor)).
			Where("posts.id IN ?", ids).
			Pluck("posts.id", &visible).Error; err != nil {
			return fmt.Errorf("resolving posts: %w", err)
		}
		if len(visible) == 0 {
			return nil
		}
		return destroy(tx, visible)
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info("posts bulk destroyed",
		"user_id", actor.UserID,
		"requested", len(ids),
		"deleted", len(visible),
	)
	return int64(len(visible)), nil
}

// apply copies input onto post and validates the result. It returns the
// categories to attach, or nil when the input leaves them alone.
func (s *Service) apply(tx *gorm.DB, post *models.Post, input Input) ([]models.Category, error) {
	errs := validation.Errors{}

	if input.Title != nil {
		post.Title = *input.Title
	}
	if input.Description != nil {
		post.Description = *input.Description
	}

	if validation.IsBlank(post.Title) {
		errs.Add("title", validation.MsgBlank)
	} else if validation.CharCount(post.Title) > models.PostTitleMaxLength {
		errs.Add("title", validation.TooLong(models.PostTitleMaxLength))
	}
	if validation.IsBlank(post.Description) {
		errs.Add("description", validation.MsgBlank)
	} else if validation.CharCount(post.Description) > models.PostDescriptionMaxLength {
		errs.Add("description", validation.TooLong(models.PostDescriptionMaxLength))
	}

	if input.Status != nil {
		st := models.PostStatus(strings.TrimSpace(*input.Status))
		if !st.Valid() {
			errs.Add("status", validation.MsgNotIncluded)
		} else {
			if st == models.PostStatusPublished && post.PublishedAt == nil {
				now := s.now().UTC()
				post.PublishedAt = &now
			}
			if st == models.PostStatusDraft {
				post.PublishedAt = nil
			}
			post.Status = st
		}
	}

	if !validation.IsBlank(post.Title) {
		post.Slug = Slugify(post.Title)
		if post.Slug == "" {
			errs.Add("slug", validation.MsgBlank)
		} else {
			taken, err := slugTaken(tx, post.Slug, post.ID)
			if err != nil {
				return nil, err
			}
			if taken {
				errs.Add("slug", validation.MsgTaken)
			}
		}
	}

	var categories []models.Category
	if input.CategoryIDs != nil {
		ids := dedupe(*input.CategoryIDs)
		categories = []models.Category{}
		if len(ids) > 0 {
			if err := tx.Where("id IN ?", ids).Find(&categories).Error; err != nil {
				return nil, fmt.Errorf("loading categories: %w", err)
			}
			if len(categories) != len(ids) {
				errs.Add("category_ids", validation.MsgNotValid)
			}
		}
	}

	if errs.Any() {
		return nil, errs
	}
	return categories, nil
}

func find(db *gorm.DB, actor auth.Actor, ref string) (*models.Post, error) {
	query := db.Scopes(Visible(actor)).
		Preload("User").
		Preload("Categories", func(db *gorm.DB) *gorm.DB {
			return db.Order("categories.name ASC")
		})

	if id, err := uuid.Parse(ref); err == nil {
		query = query.Where("posts.id = ? OR posts.slug = ?", id, ref)
	} else {
		query = query.Where("posts.slug = ?", ref)
	}

	var post models.Post
	if err := query.First(&post).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("finding post: %w", err)
	}
	return &post, nil
}

// slugTakenError reports a slug that lost an insert race after passing
// slugTaken.
func slugTakenError() error {
	errs := validation.Errors{}
	errs.Add("slug", validation.MsgTaken)
	return errs
}

func slugTaken(tx *gorm.DB, slug string, self uuid.UUID) (bool, error) {
	query := tx.Model(&models.Post{}).Where("slug = ?", slug)
	if self != uuid.Nil {
		query = query.Where("id <> ?", self)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, fmt.Errorf("checking slug: %w", err)
	}
	return count > 0, nil
}

// attach makes categories the full category set of post.
func attach(tx *gorm.DB, post *models.Post, categories []models.Category) error {
	assoc := tx.Model(post).Association("Categories")
	if len(categories) == 0 {
		if err := assoc.Clear(); err != nil {
			return fmt.Errorf("clearing categories: %w", err)
		}
		return nil
	}
	if err := assoc.Replace(categories); err != nil {
		return fmt.Errorf("replacing categories: %w", err)
	}
	return nil
}

// destroy deletes posts and everything they own. It must run inside a
// transaction.
func destroy(tx *gorm.DB, ids []uuid.UUID) error {
	if err := tx.Where("post_id IN ?", ids).Delete(&models.Vote{}).Error; err != nil {
		return fmt.Errorf("deleting votes: %w", err)
	}
	if err := tx.Exec("DELETE FROM categories_posts WHERE post_id IN ?", ids).Error; err != nil {
		return fmt.Errorf("detaching categories: %w", err)
	}
	if err := tx.Where("id IN ?", ids).Delete(&models.Post{}).Error; err != nil {
		return fmt.Errorf("deleting posts: %w", err)
	}
	return nil
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
