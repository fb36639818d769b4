package posts

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/hugh/blogit/internal/auth"
	"github.com/hugh/blogit/internal/database/models"
	"gorm.io/gorm"
)

// Visible restricts a posts query to rows the actor may see: their own posts
// and every post of their organization.
func Visible(actor auth.Actor) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("posts.user_id = ? OR posts.organization_id = ?", actor.UserID, actor.OrganizationID)
	}
}

// FilterParams narrows a listing. Zero values mean "no filter" for Status and
// CategoryIDs and "use the default" for Page and Items.
type FilterParams struct {
	Status      string
	CategoryIDs []uuid.UUID
	Page        int
	Items       int
}

// Pagination describes where a page sits in the full result set.
type Pagination struct {
	Page  int   `json:"page"`
	Items int   `json:"items"`
	Count int64 `json:"count"`
	Pages int   `json:"pages"`
	Prev  *int  `json:"prev"`
	Next  *int  `json:"next"`
}

// Item is a post together with the acting user's current vote on it.
type Item struct {
	Post     *models.Post
	UserVote models.VoteType
}

type Page struct {
	Items      []Item
	Pagination Pagination
}

// Filter lists the posts an actor can see, newest first.
type Filter struct {
	db           *gorm.DB
	defaultItems int
	maxItems     int
}

func NewFilter(db *gorm.DB, defaultItems, maxItems int) *Filter {
	if defaultItems < 1 {
		defaultItems = 5
	}
	if maxItems < defaultItems {
		maxItems = defaultItems
	}
	return &Filter{db: db, defaultItems: defaultItems, maxItems: maxItems}
}

func (f *Filter) List(ctx context.Context, actor auth.Actor, params FilterParams) (*Page, error) {
	page := params.Page
	if page < 1 {
		page = 1
	}
	items := params.Items
	if items < 1 {
		items = f.defaultItems
	}
	if items > f.maxItems {
		items = f.maxItems
	}

	query := f.db.WithContext(ctx).Model(&models.Post{}).Scopes(Visible(actor))
	if params.Status != "" {
		query = query.Where("posts.status = ?", params.Status)
	}
	if len(params.CategoryIDs) > 0 {
		// A subquery keeps posts in several requested categories from
		// appearing more than once.
		tagged := f.db.Table("categories_posts").
			Select("post_id").
			Where("category_id IN ?", params.CategoryIDs)
		query = query.Where("posts.id IN (?)", tagged)
	}

	var count int64
	if err := query.Session(&gorm.Session{}).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("counting posts: %w", err)
	}

	var posts []*models.Post
	if err := query.Session(&gorm.Session{}).
		Preload("User").
		Preload("Categories", func(db *gorm.DB) *gorm.DB {
			return db.Order("categories.name ASC")
		}).
		Order("posts.created_at DESC").
		Order("posts.id DESC").
		Limit(items).
		Offset((page - 1) * items).
		Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("listing posts: %w", err)
	}

	votes, err := userVotes(ctx, f.db, actor, posts)
	if err != nil {
		return nil, err
	}

	result := &Page{
		Items:      make([]Item, 0, len(posts)),
		Pagination: paginate(page, items, count),
	}
	for _, p := range posts {
		result.Items = append(result.Items, Item{Post: p, UserVote: votes[p.ID]})
	}
	return result, nil
}

func paginate(page, items int, count int64) Pagination {
	pages := int((count + int64(items) - 1) / int64(items))
	if pages < 1 {
		pages = 1
	}

	p := Pagination{Page: page, Items: items, Count: count, Pages: pages}
	if page > 1 {
		prev := page - 1
		if prev > pages {
			prev = pages
		}
		p.Prev = &prev
	}
	if page < pages {
		next := page + 1
		p.Next = &next
	}
	return p
}

// userVotes maps post id to the actor's vote for the given posts.
func userVotes(ctx context.Context, db *gorm.DB, actor auth.Actor, posts []*models.Post) (map[uuid.UUID]models.VoteType, error) {
	out := make(map[uuid.UUID]models.VoteType, len(posts))
	if len(posts) == 0 {
		return out, nil
	}

	ids := make([]uuid.UUID, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}

	var votes []models.Vote
	if err := db.WithContext(ctx).
		Where("user_id = ? AND post_id IN ?", actor.UserID, ids).
		Find(&votes).Error; err != nil {
		return nil, fmt.Errorf("loading votes: %w", err)
	}
	for _, v := range votes {
		out[v.PostID] = v.VoteType
	}
	return out, nil
}
