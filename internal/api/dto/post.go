package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/hugh/blogit/internal/posts"
)

type PostRequest struct {
	Post *PostParams `json:"post"`
}

type PostParams struct {
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	Status      *string   `json:"status"`
	CategoryIDs *[]string `json:"category_ids"`
}

func (r PostRequest) Validate() map[string]string {
	errors := make(map[string]string)
	if r.Post == nil {
		errors["post"] = MissingParam("post")
	}
	return errors
}

// Input converts the params for the posts service. Category ids that are
// not UUIDs map to uuid.Nil, which never matches a category.
func (p PostParams) Input() posts.Input {
	in := posts.Input{
		Title:       p.Title,
		Description: p.Description,
		Status:      p.Status,
	}
	if p.CategoryIDs != nil {
		ids := ParseIDs(*p.CategoryIDs)
		in.CategoryIDs = &ids
	}
	return in
}

type BulkUpdateRequest struct {
	IDs    []string `json:"ids"`
	Status string   `json:"status"`
}

type BulkDestroyRequest struct {
	IDs []string `json:"ids"`
}

type BulkResponse struct {
	Message string `json:"message"`
	Count   int64  `json:"count"`
}

// ParseIDs parses ids, substituting uuid.Nil for malformed entries.
func ParseIDs(raw []string) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			id = uuid.Nil
		}
		ids = append(ids, id)
	}
	return ids
}

type PostResponse struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Slug        string     `json:"slug"`
	Status      string     `json:"status"`
	PublishedAt *time.Time `json:"published_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	IsBloggable bool       `json:"is_bloggable"`
	Upvotes     int        `json:"upvotes"`
	Downvotes   int        `json:"downvotes"`
	NetVotes    int        `json:"net_votes"`
	UserVote    *string    `json:"user_vote"`
	Author      *string    `json:"author"`
	Categories  []string   `json:"categories"`
}

func NewPostResponse(item posts.Item) PostResponse {
	p := item.Post
	resp := PostResponse{
		ID:          p.ID.String(),
		Title:       p.Title,
		Description: p.Description,
		Slug:        p.Slug,
		Status:      string(p.Status),
		PublishedAt: p.PublishedAt,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
		IsBloggable: p.IsBloggable,
		Upvotes:     p.Upvotes,
		Downvotes:   p.Downvotes,
		NetVotes:    p.NetVotes(),
		UserVote:    voteName(item.UserVote),
		Categories:  make([]string, 0, len(p.Categories)),
	}
	if p.User != nil {
		resp.Author = &p.User.Name
	}
	for _, c := range p.Categories {
		resp.Categories = append(resp.Categories, c.Name)
	}
	return resp
}

type PostListResponse struct {
	Posts []PostResponse   `json:"posts"`
	Pagy  posts.Pagination `json:"pagy"`
}

func NewPostListResponse(page *posts.Page) PostListResponse {
	resp := PostListResponse{
		Posts: make([]PostResponse, 0, len(page.Items)),
		Pagy:  page.Pagination,
	}
	for _, item := range page.Items {
		resp.Posts = append(resp.Posts, NewPostResponse(item))
	}
	return resp
}
