package models

import (
	"time"

	"github.com/google/uuid"
)

type PostStatus string

const (
	PostStatusDraft     PostStatus = "draft"
	PostStatusPublished PostStatus = "published"
)

// Valid reports whether s is one of the known post statuses.
func (s PostStatus) Valid() bool {
	return s == PostStatusDraft || s == PostStatusPublished
}

const (
	PostTitleMaxLength       = 125
	PostDescriptionMaxLength = 10000
)

type Post struct {
	Base
	Title       string     `gorm:"size:125;not null" json:"title"`
	Description string     `gorm:"type:text;not null" json:"description"`
	Slug        string     `gorm:"uniqueIndex;not null" json:"slug"`
	Status      PostStatus `gorm:"not null;index;default:'draft'" json:"status"`
	PublishedAt *time.Time `json:"published_at"`

	// Denormalized tallies, refreshed from votes inside the vote transaction
	IsBloggable bool `gorm:"not null;default:false" json:"is_bloggable"`
	Upvotes     int  `gorm:"not null;default:0" json:"upvotes"`
	Downvotes   int  `gorm:"not null;default:0" json:"downvotes"`

	UserID         *uuid.UUID `gorm:"type:uuid;index" json:"user_id,omitempty"`
	OrganizationID *uuid.UUID `gorm:"type:uuid;index" json:"organization_id,omitempty"`

	// Relationships
	User         *User         `gorm:"foreignKey:UserID" json:"-"`
	Organization *Organization `gorm:"foreignKey:OrganizationID" json:"-"`
	Categories   []Category    `gorm:"many2many:categories_posts" json:"-"`
	Votes        []Vote        `gorm:"foreignKey:PostID" json:"-"`
}

func (Post) TableName() string {
	return "posts"
}

// NetVotes is upvotes minus downvotes.
func (p *Post) NetVotes() int {
	return p.Upvotes - p.Downvotes
}
