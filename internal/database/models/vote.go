package models

import "github.com/google/uuid"

// VoteType is persisted as its numeric weight: upvote=1, downvote=-1.
type VoteType int

const (
	VoteNone     VoteType = 0
	VoteUpvote   VoteType = 1
	VoteDownvote VoteType = -1
)

// ParseVoteType maps the wire name to a VoteType. Unknown names yield
// VoteNone and false.
func ParseVoteType(s string) (VoteType, bool) {
	switch s {
	case "upvote":
		return VoteUpvote, true
	case "downvote":
		return VoteDownvote, true
	default:
		return VoteNone, false
	}
}

func (v VoteType) String() string {
	switch v {
	case VoteUpvote:
		return "upvote"
	case VoteDownvote:
		return "downvote"
	default:
		return ""
	}
}

type Vote struct {
	Base
	UserID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_votes_user_post" json:"user_id"`
	PostID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_votes_user_post;index" json:"post_id"`
	VoteType VoteType  `gorm:"not null" json:"vote_type"`

	User *User `gorm:"foreignKey:UserID" json:"-"`
	Post *Post `gorm:"foreignKey:PostID" json:"-"`
}

func (Vote) TableName() string {
	return "votes"
}
