package votes

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/hugh/blogit/internal/auth"
	"github.com/hugh/blogit/internal/database/models"
	"github.com/hugh/blogit/internal/metrics"
	"github.com/hugh/blogit/internal/posts"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrPostNotFound = errors.New("post not found")

// Transition names what a cast did to the (user, post) vote row.
type Transition string

const (
	TransitionCast    Transition = "cast"
	TransitionRetract Transition = "retract"
	TransitionSwitch  Transition = "switch"
	TransitionNoop    Transition = "noop"
)

type Result struct {
	Upvotes     int
	Downvotes   int
	NetVotes    int
	UserVote    models.VoteType
	IsBloggable bool
	Transition  Transition
}

// Tally applies votes and keeps each post's counters and bloggable flag in
// line with its vote rows.
type Tally struct {
	db        *gorm.DB
	threshold int
	logger    *slog.Logger
}

func NewTally(db *gorm.DB, threshold int, logger *slog.Logger) *Tally {
	return &Tally{db: db, threshold: threshold, logger: logger}
}

// Cast applies the actor's vote on a post they can see. Pressing the same
// vote again retracts it and pressing the other one switches it. A voteType
// other than "upvote" or "downvote" leaves the vote row alone but the derived
// counters are still refreshed.
func (t *Tally) Cast(ctx context.Context, actor auth.Actor, postID uuid.UUID, voteType string) (*Result, error) {
	requested, _ := models.ParseVoteType(voteType)

	var result *Result
	err := t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post models.Post
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Scopes(posts.Visible(actor)).
			Where("posts.id = ?", postID).
			First(&post).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPostNotFound
			}
			return fmt.Errorf("locking post: %w", err)
		}

		current, err := currentVote(tx, actor.UserID, post.ID)
		if err != nil {
			return err
		}

		transition, userVote, err := apply(tx, actor.UserID, post.ID, current, requested)
		if err != nil {
			return err
		}

		if err := t.refresh(tx, &post); err != nil {
			return err
		}

		result = &Result{
			Upvotes:     post.Upvotes,
			Downvotes:   post.Downvotes,
			NetVotes:    post.NetVotes(),
			UserVote:    userVote,
			IsBloggable: post.IsBloggable,
			Transition:  transition,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.VotesTotal.WithLabelValues(string(result.Transition)).Inc()
	t.logger.Info("vote cast",
		"post_id", postID,
		"user_id", actor.UserID,
		"transition", result.Transition,
		"net_votes", result.NetVotes,
		"is_bloggable", result.IsBloggable,
	)

	return result, nil
}

// currentVote returns the user's existing vote row on post, or nil.
func currentVote(tx *gorm.DB, userID, postID uuid.UUID) (*models.Vote, error) {
	var vote models.Vote
	res := tx.Where("user_id = ? AND post_id = ?", userID, postID).Limit(1).Find(&vote)
	if res.Error != nil {
		return nil, fmt.Errorf("loading vote: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return &vote, nil
}

// apply moves the vote row through the NoVote/Upvoted/Downvoted state
// machine and reports the resulting state.
func apply(tx *gorm.DB, userID, postID uuid.UUID, current *models.Vote, requested models.VoteType) (Transition, models.VoteType, error) {
	switch {
	case requested == models.VoteNone:
		if current == nil {
			return TransitionNoop, models.VoteNone, nil
		}
		return TransitionNoop, current.VoteType, nil

	case current == nil:
		vote := &models.Vote{UserID: userID, PostID: postID, VoteType: requested}
		if err := tx.Create(vote).Error; err != nil {
			return "", models.VoteNone, fmt.Errorf("creating vote: %w", err)
		}
		return TransitionCast, requested, nil

	case current.VoteType == requested:
		if err := tx.Delete(current).Error; err != nil {
			return "", models.VoteNone, fmt.Errorf("retracting vote: %w", err)
		}
		return TransitionRetract, models.VoteNone, nil

	default:
		if err := tx.Model(current).Update("vote_type", requested).Error; err != nil {
			return "", models.VoteNone, fmt.Errorf("switching vote: %w", err)
		}
		return TransitionSwitch, requested, nil
	}
}

type counts struct {
	Upvotes   int
	Downvotes int
}

// refresh re-derives post's counters from its vote rows and persists them
// with the bloggable flag. It must run inside a transaction holding the post
// row lock. Counters are aggregated, never incremented, so they cannot go
// negative.
func (t *Tally) refresh(tx *gorm.DB, post *models.Post) error {
	var c counts
	if err := tx.Model(&models.Vote{}).
		Select(
			"COALESCE(SUM(CASE WHEN vote_type = ? THEN 1 ELSE 0 END), 0) AS upvotes, "+
				"COALESCE(SUM(CASE WHEN vote_type = ? THEN 1 ELSE 0 END), 0) AS downvotes",
			models.VoteUpvote, models.VoteDownvote,
		).
		Where("post_id = ?", post.ID).
		Scan(&c).Error; err != nil {
		return fmt.Errorf("counting votes: %w", err)
	}

	post.Upvotes = c.Upvotes
	post.Downvotes = c.Downvotes
	post.IsBloggable = post.NetVotes() > t.threshold

	if err := tx.Model(post).Select("Upvotes", "Downvotes", "IsBloggable").Updates(post).Error; err != nil {
		return fmt.Errorf("saving tallies: %w", err)
	}
	return nil
}
