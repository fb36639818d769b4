package votes

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/hugh/blogit/internal/database/models"
	"github.com/hugh/blogit/internal/metrics"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Reconcile recomputes the tallies of one post from its vote rows. It
// reports whether the stored values had drifted.
func (t *Tally) Reconcile(ctx context.Context, postID uuid.UUID) (bool, error) {
	var drifted bool
	err := t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post models.Post
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", postID).
			First(&post).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPostNotFound
			}
			return fmt.Errorf("locking post: %w", err)
		}

		before := post
		if err := t.refresh(tx, &post); err != nil {
			return err
		}
		drifted = before.Upvotes != post.Upvotes ||
			before.Downvotes != post.Downvotes ||
			before.IsBloggable != post.IsBloggable
		return nil
	})
	if err != nil {
		return false, err
	}

	if drifted {
		metrics.ReconciledPostsTotal.Inc()
		t.logger.Warn("vote tallies corrected", "post_id", postID)
	}
	return drifted, nil
}

// ReconcileAll runs Reconcile over every post and returns how many were
// corrected. Posts deleted while it runs are skipped.
func (t *Tally) ReconcileAll(ctx context.Context) (int, error) {
	var ids []uuid.UUID
	if err := t.db.WithContext(ctx).Model(&models.Post{}).Order("id").Pluck("id", &ids).Error; err != nil {
		return 0, fmt.Errorf("listing posts: %w", err)
	}

	corrected := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return corrected, err
		}

		drifted, err := t.Reconcile(ctx, id)
		if errors.Is(err, ErrPostNotFound) {
			continue
		}
		if err != nil {
			return corrected, fmt.Errorf("reconciling post %s: %w", id, err)
		}
		if drifted {
			corrected++
		}
	}

	t.logger.Info("vote reconciliation finished", "posts", len(ids), "corrected", corrected)
	return corrected, nil
}
