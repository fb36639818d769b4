package auth

import (
	"context"
	"errors"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/hugh/blogit/internal/database/models"
	"github.com/hugh/blogit/internal/validation"
	"github.com/hugh/blogit/pkg/crypto"
	"gorm.io/gorm"
)

// Verifier checks the X-Auth-Email / X-Auth-Token pair. User rows are cached
// by email for a short TTL; the token itself is always compared in constant
// time against the stored digest.
type Verifier struct {
	db    *gorm.DB
	cache *expirable.LRU[string, *models.User]
}

// NewVerifier builds a verifier. A non-positive size disables caching.
func NewVerifier(db *gorm.DB, size int, ttl time.Duration) *Verifier {
	v := &Verifier{db: db}
	if size > 0 {
		v.cache = expirable.NewLRU[string, *models.User](size, nil, ttl)
	}
	return v
}

func (v *Verifier) Verify(ctx context.Context, email, token string) (*models.User, error) {
	email = validation.NormalizeEmail(email)
	if email == "" {
		return nil, ErrUnauthenticated
	}

	user, err := v.lookup(ctx, email)
	if err != nil {
		return nil, err
	}

	if token == "" || !crypto.EqualDigest(token, user.TokenDigest) {
		return nil, ErrUnauthenticated
	}

	return user, nil
}

// Forget drops any cached entry for email.
func (v *Verifier) Forget(email string) {
	if v.cache != nil {
		v.cache.Remove(validation.NormalizeEmail(email))
	}
}

func (v *Verifier) lookup(ctx context.Context, email string) (*models.User, error) {
	if v.cache != nil {
		if user, ok := v.cache.Get(email); ok {
			return user, nil
		}
	}

	var user models.User
	if err := v.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if v.cache != nil {
		v.cache.Add(email, &user)
	}
	return &user, nil
}
