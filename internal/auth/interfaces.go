package auth

import (
	"context"

	"github.com/google/uuid"
	"github.com/hugh/blogit/internal/database/models"
)

// Authenticator defines the interface for signup and login.
type Authenticator interface {
	Signup(ctx context.Context, input SignupInput) (*models.User, error)
	Login(ctx context.Context, input LoginInput) (*Session, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// CredentialVerifier resolves the (email, token) header pair to a user.
// It returns ErrUserNotFound for an unknown email and ErrUnauthenticated
// for a missing or mismatched token.
type CredentialVerifier interface {
	Verify(ctx context.Context, email, token string) (*models.User, error)
}

// Compile-time interface satisfaction checks
var (
	_ Authenticator      = (*Service)(nil)
	_ CredentialVerifier = (*Verifier)(nil)
)
