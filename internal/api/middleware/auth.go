package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/hugh/blogit/internal/auth"
)

type contextKey string

const (
	ActorKey contextKey = "actor"
)

const (
	EmailHeader = "X-Auth-Email"
	TokenHeader = "X-Auth-Token"
)

// Auth resolves the X-Auth-Email / X-Auth-Token pair through verifier and
// stores the acting user in the request context. An unknown email is a 404;
// a missing or wrong token is a 401.
func Auth(verifier auth.CredentialVerifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := verifier.Verify(r.Context(), r.Header.Get(EmailHeader), r.Header.Get(TokenHeader))
			if err != nil {
				switch {
				case errors.Is(err, auth.ErrUserNotFound):
					writeError(w, http.StatusNotFound, "User not found")
				case errors.Is(err, auth.ErrUnauthenticated):
					writeError(w, http.StatusUnauthorized, "Could not authenticate with the provided credentials")
				default:
					logger.Error("verifying credentials", "error", err)
					writeError(w, http.StatusInternalServerError, "Internal server error")
				}
				return
			}

			ctx := WithActor(r.Context(), auth.ActorFromUser(user))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithActor returns a copy of ctx carrying actor.
func WithActor(ctx context.Context, actor auth.Actor) context.Context {
	return context.WithValue(ctx, ActorKey, actor)
}

// Helper functions to extract values from context
func GetActor(ctx context.Context) auth.Actor {
	if actor, ok := ctx.Value(ActorKey).(auth.Actor); ok {
		return actor
	}
	return auth.Actor{}
}

func GetUserID(ctx context.Context) uuid.UUID {
	return GetActor(ctx).UserID
}

func GetOrganizationID(ctx context.Context) uuid.UUID {
	return GetActor(ctx).OrganizationID
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
