package auth

import (
	"github.com/google/uuid"
	"github.com/hugh/blogit/internal/database/models"
)

// Actor is the authenticated user on whose behalf an operation runs. It is
// passed explicitly into every service call instead of living in globals.
type Actor struct {
	UserID         uuid.UUID
	OrganizationID uuid.UUID
	Name           string
	Email          string
}

func ActorFromUser(u *models.User) Actor {
	return Actor{
		UserID:         u.ID,
		OrganizationID: u.OrganizationID,
		Name:           u.Name,
		Email:          u.Email,
	}
}

// IsZero reports whether the actor carries no identity.
func (a Actor) IsZero() bool {
	return a.UserID == uuid.Nil
}
