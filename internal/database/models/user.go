package models

import "github.com/google/uuid"

type User struct {
	Base
	Name           string    `gorm:"not null" json:"name"`
	Email          string    `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash   string    `gorm:"not null" json:"-"`
	OrganizationID uuid.UUID `gorm:"type:uuid;index;not null" json:"organization_id"`

	// The authentication token is stored twice: a SHA-256 digest used for
	// verification and uniqueness, and an age-sealed copy so the plaintext
	// can be handed back on login.
	TokenDigest string `gorm:"uniqueIndex;not null" json:"-"`
	TokenSealed []byte `gorm:"not null" json:"-"`

	// Relationships
	Organization *Organization `gorm:"foreignKey:OrganizationID" json:"organization,omitempty"`
	Posts        []Post        `gorm:"foreignKey:UserID" json:"-"`
	Votes        []Vote        `gorm:"foreignKey:UserID" json:"-"`
}

func (User) TableName() string {
	return "users"
}
