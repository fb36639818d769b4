package models

type Organization struct {
	Base
	Name string `gorm:"uniqueIndex;not null" json:"name"`

	// Relationships
	Users []User `gorm:"foreignKey:OrganizationID" json:"-"`
	Posts []Post `gorm:"foreignKey:OrganizationID" json:"-"`
}

func (Organization) TableName() string {
	return "organizations"
}
