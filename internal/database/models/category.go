package models

type Category struct {
	Base
	Name string `gorm:"uniqueIndex;not null" json:"name"`

	Posts []Post `gorm:"many2many:categories_posts" json:"-"`
}

func (Category) TableName() string {
	return "categories"
}
