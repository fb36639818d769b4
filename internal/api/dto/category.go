package dto

import "github.com/hugh/blogit/internal/database/models"

type CategoryRequest struct {
	Category *CategoryParams `json:"category"`
}

type CategoryParams struct {
	Name string `json:"name"`
}

func (r CategoryRequest) Validate() map[string]string {
	errors := make(map[string]string)
	if r.Category == nil {
		errors["category"] = MissingParam("category")
	}
	return errors
}

type CategoryResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func NewCategoryResponse(c *models.Category) CategoryResponse {
	return CategoryResponse{ID: c.ID.String(), Name: c.Name}
}
