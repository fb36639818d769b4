package posts

import "github.com/gosimple/slug"

// Slugify derives the URL slug for a post title. The result depends only on
// the title, so re-saving an unchanged title keeps its slug.
func Slugify(title string) string {
	return slug.Make(title)
}
