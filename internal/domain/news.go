package domain

import "time"

// Placeholders substituted when a provider omits optional article fields.
const (
	NoDescriptionPlaceholder = "No description available."
	NoImagePlaceholder       = "https://via.placeholder.com/150"
)

type NewsArticle struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	ImageURL    string    `json:"imageUrl"`
	Source      string    `json:"source"`
	PublishedAt time.Time `json:"publishedAt"`
}

// Normalize fills placeholder values for absent optional fields.
func (a *NewsArticle) Normalize() {
	if a.Description == "" {
		a.Description = NoDescriptionPlaceholder
	}
	if a.ImageURL == "" {
		a.ImageURL = NoImagePlaceholder
	}
}
