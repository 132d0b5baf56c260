package models

import "time"

// Video is a cached YouTube result keyed by the platform video id.
type Video struct {
	VideoID      string `json:"videoId" db:"video_id"`
	Title        string `json:"title" db:"title"`
	Channel      string `json:"channel" db:"channel"`
	AgeMonthsMin int    `json:"ageMonthsMin" db:"age_months_min"`
	AgeMonthsMax int    `json:"ageMonthsMax" db:"age_months_max"`
	Query        string `json:"-" db:"query"`
	PublishedAt  string `json:"publishedAt" db:"published_at"`
}

// RecipePost is a cached recipe-search result keyed by the platform recipe id.
type RecipePost struct {
	RecipeID string `json:"recipeId" db:"recipe_id"`
	Title    string `json:"title" db:"title"`
	URL      string `json:"url" db:"url"`
	ImageURL string `json:"imageUrl" db:"image_url"`
	Category string `json:"-" db:"category"`
}

type BlogPost struct {
	Slug        string    `db:"slug"`
	Title       string    `db:"title"`
	Description string    `db:"description"`
	BodyHTML    string    `db:"body_html"`
	ViewCount   int       `db:"view_count"`
	PublishedAt time.Time `db:"published_at"`
}
