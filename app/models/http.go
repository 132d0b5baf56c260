package models

import "encoding/json"

// ConsultRequest is the payload for the AI consultation endpoint.
type ConsultRequest struct {
	Message       string `json:"message"`
	BabyAgeMonths int    `json:"babyAgeMonths,omitempty"`
}

// GenerateRecipesRequest is the payload for AI recipe generation.
type GenerateRecipesRequest struct {
	BabyAgeMonths int      `json:"babyAgeMonths"`
	Allergens     []string `json:"allergens"`
	Preference    string   `json:"preference"`
	MealType      string   `json:"mealType"`
	Count         int      `json:"count"`
}

// SearchRecipesRequest is the payload for ingredient-based recipe search.
type SearchRecipesRequest struct {
	BabyAgeMonths int      `json:"babyAgeMonths"`
	Ingredients   []string `json:"ingredients"`
}

// UsageInfo reports quota consumption back to the client.
// Limit is 0 for premium users, who are not limited.
type UsageInfo struct {
	Used      int  `json:"used"`
	Limit     int  `json:"limit"`
	IsPremium bool `json:"isPremium"`
}

// Recipe objects come back from the completion API as best-effort
// structured text; fields are untrusted and passed through as-is.
type Recipe = json.RawMessage
