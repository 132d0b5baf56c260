// Package app exposes the three rate-limited AI-proxy endpoints.
package app

import (
	"net/http"
	"strings"

	"github.com/tarokuma555-maker/mogumogu-sub000/app/config"
	"github.com/tarokuma555-maker/mogumogu-sub000/app/models"
	"github.com/tarokuma555-maker/mogumogu-sub000/llm"

	"github.com/gin-gonic/gin"
)

// Weaning guidance covers roughly 5 to 18 months.
const (
	minBabyAgeMonths = 5
	maxBabyAgeMonths = 18
)

const (
	tableConsultations    = "consultations"
	tableGeneratedRecipes = "generated_recipes"
	tableRecipeSearches   = "recipe_searches"
)

func consultFeature(cfg *config.Config) Feature {
	return Feature{
		Name:      "consult",
		Table:     tableConsultations,
		FreeLimit: cfg.Limits.ConsultDaily,
		Params:    llm.Params{Model: cfg.OpenAI.ConsultModel, Temperature: 0.7, MaxTokens: 800},
	}
}

func recipeFeature(cfg *config.Config) Feature {
	return Feature{
		Name:      "recipe-generate",
		Table:     tableGeneratedRecipes,
		FreeLimit: cfg.Limits.RecipeDaily,
		Params:    llm.Params{Model: cfg.OpenAI.RecipeModel, Temperature: 0.7, MaxTokens: 1500},
	}
}

func searchFeature(cfg *config.Config) Feature {
	return Feature{
		Name:      "recipe-search",
		Table:     tableRecipeSearches,
		FreeLimit: cfg.Limits.SearchDaily,
		Params:    llm.Params{Model: cfg.OpenAI.SearchModel, Temperature: 0.5, MaxTokens: 1500},
	}
}

func validAge(months int) bool {
	return months >= minBabyAgeMonths && months <= maxBabyAgeMonths
}

// ConsultHandler answers a free-text weaning question with a plain-text reply.
func ConsultHandler(client *llm.Client, cfg *config.Config) gin.HandlerFunc {
	feature := consultFeature(cfg)
	return func(c *gin.Context) {
		var req models.ConsultRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
		req.Message = strings.TrimSpace(req.Message)
		if req.Message == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
			return
		}
		if req.BabyAgeMonths != 0 && !validAge(req.BabyAgeMonths) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "babyAgeMonths must be between 5 and 18"})
			return
		}

		system, user := buildConsultMessages(req.Message, req.BabyAgeMonths)
		reply, usage, ok := runAIFeature(c, client, feature, system, user, nil)
		if !ok {
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"reply": reply,
			"usage": usage,
		})
	}
}

// GenerateRecipesHandler produces structured recipes from domain constraints.
func GenerateRecipesHandler(client *llm.Client, cfg *config.Config) gin.HandlerFunc {
	feature := recipeFeature(cfg)
	return func(c *gin.Context) {
		var req models.GenerateRecipesRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
		if !validAge(req.BabyAgeMonths) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "babyAgeMonths must be between 5 and 18"})
			return
		}
		if req.Count <= 0 || req.Count > 5 {
			req.Count = 3
		}

		system, user := buildRecipeMessages(req.BabyAgeMonths, req.Allergens, req.Preference, req.MealType, req.Count)
		var recipes []models.Recipe
		_, usage, ok := runAIFeature(c, client, feature, system, user, func(reply string) error {
			var err error
			recipes, err = extractRecipes(reply)
			return err
		})
		if !ok {
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"recipes": recipes,
			"usage":   usage,
		})
	}
}

// SearchRecipesHandler suggests recipes built around on-hand ingredients.
func SearchRecipesHandler(client *llm.Client, cfg *config.Config) gin.HandlerFunc {
	feature := searchFeature(cfg)
	return func(c *gin.Context) {
		var req models.SearchRecipesRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
		if !validAge(req.BabyAgeMonths) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "babyAgeMonths must be between 5 and 18"})
			return
		}
		ingredients := make([]string, 0, len(req.Ingredients))
		for _, ing := range req.Ingredients {
			if ing = strings.TrimSpace(ing); ing != "" {
				ingredients = append(ingredients, ing)
			}
		}
		if len(ingredients) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "at least one ingredient is required"})
			return
		}

		system, user := buildSearchMessages(req.BabyAgeMonths, ingredients)
		var recipes []models.Recipe
		_, usage, ok := runAIFeature(c, client, feature, system, user, func(reply string) error {
			var err error
			recipes, err = extractRecipes(reply)
			return err
		})
		if !ok {
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"recipes": recipes,
			"usage":   usage,
		})
	}
}
