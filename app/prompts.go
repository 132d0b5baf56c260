package app

import (
	"fmt"
	"strings"
)

// Prompt builders are pure: the same validated inputs always yield the
// same strings, so completions can be reproduced in tests.

const listSeparator = ", "

// joinOrNone renders a list for prompt text, with "none" for an empty list
// so the prompt never carries empty brackets.
func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, listSeparator)
}

const consultSystemPrompt = "You are a pediatric nutrition assistant for parents introducing solid foods to infants. " +
	"Answer briefly and practically. Recommend consulting a pediatrician for medical concerns. " +
	"Never suggest honey for babies under 12 months."

func buildConsultMessages(message string, babyAgeMonths int) (system, user string) {
	system = consultSystemPrompt
	if babyAgeMonths > 0 {
		user = fmt.Sprintf("My baby is %d months old. %s", babyAgeMonths, message)
	} else {
		user = message
	}
	return system, user
}

const recipeSystemPrompt = "You are a baby food recipe generator. " +
	"Respond with ONLY a JSON array of recipe objects, each with fields: " +
	`"name", "description", "ingredients" (array of strings), "steps" (array of strings), "ageMonths". ` +
	"No prose outside the JSON."

func buildRecipeMessages(babyAgeMonths int, allergens []string, preference, mealType string, count int) (system, user string) {
	if preference == "" {
		preference = "none"
	}
	if mealType == "" {
		mealType = "any"
	}
	system = recipeSystemPrompt
	user = fmt.Sprintf(
		"Create %d weaning food recipes for a %d-month-old baby. Meal type: %s. Excluded allergens: %s. Parent preference: %s.",
		count, babyAgeMonths, mealType, joinOrNone(allergens), preference,
	)
	return system, user
}

func buildSearchMessages(babyAgeMonths int, ingredients []string) (system, user string) {
	system = recipeSystemPrompt
	user = fmt.Sprintf(
		"Suggest weaning food recipes for a %d-month-old baby using only these available ingredients: %s. Plain water and rice are always available.",
		babyAgeMonths, joinOrNone(ingredients),
	)
	return system, user
}
