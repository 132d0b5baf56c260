package app

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/tarokuma555-maker/mogumogu-sub000/app/models"
)

// reFence matches an optional surrounding Markdown code fence, with or
// without a "json" language tag.
var reFence = regexp.MustCompile("(?s)^```(?:json)?\\s*(.*?)\\s*```$")

// malformedCompletionError carries the raw completion text for logs only.
type malformedCompletionError struct {
	Raw    string
	Reason string
}

func (e malformedCompletionError) Error() string {
	return fmt.Sprintf("malformed completion: %s", e.Reason)
}

// extractRecipes parses raw completion text into a recipe array. It accepts
// a bare JSON array or an object with a "recipes" field, either optionally
// wrapped in a code fence. Individual recipe fields stay unvalidated.
func extractRecipes(raw string) ([]models.Recipe, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return nil, malformedCompletionError{Raw: raw, Reason: "empty text"}
	}

	if m := reFence.FindStringSubmatch(text); m != nil {
		text = m[1]
	}

	var recipes []models.Recipe
	if err := json.Unmarshal([]byte(text), &recipes); err == nil {
		return recipes, nil
	}

	var wrapped struct {
		Recipes []models.Recipe `json:"recipes"`
	}
	if err := json.Unmarshal([]byte(text), &wrapped); err != nil {
		return nil, malformedCompletionError{Raw: raw, Reason: "not valid JSON"}
	}
	if wrapped.Recipes == nil {
		return nil, malformedCompletionError{Raw: raw, Reason: "no recipes array"}
	}
	return wrapped.Recipes, nil
}
