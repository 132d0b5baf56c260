package app

import (
	"strings"
	"testing"
)

func TestJoinOrNone(t *testing.T) {
	if got := joinOrNone(nil); got != "none" {
		t.Fatalf("joinOrNone(nil) = %q, want none", got)
	}
	if got := joinOrNone([]string{}); got != "none" {
		t.Fatalf("joinOrNone(empty) = %q, want none", got)
	}
	if got := joinOrNone([]string{"egg", "milk", "wheat"}); got != "egg, milk, wheat" {
		t.Fatalf("joinOrNone = %q", got)
	}
}

func TestBuildRecipeMessagesEmptyAllergens(t *testing.T) {
	_, user := buildRecipeMessages(7, nil, "", "", 3)
	if !strings.Contains(user, "Excluded allergens: none") {
		t.Fatalf("empty allergen list should render as none: %q", user)
	}
	if strings.Contains(user, "[]") {
		t.Fatalf("prompt must never contain empty list markers: %q", user)
	}
}

func TestBuildRecipeMessagesJoinsAllergens(t *testing.T) {
	_, user := buildRecipeMessages(8, []string{"egg", "milk"}, "no sugar", "lunch", 2)
	if !strings.Contains(user, "egg, milk") {
		t.Fatalf("allergens should be joined with the configured separator: %q", user)
	}
	if !strings.Contains(user, "8-month-old") || !strings.Contains(user, "lunch") {
		t.Fatalf("prompt missing domain inputs: %q", user)
	}
}

func TestBuildRecipeMessagesDeterministic(t *testing.T) {
	s1, u1 := buildRecipeMessages(6, []string{"egg"}, "soft", "breakfast", 3)
	s2, u2 := buildRecipeMessages(6, []string{"egg"}, "soft", "breakfast", 3)
	if s1 != s2 || u1 != u2 {
		t.Fatalf("prompt builder must be deterministic")
	}
}

func TestBuildSearchMessages(t *testing.T) {
	_, user := buildSearchMessages(9, []string{"carrot", "tofu"})
	if !strings.Contains(user, "carrot, tofu") {
		t.Fatalf("ingredients missing from prompt: %q", user)
	}
	if !strings.Contains(user, "9-month-old") {
		t.Fatalf("age missing from prompt: %q", user)
	}
}

func TestBuildConsultMessages(t *testing.T) {
	system, user := buildConsultMessages("When can I introduce eggs?", 6)
	if system == "" {
		t.Fatalf("system prompt must not be empty")
	}
	if !strings.Contains(user, "6 months old") {
		t.Fatalf("age context missing: %q", user)
	}

	_, bare := buildConsultMessages("When can I introduce eggs?", 0)
	if bare != "When can I introduce eggs?" {
		t.Fatalf("zero age should pass the message through: %q", bare)
	}
}
