package etl

import (
	"testing"

	"github.com/nchevrel/marmithon/internal/config"
)

func testCleaner() *Cleaner {
	return NewCleaner(config.Cleaning{
		MaxMinutes: 60 * 24 * 365,
		RatingMin:  0,
		RatingMax:  5,
	})
}

func TestCleanRecipes(t *testing.T) {
	recipes := []RecipeRecord{
		{ID: 1, Name: "ok", Minutes: 20, NSteps: 3},
		{ID: 2, Name: "", Minutes: 20, NSteps: 3},
		{ID: 3, Name: "negative", Minutes: -1, NSteps: 3},
		{ID: 4, Name: "implausible", Minutes: 60 * 24 * 365, NSteps: 3},
		{ID: 5, Name: "no steps", Minutes: 20, NSteps: 0},
		{ID: 6, Name: "zero minutes ok", Minutes: 0, NSteps: 1},
	}

	kept, rejects := testCleaner().CleanRecipes(recipes)
	if len(kept) != 2 {
		t.Fatalf("expected 2 kept, got %d", len(kept))
	}
	for _, r := range kept {
		if r.Minutes < 0 {
			t.Errorf("kept recipe with negative minutes: %+v", r)
		}
	}
	if rejects[ReasonMissingName] != 1 {
		t.Errorf("expected 1 missing_name, got %d", rejects[ReasonMissingName])
	}
	if rejects[ReasonMinutesOutOfRange] != 2 {
		t.Errorf("expected 2 minutes_out_of_range, got %d", rejects[ReasonMinutesOutOfRange])
	}
	if rejects[ReasonZeroSteps] != 1 {
		t.Errorf("expected 1 zero_steps, got %d", rejects[ReasonZeroSteps])
	}
}

func TestCleanInteractionsRatingBounds(t *testing.T) {
	tests := []struct {
		name   string
		rating float64
		kept   bool
	}{
		{"at minimum", 0, true},
		{"at maximum", 5, true},
		{"one below minimum", -1, false},
		{"one above maximum", 6, false},
		{"mid scale", 3, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := []InteractionRecord{{UserID: 1, RecipeID: 1, Rating: tt.rating, Review: "r"}}
			kept, rejects := testCleaner().CleanInteractions(in)
			if (len(kept) == 1) != tt.kept {
				t.Errorf("rating %v: kept=%d, want kept=%v", tt.rating, len(kept), tt.kept)
			}
			if !tt.kept && rejects[ReasonRatingOutOfRange] != 1 {
				t.Errorf("rating %v: expected rating_out_of_range reject", tt.rating)
			}
		})
	}
}

func TestCleanInteractionsMissingReview(t *testing.T) {
	in := []InteractionRecord{
		{UserID: 1, RecipeID: 1, Rating: 5, Review: "fine"},
		{UserID: 2, RecipeID: 1, Rating: 5, Review: ""},
	}
	kept, rejects := testCleaner().CleanInteractions(in)
	if len(kept) != 1 {
		t.Errorf("expected 1 kept, got %d", len(kept))
	}
	if rejects[ReasonMissingReview] != 1 {
		t.Errorf("expected 1 missing_review, got %d", rejects[ReasonMissingReview])
	}
}

// A row that is both missing its review and out of range must be counted
// under the missing-value reason: null-removal precedes range filtering.
func TestCleanOrderNullBeforeRange(t *testing.T) {
	in := []InteractionRecord{{UserID: 1, RecipeID: 1, Rating: 9, Review: ""}}
	_, rejects := testCleaner().CleanInteractions(in)
	if rejects[ReasonMissingReview] != 1 || rejects[ReasonRatingOutOfRange] != 0 {
		t.Errorf("expected missing_review to win, got %v", rejects)
	}
}
