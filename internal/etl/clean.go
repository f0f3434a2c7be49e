// Package etl turns validated raw records into the merged analysis table:
// cleaning with drop-and-count semantics, ordinal time categorization, and
// the inner join of interactions with recipes.
package etl

import (
	"github.com/rs/zerolog/log"

	"github.com/nchevrel/marmithon/internal/config"
)

// Cleaning rejection reason codes.
const (
	ReasonMissingName       = "missing_name"
	ReasonMissingReview     = "missing_review"
	ReasonMinutesOutOfRange = "minutes_out_of_range"
	ReasonZeroSteps         = "zero_steps"
	ReasonRatingOutOfRange  = "rating_out_of_range"
	ReasonOrphanInteraction = "orphan_interaction"
)

// Cleaner removes rows with missing required values or values outside the
// configured realistic bounds. Rows are dropped and counted, never imputed.
type Cleaner struct {
	cfg config.Cleaning
}

// NewCleaner creates a Cleaner with the given bounds.
func NewCleaner(cfg config.Cleaning) *Cleaner {
	return &Cleaner{cfg: cfg}
}

// CleanRecipes filters the recipe records. Null-removal runs before range
// checks so range filtering never sees missing-value sentinels.
func (c *Cleaner) CleanRecipes(recipes []RecipeRecord) ([]RecipeRecord, RejectSummary) {
	rejects := make(RejectSummary)
	kept := make([]RecipeRecord, 0, len(recipes))
	for _, r := range recipes {
		if r.Name == "" {
			rejects.Add(ReasonMissingName)
			continue
		}
		if r.Minutes < 0 || r.Minutes >= c.cfg.MaxMinutes {
			rejects.Add(ReasonMinutesOutOfRange)
			continue
		}
		if r.NSteps <= 0 {
			rejects.Add(ReasonZeroSteps)
			continue
		}
		kept = append(kept, r)
	}

	log.Info().Int("kept", len(kept)).Int("dropped", rejects.Total()).Msg("recipes cleaned")
	return kept, rejects
}

// CleanInteractions filters the interaction records. Boundary ratings are
// kept; one unit beyond either bound is dropped.
func (c *Cleaner) CleanInteractions(interactions []InteractionRecord) ([]InteractionRecord, RejectSummary) {
	rejects := make(RejectSummary)
	kept := make([]InteractionRecord, 0, len(interactions))
	for _, in := range interactions {
		if in.Review == "" {
			rejects.Add(ReasonMissingReview)
			continue
		}
		if in.Rating < c.cfg.RatingMin || in.Rating > c.cfg.RatingMax {
			rejects.Add(ReasonRatingOutOfRange)
			continue
		}
		kept = append(kept, in)
	}

	log.Info().Int("kept", len(kept)).Int("dropped", rejects.Total()).Msg("interactions cleaned")
	return kept, rejects
}
