package etl

import "github.com/nchevrel/marmithon/internal/config"

// Categorizer buckets preparation minutes into ordinal time categories using
// closed-lower/open-upper intervals:
//
//	quick    = [0, quickUpper)
//	moderate = [quickUpper, moderateUpper)
//	long     = [moderateUpper, inf)
//
// The breakpoints come from configuration and must stay stable across runs
// because the category is embedded in the persisted table.
type Categorizer struct {
	quickUpper    int
	moderateUpper int
}

// NewCategorizer creates a Categorizer from the configured breakpoints.
func NewCategorizer(cfg config.Categories) *Categorizer {
	quick := cfg.QuickUpperMinutes
	if quick <= 0 {
		quick = 30
	}
	moderate := cfg.ModerateUpperMinutes
	if moderate <= quick {
		moderate = quick * 2
	}
	return &Categorizer{quickUpper: quick, moderateUpper: moderate}
}

// Categorize maps minutes to its time category. Deterministic and total over
// the cleaned domain (minutes >= 0).
func (c *Categorizer) Categorize(minutes int) TimeCategory {
	switch {
	case minutes < c.quickUpper:
		return TimeQuick
	case minutes < c.moderateUpper:
		return TimeModerate
	default:
		return TimeLong
	}
}

// Apply fills the derived TimeCategory of every recipe in place.
func (c *Categorizer) Apply(recipes []RecipeRecord) {
	for i := range recipes {
		recipes[i].TimeCategory = c.Categorize(recipes[i].Minutes)
	}
}
