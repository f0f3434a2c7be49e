package etl

import "github.com/rs/zerolog/log"

// MergeResult holds the denormalized join output and its drop accounting.
type MergeResult struct {
	Rows    []AnalysisRow
	Rejects RejectSummary
}

// Merge performs an inner join of interactions with recipes on the recipe
// identifier. One recipe fans out to one output row per interaction, with the
// recipe attributes repeated. Interactions referencing unknown recipes are
// dropped and counted, never silently ignored.
func Merge(interactions []InteractionRecord, recipes []RecipeRecord) *MergeResult {
	byID := make(map[int64]*RecipeRecord, len(recipes))
	for i := range recipes {
		byID[recipes[i].ID] = &recipes[i]
	}

	res := &MergeResult{Rejects: make(RejectSummary)}
	res.Rows = make([]AnalysisRow, 0, len(interactions))
	for _, in := range interactions {
		rec, ok := byID[in.RecipeID]
		if !ok {
			res.Rejects.Add(ReasonOrphanInteraction)
			continue
		}
		res.Rows = append(res.Rows, AnalysisRow{
			UserID:       in.UserID,
			RecipeID:     in.RecipeID,
			Date:         in.Date,
			Rating:       in.Rating,
			Review:       in.Review,
			RecipeName:   rec.Name,
			Minutes:      rec.Minutes,
			NSteps:       rec.NSteps,
			Ingredients:  rec.Ingredients,
			Nutrition:    rec.Nutrition,
			TimeCategory: rec.TimeCategory,
		})
	}

	log.Info().
		Int("rows", len(res.Rows)).
		Int("orphans", res.Rejects[ReasonOrphanInteraction]).
		Msg("datasets merged")
	return res
}
