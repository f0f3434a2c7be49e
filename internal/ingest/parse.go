package ingest

import (
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/nchevrel/marmithon/internal/etl"
)

// Row rejection reason codes emitted during validation.
const (
	ReasonShortRow     = "short_row"
	ReasonMissingValue = "missing_value"
	ReasonBadNumber    = "bad_number"
)

// ParseRecipes validates and type-coerces the raw recipes table. Individual
// bad rows are dropped and counted; only an absent required column is fatal.
func ParseRecipes(t *Table) ([]etl.RecipeRecord, etl.RejectSummary, error) {
	spec := RecipesSpec()
	if err := Validate(spec, t); err != nil {
		return nil, nil, err
	}
	idx := columnIndex(spec, t)

	rejects := make(etl.RejectSummary)
	records := make([]etl.RecipeRecord, 0, len(t.Rows))
	for _, row := range t.Rows {
		rec, reason := parseRecipeRow(row, idx)
		if reason != "" {
			rejects.Add(reason)
			continue
		}
		records = append(records, rec)
	}

	logRejects(spec.Source, len(records), rejects)
	return records, rejects, nil
}

// ParseInteractions validates and type-coerces the raw interactions table.
func ParseInteractions(t *Table) ([]etl.InteractionRecord, etl.RejectSummary, error) {
	spec := InteractionsSpec()
	if err := Validate(spec, t); err != nil {
		return nil, nil, err
	}
	idx := columnIndex(spec, t)

	rejects := make(etl.RejectSummary)
	records := make([]etl.InteractionRecord, 0, len(t.Rows))
	for _, row := range t.Rows {
		rec, reason := parseInteractionRow(row, idx)
		if reason != "" {
			rejects.Add(reason)
			continue
		}
		records = append(records, rec)
	}

	logRejects(spec.Source, len(records), rejects)
	return records, rejects, nil
}

func parseRecipeRow(row []string, idx map[string]int) (etl.RecipeRecord, string) {
	var rec etl.RecipeRecord

	get, ok := fieldGetter(row, idx)
	if !ok {
		return rec, ReasonShortRow
	}

	var reason string
	rec.ID = parseInt(get("id"), &reason)
	rec.Minutes = int(parseInt(get("minutes"), &reason))
	rec.ContributorID = parseInt(get("contributor_id"), &reason)
	rec.NSteps = int(parseInt(get("n_steps"), &reason))
	if reason != "" {
		return rec, reason
	}

	rec.Name = strings.TrimSpace(get("name"))
	rec.Submitted = strings.TrimSpace(get("submitted"))
	rec.Description = strings.TrimSpace(get("description"))
	rec.Tags = parseList(get("tags"))
	rec.Steps = parseList(get("steps"))
	rec.Ingredients = parseList(get("ingredients"))
	rec.Nutrition = parseFloatList(get("nutrition"), &reason)
	if reason != "" {
		return rec, reason
	}
	return rec, ""
}

func parseInteractionRow(row []string, idx map[string]int) (etl.InteractionRecord, string) {
	var rec etl.InteractionRecord

	get, ok := fieldGetter(row, idx)
	if !ok {
		return rec, ReasonShortRow
	}

	var reason string
	rec.UserID = parseInt(get("user_id"), &reason)
	rec.RecipeID = parseInt(get("recipe_id"), &reason)
	rec.Rating = parseFloat(get("rating"), &reason)
	if reason != "" {
		return rec, reason
	}

	rec.Date = strings.TrimSpace(get("date"))
	rec.Review = strings.TrimSpace(get("review"))
	return rec, ""
}

// fieldGetter returns an accessor over row by column name, or false when the
// row is too short to hold every required column.
func fieldGetter(row []string, idx map[string]int) (func(string) string, bool) {
	for _, i := range idx {
		if i >= len(row) {
			return nil, false
		}
	}
	return func(name string) string { return row[idx[name]] }, true
}

func parseInt(s string, reason *string) int64 {
	if *reason != "" {
		return 0
	}
	s = strings.TrimSpace(s)
	if s == "" {
		*reason = ReasonMissingValue
		return 0
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		*reason = ReasonBadNumber
		return 0
	}
	return v
}

func parseFloat(s string, reason *string) float64 {
	if *reason != "" {
		return 0
	}
	s = strings.TrimSpace(s)
	if s == "" {
		*reason = ReasonMissingValue
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*reason = ReasonBadNumber
		return 0
	}
	return v
}

// parseList splits a bracketed upstream list ("['egg', 'flour']") into its
// elements. Plain comma-separated text ("egg, flour") parses the same way.
func parseList(s string) []string {
	cleaned := strings.NewReplacer("[", "", "]", "", "'", "", `"`, "").Replace(s)
	parts := strings.Split(cleaned, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseFloatList(s string, reason *string) []float64 {
	if *reason != "" {
		return nil
	}
	parts := parseList(s)
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			*reason = ReasonBadNumber
			return nil
		}
		out = append(out, v)
	}
	return out
}

func logRejects(source string, kept int, rejects etl.RejectSummary) {
	ev := log.Info().Str("source", source).Int("kept", kept).Int("rejected", rejects.Total())
	for _, reason := range rejects.Reasons() {
		ev = ev.Int("rejected_"+reason, rejects[reason])
	}
	ev.Msg("source validated")
}
