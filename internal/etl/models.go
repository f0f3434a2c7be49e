package etl

import "sort"

// TimeCategory is the ordinal preparation-time bucket of a recipe. It is
// embedded in the persisted analysis table, so values must stay stable.
type TimeCategory string

const (
	TimeQuick    TimeCategory = "quick"
	TimeModerate TimeCategory = "moderate"
	TimeLong     TimeCategory = "long"
)

// RecipeRecord is the canonical recipe entity.
type RecipeRecord struct {
	ID            int64
	Name          string
	Minutes       int
	ContributorID int64
	Submitted     string
	Tags          []string
	Nutrition     []float64
	NSteps        int
	Steps         []string
	Description   string
	Ingredients   []string
	TimeCategory  TimeCategory
}

// InteractionRecord is the user rating entity.
type InteractionRecord struct {
	UserID   int64
	RecipeID int64
	Date     string
	Rating   float64
	Review   string
}

// AnalysisRow is one row of the denormalized analysis table: one interaction
// with its recipe's attributes repeated alongside.
type AnalysisRow struct {
	UserID       int64
	RecipeID     int64
	Date         string
	Rating       float64
	Review       string
	RecipeName   string
	Minutes      int
	NSteps       int
	Ingredients  []string
	Nutrition    []float64
	TimeCategory TimeCategory
}

// RejectSummary counts dropped rows per reason code. Row-level rejections are
// counted and skipped, never escalated to pipeline failures.
type RejectSummary map[string]int

func (s RejectSummary) Add(reason string) {
	s[reason]++
}

// Total returns the number of rows dropped across all reasons.
func (s RejectSummary) Total() int {
	n := 0
	for _, c := range s {
		n += c
	}
	return n
}

// Reasons returns the reason codes in lexicographic order.
func (s RejectSummary) Reasons() []string {
	reasons := make([]string, 0, len(s))
	for r := range s {
		reasons = append(reasons, r)
	}
	sort.Strings(reasons)
	return reasons
}

// Merge adds the counts of other into s.
func (s RejectSummary) Merge(other RejectSummary) {
	for r, c := range other {
		s[r] += c
	}
}
