package analyze

import (
	"sort"
	"strings"

	"github.com/nchevrel/marmithon/internal/textproc"
)

// TopN returns the first n entries of a sorted term table.
func TopN(table []TermWeight, n int) []TermWeight {
	if n < 0 {
		n = 0
	}
	if n > len(table) {
		n = len(table)
	}
	return table[:n]
}

// Comparison is the set overlap between the frequency-based and TF-IDF-based
// top-N term sets for one corpus scope. All slices are sorted.
type Comparison struct {
	Common        []string
	OnlyFrequency []string
	OnlyTFIDF     []string
}

// Compare derives the top-N sets under both weighting modes and returns their
// intersection and exclusive sides.
func Compare(corpus *textproc.TokenizedCorpus, n int) Comparison {
	freq := termSet(TopN(Frequency(corpus), n))
	tfidf := termSet(TopN(TFIDF(corpus), n))

	var cmp Comparison
	for term := range freq {
		if _, ok := tfidf[term]; ok {
			cmp.Common = append(cmp.Common, term)
		} else {
			cmp.OnlyFrequency = append(cmp.OnlyFrequency, term)
		}
	}
	for term := range tfidf {
		if _, ok := freq[term]; !ok {
			cmp.OnlyTFIDF = append(cmp.OnlyTFIDF, term)
		}
	}
	sort.Strings(cmp.Common)
	sort.Strings(cmp.OnlyFrequency)
	sort.Strings(cmp.OnlyTFIDF)
	return cmp
}

func termSet(table []TermWeight) map[string]struct{} {
	set := make(map[string]struct{}, len(table))
	for _, tw := range table {
		set[tw.Term] = struct{}{}
	}
	return set
}

// IngredientCount is one ranked ingredient with its occurrence count and
// coarse category.
type IngredientCount struct {
	Ingredient string
	Count      int
	Category   string
}

// CategoryCount aggregates ingredient occurrences by coarse category, the
// shape consumed by the polar-plot visualization.
type CategoryCount struct {
	Category string
	Count    int
}

// TopIngredients counts ingredient occurrences across recipes, skips the
// excluded set (over-common ingredients and measurement units), and returns
// the n most frequent. Ties break lexicographically.
func TopIngredients(lists [][]string, excluded []string, n int) []IngredientCount {
	skip := make(map[string]struct{}, len(excluded))
	for _, e := range excluded {
		skip[strings.ToLower(strings.TrimSpace(e))] = struct{}{}
	}

	counts := make(map[string]int)
	for _, list := range lists {
		for _, ing := range list {
			ing = strings.ToLower(strings.TrimSpace(ing))
			if ing == "" {
				continue
			}
			if _, ok := skip[ing]; ok {
				continue
			}
			counts[ing]++
		}
	}

	ranked := make([]IngredientCount, 0, len(counts))
	for ing, c := range counts {
		ranked = append(ranked, IngredientCount{Ingredient: ing, Count: c, Category: ingredientCategory(ing)})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Ingredient < ranked[j].Ingredient
	})

	if n >= 0 && n < len(ranked) {
		ranked = ranked[:n]
	}
	return ranked
}

// GroupByCategory sums ingredient counts per coarse category, ordered by
// count descending then category name.
func GroupByCategory(ranked []IngredientCount) []CategoryCount {
	totals := make(map[string]int)
	for _, ic := range ranked {
		totals[ic.Category] += ic.Count
	}

	out := make([]CategoryCount, 0, len(totals))
	for cat, c := range totals {
		out = append(out, CategoryCount{Category: cat, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// Coarse ingredient categories, keyed by substring markers.
var categoryMarkers = []struct {
	category string
	markers  []string
}{
	{"meat & fish", []string{
		"chicken", "beef", "pork", "bacon", "sausage", "turkey", "ham",
		"lamb", "fish", "salmon", "tuna", "shrimp", "crab",
	}},
	{"dairy & eggs", []string{
		"milk", "cheese", "cream", "yogurt", "egg", "mozzarella",
		"parmesan", "cheddar", "margarine",
	}},
	{"produce", []string{
		"onion", "garlic", "tomato", "carrot", "celery", "mushroom",
		"potato", "spinach", "lettuce", "cucumber", "zucchini", "apple",
		"banana", "lemon", "lime", "orange", "berry", "berries", "pea",
		"bean", "corn", "avocado", "cabbage", "broccoli",
	}},
	{"grains & starch", []string{
		"rice", "pasta", "noodle", "bread", "oat", "tortilla", "couscous",
		"quinoa", "barley", "cornmeal", "cracker",
	}},
	{"spices & seasoning", []string{
		"cinnamon", "vanilla", "basil", "oregano", "paprika", "cumin",
		"ginger", "parsley", "thyme", "rosemary", "nutmeg", "chili",
		"curry", "mustard", "soy sauce", "vinegar", "baking powder",
		"baking soda", "yeast",
	}},
}

// ingredientCategory maps one ingredient to its coarse category.
func ingredientCategory(ingredient string) string {
	for _, group := range categoryMarkers {
		for _, marker := range group.markers {
			if strings.Contains(ingredient, marker) {
				return group.category
			}
		}
	}
	return "other"
}
