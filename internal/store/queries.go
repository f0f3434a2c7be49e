package store

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/nchevrel/marmithon/internal/etl"
)

// ReadAll returns every row of the analysis table in insertion order.
// Used by round-trip verification and small datasets; analytic callers use
// the scope queries instead.
func (db *DB) ReadAll(ctx context.Context) ([]etl.AnalysisRow, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT user_id, recipe_id, date, rating, review, recipe_name,
		       minutes, n_steps, ingredients, nutrition, time_category
		FROM analysis`)
	if err != nil {
		return nil, fmt.Errorf("reading analysis table: %w", err)
	}
	defer rows.Close()

	var out []etl.AnalysisRow
	for rows.Next() {
		var r etl.AnalysisRow
		var ingredients, nutrition, category string
		err := rows.Scan(
			&r.UserID, &r.RecipeID, &r.Date, &r.Rating, &r.Review,
			&r.RecipeName, &r.Minutes, &r.NSteps, &ingredients, &nutrition, &category,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning analysis row: %w", err)
		}
		r.Ingredients = splitList(ingredients)
		r.Nutrition, err = splitFloats(nutrition)
		if err != nil {
			return nil, fmt.Errorf("scanning analysis row: %w", err)
		}
		r.TimeCategory = etl.TimeCategory(category)
		out = append(out, r)
	}
	return out, rows.Err()
}

// CountRows returns the number of rows in the analysis table.
func (db *DB) CountRows(ctx context.Context) (int, error) {
	var n int
	if err := db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM analysis").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting analysis rows: %w", err)
	}
	return n, nil
}

// CountRecipes returns the number of distinct recipes in the analysis table.
func (db *DB) CountRecipes(ctx context.Context) (int, error) {
	var n int
	if err := db.conn.QueryRowContext(ctx, "SELECT COUNT(DISTINCT recipe_id) FROM analysis").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting recipes: %w", err)
	}
	return n, nil
}

// TopReviews returns the review texts of the limit highest-rated (best=true)
// or lowest-rated (best=false) interactions. Ties order deterministically by
// recipe then user identifier.
func (db *DB) TopReviews(ctx context.Context, best bool, limit int) ([]string, error) {
	direction := "ASC"
	if best {
		direction = "DESC"
	}
	q := fmt.Sprintf(`
		SELECT review FROM analysis
		ORDER BY rating %s, recipe_id, user_id
		LIMIT ?`, direction)

	rows, err := db.conn.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("querying top reviews: %w", err)
	}
	defer rows.Close()
	return scanStrings(rows)
}

// MostReviewedIngredientDocs returns one ingredient-list document per recipe
// for the limit most-reviewed recipes, most reviewed first.
func (db *DB) MostReviewedIngredientDocs(ctx context.Context, limit int) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT ingredients FROM (
			SELECT recipe_id, ingredients, COUNT(*) AS nb_reviews
			FROM analysis
			GROUP BY recipe_id, ingredients
			ORDER BY nb_reviews DESC, recipe_id
			LIMIT ?
		)`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying most-reviewed ingredients: %w", err)
	}
	defer rows.Close()
	return scanStrings(rows)
}

// IngredientLists returns the ingredient list of every distinct recipe.
func (db *DB) IngredientLists(ctx context.Context) ([][]string, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT DISTINCT recipe_id, ingredients FROM analysis ORDER BY recipe_id`)
	if err != nil {
		return nil, fmt.Errorf("querying ingredient lists: %w", err)
	}
	defer rows.Close()

	var out [][]string
	for rows.Next() {
		var id int64
		var ingredients string
		if err := rows.Scan(&id, &ingredients); err != nil {
			return nil, fmt.Errorf("scanning ingredient list: %w", err)
		}
		out = append(out, splitList(ingredients))
	}
	return out, rows.Err()
}

// CategoryCounts returns the number of analysis rows per time category.
func (db *DB) CategoryCounts(ctx context.Context) (map[etl.TimeCategory]int, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT time_category, COUNT(*) FROM analysis GROUP BY time_category`)
	if err != nil {
		return nil, fmt.Errorf("querying category counts: %w", err)
	}
	defer rows.Close()

	out := make(map[etl.TimeCategory]int)
	for rows.Next() {
		var category string
		var n int
		if err := rows.Scan(&category, &n); err != nil {
			return nil, fmt.Errorf("scanning category count: %w", err)
		}
		out[etl.TimeCategory(category)] = n
	}
	return out, rows.Err()
}

func scanStrings(rows interface {
	Next() bool
	Scan(...any) error
	Err() error
}) ([]string, error) {
	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// List columns are stored as delimiter-joined text. The separator never
// occurs inside elements after ingest's list parsing.
const listSeparator = ", "

func joinList(items []string) string {
	return strings.Join(items, listSeparator)
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, listSeparator)
}

func joinFloats(values []float64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strings.Join(parts, listSeparator)
}

func splitFloats(s string) ([]float64, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, listSeparator)
	out := make([]float64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, fmt.Errorf("parsing stored nutrition value %q: %w", p, err)
		}
		out[i] = v
	}
	return out, nil
}
