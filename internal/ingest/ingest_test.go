package ingest

import (
	"archive/zip"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const recipesCSV = `name,id,minutes,contributor_id,submitted,tags,nutrition,n_steps,steps,description,ingredients
pancakes,1,20,10,2008-01-01,"['breakfast', 'easy']","[51.5, 0.0, 13.0]",3,"['mix', 'pour', 'flip']",simple pancakes,"['egg', 'flour']"
stew,2,90,11,2009-05-04,['dinner'],"[200.0, 10.0]",5,"['chop', 'simmer']",slow stew,"['beef', 'carrot']"
`

const interactionsCSV = `user_id,recipe_id,date,rating,review
1,1,2010-02-03,5,loved it
2,1,2010-02-04,4,pretty good
3,2,2010-03-01,2,too salty
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	return path
}

func writeZip(t *testing.T, name, inner, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("creating zip: %v", err)
	}
	defer f.Close()
	zw := zip.NewWriter(f)
	w, err := zw.Create(inner)
	if err != nil {
		t.Fatalf("creating zip entry: %v", err)
	}
	if _, err := w.Write([]byte(content)); err != nil {
		t.Fatalf("writing zip entry: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("closing zip: %v", err)
	}
	return path
}

func TestReadTableCSV(t *testing.T) {
	path := writeFile(t, "recipes.csv", recipesCSV)
	table, err := ReadTable(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(table.Header) != 11 {
		t.Errorf("expected 11 columns, got %d", len(table.Header))
	}
	if len(table.Rows) != 2 {
		t.Errorf("expected 2 rows, got %d", len(table.Rows))
	}
}

func TestReadTableZip(t *testing.T) {
	path := writeZip(t, "RAW_interactions.csv.zip", "RAW_interactions.csv", interactionsCSV)
	table, err := ReadTable(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(table.Rows) != 3 {
		t.Errorf("expected 3 rows, got %d", len(table.Rows))
	}
}

func TestReadTableMissing(t *testing.T) {
	if _, err := ReadTable(filepath.Join(t.TempDir(), "nope.csv")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestValidateMissingColumn(t *testing.T) {
	path := writeFile(t, "bad.csv", "user_id,recipe_id,date\n1,2,2010-01-01\n")
	table, err := ReadTable(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, _, err = ParseInteractions(table)
	var schemaErr *SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("expected SchemaError, got %v", err)
	}
	if len(schemaErr.Columns) != 2 {
		t.Errorf("expected 2 missing columns, got %v", schemaErr.Columns)
	}
}

func TestParseRecipes(t *testing.T) {
	table, err := ReadTable(writeFile(t, "recipes.csv", recipesCSV))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	recipes, rejects, err := ParseRecipes(table)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rejects.Total() != 0 {
		t.Errorf("expected no rejects, got %v", rejects)
	}
	if len(recipes) != 2 {
		t.Fatalf("expected 2 recipes, got %d", len(recipes))
	}

	r := recipes[0]
	if r.ID != 1 || r.Name != "pancakes" || r.Minutes != 20 {
		t.Errorf("unexpected recipe: %+v", r)
	}
	if len(r.Ingredients) != 2 || r.Ingredients[0] != "egg" || r.Ingredients[1] != "flour" {
		t.Errorf("unexpected ingredients: %v", r.Ingredients)
	}
	if len(r.Nutrition) != 3 || r.Nutrition[0] != 51.5 {
		t.Errorf("unexpected nutrition: %v", r.Nutrition)
	}
}

func TestParseRecipesRejectsBadRows(t *testing.T) {
	csv := `name,id,minutes,contributor_id,submitted,tags,nutrition,n_steps,steps,description,ingredients
ok,1,20,10,2008-01-01,[],"[1.0]",2,"['a', 'b']",d,"['egg']"
bad minutes,2,soon,10,2008-01-01,[],"[1.0]",2,['a'],d,['egg']
,3,,10,2008-01-01,[],"[1.0]",2,['a'],d,['egg']
`
	table, err := ReadTable(writeFile(t, "recipes.csv", csv))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	recipes, rejects, err := ParseRecipes(table)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recipes) != 1 {
		t.Errorf("expected 1 recipe, got %d", len(recipes))
	}
	if rejects[ReasonBadNumber] != 1 {
		t.Errorf("expected 1 bad_number reject, got %d", rejects[ReasonBadNumber])
	}
	if rejects[ReasonMissingValue] != 1 {
		t.Errorf("expected 1 missing_value reject, got %d", rejects[ReasonMissingValue])
	}
}

func TestParseInteractions(t *testing.T) {
	table, err := ReadTable(writeFile(t, "interactions.csv", interactionsCSV))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	interactions, rejects, err := ParseInteractions(table)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rejects.Total() != 0 {
		t.Errorf("expected no rejects, got %v", rejects)
	}
	if len(interactions) != 3 {
		t.Fatalf("expected 3 interactions, got %d", len(interactions))
	}
	if interactions[0].UserID != 1 || interactions[0].Rating != 5 || interactions[0].Review != "loved it" {
		t.Errorf("unexpected interaction: %+v", interactions[0])
	}
}

func TestParseInteractionsShortRow(t *testing.T) {
	csv := "user_id,recipe_id,date,rating,review\n1,1\n2,1,2010-01-01,4,fine\n"
	table, err := ReadTable(writeFile(t, "interactions.csv", csv))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	interactions, rejects, err := ParseInteractions(table)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(interactions) != 1 {
		t.Errorf("expected 1 interaction, got %d", len(interactions))
	}
	if rejects[ReasonShortRow] != 1 {
		t.Errorf("expected 1 short_row reject, got %d", rejects[ReasonShortRow])
	}
}
