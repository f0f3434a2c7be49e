package ingest

import (
	"fmt"
	"strings"
)

// ColumnType is the expected type of a raw column.
type ColumnType int

const (
	TypeString ColumnType = iota
	TypeInt
	TypeFloat
	// TypeList is a bracketed, comma-separated list as exported by the
	// upstream dataset, e.g. "['egg', 'flour']".
	TypeList
	// TypeFloatList is a bracketed list of numbers, e.g. "[51.5, 0.0]".
	TypeFloatList
)

// ColumnSpec describes one required column of a raw source.
type ColumnSpec struct {
	Name string
	Type ColumnType
}

// Spec is the required-column schema of a raw source.
type Spec struct {
	Source  string
	Columns []ColumnSpec
}

// SchemaError reports a required column entirely absent from a source.
// It is fatal: the pipeline aborts and nothing partial is persisted.
type SchemaError struct {
	Source  string
	Columns []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("source %s: missing required columns: %s", e.Source, strings.Join(e.Columns, ", "))
}

// RecipesSpec returns the schema of the raw recipes source.
func RecipesSpec() Spec {
	return Spec{
		Source: "recipes",
		Columns: []ColumnSpec{
			{Name: "id", Type: TypeInt},
			{Name: "name", Type: TypeString},
			{Name: "minutes", Type: TypeInt},
			{Name: "contributor_id", Type: TypeInt},
			{Name: "submitted", Type: TypeString},
			{Name: "tags", Type: TypeList},
			{Name: "nutrition", Type: TypeFloatList},
			{Name: "n_steps", Type: TypeInt},
			{Name: "steps", Type: TypeList},
			{Name: "description", Type: TypeString},
			{Name: "ingredients", Type: TypeList},
		},
	}
}

// InteractionsSpec returns the schema of the raw interactions source.
func InteractionsSpec() Spec {
	return Spec{
		Source: "interactions",
		Columns: []ColumnSpec{
			{Name: "user_id", Type: TypeInt},
			{Name: "recipe_id", Type: TypeInt},
			{Name: "date", Type: TypeString},
			{Name: "rating", Type: TypeFloat},
			{Name: "review", Type: TypeString},
		},
	}
}

// Validate checks that every required column is present in the table header.
// It returns a *SchemaError naming all absent columns, or nil.
func Validate(spec Spec, t *Table) error {
	present := make(map[string]int, len(t.Header))
	for i, name := range t.Header {
		present[strings.TrimSpace(name)] = i
	}

	var missing []string
	for _, col := range spec.Columns {
		if _, ok := present[col.Name]; !ok {
			missing = append(missing, col.Name)
		}
	}
	if len(missing) > 0 {
		return &SchemaError{Source: spec.Source, Columns: missing}
	}
	return nil
}

// columnIndex maps spec column names to their positions in the header.
// Validate must have succeeded first.
func columnIndex(spec Spec, t *Table) map[string]int {
	idx := make(map[string]int, len(spec.Columns))
	pos := make(map[string]int, len(t.Header))
	for i, name := range t.Header {
		pos[strings.TrimSpace(name)] = i
	}
	for _, col := range spec.Columns {
		idx[col.Name] = pos[col.Name]
	}
	return idx
}
