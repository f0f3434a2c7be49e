// Package report assembles a markdown summary of the analysis artifacts:
// dataset counts, the time-category distribution, ingredient rankings and
// the per-scope term tables. The server renders it as HTML; the CLI prints
// it as-is.
package report

import (
	"context"
	"fmt"
	"strings"

	"github.com/nchevrel/marmithon/internal/analyze"
	"github.com/nchevrel/marmithon/internal/etl"
	"github.com/nchevrel/marmithon/internal/store"
)

// Builder assembles reports from an open analysis table and its analyzer.
type Builder struct {
	db       *store.DB
	analyzer *analyze.Analyzer
	topN     int
}

// NewBuilder creates a report builder. topN bounds every ranked section.
func NewBuilder(db *store.DB, analyzer *analyze.Analyzer, topN int) *Builder {
	return &Builder{db: db, analyzer: analyzer, topN: topN}
}

var scopeTitles = []struct {
	scope analyze.Scope
	title string
}{
	{analyze.ScopeBest, "Best-Rated Reviews"},
	{analyze.ScopeWorst, "Worst-Rated Reviews"},
	{analyze.ScopeMost, "Most-Reviewed Recipes (Ingredients)"},
}

// Build assembles the full markdown report.
func (b *Builder) Build(ctx context.Context) (string, error) {
	var sections []string

	overview, err := b.overview(ctx)
	if err != nil {
		return "", err
	}
	sections = append(sections, overview)

	ingredients, err := b.ingredients(ctx)
	if err != nil {
		return "", err
	}
	sections = append(sections, ingredients)

	for _, st := range scopeTitles {
		section, err := b.scopeSection(ctx, st.scope, st.title)
		if err != nil {
			return "", err
		}
		sections = append(sections, section)
	}

	return "# Recipe Analysis Report\n\n" + strings.Join(sections, "\n\n---\n\n") + "\n", nil
}

func (b *Builder) overview(ctx context.Context) (string, error) {
	rows, err := b.db.CountRows(ctx)
	if err != nil {
		return "", err
	}
	recipes, err := b.db.CountRecipes(ctx)
	if err != nil {
		return "", err
	}
	categories, err := b.db.CategoryCounts(ctx)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString("## Overview\n\n")
	fmt.Fprintf(&sb, "- %d interactions across %d recipes\n", rows, recipes)
	for _, cat := range []etl.TimeCategory{etl.TimeQuick, etl.TimeModerate, etl.TimeLong} {
		fmt.Fprintf(&sb, "- %s: %d interactions\n", cat, categories[cat])
	}
	return strings.TrimRight(sb.String(), "\n"), nil
}

func (b *Builder) ingredients(ctx context.Context) (string, error) {
	ranked, err := b.analyzer.TopIngredients(ctx, b.topN)
	if err != nil {
		return "", err
	}
	grouped, err := b.analyzer.IngredientCategories(ctx, b.topN)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString("## Top Ingredients\n\n")
	if len(ranked) == 0 {
		sb.WriteString("No ingredient data available.")
		return sb.String(), nil
	}
	sb.WriteString("| Ingredient | Recipes | Category |\n|---|---|---|\n")
	for _, ic := range ranked {
		fmt.Fprintf(&sb, "| %s | %d | %s |\n", ic.Ingredient, ic.Count, ic.Category)
	}
	sb.WriteString("\n**By category:**\n")
	for _, cc := range grouped {
		fmt.Fprintf(&sb, "- %s: %d\n", cc.Category, cc.Count)
	}
	return strings.TrimRight(sb.String(), "\n"), nil
}

func (b *Builder) scopeSection(ctx context.Context, scope analyze.Scope, title string) (string, error) {
	freq, err := b.analyzer.Frequency(ctx, scope, b.topN)
	if err != nil {
		return "", err
	}
	tfidf, err := b.analyzer.TFIDF(ctx, scope, b.topN)
	if err != nil {
		return "", err
	}
	cmp, err := b.analyzer.Compare(ctx, scope, 0)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "## %s\n\n", title)
	if len(freq) == 0 {
		sb.WriteString("No terms extracted for this scope.")
		return sb.String(), nil
	}

	sb.WriteString("**Top terms by frequency:** ")
	sb.WriteString(termList(freq))
	sb.WriteString("\n\n**Top terms by TF-IDF:** ")
	sb.WriteString(termList(tfidf))
	fmt.Fprintf(&sb, "\n\n**Overlap:** %d shared", len(cmp.Common))
	if len(cmp.OnlyFrequency) > 0 {
		fmt.Fprintf(&sb, "; frequency-only: %s", strings.Join(cmp.OnlyFrequency, ", "))
	}
	if len(cmp.OnlyTFIDF) > 0 {
		fmt.Fprintf(&sb, "; tf-idf-only: %s", strings.Join(cmp.OnlyTFIDF, ", "))
	}
	return sb.String(), nil
}

func termList(table []analyze.TermWeight) string {
	parts := make([]string, len(table))
	for i, tw := range table {
		parts[i] = fmt.Sprintf("%s (%.1f)", tw.Term, tw.Weight)
	}
	return strings.Join(parts, ", ")
}
