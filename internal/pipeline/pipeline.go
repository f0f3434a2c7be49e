// Package pipeline orchestrates the batch run that turns raw CSV sources
// into the persisted analysis table: read, validate, parse, clean,
// categorize, merge, persist. Schema failures abort the run before anything
// is written; row-level rejections are counted and carried in the result.
package pipeline

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/nchevrel/marmithon/internal/config"
	"github.com/nchevrel/marmithon/internal/etl"
	"github.com/nchevrel/marmithon/internal/ingest"
	"github.com/nchevrel/marmithon/internal/store"
)

// StepResult holds the result of a single pipeline step.
type StepResult struct {
	Name    string
	Summary string
	Err     error
}

// Result holds the results of a full pipeline run.
type Result struct {
	Steps   []StepResult
	Rows    int
	Rejects etl.RejectSummary
}

// Failed reports whether any step errored.
func (r *Result) Failed() bool {
	for _, s := range r.Steps {
		if s.Err != nil {
			return true
		}
	}
	return false
}

// Err returns the first step error, if any.
func (r *Result) Err() error {
	for _, s := range r.Steps {
		if s.Err != nil {
			return fmt.Errorf("step %s: %w", s.Name, s.Err)
		}
	}
	return nil
}

// Pipeline runs the ETL from raw sources to the analysis table.
type Pipeline struct {
	cfg *config.Config
}

// New creates a pipeline over the given configuration.
func New(cfg *config.Config) *Pipeline {
	return &Pipeline{cfg: cfg}
}

// Run executes the full ETL. The output table at cfg's analysis path is
// replaced wholesale on success and left untouched on failure.
func (p *Pipeline) Run(ctx context.Context) *Result {
	r := &Result{Rejects: make(etl.RejectSummary)}

	recipes, step := p.loadRecipes(r.Rejects)
	r.Steps = append(r.Steps, step)
	if step.Err != nil {
		return r
	}

	interactions, step := p.loadInteractions(r.Rejects)
	r.Steps = append(r.Steps, step)
	if step.Err != nil {
		return r
	}

	if err := ctx.Err(); err != nil {
		r.Steps = append(r.Steps, StepResult{Name: "clean", Err: err})
		return r
	}

	recipes, interactions, step = p.clean(recipes, interactions, r.Rejects)
	r.Steps = append(r.Steps, step)

	step = p.categorize(recipes)
	r.Steps = append(r.Steps, step)

	rows, step := p.merge(interactions, recipes, r.Rejects)
	r.Steps = append(r.Steps, step)
	r.Rows = len(rows)

	step = p.persist(rows)
	r.Steps = append(r.Steps, step)
	return r
}

func (p *Pipeline) loadRecipes(rejects etl.RejectSummary) ([]etl.RecipeRecord, StepResult) {
	log.Info().Str("path", p.cfg.RecipesPath()).Msg("loading recipes")
	records, stepRejects, err := loadSource(p.cfg.RecipesPath(), ingest.ParseRecipes)
	if err != nil {
		return nil, StepResult{Name: "load recipes", Err: err}
	}
	rejects.Merge(stepRejects)
	return records, StepResult{
		Name:    "load recipes",
		Summary: fmt.Sprintf("parsed %d recipes, rejected %d rows", len(records), stepRejects.Total()),
	}
}

func (p *Pipeline) loadInteractions(rejects etl.RejectSummary) ([]etl.InteractionRecord, StepResult) {
	log.Info().Str("path", p.cfg.InteractionsPath()).Msg("loading interactions")
	records, stepRejects, err := loadSource(p.cfg.InteractionsPath(), ingest.ParseInteractions)
	if err != nil {
		return nil, StepResult{Name: "load interactions", Err: err}
	}
	rejects.Merge(stepRejects)
	return records, StepResult{
		Name:    "load interactions",
		Summary: fmt.Sprintf("parsed %d interactions, rejected %d rows", len(records), stepRejects.Total()),
	}
}

func loadSource[T any](path string, parse func(*ingest.Table) ([]T, etl.RejectSummary, error)) ([]T, etl.RejectSummary, error) {
	table, err := ingest.ReadTable(path)
	if err != nil {
		return nil, nil, err
	}
	return parse(table)
}

func (p *Pipeline) clean(recipes []etl.RecipeRecord, interactions []etl.InteractionRecord, rejects etl.RejectSummary) ([]etl.RecipeRecord, []etl.InteractionRecord, StepResult) {
	cleaner := etl.NewCleaner(p.cfg.Cleaning)

	keptRecipes, recipeRejects := cleaner.CleanRecipes(recipes)
	rejects.Merge(recipeRejects)

	keptInteractions, interactionRejects := cleaner.CleanInteractions(interactions)
	rejects.Merge(interactionRejects)

	dropped := recipeRejects.Total() + interactionRejects.Total()
	log.Info().
		Int("recipes", len(keptRecipes)).
		Int("interactions", len(keptInteractions)).
		Int("dropped", dropped).
		Msg("cleaned records")
	return keptRecipes, keptInteractions, StepResult{
		Name:    "clean",
		Summary: fmt.Sprintf("kept %d recipes and %d interactions, dropped %d", len(keptRecipes), len(keptInteractions), dropped),
	}
}

func (p *Pipeline) categorize(recipes []etl.RecipeRecord) StepResult {
	etl.NewCategorizer(p.cfg.Categories).Apply(recipes)
	return StepResult{
		Name:    "categorize",
		Summary: fmt.Sprintf("categorized %d recipes", len(recipes)),
	}
}

func (p *Pipeline) merge(interactions []etl.InteractionRecord, recipes []etl.RecipeRecord, rejects etl.RejectSummary) ([]etl.AnalysisRow, StepResult) {
	merged := etl.Merge(interactions, recipes)
	rejects.Merge(merged.Rejects)
	return merged.Rows, StepResult{
		Name:    "merge",
		Summary: fmt.Sprintf("joined %d rows, dropped %d orphans", len(merged.Rows), merged.Rejects.Total()),
	}
}

func (p *Pipeline) persist(rows []etl.AnalysisRow) StepResult {
	path := p.cfg.AnalysisTablePath()
	if err := store.Write(path, rows); err != nil {
		return StepResult{Name: "persist", Err: err}
	}
	return StepResult{
		Name:    "persist",
		Summary: fmt.Sprintf("wrote %d rows to %s", len(rows), path),
	}
}
