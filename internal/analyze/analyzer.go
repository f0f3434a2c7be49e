package analyze

import (
	"context"
	"encoding/gob"
	"fmt"

	"github.com/nchevrel/marmithon/internal/config"
	"github.com/nchevrel/marmithon/internal/memo"
	"github.com/nchevrel/marmithon/internal/store"
	"github.com/nchevrel/marmithon/internal/textproc"
)

func init() {
	gob.Register([]TermWeight{})
	gob.Register(&textproc.TokenizedCorpus{})
	gob.Register(Comparison{})
	gob.Register([]IngredientCount{})
	gob.Register([]CategoryCount{})
	gob.Register([]string{})
}

// Scope selects which slice of the analysis table a text operation runs on.
type Scope string

const (
	// ScopeBest covers the highest-rated review texts.
	ScopeBest Scope = "best"
	// ScopeWorst covers the lowest-rated review texts.
	ScopeWorst Scope = "worst"
	// ScopeMost covers the ingredient lists of the most-reviewed recipes.
	ScopeMost Scope = "most"
)

// ParseScope validates a user-supplied scope name.
func ParseScope(s string) (Scope, error) {
	switch Scope(s) {
	case ScopeBest, ScopeWorst, ScopeMost:
		return Scope(s), nil
	}
	return "", fmt.Errorf("unknown scope %q (want best, worst or most)", s)
}

// Analyzer runs text and ingredient analyses over a persisted analysis
// table, memoizing every result so repeated requests are free.
type Analyzer struct {
	db    *store.DB
	pre   *textproc.Preprocessor
	cache *memo.Cache
	cfg   config.Analysis
}

// NewAnalyzer wires an analyzer over an open analysis table.
func NewAnalyzer(db *store.DB, pre *textproc.Preprocessor, cache *memo.Cache, cfg config.Analysis) *Analyzer {
	return &Analyzer{db: db, pre: pre, cache: cache, cfg: cfg}
}

// Cache exposes the underlying memoization cache for state save/load.
func (a *Analyzer) Cache() *memo.Cache { return a.cache }

// Corpus returns the tokenized corpus for a scope, computing it at most once
// per cache lifetime.
func (a *Analyzer) Corpus(ctx context.Context, scope Scope) (*textproc.TokenizedCorpus, error) {
	v, err := a.cache.GetOrCompute(ctx, memo.Key("corpus", scope), func(ctx context.Context) (any, error) {
		return a.buildCorpus(ctx, scope)
	})
	if err != nil {
		return nil, err
	}
	return v.(*textproc.TokenizedCorpus), nil
}

func (a *Analyzer) buildCorpus(ctx context.Context, scope Scope) (*textproc.TokenizedCorpus, error) {
	var texts []string
	var err error
	switch scope {
	case ScopeBest:
		texts, err = a.db.TopReviews(ctx, true, a.cfg.ScopeSize)
	case ScopeWorst:
		texts, err = a.db.TopReviews(ctx, false, a.cfg.ScopeSize)
	case ScopeMost:
		texts, err = a.db.MostReviewedIngredientDocs(ctx, a.cfg.ScopeSize)
	default:
		return nil, fmt.Errorf("unknown scope %q", scope)
	}
	if err != nil {
		return nil, fmt.Errorf("loading %s scope: %w", scope, err)
	}

	docs := make([]textproc.Document, len(texts))
	for i, text := range texts {
		docs[i] = textproc.Document{ID: fmt.Sprintf("%s-%d", scope, i), Text: text}
	}
	return a.pre.Process(ctx, docs)
}

// Frequency returns the top-n raw-frequency table for a scope.
func (a *Analyzer) Frequency(ctx context.Context, scope Scope, n int) ([]TermWeight, error) {
	return a.weightTable(ctx, scope, ModeFrequency, n)
}

// TFIDF returns the top-n TF-IDF table for a scope.
func (a *Analyzer) TFIDF(ctx context.Context, scope Scope, n int) ([]TermWeight, error) {
	return a.weightTable(ctx, scope, ModeTFIDF, n)
}

func (a *Analyzer) weightTable(ctx context.Context, scope Scope, mode Mode, n int) ([]TermWeight, error) {
	if n <= 0 {
		n = a.cfg.TopN
	}
	v, err := a.cache.GetOrCompute(ctx, memo.Key("table", scope, mode, n), func(ctx context.Context) (any, error) {
		corpus, err := a.Corpus(ctx, scope)
		if err != nil {
			return nil, err
		}
		return TopN(Table(corpus, mode), n), nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]TermWeight), nil
}

// Compare returns the Venn comparison of the top-n frequency and TF-IDF
// term sets for a scope.
func (a *Analyzer) Compare(ctx context.Context, scope Scope, n int) (Comparison, error) {
	if n <= 0 {
		n = a.cfg.CompareN
	}
	v, err := a.cache.GetOrCompute(ctx, memo.Key("compare", scope, n), func(ctx context.Context) (any, error) {
		corpus, err := a.Corpus(ctx, scope)
		if err != nil {
			return nil, err
		}
		return Compare(corpus, n), nil
	})
	if err != nil {
		return Comparison{}, err
	}
	return v.(Comparison), nil
}

// TopIngredients returns the most common ingredients across all recipes,
// after dropping the configured ubiquitous ones.
func (a *Analyzer) TopIngredients(ctx context.Context, n int) ([]IngredientCount, error) {
	if n <= 0 {
		n = a.cfg.TopN
	}
	v, err := a.cache.GetOrCompute(ctx, memo.Key("ingredients", n), func(ctx context.Context) (any, error) {
		lists, err := a.db.IngredientLists(ctx)
		if err != nil {
			return nil, fmt.Errorf("loading ingredient lists: %w", err)
		}
		return TopIngredients(lists, a.cfg.ExcludedIngredients, n), nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]IngredientCount), nil
}

// IngredientCategories returns the top ingredients grouped by broad
// category, largest group first.
func (a *Analyzer) IngredientCategories(ctx context.Context, n int) ([]CategoryCount, error) {
	if n <= 0 {
		n = a.cfg.TopN
	}
	v, err := a.cache.GetOrCompute(ctx, memo.Key("categories", n), func(ctx context.Context) (any, error) {
		ranked, err := a.TopIngredients(ctx, n)
		if err != nil {
			return nil, err
		}
		return GroupByCategory(ranked), nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]CategoryCount), nil
}
