package textproc

import (
	"context"
	"fmt"
	"reflect"
	"testing"

	"github.com/nchevrel/marmithon/internal/config"
)

func testPreprocessor() *Preprocessor {
	return New(config.Text{BatchSize: 2, MinTokenLen: 3})
}

func TestTokensNormalizesPlurals(t *testing.T) {
	got := testPreprocessor().Tokens("eggs")
	want := []string{"egg"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tokens = %v, want %v", got, want)
	}
}

// Ingredient documents arrive as comma-joined lists; every element must
// survive tokenization as a noun.
func TestTokensIngredientList(t *testing.T) {
	got := testPreprocessor().Tokens("egg, flour")
	want := []string{"egg", "flour"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tokens = %v, want %v", got, want)
	}
}

func TestTokensEmptyInput(t *testing.T) {
	for _, text := range []string{"", "   ", "\n\t"} {
		if got := testPreprocessor().Tokens(text); len(got) != 0 {
			t.Errorf("Tokens(%q) = %v, want empty", text, got)
		}
	}
}

func TestTokensDropsShortAndStopwords(t *testing.T) {
	p := New(config.Text{MinTokenLen: 3, ExtraStopwords: []string{"recipe"}})
	got := p.Tokens("an ox recipe")
	for _, tok := range got {
		if tok == "ox" {
			t.Error("expected short token 'ox' to be dropped")
		}
		if tok == "an" || tok == "recip" || tok == "recipe" {
			t.Errorf("expected stopword-derived token %q to be dropped", tok)
		}
	}
}

// The minimum-length filter counts runes, so an accented token is measured
// by its letters, not its encoded bytes.
func TestTokensMinLenCountsRunes(t *testing.T) {
	p := New(config.Text{MinTokenLen: 5})
	if got := p.Tokens("café"); len(got) != 0 {
		t.Errorf("expected 4-letter token to be dropped at min length 5, got %v", got)
	}
}

func TestTokensDropsNonAlphabetic(t *testing.T) {
	got := testPreprocessor().Tokens("bake 350 degrees")
	for _, tok := range got {
		if tok == "350" {
			t.Error("expected numeric token to be dropped")
		}
	}
}

func TestProcessAssignsDocuments(t *testing.T) {
	docs := []Document{
		{ID: "r1", Text: "eggs flour"},
		{ID: "r2", Text: ""},
		{ID: "r3", Text: "carrots onions"},
	}

	corpus, err := testPreprocessor().Process(context.Background(), docs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if corpus.Len() != 3 {
		t.Fatalf("expected 3 documents, got %d", corpus.Len())
	}
	if len(corpus.Tokens["r2"]) != 0 {
		t.Errorf("empty document should yield empty tokens, got %v", corpus.Tokens["r2"])
	}
	if len(corpus.Tokens["r1"]) == 0 || len(corpus.Tokens["r3"]) == 0 {
		t.Errorf("expected tokens for non-empty documents: %v", corpus.Tokens)
	}
}

func TestProcessEmptyCorpus(t *testing.T) {
	corpus, err := testPreprocessor().Process(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if corpus.Len() != 0 {
		t.Errorf("expected empty corpus, got %d documents", corpus.Len())
	}
}

func TestProcessCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	docs := make([]Document, 10)
	for i := range docs {
		docs[i] = Document{ID: fmt.Sprintf("d%d", i), Text: "eggs"}
	}

	if _, err := testPreprocessor().Process(ctx, docs); err == nil {
		t.Error("expected context error")
	}
}

func TestFlattenPreservesOrder(t *testing.T) {
	corpus := &TokenizedCorpus{
		IDs: []string{"b", "a"},
		Tokens: map[string][]string{
			"a": {"third"},
			"b": {"first", "second"},
		},
	}
	got := corpus.Flatten()
	want := []string{"first", "second", "third"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Flatten = %v, want %v", got, want)
	}
}

func TestTokensDeterministic(t *testing.T) {
	p := testPreprocessor()
	first := p.Tokens("fresh eggs and soft flour")
	for i := 0; i < 5; i++ {
		if got := p.Tokens("fresh eggs and soft flour"); !reflect.DeepEqual(got, first) {
			t.Fatalf("tokenization not deterministic: %v vs %v", got, first)
		}
	}
}
