// Package textproc normalizes raw text documents into token sequences:
// tokenization with part-of-speech tagging, a noun/adjective allow-list,
// stem-based lemma normalization, and stopword/length filtering.
//
// Processing is batched for throughput and interruptible at batch
// boundaries. An empty or non-text document yields an empty token sequence,
// never an error.
package textproc

import (
	"context"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/jdkato/prose/v2"
	"github.com/kljensen/snowball"
	"github.com/rs/zerolog/log"

	"github.com/nchevrel/marmithon/internal/config"
)

// DefaultBatchSize is the number of documents processed per batch when the
// configured value is missing or invalid.
const DefaultBatchSize = 64

// Document is one raw text input with its identifier.
type Document struct {
	ID   string
	Text string
}

// TokenizedCorpus maps document identifiers to their normalized token
// sequences. IDs preserves input order.
type TokenizedCorpus struct {
	IDs    []string
	Tokens map[string][]string
}

// Flatten returns every token of the corpus in document order.
func (c *TokenizedCorpus) Flatten() []string {
	var out []string
	for _, id := range c.IDs {
		out = append(out, c.Tokens[id]...)
	}
	return out
}

// Len returns the number of documents in the corpus.
func (c *TokenizedCorpus) Len() int {
	return len(c.IDs)
}

// Preprocessor runs the linguistic pipeline over document batches.
type Preprocessor struct {
	batchSize int
	minLen    int
	stopwords map[string]struct{}
}

// New creates a Preprocessor from configuration.
func New(cfg config.Text) *Preprocessor {
	batch := cfg.BatchSize
	if batch <= 0 {
		batch = DefaultBatchSize
	}
	minLen := cfg.MinTokenLen
	if minLen <= 0 {
		minLen = 3
	}

	stop := defaultStopwords()
	for _, w := range cfg.ExtraStopwords {
		stop[strings.ToLower(w)] = struct{}{}
	}

	return &Preprocessor{batchSize: batch, minLen: minLen, stopwords: stop}
}

// Process tokenizes docs in batches. It returns early with ctx.Err() at a
// batch boundary when the context is cancelled, so a cancelled caller never
// blocks unrelated work.
func (p *Preprocessor) Process(ctx context.Context, docs []Document) (*TokenizedCorpus, error) {
	corpus := &TokenizedCorpus{Tokens: make(map[string][]string, len(docs))}
	if len(docs) == 0 {
		log.Warn().Msg("preprocessing empty corpus")
		return corpus, nil
	}

	for start := 0; start < len(docs); start += p.batchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		end := start + p.batchSize
		if end > len(docs) {
			end = len(docs)
		}
		for _, doc := range docs[start:end] {
			corpus.IDs = append(corpus.IDs, doc.ID)
			corpus.Tokens[doc.ID] = p.Tokens(doc.Text)
		}
	}

	log.Debug().Int("documents", corpus.Len()).Msg("corpus preprocessed")
	return corpus, nil
}

// Tokens normalizes a single document. Stages: lowercase, tokenize with POS
// tags (entity extraction and sentence segmentation stay disabled; they are
// never consulted for token output), keep nouns and adjectives, keep only
// alphabetic tokens, stem, then drop stopwords and short tokens.
func (p *Preprocessor) Tokens(text string) []string {
	text = strings.TrimSpace(strings.ToLower(text))
	if text == "" {
		return nil
	}

	doc, err := prose.NewDocument(text,
		prose.WithExtraction(false),
		prose.WithSegmentation(false),
	)
	if err != nil {
		log.Debug().Err(err).Msg("skipping non-text document")
		return nil
	}

	var out []string
	for _, tok := range doc.Tokens() {
		if !allowedTag(tok.Tag) || !alphabetic(tok.Text) {
			continue
		}
		if utf8.RuneCountInString(tok.Text) < p.minLen {
			continue
		}
		if _, ok := p.stopwords[tok.Text]; ok {
			continue
		}
		lemma := stem(tok.Text)
		if _, ok := p.stopwords[lemma]; ok {
			continue
		}
		out = append(out, lemma)
	}
	return out
}

// allowedTag reports whether a Penn-treebank tag is in the noun/adjective
// allow-list used for ingredient-style corpora.
func allowedTag(tag string) bool {
	return strings.HasPrefix(tag, "NN") || strings.HasPrefix(tag, "JJ")
}

func alphabetic(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return s != ""
}

// stem reduces a token to its normalized base form.
func stem(word string) string {
	stemmed, err := snowball.Stem(word, "english", false)
	if err != nil || stemmed == "" {
		return word
	}
	return stemmed
}
