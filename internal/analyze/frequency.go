// Package analyze derives term statistics from tokenized corpora: raw
// frequency tables, TF-IDF weightings, top-N rankings, frequency-vs-TF-IDF
// set comparisons, and ingredient aggregations.
package analyze

import (
	"math"
	"sort"

	"github.com/nchevrel/marmithon/internal/textproc"
)

// Mode selects the weighting strategy for a term table.
type Mode string

const (
	ModeFrequency Mode = "frequency"
	ModeTFIDF     Mode = "tfidf"
)

// TermWeight is one term with its non-negative weight.
type TermWeight struct {
	Term   string
	Weight float64
}

// Frequency returns the term-frequency table of the corpus: the raw count of
// each lemma across all documents. The result is sorted by weight descending,
// ties broken lexicographically ascending on the term.
func Frequency(corpus *textproc.TokenizedCorpus) []TermWeight {
	counts := make(map[string]float64)
	for _, id := range corpus.IDs {
		for _, tok := range corpus.Tokens[id] {
			counts[tok]++
		}
	}
	return sortTable(counts)
}

// TFIDF returns the TF-IDF table of the corpus. Each document is one token
// sequence; tf is the raw in-document count and idf is the smoothed
// log((1+N)/(1+df)) + 1, so terms present in every document still carry
// positive weight and absent terms contribute zero. Per-document scores are
// summed over the corpus.
func TFIDF(corpus *textproc.TokenizedCorpus) []TermWeight {
	n := corpus.Len()
	if n == 0 {
		return nil
	}

	df := make(map[string]int)
	perDoc := make([]map[string]float64, 0, n)
	for _, id := range corpus.IDs {
		tf := make(map[string]float64)
		for _, tok := range corpus.Tokens[id] {
			tf[tok]++
		}
		for term := range tf {
			df[term]++
		}
		perDoc = append(perDoc, tf)
	}

	idf := make(map[string]float64, len(df))
	for term, d := range df {
		idf[term] = math.Log(float64(1+n)/float64(1+d)) + 1.0
	}

	scores := make(map[string]float64, len(df))
	for _, tf := range perDoc {
		for term, count := range tf {
			scores[term] += count * idf[term]
		}
	}
	return sortTable(scores)
}

// Table computes the term table for the given mode.
func Table(corpus *textproc.TokenizedCorpus, mode Mode) []TermWeight {
	if mode == ModeTFIDF {
		return TFIDF(corpus)
	}
	return Frequency(corpus)
}

// sortTable orders a weight map by descending weight, then ascending term.
// The lexicographic tie-break makes every top-N result deterministic.
func sortTable(weights map[string]float64) []TermWeight {
	table := make([]TermWeight, 0, len(weights))
	for term, w := range weights {
		table = append(table, TermWeight{Term: term, Weight: w})
	}
	sort.Slice(table, func(i, j int) bool {
		if table[i].Weight != table[j].Weight {
			return table[i].Weight > table[j].Weight
		}
		return table[i].Term < table[j].Term
	})
	return table
}
