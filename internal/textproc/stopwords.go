package textproc

// defaultStopwords returns the base English stopword set. Domain-specific
// extras come from configuration and are merged in by New.
func defaultStopwords() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for",
		"to", "of", "in", "on", "at", "by", "with", "as", "is", "are",
		"was", "were", "be", "been", "being", "it", "this", "that", "these",
		"those", "from", "up", "down", "over", "under", "again", "further",
		"than", "so", "such", "into", "about", "between", "through",
		"during", "before", "after", "above", "below", "out", "off", "own",
		"same", "too", "very", "can", "will", "just", "don", "should",
		"now", "he", "she", "they", "them", "his", "her", "their", "we",
		"you", "your", "our", "i", "me", "my", "all", "any", "both",
		"each", "few", "more", "most", "other", "some", "no", "nor", "not",
		"only", "what", "which", "who", "whom", "when", "where", "why",
		"how", "there", "here", "once", "while", "because", "until",
		"against", "did", "does", "doing", "have", "has", "had", "having",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
