// Package score ranks retrieved context documents against the query
// that produced them.
package score

import "strings"

// Scorer turns lexical overlap between a query and a document into a
// relevance score in [0, 1].
type Scorer struct {
	stopwords map[string]struct{}
}

// NewScorer creates a scorer with the default English stopword set.
func NewScorer() *Scorer {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "is", "are",
		"was", "were", "be", "of", "in", "on", "at", "to", "for", "with",
		"that", "this", "it", "its", "as", "by", "from",
	}
	stop := make(map[string]struct{}, len(words))
	for _, w := range words {
		stop[w] = struct{}{}
	}
	return &Scorer{stopwords: stop}
}

// Relevance combines three components: coverage of the query terms in
// the body (weight 0.6), match density relative to body length (weight
// 0.2) and query terms appearing in the title (weight 0.2).
func (s *Scorer) Relevance(query, title, body string) float64 {
	queryTerms := s.terms(query)
	if len(queryTerms) == 0 {
		return 0
	}

	bodyTerms := s.terms(body)
	bodySet := make(map[string]int, len(bodyTerms))
	for _, t := range bodyTerms {
		bodySet[t]++
	}
	titleSet := make(map[string]struct{})
	for _, t := range s.terms(title) {
		titleSet[t] = struct{}{}
	}

	covered := 0
	occurrences := 0
	inTitle := 0
	for _, t := range queryTerms {
		if n := bodySet[t]; n > 0 {
			covered++
			occurrences += n
		}
		if _, ok := titleSet[t]; ok {
			inTitle++
		}
	}

	coverage := float64(covered) / float64(len(queryTerms))

	density := 0.0
	if len(bodyTerms) > 0 {
		density = float64(occurrences) * 10 / float64(len(bodyTerms))
		if density > 1 {
			density = 1
		}
	}

	titleShare := float64(inTitle) / float64(len(queryTerms))

	return 0.6*coverage + 0.2*density + 0.2*titleShare
}

// Band maps a relevance score to a coarse label for event logs.
func Band(score float64) string {
	switch {
	case score >= 0.8:
		return "high"
	case score >= 0.5:
		return "medium"
	default:
		return "low"
	}
}

// terms lowercases, splits and drops stopwords and single letters.
func (s *Scorer) terms(text string) []string {
	var out []string
	for _, raw := range strings.Fields(strings.ToLower(text)) {
		w := strings.Trim(raw, ".,;:!?\"'()[]")
		if len(w) < 2 {
			continue
		}
		if _, ok := s.stopwords[w]; ok {
			continue
		}
		out = append(out, w)
	}
	return out
}
