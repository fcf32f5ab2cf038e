package assistant

import (
	"slices"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stopwords are ignored when scoring. Dutch, French and English cover the
// languages notarial deeds are drafted in.
var stopwords = map[string]struct{}{
	"de": {}, "het": {}, "een": {}, "en": {}, "van": {}, "in": {}, "op": {}, "is": {},
	"dat": {}, "die": {}, "te": {}, "voor": {}, "met": {}, "aan": {}, "wat": {}, "wie": {},
	"le": {}, "la": {}, "les": {}, "des": {}, "du": {}, "et": {}, "un": {}, "une": {},
	"the": {}, "a": {}, "an": {}, "and": {}, "of": {}, "to": {}, "for": {}, "what": {},
	"who": {}, "are": {}, "on": {}, "with": {}, "at": {}, "by": {}, "or": {},
}

// Terms splits text into lowercased, diacritic-insensitive search terms.
// Stopwords and one-letter tokens are dropped.
func Terms(text string) []string {
	if folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), text); err == nil {
		text = folded
	}
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := fields[:0]
	for _, f := range fields {
		if len([]rune(f)) < 2 {
			continue
		}
		if _, skip := stopwords[f]; skip {
			continue
		}
		out = append(out, f)
	}
	return out
}

// Score gives one point per distinct question term found in content and a
// quarter point for every repeated occurrence.
func Score(questionTerms []string, content string) float64 {
	if len(questionTerms) == 0 {
		return 0
	}
	counts := make(map[string]int)
	for _, t := range Terms(content) {
		counts[t]++
	}
	seen := make(map[string]struct{}, len(questionTerms))
	var score float64
	for _, q := range questionTerms {
		if _, dup := seen[q]; dup {
			continue
		}
		seen[q] = struct{}{}
		n := counts[q]
		if n == 0 {
			continue
		}
		score += 1 + float64(n-1)*0.25
	}
	return score
}

// Scored pairs a chunk with its relevance.
type Scored struct {
	Chunk *KnowledgeChunk
	Score float64
}

// TopK returns the k most relevant chunks for question, ordered by score
// descending then chunk index ascending. Chunks scoring zero are excluded.
func TopK(question string, chunks []*KnowledgeChunk, k int) []Scored {
	if k <= 0 {
		return nil
	}
	terms := Terms(question)
	scored := make([]Scored, 0, len(chunks))
	for _, c := range chunks {
		if s := Score(terms, c.Content); s > 0 {
			scored = append(scored, Scored{Chunk: c, Score: s})
		}
	}
	slices.SortStableFunc(scored, func(a, b Scored) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		}
		return a.Chunk.Index - b.Chunk.Index
	})
	if len(scored) > k {
		scored = scored[:k]
	}
	return scored
}
