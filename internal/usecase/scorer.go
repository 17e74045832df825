package usecase

import (
	"strings"
	"unicode/utf8"

	"github.com/skinmatch/backend/internal/domain"
)

// Keyword weights per field. Name hits matter most, then subcategory, then description.
const (
	weightPrimaryName        = 10.0
	weightPrimarySubcategory = 7.0
	weightPrimaryDescription = 6.0
	weightPrimaryFuzzyName   = 4.0

	weightSecondaryName        = 5.0
	weightSecondarySubcategory = 3.0
	weightSecondaryDescription = 2.0
)

// Scoring adjustments
const (
	exclusionPenalty      = -100.0 // Hard disqualifier, short-circuits scoring
	featuredBonus         = 5.0
	shortDescriptionDelta = -2.0
	longDescriptionDelta  = 2.0
	shortDescriptionLen   = 50  // runes
	longDescriptionLen    = 200 // runes
	fuzzyThreshold        = 0.7
	containmentSimilarity = 0.8
)

// searchSurface holds the lowercase searchable fields of a product
type searchSurface struct {
	name        string
	description string
	subcategory string
	nameTokens  []string
}

func newSearchSurface(p domain.Product) searchSurface {
	name := strings.ToLower(p.Name)
	return searchSurface{
		name:        name,
		description: strings.ToLower(p.Description),
		subcategory: strings.ToLower(p.Subcategory),
		nameTokens:  tokenize(name),
	}
}

func (s searchSurface) contains(keyword string) bool {
	return strings.Contains(s.name, keyword) ||
		strings.Contains(s.description, keyword) ||
		strings.Contains(s.subcategory, keyword)
}

// ScoreProduct computes the relevance of a product against keyword lists.
// A product mentioning any exclusion keyword gets a large negative score.
// Every other contribution is non-negative.
func ScoreProduct(p domain.Product, primary, secondary, exclusion []string) float64 {
	surface := newSearchSurface(p)

	for _, kw := range exclusion {
		kw = strings.ToLower(kw)
		if kw != "" && surface.contains(kw) {
			return exclusionPenalty
		}
	}

	score := 0.0

	for _, kw := range primary {
		kw = strings.ToLower(kw)
		if kw == "" {
			continue
		}
		nameHit := strings.Contains(surface.name, kw)
		if nameHit {
			score += weightPrimaryName
		}
		if strings.Contains(surface.subcategory, kw) {
			score += weightPrimarySubcategory
		}
		if strings.Contains(surface.description, kw) {
			score += weightPrimaryDescription
		}
		if !nameHit && fuzzyNameMatch(surface.nameTokens, kw) {
			score += weightPrimaryFuzzyName
		}
	}

	for _, kw := range secondary {
		kw = strings.ToLower(kw)
		if kw == "" {
			continue
		}
		if strings.Contains(surface.name, kw) {
			score += weightSecondaryName
		}
		if strings.Contains(surface.subcategory, kw) {
			score += weightSecondarySubcategory
		}
		if strings.Contains(surface.description, kw) {
			score += weightSecondaryDescription
		}
	}

	if p.Featured {
		score += featuredBonus
	}

	descLen := utf8.RuneCountInString(strings.TrimSpace(p.Description))
	switch {
	case descLen < shortDescriptionLen:
		score += shortDescriptionDelta
	case descLen > longDescriptionLen:
		score += longDescriptionDelta
	}

	return score
}

// fuzzyNameMatch reports whether any name token is close enough to the keyword.
// Short tokens are compared too: "eau" is contained in "eau thermale".
func fuzzyNameMatch(tokens []string, keyword string) bool {
	for _, tok := range tokens {
		if Similarity(tok, keyword) > fuzzyThreshold {
			return true
		}
	}
	return false
}

// Similarity is a cheap string likeness in [0,1]: 1.0 for equal strings,
// 0.8 when one contains the other, otherwise the Jaccard overlap of their
// character sets. It is not an edit distance.
func Similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	if a == "" || b == "" {
		return 0
	}
	if strings.Contains(a, b) || strings.Contains(b, a) {
		return containmentSimilarity
	}

	setA := runeSet(a)
	setB := runeSet(b)

	intersection := 0
	for r := range setA {
		if setB[r] {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func runeSet(s string) map[rune]bool {
	set := make(map[rune]bool, len(s))
	for _, r := range s {
		set[r] = true
	}
	return set
}

// tokenize splits lowercase text into words, trimming surrounding punctuation
func tokenize(s string) []string {
	words := strings.Fields(s)
	tokens := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.Trim(w, ",.;:!?()[]\"'«»/")
		if w != "" {
			tokens = append(tokens, w)
		}
	}
	return tokens
}
