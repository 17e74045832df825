package usecase

import (
	"cmp"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/skinmatch/backend/internal/domain"
)

// Ranking constants
const (
	minRelevanceScore     = 5.0 // Per-concern score a product must exceed to count as addressing it
	multiConcernBonusRate = 0.3 // Multiplier added per addressed concern
	defaultSingleLimit    = 3
	defaultMultiLimit     = 5
	defaultSkincareToken  = "soin"
)

// MatchConfig holds configuration for the concern matcher
type MatchConfig struct {
	SkincareCategory   string
	DefaultLimit       int
	MultiConcernLimit  int
	EnableDebugLogging bool
}

// Matcher ranks catalog products against skin concerns.
// It performs no I/O; every call is a pure computation over the given snapshot.
type Matcher struct {
	skincareCategory   string
	defaultLimit       int
	multiConcernLimit  int
	enableDebugLogging bool
	resolver           *ConcernResolver
	logger             *zap.Logger
}

// NewMatcher creates a matcher, filling unset config values with defaults
func NewMatcher(config MatchConfig, logger *zap.Logger) *Matcher {
	if logger == nil {
		logger = zap.NewNop()
	}

	token := strings.ToLower(strings.TrimSpace(config.SkincareCategory))
	if token == "" {
		token = defaultSkincareToken
	}

	limit := config.DefaultLimit
	if limit <= 0 {
		limit = defaultSingleLimit
	}

	multiLimit := config.MultiConcernLimit
	if multiLimit <= 0 {
		multiLimit = defaultMultiLimit
	}

	return &Matcher{
		skincareCategory:   token,
		defaultLimit:       limit,
		multiConcernLimit:  multiLimit,
		enableDebugLogging: config.EnableDebugLogging,
		resolver:           NewConcernResolver(),
		logger:             logger.Named("matcher"),
	}
}

// Resolver exposes the label resolver used by the matcher
func (m *Matcher) Resolver() *ConcernResolver {
	return m.resolver
}

// Profile resolves a concern label to its taxonomy profile
func (m *Matcher) Profile(concern string) (domain.ConcernProfile, bool) {
	name, ok := m.resolver.Resolve(concern)
	if !ok {
		return domain.ConcernProfile{}, false
	}
	return LookupConcern(name)
}

// RecommendForConcern returns the best products for one concern, at most limit of them.
// allDetected is accepted for incompatibility-aware ranking but does not filter anything yet.
func (m *Matcher) RecommendForConcern(
	concern string,
	catalog []domain.Product,
	limit int,
	allDetected []string,
) []domain.Product {
	if limit <= 0 {
		limit = m.defaultLimit
	}

	profile, ok := m.Profile(concern)
	if !ok {
		m.logger.Warn("no profile for concern, returning no recommendations", zap.String("concern", concern))
		return []domain.Product{}
	}

	candidates := m.rankCandidates(profile, catalog)

	products := make([]domain.Product, 0, min(limit, len(candidates)))
	for _, c := range candidates {
		if !m.isSuitableAlongside(c.Product, profile, allDetected) {
			continue
		}
		products = append(products, c.Product)
		if len(products) == limit {
			break
		}
	}

	if m.enableDebugLogging {
		m.logger.Debug("single-concern recommendation",
			zap.String("concern", profile.Name),
			zap.Int("candidates", len(candidates)),
			zap.Int("returned", len(products)),
		)
	}

	return products
}

// ScoreCandidates returns every positively scored candidate for a concern, best first.
// Unknown concerns yield an empty list.
func (m *Matcher) ScoreCandidates(concern string, catalog []domain.Product) []domain.ScoredCandidate {
	profile, ok := m.Profile(concern)
	if !ok {
		m.logger.Warn("no profile for concern, returning no candidates", zap.String("concern", concern))
		return []domain.ScoredCandidate{}
	}
	return m.rankCandidates(profile, catalog)
}

// RecommendForConcerns ranks products against several concerns at once,
// rewarding products that address more than one of them.
func (m *Matcher) RecommendForConcerns(
	concerns []string,
	catalog []domain.Product,
	limit int,
) []domain.MultiConcernMatch {
	if len(concerns) == 0 {
		return []domain.MultiConcernMatch{}
	}
	if limit <= 0 {
		limit = m.multiConcernLimit
	}

	type aggregate struct {
		product  domain.Product
		concerns []string
		total    float64
	}
	aggregates := make(map[string]*aggregate)
	var order []string

	skincare := m.filterSkincare(catalog)

	for _, name := range m.resolver.ResolveAll(concerns) {
		profile, ok := LookupConcern(name)
		if !ok {
			m.logger.Warn("no profile for concern, skipping", zap.String("concern", name))
			continue
		}

		for _, p := range skincare {
			score := ScoreProduct(p, profile.PrimaryKeywords, profile.SecondaryKeywords, profile.ExclusionKeywords)
			if score <= minRelevanceScore {
				continue
			}

			key := p.Key()
			agg, exists := aggregates[key]
			if !exists {
				agg = &aggregate{product: p}
				aggregates[key] = agg
				order = append(order, key)
			}
			if !slices.Contains(agg.concerns, profile.Name) {
				agg.concerns = append(agg.concerns, profile.Name)
			}
			agg.total += score
		}
	}

	matches := make([]domain.MultiConcernMatch, 0, len(order))
	for _, key := range order {
		agg := aggregates[key]
		matches = append(matches, domain.MultiConcernMatch{
			Product:           agg.product,
			AddressedConcerns: agg.concerns,
			Score:             agg.total * (1 + multiConcernBonusRate*float64(len(agg.concerns))),
		})
	}

	slices.SortStableFunc(matches, func(a, b domain.MultiConcernMatch) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.Product.Key(), b.Product.Key())
	})

	if len(matches) > limit {
		matches = matches[:limit]
	}

	if m.enableDebugLogging {
		m.logger.Debug("multi-concern recommendation",
			zap.Strings("concerns", concerns),
			zap.Int("matched", len(aggregates)),
			zap.Int("returned", len(matches)),
		)
	}

	return matches
}

// rankCandidates filters, scores and sorts the catalog for one profile.
// Only strictly positive scores survive.
func (m *Matcher) rankCandidates(profile domain.ConcernProfile, catalog []domain.Product) []domain.ScoredCandidate {
	var candidates []domain.ScoredCandidate

	for _, p := range m.filterSkincare(catalog) {
		if !isEligible(p, profile) {
			continue
		}

		score := ScoreProduct(p, profile.PrimaryKeywords, profile.SecondaryKeywords, profile.ExclusionKeywords)

		if m.enableDebugLogging {
			m.logger.Debug("scored candidate",
				zap.String("concern", profile.Name),
				zap.String("product", p.Name),
				zap.String("subcategory", p.Subcategory),
				zap.Float64("score", score),
			)
		}

		if score <= 0 {
			continue
		}
		candidates = append(candidates, domain.ScoredCandidate{Product: p, Score: score})
	}

	slices.SortStableFunc(candidates, func(a, b domain.ScoredCandidate) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.Product.Key(), b.Product.Key())
	})

	if candidates == nil {
		return []domain.ScoredCandidate{}
	}
	return candidates
}

// filterSkincare keeps products whose category carries the skincare token
func (m *Matcher) filterSkincare(catalog []domain.Product) []domain.Product {
	out := make([]domain.Product, 0, len(catalog))
	for _, p := range catalog {
		if strings.Contains(strings.ToLower(p.Category), m.skincareCategory) {
			out = append(out, p)
		}
	}
	return out
}

// isEligible applies the profile's subcategory restriction. A product outside
// the eligible subcategories is still kept when its name or description
// mentions a primary keyword verbatim.
func isEligible(p domain.Product, profile domain.ConcernProfile) bool {
	if len(profile.EligibleSubcategories) == 0 {
		return true
	}

	sub := strings.ToLower(p.Subcategory)
	for _, eligible := range profile.EligibleSubcategories {
		if eligible != "" && strings.Contains(sub, strings.ToLower(eligible)) {
			return true
		}
	}

	text := strings.ToLower(p.Name + " " + p.Description)
	for _, kw := range profile.PrimaryKeywords {
		if kw != "" && strings.Contains(text, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// isSuitableAlongside is the hook for incompatibility-aware filtering.
// It always returns true: conflicting detected concerns are only logged.
func (m *Matcher) isSuitableAlongside(p domain.Product, profile domain.ConcernProfile, allDetected []string) bool {
	if m.enableDebugLogging {
		for _, other := range allDetected {
			if !AreCompatible(profile.Name, other) {
				m.logger.Debug("incompatible concern detected, not filtering",
					zap.String("concern", profile.Name),
					zap.String("other", other),
					zap.String("product", p.Name),
				)
			}
		}
	}
	return true
}
