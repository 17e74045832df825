package usecase

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/skinmatch/backend/internal/domain"
)

// catalogSnapshotKey is the cache key of the raw catalog snapshot
const catalogSnapshotKey = "catalog:snapshot"

// RecommendationServiceConfig holds configuration for the recommendation service
type RecommendationServiceConfig struct {
	SnapshotTTL       time.Duration
	MinDetectionScore float64
	Match             MatchConfig
}

// RecommendationService fetches the catalog once per call and delegates ranking
// to the Matcher. Failures never reach the caller: they are logged and turned
// into empty results.
type RecommendationService struct {
	catalog     domain.CatalogSource
	cache       domain.SnapshotCache
	matcher     *Matcher
	detections  *DetectionMapper
	snapshotTTL time.Duration
	logger      *zap.Logger
}

// NewRecommendationService creates a new recommendation service with dependencies.
// cache may be nil, in which case every call hits the catalog source.
func NewRecommendationService(
	catalog domain.CatalogSource,
	cache domain.SnapshotCache,
	config RecommendationServiceConfig,
	logger *zap.Logger,
) *RecommendationService {
	if logger == nil {
		logger = zap.NewNop()
	}

	ttl := config.SnapshotTTL
	if ttl == 0 {
		ttl = 5 * time.Minute
	}

	return &RecommendationService{
		catalog:     catalog,
		cache:       cache,
		matcher:     NewMatcher(config.Match, logger),
		detections:  NewDetectionMapper(config.MinDetectionScore, logger),
		snapshotTTL: ttl,
		logger:      logger.Named("recommendations"),
	}
}

// Matcher returns the underlying matcher
func (s *RecommendationService) Matcher() *Matcher {
	return s.matcher
}

// RecommendForConcern returns up to limit products for one concern
func (s *RecommendationService) RecommendForConcern(
	ctx context.Context,
	concern string,
	limit int,
	allDetected []string,
) []domain.Product {
	if _, ok := s.matcher.Profile(concern); !ok {
		s.logger.Warn("unknown concern", zap.String("concern", concern))
		return []domain.Product{}
	}

	products, err := s.loadCatalog(ctx)
	if err != nil {
		s.logger.Error("failed to load catalog for recommendations",
			zap.String("concern", concern),
			zap.Error(err),
		)
		return []domain.Product{}
	}

	return s.matcher.RecommendForConcern(concern, products, limit, allDetected)
}

// RecommendForConcerns ranks products against several concerns at once
func (s *RecommendationService) RecommendForConcerns(
	ctx context.Context,
	concerns []string,
	limit int,
) []domain.MultiConcernMatch {
	if !s.anyKnown(concerns) {
		if len(concerns) > 0 {
			s.logger.Warn("no known concern in request", zap.Strings("concerns", concerns))
		}
		return []domain.MultiConcernMatch{}
	}

	products, err := s.loadCatalog(ctx)
	if err != nil {
		s.logger.Error("failed to load catalog for multi-concern recommendations",
			zap.Strings("concerns", concerns),
			zap.Error(err),
		)
		return []domain.MultiConcernMatch{}
	}

	return s.matcher.RecommendForConcerns(concerns, products, limit)
}

// ExplainConcern returns the top scored candidates for a concern, scores included
func (s *RecommendationService) ExplainConcern(ctx context.Context, concern string, limit int) []domain.ScoredCandidate {
	if _, ok := s.matcher.Profile(concern); !ok {
		s.logger.Warn("unknown concern", zap.String("concern", concern))
		return []domain.ScoredCandidate{}
	}

	products, err := s.loadCatalog(ctx)
	if err != nil {
		s.logger.Error("failed to load catalog for explanation",
			zap.String("concern", concern),
			zap.Error(err),
		)
		return []domain.ScoredCandidate{}
	}

	candidates := s.matcher.ScoreCandidates(concern, products)
	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates
}

// Analyze turns one detector run into recommendations grouped by concern,
// most severe concerns first. Concerns are still reported when the catalog
// cannot be loaded, with no products attached.
func (s *RecommendationService) Analyze(
	ctx context.Context,
	detections []domain.Detection,
	limit int,
) []domain.ConcernRecommendation {
	detected := s.detections.ConcernsFromDetections(detections)
	if len(detected) == 0 {
		return []domain.ConcernRecommendation{}
	}

	names := make([]string, 0, len(detected))
	for _, d := range detected {
		names = append(names, d.Concern)
	}

	products, err := s.loadCatalog(ctx)
	if err != nil {
		s.logger.Error("failed to load catalog for analysis",
			zap.Strings("concerns", names),
			zap.Error(err),
		)
		products = nil
	}

	groups := make([]domain.ConcernRecommendation, 0, len(detected))
	for _, d := range detected {
		recommended := []domain.Product{}
		if products != nil {
			recommended = s.matcher.RecommendForConcern(d.Concern, products, limit, names)
		}
		groups = append(groups, domain.ConcernRecommendation{
			Concern:     d.Concern,
			Description: ConcernDescription(d.Concern),
			Severity:    ConcernSeverity(d.Concern),
			Confidence:  d.Confidence,
			Products:    recommended,
		})
	}

	slices.SortStableFunc(groups, func(a, b domain.ConcernRecommendation) int {
		if c := cmp.Compare(b.Severity.Rank(), a.Severity.Rank()); c != 0 {
			return c
		}
		return cmp.Compare(b.Confidence, a.Confidence)
	})

	return groups
}

// GetProduct looks up one product. Sources that can fetch a single document
// are asked directly; otherwise the catalog snapshot is scanned.
func (s *RecommendationService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	if id == "" {
		return nil, domain.ErrInvalidRequest
	}

	if finder, ok := s.catalog.(domain.ProductFinder); ok {
		product, err := finder.GetProductByID(ctx, id)
		if err != nil && !errors.Is(err, domain.ErrProductNotFound) {
			s.logger.Error("failed to look up product", zap.String("id", id), zap.Error(err))
		}
		return product, err
	}

	products, err := s.loadCatalog(ctx)
	if err != nil {
		s.logger.Error("failed to load catalog for product lookup", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	for i := range products {
		if products[i].ID == id {
			return &products[i], nil
		}
	}
	return nil, domain.ErrProductNotFound
}

// InvalidateCatalog drops the cached catalog snapshot so the next call
// fetches the source again
func (s *RecommendationService) InvalidateCatalog(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Delete(ctx, catalogSnapshotKey)
}

func (s *RecommendationService) anyKnown(concerns []string) bool {
	for _, c := range concerns {
		if _, ok := s.matcher.Profile(c); ok {
			return true
		}
	}
	return false
}

// loadCatalog returns the catalog snapshot.
// Flow: check cache -> fetch from source -> cache -> return
func (s *RecommendationService) loadCatalog(ctx context.Context) ([]domain.Product, error) {
	if products, err := s.getFromCache(ctx); err == nil {
		return products, nil
	} else if !errors.Is(err, domain.ErrCacheMiss) {
		s.logger.Warn("catalog snapshot cache read failed", zap.Error(err))
	}

	if s.catalog == nil {
		return nil, domain.ErrCatalogUnavailable
	}

	products, err := s.catalog.FetchAllProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCatalogUnavailable, err)
	}

	if err := s.setInCache(ctx, products); err != nil {
		// Caching is best effort
		s.logger.Warn("catalog snapshot cache write failed", zap.Error(err))
	}

	return products, nil
}

func (s *RecommendationService) getFromCache(ctx context.Context) ([]domain.Product, error) {
	if s.cache == nil {
		return nil, domain.ErrCacheMiss
	}

	raw, err := s.cache.Get(ctx, catalogSnapshotKey)
	if err != nil {
		return nil, err
	}

	var products []domain.Product
	if err := json.Unmarshal(raw, &products); err != nil {
		return nil, fmt.Errorf("decode catalog snapshot: %w", err)
	}
	return products, nil
}

func (s *RecommendationService) setInCache(ctx context.Context, products []domain.Product) error {
	if s.cache == nil {
		return nil
	}

	raw, err := json.Marshal(products)
	if err != nil {
		return fmt.Errorf("encode catalog snapshot: %w", err)
	}
	return s.cache.Set(ctx, catalogSnapshotKey, raw, s.snapshotTTL)
}
