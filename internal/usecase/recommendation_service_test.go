package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/skinmatch/backend/internal/domain"
)

// mockCatalog is a CatalogSource that counts fetches
type mockCatalog struct {
	mu       sync.Mutex
	products []domain.Product
	err      error
	calls    int
}

func (m *mockCatalog) FetchAllProducts(ctx context.Context) ([]domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.products, nil
}

func (m *mockCatalog) fetches() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// mockCache is an in-memory SnapshotCache that can be made to fail
type mockCache struct {
	mu      sync.Mutex
	data    map[string][]byte
	failGet bool
	failSet bool
}

func newMockCache() *mockCache {
	return &mockCache{data: make(map[string][]byte)}
}

func (c *mockCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failGet {
		return nil, errors.New("cache down")
	}
	v, ok := c.data[key]
	if !ok {
		return nil, domain.ErrCacheMiss
	}
	return v, nil
}

func (c *mockCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failSet {
		return errors.New("cache down")
	}
	c.data[key] = value
	return nil
}

func (c *mockCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func newTestService(t *testing.T, catalog domain.CatalogSource, cache domain.SnapshotCache) *RecommendationService {
	return NewRecommendationService(catalog, cache, RecommendationServiceConfig{
		SnapshotTTL: time.Minute,
		Match:       MatchConfig{EnableDebugLogging: true},
	}, zaptest.NewLogger(t))
}

func TestRecommendationService_RecommendForConcern(t *testing.T) {
	ctx := context.Background()

	t.Run("returns matching products", func(t *testing.T) {
		catalog := &mockCatalog{products: testCatalog()}
		svc := newTestService(t, catalog, nil)

		got := svc.RecommendForConcern(ctx, "Peau sèche", 3, nil)

		require.Len(t, got, 1)
		assert.Equal(t, "serum-1", got[0].ID)
		assert.Equal(t, 1, catalog.fetches())
	})

	t.Run("unknown concern skips the catalog fetch", func(t *testing.T) {
		catalog := &mockCatalog{products: testCatalog()}
		svc := newTestService(t, catalog, nil)

		got := svc.RecommendForConcern(ctx, "Psoriasis", 3, nil)

		assert.NotNil(t, got)
		assert.Empty(t, got)
		assert.Equal(t, 0, catalog.fetches())
	})

	t.Run("catalog failure degrades to empty list", func(t *testing.T) {
		catalog := &mockCatalog{err: errors.New("connection refused")}
		svc := newTestService(t, catalog, nil)

		got := svc.RecommendForConcern(ctx, "Peau sèche", 3, nil)

		assert.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("nil catalog source degrades to empty list", func(t *testing.T) {
		svc := newTestService(t, nil, nil)
		assert.Empty(t, svc.RecommendForConcern(ctx, "Peau sèche", 3, nil))
	})
}

func TestRecommendationService_SnapshotCache(t *testing.T) {
	ctx := context.Background()

	t.Run("second call is served from cache", func(t *testing.T) {
		catalog := &mockCatalog{products: testCatalog()}
		svc := newTestService(t, catalog, newMockCache())

		first := svc.RecommendForConcern(ctx, "Peau sèche", 3, nil)
		second := svc.RecommendForConcern(ctx, "Peau sèche", 3, nil)

		assert.Equal(t, first, second)
		assert.Equal(t, 1, catalog.fetches())
	})

	t.Run("invalidation forces a refetch", func(t *testing.T) {
		catalog := &mockCatalog{products: testCatalog()}
		svc := newTestService(t, catalog, newMockCache())

		svc.RecommendForConcern(ctx, "Peau sèche", 3, nil)
		require.NoError(t, svc.InvalidateCatalog(ctx))
		svc.RecommendForConcern(ctx, "Peau sèche", 3, nil)

		assert.Equal(t, 2, catalog.fetches())
	})

	t.Run("cache failures do not change results", func(t *testing.T) {
		catalog := &mockCatalog{products: testCatalog()}
		cache := newMockCache()
		cache.failGet = true
		cache.failSet = true
		svc := newTestService(t, catalog, cache)

		got := svc.RecommendForConcern(ctx, "Peau sèche", 3, nil)

		require.Len(t, got, 1)
		assert.Equal(t, "serum-1", got[0].ID)
	})

	t.Run("corrupt snapshot falls back to the source", func(t *testing.T) {
		catalog := &mockCatalog{products: testCatalog()}
		cache := newMockCache()
		cache.data[catalogSnapshotKey] = []byte("not json")
		svc := newTestService(t, catalog, cache)

		got := svc.RecommendForConcern(ctx, "Peau sèche", 3, nil)

		require.Len(t, got, 1)
		assert.Equal(t, 1, catalog.fetches())
	})

	t.Run("invalidate without cache is a no-op", func(t *testing.T) {
		svc := newTestService(t, &mockCatalog{}, nil)
		assert.NoError(t, svc.InvalidateCatalog(ctx))
	})
}

func TestRecommendationService_RecommendForConcerns(t *testing.T) {
	ctx := context.Background()

	t.Run("ranks against several concerns", func(t *testing.T) {
		catalog := &mockCatalog{products: testCatalog()}
		svc := newTestService(t, catalog, nil)

		got := svc.RecommendForConcerns(ctx, []string{"Peau sèche", "Rides"}, 5)

		require.Len(t, got, 1)
		assert.Equal(t, "serum-1", got[0].Product.ID)
		assert.Contains(t, got[0].AddressedConcerns, "Peau sèche")
	})

	t.Run("no known concern skips the fetch", func(t *testing.T) {
		catalog := &mockCatalog{products: testCatalog()}
		svc := newTestService(t, catalog, nil)

		assert.Empty(t, svc.RecommendForConcerns(ctx, []string{"Psoriasis"}, 5))
		assert.Empty(t, svc.RecommendForConcerns(ctx, nil, 5))
		assert.Equal(t, 0, catalog.fetches())
	})

	t.Run("catalog failure degrades to empty list", func(t *testing.T) {
		svc := newTestService(t, &mockCatalog{err: errors.New("boom")}, nil)

		got := svc.RecommendForConcerns(ctx, []string{"Acné"}, 5)

		assert.NotNil(t, got)
		assert.Empty(t, got)
	})
}

func TestRecommendationService_ExplainConcern(t *testing.T) {
	ctx := context.Background()
	catalog := &mockCatalog{products: []domain.Product{
		{ID: "a", Name: "Gel Purifiant", Description: neutralDescription, Category: "soins", Subcategory: "visage"},
		{ID: "b", Name: "Gel Purifiant Zinc", Description: neutralDescription, Category: "soins", Subcategory: "visage"},
	}}
	svc := newTestService(t, catalog, nil)

	got := svc.ExplainConcern(ctx, "Acné", 1)
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].Product.ID)
	assert.InDelta(t, 20.0, got[0].Score, 1e-9)

	assert.Len(t, svc.ExplainConcern(ctx, "Acné", 0), 2)
	assert.Empty(t, svc.ExplainConcern(ctx, "Psoriasis", 1))
}

func TestRecommendationService_Analyze(t *testing.T) {
	ctx := context.Background()
	detections := []domain.Detection{
		{ClassID: 2, Score: 0.9},  // Peau sèche
		{ClassID: 6, Score: 0.6},  // Rougeurs
		{ClassID: 99, Score: 0.9}, // unknown class
		{ClassID: 0, Score: 0.1},  // Acné, not confident enough
	}

	t.Run("groups recommendations by concern, most severe first", func(t *testing.T) {
		catalog := &mockCatalog{products: testCatalog()}
		svc := newTestService(t, catalog, nil)

		got := svc.Analyze(ctx, detections, 3)

		require.Len(t, got, 2)
		assert.Equal(t, "Rougeurs", got[0].Concern)
		assert.Equal(t, domain.SeveritySevere, got[0].Severity)
		assert.Equal(t, 0.6, got[0].Confidence)

		assert.Equal(t, "Peau sèche", got[1].Concern)
		assert.Equal(t, 0.9, got[1].Confidence)
		assert.Equal(t, ConcernDescription("Peau sèche"), got[1].Description)
		require.Len(t, got[1].Products, 1)
		assert.Equal(t, "serum-1", got[1].Products[0].ID)

		assert.Equal(t, 1, catalog.fetches())
	})

	t.Run("catalog failure keeps concerns without products", func(t *testing.T) {
		svc := newTestService(t, &mockCatalog{err: errors.New("boom")}, nil)

		got := svc.Analyze(ctx, detections, 3)

		require.Len(t, got, 2)
		for _, g := range got {
			assert.NotNil(t, g.Products)
			assert.Empty(t, g.Products)
		}
	})

	t.Run("no confident detection", func(t *testing.T) {
		catalog := &mockCatalog{products: testCatalog()}
		svc := newTestService(t, catalog, nil)

		got := svc.Analyze(ctx, []domain.Detection{{ClassID: 1, Score: 0.1}}, 3)

		assert.NotNil(t, got)
		assert.Empty(t, got)
		assert.Equal(t, 0, catalog.fetches())
	})
}

// finderCatalog also answers single-document lookups
type finderCatalog struct {
	mockCatalog
	lookups int
}

func (f *finderCatalog) GetProductByID(ctx context.Context, id string) (*domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookups++
	for _, p := range f.products {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, domain.ErrProductNotFound
}

func TestRecommendationService_GetProduct(t *testing.T) {
	ctx := context.Background()

	t.Run("scans the snapshot when the source cannot look up", func(t *testing.T) {
		catalog := &mockCatalog{products: testCatalog()}
		svc := newTestService(t, catalog, newMockCache())

		product, err := svc.GetProduct(ctx, "serum-1")
		require.NoError(t, err)
		assert.Equal(t, "serum-1", product.ID)

		_, err = svc.GetProduct(ctx, "missing")
		assert.ErrorIs(t, err, domain.ErrProductNotFound)
		assert.Equal(t, 1, catalog.fetches())
	})

	t.Run("asks a finder directly", func(t *testing.T) {
		catalog := &finderCatalog{mockCatalog: mockCatalog{products: testCatalog()}}
		svc := newTestService(t, catalog, nil)

		product, err := svc.GetProduct(ctx, "serum-1")
		require.NoError(t, err)
		assert.Equal(t, "serum-1", product.ID)
		assert.Equal(t, 1, catalog.lookups)
		assert.Zero(t, catalog.fetches())
	})

	t.Run("empty id", func(t *testing.T) {
		svc := newTestService(t, &mockCatalog{}, nil)
		_, err := svc.GetProduct(ctx, "")
		assert.ErrorIs(t, err, domain.ErrInvalidRequest)
	})

	t.Run("catalog failure is returned", func(t *testing.T) {
		svc := newTestService(t, &mockCatalog{err: errors.New("boom")}, nil)
		_, err := svc.GetProduct(ctx, "serum-1")
		assert.ErrorIs(t, err, domain.ErrCatalogUnavailable)
	})
}
