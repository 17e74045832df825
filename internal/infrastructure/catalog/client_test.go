package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/skinmatch/backend/internal/domain"
)

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

// newStoreServer serves /health and delegates document routes to handler
func newStoreServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	mux.HandleFunc("/collections/", handler)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	client := NewClient(ClientConfig{
		BaseURL:           baseURL,
		APIKey:            "test-api-key",
		RequestsPerSecond: 100,
		Burst:             100,
	}, zaptest.NewLogger(t))
	client.SetDebug(true)
	return client
}

func initializedClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	client := newTestClient(t, baseURL)
	require.NoError(t, client.Initialize(context.Background()))
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestNewClient(t *testing.T) {
	client := NewClient(ClientConfig{BaseURL: "https://store.example.com/"}, nil)

	assert.NotNil(t, client)
	assert.Equal(t, "https://store.example.com", client.baseURL)
	assert.Equal(t, defaultCollection, client.collection)
	assert.Equal(t, defaultMaxRetries, client.maxRetries)
	assert.Equal(t, defaultTimeout, client.httpClient.Timeout)
	assert.NotNil(t, client.rateLimiter)
	assert.False(t, client.debug)
}

func TestSetDebug(t *testing.T) {
	client := NewClient(ClientConfig{BaseURL: "https://store.example.com"}, nil)

	client.SetDebug(true)
	assert.True(t, client.debugEnabled())

	client.SetDebug(false)
	assert.False(t, client.debugEnabled())
}

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, 500 * time.Millisecond},
		{1, 500 * time.Millisecond},
		{2, 1000 * time.Millisecond},
		{3, 2000 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run("", func(t *testing.T) {
			assert.Equal(t, tt.expected, exponentialBackoff(tt.attempt))
		})
	}
}

func TestInitialize(t *testing.T) {
	t.Run("requires base URL", func(t *testing.T) {
		client := NewClient(ClientConfig{}, nil)
		err := client.Initialize(context.Background())
		assert.ErrorIs(t, err, domain.ErrCatalogUnavailable)
	})

	t.Run("missing health endpoint is unavailable, not a missing product", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		t.Cleanup(server.Close)

		err := newTestClient(t, server.URL).Initialize(context.Background())
		assert.ErrorIs(t, err, domain.ErrCatalogUnavailable)
		assert.NotErrorIs(t, err, domain.ErrProductNotFound)
	})

	t.Run("fails when store rejects health check", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))
		defer server.Close()

		err := newTestClient(t, server.URL).Initialize(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "catalog health check failed")
	})

	t.Run("uninitialized client refuses to fetch", func(t *testing.T) {
		client := newTestClient(t, "http://127.0.0.1:1")
		_, err := client.FetchAllProducts(context.Background())
		assert.ErrorIs(t, err, domain.ErrCatalogUnavailable)

		_, err = client.GetProductByID(context.Background(), "x")
		assert.ErrorIs(t, err, domain.ErrCatalogUnavailable)
	})

	t.Run("closed client must be initialized again", func(t *testing.T) {
		server := newStoreServer(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"documents":[]}`))
		})
		client := newTestClient(t, server.URL)
		require.NoError(t, client.Initialize(context.Background()))
		require.NoError(t, client.Close())

		_, err := client.FetchAllProducts(context.Background())
		assert.ErrorIs(t, err, domain.ErrCatalogUnavailable)
	})
}

func TestFetchAllProducts_Success(t *testing.T) {
	server := newStoreServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/collections/products/documents", r.URL.Path)
		assert.Equal(t, "Bearer test-api-key", r.Header.Get("Authorization"))

		response := documentList{Documents: []ProductDocument{
			{
				ID:          "serum-1",
				Name:        strPtr("Sérum Hydratant"),
				Description: strPtr("Hydratation intense"),
				Category:    strPtr("soins-visage"),
				Subcategory: strPtr("visage"),
				Featured:    boolPtr(true),
			},
			{
				ID:       "cream-1",
				Name:     strPtr("Crème Mains"),
				Category: strPtr("soins-corps"),
			},
			{},
		}}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(response)
	})

	client := initializedClient(t, server.URL)

	products, err := client.FetchAllProducts(context.Background())

	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "serum-1", products[0].ID)
	assert.True(t, products[0].Featured)
	assert.Equal(t, "visage", products[0].Subcategory)
	assert.Equal(t, "", products[1].Subcategory)
	assert.False(t, products[1].Featured)
}

func TestFetchAllProducts_ServerError_Retries(t *testing.T) {
	var attempts int32

	server := newStoreServer(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`{"documents":[{"id":"p1","name":"Gel"}]}`))
	})

	client := initializedClient(t, server.URL)

	products, err := client.FetchAllProducts(context.Background())

	require.NoError(t, err)
	assert.Len(t, products, 1)
	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
}

func TestFetchAllProducts_ServerError_GivesUp(t *testing.T) {
	var attempts int32

	server := newStoreServer(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusBadGateway)
	})

	client := initializedClient(t, server.URL)

	products, err := client.FetchAllProducts(context.Background())

	assert.Nil(t, products)
	assert.ErrorIs(t, err, domain.ErrCatalogUnavailable)
	assert.Equal(t, int32(defaultMaxRetries), atomic.LoadInt32(&attempts))
}

func TestFetchAllProducts_ClientError_NoRetry(t *testing.T) {
	var attempts int32

	server := newStoreServer(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusUnauthorized)
	})

	client := initializedClient(t, server.URL)

	products, err := client.FetchAllProducts(context.Background())

	assert.Nil(t, products)
	assert.ErrorIs(t, err, domain.ErrCatalogUnavailable)
	assert.Equal(t, int32(1), atomic.LoadInt32(&attempts))
}

func TestFetchAllProducts_UnknownCollection(t *testing.T) {
	var attempts int32

	server := newStoreServer(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusNotFound)
	})

	client := NewClient(ClientConfig{
		BaseURL:           server.URL,
		Collection:        "prodcts",
		RequestsPerSecond: 100,
		Burst:             100,
	}, zaptest.NewLogger(t))
	require.NoError(t, client.Initialize(context.Background()))
	t.Cleanup(func() { _ = client.Close() })

	products, err := client.FetchAllProducts(context.Background())

	assert.Nil(t, products)
	assert.ErrorIs(t, err, domain.ErrCatalogUnavailable)
	assert.NotErrorIs(t, err, domain.ErrProductNotFound)
	assert.Contains(t, err.Error(), "404")
	assert.Equal(t, int32(1), atomic.LoadInt32(&attempts))
}

func TestFetchAllProducts_TooManyRequests_Retries(t *testing.T) {
	var attempts int32

	server := newStoreServer(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) < 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"documents":[]}`))
	})

	client := initializedClient(t, server.URL)

	products, err := client.FetchAllProducts(context.Background())

	require.NoError(t, err)
	assert.Empty(t, products)
	assert.Equal(t, int32(2), atomic.LoadInt32(&attempts))
}

func TestFetchAllProducts_InvalidJSON(t *testing.T) {
	server := newStoreServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("invalid json"))
	})

	client := initializedClient(t, server.URL)

	products, err := client.FetchAllProducts(context.Background())

	assert.Nil(t, products)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode response")
}

func TestFetchAllProducts_ContextCancelled(t *testing.T) {
	server := newStoreServer(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	})

	client := initializedClient(t, server.URL)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	products, err := client.FetchAllProducts(ctx)

	assert.Nil(t, products)
	assert.Error(t, err)
}

func TestGetProductByID(t *testing.T) {
	server := newStoreServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/collections/products/documents/serum-1":
			_, _ = w.Write([]byte(`{"name":"Sérum","category":"soins"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	client := initializedClient(t, server.URL)
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		product, err := client.GetProductByID(ctx, "serum-1")
		require.NoError(t, err)
		assert.Equal(t, "serum-1", product.ID)
		assert.Equal(t, "Sérum", product.Name)
	})

	t.Run("not found", func(t *testing.T) {
		product, err := client.GetProductByID(ctx, "missing")
		assert.Nil(t, product)
		assert.ErrorIs(t, err, domain.ErrProductNotFound)
	})

	t.Run("empty id", func(t *testing.T) {
		_, err := client.GetProductByID(ctx, "")
		assert.ErrorIs(t, err, domain.ErrInvalidRequest)
	})
}
