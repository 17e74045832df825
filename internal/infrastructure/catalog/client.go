package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/skinmatch/backend/internal/domain"
)

const (
	defaultCollection = "products"
	defaultTimeout    = 15 * time.Second
	defaultRPS        = 5.0
	defaultBurst      = 10
	defaultMaxRetries = 3
)

// errNotFound marks a 404 from the store. Only document lookups turn it into
// ErrProductNotFound; anywhere else it means the store is misconfigured.
var errNotFound = errors.New("status 404 not found")

// ClientConfig holds document store connection settings
type ClientConfig struct {
	BaseURL           string
	APIKey            string
	Collection        string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
	MaxRetries        int
}

// Client reads the product collection from the hosted document store.
// It must be initialized before use and closed when the process shuts down.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	apiKey      string
	collection  string
	maxRetries  int
	rateLimiter *rate.Limiter
	logger      *zap.Logger

	mu          sync.RWMutex
	initialized bool
	debug       bool
}

// documentList is the body of a collection listing
type documentList struct {
	Documents []ProductDocument `json:"documents"`
}

// NewClient creates a document store client. No network I/O happens until Initialize.
func NewClient(cfg ClientConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Collection == "" {
		cfg.Collection = defaultCollection
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = defaultRPS
	}
	if cfg.Burst <= 0 {
		cfg.Burst = defaultBurst
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaultMaxRetries
	}

	return &Client{
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:      cfg.APIKey,
		collection:  cfg.Collection,
		maxRetries:  cfg.MaxRetries,
		rateLimiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		logger:      logger.Named("catalog"),
	}
}

// SetDebug enables or disables verbose request logging
func (c *Client) SetDebug(debug bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.debug = debug
}

func (c *Client) debugEnabled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.debug
}

// Initialize checks that the document store is reachable
func (c *Client) Initialize(ctx context.Context) error {
	if c.baseURL == "" {
		return fmt.Errorf("%w: base URL is not configured", domain.ErrCatalogUnavailable)
	}

	if _, err := c.get(ctx, c.baseURL+"/health"); err != nil {
		return fmt.Errorf("catalog health check failed: %w", err)
	}

	c.mu.Lock()
	c.initialized = true
	c.mu.Unlock()

	c.logger.Info("catalog client initialized",
		zap.String("base_url", c.baseURL),
		zap.String("collection", c.collection),
	)
	return nil
}

// Close releases pooled connections. The client must be initialized again before reuse.
func (c *Client) Close() error {
	c.mu.Lock()
	c.initialized = false
	c.mu.Unlock()

	c.httpClient.CloseIdleConnections()
	return nil
}

func (c *Client) ready() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.initialized {
		return fmt.Errorf("%w: client not initialized", domain.ErrCatalogUnavailable)
	}
	return nil
}

// FetchAllProducts returns the whole product collection
func (c *Client) FetchAllProducts(ctx context.Context) ([]domain.Product, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/collections/%s/documents", c.baseURL, url.PathEscape(c.collection))

	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	var list documentList
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	products := MapToProducts(list.Documents)
	c.logger.Debug("fetched catalog", zap.Int("products", len(products)))
	return products, nil
}

// GetProductByID fetches one product document
func (c *Client) GetProductByID(ctx context.Context, id string) (*domain.Product, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	if id == "" {
		return nil, domain.ErrInvalidRequest
	}

	endpoint := fmt.Sprintf("%s/collections/%s/documents/%s",
		c.baseURL, url.PathEscape(c.collection), url.PathEscape(id))

	body, err := c.get(ctx, endpoint)
	if errors.Is(err, errNotFound) {
		return nil, domain.ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}

	var doc ProductDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if doc.ID == "" {
		doc.ID = id
	}

	product := MapToProduct(doc)
	return &product, nil
}

// get performs a rate limited GET, retrying transport errors, 429 and 5xx
// with exponential backoff. Other 4xx responses fail immediately.
func (c *Client) get(ctx context.Context, reqURL string) ([]byte, error) {
	var lastErr error

	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter error: %w", err)
		}

		if c.debugEnabled() {
			c.logger.Debug("catalog request", zap.String("url", reqURL), zap.Int("attempt", attempt))
		}

		resp, err := c.doRequest(ctx, reqURL)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			c.logger.Warn("catalog request failed", zap.Int("attempt", attempt), zap.Error(err))
			lastErr = err
			if !c.sleep(ctx, attempt) {
				return nil, ctx.Err()
			}
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
			if readErr != nil {
				return nil, fmt.Errorf("failed to read response: %w", readErr)
			}
			return body, nil
		case resp.StatusCode == http.StatusNotFound:
			return nil, fmt.Errorf("%w: %w", domain.ErrCatalogUnavailable, errNotFound)
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			c.logger.Warn("catalog API error",
				zap.Int("attempt", attempt),
				zap.Int("status", resp.StatusCode),
				zap.String("body", truncate(string(body), 256)),
			)
			lastErr = fmt.Errorf("%w: status %d", domain.ErrCatalogUnavailable, resp.StatusCode)
			if !c.sleep(ctx, attempt) {
				return nil, ctx.Err()
			}
		default:
			return nil, fmt.Errorf("%w: status %d, body: %s",
				domain.ErrCatalogUnavailable, resp.StatusCode, truncate(string(body), 256))
		}
	}

	c.logger.Error("all catalog retries failed", zap.String("url", reqURL), zap.Error(lastErr))
	return nil, lastErr
}

// doRequest executes an HTTP GET request with proper headers
func (c *Client) doRequest(ctx context.Context, reqURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "SkinMatch/1.0")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCatalogUnavailable, err)
	}
	return resp, nil
}

// sleep waits for the backoff of the given attempt; false if ctx ended first
func (c *Client) sleep(ctx context.Context, attempt int) bool {
	if attempt >= c.maxRetries {
		return true
	}
	timer := time.NewTimer(exponentialBackoff(attempt))
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// exponentialBackoff returns 500ms, 1s, 2s, ... for attempts 1, 2, 3, ...
func exponentialBackoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return time.Duration(500<<(attempt-1)) * time.Millisecond
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

var (
	_ domain.CatalogSource = (*Client)(nil)
	_ domain.ProductFinder = (*Client)(nil)
)
