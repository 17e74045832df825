package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/skinmatch/backend/internal/domain"
	"github.com/skinmatch/backend/internal/infrastructure/logger"
	"github.com/skinmatch/backend/internal/usecase"
)

// RecommendationUsecase is what the handlers need from the recommendation service
type RecommendationUsecase interface {
	RecommendForConcern(ctx context.Context, concern string, limit int, allDetected []string) []domain.Product
	RecommendForConcerns(ctx context.Context, concerns []string, limit int) []domain.MultiConcernMatch
	ExplainConcern(ctx context.Context, concern string, limit int) []domain.ScoredCandidate
	Analyze(ctx context.Context, detections []domain.Detection, limit int) []domain.ConcernRecommendation
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	InvalidateCatalog(ctx context.Context) error
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	recommendations RecommendationUsecase
	resolver        *usecase.ConcernResolver
}

// NewHandler creates a new HTTP handler
func NewHandler(recommendations RecommendationUsecase) *Handler {
	return &Handler{
		recommendations: recommendations,
		resolver:        usecase.NewConcernResolver(),
	}
}

// ConcernSummary is one entry of the concern listing
type ConcernSummary struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Severity    domain.Severity `json:"severity,omitempty"`
}

// MultiConcernRequest is the body of POST /recommendations
type MultiConcernRequest struct {
	Concerns []string `json:"concerns" binding:"required,min=1"`
	Limit    int      `json:"limit" binding:"gte=0"`
}

// AnalysisRequest is the body of POST /analysis
type AnalysisRequest struct {
	Detections []domain.Detection `json:"detections" binding:"required"`
	Limit      int                `json:"limit" binding:"gte=0"`
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "skinmatch-backend",
		"version": "1.0.0",
	})
}

// ListConcerns returns every supported concern in taxonomy order
func (h *Handler) ListConcerns(c *gin.Context) {
	names := usecase.SupportedConcerns()
	concerns := make([]ConcernSummary, 0, len(names))
	for _, name := range names {
		concerns = append(concerns, ConcernSummary{
			Name:        name,
			Description: usecase.ConcernDescription(name),
			Severity:    usecase.ConcernSeverity(name),
		})
	}
	c.JSON(http.StatusOK, gin.H{"concerns": concerns})
}

// GetConcern returns the full profile of one concern
func (h *Handler) GetConcern(c *gin.Context) {
	name, ok := h.resolver.Resolve(c.Param("name"))
	if !ok {
		respondError(c, http.StatusNotFound, domain.ErrUnknownConcern)
		return
	}

	profile, _ := usecase.LookupConcern(name)
	c.JSON(http.StatusOK, profile)
}

// CheckCompatibility reports whether two concerns can be treated together
func (h *Handler) CheckCompatibility(c *gin.Context) {
	a := strings.TrimSpace(c.Query("a"))
	b := strings.TrimSpace(c.Query("b"))
	if a == "" || b == "" {
		respondError(c, http.StatusBadRequest, domain.ErrInvalidRequest, "query parameters a and b are required")
		return
	}

	a, _ = h.resolver.Resolve(a)
	b, _ = h.resolver.Resolve(b)

	c.JSON(http.StatusOK, gin.H{
		"a":          a,
		"b":          b,
		"compatible": usecase.AreCompatible(a, b),
	})
}

// GetRecommendations returns single-concern recommendations.
// With explain=true the scored candidates are returned instead.
func (h *Handler) GetRecommendations(c *gin.Context) {
	concern := strings.TrimSpace(c.Query("concern"))
	if concern == "" {
		respondError(c, http.StatusBadRequest, domain.ErrInvalidRequest, "query parameter concern is required")
		return
	}

	limit, err := parseLimit(c.Query("limit"))
	if err != nil {
		respondError(c, http.StatusBadRequest, domain.ErrInvalidRequest, "limit must be a non-negative integer")
		return
	}

	resolved, _ := h.resolver.Resolve(concern)
	ctx := c.Request.Context()

	if explain, _ := strconv.ParseBool(c.Query("explain")); explain {
		c.JSON(http.StatusOK, gin.H{
			"concern":    resolved,
			"candidates": h.recommendations.ExplainConcern(ctx, concern, limit),
		})
		return
	}

	detected := h.resolver.ResolveAll(splitList(c.Query("detected")))
	c.JSON(http.StatusOK, gin.H{
		"concern":  resolved,
		"products": h.recommendations.RecommendForConcern(ctx, concern, limit, detected),
	})
}

// PostRecommendations ranks products against several concerns
func (h *Handler) PostRecommendations(c *gin.Context) {
	var req MultiConcernRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, domain.ErrInvalidRequest, err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"matches": h.recommendations.RecommendForConcerns(c.Request.Context(), req.Concerns, req.Limit),
	})
}

// PostAnalysis turns detector output into grouped recommendations
func (h *Handler) PostAnalysis(c *gin.Context) {
	var req AnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, domain.ErrInvalidRequest, err.Error())
		return
	}

	results := h.recommendations.Analyze(c.Request.Context(), req.Detections, req.Limit)
	logger.GetGinLogger(c).Debug("analysis completed",
		zap.Int("detections", len(req.Detections)),
		zap.Int("concerns", len(results)),
	)

	c.JSON(http.StatusOK, gin.H{"results": results})
}

// GetProduct returns one catalog product by id
func (h *Handler) GetProduct(c *gin.Context) {
	product, err := h.recommendations.GetProduct(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"product": product})
	case errors.Is(err, domain.ErrProductNotFound):
		respondError(c, http.StatusNotFound, domain.ErrProductNotFound)
	case errors.Is(err, domain.ErrInvalidRequest):
		respondError(c, http.StatusBadRequest, domain.ErrInvalidRequest, "product id is required")
	default:
		respondError(c, http.StatusServiceUnavailable, domain.ErrCatalogUnavailable)
	}
}

// RefreshCatalog drops the cached catalog snapshot after a catalog update
func (h *Handler) RefreshCatalog(c *gin.Context) {
	if err := h.recommendations.InvalidateCatalog(c.Request.Context()); err != nil {
		logger.GetGinLogger(c).Error("failed to invalidate catalog snapshot", zap.Error(err))
		respondError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "refreshed"})
}

// respondError writes {"error": ..., "details": ...} and records the error on the context
func respondError(c *gin.Context, status int, err error, details ...string) {
	_ = c.Error(err)
	body := gin.H{"error": err.Error()}
	if len(details) > 0 {
		body["details"] = details[0]
	}
	c.AbortWithStatusJSON(status, body)
}

func parseLimit(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0, domain.ErrInvalidRequest
	}
	return limit, nil
}

// splitList splits a comma separated query value, dropping blanks
func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
