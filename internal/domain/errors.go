package domain

import "errors"

var (
	// ErrUnknownConcern is returned when a concern name has no profile in the taxonomy
	ErrUnknownConcern = errors.New("unknown skin concern")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrCatalogUnavailable is returned when the product catalog cannot be fetched
	ErrCatalogUnavailable = errors.New("product catalog unavailable")

	// ErrProductNotFound is returned when a product id has no catalog entry
	ErrProductNotFound = errors.New("product not found in catalog")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrRateLimited is returned when rate limit is exceeded
	ErrRateLimited = errors.New("rate limit exceeded")
)
