package domain

import (
	"context"
	"time"
)

// CatalogSource fetches the full denormalized product catalog
type CatalogSource interface {
	FetchAllProducts(ctx context.Context) ([]Product, error)
}

// ProductFinder looks up a single catalog product
type ProductFinder interface {
	GetProductByID(ctx context.Context, id string) (*Product, error)
}

// SnapshotCache stores raw catalog snapshots with a TTL
type SnapshotCache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
