package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/skinmatch/backend/internal/domain"
)

// FileSource serves a catalog exported as a JSON array of product documents.
// The file is read on every fetch so edits are picked up without a restart.
type FileSource struct {
	path string
}

// NewFileSource creates a catalog source backed by a JSON file
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// ReadDocuments decodes a JSON array of product documents from path
func ReadDocuments(path string) ([]ProductDocument, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCatalogUnavailable, err)
	}

	var docs []ProductDocument
	if err := json.Unmarshal(raw, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode catalog file %s: %w", path, err)
	}
	return docs, nil
}

// FetchAllProducts reads and maps the whole file
func (s *FileSource) FetchAllProducts(ctx context.Context) ([]domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	docs, err := ReadDocuments(s.path)
	if err != nil {
		return nil, err
	}
	return MapToProducts(docs), nil
}

// GetProductByID scans the file for one product
func (s *FileSource) GetProductByID(ctx context.Context, id string) (*domain.Product, error) {
	products, err := s.FetchAllProducts(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range products {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, domain.ErrProductNotFound
}

var (
	_ domain.CatalogSource = (*FileSource)(nil)
	_ domain.ProductFinder = (*FileSource)(nil)
)
