package catalog

import (
	"strings"

	"github.com/skinmatch/backend/internal/domain"
)

// ProductDocument is a product as stored in the document database.
// Every field but the id may be absent.
type ProductDocument struct {
	ID          string   `json:"id"`
	Name        *string  `json:"name,omitempty"`
	Description *string  `json:"description,omitempty"`
	Category    *string  `json:"category,omitempty"`
	Subcategory *string  `json:"subcategory,omitempty"`
	Featured    *bool    `json:"featured,omitempty"`
	Brand       *string  `json:"brand,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	ImageURL    *string  `json:"imageUrl,omitempty"`
}

// MapToProduct converts a document into a Product, applying field defaults
func MapToProduct(doc ProductDocument) domain.Product {
	return domain.Product{
		ID:          strings.TrimSpace(doc.ID),
		Name:        strings.TrimSpace(stringOr(doc.Name)),
		Description: stringOr(doc.Description),
		Category:    strings.TrimSpace(stringOr(doc.Category)),
		Subcategory: strings.TrimSpace(stringOr(doc.Subcategory)),
		Featured:    doc.Featured != nil && *doc.Featured,
		Brand:       stringOr(doc.Brand),
		Price:       floatOr(doc.Price),
		ImageURL:    stringOr(doc.ImageURL),
	}
}

// MapToProducts converts documents, dropping those with neither id nor name
func MapToProducts(docs []ProductDocument) []domain.Product {
	products := make([]domain.Product, 0, len(docs))
	for _, doc := range docs {
		p := MapToProduct(doc)
		if p.ID == "" && p.Name == "" {
			continue
		}
		products = append(products, p)
	}
	return products
}

// MapFromProduct converts a Product back into its document form
func MapFromProduct(p domain.Product) ProductDocument {
	doc := ProductDocument{
		ID:          p.ID,
		Name:        &p.Name,
		Description: &p.Description,
		Category:    &p.Category,
		Subcategory: &p.Subcategory,
		Featured:    &p.Featured,
	}
	if p.Brand != "" {
		doc.Brand = &p.Brand
	}
	if p.Price != 0 {
		doc.Price = &p.Price
	}
	if p.ImageURL != "" {
		doc.ImageURL = &p.ImageURL
	}
	return doc
}

func stringOr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func floatOr(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}
