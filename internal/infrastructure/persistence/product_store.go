package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/skinmatch/backend/internal/domain"
)

// ProductModel is the catalog row
type ProductModel struct {
	ID          string `gorm:"primaryKey;size:128"`
	Name        string `gorm:"size:255;not null"`
	Description string `gorm:"type:text"`
	Category    string `gorm:"size:128;index"`
	Subcategory string `gorm:"size:128"`
	Featured    bool   `gorm:"not null;default:false"`
	Brand       string `gorm:"size:128"`
	Price       float64
	ImageURL    string `gorm:"size:512"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the row to a Product
func (m *ProductModel) ToDomain() domain.Product {
	return domain.Product{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description,
		Category:    m.Category,
		Subcategory: m.Subcategory,
		Featured:    m.Featured,
		Brand:       m.Brand,
		Price:       m.Price,
		ImageURL:    m.ImageURL,
	}
}

// ProductModelFromDomain builds a row from a Product
func ProductModelFromDomain(p domain.Product) *ProductModel {
	return &ProductModel{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Category:    p.Category,
		Subcategory: p.Subcategory,
		Featured:    p.Featured,
		Brand:       p.Brand,
		Price:       p.Price,
		ImageURL:    p.ImageURL,
	}
}

// ProductStore serves the catalog from a SQL table
type ProductStore struct {
	db *gorm.DB
}

// NewProductStore creates a store on an open gorm connection
func NewProductStore(db *gorm.DB) *ProductStore {
	return &ProductStore{db: db}
}

// AutoMigrate creates or updates the products table
func (s *ProductStore) AutoMigrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&ProductModel{}); err != nil {
		return fmt.Errorf("failed to migrate products table: %w", err)
	}
	return nil
}

// FetchAllProducts returns every product ordered by id
func (s *ProductStore) FetchAllProducts(ctx context.Context) ([]domain.Product, error) {
	var models []ProductModel
	if err := s.db.WithContext(ctx).Order("id").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCatalogUnavailable, err)
	}

	products := make([]domain.Product, len(models))
	for i := range models {
		products[i] = models[i].ToDomain()
	}
	return products, nil
}

// GetProductByID returns one product
func (s *ProductStore) GetProductByID(ctx context.Context, id string) (*domain.Product, error) {
	if id == "" {
		return nil, domain.ErrInvalidRequest
	}

	var model ProductModel
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrProductNotFound
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrCatalogUnavailable, err)
	}

	p := model.ToDomain()
	return &p, nil
}

// Upsert inserts products or overwrites existing rows with the same id.
// Every product must carry an id.
func (s *ProductStore) Upsert(ctx context.Context, products []domain.Product) (int, error) {
	if len(products) == 0 {
		return 0, nil
	}

	models := make([]*ProductModel, 0, len(products))
	for _, p := range products {
		if p.ID == "" {
			return 0, fmt.Errorf("%w: product %q has no id", domain.ErrInvalidRequest, p.Name)
		}
		models = append(models, ProductModelFromDomain(p))
	}

	result := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"name", "description", "category", "subcategory",
				"featured", "brand", "price", "image_url", "updated_at",
			}),
		}).
		Create(&models)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to upsert products: %w", result.Error)
	}
	return len(models), nil
}

var (
	_ domain.CatalogSource = (*ProductStore)(nil)
	_ domain.ProductFinder = (*ProductStore)(nil)
)
