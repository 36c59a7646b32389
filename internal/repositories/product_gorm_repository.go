package repositories

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"katalog/internal/models"
)

// GORMProductRepository is a GORM implementation of ProductRepository.
type GORMProductRepository struct {
	db *gorm.DB
}

// NewGORMProductRepository creates a new instance of GORMProductRepository.
func NewGORMProductRepository(db *gorm.DB) *GORMProductRepository {
	return &GORMProductRepository{
		db: db,
	}
}

// Create inserts a new product into the database.
func (r *GORMProductRepository) Create(product *models.Product) error {
	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	if err := r.db.Create(product).Error; err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// GetAll retrieves all products from the database.
func (r *GORMProductRepository) GetAll() ([]models.Product, error) {
	var products []models.Product
	if err := r.db.Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to get all products: %w", err)
	}
	return products, nil
}

// Search translates the filter into WHERE clauses and returns the matches
// ordered by price descending. The LOWER(name) LIKE form behaves the same
// on SQLite and PostgreSQL.
func (r *GORMProductRepository) Search(filter models.ProductFilter) ([]models.Product, error) {
	query := r.db.Model(&models.Product{})
	if filter.Name != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(filter.Name)+"%")
	}
	if filter.MinPrice != nil {
		query = query.Where("price >= ?", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		query = query.Where("price <= ?", *filter.MaxPrice)
	}

	var products []models.Product
	if err := query.Order("price DESC").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to search products: %w", err)
	}
	return products, nil
}

// GetByID retrieves a single product by its ID from the database.
func (r *GORMProductRepository) GetByID(id string) (*models.Product, error) {
	var product models.Product
	if err := r.db.First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product with ID %s: %w", id, ErrProductNotFound)
		}
		return nil, fmt.Errorf("failed to get product by ID %s: %w", id, err)
	}
	return &product, nil
}

// UpdateByID applies the patch to an existing product and returns the
// post-update state.
func (r *GORMProductRepository) UpdateByID(id string, patch models.ProductPatch) (*models.Product, error) {
	product, err := r.GetByID(id)
	if err != nil {
		return nil, err
	}

	patch.Apply(product)
	// The explicit Select keeps this a pure UPDATE over all fields,
	// including zero values. Save must not be used here: when the UPDATE
	// matches no row it falls back to an upsert and would re-insert a
	// concurrently deleted record.
	res := r.db.Model(product).Select("*").Omit("id", "created_at").Updates(product)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to update product %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		// The record vanished between the lookup and the update.
		return nil, fmt.Errorf("product with ID %s: %w", id, ErrProductNotFound)
	}
	return product, nil
}

// DeleteByID deletes a product by its ID and returns the deleted record.
func (r *GORMProductRepository) DeleteByID(id string) (*models.Product, error) {
	product, err := r.GetByID(id)
	if err != nil {
		return nil, err
	}

	res := r.db.Delete(&models.Product{}, "id = ?", id)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to delete product %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		// Lost a race with a concurrent delete.
		return nil, fmt.Errorf("product with ID %s: %w", id, ErrProductNotFound)
	}
	return product, nil
}
