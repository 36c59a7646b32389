package repositories

import (
	"errors"

	"katalog/internal/models"
)

// ErrProductNotFound is returned when no product exists for a given ID.
// Implementations wrap it with the offending ID; check with errors.Is.
var ErrProductNotFound = errors.New("product not found")

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	// Create inserts a new product, assigning an ID when none is set.
	Create(product *models.Product) error
	// GetAll retrieves every product, in no particular order.
	GetAll() ([]models.Product, error)
	// Search retrieves products matching the filter, ordered by price
	// descending. The name match is a case-insensitive substring match.
	Search(filter models.ProductFilter) ([]models.Product, error)
	// GetByID retrieves a single product by its ID.
	GetByID(id string) (*models.Product, error)
	// UpdateByID applies a partial-field replacement and returns the
	// post-update state.
	UpdateByID(id string, patch models.ProductPatch) (*models.Product, error)
	// DeleteByID removes a product and returns the deleted record.
	DeleteByID(id string) (*models.Product, error)
}
