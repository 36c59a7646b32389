package services

import (
	"errors"
	"fmt"
	"log"

	"katalog/internal/models"
	"katalog/internal/repositories"
)

var (
	// ErrProductNotFound mirrors the repository sentinel so callers can
	// stay on the service API.
	ErrProductNotFound = repositories.ErrProductNotFound
	// ErrCreateFailed means the record could not be persisted; any file
	// stored for it has already been cleaned up.
	ErrCreateFailed = errors.New("create product failed")
	// ErrUpdateFailed means the patch could not be applied; a newly
	// stored replacement image has already been cleaned up.
	ErrUpdateFailed = errors.New("update product failed")
)

// FileStore persists uploaded product images.
type FileStore interface {
	// Save persists the bytes under a unique name and returns the disk path.
	Save(data []byte, suggestedName string) (string, error)
	// PublicPath derives the client-facing path from a disk path.
	PublicPath(diskPath string) string
	// Remove deletes a stored file; a missing file is not an error.
	Remove(path string) error
}

// EventPublisher broadcasts product lifecycle events.
type EventPublisher interface {
	PublishProductEvent(action string, product *models.Product) error
}

// ProductService handles business logic related to products: it
// coordinates the repository write with the file-store side effect so
// that neither is left dangling when the other fails.
type ProductService struct {
	repo   repositories.ProductRepository
	files  FileStore
	events EventPublisher // optional, may be nil
}

// NewProductService creates a new ProductService. events may be nil to
// disable event publishing.
func NewProductService(repo repositories.ProductRepository, files FileStore, events EventPublisher) *ProductService {
	return &ProductService{
		repo:   repo,
		files:  files,
		events: events,
	}
}

// GetAllProducts retrieves all products.
func (s *ProductService) GetAllProducts() ([]models.Product, error) {
	return s.repo.GetAll()
}

// SearchProducts retrieves the products matching the filter, ordered by
// price descending.
func (s *ProductService) SearchProducts(filter models.ProductFilter) ([]models.Product, error) {
	return s.repo.Search(filter)
}

// GetProductByID retrieves a single product by its ID.
func (s *ProductService) GetProductByID(id string) (*models.Product, error) {
	return s.repo.GetByID(id)
}

// CreateProduct creates a new product, storing the uploaded image first
// when one is supplied. If the insert then fails, the stored file is
// removed again so it never survives as an orphan.
func (s *ProductService) CreateProduct(input models.CreateProductInput, file *models.UploadedFile) (*models.Product, error) {
	product := &models.Product{
		Name:        input.Name,
		Price:       input.Price,
		Description: input.Description,
		Colors:      input.Colors,
	}

	var diskPath string
	if file != nil {
		path, err := s.files.Save(file.Data, file.Name)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCreateFailed, err)
		}
		diskPath = path
		product.ImageURL = s.files.PublicPath(diskPath)
	}

	if err := s.repo.Create(product); err != nil {
		if diskPath != "" {
			s.cleanupFile(diskPath)
		}
		return nil, fmt.Errorf("%w: %v", ErrCreateFailed, err)
	}

	s.publishEvent("product.created", product)
	return product, nil
}

// UpdateProduct applies a partial update, optionally replacing the
// product's image. The target is looked up before any file is stored so
// that no upload happens for a nonexistent product. The prior image is
// only removed once the new reference has been recorded; if the update
// fails instead, the newly stored file is removed and the prior image is
// left untouched.
func (s *ProductService) UpdateProduct(id string, input models.UpdateProductInput, file *models.UploadedFile) (*models.Product, error) {
	existing, err := s.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrProductNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrUpdateFailed, err)
	}

	patch := models.ProductPatch{
		Name:        input.Name,
		Price:       input.Price,
		Description: input.Description,
		Colors:      input.Colors,
	}

	var newDiskPath string
	if file != nil {
		path, err := s.files.Save(file.Data, file.Name)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUpdateFailed, err)
		}
		newDiskPath = path
		publicPath := s.files.PublicPath(path)
		patch.ImageURL = &publicPath
	}

	updated, err := s.repo.UpdateByID(id, patch)
	if err != nil {
		if newDiskPath != "" {
			s.cleanupFile(newDiskPath)
		}
		if errors.Is(err, repositories.ErrProductNotFound) {
			// The record was deleted between the lookup and the update.
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrUpdateFailed, err)
	}

	if newDiskPath != "" && existing.ImageURL != "" {
		// The new reference is durably recorded, the old image can go.
		s.cleanupFile(existing.ImageURL)
	}

	s.publishEvent("product.updated", updated)
	return updated, nil
}

// DeleteProduct removes a product and, afterwards, its image file if it
// had one.
func (s *ProductService) DeleteProduct(id string) (*models.Product, error) {
	deleted, err := s.repo.DeleteByID(id)
	if err != nil {
		return nil, err
	}

	if deleted.ImageURL != "" {
		// The record is already gone, so a cleanup problem here is only
		// logged, never surfaced.
		s.cleanupFile(deleted.ImageURL)
	}

	s.publishEvent("product.deleted", deleted)
	return deleted, nil
}

// cleanupFile removes a stored file without letting a cleanup problem
// affect the caller's primary outcome.
func (s *ProductService) cleanupFile(path string) {
	if err := s.files.Remove(path); err != nil {
		log.Printf("Failed to clean up file %s: %v", path, err)
	}
}

// publishEvent broadcasts a product lifecycle event when a publisher is
// configured. Publish failures never affect the primary operation.
func (s *ProductService) publishEvent(action string, product *models.Product) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishProductEvent(action, product); err != nil {
		log.Printf("Failed to publish %s event for product %s: %v", action, product.ID, err)
	}
}
