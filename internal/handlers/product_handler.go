package handlers

import (
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"

	"katalog/internal/models"
	"katalog/internal/services"
)

// imageFormField is the multipart field name carrying the uploaded image.
const imageFormField = "image"

// allowedProductFields are the form fields accepted by create and update.
// Anything else is rejected, including attempts to set imageUrl directly.
var allowedProductFields = map[string]bool{
	"name":        true,
	"price":       true,
	"description": true,
	"colors":      true,
}

// ProductHandler handles HTTP requests for products.
type ProductHandler struct {
	service       *services.ProductService
	validate      *validator.Validate
	maxUploadSize int64
}

// NewProductHandler creates a new ProductHandler. maxUploadSize caps the
// size of a single uploaded image in bytes.
func NewProductHandler(service *services.ProductService, maxUploadSize int64) *ProductHandler {
	return &ProductHandler{
		service:       service,
		validate:      validator.New(),
		maxUploadSize: maxUploadSize,
	}
}

// RegisterRoutes registers the product routes with the Fiber app.
// The search route is registered before the parameterized ones so that
// "search" is never captured as an ID.
func (h *ProductHandler) RegisterRoutes(router fiber.Router) {
	productRoutes := router.Group("/products")
	productRoutes.Get("/search", h.HandleSearchProducts)
	productRoutes.Get("/", h.HandleGetProducts)
	productRoutes.Post("/", h.HandleCreateProduct)
	productRoutes.Get("/:id", h.HandleGetProductByID)
	productRoutes.Patch("/:id", h.HandleUpdateProduct)
	productRoutes.Delete("/:id", h.HandleDeleteProduct)
}

// HandleGetProducts retrieves all products.
func (h *ProductHandler) HandleGetProducts(c *fiber.Ctx) error {
	products, err := h.service.GetAllProducts()
	if err != nil {
		log.Printf("Error getting all products: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve products",
			"error":   err.Error(),
		})
	}
	return c.JSON(products)
}

// HandleSearchProducts retrieves products filtered by an optional
// case-insensitive name substring and optional inclusive price bounds,
// ordered by price descending.
func (h *ProductHandler) HandleSearchProducts(c *fiber.Ctx) error {
	filter := models.ProductFilter{Name: c.Query("name")}

	if raw := c.Query("min"); raw != "" {
		min, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": fmt.Sprintf("Invalid min price: %s", raw),
			})
		}
		filter.MinPrice = &min
	}
	if raw := c.Query("max"); raw != "" {
		max, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": fmt.Sprintf("Invalid max price: %s", raw),
			})
		}
		filter.MaxPrice = &max
	}

	products, err := h.service.SearchProducts(filter)
	if err != nil {
		log.Printf("Error searching products: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not search products",
			"error":   err.Error(),
		})
	}
	return c.JSON(products)
}

// HandleGetProductByID retrieves a single product by its ID.
func (h *ProductHandler) HandleGetProductByID(c *fiber.Ctx) error {
	productID := c.Params("id")
	product, err := h.service.GetProductByID(productID)
	if err != nil {
		if errors.Is(err, services.ErrProductNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": fmt.Sprintf("Product with ID %s not found", productID),
			})
		}
		log.Printf("Error getting product by ID %s: %v", productID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve product",
			"error":   err.Error(),
		})
	}
	return c.JSON(product)
}

// HandleCreateProduct creates a new product from a multipart form,
// optionally with an uploaded image in the "image" field.
func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Request body must be multipart form data",
			"error":   err.Error(),
		})
	}
	if msg := checkFormFields(form); msg != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": msg,
		})
	}

	var input models.CreateProductInput
	if err := c.BodyParser(&input); err != nil {
		log.Printf("Error parsing create product form: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  validationErrorMessages(err),
		})
	}

	file, status, err := h.readUploadedFile(c)
	if err != nil {
		return c.Status(status).JSON(fiber.Map{
			"message": "Invalid image upload",
			"error":   err.Error(),
		})
	}

	product, err := h.service.CreateProduct(input, file)
	if err != nil {
		log.Printf("Error creating product: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not create product",
			"error":   err.Error(),
		})
	}
	return c.Status(fiber.StatusCreated).JSON(product)
}

// HandleUpdateProduct applies a partial update to an existing product,
// optionally replacing its image.
func (h *ProductHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	productID := c.Params("id")

	form, err := c.MultipartForm()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Request body must be multipart form data",
			"error":   err.Error(),
		})
	}
	if msg := checkFormFields(form); msg != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": msg,
		})
	}

	var input models.UpdateProductInput
	if err := c.BodyParser(&input); err != nil {
		log.Printf("Error parsing update product form: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  validationErrorMessages(err),
		})
	}

	file, status, err := h.readUploadedFile(c)
	if err != nil {
		return c.Status(status).JSON(fiber.Map{
			"message": "Invalid image upload",
			"error":   err.Error(),
		})
	}

	product, err := h.service.UpdateProduct(productID, input, file)
	if err != nil {
		if errors.Is(err, services.ErrProductNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": fmt.Sprintf("Product with ID %s not found", productID),
			})
		}
		log.Printf("Error updating product %s: %v", productID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not update product",
			"error":   err.Error(),
		})
	}
	return c.JSON(product)
}

// HandleDeleteProduct removes a product and returns the deleted record.
func (h *ProductHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	productID := c.Params("id")
	product, err := h.service.DeleteProduct(productID)
	if err != nil {
		if errors.Is(err, services.ErrProductNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": fmt.Sprintf("Product with ID %s not found", productID),
			})
		}
		log.Printf("Error deleting product %s: %v", productID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not delete product",
			"error":   err.Error(),
		})
	}
	return c.JSON(product)
}

// readUploadedFile reads the optional "image" form file into memory,
// enforcing the configured size cap. A request without a file yields
// (nil, 0, nil).
func (h *ProductHandler) readUploadedFile(c *fiber.Ctx) (*models.UploadedFile, int, error) {
	fileHeader, err := c.FormFile(imageFormField)
	if err != nil {
		if errors.Is(err, fasthttp.ErrMissingFile) {
			return nil, 0, nil // no file attached
		}
		return nil, fiber.StatusBadRequest, fmt.Errorf("invalid image form part: %w", err)
	}
	if fileHeader.Size > h.maxUploadSize {
		return nil, fiber.StatusRequestEntityTooLarge,
			fmt.Errorf("file size %d exceeds the %d byte limit", fileHeader.Size, h.maxUploadSize)
	}

	src, err := fileHeader.Open()
	if err != nil {
		return nil, fiber.StatusBadRequest, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return nil, fiber.StatusBadRequest, fmt.Errorf("failed to read uploaded file: %w", err)
	}
	return &models.UploadedFile{Name: fileHeader.Filename, Data: data}, 0, nil
}

// checkFormFields rejects form fields outside the allowed set, mirroring
// a whitelist-only validation policy. Returns an empty string when the
// form is clean.
func checkFormFields(form *multipart.Form) string {
	for field := range form.Value {
		if !allowedProductFields[field] {
			return fmt.Sprintf("Unknown field: %s", field)
		}
	}
	for field := range form.File {
		if field != imageFormField {
			return fmt.Sprintf("Unknown file field: %s", field)
		}
	}
	return ""
}

// validationErrorMessages flattens validator errors into a field -> message map.
func validationErrorMessages(err error) map[string]string {
	errorMessages := make(map[string]string)
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		for _, e := range validationErrors {
			errorMessages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
		}
	}
	return errorMessages
}
