package models

import "time"

// Product represents a product in the catalog.
//
// ImageURL holds the public relative path of the uploaded image (for
// example "products/3f2a....jpg"). It is never taken from client input;
// the service derives it from the stored file.
type Product struct {
	ID          string    `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Name        string    `json:"name" validate:"required,min=1,max=100"`
	Price       float64   `json:"price" validate:"gte=0"`
	Description string    `json:"description,omitempty" validate:"omitempty,max=500"`
	Colors      []string  `json:"colors" gorm:"serializer:json"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// CreateProductInput is the client-supplied payload for creating a product.
type CreateProductInput struct {
	Name        string   `form:"name" json:"name" validate:"required,min=1,max=100"`
	Price       float64  `form:"price" json:"price" validate:"gte=0"`
	Description string   `form:"description" json:"description" validate:"omitempty,max=500"`
	Colors      []string `form:"colors" json:"colors" validate:"omitempty,dive,max=50"`
}

// UpdateProductInput is the client-supplied payload for updating a product.
// Nil fields are left unchanged.
type UpdateProductInput struct {
	Name        *string  `form:"name" json:"name" validate:"omitempty,min=1,max=100"`
	Price       *float64 `form:"price" json:"price" validate:"omitempty,gte=0"`
	Description *string  `form:"description" json:"description" validate:"omitempty,max=500"`
	Colors      []string `form:"colors" json:"colors" validate:"omitempty,dive,max=50"`
}

// ProductFilter narrows Search results. Zero/nil fields are ignored.
// MinPrice and MaxPrice are inclusive bounds and may be combined.
type ProductFilter struct {
	Name     string
	MinPrice *float64
	MaxPrice *float64
}

// ProductPatch is a partial-field replacement applied by UpdateByID.
// Nil fields keep their stored value.
type ProductPatch struct {
	Name        *string
	Price       *float64
	Description *string
	Colors      []string
	ImageURL    *string
}

// Apply overwrites the product's fields with the patch's non-nil values.
func (p ProductPatch) Apply(product *Product) {
	if p.Name != nil {
		product.Name = *p.Name
	}
	if p.Price != nil {
		product.Price = *p.Price
	}
	if p.Description != nil {
		product.Description = *p.Description
	}
	if p.Colors != nil {
		product.Colors = p.Colors
	}
	if p.ImageURL != nil {
		product.ImageURL = *p.ImageURL
	}
}

// UploadedFile carries an uploaded file's bytes and its original filename.
type UploadedFile struct {
	Name string
	Data []byte
}
