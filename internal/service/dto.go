package service

import (
	"encoding/json"

	"github.com/abgdnv/catalog/internal/store"
)

// CreateProductDto carries the create-form fields as submitted. Price and Stock
// stay strings until validation converts them.
type CreateProductDto struct {
	Name        string `form:"name" validate:"required,max=200"`
	Description string `form:"description" validate:"required,max=2000"`
	Price       string `form:"price" validate:"required,numeric,price"`
	Category    string `form:"category" validate:"required,max=100"`
	Stock       string `form:"stock" validate:"required,quantity"`
}

// ImageUpload is the optional file attached to a create request.
type ImageUpload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ProductDto represents the data transfer object for a product.
type ProductDto struct {
	ProductID   string      `json:"product_id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Price       json.Number `json:"price"`
	Category    string      `json:"category"`
	Stock       int32       `json:"stock"`
	ImageURL    string      `json:"image_url"`
}

// DeleteResult describes a completed delete. CleanupWarning is set when the
// record was removed but its image could not be.
type DeleteResult struct {
	ProductID        string
	OrphanedAssetKey string
	CleanupWarning   string
}

// toDto converts a store.Product to a ProductDto.
func toDto(p store.Product) ProductDto {
	return ProductDto{
		ProductID:   p.ProductID,
		Name:        p.Name,
		Description: p.Description,
		Price:       json.Number(p.Price.String()),
		Category:    p.Category,
		Stock:       p.Stock,
		ImageURL:    p.ImageURL,
	}
}
