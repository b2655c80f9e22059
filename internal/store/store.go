// Package store persists product records.
package store

import (
	"context"

	"github.com/shopspring/decimal"
)

// Product is a catalog record keyed by ProductID.
// ImageURL is empty when no asset is attached.
type Product struct {
	ProductID   string
	Name        string
	Description string
	Price       decimal.Decimal
	Category    string
	Stock       int32
	ImageURL    string
}

// ProductStore is an interface for product storage operations.
// It abstracts the underlying data store, allowing for different implementations (e.g., DynamoDB, PostgreSQL, in-memory).
type ProductStore interface {
	// Put writes the record, replacing any record with the same ProductID.
	// Failures wrap ErrRecordWrite.
	Put(ctx context.Context, product Product) error

	// Get retrieves a single product by its unique identifier.
	// Returns ErrProductNotFound if no product exists with the given ID.
	Get(ctx context.Context, id string) (*Product, error)

	// Scan returns every product in no particular order.
	// Returns an empty slice if no products exist.
	Scan(ctx context.Context) ([]Product, error)

	// Delete removes a product by its ID. Deleting an absent ID is not an error.
	// Failures wrap ErrRecordDelete.
	Delete(ctx context.Context, id string) error
}
