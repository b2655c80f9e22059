package store

import (
	"context"
	"errors"
	"fmt"

	perrors "github.com/abgdnv/catalog/internal/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

// PgExecutor is the subset of *pgxpool.Pool used by PgStore.
type PgExecutor interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PgStore implements ProductStore using PostgreSQL as the data store.
type PgStore struct {
	db PgExecutor
}

// NewPgStore creates a new instance of ProductStore using a PostgreSQL connection pool.
func NewPgStore(db PgExecutor) *PgStore {
	return &PgStore{db: db}
}

const (
	upsertProductSQL = `
INSERT INTO products (product_id, name, description, price, category, stock, image_url)
VALUES ($1, $2, $3, $4::numeric, $5, $6, $7)
ON CONFLICT (product_id) DO UPDATE SET
    name = EXCLUDED.name,
    description = EXCLUDED.description,
    price = EXCLUDED.price,
    category = EXCLUDED.category,
    stock = EXCLUDED.stock,
    image_url = EXCLUDED.image_url`

	selectProductColumns = `SELECT product_id, name, description, price::text, category, stock, image_url FROM products`

	deleteProductSQL = `DELETE FROM products WHERE product_id = $1`
)

// Put inserts the product or replaces the row with the same product_id.
func (p *PgStore) Put(ctx context.Context, product Product) error {
	_, err := p.db.Exec(ctx, upsertProductSQL,
		product.ProductID,
		product.Name,
		product.Description,
		product.Price.String(),
		product.Category,
		product.Stock,
		product.ImageURL,
	)
	if err != nil {
		return fmt.Errorf("%w: failed to insert product %s: %w", perrors.ErrRecordWrite, product.ProductID, err)
	}
	return nil
}

// Get retrieves a product by its unique identifier.
// Returns ErrProductNotFound if no product exists with the given ID.
func (p *PgStore) Get(ctx context.Context, id string) (*Product, error) {
	product, err := scanProduct(p.db.QueryRow(ctx, selectProductColumns+` WHERE product_id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, perrors.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}
	return &product, nil
}

// Scan retrieves every product row.
func (p *PgStore) Scan(ctx context.Context) ([]Product, error) {
	rows, err := p.db.Query(ctx, selectProductColumns)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	products, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Product, error) {
		return scanProduct(row)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read products: %w", err)
	}
	if products == nil {
		products = []Product{}
	}
	return products, nil
}

// Delete removes a product by its unique identifier; a missing row is not an error.
func (p *PgStore) Delete(ctx context.Context, id string) error {
	if _, err := p.db.Exec(ctx, deleteProductSQL, id); err != nil {
		return fmt.Errorf("%w: failed to delete product by ID: %w", perrors.ErrRecordDelete, err)
	}
	return nil
}

func scanProduct(row pgx.Row) (Product, error) {
	var (
		product Product
		price   string
	)
	err := row.Scan(
		&product.ProductID,
		&product.Name,
		&product.Description,
		&price,
		&product.Category,
		&product.Stock,
		&product.ImageURL,
	)
	if err != nil {
		return Product{}, err
	}
	product.Price, err = decimal.NewFromString(price)
	if err != nil {
		return Product{}, fmt.Errorf("invalid price %q for product %s: %w", price, product.ProductID, err)
	}
	return product, nil
}
