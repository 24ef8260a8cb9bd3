// Package product provides the catalog product entity and stock mutation.
// The returns workflow only ever increments stock (restock on credit);
// decrements happen in the storefront checkout, outside this service.
package product

import (
	"context"

	"rimshield/internal/core/id"
)

// Product is a catalog item (a rim protector set variant).
type Product struct {
	ID    id.ID  `db:"id" json:"id"`
	SKU   string `db:"sku" json:"sku"`
	Name  string `db:"name" json:"name"`
	Stock int    `db:"stock" json:"stock"`
}

// Repository defines product operations used by the returns workflow.
type Repository interface {
	GetByID(ctx context.Context, productID id.ID) (*Product, error)

	// IncrementStock atomically adds qty to the product's stock.
	// qty must be positive.
	IncrementStock(ctx context.Context, productID id.ID, qty int) error
}
