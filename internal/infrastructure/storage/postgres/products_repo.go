package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"rimshield/internal/core/apperror"
	"rimshield/internal/core/id"
	"rimshield/internal/domain/product"
)

const productsTable = "products"

var _ product.Repository = (*ProductRepo)(nil)

// ProductRepo implements product.Repository.
type ProductRepo struct {
	repoBase
}

// NewProductRepo creates a new product repository.
func NewProductRepo(tm *TxManager) *ProductRepo {
	return &ProductRepo{repoBase: newRepoBase(tm)}
}

func (r *ProductRepo) GetByID(ctx context.Context, productID id.ID) (*product.Product, error) {
	q := r.Builder().
		Select("id", "sku", "name", "stock").
		From(productsTable).
		Where(squirrel.Eq{"id": productID})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var p product.Product
	querier := r.tm.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &p, sql, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFound("product", productID.String())
		}
		return nil, apperror.NewDatabase("get product", err)
	}
	return &p, nil
}

// IncrementStock adds qty to the product's stock in a single statement, so
// concurrent restocks never lose an update.
func (r *ProductRepo) IncrementStock(ctx context.Context, productID id.ID, qty int) error {
	if qty <= 0 {
		return apperror.NewValidation("restock quantity must be positive").
			WithDetail("qty", qty)
	}

	sql := "UPDATE products SET stock = stock + $1 WHERE id = $2"
	querier := r.tm.GetQuerier(ctx)
	tag, err := querier.Exec(ctx, sql, qty, productID)
	if err != nil {
		return apperror.NewDatabase("increment stock", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("product", productID.String())
	}
	return nil
}
