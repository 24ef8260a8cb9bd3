package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"rimshield/internal/core/apperror"
	"rimshield/internal/core/id"
	"rimshield/internal/domain/orders"
)

const ordersTable = "orders"

var _ orders.Repository = (*OrderRepo)(nil)

// OrderRepo implements orders.Repository. Orders arrive from the storefront;
// this service only reads them and records the bookkeeping sync outcome.
type OrderRepo struct {
	repoBase
}

// NewOrderRepo creates a new order repository.
func NewOrderRepo(tm *TxManager) *OrderRepo {
	return &OrderRepo{repoBase: newRepoBase(tm)}
}

var orderColumns = []string{
	"id", "order_number",
	"customer_id", "customer_name", "email",
	"payment_status", "items", "sync", "created_at",
}

func (r *OrderRepo) GetByID(ctx context.Context, orderID id.ID) (*orders.Order, error) {
	return r.getOne(ctx, squirrel.Eq{"id": orderID}, orderID.String())
}

func (r *OrderRepo) GetByNumber(ctx context.Context, orderNumber string) (*orders.Order, error) {
	return r.getOne(ctx, squirrel.Eq{"order_number": orderNumber}, orderNumber)
}

func (r *OrderRepo) getOne(ctx context.Context, where squirrel.Eq, ref string) (*orders.Order, error) {
	q := r.Builder().
		Select(orderColumns...).
		From(ordersTable).
		Where(where)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	querier := r.tm.GetQuerier(ctx)
	order, err := scanOrder(querier.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFound("order", ref)
		}
		return nil, apperror.NewDatabase("get order", err)
	}
	return order, nil
}

func (r *OrderRepo) UpdateSync(ctx context.Context, orderID id.ID, sync *orders.SyncState) error {
	raw, err := marshalNullableJSON(sync)
	if err != nil {
		return err
	}

	q := r.Builder().
		Update(ordersTable).
		Set("sync", raw).
		Where(squirrel.Eq{"id": orderID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	querier := r.tm.GetQuerier(ctx)
	tag, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return apperror.NewDatabase("update order sync", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("order", orderID.String())
	}
	return nil
}

// Upsert stores an order received from the storefront. Existing orders are
// replaced field-for-field except the sync state, which this service owns.
func (r *OrderRepo) Upsert(ctx context.Context, order *orders.Order) error {
	items, err := marshalJSON(order.Items)
	if err != nil {
		return err
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now().UTC()
	}

	sql := `INSERT INTO orders (id, order_number, customer_id, customer_name, email, payment_status, items, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			customer_id = EXCLUDED.customer_id,
			customer_name = EXCLUDED.customer_name,
			email = EXCLUDED.email,
			payment_status = EXCLUDED.payment_status,
			items = EXCLUDED.items`

	querier := r.tm.GetQuerier(ctx)
	_, err = querier.Exec(ctx, sql,
		order.ID, order.OrderNumber,
		order.CustomerID, order.CustomerName, order.Email,
		order.PaymentStatus, items, order.CreatedAt,
	)
	if err != nil {
		return apperror.NewDatabase("upsert order", err)
	}
	return nil
}

func scanOrder(row pgx.Row) (*orders.Order, error) {
	var (
		order    orders.Order
		rawItems []byte
		rawSync  []byte
	)
	err := row.Scan(
		&order.ID, &order.OrderNumber,
		&order.CustomerID, &order.CustomerName, &order.Email,
		&order.PaymentStatus, &rawItems, &rawSync, &order.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := unmarshalJSON(rawItems, &order.Items); err != nil {
		return nil, err
	}
	if len(rawSync) > 0 {
		order.Sync = &orders.SyncState{}
		if err := unmarshalJSON(rawSync, order.Sync); err != nil {
			return nil, err
		}
	}
	return &order, nil
}
