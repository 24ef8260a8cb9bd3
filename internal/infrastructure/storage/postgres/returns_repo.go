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
	"rimshield/internal/domain/returns"
)

const returnRequestsTable = "return_requests"

// Compile-time check.
var _ returns.Repository = (*ReturnRepo)(nil)

// ReturnRepo implements returns.Repository.
type ReturnRepo struct {
	repoBase
}

// NewReturnRepo creates a new return request repository.
func NewReturnRepo(tm *TxManager) *ReturnRepo {
	return &ReturnRepo{repoBase: newRepoBase(tm)}
}

var returnColumns = []string{
	"id", "rma_number", "status",
	"order_id", "order_number",
	"customer_id", "customer_name", "email",
	"items", "credit_id", "credit_number",
	"created_at", "updated_at",
}

func (r *ReturnRepo) Create(ctx context.Context, rma *returns.ReturnRequest) error {
	items, err := marshalJSON(rma.Items)
	if err != nil {
		return err
	}

	q := r.Builder().
		Insert(returnRequestsTable).
		Columns(returnColumns...).
		Values(
			rma.ID, rma.RMANumber, rma.Status,
			rma.OrderID, rma.OrderNumber,
			rma.CustomerID, rma.CustomerName, rma.Email,
			items, rma.CreditID, rma.CreditNumber,
			rma.CreatedAt, rma.UpdatedAt,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.tm.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return apperror.NewDatabase("create return request", err)
	}
	return nil
}

func (r *ReturnRepo) GetByID(ctx context.Context, rmaID id.ID) (*returns.ReturnRequest, error) {
	q := r.Builder().
		Select(returnColumns...).
		From(returnRequestsTable).
		Where(squirrel.Eq{"id": rmaID})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	querier := r.tm.GetQuerier(ctx)
	rma, err := scanReturn(querier.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFound("return request", rmaID.String())
		}
		return nil, apperror.NewDatabase("get return request", err)
	}
	return rma, nil
}

func (r *ReturnRepo) List(ctx context.Context) ([]*returns.ReturnRequest, error) {
	q := r.Builder().
		Select(returnColumns...).
		From(returnRequestsTable).
		OrderBy("created_at DESC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	querier := r.tm.GetQuerier(ctx)
	rows, err := querier.Query(ctx, sql, args...)
	if err != nil {
		return nil, apperror.NewDatabase("list return requests", err)
	}
	defer rows.Close()

	var result []*returns.ReturnRequest
	for rows.Next() {
		rma, err := scanReturn(rows)
		if err != nil {
			return nil, apperror.NewDatabase("scan return request", err)
		}
		result = append(result, rma)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDatabase("list return requests", err)
	}
	return result, nil
}

// UpdateConditional writes the RMA only if its stored status still equals
// expected. A zero-row update means the RMA advanced concurrently (or
// disappeared), and the caller's transition must not be applied.
func (r *ReturnRepo) UpdateConditional(ctx context.Context, rma *returns.ReturnRequest, expected returns.Status) error {
	items, err := marshalJSON(rma.Items)
	if err != nil {
		return err
	}
	rma.UpdatedAt = time.Now().UTC()

	q := r.Builder().
		Update(returnRequestsTable).
		Set("status", rma.Status).
		Set("items", items).
		Set("credit_id", rma.CreditID).
		Set("credit_number", rma.CreditNumber).
		Set("updated_at", rma.UpdatedAt).
		Where(squirrel.Eq{"id": rma.ID, "status": expected})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	querier := r.tm.GetQuerier(ctx)
	tag, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return apperror.NewDatabase("update return request", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewConcurrentModification("return request", rma.ID.String()).
			WithDetail("expected_status", string(expected))
	}
	return nil
}

// scanReturn reads one RMA row. Works with both pgx.Row and pgx.Rows.
func scanReturn(row pgx.Row) (*returns.ReturnRequest, error) {
	var (
		rma      returns.ReturnRequest
		rawItems []byte
	)
	err := row.Scan(
		&rma.ID, &rma.RMANumber, &rma.Status,
		&rma.OrderID, &rma.OrderNumber,
		&rma.CustomerID, &rma.CustomerName, &rma.Email,
		&rawItems, &rma.CreditID, &rma.CreditNumber,
		&rma.CreatedAt, &rma.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := unmarshalJSON(rawItems, &rma.Items); err != nil {
		return nil, err
	}
	return &rma, nil
}
