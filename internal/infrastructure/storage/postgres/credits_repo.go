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
	"rimshield/internal/domain/credits"
)

const creditNotesTable = "credit_notes"

var _ credits.Repository = (*CreditRepo)(nil)

// CreditRepo implements credits.Repository.
type CreditRepo struct {
	repoBase
}

// NewCreditRepo creates a new credit note repository.
func NewCreditRepo(tm *TxManager) *CreditRepo {
	return &CreditRepo{repoBase: newRepoBase(tm)}
}

var creditColumns = []string{
	"id", "credit_number",
	"order_id", "order_number", "rma_id",
	"customer_name", "email",
	"items", "pdf_url", "sync",
	"created_at", "updated_at",
}

func (r *CreditRepo) Create(ctx context.Context, note *credits.CreditNote) error {
	items, err := marshalJSON(note.Items)
	if err != nil {
		return err
	}
	sync, err := marshalNullableJSON(note.Sync)
	if err != nil {
		return err
	}

	q := r.Builder().
		Insert(creditNotesTable).
		Columns(creditColumns...).
		Values(
			note.ID, note.CreditNumber,
			note.OrderID, note.OrderNumber, note.RMAID,
			note.CustomerName, note.Email,
			items, note.PDFURL, sync,
			note.CreatedAt, note.UpdatedAt,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.tm.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return apperror.NewDatabase("create credit note", err)
	}
	return nil
}

func (r *CreditRepo) GetByID(ctx context.Context, creditID id.ID) (*credits.CreditNote, error) {
	q := r.Builder().
		Select(creditColumns...).
		From(creditNotesTable).
		Where(squirrel.Eq{"id": creditID})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	querier := r.tm.GetQuerier(ctx)
	note, err := scanCredit(querier.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFound("credit note", creditID.String())
		}
		return nil, apperror.NewDatabase("get credit note", err)
	}
	return note, nil
}

func (r *CreditRepo) List(ctx context.Context) ([]*credits.CreditNote, error) {
	q := r.Builder().
		Select(creditColumns...).
		From(creditNotesTable).
		OrderBy("created_at DESC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	querier := r.tm.GetQuerier(ctx)
	rows, err := querier.Query(ctx, sql, args...)
	if err != nil {
		return nil, apperror.NewDatabase("list credit notes", err)
	}
	defer rows.Close()

	var result []*credits.CreditNote
	for rows.Next() {
		note, err := scanCredit(rows)
		if err != nil {
			return nil, apperror.NewDatabase("scan credit note", err)
		}
		result = append(result, note)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDatabase("list credit notes", err)
	}
	return result, nil
}

func (r *CreditRepo) UpdateSync(ctx context.Context, creditID id.ID, sync *credits.SyncState) error {
	raw, err := marshalNullableJSON(sync)
	if err != nil {
		return err
	}

	q := r.Builder().
		Update(creditNotesTable).
		Set("sync", raw).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"id": creditID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	querier := r.tm.GetQuerier(ctx)
	tag, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return apperror.NewDatabase("update credit note sync", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("credit note", creditID.String())
	}
	return nil
}

func scanCredit(row pgx.Row) (*credits.CreditNote, error) {
	var (
		note     credits.CreditNote
		rawItems []byte
		rawSync  []byte
	)
	err := row.Scan(
		&note.ID, &note.CreditNumber,
		&note.OrderID, &note.OrderNumber, &note.RMAID,
		&note.CustomerName, &note.Email,
		&rawItems, &note.PDFURL, &rawSync,
		&note.CreatedAt, &note.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := unmarshalJSON(rawItems, &note.Items); err != nil {
		return nil, err
	}
	if len(rawSync) > 0 {
		note.Sync = &credits.SyncState{}
		if err := unmarshalJSON(rawSync, note.Sync); err != nil {
			return nil, err
		}
	}
	return &note, nil
}
