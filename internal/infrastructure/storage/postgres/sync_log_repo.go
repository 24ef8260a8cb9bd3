package postgres

import (
	"context"
	"fmt"

	"rimshield/internal/core/apperror"
	"rimshield/internal/domain/accounting"
)

const syncLogTable = "accounting_sync_log"

var _ accounting.SyncLogRepository = (*SyncLogRepo)(nil)

// SyncLogRepo implements accounting.SyncLogRepository. The log is
// append-only: one row per sync attempt, success or error.
type SyncLogRepo struct {
	repoBase
}

// NewSyncLogRepo creates a new sync audit log repository.
func NewSyncLogRepo(tm *TxManager) *SyncLogRepo {
	return &SyncLogRepo{repoBase: newRepoBase(tm)}
}

func (r *SyncLogRepo) Append(ctx context.Context, entry *accounting.SyncLogEntry) error {
	q := r.Builder().
		Insert(syncLogTable).
		Columns("id", "source_type", "source_id", "status", "mutatie_ids", "message", "created_at").
		Values(entry.ID, entry.SourceType, entry.SourceID, entry.Status, entry.MutatieIDs, entry.Message, entry.CreatedAt)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.tm.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return apperror.NewDatabase("append sync log", err)
	}
	return nil
}
