package storage

import (
	"context"
	"fmt"

	"contas/internal/core"
)

// SyncRow carries what the export worker needs to append one ledger row.
type SyncRow struct {
	core.Transaction
	Version int64
}

const (
	SyncPending = "pending"
	SyncSynced  = "synced"
	SyncError   = "error"
)

// GetSyncRow loads one transaction with its version, across homes. The
// worker consumes ids from the queue and is not scoped to a household.
func (q *Queries) GetSyncRow(ctx context.Context, id int64) (SyncRow, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT `+transactionColumns+`, t.version
		FROM transactions t
		WHERE t.id = ?`, id)

	var sr SyncRow
	t, err := scanTransactionWithTotal(row, &sr.Version)
	if err != nil {
		return SyncRow{}, mapNotFound(err)
	}
	sr.Transaction = t
	return sr, nil
}

// ListPendingSync returns up to limit transactions still waiting for
// export, oldest first.
func (q *Queries) ListPendingSync(ctx context.Context, limit int) ([]SyncRow, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+transactionColumns+`, t.version
		FROM transactions t
		WHERE t.sync_status = 'pending'
		ORDER BY t.updated_at, t.id
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending sync: %w", err)
	}
	defer rows.Close()

	var out []SyncRow
	for rows.Next() {
		var sr SyncRow
		t, err := scanTransactionWithTotal(rows, &sr.Version)
		if err != nil {
			return nil, fmt.Errorf("scan pending sync: %w", err)
		}
		sr.Transaction = t
		out = append(out, sr)
	}
	return out, rows.Err()
}

// MarkSynced records a successful export, but only if no newer edit bumped
// the version while the row was in flight.
func (q *Queries) MarkSynced(ctx context.Context, id, version int64) error {
	_, err := q.db.ExecContext(ctx, `
		UPDATE transactions SET sync_status = 'synced'
		WHERE id = ? AND version = ?`, id, version)
	if err != nil {
		return fmt.Errorf("mark synced: %w", err)
	}
	return nil
}

func (q *Queries) MarkSyncError(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `
		UPDATE transactions SET sync_status = 'error' WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark sync error: %w", err)
	}
	return nil
}
