package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"contas/internal/amqp"
	"contas/internal/core"
	"contas/internal/sheets"
	"contas/internal/storage"
)

// SyncWorker exports ledger changes from SQLite to the backup spreadsheet.
// It is driven by AMQP messages, with a periodic sweep over rows still
// marked pending as a safety net for lost messages.
type SyncWorker struct {
	storage   *storage.SQLiteRepository
	ledger    sheets.LedgerWriter
	batchSize int
}

func NewSyncWorker(st *storage.SQLiteRepository, ledger sheets.LedgerWriter, batchSize int) *SyncWorker {
	return &SyncWorker{
		storage:   st,
		ledger:    ledger,
		batchSize: batchSize,
	}
}

// HandleSyncMessage exports one transaction. The row is reloaded from
// SQLite; a message older than the stored version is dropped because a
// newer export is already queued behind it.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.TransactionSyncMessage) error {
	row, err := w.storage.Queries().GetSyncRow(ctx, msg.ID)
	if errors.Is(err, core.ErrNotFound) {
		slog.WarnContext(ctx, "Transaction gone before export, dropping message", "id", msg.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("load transaction: %w", err)
	}

	if msg.Version < row.Version {
		slog.InfoContext(ctx, "Skipping stale sync message",
			"id", msg.ID,
			"message_version", msg.Version,
			"current_version", row.Version)
		return nil
	}

	return w.export(ctx, row)
}

// HandleDeleteMessage appends a reversal row for a removed transaction.
func (w *SyncWorker) HandleDeleteMessage(ctx context.Context, msg *amqp.TransactionDeleteMessage) error {
	ref, err := w.ledger.AppendReversal(ctx, msg.ID)
	if err != nil {
		return fmt.Errorf("append reversal: %w", err)
	}

	slog.InfoContext(ctx, "Recorded transaction reversal", "id", msg.ID, "sheets_ref", ref)
	return nil
}

// ProcessPending sweeps transactions still marked pending and exports
// them. This recovers rows whose messages never arrived.
func (w *SyncWorker) ProcessPending(ctx context.Context) error {
	return w.processPending(ctx, w.batchSize)
}

// StartupSyncCheck runs a larger sweep once at worker start, catching up
// on anything missed while the worker was down.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	return w.processPending(ctx, w.batchSize*5)
}

func (w *SyncWorker) processPending(ctx context.Context, limit int) error {
	pending, err := w.storage.Queries().ListPendingSync(ctx, limit)
	if err != nil {
		return fmt.Errorf("list pending transactions: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending transactions", "count", len(pending))

	synced, failed := 0, 0
	for _, row := range pending {
		if err := w.export(ctx, row); err != nil {
			slog.ErrorContext(ctx, "Failed to export transaction", "id", row.ID, "error", err)
			failed++
			continue
		}
		synced++
	}

	slog.InfoContext(ctx, "Pending sweep completed",
		"total", len(pending),
		"synced", synced,
		"errors", failed)
	return nil
}

func (w *SyncWorker) export(ctx context.Context, row storage.SyncRow) error {
	ref, err := w.ledger.AppendTransaction(ctx, row.Transaction, row.Version)
	if err != nil {
		if markErr := w.storage.Queries().MarkSyncError(ctx, row.ID); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error", "id", row.ID, "error", markErr)
		}
		return fmt.Errorf("append to sheets: %w", err)
	}

	// MarkSynced is version-guarded: an edit racing this export leaves the
	// row pending so the newer state is exported too.
	if err := w.storage.Queries().MarkSynced(ctx, row.ID, row.Version); err != nil {
		slog.ErrorContext(ctx, "Failed to mark as synced", "id", row.ID, "error", err)
	}

	slog.InfoContext(ctx, "Exported transaction",
		"id", row.ID,
		"version", row.Version,
		"sheets_ref", ref)
	return nil
}
