package sheets

import (
	"context"

	"contas/internal/core"
)

// Ports for outbound adapters.
type (
	// LedgerWriter appends ledger rows to the backup sheet.
	LedgerWriter interface {
		AppendTransaction(ctx context.Context, t core.Transaction, version int64) (rowRef string, err error)

		// AppendReversal records the removal of a transaction as a
		// compensating row, keeping the sheet append-only.
		AppendReversal(ctx context.Context, id int64) (rowRef string, err error)
	}
)
