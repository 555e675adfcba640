package storage

import (
	"context"
	"fmt"

	"contas/internal/core"
)

// InsertTransaction stores a new transaction and returns its id. Status,
// paid, paid_on and origin_id are taken from the value; sync bookkeeping
// starts at pending/version 1 via column defaults.
func (h *HomeQueries) InsertTransaction(ctx context.Context, t core.Transaction) (int64, error) {
	res, err := h.db.ExecContext(ctx, `
		INSERT INTO transactions (home_id, description, amount_cents, type, category, tx_date, status, paid, paid_on, origin_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		h.homeID, t.Description, t.Amount.Cents, t.Type, t.Category, t.Date.String(),
		t.Status, t.Paid, nullDate(t.PaidOn), nullInt64(t.OriginID))
	if err != nil {
		return 0, fmt.Errorf("insert transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert transaction id: %w", err)
	}
	return id, nil
}

func (h *HomeQueries) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	row := h.db.QueryRowContext(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions t
		WHERE t.id = ? AND t.home_id = ?`, id, h.homeID)
	t, err := scanTransaction(row)
	if err != nil {
		return core.Transaction{}, mapNotFound(err)
	}
	return t, nil
}

// UpdateTransaction rewrites the user-editable fields and bumps the sync
// version so the export worker picks the row up again.
func (h *HomeQueries) UpdateTransaction(ctx context.Context, t core.Transaction) error {
	res, err := h.db.ExecContext(ctx, `
		UPDATE transactions
		SET description = ?, amount_cents = ?, type = ?, category = ?, tx_date = ?,
		    sync_status = 'pending', version = version + 1, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND home_id = ?`,
		t.Description, t.Amount.Cents, t.Type, t.Category, t.Date.String(), t.ID, h.homeID)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	return requireRow(res)
}

// SetSettlement updates the derived payment state of a transaction.
func (h *HomeQueries) SetSettlement(ctx context.Context, id int64, status core.Status, paid bool, paidOn *core.Date) error {
	res, err := h.db.ExecContext(ctx, `
		UPDATE transactions
		SET status = ?, paid = ?, paid_on = ?,
		    sync_status = 'pending', version = version + 1, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND home_id = ?`,
		status, paid, nullDate(paidOn), id, h.homeID)
	if err != nil {
		return fmt.Errorf("set settlement: %w", err)
	}
	return requireRow(res)
}

func (h *HomeQueries) DeleteTransaction(ctx context.Context, id int64) error {
	res, err := h.db.ExecContext(ctx, `
		DELETE FROM transactions WHERE id = ? AND home_id = ?`, id, h.homeID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return requireRow(res)
}

// TransactionFilter narrows ListTransactions. Zero Year means all periods;
// zero Month within a year means the whole year.
type TransactionFilter struct {
	Year  int
	Month int
	Page  int
	Limit int
}

// TransactionRow is a transaction plus its payment sum, enough for list
// views to show the outstanding balance without a second query per row.
type TransactionRow struct {
	core.Transaction
	TotalPaid core.Money
}

func (f TransactionFilter) dateRange() (start, end string, bounded bool) {
	if f.Year == 0 {
		return "", "", false
	}
	if f.Month == 0 {
		return fmt.Sprintf("%04d-01-01", f.Year), fmt.Sprintf("%04d-01-01", f.Year+1), true
	}
	return monthRange(f.Year, f.Month)
}

// monthRange returns the half-open [start, end) interval covering one
// calendar month, in the stored YYYY-MM-DD format.
func monthRange(year, month int) (start, end string, bounded bool) {
	start = fmt.Sprintf("%04d-%02d-01", year, month)
	next := core.NextMonthStart(core.NewDate(year, month, 1))
	return start, next.String(), true
}

func (h *HomeQueries) ListTransactions(ctx context.Context, f TransactionFilter) ([]TransactionRow, error) {
	query := `
		SELECT ` + transactionColumns + `, COALESCE(SUM(p.amount_cents), 0)
		FROM transactions t
		LEFT JOIN payments p ON p.transaction_id = t.id
		WHERE t.home_id = ?`
	args := []any{h.homeID}

	if start, end, ok := f.dateRange(); ok {
		query += ` AND t.tx_date >= ? AND t.tx_date < ?`
		args = append(args, start, end)
	}
	query += `
		GROUP BY t.id
		ORDER BY t.tx_date DESC, t.id DESC`
	if f.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, f.Limit, (f.Page-1)*f.Limit)
	}

	rows, err := h.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []TransactionRow
	for rows.Next() {
		var totalPaid int64
		t, err := scanTransactionWithTotal(rows, &totalPaid)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, TransactionRow{Transaction: t, TotalPaid: core.Money{Cents: totalPaid}})
	}
	return out, rows.Err()
}

func (h *HomeQueries) CountTransactions(ctx context.Context, f TransactionFilter) (int64, error) {
	query := `SELECT COUNT(*) FROM transactions t WHERE t.home_id = ?`
	args := []any{h.homeID}
	if start, end, ok := f.dateRange(); ok {
		query += ` AND t.tx_date >= ? AND t.tx_date < ?`
		args = append(args, start, end)
	}

	var n int64
	if err := h.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}
	return n, nil
}

func scanTransactionWithTotal(row rowScanner, totalPaid *int64) (core.Transaction, error) {
	return scanTransaction(&totalScanner{row: row, totalPaid: totalPaid})
}

// totalScanner appends the payment-sum column to scanTransaction's targets.
type totalScanner struct {
	row       rowScanner
	totalPaid *int64
}

func (s *totalScanner) Scan(dest ...any) error {
	return s.row.Scan(append(dest, s.totalPaid)...)
}

func requireRow(res interface{ RowsAffected() (int64, error) }) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}
