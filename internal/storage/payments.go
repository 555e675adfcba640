package storage

import (
	"context"
	"database/sql"
	"fmt"

	"contas/internal/core"
)

func (h *HomeQueries) InsertPayment(ctx context.Context, p core.Payment) (int64, error) {
	res, err := h.db.ExecContext(ctx, `
		INSERT INTO payments (transaction_id, amount_cents, pay_date)
		SELECT ?, ?, ? FROM transactions WHERE id = ? AND home_id = ?`,
		p.TransactionID, p.Amount.Cents, p.Date.String(), p.TransactionID, h.homeID)
	if err != nil {
		return 0, fmt.Errorf("insert payment: %w", err)
	}
	if err := requireRow(res); err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert payment id: %w", err)
	}
	return id, nil
}

// GetPayment loads one payment, checking through the parent transaction
// that it belongs to this home.
func (h *HomeQueries) GetPayment(ctx context.Context, id int64) (core.Payment, error) {
	var (
		p       core.Payment
		payDate string
	)
	err := h.db.QueryRowContext(ctx, `
		SELECT p.id, p.transaction_id, p.amount_cents, p.pay_date
		FROM payments p
		JOIN transactions t ON t.id = p.transaction_id
		WHERE p.id = ? AND t.home_id = ?`, id, h.homeID).
		Scan(&p.ID, &p.TransactionID, &p.Amount.Cents, &payDate)
	if err != nil {
		return core.Payment{}, mapNotFound(err)
	}
	p.Date, err = core.ParseDate(payDate)
	if err != nil {
		return core.Payment{}, fmt.Errorf("payment %d has malformed date %q", p.ID, payDate)
	}
	return p, nil
}

func (h *HomeQueries) ListPayments(ctx context.Context, transactionID int64) ([]core.Payment, error) {
	rows, err := h.db.QueryContext(ctx, `
		SELECT p.id, p.transaction_id, p.amount_cents, p.pay_date
		FROM payments p
		JOIN transactions t ON t.id = p.transaction_id
		WHERE p.transaction_id = ? AND t.home_id = ?
		ORDER BY p.pay_date, p.id`, transactionID, h.homeID)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	var out []core.Payment
	for rows.Next() {
		var (
			p       core.Payment
			payDate string
		)
		if err := rows.Scan(&p.ID, &p.TransactionID, &p.Amount.Cents, &payDate); err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		p.Date, err = core.ParseDate(payDate)
		if err != nil {
			return nil, fmt.Errorf("payment %d has malformed date %q", p.ID, payDate)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (h *HomeQueries) DeletePayment(ctx context.Context, id int64) error {
	res, err := h.db.ExecContext(ctx, `
		DELETE FROM payments
		WHERE id = ? AND transaction_id IN (SELECT id FROM transactions WHERE home_id = ?)`,
		id, h.homeID)
	if err != nil {
		return fmt.Errorf("delete payment: %w", err)
	}
	return requireRow(res)
}

// SumPayments returns the total paid so far against one transaction.
func (h *HomeQueries) SumPayments(ctx context.Context, transactionID int64) (int64, error) {
	var total int64
	err := h.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(p.amount_cents), 0)
		FROM payments p
		JOIN transactions t ON t.id = p.transaction_id
		WHERE p.transaction_id = ? AND t.home_id = ?`, transactionID, h.homeID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum payments: %w", err)
	}
	return total, nil
}

func (h *HomeQueries) InsertLineItem(ctx context.Context, li core.LineItem) (int64, error) {
	res, err := h.db.ExecContext(ctx, `
		INSERT INTO transaction_items (transaction_id, description, quantity, unit_id, item_category_id, total_cents)
		SELECT ?, ?, ?, ?, ?, ? FROM transactions WHERE id = ? AND home_id = ?`,
		li.TransactionID, li.Description, li.Quantity, nullInt64(li.UnitID),
		nullInt64(li.ItemCategoryID), li.Total.Cents, li.TransactionID, h.homeID)
	if err != nil {
		return 0, fmt.Errorf("insert line item: %w", err)
	}
	if err := requireRow(res); err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert line item id: %w", err)
	}
	return id, nil
}

func (h *HomeQueries) ListLineItems(ctx context.Context, transactionID int64) ([]core.LineItem, error) {
	rows, err := h.db.QueryContext(ctx, `
		SELECT i.id, i.transaction_id, i.description, i.quantity, i.unit_id, i.item_category_id, i.total_cents
		FROM transaction_items i
		JOIN transactions t ON t.id = i.transaction_id
		WHERE i.transaction_id = ? AND t.home_id = ?
		ORDER BY i.id`, transactionID, h.homeID)
	if err != nil {
		return nil, fmt.Errorf("list line items: %w", err)
	}
	defer rows.Close()

	var out []core.LineItem
	for rows.Next() {
		li, err := scanLineItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, li)
	}
	return out, rows.Err()
}

func (h *HomeQueries) DeleteLineItems(ctx context.Context, transactionID int64) error {
	_, err := h.db.ExecContext(ctx, `
		DELETE FROM transaction_items
		WHERE transaction_id IN (SELECT id FROM transactions WHERE id = ? AND home_id = ?)`,
		transactionID, h.homeID)
	if err != nil {
		return fmt.Errorf("delete line items: %w", err)
	}
	return nil
}

func scanLineItem(row rowScanner) (core.LineItem, error) {
	var (
		li       core.LineItem
		quantity sql.NullFloat64
		unit     sql.NullInt64
		itemCat  sql.NullInt64
	)
	err := row.Scan(&li.ID, &li.TransactionID, &li.Description, &quantity, &unit, &itemCat, &li.Total.Cents)
	if err != nil {
		return core.LineItem{}, fmt.Errorf("scan line item: %w", err)
	}
	if quantity.Valid {
		li.Quantity = &quantity.Float64
	}
	if unit.Valid {
		li.UnitID = &unit.Int64
	}
	if itemCat.Valid {
		li.ItemCategoryID = &itemCat.Int64
	}
	return li, nil
}
