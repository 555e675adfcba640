package storage

import (
	"context"
	"fmt"

	"contas/internal/core"
)

// Period is a half-open [Start, End) date interval in YYYY-MM-DD form.
// The zero Period is unbounded.
type Period struct {
	Start string
	End   string
}

// PeriodOf builds the period covering one calendar month, a whole year
// when month is zero, or all time when year is zero.
func PeriodOf(year, month int) Period {
	if year == 0 {
		return Period{}
	}
	if month == 0 {
		return Period{
			Start: fmt.Sprintf("%04d-01-01", year),
			End:   fmt.Sprintf("%04d-01-01", year+1),
		}
	}
	start, end, _ := monthRange(year, month)
	return Period{Start: start, End: end}
}

// where appends date-bound conditions on the given column.
func (p Period) where(col string, args []any) (string, []any) {
	var cond string
	if p.Start != "" {
		cond += ` AND ` + col + ` >= ?`
		args = append(args, p.Start)
	}
	if p.End != "" {
		cond += ` AND ` + col + ` < ?`
		args = append(args, p.End)
	}
	return cond, args
}

// CountInPeriod counts the home's transactions dated in the period. The
// monthly overview reports "no data" when this is zero.
func (h *HomeQueries) CountInPeriod(ctx context.Context, p Period) (int64, error) {
	cond, args := p.where("t.tx_date", []any{h.homeID})
	var n int64
	err := h.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM transactions t WHERE t.home_id = ?`+cond, args...).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count transactions in period: %w", err)
	}
	return n, nil
}

// SumIncome totals ENTRADA transactions dated in the period.
func (h *HomeQueries) SumIncome(ctx context.Context, p Period) (int64, error) {
	cond, args := p.where("t.tx_date", []any{h.homeID})
	var total int64
	err := h.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(t.amount_cents), 0)
		FROM transactions t
		WHERE t.home_id = ? AND t.type = 'ENTRADA'`+cond, args...).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum income: %w", err)
	}
	return total, nil
}

// SumPaymentsInPeriod totals expense payments whose payment date falls in
// the period, regardless of when the underlying bill is dated. This is the
// cash actually spent in the month.
func (h *HomeQueries) SumPaymentsInPeriod(ctx context.Context, p Period) (int64, error) {
	cond, args := p.where("p.pay_date", []any{h.homeID})
	var total int64
	err := h.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(p.amount_cents), 0)
		FROM payments p
		JOIN transactions t ON t.id = p.transaction_id
		WHERE t.home_id = ? AND t.type = 'SAIDA'`+cond, args...).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum payments in period: %w", err)
	}
	return total, nil
}

// SumTransferred totals SAIDA transactions in the period that were moved
// whole to the next month.
func (h *HomeQueries) SumTransferred(ctx context.Context, p Period) (int64, error) {
	cond, args := p.where("t.tx_date", []any{h.homeID})
	var total int64
	err := h.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(t.amount_cents), 0)
		FROM transactions t
		WHERE t.home_id = ? AND t.type = 'SAIDA' AND t.status = 'TRANSFERIDO'`+cond, args...).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum transferred: %w", err)
	}
	return total, nil
}

// ForecastRows returns the period's non-transferred expenses with their
// payment sums. The caller derives each outstanding balance from these.
func (h *HomeQueries) ForecastRows(ctx context.Context, p Period) ([]TransactionRow, error) {
	cond, args := p.where("t.tx_date", []any{h.homeID})
	rows, err := h.db.QueryContext(ctx, `
		SELECT `+transactionColumns+`, COALESCE(SUM(p.amount_cents), 0)
		FROM transactions t
		LEFT JOIN payments p ON p.transaction_id = t.id
		WHERE t.home_id = ? AND t.type = 'SAIDA' AND t.status != 'TRANSFERIDO'`+cond+`
		GROUP BY t.id
		ORDER BY t.tx_date, t.id`, args...)
	if err != nil {
		return nil, fmt.Errorf("forecast rows: %w", err)
	}
	defer rows.Close()
	return collectTransactionRows(rows)
}

// CategorySums groups the period's transactions of one type by category,
// largest first. Transferred expenses are excluded so a moved bill does not
// inflate the month it left.
func (h *HomeQueries) CategorySums(ctx context.Context, txType core.TransactionType, p Period) ([]core.CategoryTotal, error) {
	cond, args := p.where("t.tx_date", []any{h.homeID, txType})
	rows, err := h.db.QueryContext(ctx, `
		SELECT t.category, SUM(t.amount_cents)
		FROM transactions t
		WHERE t.home_id = ? AND t.type = ? AND t.status != 'TRANSFERIDO'`+cond+`
		GROUP BY t.category
		ORDER BY SUM(t.amount_cents) DESC, t.category`, args...)
	if err != nil {
		return nil, fmt.Errorf("category sums: %w", err)
	}
	defer rows.Close()

	var out []core.CategoryTotal
	for rows.Next() {
		var ct core.CategoryTotal
		if err := rows.Scan(&ct.Name, &ct.Total.Cents); err != nil {
			return nil, fmt.Errorf("scan category sum: %w", err)
		}
		out = append(out, ct)
	}
	return out, rows.Err()
}

// CategoryTransactions lists the period's non-transferred expenses of one
// category, newest first, with payment sums.
func (h *HomeQueries) CategoryTransactions(ctx context.Context, category string, p Period) ([]TransactionRow, error) {
	cond, args := p.where("t.tx_date", []any{h.homeID, category})
	rows, err := h.db.QueryContext(ctx, `
		SELECT `+transactionColumns+`, COALESCE(SUM(p.amount_cents), 0)
		FROM transactions t
		LEFT JOIN payments p ON p.transaction_id = t.id
		WHERE t.home_id = ? AND t.type = 'SAIDA' AND t.category = ? AND t.status != 'TRANSFERIDO'`+cond+`
		GROUP BY t.id
		ORDER BY t.tx_date DESC, t.id DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("category transactions: %w", err)
	}
	defer rows.Close()
	return collectTransactionRows(rows)
}

// PaymentEntryRow is a payment joined with its parent expense.
type PaymentEntryRow struct {
	PaymentID     int64
	AmountCents   int64
	PayDate       string
	TransactionID int64
	Description   string
	TotalCents    int64
	Category      string
	TxDate        string
}

// PaymentsInPeriod lists expense payments dated in the period, most recent
// first.
func (h *HomeQueries) PaymentsInPeriod(ctx context.Context, p Period) ([]PaymentEntryRow, error) {
	cond, args := p.where("p.pay_date", []any{h.homeID})
	rows, err := h.db.QueryContext(ctx, `
		SELECT p.id, p.amount_cents, p.pay_date, t.id, t.description, t.amount_cents, t.category, t.tx_date
		FROM payments p
		JOIN transactions t ON t.id = p.transaction_id
		WHERE t.home_id = ? AND t.type = 'SAIDA'`+cond+`
		ORDER BY p.pay_date DESC, p.id DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("payments in period: %w", err)
	}
	defer rows.Close()

	var out []PaymentEntryRow
	for rows.Next() {
		var r PaymentEntryRow
		if err := rows.Scan(&r.PaymentID, &r.AmountCents, &r.PayDate, &r.TransactionID,
			&r.Description, &r.TotalCents, &r.Category, &r.TxDate); err != nil {
			return nil, fmt.Errorf("scan payment entry: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ItemCategorySums groups the period's line items by item category.
// Uncategorized items are reported under an empty name.
func (h *HomeQueries) ItemCategorySums(ctx context.Context, p Period) ([]core.CategoryTotal, error) {
	cond, args := p.where("t.tx_date", []any{h.homeID})
	rows, err := h.db.QueryContext(ctx, `
		SELECT COALESCE(ic.name, ''), SUM(i.total_cents)
		FROM transaction_items i
		JOIN transactions t ON t.id = i.transaction_id
		LEFT JOIN item_categories ic ON ic.id = i.item_category_id
		WHERE t.home_id = ?`+cond+`
		GROUP BY COALESCE(ic.name, '')
		ORDER BY SUM(i.total_cents) DESC, COALESCE(ic.name, '')`, args...)
	if err != nil {
		return nil, fmt.Errorf("item category sums: %w", err)
	}
	defer rows.Close()

	var out []core.CategoryTotal
	for rows.Next() {
		var ct core.CategoryTotal
		if err := rows.Scan(&ct.Name, &ct.Total.Cents); err != nil {
			return nil, fmt.Errorf("scan item category sum: %w", err)
		}
		out = append(out, ct)
	}
	return out, rows.Err()
}

// ItemTotals groups the period's line items by description, summing
// quantities and spend. Rows keep first-seen order (MIN(i.id)) so that the
// caller's top-N sort breaks ties by earliest appearance.
func (h *HomeQueries) ItemTotals(ctx context.Context, p Period) ([]core.ItemTotal, error) {
	cond, args := p.where("t.tx_date", []any{h.homeID})
	rows, err := h.db.QueryContext(ctx, `
		SELECT i.description, COALESCE(SUM(i.quantity), 0), SUM(i.total_cents), COUNT(*)
		FROM transaction_items i
		JOIN transactions t ON t.id = i.transaction_id
		WHERE t.home_id = ?`+cond+`
		GROUP BY i.description
		ORDER BY MIN(i.id)`, args...)
	if err != nil {
		return nil, fmt.Errorf("item totals: %w", err)
	}
	defer rows.Close()

	var out []core.ItemTotal
	for rows.Next() {
		var it core.ItemTotal
		var occurrences int64
		if err := rows.Scan(&it.Description, &it.Quantity, &it.Total.Cents, &occurrences); err != nil {
			return nil, fmt.Errorf("scan item total: %w", err)
		}
		it.Occurrences = int(occurrences)
		out = append(out, it)
	}
	return out, rows.Err()
}

// PriorBalance accumulates income minus expense payments strictly before
// the given date. It seeds the running balance of the monthly overview.
func (h *HomeQueries) PriorBalance(ctx context.Context, before string) (int64, error) {
	var income int64
	err := h.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(t.amount_cents), 0)
		FROM transactions t
		WHERE t.home_id = ? AND t.type = 'ENTRADA' AND t.tx_date < ?`, h.homeID, before).Scan(&income)
	if err != nil {
		return 0, fmt.Errorf("prior income: %w", err)
	}

	var paid int64
	err = h.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(p.amount_cents), 0)
		FROM payments p
		JOIN transactions t ON t.id = p.transaction_id
		WHERE t.home_id = ? AND t.type = 'SAIDA' AND p.pay_date < ?`, h.homeID, before).Scan(&paid)
	if err != nil {
		return 0, fmt.Errorf("prior payments: %w", err)
	}
	return income - paid, nil
}

func collectTransactionRows(rows interface {
	Next() bool
	Scan(...any) error
	Err() error
}) ([]TransactionRow, error) {
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
