package services

import (
	"context"
	"fmt"
	"sort"

	"contas/internal/core"
	"contas/internal/storage"
)

// ReportService builds the per-period views over a household's ledger.
// All reads run against the live tables; the HTTP layer caches responses.
type ReportService struct {
	storage *storage.SQLiteRepository
}

func NewReportService(st *storage.SQLiteRepository) *ReportService {
	return &ReportService{storage: st}
}

const DefaultTopItems = 10

// MonthlySummary computes the household's financial overview for one
// month. It returns nil when the period has no transactions at all, which
// is different from a month that nets out to zero.
func (s *ReportService) MonthlySummary(ctx context.Context, homeID int64, year, month int) (*core.MonthSummary, error) {
	home := s.storage.Queries().Home(homeID)
	period := storage.PeriodOf(year, month)

	n, err := home.CountInPeriod(ctx, period)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}

	income, err := home.SumIncome(ctx, period)
	if err != nil {
		return nil, err
	}
	paid, err := home.SumPaymentsInPeriod(ctx, period)
	if err != nil {
		return nil, err
	}
	transferred, err := home.SumTransferred(ctx, period)
	if err != nil {
		return nil, err
	}

	forecastRows, err := home.ForecastRows(ctx, period)
	if err != nil {
		return nil, err
	}
	var forecast int64
	for _, r := range forecastRows {
		forecast += core.Remaining(r.Amount.Cents, r.TotalPaid.Cents)
	}

	var prior int64
	if period.Start != "" {
		prior, err = home.PriorBalance(ctx, period.Start)
		if err != nil {
			return nil, err
		}
	}

	return &core.MonthSummary{
		Year:         year,
		Month:        month,
		Income:       core.Money{Cents: income},
		ExpensesPaid: core.Money{Cents: paid},
		Forecast:     core.Money{Cents: forecast},
		Transferred:  core.Money{Cents: transferred},
		PriorBalance: core.Money{Cents: prior},
		Balance:      core.Money{Cents: prior + income - paid},
	}, nil
}

// ForecastDetails lists the period's expenses still carrying a balance,
// one entry per open expense.
func (s *ReportService) ForecastDetails(ctx context.Context, homeID int64, year, month int) ([]core.ForecastEntry, error) {
	home := s.storage.Queries().Home(homeID)
	rows, err := home.ForecastRows(ctx, storage.PeriodOf(year, month))
	if err != nil {
		return nil, err
	}

	var out []core.ForecastEntry
	for _, r := range rows {
		remaining := core.Remaining(r.Amount.Cents, r.TotalPaid.Cents)
		if remaining == 0 {
			continue
		}
		out = append(out, core.ForecastEntry{
			TransactionID: r.ID,
			Description:   r.Description,
			Category:      r.Category,
			Date:          r.Date,
			Amount:        r.Amount,
			TotalPaid:     r.TotalPaid,
			Remaining:     core.Money{Cents: remaining},
			Status:        r.Status,
		})
	}
	return out, nil
}

// ByCategory aggregates the period's transactions of one type by category,
// largest total first.
func (s *ReportService) ByCategory(ctx context.Context, homeID int64, txType core.TransactionType, year, month int) ([]core.CategoryTotal, error) {
	if !txType.Valid() {
		return nil, fmt.Errorf("%w: %w", core.ErrValidation, core.ErrInvalidTxType)
	}
	home := s.storage.Queries().Home(homeID)
	return home.CategorySums(ctx, txType, storage.PeriodOf(year, month))
}

// CategoryTransactions drills into one category of the period's expenses.
func (s *ReportService) CategoryTransactions(ctx context.Context, homeID int64, category string, year, month int) ([]storage.TransactionRow, error) {
	if category == "" {
		return nil, fmt.Errorf("%w: %w", core.ErrValidation, core.ErrEmptyCategory)
	}
	home := s.storage.Queries().Home(homeID)
	return home.CategoryTransactions(ctx, category, storage.PeriodOf(year, month))
}

// PaymentsByMonth lists the period's expense payments joined with their
// bills, most recent first.
func (s *ReportService) PaymentsByMonth(ctx context.Context, homeID int64, year, month int) ([]core.PaymentEntry, error) {
	home := s.storage.Queries().Home(homeID)
	rows, err := home.PaymentsInPeriod(ctx, storage.PeriodOf(year, month))
	if err != nil {
		return nil, err
	}

	out := make([]core.PaymentEntry, 0, len(rows))
	for _, r := range rows {
		payDate, err := core.ParseDate(r.PayDate)
		if err != nil {
			return nil, err
		}
		txDate, err := core.ParseDate(r.TxDate)
		if err != nil {
			return nil, err
		}
		out = append(out, core.PaymentEntry{
			PaymentID:    r.PaymentID,
			Amount:       core.Money{Cents: r.AmountCents},
			Date:         payDate,
			Transaction:  r.TransactionID,
			Description:  r.Description,
			TotalAmount:  core.Money{Cents: r.TotalCents},
			Category:     r.Category,
			OriginalDate: txDate,
		})
	}
	return out, nil
}

// ByItemCategory aggregates the period's line items by item category.
func (s *ReportService) ByItemCategory(ctx context.Context, homeID int64, year, month int) ([]core.CategoryTotal, error) {
	home := s.storage.Queries().Home(homeID)
	return home.ItemCategorySums(ctx, storage.PeriodOf(year, month))
}

// TopItemsByQuantity ranks the period's line items by total quantity
// bought. Ties keep first-purchase order.
func (s *ReportService) TopItemsByQuantity(ctx context.Context, homeID int64, year, month, limit int) ([]core.ItemTotal, error) {
	return s.topItems(ctx, homeID, year, month, limit, func(a, b core.ItemTotal) bool {
		return a.Quantity > b.Quantity
	})
}

// TopItemsByValue ranks the period's line items by total spend. Ties keep
// first-purchase order.
func (s *ReportService) TopItemsByValue(ctx context.Context, homeID int64, year, month, limit int) ([]core.ItemTotal, error) {
	return s.topItems(ctx, homeID, year, month, limit, func(a, b core.ItemTotal) bool {
		return a.Total.Cents > b.Total.Cents
	})
}

func (s *ReportService) topItems(ctx context.Context, homeID int64, year, month, limit int, less func(a, b core.ItemTotal) bool) ([]core.ItemTotal, error) {
	home := s.storage.Queries().Home(homeID)
	items, err := home.ItemTotals(ctx, storage.PeriodOf(year, month))
	if err != nil {
		return nil, err
	}

	sort.SliceStable(items, func(i, j int) bool { return less(items[i], items[j]) })

	if limit <= 0 {
		limit = DefaultTopItems
	}
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}
