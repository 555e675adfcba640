package core

// CategoryTotal is an amount aggregated by category name.
type CategoryTotal struct {
	Name  string
	Total Money
}

// MonthSummary is the financial overview of one household for one period.
// A period with no transactions yields no summary at all ("no data"), which
// callers must distinguish from an all-zero summary.
type MonthSummary struct {
	Year  int
	Month int // 1-12, 0 when the summary spans all periods

	Income       Money // ENTRADA dated in the period
	ExpensesPaid Money // payments dated in the period, whatever the bill's month
	Forecast     Money // outstanding balance of non-transferred SAIDA in the period
	Transferred  Money // SAIDA moved to the next month
	PriorBalance Money // income minus payments accumulated before the period
	Balance      Money // PriorBalance + Income - ExpensesPaid
}

// ForecastEntry details one expense still carrying an outstanding balance.
type ForecastEntry struct {
	TransactionID int64
	Description   string
	Category      string
	Date          Date
	Amount        Money
	TotalPaid     Money
	Remaining     Money
	Status        Status
}

// PaymentEntry is a payment joined with its parent transaction, as shown in
// the payments-of-the-month report.
type PaymentEntry struct {
	PaymentID    int64
	Amount       Money
	Date         Date
	Transaction  int64
	Description  string
	TotalAmount  Money
	Category     string
	OriginalDate Date
}

// ItemTotal aggregates line items sharing a description.
type ItemTotal struct {
	Description string
	Quantity    float64
	Total       Money
	Occurrences int
}
