package storage

import (
	"context"
	"errors"
	"testing"

	"contas/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewMemoryRepository()
	if err != nil {
		t.Fatalf("open in-memory repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func mustHome(t *testing.T, q *Queries, name string) int64 {
	t.Helper()
	id, err := q.InsertHousehold(context.Background(), name)
	if err != nil {
		t.Fatalf("insert household: %v", err)
	}
	return id
}

func mustTransaction(t *testing.T, h *HomeQueries, tx core.Transaction) int64 {
	t.Helper()
	if tx.Status == "" {
		tx.Status = core.StatusPending
	}
	id, err := h.InsertTransaction(context.Background(), tx)
	if err != nil {
		t.Fatalf("insert transaction: %v", err)
	}
	return id
}

func expense(desc string, cents int64, date core.Date) core.Transaction {
	return core.Transaction{
		Description: desc,
		Amount:      core.Money{Cents: cents},
		Type:        core.Expense,
		Category:    "Mercado",
		Date:        date,
	}
}

func TestTransactionRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	home := repo.Queries().Home(mustHome(t, repo.Queries(), "Casa"))

	paidOn := core.NewDate(2025, 1, 20)
	in := core.Transaction{
		Description: "Aluguel",
		Amount:      core.Money{Cents: 180000},
		Type:        core.Expense,
		Category:    "Moradia",
		Date:        core.NewDate(2025, 1, 10),
		Status:      core.StatusPaid,
		Paid:        true,
		PaidOn:      &paidOn,
	}
	id, err := home.InsertTransaction(ctx, in)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	got, err := home.GetTransaction(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Description != in.Description || got.Amount != in.Amount || got.Type != in.Type {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if got.Status != core.StatusPaid || !got.Paid {
		t.Errorf("settlement fields lost: %+v", got)
	}
	if got.PaidOn == nil || got.PaidOn.String() != "2025-01-20" {
		t.Errorf("paid_on lost: %+v", got.PaidOn)
	}
	if got.Date.String() != "2025-01-10" {
		t.Errorf("date mismatch: %s", got.Date)
	}
}

func TestHomeScoping(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	q := repo.Queries()

	homeA := q.Home(mustHome(t, q, "Casa A"))
	homeB := q.Home(mustHome(t, q, "Casa B"))

	id := mustTransaction(t, homeA, expense("Feira", 5000, core.NewDate(2025, 2, 3)))

	if _, err := homeB.GetTransaction(ctx, id); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("foreign home read should report not found, got %v", err)
	}
	if err := homeB.DeleteTransaction(ctx, id); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("foreign home delete should report not found, got %v", err)
	}
	p := core.Payment{TransactionID: id, Amount: core.Money{Cents: 1000}, Date: core.NewDate(2025, 2, 4)}
	if _, err := homeB.InsertPayment(ctx, p); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("foreign home payment should report not found, got %v", err)
	}
	if _, err := homeA.GetTransaction(ctx, id); err != nil {
		t.Errorf("owner read failed: %v", err)
	}
}

func TestListTransactionsFilterAndTotals(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	home := repo.Queries().Home(mustHome(t, repo.Queries(), "Casa"))

	jan := mustTransaction(t, home, expense("Mercado jan", 10000, core.NewDate(2025, 1, 5)))
	mustTransaction(t, home, expense("Mercado fev", 20000, core.NewDate(2025, 2, 5)))

	if _, err := home.InsertPayment(ctx, core.Payment{
		TransactionID: jan, Amount: core.Money{Cents: 6000}, Date: core.NewDate(2025, 1, 6),
	}); err != nil {
		t.Fatalf("insert payment: %v", err)
	}

	rows, err := home.ListTransactions(ctx, TransactionFilter{Year: 2025, Month: 1})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row for january, got %d", len(rows))
	}
	if rows[0].ID != jan || rows[0].TotalPaid.Cents != 6000 {
		t.Errorf("unexpected row: %+v", rows[0])
	}

	n, err := home.CountTransactions(ctx, TransactionFilter{Year: 2025})
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 transactions in 2025, got %d", n)
	}
}

func TestCategoriesInUseAndDuplicates(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	home := repo.Queries().Home(mustHome(t, repo.Queries(), "Casa"))

	if _, err := home.InsertCategory(ctx, "Mercado", core.Expense); err != nil {
		t.Fatalf("insert category: %v", err)
	}
	if _, err := home.InsertCategory(ctx, "Mercado", core.Expense); !errors.Is(err, ErrDuplicate) {
		t.Errorf("duplicate category should fail, got %v", err)
	}
	// Same name under the other type is a distinct category.
	if _, err := home.InsertCategory(ctx, "Mercado", core.Income); err != nil {
		t.Errorf("same name with other type should be allowed: %v", err)
	}

	mustTransaction(t, home, expense("Feira", 4500, core.NewDate(2025, 3, 1)))

	cats, err := home.ListCategories(ctx, core.Expense)
	if err != nil {
		t.Fatalf("list categories: %v", err)
	}
	if len(cats) != 1 {
		t.Fatalf("expected 1 expense category, got %d", len(cats))
	}
	if !cats[0].InUse {
		t.Error("category referenced by a transaction should be in use")
	}
}

func TestPaymentsSumAndDelete(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	home := repo.Queries().Home(mustHome(t, repo.Queries(), "Casa"))

	id := mustTransaction(t, home, expense("Internet", 12000, core.NewDate(2025, 4, 1)))
	p1, err := home.InsertPayment(ctx, core.Payment{TransactionID: id, Amount: core.Money{Cents: 5000}, Date: core.NewDate(2025, 4, 2)})
	if err != nil {
		t.Fatalf("payment 1: %v", err)
	}
	if _, err := home.InsertPayment(ctx, core.Payment{TransactionID: id, Amount: core.Money{Cents: 3000}, Date: core.NewDate(2025, 4, 10)}); err != nil {
		t.Fatalf("payment 2: %v", err)
	}

	total, err := home.SumPayments(ctx, id)
	if err != nil {
		t.Fatalf("sum payments: %v", err)
	}
	if total != 8000 {
		t.Errorf("SumPayments = %d, want 8000", total)
	}

	if err := home.DeletePayment(ctx, p1); err != nil {
		t.Fatalf("delete payment: %v", err)
	}
	total, err = home.SumPayments(ctx, id)
	if err != nil {
		t.Fatalf("sum payments after delete: %v", err)
	}
	if total != 3000 {
		t.Errorf("SumPayments after delete = %d, want 3000", total)
	}
}

func TestDeleteTransactionCascades(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	home := repo.Queries().Home(mustHome(t, repo.Queries(), "Casa"))

	id := mustTransaction(t, home, expense("Compras", 9000, core.NewDate(2025, 5, 1)))
	if _, err := home.InsertPayment(ctx, core.Payment{TransactionID: id, Amount: core.Money{Cents: 1000}, Date: core.NewDate(2025, 5, 2)}); err != nil {
		t.Fatalf("insert payment: %v", err)
	}
	if _, err := home.InsertLineItem(ctx, core.LineItem{TransactionID: id, Description: "Arroz", Total: core.Money{Cents: 9000}}); err != nil {
		t.Fatalf("insert line item: %v", err)
	}

	if err := home.DeleteTransaction(ctx, id); err != nil {
		t.Fatalf("delete: %v", err)
	}

	payments, err := home.ListPayments(ctx, id)
	if err != nil {
		t.Fatalf("list payments: %v", err)
	}
	if len(payments) != 0 {
		t.Errorf("payments should cascade on delete, got %d", len(payments))
	}
}

func TestHouseholdCountersAndBalance(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	q := repo.Queries()

	homeID := mustHome(t, q, "Casa")
	home := q.Home(homeID)

	userID, err := q.InsertUser(ctx, "Maria", "Mari", "maria@example.com")
	if err != nil {
		t.Fatalf("insert user: %v", err)
	}
	if _, err := q.InsertMembership(ctx, userID, homeID, core.RoleAdmin); err != nil {
		t.Fatalf("insert membership: %v", err)
	}

	mustTransaction(t, home, core.Transaction{
		Description: "Salário", Amount: core.Money{Cents: 500000},
		Type: core.Income, Category: "Salário", Date: core.NewDate(2025, 6, 1),
	})
	mustTransaction(t, home, expense("Mercado", 120000, core.NewDate(2025, 6, 5)))

	hr, err := q.GetHousehold(ctx, homeID)
	if err != nil {
		t.Fatalf("get household: %v", err)
	}
	if hr.MemberCount != 1 || hr.TransactionCount != 2 {
		t.Errorf("counters = %d members, %d transactions", hr.MemberCount, hr.TransactionCount)
	}
	if hr.Balance.Cents != 380000 {
		t.Errorf("balance = %d, want 380000", hr.Balance.Cents)
	}

	admins, err := q.CountAdmins(ctx, homeID)
	if err != nil {
		t.Fatalf("count admins: %v", err)
	}
	if admins != 1 {
		t.Errorf("admins = %d, want 1", admins)
	}
}

func TestPriorBalance(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	home := repo.Queries().Home(mustHome(t, repo.Queries(), "Casa"))

	mustTransaction(t, home, core.Transaction{
		Description: "Salário dez", Amount: core.Money{Cents: 100000},
		Type: core.Income, Category: "Salário", Date: core.NewDate(2024, 12, 1),
	})
	old := mustTransaction(t, home, expense("Luz dez", 30000, core.NewDate(2024, 12, 10)))
	if _, err := home.InsertPayment(ctx, core.Payment{TransactionID: old, Amount: core.Money{Cents: 30000}, Date: core.NewDate(2024, 12, 12)}); err != nil {
		t.Fatalf("insert payment: %v", err)
	}
	// January data must not leak into the prior balance.
	mustTransaction(t, home, expense("Luz jan", 40000, core.NewDate(2025, 1, 10)))

	prior, err := home.PriorBalance(ctx, "2025-01-01")
	if err != nil {
		t.Fatalf("prior balance: %v", err)
	}
	if prior != 70000 {
		t.Errorf("PriorBalance = %d, want 70000", prior)
	}
}

func TestWithTxRollsBackOnError(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	homeID := mustHome(t, repo.Queries(), "Casa")

	errBoom := errors.New("boom")
	err := repo.WithTx(ctx, func(q *Queries) error {
		if _, err := q.Home(homeID).InsertTransaction(ctx, expense("Fantasma", 1000, core.NewDate(2025, 7, 1))); err != nil {
			return err
		}
		return errBoom
	})
	if !errors.Is(err, errBoom) {
		t.Fatalf("WithTx should surface the callback error, got %v", err)
	}

	n, err := repo.Queries().Home(homeID).CountTransactions(ctx, TransactionFilter{})
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Errorf("rolled-back insert persisted, count = %d", n)
	}
}
