package services

import (
	"context"
	"errors"
	"testing"

	"contas/internal/core"
	"contas/internal/storage"
)

func TestCreateIncomeIsBornSettled(t *testing.T) {
	repo, homeID := newTestStorage(t)
	svc := NewTransactionService(repo, nil)

	detail, err := svc.Create(context.Background(), homeID, TransactionInput{
		Description: "Salário",
		Amount:      core.Money{Cents: 500000},
		Type:        core.Income,
		Category:    "Salário",
		Date:        core.NewDate(2025, 1, 1),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	tx := detail.Transaction
	if tx.Status != core.StatusPaid || !tx.Paid {
		t.Errorf("income should be born settled, got %+v", tx)
	}
	if tx.PaidOn == nil || tx.PaidOn.String() != "2025-01-01" {
		t.Errorf("income paid_on should default to its date, got %v", tx.PaidOn)
	}
}

func TestCreateExpenseStartsPending(t *testing.T) {
	repo, homeID := newTestStorage(t)
	svc := NewTransactionService(repo, nil)

	detail, err := svc.Create(context.Background(), homeID, TransactionInput{
		Description: "Aluguel",
		Amount:      core.Money{Cents: 180000},
		Type:        core.Expense,
		Category:    "Moradia",
		Date:        core.NewDate(2025, 1, 5),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if detail.Transaction.Status != core.StatusPending || detail.Transaction.Paid {
		t.Errorf("expense should start pending, got %+v", detail.Transaction)
	}
}

func TestCreateItemizedExpenseDerivesAmount(t *testing.T) {
	repo, homeID := newTestStorage(t)
	svc := NewTransactionService(repo, nil)
	ctx := context.Background()

	qty := func(v float64) *float64 { return &v }
	detail, err := svc.Create(ctx, homeID, TransactionInput{
		Description: "Compra do mês",
		Type:        core.Expense,
		Category:    "Mercado",
		Date:        core.NewDate(2025, 2, 1),
		Items: []core.LineItem{
			{Description: "Arroz", Quantity: qty(2), Total: core.Money{Cents: 2590}},
			{Description: "Feijão", Total: core.Money{Cents: 899}},
		},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if detail.Transaction.Amount.Cents != 3489 {
		t.Errorf("amount = %d, want sum of items 3489", detail.Transaction.Amount.Cents)
	}

	reloaded, err := svc.Get(ctx, homeID, detail.Transaction.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(reloaded.Items) != 2 {
		t.Errorf("expected 2 stored items, got %d", len(reloaded.Items))
	}
}

func TestCreateRejectsItemsOnIncome(t *testing.T) {
	repo, homeID := newTestStorage(t)
	svc := NewTransactionService(repo, nil)

	_, err := svc.Create(context.Background(), homeID, TransactionInput{
		Description: "Salário",
		Type:        core.Income,
		Category:    "Salário",
		Date:        core.NewDate(2025, 1, 1),
		Items:       []core.LineItem{{Description: "Bônus", Total: core.Money{Cents: 1000}}},
	})
	if !errors.Is(err, core.ErrValidation) {
		t.Errorf("items on income should fail validation, got %v", err)
	}
}

func TestCreateValidation(t *testing.T) {
	repo, homeID := newTestStorage(t)
	svc := NewTransactionService(repo, nil)
	ctx := context.Background()

	base := TransactionInput{
		Description: "Conta",
		Amount:      core.Money{Cents: 1000},
		Type:        core.Expense,
		Category:    "Contas",
		Date:        core.NewDate(2025, 1, 1),
	}

	tests := []struct {
		name   string
		mutate func(in *TransactionInput)
	}{
		{"empty description", func(in *TransactionInput) { in.Description = "" }},
		{"zero amount", func(in *TransactionInput) { in.Amount.Cents = 0 }},
		{"bad type", func(in *TransactionInput) { in.Type = "OUTRO" }},
		{"empty category", func(in *TransactionInput) { in.Category = "" }},
		{"zero date", func(in *TransactionInput) { in.Date = core.Date{} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := base
			tt.mutate(&in)
			if _, err := svc.Create(ctx, homeID, in); !errors.Is(err, core.ErrValidation) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}

func TestUpdateReplacesItems(t *testing.T) {
	repo, homeID := newTestStorage(t)
	svc := NewTransactionService(repo, nil)
	ctx := context.Background()

	detail, err := svc.Create(ctx, homeID, TransactionInput{
		Description: "Compra",
		Type:        core.Expense,
		Category:    "Mercado",
		Date:        core.NewDate(2025, 3, 1),
		Items:       []core.LineItem{{Description: "Arroz", Total: core.Money{Cents: 3000}}},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	updated, err := svc.Update(ctx, homeID, detail.Transaction.ID, TransactionInput{
		Description: "Compra revisada",
		Type:        core.Expense,
		Category:    "Mercado",
		Date:        core.NewDate(2025, 3, 1),
		Items: []core.LineItem{
			{Description: "Arroz", Total: core.Money{Cents: 3000}},
			{Description: "Macarrão", Total: core.Money{Cents: 700}},
		},
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Transaction.Amount.Cents != 3700 {
		t.Errorf("amount = %d, want 3700", updated.Transaction.Amount.Cents)
	}
	if len(updated.Items) != 2 {
		t.Errorf("expected 2 items after replace, got %d", len(updated.Items))
	}
}

func TestDeleteTransaction(t *testing.T) {
	repo, homeID := newTestStorage(t)
	svc := NewTransactionService(repo, nil)
	ctx := context.Background()

	id := createExpense(t, repo, homeID, "Apagar", 1000, core.NewDate(2025, 4, 1))
	if err := svc.Delete(ctx, homeID, id); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := svc.Get(ctx, homeID, id); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("deleted transaction should be gone, got %v", err)
	}
	if err := svc.Delete(ctx, homeID, id); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("double delete should report not found, got %v", err)
	}
}

func TestListPagination(t *testing.T) {
	repo, homeID := newTestStorage(t)
	svc := NewTransactionService(repo, nil)
	ctx := context.Background()

	for day := 1; day <= 5; day++ {
		createExpense(t, repo, homeID, "Conta", 1000, core.NewDate(2025, 5, day))
	}

	page, err := svc.List(ctx, homeID, storage.TransactionFilter{Year: 2025, Month: 5, Page: 1, Limit: 2})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(page.Rows) != 2 || page.Total != 5 {
		t.Fatalf("page 1: %d rows, total %d; want 2 rows, total 5", len(page.Rows), page.Total)
	}
	// Newest first.
	if page.Rows[0].Date.String() != "2025-05-05" {
		t.Errorf("first row date = %s, want 2025-05-05", page.Rows[0].Date)
	}

	last, err := svc.List(ctx, homeID, storage.TransactionFilter{Year: 2025, Month: 5, Page: 3, Limit: 2})
	if err != nil {
		t.Fatalf("List page 3: %v", err)
	}
	if len(last.Rows) != 1 {
		t.Errorf("page 3 should hold the last row, got %d", len(last.Rows))
	}
}
