package services

import (
	"context"
	"errors"
	"testing"

	"contas/internal/core"
	"contas/internal/storage"
)

func newTestStorage(t *testing.T) (*storage.SQLiteRepository, int64) {
	t.Helper()
	repo, err := storage.NewMemoryRepository()
	if err != nil {
		t.Fatalf("open in-memory repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	homeID, err := repo.Queries().InsertHousehold(context.Background(), "Casa de teste")
	if err != nil {
		t.Fatalf("insert household: %v", err)
	}
	return repo, homeID
}

func createExpense(t *testing.T, repo *storage.SQLiteRepository, homeID int64, desc string, cents int64, date core.Date) int64 {
	t.Helper()
	id, err := repo.Queries().Home(homeID).InsertTransaction(context.Background(), core.Transaction{
		Description: desc,
		Amount:      core.Money{Cents: cents},
		Type:        core.Expense,
		Category:    "Contas",
		Date:        date,
		Status:      core.StatusPending,
	})
	if err != nil {
		t.Fatalf("insert expense: %v", err)
	}
	return id
}

func createIncome(t *testing.T, repo *storage.SQLiteRepository, homeID int64, desc string, cents int64, date core.Date) int64 {
	t.Helper()
	paidOn := date
	id, err := repo.Queries().Home(homeID).InsertTransaction(context.Background(), core.Transaction{
		Description: desc,
		Amount:      core.Money{Cents: cents},
		Type:        core.Income,
		Category:    "Salário",
		Date:        date,
		Status:      core.StatusPaid,
		Paid:        true,
		PaidOn:      &paidOn,
	})
	if err != nil {
		t.Fatalf("insert income: %v", err)
	}
	return id
}

func TestMarkPaidCreatesCoveringPayment(t *testing.T) {
	repo, homeID := newTestStorage(t)
	svc := NewSettlementService(repo, nil)
	ctx := context.Background()

	id := createExpense(t, repo, homeID, "Conta de luz", 10000, core.NewDate(2025, 1, 10))
	paidOn := core.NewDate(2025, 1, 15)

	got, err := svc.MarkPaid(ctx, homeID, id, paidOn)
	if err != nil {
		t.Fatalf("MarkPaid: %v", err)
	}
	if got.Status != core.StatusPaid || !got.Paid {
		t.Errorf("expected settled expense, got %+v", got)
	}
	if got.PaidOn == nil || got.PaidOn.String() != "2025-01-15" {
		t.Errorf("paid_on = %v, want 2025-01-15", got.PaidOn)
	}

	payments, err := svc.Payments(ctx, homeID, id)
	if err != nil {
		t.Fatalf("Payments: %v", err)
	}
	if len(payments) != 1 || payments[0].Amount.Cents != 10000 {
		t.Fatalf("expected one covering payment of 10000, got %+v", payments)
	}

	// Marking again must not add another payment; the history already
	// covers the amount.
	later := core.NewDate(2025, 1, 20)
	got, err = svc.MarkPaid(ctx, homeID, id, later)
	if err != nil {
		t.Fatalf("second MarkPaid: %v", err)
	}
	if got.PaidOn.String() != "2025-01-20" {
		t.Errorf("second MarkPaid should refresh the date, got %v", got.PaidOn)
	}
	payments, _ = svc.Payments(ctx, homeID, id)
	if len(payments) != 1 {
		t.Errorf("expected still one payment, got %d", len(payments))
	}
}

func TestPartialPaymentsUntilPaid(t *testing.T) {
	repo, homeID := newTestStorage(t)
	svc := NewSettlementService(repo, nil)
	ctx := context.Background()

	id := createExpense(t, repo, homeID, "Mercado", 10000, core.NewDate(2025, 1, 5))

	tx, _, err := svc.RegisterPartialPayment(ctx, homeID, id, core.Money{Cents: 6000}, core.NewDate(2025, 1, 6))
	if err != nil {
		t.Fatalf("first partial: %v", err)
	}
	if tx.Status != core.StatusPartial || tx.Paid {
		t.Errorf("after 60 of 100 expected PARCIAL, got %+v", tx)
	}

	tx, _, err = svc.RegisterPartialPayment(ctx, homeID, id, core.Money{Cents: 4000}, core.NewDate(2025, 1, 12))
	if err != nil {
		t.Fatalf("second partial: %v", err)
	}
	if tx.Status != core.StatusPaid || !tx.Paid {
		t.Errorf("after covering payments expected PAGO, got %+v", tx)
	}
	if tx.PaidOn == nil || tx.PaidOn.String() != "2025-01-12" {
		t.Errorf("paid_on should be the closing payment date, got %v", tx.PaidOn)
	}
}

func TestPartialPaymentExceedsRemaining(t *testing.T) {
	repo, homeID := newTestStorage(t)
	svc := NewSettlementService(repo, nil)
	ctx := context.Background()

	id := createExpense(t, repo, homeID, "Internet", 10000, core.NewDate(2025, 2, 1))
	if _, _, err := svc.RegisterPartialPayment(ctx, homeID, id, core.Money{Cents: 7000}, core.NewDate(2025, 2, 2)); err != nil {
		t.Fatalf("setup partial: %v", err)
	}

	_, _, err := svc.RegisterPartialPayment(ctx, homeID, id, core.Money{Cents: 3500}, core.NewDate(2025, 2, 3))
	var exceeds *core.ExceedsRemainingError
	if !errors.As(err, &exceeds) {
		t.Fatalf("expected ExceedsRemainingError, got %v", err)
	}
	if exceeds.MaxCents != 3000 {
		t.Errorf("MaxCents = %d, want 3000", exceeds.MaxCents)
	}

	// Within the rounding epsilon the payment is accepted.
	if _, _, err := svc.RegisterPartialPayment(ctx, homeID, id, core.Money{Cents: 3001}, core.NewDate(2025, 2, 3)); err != nil {
		t.Errorf("payment within epsilon should pass, got %v", err)
	}
}

func TestMarkUnpaidKeepsPayments(t *testing.T) {
	repo, homeID := newTestStorage(t)
	svc := NewSettlementService(repo, nil)
	ctx := context.Background()

	id := createExpense(t, repo, homeID, "Água", 8000, core.NewDate(2025, 3, 1))
	if _, err := svc.MarkPaid(ctx, homeID, id, core.NewDate(2025, 3, 5)); err != nil {
		t.Fatalf("MarkPaid: %v", err)
	}

	tx, err := svc.MarkUnpaid(ctx, homeID, id)
	if err != nil {
		t.Fatalf("MarkUnpaid: %v", err)
	}
	if tx.Status != core.StatusPending || tx.Paid || tx.PaidOn != nil {
		t.Errorf("expected reopened expense, got %+v", tx)
	}

	payments, err := svc.Payments(ctx, homeID, id)
	if err != nil {
		t.Fatalf("Payments: %v", err)
	}
	if len(payments) != 1 {
		t.Errorf("reopening must keep the payment history, got %d payments", len(payments))
	}
}

func TestDeletePaymentRecomputesStatus(t *testing.T) {
	repo, homeID := newTestStorage(t)
	svc := NewSettlementService(repo, nil)
	ctx := context.Background()

	id := createExpense(t, repo, homeID, "Cartão", 10000, core.NewDate(2025, 4, 1))
	_, p1, err := svc.RegisterPartialPayment(ctx, homeID, id, core.Money{Cents: 6000}, core.NewDate(2025, 4, 2))
	if err != nil {
		t.Fatalf("partial 1: %v", err)
	}
	_, p2, err := svc.RegisterPartialPayment(ctx, homeID, id, core.Money{Cents: 4000}, core.NewDate(2025, 4, 10))
	if err != nil {
		t.Fatalf("partial 2: %v", err)
	}

	tx, err := svc.DeletePayment(ctx, homeID, p2.ID)
	if err != nil {
		t.Fatalf("delete closing payment: %v", err)
	}
	if tx.Status != core.StatusPartial || tx.Paid || tx.PaidOn != nil {
		t.Errorf("after removing closing payment expected PARCIAL, got %+v", tx)
	}

	tx, err = svc.DeletePayment(ctx, homeID, p1.ID)
	if err != nil {
		t.Fatalf("delete last payment: %v", err)
	}
	if tx.Status != core.StatusPending {
		t.Errorf("with no payments left expected PENDENTE, got %+v", tx)
	}
}

func TestTransferWhole(t *testing.T) {
	repo, homeID := newTestStorage(t)
	svc := NewSettlementService(repo, nil)
	ctx := context.Background()

	id := createExpense(t, repo, homeID, "Condomínio", 45000, core.NewDate(2025, 12, 10))

	clone, err := svc.TransferWhole(ctx, homeID, id)
	if err != nil {
		t.Fatalf("TransferWhole: %v", err)
	}
	if clone.Date.String() != "2026-01-01" {
		t.Errorf("clone date = %s, want 2026-01-01", clone.Date)
	}
	if clone.Amount.Cents != 45000 || clone.Status != core.StatusPending {
		t.Errorf("unexpected clone: %+v", clone)
	}
	if clone.OriginID == nil || *clone.OriginID != id {
		t.Errorf("clone should reference its origin, got %v", clone.OriginID)
	}

	orig, err := repo.Queries().Home(homeID).GetTransaction(ctx, id)
	if err != nil {
		t.Fatalf("reload original: %v", err)
	}
	if orig.Status != core.StatusTransferred {
		t.Errorf("original status = %s, want TRANSFERIDO", orig.Status)
	}

	if _, err := svc.TransferWhole(ctx, homeID, id); !errors.Is(err, core.ErrNothingToTransfer) {
		t.Errorf("second transfer should fail with nothing to transfer, got %v", err)
	}
}

func TestTransferRemainder(t *testing.T) {
	repo, homeID := newTestStorage(t)
	svc := NewSettlementService(repo, nil)
	ctx := context.Background()

	id := createExpense(t, repo, homeID, "Parcelado", 20000, core.NewDate(2025, 5, 20))
	if _, _, err := svc.RegisterPartialPayment(ctx, homeID, id, core.Money{Cents: 5000}, core.NewDate(2025, 5, 21)); err != nil {
		t.Fatalf("partial: %v", err)
	}

	clone, err := svc.TransferRemainder(ctx, homeID, id)
	if err != nil {
		t.Fatalf("TransferRemainder: %v", err)
	}
	if clone.Amount.Cents != 15000 {
		t.Errorf("clone amount = %d, want 15000", clone.Amount.Cents)
	}
	if clone.Date.String() != "2025-06-01" {
		t.Errorf("clone date = %s, want 2025-06-01", clone.Date)
	}

	orig, err := repo.Queries().Home(homeID).GetTransaction(ctx, id)
	if err != nil {
		t.Fatalf("reload original: %v", err)
	}
	// With money already paid the original stays partial instead of
	// transferred.
	if orig.Status != core.StatusPartial {
		t.Errorf("original status = %s, want PARCIAL", orig.Status)
	}
}

func TestTransferRemainderNothingLeft(t *testing.T) {
	repo, homeID := newTestStorage(t)
	svc := NewSettlementService(repo, nil)
	ctx := context.Background()

	id := createExpense(t, repo, homeID, "Quitada", 5000, core.NewDate(2025, 6, 1))
	if _, err := svc.MarkPaid(ctx, homeID, id, core.NewDate(2025, 6, 2)); err != nil {
		t.Fatalf("MarkPaid: %v", err)
	}

	if _, err := svc.TransferRemainder(ctx, homeID, id); !errors.Is(err, core.ErrNothingToTransfer) {
		t.Errorf("fully paid expense has nothing to transfer, got %v", err)
	}
}

func TestSettlementRejectsIncome(t *testing.T) {
	repo, homeID := newTestStorage(t)
	svc := NewSettlementService(repo, nil)
	ctx := context.Background()

	id := createIncome(t, repo, homeID, "Salário", 500000, core.NewDate(2025, 7, 1))

	if _, err := svc.MarkPaid(ctx, homeID, id, core.NewDate(2025, 7, 2)); !errors.Is(err, core.ErrInvalidType) {
		t.Errorf("MarkPaid on income: got %v, want ErrInvalidType", err)
	}
	if _, _, err := svc.RegisterPartialPayment(ctx, homeID, id, core.Money{Cents: 100}, core.NewDate(2025, 7, 2)); !errors.Is(err, core.ErrInvalidType) {
		t.Errorf("partial payment on income: got %v, want ErrInvalidType", err)
	}
	if _, err := svc.TransferWhole(ctx, homeID, id); !errors.Is(err, core.ErrInvalidType) {
		t.Errorf("transfer on income: got %v, want ErrInvalidType", err)
	}
}

func TestSettlementUnknownTransaction(t *testing.T) {
	repo, homeID := newTestStorage(t)
	svc := NewSettlementService(repo, nil)

	if _, err := svc.MarkPaid(context.Background(), homeID, 9999, core.Today()); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("MarkPaid on missing id: got %v, want ErrNotFound", err)
	}
}
