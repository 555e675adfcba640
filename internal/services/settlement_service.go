package services

import (
	"context"
	"fmt"
	"log/slog"

	"contas/internal/core"
	"contas/internal/storage"
)

// SyncPublisher pushes ledger changes onto the export queue. Nil-safe at
// the call sites so the API keeps working when the broker is down.
type SyncPublisher interface {
	PublishTransactionSync(ctx context.Context, id, version int64) error
	PublishTransactionDelete(ctx context.Context, id int64) error
}

// SettlementService implements the payment lifecycle of an expense: full
// and partial payments, payment removal and month-to-month transfers.
// Every operation runs in a single database transaction so the payment
// rows and the derived status never drift apart.
type SettlementService struct {
	storage   *storage.SQLiteRepository
	publisher SyncPublisher
}

func NewSettlementService(st *storage.SQLiteRepository, publisher SyncPublisher) *SettlementService {
	return &SettlementService{storage: st, publisher: publisher}
}

// expenseForSettlement loads the transaction and checks it is an expense.
// Settlement never applies to income entries.
func expenseForSettlement(ctx context.Context, h *storage.HomeQueries, id int64) (core.Transaction, error) {
	t, err := h.GetTransaction(ctx, id)
	if err != nil {
		return core.Transaction{}, err
	}
	if t.Type != core.Expense {
		return core.Transaction{}, core.ErrInvalidType
	}
	return t, nil
}

// MarkPaid settles the whole expense on the given date. If a balance is
// still outstanding a covering payment is recorded first, so the payment
// history always adds up to the amount. Calling it on an already paid
// expense only refreshes the payment date.
func (s *SettlementService) MarkPaid(ctx context.Context, homeID, id int64, paidOn core.Date) (core.Transaction, error) {
	var out core.Transaction
	err := s.storage.WithTx(ctx, func(q *storage.Queries) error {
		home := q.Home(homeID)
		t, err := expenseForSettlement(ctx, home, id)
		if err != nil {
			return err
		}

		totalPaid, err := home.SumPayments(ctx, id)
		if err != nil {
			return err
		}
		if remaining := core.Remaining(t.Amount.Cents, totalPaid); remaining > core.RoundingEpsilonCents {
			_, err := home.InsertPayment(ctx, core.Payment{
				TransactionID: id,
				Amount:        core.Money{Cents: remaining},
				Date:          paidOn,
			})
			if err != nil {
				return err
			}
		}

		if err := home.SetSettlement(ctx, id, core.StatusPaid, true, &paidOn); err != nil {
			return err
		}
		out, err = home.GetTransaction(ctx, id)
		return err
	})
	if err != nil {
		return core.Transaction{}, err
	}

	s.publishSync(ctx, out.ID)
	return out, nil
}

// MarkUnpaid reopens an expense. Recorded payments are kept; only the
// settled flag, status and payment date are cleared.
func (s *SettlementService) MarkUnpaid(ctx context.Context, homeID, id int64) (core.Transaction, error) {
	var out core.Transaction
	err := s.storage.WithTx(ctx, func(q *storage.Queries) error {
		home := q.Home(homeID)
		_, err := expenseForSettlement(ctx, home, id)
		if err != nil {
			return err
		}
		if err := home.SetSettlement(ctx, id, core.StatusPending, false, nil); err != nil {
			return err
		}
		out, err = home.GetTransaction(ctx, id)
		return err
	})
	if err != nil {
		return core.Transaction{}, err
	}

	s.publishSync(ctx, out.ID)
	return out, nil
}

// RegisterPartialPayment records a payment against an expense. A payment
// larger than the outstanding balance (plus the rounding epsilon) is
// rejected with the maximum still accepted. When the new total covers the
// amount the expense flips to paid with the payment's date.
func (s *SettlementService) RegisterPartialPayment(ctx context.Context, homeID, id int64, amount core.Money, payDate core.Date) (core.Transaction, core.Payment, error) {
	if err := amount.Validate(); err != nil {
		return core.Transaction{}, core.Payment{}, fmt.Errorf("%w: %w", core.ErrValidation, err)
	}
	if err := payDate.Validate(); err != nil {
		return core.Transaction{}, core.Payment{}, fmt.Errorf("%w: %w", core.ErrValidation, err)
	}

	var (
		outTx core.Transaction
		outP  core.Payment
	)
	err := s.storage.WithTx(ctx, func(q *storage.Queries) error {
		home := q.Home(homeID)
		t, err := expenseForSettlement(ctx, home, id)
		if err != nil {
			return err
		}

		totalPaid, err := home.SumPayments(ctx, id)
		if err != nil {
			return err
		}
		remaining := core.Remaining(t.Amount.Cents, totalPaid)
		if amount.Cents > remaining+core.RoundingEpsilonCents {
			return &core.ExceedsRemainingError{MaxCents: remaining}
		}

		p := core.Payment{TransactionID: id, Amount: amount, Date: payDate}
		p.ID, err = home.InsertPayment(ctx, p)
		if err != nil {
			return err
		}

		newTotal := totalPaid + amount.Cents
		status := core.StatusFromPayments(t.Amount.Cents, newTotal)
		var paidOn *core.Date
		if status == core.StatusPaid {
			paidOn = &payDate
		}
		if err := home.SetSettlement(ctx, id, status, status == core.StatusPaid, paidOn); err != nil {
			return err
		}

		outP = p
		outTx, err = home.GetTransaction(ctx, id)
		return err
	})
	if err != nil {
		return core.Transaction{}, core.Payment{}, err
	}

	s.publishSync(ctx, outTx.ID)
	return outTx, outP, nil
}

// DeletePayment removes one payment and re-derives the expense status from
// the payments that remain. The payment date on the transaction survives
// only while the expense still counts as fully paid.
func (s *SettlementService) DeletePayment(ctx context.Context, homeID, paymentID int64) (core.Transaction, error) {
	var out core.Transaction
	err := s.storage.WithTx(ctx, func(q *storage.Queries) error {
		home := q.Home(homeID)
		p, err := home.GetPayment(ctx, paymentID)
		if err != nil {
			return err
		}
		t, err := home.GetTransaction(ctx, p.TransactionID)
		if err != nil {
			return err
		}

		if err := home.DeletePayment(ctx, paymentID); err != nil {
			return err
		}
		totalPaid, err := home.SumPayments(ctx, p.TransactionID)
		if err != nil {
			return err
		}

		status := core.StatusFromPayments(t.Amount.Cents, totalPaid)
		paidOn := t.PaidOn
		if status != core.StatusPaid {
			paidOn = nil
		}
		if err := home.SetSettlement(ctx, p.TransactionID, status, status == core.StatusPaid, paidOn); err != nil {
			return err
		}
		out, err = home.GetTransaction(ctx, p.TransactionID)
		return err
	})
	if err != nil {
		return core.Transaction{}, err
	}

	s.publishSync(ctx, out.ID)
	return out, nil
}

// TransferWhole moves the entire expense to the first day of the next
// month. The original is marked transferred and a pending copy is created
// with a back reference to it.
func (s *SettlementService) TransferWhole(ctx context.Context, homeID, id int64) (core.Transaction, error) {
	var clone core.Transaction
	err := s.storage.WithTx(ctx, func(q *storage.Queries) error {
		home := q.Home(homeID)
		t, err := expenseForSettlement(ctx, home, id)
		if err != nil {
			return err
		}
		if t.Status == core.StatusTransferred {
			return core.ErrNothingToTransfer
		}

		if err := home.SetSettlement(ctx, id, core.StatusTransferred, t.Paid, t.PaidOn); err != nil {
			return err
		}

		clone = core.Transaction{
			HomeID:      homeID,
			Description: t.Description,
			Amount:      t.Amount,
			Type:        core.Expense,
			Category:    t.Category,
			Date:        core.NextMonthStart(t.Date),
			Status:      core.StatusPending,
			OriginID:    &t.ID,
		}
		clone.ID, err = home.InsertTransaction(ctx, clone)
		return err
	})
	if err != nil {
		return core.Transaction{}, err
	}

	s.publishSync(ctx, id)
	s.publishSync(ctx, clone.ID)
	return clone, nil
}

// TransferRemainder moves only the outstanding balance to the next month.
// The original keeps its payments: with some money already paid it stays
// partial, otherwise it is marked transferred.
func (s *SettlementService) TransferRemainder(ctx context.Context, homeID, id int64) (core.Transaction, error) {
	var clone core.Transaction
	err := s.storage.WithTx(ctx, func(q *storage.Queries) error {
		home := q.Home(homeID)
		t, err := expenseForSettlement(ctx, home, id)
		if err != nil {
			return err
		}
		if t.Status == core.StatusTransferred {
			return core.ErrNothingToTransfer
		}

		totalPaid, err := home.SumPayments(ctx, id)
		if err != nil {
			return err
		}
		remaining := core.Remaining(t.Amount.Cents, totalPaid)
		if remaining <= core.RoundingEpsilonCents {
			return core.ErrNothingToTransfer
		}

		status := core.StatusTransferred
		if totalPaid > 0 {
			status = core.StatusPartial
		}
		if err := home.SetSettlement(ctx, id, status, false, nil); err != nil {
			return err
		}

		clone = core.Transaction{
			HomeID:      homeID,
			Description: t.Description,
			Amount:      core.Money{Cents: remaining},
			Type:        core.Expense,
			Category:    t.Category,
			Date:        core.NextMonthStart(t.Date),
			Status:      core.StatusPending,
			OriginID:    &t.ID,
		}
		clone.ID, err = home.InsertTransaction(ctx, clone)
		return err
	})
	if err != nil {
		return core.Transaction{}, err
	}

	s.publishSync(ctx, id)
	s.publishSync(ctx, clone.ID)
	return clone, nil
}

// Payments lists an expense's payment history.
func (s *SettlementService) Payments(ctx context.Context, homeID, id int64) ([]core.Payment, error) {
	home := s.storage.Queries().Home(homeID)
	if _, err := home.GetTransaction(ctx, id); err != nil {
		return nil, err
	}
	return home.ListPayments(ctx, id)
}

func (s *SettlementService) publishSync(ctx context.Context, id int64) {
	if s.publisher == nil {
		return
	}
	row, err := s.storage.Queries().GetSyncRow(ctx, id)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to load transaction for sync", "id", id, "error", err)
		return
	}
	if err := s.publisher.PublishTransactionSync(ctx, id, row.Version); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync message", "id", id, "error", err)
	}
}
