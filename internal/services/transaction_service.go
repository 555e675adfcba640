package services

import (
	"context"
	"fmt"
	"log/slog"

	"contas/internal/core"
	"contas/internal/storage"
)

// TransactionService handles the entry lifecycle: creation with optional
// line items, edits, deletion and reads. Writes land in SQLite first and
// a sync message is published best effort afterwards, so the ledger never
// depends on the broker being up.
type TransactionService struct {
	storage   *storage.SQLiteRepository
	publisher SyncPublisher
}

func NewTransactionService(st *storage.SQLiteRepository, publisher SyncPublisher) *TransactionService {
	return &TransactionService{storage: st, publisher: publisher}
}

// TransactionInput is what callers provide to create or update an entry.
type TransactionInput struct {
	Description string
	Amount      core.Money
	Type        core.TransactionType
	Category    string
	Date        core.Date
	Items       []core.LineItem
}

// TransactionDetail is a transaction with its payment history and items.
type TransactionDetail struct {
	Transaction core.Transaction
	TotalPaid   core.Money
	Payments    []core.Payment
	Items       []core.LineItem
}

func (in TransactionInput) toTransaction() (core.Transaction, error) {
	t := core.Transaction{
		Description: in.Description,
		Amount:      in.Amount,
		Type:        in.Type,
		Category:    in.Category,
		Date:        in.Date,
	}
	// Itemized entries derive their amount from the items once, at entry
	// time.
	if len(in.Items) > 0 {
		if in.Type != core.Expense {
			return core.Transaction{}, fmt.Errorf("%w: only expenses carry items", core.ErrValidation)
		}
		for _, it := range in.Items {
			if err := it.Validate(); err != nil {
				return core.Transaction{}, fmt.Errorf("%w: item %q: %w", core.ErrValidation, it.Description, err)
			}
		}
		t.Amount = core.ItemsTotal(in.Items)
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, fmt.Errorf("%w: %w", core.ErrValidation, err)
	}
	return t, nil
}

// Create stores a new entry. Income is born settled on its own date;
// expenses start pending.
func (s *TransactionService) Create(ctx context.Context, homeID int64, in TransactionInput) (TransactionDetail, error) {
	t, err := in.toTransaction()
	if err != nil {
		return TransactionDetail{}, err
	}

	if t.Type == core.Income {
		t.Status = core.StatusPaid
		t.Paid = true
		d := t.Date
		t.PaidOn = &d
	} else {
		t.Status = core.StatusPending
	}

	err = s.storage.WithTx(ctx, func(q *storage.Queries) error {
		home := q.Home(homeID)
		t.ID, err = home.InsertTransaction(ctx, t)
		if err != nil {
			return err
		}
		for i := range in.Items {
			in.Items[i].TransactionID = t.ID
			in.Items[i].ID, err = home.InsertLineItem(ctx, in.Items[i])
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return TransactionDetail{}, err
	}

	slog.InfoContext(ctx, "Transaction created",
		"id", t.ID,
		"home_id", homeID,
		"type", t.Type,
		"amount_cents", t.Amount.Cents)

	s.publishSync(ctx, t.ID, 1)
	t.HomeID = homeID
	return TransactionDetail{Transaction: t, Items: in.Items}, nil
}

// Update rewrites an entry's editable fields. When items are given they
// replace the previous set and the amount is re-derived from them.
func (s *TransactionService) Update(ctx context.Context, homeID, id int64, in TransactionInput) (TransactionDetail, error) {
	t, err := in.toTransaction()
	if err != nil {
		return TransactionDetail{}, err
	}
	t.ID = id

	err = s.storage.WithTx(ctx, func(q *storage.Queries) error {
		home := q.Home(homeID)
		if _, err := home.GetTransaction(ctx, id); err != nil {
			return err
		}
		if err := home.UpdateTransaction(ctx, t); err != nil {
			return err
		}
		if len(in.Items) == 0 {
			return nil
		}
		if err := home.DeleteLineItems(ctx, id); err != nil {
			return err
		}
		for i := range in.Items {
			in.Items[i].TransactionID = id
			in.Items[i].ID, err = home.InsertLineItem(ctx, in.Items[i])
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return TransactionDetail{}, err
	}

	row, err := s.storage.Queries().GetSyncRow(ctx, id)
	if err != nil {
		return TransactionDetail{}, err
	}
	s.publishSync(ctx, id, row.Version)
	return s.Get(ctx, homeID, id)
}

// Delete removes an entry and everything hanging off it, then asks the
// export worker to record the removal.
func (s *TransactionService) Delete(ctx context.Context, homeID, id int64) error {
	if err := s.storage.Queries().Home(homeID).DeleteTransaction(ctx, id); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Transaction deleted", "id", id, "home_id", homeID)

	if s.publisher != nil {
		if err := s.publisher.PublishTransactionDelete(ctx, id); err != nil {
			slog.ErrorContext(ctx, "Failed to publish delete message", "id", id, "error", err)
		}
	}
	return nil
}

// Get loads one entry with payments and items.
func (s *TransactionService) Get(ctx context.Context, homeID, id int64) (TransactionDetail, error) {
	home := s.storage.Queries().Home(homeID)
	t, err := home.GetTransaction(ctx, id)
	if err != nil {
		return TransactionDetail{}, err
	}
	payments, err := home.ListPayments(ctx, id)
	if err != nil {
		return TransactionDetail{}, err
	}
	items, err := home.ListLineItems(ctx, id)
	if err != nil {
		return TransactionDetail{}, err
	}

	var totalPaid int64
	for _, p := range payments {
		totalPaid += p.Amount.Cents
	}
	return TransactionDetail{
		Transaction: t,
		TotalPaid:   core.Money{Cents: totalPaid},
		Payments:    payments,
		Items:       items,
	}, nil
}

// TransactionPage is one page of entries plus the total row count.
type TransactionPage struct {
	Rows  []storage.TransactionRow
	Total int64
}

// List returns a page of entries, newest first, optionally narrowed to a
// year or month.
func (s *TransactionService) List(ctx context.Context, homeID int64, f storage.TransactionFilter) (TransactionPage, error) {
	home := s.storage.Queries().Home(homeID)
	rows, err := home.ListTransactions(ctx, f)
	if err != nil {
		return TransactionPage{}, err
	}
	total, err := home.CountTransactions(ctx, f)
	if err != nil {
		return TransactionPage{}, err
	}
	return TransactionPage{Rows: rows, Total: total}, nil
}

func (s *TransactionService) publishSync(ctx context.Context, id, version int64) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishTransactionSync(ctx, id, version); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync message", "id", id, "error", err)
	}
}
