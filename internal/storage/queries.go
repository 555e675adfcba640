package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"contas/internal/core"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx, so every query runs
// unchanged inside or outside a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// Home scopes all household-owned data access to one home. Handlers resolve
// the home once and every query below is then keyed by it, so a transaction
// belonging to another household behaves as if it did not exist.
func (q *Queries) Home(homeID int64) *HomeQueries {
	return &HomeQueries{db: q.db, homeID: homeID}
}

type HomeQueries struct {
	db     DBTX
	homeID int64
}

// transactionColumns is the select list scanTransaction expects.
const transactionColumns = `t.id, t.home_id, t.description, t.amount_cents, t.type, t.category,
	t.tx_date, t.status, t.paid, t.paid_on, t.origin_id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		t       core.Transaction
		txDate  string
		paid    int64
		paidOn  sql.NullString
		origin  sql.NullInt64
	)
	err := row.Scan(&t.ID, &t.HomeID, &t.Description, &t.Amount.Cents, &t.Type,
		&t.Category, &txDate, &t.Status, &paid, &paidOn, &origin)
	if err != nil {
		return core.Transaction{}, err
	}

	t.Date, err = core.ParseDate(txDate)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %d has malformed date %q", t.ID, txDate)
	}
	t.Paid = paid != 0
	if paidOn.Valid {
		d, err := core.ParseDate(paidOn.String)
		if err != nil {
			return core.Transaction{}, fmt.Errorf("transaction %d has malformed paid_on %q", t.ID, paidOn.String)
		}
		t.PaidOn = &d
	}
	if origin.Valid {
		t.OriginID = &origin.Int64
	}
	return t, nil
}

func nullDate(d *core.Date) sql.NullString {
	if d == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

// mapNotFound translates the driver's empty-result error into the domain
// sentinel so services never import database/sql.
func mapNotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return core.ErrNotFound
	}
	return err
}
