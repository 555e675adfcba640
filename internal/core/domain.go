package core

import (
	"errors"
	"time"
)

const (
	Income  TransactionType = "ENTRADA"
	Expense TransactionType = "SAIDA"
)

const (
	StatusPending     Status = "PENDENTE"
	StatusPaid        Status = "PAGO"
	StatusPartial     Status = "PARCIAL"
	StatusTransferred Status = "TRANSFERIDO"
)

const (
	RoleAdmin  Role = "administrador"
	RoleMember Role = "membro"
)

type (
	TransactionType string

	Status string

	Role string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Transaction is a single income or expense entry owned by a household.
	Transaction struct {
		ID          int64
		HomeID      int64
		Description string
		Amount      Money
		Type        TransactionType
		Category    string
		Date        Date
		Status      Status
		Paid        bool
		PaidOn      *Date
		OriginID    *int64
	}

	// Payment is a partial or full settlement event against an expense.
	Payment struct {
		ID            int64
		TransactionID int64
		Amount        Money
		Date          Date
	}

	// LineItem is an itemized component of an expense transaction.
	// Quantity, unit and item category are optional.
	LineItem struct {
		ID             int64
		TransactionID  int64
		Description    string
		Quantity       *float64
		UnitID         *int64
		ItemCategoryID *int64
		Total          Money
	}

	Household struct {
		ID        int64
		Name      string
		CreatedAt time.Time
	}

	Member struct {
		ID        int64
		UserID    int64
		Name      string
		Nickname  string
		Email     string
		Role      Role
		CreatedAt time.Time
	}

	Category struct {
		ID     int64
		HomeID int64
		Name   string
		Type   TransactionType
		InUse  bool
	}

	Unit struct {
		ID           int64
		HomeID       int64
		Name         string
		Abbreviation string
	}

	ItemCategory struct {
		ID     int64
		HomeID int64
		Name   string
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyDescription = errors.New("empty description")
	ErrEmptyCategory    = errors.New("empty category")
	ErrInvalidTxType    = errors.New("invalid transaction type")
	ErrInvalidDate      = errors.New("invalid date")
)

// Sentinel errors for settlement and lookup failures. Services return these
// (possibly wrapped) and the HTTP layer maps them to error kinds.
var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidType       = errors.New("operation not valid for this transaction type")
	ErrNothingToTransfer = errors.New("no remaining amount to transfer")
	ErrValidation        = errors.New("validation failed")
)

// ExceedsRemainingError reports a partial payment larger than the
// outstanding balance, carrying the maximum amount still allowed.
type ExceedsRemainingError struct {
	MaxCents int64
}

func (e *ExceedsRemainingError) Error() string {
	return "payment exceeds remaining amount"
}

// NewDate creates a Date at midnight UTC.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// Today returns the current date truncated to midnight UTC.
func Today() Date {
	now := time.Now().UTC()
	return NewDate(now.Year(), int(now.Month()), now.Day())
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// String formats the date as YYYY-MM-DD, the storage and wire format.
func (d Date) String() string {
	return d.Format("2006-01-02")
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := string(b)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return ErrInvalidDate
	}
	parsed, err := ParseDate(s[1 : len(s)-1])
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ParseDate parses a YYYY-MM-DD string into a Date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t.UTC()}, nil
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

// Validate checks the invariants every stored transaction must satisfy.
func (t Transaction) Validate() error {
	if t.Description == "" {
		return ErrEmptyDescription
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if !t.Type.Valid() {
		return ErrInvalidTxType
	}
	if t.Category == "" {
		return ErrEmptyCategory
	}
	return t.Date.Validate()
}

func (p Payment) Validate() error {
	if err := p.Amount.Validate(); err != nil {
		return err
	}
	return p.Date.Validate()
}

func (li LineItem) Validate() error {
	if li.Description == "" {
		return ErrEmptyDescription
	}
	return li.Total.Validate()
}

// ItemsTotal sums line-item totals. The transaction amount is set from this
// at entry time when items are present; it is never re-derived afterwards.
func ItemsTotal(items []LineItem) Money {
	var cents int64
	for _, it := range items {
		cents += it.Total.Cents
	}
	return Money{Cents: cents}
}
