package core

import (
	"errors"
	"testing"
)

func TestTransactionValidate(t *testing.T) {
	valid := Transaction{
		Description: "Aluguel",
		Amount:      Money{Cents: 180000},
		Type:        Expense,
		Category:    "Moradia",
		Date:        NewDate(2025, 1, 10),
	}

	tests := []struct {
		name    string
		mutate  func(tx *Transaction)
		wantErr error
	}{
		{"valid expense", func(tx *Transaction) {}, nil},
		{"valid income", func(tx *Transaction) { tx.Type = Income }, nil},
		{"empty description", func(tx *Transaction) { tx.Description = "" }, ErrEmptyDescription},
		{"zero amount", func(tx *Transaction) { tx.Amount.Cents = 0 }, ErrInvalidAmount},
		{"negative amount", func(tx *Transaction) { tx.Amount.Cents = -100 }, ErrInvalidAmount},
		{"bad type", func(tx *Transaction) { tx.Type = "OUTRO" }, ErrInvalidTxType},
		{"empty category", func(tx *Transaction) { tx.Category = "" }, ErrEmptyCategory},
		{"zero date", func(tx *Transaction) { tx.Date = Date{} }, ErrInvalidDate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := valid
			tt.mutate(&tx)
			err := tx.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-03-10")
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	if d.Year() != 2025 || int(d.Month()) != 3 || d.Day() != 10 {
		t.Errorf("unexpected date: %s", d)
	}
	if _, err := ParseDate("10/03/2025"); err == nil {
		t.Error("expected error for non-ISO date")
	}
}

func TestDateJSONRoundTrip(t *testing.T) {
	d := NewDate(2025, 2, 1)
	b, err := d.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON: %v", err)
	}
	if string(b) != `"2025-02-01"` {
		t.Fatalf("MarshalJSON = %s", b)
	}
	var back Date
	if err := back.UnmarshalJSON(b); err != nil {
		t.Fatalf("UnmarshalJSON: %v", err)
	}
	if !back.Equal(d.Time) {
		t.Errorf("round trip mismatch: %s != %s", back, d)
	}
}

func TestItemsTotal(t *testing.T) {
	items := []LineItem{
		{Description: "Arroz 5kg", Total: Money{Cents: 2590}},
		{Description: "Feijão", Total: Money{Cents: 899}},
	}
	if got := ItemsTotal(items); got.Cents != 3489 {
		t.Errorf("ItemsTotal = %d, want 3489", got.Cents)
	}
}
