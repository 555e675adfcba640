package core

import "testing"

func TestStatusFromPayments(t *testing.T) {
	tests := []struct {
		name      string
		amount    int64
		totalPaid int64
		want      Status
	}{
		{"no payments", 10000, 0, StatusPending},
		{"partial", 10000, 6000, StatusPartial},
		{"exact", 10000, 10000, StatusPaid},
		{"within epsilon", 10000, 9999, StatusPaid},
		{"two cents short", 10000, 9998, StatusPartial},
		{"overpaid", 10000, 10001, StatusPaid},
		{"one cent bill unpaid", 1, 0, StatusPending},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StatusFromPayments(tt.amount, tt.totalPaid); got != tt.want {
				t.Errorf("StatusFromPayments(%d, %d) = %v, want %v", tt.amount, tt.totalPaid, got, tt.want)
			}
		})
	}
}

func TestRemaining(t *testing.T) {
	if got := Remaining(10000, 6000); got != 4000 {
		t.Errorf("Remaining(10000, 6000) = %d, want 4000", got)
	}
	if got := Remaining(10000, 10001); got != 0 {
		t.Errorf("Remaining must not go negative, got %d", got)
	}
}

func TestNextMonthStart(t *testing.T) {
	tests := []struct {
		name string
		in   Date
		want Date
	}{
		{"mid month", NewDate(2025, 1, 5), NewDate(2025, 2, 1)},
		{"first of month", NewDate(2025, 3, 1), NewDate(2025, 4, 1)},
		{"end of month", NewDate(2025, 7, 31), NewDate(2025, 8, 1)},
		{"december rolls the year", NewDate(2025, 12, 15), NewDate(2026, 1, 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NextMonthStart(tt.in)
			if !got.Equal(tt.want.Time) {
				t.Errorf("NextMonthStart(%s) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}
