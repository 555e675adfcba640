package core

// RoundingEpsilonCents absorbs rounding noise when deciding whether an
// expense is fully covered. Amounts are integer cents, so one cent is the
// smallest representable difference.
const RoundingEpsilonCents = 1

// Remaining returns the outstanding balance of a transaction given the sum
// of its payments. Never negative.
func Remaining(amountCents, totalPaidCents int64) int64 {
	r := amountCents - totalPaidCents
	if r < 0 {
		return 0
	}
	return r
}

// FullyPaid reports whether totalPaid covers the amount within the rounding
// epsilon.
func FullyPaid(amountCents, totalPaidCents int64) bool {
	return totalPaidCents >= amountCents-RoundingEpsilonCents
}

// StatusFromPayments derives an expense status from its payment sum. This is
// the single recompute rule used after every payment mutation; call sites
// must not set PAGO/PARCIAL/PENDENTE ad hoc.
func StatusFromPayments(amountCents, totalPaidCents int64) Status {
	switch {
	case FullyPaid(amountCents, totalPaidCents):
		return StatusPaid
	case totalPaidCents > 0:
		return StatusPartial
	default:
		return StatusPending
	}
}

// NextMonthStart returns the first day of the calendar month following d.
// Transfers move unpaid amounts to this date.
func NextMonthStart(d Date) Date {
	year, month := d.Year(), int(d.Month())
	month++
	if month > 12 {
		month = 1
		year++
	}
	return NewDate(year, month, 1)
}
