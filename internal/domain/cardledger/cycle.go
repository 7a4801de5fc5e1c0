package cardledger

import (
	"fmt"
	"time"

	"github.com/foodops/backoffice/internal/domain/shared"
)

// CycleConfig is the part of a card profile that decides billing cycles
type CycleConfig struct {
	ClosingDay int
	DueDay     int
}

// Validate rejects closing and due days outside 1-31
func (c CycleConfig) Validate() error {
	if c.ClosingDay < 1 || c.ClosingDay > 31 {
		return shared.NewInvalidInputError(CodeInvalidConfiguration,
			fmt.Sprintf("Closing day must be between 1 and 31, got %d", c.ClosingDay)).
			WithDetail("closing_day", c.ClosingDay)
	}
	if c.DueDay < 1 || c.DueDay > 31 {
		return shared.NewInvalidInputError(CodeInvalidConfiguration,
			fmt.Sprintf("Due day must be between 1 and 31, got %d", c.DueDay)).
			WithDetail("due_day", c.DueDay)
	}
	return nil
}

// BillingCycle identifies the invoice a charge lands on.
// All three dates are civil dates at midnight UTC.
type BillingCycle struct {
	ReferenceMonth time.Time
	ClosingDate    time.Time
	DueDate        time.Time
}

// ResolveCycle maps a purchase to the billing cycle of one of its installments.
//
// A purchase made after the closing day belongs to the next month's cycle.
// That rule is applied once; installment k then lands exactly k months after
// installment 0. Days beyond the end of a short month clamp to its last day.
func ResolveCycle(cfg CycleConfig, purchaseDate time.Time, installmentOffset int) (BillingCycle, error) {
	if err := cfg.Validate(); err != nil {
		return BillingCycle{}, err
	}
	if installmentOffset < 0 {
		return BillingCycle{}, shared.NewInvalidInputError(CodeInvalidInstallments, "Installment offset cannot be negative")
	}

	ref := MonthStart(purchaseDate)
	if purchaseDate.Day() > cfg.ClosingDay {
		ref = ref.AddDate(0, 1, 0)
	}
	return cycleFor(cfg, ref.AddDate(0, installmentOffset, 0)), nil
}

// CycleForMonth returns the cycle whose reference month contains referenceMonth
func CycleForMonth(cfg CycleConfig, referenceMonth time.Time) (BillingCycle, error) {
	if err := cfg.Validate(); err != nil {
		return BillingCycle{}, err
	}
	return cycleFor(cfg, MonthStart(referenceMonth)), nil
}

func cycleFor(cfg CycleConfig, ref time.Time) BillingCycle {
	next := ref.AddDate(0, 1, 0)
	return BillingCycle{
		ReferenceMonth: ref,
		ClosingDate:    clampedDate(ref.Year(), ref.Month(), cfg.ClosingDay),
		DueDate:        clampedDate(next.Year(), next.Month(), cfg.DueDay),
	}
}

// MonthStart truncates t to the first day of its month, keeping the civil date
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// CivilDate drops the time of day and the location, keeping the calendar date
func CivilDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func clampedDate(year int, month time.Month, day int) time.Time {
	if last := daysIn(year, month); day > last {
		day = last
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func daysIn(year int, month time.Month) int {
	// day 0 of the following month is the last day of this one
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
