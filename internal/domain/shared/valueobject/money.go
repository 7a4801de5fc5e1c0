package valueobject

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Currency is an ISO 4217 code. The ledger runs in a single currency.
type Currency string

const BRL Currency = "BRL"

// DefaultCurrency is the ledger currency
const DefaultCurrency = BRL

// CentPlaces is the number of decimal places money is kept at
const CentPlaces int32 = 2

var hundred = decimal.NewFromInt(100)

// Money is an immutable monetary amount in the ledger currency
type Money struct {
	amount decimal.Decimal
}

// NewMoney wraps a decimal amount, rounded to cents
func NewMoney(amount decimal.Decimal) Money {
	return Money{amount: amount.Round(CentPlaces)}
}

// ParseMoney parses a decimal string such as "150.00"
func ParseMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("invalid amount string: %w", err)
	}
	return NewMoney(d), nil
}

// FromCents builds Money from an integer number of cents
func FromCents(cents int64) Money {
	return Money{amount: decimal.New(cents, -CentPlaces)}
}

// Zero returns zero Money
func Zero() Money {
	return Money{amount: decimal.Zero}
}

func (m Money) Amount() decimal.Decimal { return m.amount }
func (m Money) Currency() Currency      { return DefaultCurrency }
func (m Money) IsZero() bool            { return m.amount.IsZero() }
func (m Money) IsPositive() bool        { return m.amount.IsPositive() }
func (m Money) IsNegative() bool        { return m.amount.IsNegative() }

// Cents returns the amount as an integer number of cents
func (m Money) Cents() int64 {
	return m.amount.Mul(hundred).Round(0).IntPart()
}

func (m Money) Add(other Money) Money { return Money{amount: m.amount.Add(other.amount)} }
func (m Money) Sub(other Money) Money { return Money{amount: m.amount.Sub(other.amount)} }
func (m Money) Neg() Money            { return Money{amount: m.amount.Neg()} }

// Equals compares amounts numerically, so 1.5 equals 1.50
func (m Money) Equals(other Money) bool {
	return m.amount.Equal(other.amount)
}

func (m Money) LessThan(other Money) bool    { return m.amount.LessThan(other.amount) }
func (m Money) GreaterThan(other Money) bool { return m.amount.GreaterThan(other.amount) }

// Split divides the amount into n installments of whole cents.
// Every part gets floor(amount/n) and the last part absorbs the remainder,
// so the parts always sum back to the original amount.
func (m Money) Split(n int) ([]Money, error) {
	if n <= 0 {
		return nil, errors.New("installment count must be positive")
	}
	total := m.Cents()
	base := total / int64(n)
	parts := make([]Money, n)
	for i := range n - 1 {
		parts[i] = FromCents(base)
	}
	parts[n-1] = FromCents(total - base*int64(n-1))
	return parts, nil
}

// String renders the amount with two decimal places
func (m Money) String() string {
	return m.amount.StringFixed(CentPlaces)
}

// MarshalJSON renders Money as a fixed-point string
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON accepts either a JSON string or a JSON number
func (m *Money) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("invalid amount: %w", err)
	}
	*m = NewMoney(d)
	return nil
}

// Value implements driver.Valuer
func (m Money) Value() (driver.Value, error) {
	return m.amount.StringFixed(CentPlaces), nil
}

// Scan implements sql.Scanner
func (m *Money) Scan(value any) error {
	var d decimal.NullDecimal
	if err := d.Scan(value); err != nil {
		return fmt.Errorf("cannot scan %T into Money: %w", value, err)
	}
	if !d.Valid {
		*m = Zero()
		return nil
	}
	*m = NewMoney(d.Decimal)
	return nil
}
