package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Money is an amount in a single currency. Amounts are always decimals, never floats.
type Money struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

// NewMoney parses amount as a decimal string.
func NewMoney(amount, currency string) (Money, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, fmt.Errorf("invalid amount %q: %w", amount, err)
	}
	return Money{Amount: d, Currency: currency}, nil
}

// CurrencyMismatchError is returned by arithmetic over two currencies.
type CurrencyMismatchError struct {
	Left, Right string
}

func (e *CurrencyMismatchError) Error() string {
	return fmt.Sprintf("currency mismatch: %s and %s", e.Left, e.Right)
}

// Add returns m + other. Conversion is not supported.
func (m Money) Add(other Money) (Money, error) {
	if m.Currency != other.Currency {
		return Money{}, &CurrencyMismatchError{Left: m.Currency, Right: other.Currency}
	}
	return Money{Amount: m.Amount.Add(other.Amount), Currency: m.Currency}, nil
}

func (m Money) Equal(other Money) bool {
	return m.Currency == other.Currency && m.Amount.Equal(other.Amount)
}

func (m Money) IsZero() bool {
	return m.Amount.IsZero() && m.Currency == ""
}

func (m Money) String() string {
	return m.Amount.String() + " " + m.Currency
}
