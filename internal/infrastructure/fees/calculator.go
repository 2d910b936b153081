// Package fees computes the adaptor commission added on top of a quoted amount.
package fees

import (
	"context"
	"fmt"

	"github.com/mufasadev/lps-adaptor/internal/config"
	"github.com/mufasadev/lps-adaptor/internal/domain/models"
	"github.com/shopspring/decimal"
)

// scale is the number of decimal places commissions are rounded to.
const scale = 4

var hundred = decimal.NewFromInt(100)

// Calculator charges fixed + amount * percent / 100 in the currency of the amount.
type Calculator struct {
	fixed   decimal.Decimal
	percent decimal.Decimal
}

func NewCalculator(fixed, percent decimal.Decimal) *Calculator {
	return &Calculator{fixed: fixed, percent: percent}
}

// NewCalculatorFromConfig parses the FEE_FIXED and FEE_PERCENT settings.
func NewCalculatorFromConfig(cfg config.Fees) (*Calculator, error) {
	fixed, err := cfg.FixedDecimal()
	if err != nil {
		return nil, fmt.Errorf("invalid FEE_FIXED %q: %w", cfg.Fixed, err)
	}
	percent, err := cfg.PercentDecimal()
	if err != nil {
		return nil, fmt.Errorf("invalid FEE_PERCENT %q: %w", cfg.Percent, err)
	}
	if fixed.IsNegative() || percent.IsNegative() {
		return nil, fmt.Errorf("fees must not be negative")
	}
	return NewCalculator(fixed, percent), nil
}

func (c *Calculator) CalculateFee(_ context.Context, amount models.Money) (models.Money, error) {
	if amount.Currency == "" {
		return models.Money{}, fmt.Errorf("amount has no currency")
	}
	fee := c.fixed.Add(amount.Amount.Mul(c.percent).Div(hundred)).Round(scale)
	return models.Money{Amount: fee, Currency: amount.Currency}, nil
}
