package fees

import (
	"context"
	"testing"

	"github.com/mufasadev/lps-adaptor/internal/config"
	"github.com/mufasadev/lps-adaptor/internal/domain/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateFee(t *testing.T) {
	tests := []struct {
		name    string
		fixed   string
		percent string
		amount  string
		want    string
	}{
		{"fixed_only", "2", "0", "100", "2"},
		{"percent_only", "0", "1.5", "100", "1.5"},
		{"fixed_and_percent", "0.5", "1", "250.50", "3.005"},
		{"rounded", "0", "0.333", "1", "0.0033"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCalculator(decimal.RequireFromString(tt.fixed), decimal.RequireFromString(tt.percent))
			fee, err := c.CalculateFee(context.Background(), models.Money{Amount: decimal.RequireFromString(tt.amount), Currency: "USD"})
			require.NoError(t, err)
			assert.True(t, fee.Amount.Equal(decimal.RequireFromString(tt.want)), fee.Amount.String())
			assert.Equal(t, "USD", fee.Currency)
		})
	}
}

func TestNewCalculatorFromConfig(t *testing.T) {
	_, err := NewCalculatorFromConfig(config.Fees{Fixed: "2", Percent: "0"})
	assert.NoError(t, err)

	_, err = NewCalculatorFromConfig(config.Fees{Fixed: "two", Percent: "0"})
	assert.Error(t, err)

	_, err = NewCalculatorFromConfig(config.Fees{Fixed: "-1", Percent: "0"})
	assert.Error(t, err)
}
