package utils_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/splittyhq/splitty_backend/internal/utils"
)

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		name   string
		amount decimal.Decimal
		code   string
		want   string
	}{
		{"negative INR", decimal.NewFromFloat(-12.3), "INR", "-₹12.30"},
		{"zero USD default", decimal.Zero, "USD", "$0.00"},
		{"empty code falls back to USD", decimal.Zero, "", "$0.00"},
		{"positive EUR", decimal.NewFromFloat(1234.5), "EUR", "€1234.50"},
		{"unknown code uses code as symbol", decimal.NewFromInt(7), "XTS", "XTS7.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, utils.FormatAmount(tt.amount, tt.code))
		})
	}
}

func TestCurrencySymbol(t *testing.T) {
	assert.Equal(t, "₹", utils.CurrencySymbol("INR"))
	assert.Equal(t, "$", utils.CurrencySymbol("USD"))
	assert.Equal(t, "$", utils.CurrencySymbol(""))
	assert.Equal(t, "ZZZ", utils.CurrencySymbol("ZZZ"))
}
