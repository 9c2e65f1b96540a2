package normalizer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/FACorreiaa/statement-import/internal/domain/import/model"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		sep      model.DecimalSeparator
		inferred bool
		want     int64
		ok       bool
	}{
		{"dot thousands", "1,234.56", model.DecimalDot, false, 123456, true},
		{"parentheses negative", "(45.00)", model.DecimalDot, false, -4500, true},
		{"comma decimal", "1.234,56", model.DecimalComma, false, 123456, true},
		{"leading minus", "-4.50", model.DecimalDot, false, -450, true},
		{"leading plus", "+2500.00", model.DecimalDot, false, 250000, true},
		{"trailing minus", "12.00-", model.DecimalDot, false, -1200, true},
		{"dollar sign", "$1,000", model.DecimalDot, false, 100000, true},
		{"euro after sign", "-€12,30", model.DecimalComma, false, -1230, true},
		{"code suffix", "99.95 EUR", model.DecimalDot, false, 9995, true},
		{"code prefix", "USD 10", model.DecimalDot, false, 1000, true},
		{"space thousands", "1 234,56", model.DecimalComma, false, 123456, true},
		{"round half up", "0.125", model.DecimalDot, false, 13, true},
		{"round half up negative", "-0.125", model.DecimalDot, false, -13, true},
		{"round down", "0.124", model.DecimalDot, false, 12, true},
		{"integer", "42", model.DecimalDot, false, 4200, true},
		{"zero", "0.00", model.DecimalDot, false, 0, true},
		{"inferred both, comma last", "1.234,56", model.DecimalDot, true, 123456, true},
		{"inferred both, dot last", "1,234.56", model.DecimalComma, true, 123456, true},
		{"inferred single comma", "4,50", model.DecimalDot, true, 450, true},
		{"inferred repeated dots", "1.234.567", model.DecimalDot, true, 123456700, true},
		{"inferred single separator is decimal", "1.234", model.DecimalDot, true, 123, true},
		{"empty", "", model.DecimalDot, false, 0, false},
		{"blank", "   ", model.DecimalDot, false, 0, false},
		{"text", "n/a", model.DecimalDot, false, 0, false},
		{"two decimals", "1.2.3", model.DecimalDot, false, 0, false},
		{"exponent", "1e5", model.DecimalDot, false, 0, false},
		{"largest representable", "92233720368547758.07", model.DecimalDot, false, 9223372036854775807, true},
		{"beyond minor-unit range", "99999999999999999999", model.DecimalDot, false, 0, false},
		{"negative beyond range", "-92233720368547758.08", model.DecimalDot, false, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseAmount(tt.input, tt.sep, tt.inferred)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
