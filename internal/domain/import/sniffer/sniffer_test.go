package sniffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/statement-import/internal/domain/import/model"
)

func rows(cells ...[]string) []model.RawRow {
	out := make([]model.RawRow, len(cells))
	for i, c := range cells {
		out[i] = model.RawRow{Cells: c, Line: i}
	}
	return out
}

func TestNormalizeLabel(t *testing.T) {
	assert.Equal(t, "transaction date", NormalizeLabel("\uFEFF  Transaction_Date "))
	assert.Equal(t, "money out", NormalizeLabel("Money-Out"))
	assert.Equal(t, "value date", NormalizeLabel("VALUE   \t DATE"))
}

func TestInferSchema(t *testing.T) {
	t.Run("accepts header with two roles", func(t *testing.T) {
		s := InferSchema(rows(
			[]string{"Date", "Amount"},
			[]string{"2024-01-01", "10.00"},
		))
		require.True(t, s.HasHeader())
		assert.Equal(t, 0, s.HeaderIndex)
		assert.Equal(t, 2, s.Score)
		require.NotNil(t, s.Mapping)
		assert.Equal(t, 0, s.Mapping.DateColumn)
		require.NotNil(t, s.Mapping.AmountColumn)
		assert.Equal(t, 1, *s.Mapping.AmountColumn)
		assert.True(t, s.Mapping.Inferred)
	})

	t.Run("rejects header with one role", func(t *testing.T) {
		s := InferSchema(rows(
			[]string{"Date", "Foo", "Bar"},
			[]string{"2024-01-01", "x", "10.00"},
		))
		assert.False(t, s.HasHeader())
		assert.Nil(t, s.Mapping)
		assert.Equal(t, []string{"Column 1", "Column 2", "Column 3"}, s.Columns)
	})

	t.Run("finds header below preamble", func(t *testing.T) {
		s := InferSchema(rows(
			[]string{"Account statement"},
			[]string{"IBAN", "PT50 0000"},
			[]string{""},
			[]string{"Data Mov.", "Descrição", "Débito", "Crédito", "Saldo"},
			[]string{"01-02-2024", "Compra", "12,50", "", "100,00"},
		))
		require.True(t, s.HasHeader())
		assert.Equal(t, 3, s.HeaderIndex)
		require.NotNil(t, s.Mapping)
		assert.Equal(t, 0, s.Mapping.DateColumn)
		assert.Equal(t, 1, *s.Mapping.DescriptionColumn)
		assert.Equal(t, 2, *s.Mapping.DebitColumn)
		assert.Equal(t, 3, *s.Mapping.CreditColumn)
		assert.Nil(t, s.Mapping.AmountColumn)
	})

	t.Run("first row wins ties", func(t *testing.T) {
		s := InferSchema(rows(
			[]string{"Date", "Amount"},
			[]string{"Date", "Amount"},
		))
		assert.Equal(t, 0, s.HeaderIndex)
	})

	t.Run("header without amount source has no mapping", func(t *testing.T) {
		s := InferSchema(rows(
			[]string{"Date", "Description", "Category"},
			[]string{"2024-01-01", "x", "food"},
		))
		require.True(t, s.HasHeader())
		assert.Nil(t, s.Mapping)
	})

	t.Run("headerless width comes from widest row", func(t *testing.T) {
		s := InferSchema(rows(
			[]string{"a"},
			[]string{"b", "c", "d", "e"},
		))
		assert.Len(t, s.Columns, 4)
	})

	t.Run("ignores rows past scan window", func(t *testing.T) {
		input := make([][]string, 0, HeaderScanRows+1)
		for i := 0; i < HeaderScanRows; i++ {
			input = append(input, []string{"x", "y"})
		}
		input = append(input, []string{"Date", "Amount"})
		s := InferSchema(rows(input...))
		assert.False(t, s.HasHeader())
	})
}

func TestInferMapping_FirstRegisteredAliasWins(t *testing.T) {
	m := InferMapping([]string{"Value Date", "Date", "Amount"})
	require.NotNil(t, m)
	assert.Equal(t, 1, m.DateColumn)
}

func TestProfileKey(t *testing.T) {
	a := ProfileKey(model.FormatDelimited, []string{"Date", " Amount "})
	b := ProfileKey(model.FormatDelimited, []string{"date", "amount"})
	c := ProfileKey(model.FormatSpreadsheet, []string{"date", "amount"})

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)
}

func TestProbeDecimalSeparator(t *testing.T) {
	assert.Equal(t, model.DecimalComma, ProbeDecimalSeparator([]string{"1.234,56", "-4,50", "12"}))
	assert.Equal(t, model.DecimalDot, ProbeDecimalSeparator([]string{"1,234.56", "-4.50"}))
	assert.Equal(t, model.DecimalDot, ProbeDecimalSeparator(nil))
}

func TestSuggestMapping(t *testing.T) {
	m := SuggestMapping(rows(
		[]string{"15/01/2024", "Coffee shop", "-4,50", "995,50"},
		[]string{"16/01/2024", "Salary", "1.500,00", "2.495,50"},
	), 0)
	require.NotNil(t, m)
	assert.Equal(t, 0, m.DateColumn)
	assert.Equal(t, 1, *m.DescriptionColumn)
	assert.Equal(t, 2, *m.AmountColumn)
	assert.Equal(t, model.DecimalComma, m.DecimalSeparator)
	assert.False(t, m.Inferred)

	assert.Nil(t, SuggestMapping(rows([]string{"a", "b"}), 0))
}
