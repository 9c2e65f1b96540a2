// Package money formats integer minor-unit amounts with ISO-4217 currency rules.
package money

import (
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Common currency codes (ISO-4217)
const (
	USD = "USD"
	EUR = "EUR"
	GBP = "GBP"
	BRL = "BRL"
	JPY = "JPY" // no decimal places
)

// Money is a monetary value in minor units.
type Money struct {
	m *money.Money
}

// New creates a Money value from minor units. Unknown codes fall back to EUR.
func New(amountMinor int64, currencyCode string) *Money {
	return &Money{m: money.New(amountMinor, resolveCode(currencyCode))}
}

func resolveCode(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if money.GetCurrency(code) == nil {
		return EUR
	}
	return code
}

// Display returns the amount formatted for the currency, e.g. "$1,234.56".
func (m *Money) Display() string {
	if m == nil || m.m == nil {
		return ""
	}
	return m.m.Display()
}

// String returns the plain decimal amount, e.g. "-4.50".
func (m *Money) String() string {
	return m.toDecimal().StringFixed(m.fraction())
}

func (m *Money) toDecimal() decimal.Decimal {
	if m == nil || m.m == nil {
		return decimal.Zero
	}
	return decimal.New(m.m.Amount(), -m.fraction())
}

func (m *Money) fraction() int32 {
	if m == nil || m.m == nil {
		return 2
	}
	return int32(m.m.Currency().Fraction)
}

// Totals accumulates inflow and outflow for a batch of signed amounts.
type Totals struct {
	Currency string
	Inflow   int64
	Outflow  int64 // absolute value
}

// Summarize totals signed minor-unit amounts.
func Summarize(currencyCode string, amounts ...int64) Totals {
	t := Totals{Currency: resolveCode(currencyCode)}
	for _, a := range amounts {
		t.Add(a)
	}
	return t
}

// Add records one signed amount.
func (t *Totals) Add(signedMinor int64) {
	if signedMinor < 0 {
		t.Outflow -= signedMinor
		return
	}
	t.Inflow += signedMinor
}

// Net returns inflow minus outflow.
func (t Totals) Net() *Money {
	return New(t.Inflow-t.Outflow, t.Currency)
}

// InflowDisplay formats the inflow total.
func (t Totals) InflowDisplay() string {
	return New(t.Inflow, t.Currency).Display()
}

// OutflowDisplay formats the outflow total.
func (t Totals) OutflowDisplay() string {
	return New(t.Outflow, t.Currency).Display()
}
