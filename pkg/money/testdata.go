package money

import (
	"fmt"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"
)

// TestDataGenerator produces realistic statement lines for tests and demos.
type TestDataGenerator struct {
	faker *gofakeit.Faker
}

// NewTestDataGeneratorWithSeed creates a generator with a fixed seed for reproducibility.
func NewTestDataGeneratorWithSeed(seed int64) *TestDataGenerator {
	return &TestDataGenerator{faker: gofakeit.New(seed)}
}

// StatementLine is one generated bank statement entry.
type StatementLine struct {
	Date        time.Time
	Description string
	AmountMinor int64 // signed, never zero
}

var merchants = []string{
	"Coffee Shop", "Pingo Doce", "Continente", "Uber Trip", "Netflix", "Spotify",
	"Shell Station", "Amazon Mktp", "Farmacia Central", "Lidl", "Vodafone", "EDP Energia",
}

// Line generates a single entry dated within the month starting at from.
func (g *TestDataGenerator) Line(from time.Time) StatementLine {
	date := from.AddDate(0, 0, g.faker.Number(0, 27))
	date = time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)

	if g.faker.Number(1, 10) == 1 {
		return StatementLine{
			Date:        date,
			Description: "Salary " + g.faker.Company(),
			AmountMinor: int64(g.faker.Number(150000, 450000)),
		}
	}
	return StatementLine{
		Date:        date,
		Description: g.faker.RandomString(merchants) + " " + g.faker.City(),
		AmountMinor: -int64(g.faker.Number(1, 25000)),
	}
}

// Statement generates n entries starting at from.
func (g *TestDataGenerator) Statement(from time.Time, n int) []StatementLine {
	lines := make([]StatementLine, n)
	for i := range lines {
		lines[i] = g.Line(from)
	}
	return lines
}

// StatementCSV renders entries as a Date,Description,Amount file with dot decimals.
func StatementCSV(lines []StatementLine) string {
	var b strings.Builder
	b.WriteString("Date,Description,Amount\n")
	for _, l := range lines {
		fmt.Fprintf(&b, "%s,%q,%s\n", l.Date.Format("2006-01-02"), l.Description, New(l.AmountMinor, EUR).String())
	}
	return b.String()
}
