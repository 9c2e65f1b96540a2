package normalizer

import (
	"math"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/statement-import/internal/domain/import/model"
)

var (
	currencyGlyphs = strings.NewReplacer(
		"R$", "", "US$", "", "$", "", "\u20ac", "", "\u00a3", "", "\u00a5", "", "\u20b9", "",
		"\u20bd", "", "\u20a9", "", "\u20ba", "", " ", "", "\u00a0", "", "\u202f", "", "'", "",
	)
	currencyCodeRegexp = regexp.MustCompile(`^[A-Za-z]{3}\s*|\s*[A-Za-z]{3}$`)
	plainNumberRegexp  = regexp.MustCompile(`^(\d+(\.\d*)?|\.\d+)$`)

	maxMinor = decimal.NewFromInt(math.MaxInt64)
)

// ParseAmount converts an amount cell into signed minor units. Parentheses and a leading
// or trailing minus mark a negative value. With inferred set the decimal mark is resolved
// per value: when both separators occur the last one is decimal, a separator repeated more
// than once is a thousands mark, and a single separator is decimal. Values are rounded
// half-up to two fraction digits. Empty, unparseable or out-of-range input returns false.
func ParseAmount(text string, sep model.DecimalSeparator, inferred bool) (int64, bool) {
	s := strings.TrimSpace(text)
	if s == "" {
		return 0, false
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	s = currencyCodeRegexp.ReplaceAllString(s, "")
	s = currencyGlyphs.Replace(s)

	switch {
	case strings.HasPrefix(s, "-"):
		negative = true
		s = s[1:]
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	case strings.HasSuffix(s, "-"):
		negative = true
		s = s[:len(s)-1]
	}
	// A currency glyph may sit between the sign and the digits.
	s = currencyGlyphs.Replace(s)

	s = resolveSeparators(s, sep, inferred)
	if !plainNumberRegexp.MatchString(s) {
		return 0, false
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, false
	}

	// Rounding the magnitude makes Round's half-away-from-zero behave as half-up.
	shifted := d.Round(2).Shift(2)
	if shifted.GreaterThan(maxMinor) {
		return 0, false
	}
	minor := shifted.IntPart()
	if negative {
		minor = -minor
	}
	return minor, true
}

func resolveSeparators(s string, sep model.DecimalSeparator, inferred bool) string {
	if inferred {
		lastComma := strings.LastIndex(s, ",")
		lastDot := strings.LastIndex(s, ".")
		switch {
		case lastComma >= 0 && lastDot >= 0:
			if lastComma > lastDot {
				sep = model.DecimalComma
			} else {
				sep = model.DecimalDot
			}
		case lastComma >= 0:
			if strings.Count(s, ",") > 1 {
				return strings.ReplaceAll(s, ",", "")
			}
			sep = model.DecimalComma
		case lastDot >= 0:
			if strings.Count(s, ".") > 1 {
				return strings.ReplaceAll(s, ".", "")
			}
			sep = model.DecimalDot
		}
	}

	if sep == model.DecimalComma {
		s = strings.ReplaceAll(s, ".", "")
		return strings.ReplaceAll(s, ",", ".")
	}
	return strings.ReplaceAll(s, ",", "")
}
