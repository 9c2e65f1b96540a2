package parser

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// decodeText strips a UTF-8 BOM and decodes non-UTF-8 input as Windows-1252, the usual
// encoding of legacy bank exports. The bool reports whether a fallback decode happened.
func decodeText(data []byte) (string, bool) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return string(data), false
	}
	decoded, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err != nil {
		return string(bytes.ToValidUTF8(data, []byte("\uFFFD"))), true
	}
	return string(decoded), true
}

// splitLines splits text on LF, CRLF or lone CR.
func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return strings.Split(text, "\n")
}

// DetectCurrency guesses an ISO code from currency glyphs in a value.
func DetectCurrency(value string) (string, bool) {
	switch {
	case strings.Contains(value, "R$"):
		return "BRL", true
	case strings.Contains(value, "\u20ac"):
		return "EUR", true
	case strings.Contains(value, "\u00a3"):
		return "GBP", true
	case strings.Contains(value, "\u00a5") || strings.Contains(value, "\uffe5"):
		return "JPY", true
	case strings.Contains(value, "\u20b9"):
		return "INR", true
	case strings.Contains(value, "\u20bd"):
		return "RUB", true
	case strings.Contains(value, "\u20a9"):
		return "KRW", true
	case strings.Contains(value, "\u20ba"):
		return "TRY", true
	case strings.Contains(value, "$"):
		return "USD", true
	}
	return "", false
}

// IsCurrencyCode reports whether value looks like an ISO 4217 code.
func IsCurrencyCode(value string) bool {
	if len(value) != 3 {
		return false
	}
	for _, r := range value {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
