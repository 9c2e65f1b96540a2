package normalizer

import (
	"strings"
	"time"
)

// dateLayouts are tried in order. Day-first forms precede month-first forms, so an
// ambiguous 03/04/2024 reads as 3 April.
var dateLayouts = []string{
	// ISO
	"2006-01-02",
	"2006/1/2",
	"2006.1.2",
	// day-month-year
	"2/1/2006",
	"2-1-2006",
	"2.1.2006",
	"2/1/06",
	"2-1-06",
	"2.1.06",
	// month-day-year
	"1/2/2006",
	"1-2-2006",
	"1.2.2006",
	"1/2/06",
	"1-2-06",
	"1.2.06",
	// textual month
	"2 Jan 2006",
	"2-Jan-2006",
	"2 January 2006",
	"2-January-2006",
	"2 Jan 06",
	"2-Jan-06",
	"Jan 2, 2006",
	"January 2, 2006",
	"Jan 2 2006",
}

// ParseDate parses a statement date into a UTC calendar date. A non-empty override is
// used exclusively; it may be a Go layout or a token pattern such as DD/MM/YYYY.
func ParseDate(text, override string) (time.Time, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return time.Time{}, false
	}

	if override = strings.TrimSpace(override); override != "" {
		return parseWith(OverrideLayout(override), text)
	}

	// ISO timestamps keep only their calendar part.
	if len(text) > 10 && (text[10] == 'T' || text[10] == ' ') {
		if t, ok := parseWith("2006-01-02", text[:10]); ok {
			return t, true
		}
	}

	for _, layout := range dateLayouts {
		if t, ok := parseWith(layout, text); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

func parseWith(layout, text string) (time.Time, bool) {
	t, err := time.Parse(layout, text)
	if err != nil {
		return time.Time{}, false
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
}

var overrideTokens = strings.NewReplacer(
	"YYYY", "2006",
	"YY", "06",
	"MMMM", "January",
	"MMM", "Jan",
	"MM", "01",
	"DD", "02",
	"M", "1",
	"D", "2",
)

// OverrideLayout converts a DD/MM/YYYY-style pattern into a Go layout. Strings without
// such tokens are assumed to be Go layouts already.
func OverrideLayout(pattern string) string {
	upper := strings.ToUpper(pattern)
	if !strings.Contains(upper, "YY") && !strings.Contains(upper, "DD") && !strings.Contains(upper, "MM") {
		return pattern
	}
	return overrideTokens.Replace(upper)
}
