package normalizer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		input string
		want  time.Time
		ok    bool
	}{
		{"2026-01-05", day(2026, 1, 5), true},
		{"2026-01-05T13:45:00Z", day(2026, 1, 5), true},
		{"2026-01-05 13:45:00", day(2026, 1, 5), true},
		{"2024/3/9", day(2024, 3, 9), true},
		{"15/01/2024", day(2024, 1, 15), true},
		{"03/04/2024", day(2024, 4, 3), true},
		{"01/15/2024", day(2024, 1, 15), true},
		{"5-1-2024", day(2024, 1, 5), true},
		{"15.01.2024", day(2024, 1, 15), true},
		{"15/01/24", day(2024, 1, 15), true},
		{"12 Jan 2026", day(2026, 1, 12), true},
		{"12-Jan-2026", day(2026, 1, 12), true},
		{"12 JAN 2026", day(2026, 1, 12), true},
		{"3 March 2025", day(2025, 3, 3), true},
		{"Jan 2, 2006", day(2006, 1, 2), true},
		{"  2026-01-05  ", day(2026, 1, 5), true},
		{"32/01/2024", time.Time{}, false},
		{"31/02/2024", time.Time{}, false},
		{"13/13/2024", time.Time{}, false},
		{"yesterday", time.Time{}, false},
		{"", time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseDate(tt.input, "")
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.True(t, tt.want.Equal(got), "got %v", got)
				assert.Equal(t, time.UTC, got.Location())
			}
		})
	}
}

func TestParseDate_Override(t *testing.T) {
	t.Run("token pattern", func(t *testing.T) {
		got, ok := ParseDate("01/02/2024", "MM/DD/YYYY")
		assert.True(t, ok)
		assert.True(t, day(2024, 1, 2).Equal(got))
	})

	t.Run("go layout", func(t *testing.T) {
		got, ok := ParseDate("2024|02|01", "2006|01|02")
		assert.True(t, ok)
		assert.True(t, day(2024, 2, 1).Equal(got))
	})

	t.Run("override is exclusive", func(t *testing.T) {
		_, ok := ParseDate("2024-02-01", "DD/MM/YYYY")
		assert.False(t, ok)
	})
}

func TestOverrideLayout(t *testing.T) {
	assert.Equal(t, "02/01/2006", OverrideLayout("DD/MM/YYYY"))
	assert.Equal(t, "02/01/2006", OverrideLayout("dd/mm/yyyy"))
	assert.Equal(t, "2006-01-02", OverrideLayout("YYYY-MM-DD"))
	assert.Equal(t, "02-Jan-06", OverrideLayout("DD-MMM-YY"))
	assert.Equal(t, "Jan 2, 2006", OverrideLayout("Jan 2, 2006"))
}
