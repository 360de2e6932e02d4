package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlots(t *testing.T) {
	slots := Slots()

	require.Len(t, slots, 32)
	assert.Equal(t, "06:00", slots[0])
	assert.Equal(t, "06:30", slots[1])
	assert.Equal(t, "21:30", slots[len(slots)-1])

	t.Run("returned slice is a copy", func(t *testing.T) {
		slots[0] = "mutated"
		assert.Equal(t, "06:00", Slots()[0])
	})
}

func TestValidSlot(t *testing.T) {
	tests := []struct {
		slot  string
		valid bool
	}{
		{"06:00", true},
		{"12:30", true},
		{"21:30", true},
		{"05:30", false},
		{"22:00", false},
		{"12:15", false},
		{"6:00", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.slot, func(t *testing.T) {
			assert.Equal(t, tt.valid, ValidSlot(tt.slot))
		})
	}
}

func TestNormalizeDate(t *testing.T) {
	t.Run("valid date round-trips", func(t *testing.T) {
		d, err := NormalizeDate("2025-03-09")
		require.NoError(t, err)
		assert.Equal(t, "2025-03-09", d)
	})

	t.Run("invalid date", func(t *testing.T) {
		_, err := NormalizeDate("03/09/2025")
		assert.ErrorIs(t, err, ErrInvalidDate)
	})

	t.Run("empty date", func(t *testing.T) {
		_, err := NormalizeDate("")
		assert.ErrorIs(t, err, ErrInvalidDate)
	})
}

func TestSpan(t *testing.T) {
	// 2025-03-12 is a Wednesday.
	anchor := time.Date(2025, 3, 12, 15, 42, 0, 0, time.UTC)

	t.Run("week mode is Sunday anchored", func(t *testing.T) {
		days := Span(anchor, ModeWeek)

		require.Len(t, days, 7)
		assert.Equal(t, "2025-03-09", days[0].Format(DateLayout))
		assert.Equal(t, time.Sunday, days[0].Weekday())
		assert.Equal(t, "2025-03-15", days[6].Format(DateLayout))
		for _, d := range days {
			assert.Equal(t, 0, d.Hour())
		}
	})

	t.Run("sunday anchor starts its own week", func(t *testing.T) {
		sunday := time.Date(2025, 3, 9, 8, 0, 0, 0, time.UTC)
		days := Span(sunday, ModeWeek)
		assert.Equal(t, "2025-03-09", days[0].Format(DateLayout))
	})

	t.Run("day mode is a single day", func(t *testing.T) {
		days := Span(anchor, ModeDay)
		require.Len(t, days, 1)
		assert.Equal(t, "2025-03-12", days[0].Format(DateLayout))
	})
}

func TestNextPrev(t *testing.T) {
	anchor := time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC)

	t.Run("week steps by seven days", func(t *testing.T) {
		assert.Equal(t, "2025-03-19", Next(anchor, ModeWeek).Format(DateLayout))
		assert.Equal(t, "2025-03-05", Prev(anchor, ModeWeek).Format(DateLayout))
	})

	t.Run("day steps by one day", func(t *testing.T) {
		assert.Equal(t, "2025-03-13", Next(anchor, ModeDay).Format(DateLayout))
		assert.Equal(t, "2025-03-11", Prev(anchor, ModeDay).Format(DateLayout))
	})

	t.Run("next and prev are inverses", func(t *testing.T) {
		assert.Equal(t, anchor, Prev(Next(anchor, ModeWeek), ModeWeek))
	})
}
