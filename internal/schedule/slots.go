package schedule

import (
	"fmt"
	"time"
)

// The calendar addresses occupancy by half-hour label, not by timestamp: two
// bookings differing by seconds within the same half hour collide. The slot
// set is fixed, 06:00 through 21:30 inclusive, 32 labels per day.
const (
	firstSlotHour = 6
	lastSlotHour  = 21
	slotsPerDay   = (lastSlotHour - firstSlotHour + 1) * 2
)

// DateLayout is the calendar-date key format, no time component.
const DateLayout = "2006-01-02"

var (
	slotLabels []string
	slotIndex  map[string]int
)

func init() {
	slotLabels = make([]string, 0, slotsPerDay)
	slotIndex = make(map[string]int, slotsPerDay)
	for hour := firstSlotHour; hour <= lastSlotHour; hour++ {
		for _, minute := range []int{0, 30} {
			label := fmt.Sprintf("%02d:%02d", hour, minute)
			slotIndex[label] = len(slotLabels)
			slotLabels = append(slotLabels, label)
		}
	}
}

// Slots returns the full day's slot labels in chronological order.
func Slots() []string {
	out := make([]string, len(slotLabels))
	copy(out, slotLabels)
	return out
}

func ValidSlot(label string) bool {
	_, ok := slotIndex[label]
	return ok
}

// NormalizeDate parses and reformats a calendar date so that equal days
// always produce equal keys.
func NormalizeDate(s string) (string, error) {
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return d.Format(DateLayout), nil
}

type ViewMode string

const (
	ModeWeek ViewMode = "week"
	ModeDay  ViewMode = "day"
)

// Span returns the calendar days the view shows for an anchor date:
// the Sunday-anchored week containing it, or the single day.
func Span(anchor time.Time, mode ViewMode) []time.Time {
	day := time.Date(anchor.Year(), anchor.Month(), anchor.Day(), 0, 0, 0, 0, anchor.Location())
	if mode == ModeDay {
		return []time.Time{day}
	}

	start := day.AddDate(0, 0, -int(day.Weekday()))
	days := make([]time.Time, 7)
	for i := range days {
		days[i] = start.AddDate(0, 0, i)
	}
	return days
}

// Next and Prev shift the anchor by one view-window: 7 days in week mode,
// 1 day in day mode.
func Next(anchor time.Time, mode ViewMode) time.Time {
	return anchor.AddDate(0, 0, spanDays(mode))
}

func Prev(anchor time.Time, mode ViewMode) time.Time {
	return anchor.AddDate(0, 0, -spanDays(mode))
}

func spanDays(mode ViewMode) int {
	if mode == ModeDay {
		return 1
	}
	return 7
}
