package service

import (
	"testing"
	"time"

	"hangout-api/modules/recurring/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestOccurrencesBetween_Daily(t *testing.T) {
	tmpl := &entity.RecurringEvent{
		Pattern:   entity.PatternDaily,
		StartDate: day(2026, time.March, 1),
	}

	got := OccurrencesBetween(tmpl, day(2026, time.March, 3), day(2026, time.March, 5))
	assert.Equal(t, []time.Time{
		day(2026, time.March, 3),
		day(2026, time.March, 4),
		day(2026, time.March, 5),
	}, got)
}

func TestOccurrencesBetween_WeeklyMondayWednesday(t *testing.T) {
	tmpl := &entity.RecurringEvent{
		Pattern:    entity.PatternWeekly,
		DaysOfWeek: entity.MaskOf(time.Monday, time.Wednesday),
		StartDate:  day(2026, time.March, 2), // a Monday
	}

	got := OccurrencesBetween(tmpl, day(2026, time.March, 2), day(2026, time.March, 15))
	assert.Equal(t, []time.Time{
		day(2026, time.March, 2),
		day(2026, time.March, 4),
		day(2026, time.March, 9),
		day(2026, time.March, 11),
	}, got)
}

func TestOccurrencesBetween_MonthlyClampsShortMonths(t *testing.T) {
	tmpl := &entity.RecurringEvent{
		Pattern:    entity.PatternMonthly,
		DayOfMonth: 31,
		StartDate:  day(2026, time.January, 1),
	}

	got := OccurrencesBetween(tmpl, day(2026, time.January, 1), day(2026, time.April, 30))
	assert.Equal(t, []time.Time{
		day(2026, time.January, 31),
		day(2026, time.February, 28),
		day(2026, time.March, 31),
		day(2026, time.April, 30),
	}, got)
}

func TestOccurrencesBetween_MonthlyLeapFebruary(t *testing.T) {
	tmpl := &entity.RecurringEvent{
		Pattern:    entity.PatternMonthly,
		DayOfMonth: 30,
		StartDate:  day(2028, time.February, 1),
	}

	got := OccurrencesBetween(tmpl, day(2028, time.February, 1), day(2028, time.February, 29))
	assert.Equal(t, []time.Time{day(2028, time.February, 29)}, got)
}

func TestOccurrencesBetween_Yearly(t *testing.T) {
	tmpl := &entity.RecurringEvent{
		Pattern:   entity.PatternYearly,
		Month:     int(time.September),
		DayOfYear: 14,
		StartDate: day(2025, time.January, 1),
	}

	got := OccurrencesBetween(tmpl, day(2025, time.January, 1), day(2026, time.December, 31))
	assert.Equal(t, []time.Time{
		day(2025, time.September, 14),
		day(2026, time.September, 14),
	}, got)
}

func TestOccurrencesBetween_EndDateBoundsWindow(t *testing.T) {
	end := day(2026, time.March, 4)
	tmpl := &entity.RecurringEvent{
		Pattern:   entity.PatternDaily,
		StartDate: day(2026, time.March, 1),
		EndDate:   &end,
	}

	got := OccurrencesBetween(tmpl, day(2026, time.March, 3), day(2026, time.March, 10))
	assert.Equal(t, []time.Time{
		day(2026, time.March, 3),
		day(2026, time.March, 4),
	}, got)
}

func TestOccurrencesBetween_OccurrenceCountBoundsFromStartDate(t *testing.T) {
	count := 3
	tmpl := &entity.RecurringEvent{
		Pattern:         entity.PatternDaily,
		StartDate:       day(2026, time.March, 1),
		OccurrenceCount: &count,
	}

	// The first three occurrences are March 1-3; a window starting later
	// yields nothing because the series is already exhausted.
	got := OccurrencesBetween(tmpl, day(2026, time.March, 1), day(2026, time.March, 10))
	require.Equal(t, []time.Time{
		day(2026, time.March, 1),
		day(2026, time.March, 2),
		day(2026, time.March, 3),
	}, got)

	assert.Empty(t, OccurrencesBetween(tmpl, day(2026, time.March, 4), day(2026, time.March, 10)))
}

func TestOccurrencesBetween_WindowBeforeStartDate(t *testing.T) {
	tmpl := &entity.RecurringEvent{
		Pattern:   entity.PatternDaily,
		StartDate: day(2026, time.June, 1),
	}

	assert.Empty(t, OccurrencesBetween(tmpl, day(2026, time.May, 1), day(2026, time.May, 31)))
}

func TestOccurrencesBetween_Deterministic(t *testing.T) {
	tmpl := &entity.RecurringEvent{
		Pattern:    entity.PatternWeekly,
		DaysOfWeek: entity.MaskOf(time.Friday),
		StartDate:  day(2026, time.January, 2),
	}

	first := OccurrencesBetween(tmpl, day(2026, time.February, 1), day(2026, time.February, 28))
	second := OccurrencesBetween(tmpl, day(2026, time.February, 1), day(2026, time.February, 28))
	assert.Equal(t, first, second)
	require.Len(t, first, 4)
}

func TestWeekdayMask(t *testing.T) {
	mask := entity.MaskOf(time.Sunday, time.Saturday)
	assert.True(t, mask.Has(time.Sunday))
	assert.True(t, mask.Has(time.Saturday))
	assert.False(t, mask.Has(time.Wednesday))
}
