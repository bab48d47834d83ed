package service

import (
	"time"

	"hangout-api/modules/recurring/entity"
)

// OccurrencesBetween computes the occurrence dates of a template falling in
// [from, to] inclusive, honoring StartDate, EndDate and OccurrenceCount.
// Dates are returned at midnight UTC in ascending order.
func OccurrencesBetween(tmpl *entity.RecurringEvent, from, to time.Time) []time.Time {
	from = truncateDay(from)
	to = truncateDay(to)

	start := truncateDay(tmpl.StartDate)
	if from.Before(start) {
		from = start
	}
	if tmpl.EndDate != nil {
		end := truncateDay(*tmpl.EndDate)
		if to.After(end) {
			to = end
		}
	}
	if to.Before(from) {
		return nil
	}

	// OccurrenceCount bounds the total generated from StartDate, so the
	// sequence is walked from the beginning even when the window starts later.
	var out []time.Time
	count := 0
	for d := start; !d.After(to); d = d.AddDate(0, 0, 1) {
		if !matches(tmpl, d) {
			continue
		}
		count++
		if tmpl.OccurrenceCount != nil && count > *tmpl.OccurrenceCount {
			break
		}
		if d.Before(from) {
			continue
		}
		out = append(out, d)
	}
	return out
}

func matches(tmpl *entity.RecurringEvent, d time.Time) bool {
	switch tmpl.Pattern {
	case entity.PatternDaily:
		return true
	case entity.PatternWeekly:
		return tmpl.DaysOfWeek.Has(d.Weekday())
	case entity.PatternMonthly:
		// Clamped to the last valid day of shorter months.
		return d.Day() == clampDayOfMonth(tmpl.DayOfMonth, d.Year(), d.Month())
	case entity.PatternYearly:
		if int(d.Month()) != tmpl.Month {
			return false
		}
		return d.Day() == clampDayOfMonth(tmpl.DayOfYear, d.Year(), d.Month())
	default:
		return false
	}
}

func clampDayOfMonth(day, year int, month time.Month) int {
	last := daysIn(year, month)
	if day > last {
		return last
	}
	if day < 1 {
		return 1
	}
	return day
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
