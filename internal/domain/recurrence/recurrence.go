// Package recurrence implements the date arithmetic for recurring tasks.
//
// NextDueDate is a pure, total function: every pattern string maps to a next
// due date and no input produces an error. Unknown patterns (including
// "custom", whose cron expression is interpreted elsewhere) fall through to
// the daily step so a misconfigured recurring task keeps moving forward
// instead of stalling.
package recurrence

import (
	"time"

	"github.com/taskline/taskline-api/internal/domain"
)

// clampDay is the day-of-month used when the current due date's day does not
// exist in the target month (e.g. Jan 31 rolling into February). The value
// is deliberate: observable behavior depends on it, so it must not be
// "improved" into last-day-of-month logic.
const clampDay = 28

// NextDueDate computes the due date of the next instance of a recurring
// task from its pattern and current due date.
//
//   - daily:   +1 day
//   - weekly:  +7 days
//   - monthly: same day-of-month in the next month, clamped to day 28 when
//     that day does not exist in the target month
//   - anything else: +1 day
//
// The time of day and location of the input are preserved.
func NextDueDate(pattern domain.RecurrencePattern, currentDue time.Time) time.Time {
	switch pattern {
	case domain.RecurrenceDaily:
		return currentDue.AddDate(0, 0, 1)
	case domain.RecurrenceWeekly:
		return currentDue.AddDate(0, 0, 7)
	case domain.RecurrenceMonthly:
		return nextMonthly(currentDue)
	default:
		return currentDue.AddDate(0, 0, 1)
	}
}

// nextMonthly advances to the same day in the following month. AddDate is
// avoided here because it normalizes overflow (Jan 31 + 1 month = Mar 3);
// the required behavior is a clamp to day 28 instead.
func nextMonthly(currentDue time.Time) time.Time {
	year, month := currentDue.Year(), currentDue.Month()
	month++
	if month > time.December {
		month = time.January
		year++
	}

	day := currentDue.Day()
	if day > daysInMonth(year, month) {
		day = clampDay
	}

	return time.Date(
		year, month, day,
		currentDue.Hour(), currentDue.Minute(), currentDue.Second(), currentDue.Nanosecond(),
		currentDue.Location(),
	)
}

// daysInMonth returns the number of days in the given month, accounting for
// leap years.
func daysInMonth(year int, month time.Month) int {
	// Day zero of the following month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
