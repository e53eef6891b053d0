// utils/workdays.go - Business-day calendar arithmetic
package utils

import "time"

// AddBusinessDays returns t advanced by n business days, counting only
// Monday through Friday. A request made on a Friday with n=10 therefore
// lands 14 calendar days later, past both intervening weekends.
func AddBusinessDays(t time.Time, n int) time.Time {
	deadline := t
	for added := 0; added < n; {
		deadline = deadline.AddDate(0, 0, 1)
		switch deadline.Weekday() {
		case time.Saturday, time.Sunday:
			continue
		default:
			added++
		}
	}
	return deadline
}

// DaysOverdue reports how many whole or partial days now is past due,
// rounding up. Zero or negative means not overdue.
func DaysOverdue(due, now time.Time) int {
	if !now.After(due) {
		return 0
	}
	const day = 24 * time.Hour
	overdue := now.Sub(due)
	days := int(overdue / day)
	if overdue%day != 0 {
		days++
	}
	return days
}
