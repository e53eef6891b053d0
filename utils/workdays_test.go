package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAddBusinessDaysSkipsWeekends(t *testing.T) {
	// 2026-03-06 is a Friday.
	friday := time.Date(2026, 3, 6, 10, 0, 0, 0, time.UTC)

	// Ten business days span two weekends.
	assert.Equal(t, friday.AddDate(0, 0, 14), AddBusinessDays(friday, 10))

	// One business day from Friday is Monday.
	assert.Equal(t, friday.AddDate(0, 0, 3), AddBusinessDays(friday, 1))

	// Midweek additions with no weekend in between stay calendar-equal.
	monday := time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, monday.AddDate(0, 0, 4), AddBusinessDays(monday, 4))

	// Starting on a Saturday counts from the following Monday.
	saturday := time.Date(2026, 3, 7, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC), AddBusinessDays(saturday, 1))

	assert.Equal(t, friday, AddBusinessDays(friday, 0))
}

func TestDaysOverdueRoundsUp(t *testing.T) {
	due := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, 0, DaysOverdue(due, due))
	assert.Equal(t, 0, DaysOverdue(due, due.Add(-time.Hour)))
	assert.Equal(t, 1, DaysOverdue(due, due.Add(time.Minute)))
	assert.Equal(t, 1, DaysOverdue(due, due.Add(24*time.Hour)))
	assert.Equal(t, 2, DaysOverdue(due, due.Add(25*time.Hour)))
	assert.Equal(t, 3, DaysOverdue(due, due.AddDate(0, 0, 3)))
}
