package service

import (
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// yearBefore returns the date twelve calendar months before date.
func yearBefore(date string) (string, error) {
	t, err := time.Parse(dateLayout, date)
	if err != nil {
		return "", fmt.Errorf("latest date %q: %w", date, err)
	}
	return subtractMonths(t, 12).Format(dateLayout), nil
}

// subtractMonths moves t back n months keeping the day of month, clamped to the
// length of the target month. time.AddDate would roll 2016-02-29 over to March.
func subtractMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m-time.Month(n), 1, 0, 0, 0, 0, t.Location())
	if last := daysIn(first); d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func daysIn(firstOfMonth time.Time) int {
	return firstOfMonth.AddDate(0, 1, -1).Day()
}
