package user

import (
	"errors"
	"time"
)

var ErrInvalidRole = errors.New("invalid role")

// MonthKeyLayout formats the calendar month a cancellation counter belongs to.
const MonthKeyLayout = "2006-01"

func MonthKey(t time.Time) string {
	return t.Format(MonthKeyLayout)
}

// RollCounter resets count when now falls in a different month than the one
// the counter was stored under.
func RollCounter(now time.Time, periodKey string, count int) (string, int) {
	current := MonthKey(now)
	if periodKey != current {
		return current, 0
	}
	return periodKey, count
}
