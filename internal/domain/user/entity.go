package user

import (
	"time"

	"github.com/google/uuid"
)

// User carries the per-customer state the checkout flow needs. Identity and
// credentials are owned by the auth provider.
type User struct {
	id          uuid.UUID
	cancelMonth string
	cancelCount int
	createdAt   time.Time
	updatedAt   time.Time
}

func NewUser(id uuid.UUID, now time.Time) *User {
	return &User{
		id:          id,
		cancelMonth: MonthKey(now),
		createdAt:   now,
		updatedAt:   now,
	}
}

func ReconstructUser(id uuid.UUID, cancelMonth string, cancelCount int, createdAt, updatedAt time.Time) *User {
	return &User{
		id:          id,
		cancelMonth: cancelMonth,
		cancelCount: cancelCount,
		createdAt:   createdAt,
		updatedAt:   updatedAt,
	}
}

// RefreshCancellations rolls the counter into now's month. It reports whether
// anything changed so callers can skip a write.
func (u *User) RefreshCancellations(now time.Time) bool {
	month, count := RollCounter(now, u.cancelMonth, u.cancelCount)
	if month == u.cancelMonth && count == u.cancelCount {
		return false
	}
	u.cancelMonth, u.cancelCount = month, count
	u.updatedAt = now
	return true
}

func (u *User) CanCheckout(limit int) bool {
	return u.cancelCount < limit
}

func (u *User) RecordCancellation(now time.Time) int {
	u.RefreshCancellations(now)
	u.cancelCount++
	u.updatedAt = now
	return u.cancelCount
}

func (u *User) ID() uuid.UUID        { return u.id }
func (u *User) CancelMonth() string  { return u.cancelMonth }
func (u *User) CancelCount() int     { return u.cancelCount }
func (u *User) CreatedAt() time.Time { return u.createdAt }
func (u *User) UpdatedAt() time.Time { return u.updatedAt }
