//go:build unit

package user_test

import (
	"testing"
	"time"

	"storefront/internal/domain/user"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRollCounter(t *testing.T) {
	jan := time.Date(2026, time.January, 31, 23, 59, 0, 0, time.UTC)
	feb := time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name      string
		now       time.Time
		storedKey string
		stored    int
		wantKey   string
		wantCount int
	}{
		{name: "同じ月はそのまま", now: jan, storedKey: "2026-01", stored: 4, wantKey: "2026-01", wantCount: 4},
		{name: "月が変わるとリセット", now: feb, storedKey: "2026-01", stored: 5, wantKey: "2026-02", wantCount: 0},
		{name: "未設定はリセット", now: jan, storedKey: "", stored: 3, wantKey: "2026-01", wantCount: 0},
		{name: "年をまたいでもリセット", now: time.Date(2027, time.January, 2, 0, 0, 0, 0, time.UTC), storedKey: "2026-01", stored: 2, wantKey: "2027-01", wantCount: 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			key, count := user.RollCounter(tc.now, tc.storedKey, tc.stored)
			assert.Equal(t, tc.wantKey, key)
			assert.Equal(t, tc.wantCount, count)
		})
	}
}

func TestUser_Cancellations(t *testing.T) {
	now := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

	t.Run("上限に達するとチェックアウト不可", func(t *testing.T) {
		u := user.NewUser(uuid.New(), now)
		for i := 1; i <= 5; i++ {
			assert.True(t, u.CanCheckout(5))
			require.Equal(t, i, u.RecordCancellation(now))
		}
		assert.False(t, u.CanCheckout(5))
	})

	t.Run("翌月に解除される", func(t *testing.T) {
		u := user.ReconstructUser(uuid.New(), "2026-03", 5, now, now)
		assert.False(t, u.CanCheckout(5))

		changed := u.RefreshCancellations(now.AddDate(0, 1, 0))
		assert.True(t, changed)
		assert.Equal(t, "2026-04", u.CancelMonth())
		assert.Equal(t, 0, u.CancelCount())
		assert.True(t, u.CanCheckout(5))
	})

	t.Run("同月の再計算は変更なし", func(t *testing.T) {
		u := user.ReconstructUser(uuid.New(), "2026-03", 2, now, now)
		assert.False(t, u.RefreshCancellations(now))
		assert.Equal(t, 2, u.CancelCount())
	})

	t.Run("前月のカウントは記録時に捨てられる", func(t *testing.T) {
		u := user.ReconstructUser(uuid.New(), "2026-02", 4, now, now)
		assert.Equal(t, 1, u.RecordCancellation(now))
	})
}

func TestNewRole(t *testing.T) {
	for _, s := range []string{"customer", "admin"} {
		r, err := user.NewRole(s)
		require.NoError(t, err)
		assert.Equal(t, s, r.String())
	}
	for _, s := range []string{"", "viewer", "ADMIN"} {
		_, err := user.NewRole(s)
		assert.ErrorIs(t, err, user.ErrInvalidRole)
	}
}
