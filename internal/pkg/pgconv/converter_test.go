//go:build unit

package pgconv_test

import (
	"testing"
	"time"

	"storefront/internal/pkg/pgconv"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecimalNumericRoundTrip(t *testing.T) {
	for _, s := range []string{"0", "19.99", "1234567.005", "-3.5"} {
		d := decimal.RequireFromString(s)
		got, err := pgconv.DecimalFromNumeric(pgconv.NumericFromDecimal(d))
		require.NoError(t, err)
		assert.True(t, d.Equal(got), "%s != %s", d, got)
	}

	_, err := pgconv.DecimalFromNumeric(pgtype.Numeric{})
	assert.ErrorIs(t, err, pgconv.ErrInvalidNumeric)
	_, err = pgconv.DecimalFromNumeric(pgtype.Numeric{NaN: true, Valid: true})
	assert.ErrorIs(t, err, pgconv.ErrInvalidNumeric)
}

func TestNullableHelpers(t *testing.T) {
	assert.Nil(t, pgconv.TimePtrFromPgtype(pgtype.Timestamptz{}))
	now := time.Now()
	got := pgconv.TimePtrFromPgtype(pgconv.TimePtrToPgtype(&now))
	require.NotNil(t, got)
	assert.True(t, now.Equal(*got))

	assert.False(t, pgconv.StringToPgtype("").Valid)
	assert.Equal(t, "x", pgconv.StringFromPgtype(pgconv.StringToPgtype("x")))
	assert.Equal(t, "", pgconv.StringFromPgtype(pgtype.Text{}))
}
