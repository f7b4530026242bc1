//go:build unit

package usecase_test

import (
	"testing"
	"time"

	"storefront/internal/domain/user"
	"storefront/internal/pkg/jwt"
	"storefront/internal/usecase"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenValidator(t *testing.T) {
	svc := jwt.NewService("test-secret", time.Hour)
	v := usecase.NewTokenValidator(svc)

	t.Run("customer token resolves to its user", func(t *testing.T) {
		id := uuid.New()
		token, err := svc.GenerateToken(id, user.RoleCustomer)
		require.NoError(t, err)

		gotID, role, err := v.ValidateToken(token)
		require.NoError(t, err)
		assert.Equal(t, id, gotID)
		assert.Equal(t, user.RoleCustomer, role)
	})

	t.Run("unknown role is rejected", func(t *testing.T) {
		claims := jwt.Claims{
			UserID: uuid.New(),
			Role:   "viewer",
			RegisteredClaims: gojwt.RegisteredClaims{
				ExpiresAt: gojwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}
		token, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
		require.NoError(t, err)

		_, _, err = v.ValidateToken(token)
		assert.ErrorIs(t, err, user.ErrInvalidRole)
	})

	t.Run("token signed with another secret is rejected", func(t *testing.T) {
		token, err := jwt.NewService("other-secret", time.Hour).GenerateToken(uuid.New(), user.RoleAdmin)
		require.NoError(t, err)

		_, _, err = v.ValidateToken(token)
		assert.ErrorIs(t, err, jwt.ErrInvalidToken)
	})
}
