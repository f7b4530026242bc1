//go:build unit

package middleware_test

import (
	"log/slog"
	"net/http"
	"testing"

	"storefront/internal/domain/user"
	"storefront/internal/handler/middleware"
	"storefront/internal/pkg/errs"
	"storefront/tests/common/httptest"
	usecasemock "storefront/tests/mock/usecase"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type AuthMiddlewareTestSuite struct {
	suite.Suite
	router    *gin.Engine
	mockCtrl  *gomock.Controller
	validator *usecasemock.MockTokenValidator
}

func (s *AuthMiddlewareTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.router = gin.New()
	s.router.Use(middleware.ErrorHandler())

	s.mockCtrl = gomock.NewController(s.T())
	s.validator = usecasemock.NewMockTokenValidator(s.mockCtrl)
	auth := middleware.NewAuthMiddleware(s.validator, slog.New(slog.DiscardHandler))

	whoami := func(c *gin.Context) {
		id, _ := middleware.GetUserID(c)
		role, _ := middleware.GetUserRole(c)
		c.JSON(http.StatusOK, gin.H{"id": id.String(), "role": string(role)})
	}
	s.router.GET("/me", auth.RequireAuth(), whoami)
	s.router.GET("/admin", auth.RequireAuth(), auth.RequireRole(user.RoleAdmin), whoami)
	s.router.GET("/no-auth-admin", auth.RequireRole(user.RoleAdmin), whoami)
}

func (s *AuthMiddlewareTestSuite) TearDownTest() {
	s.mockCtrl.Finish()
}

func TestAuthMiddlewareSuite(t *testing.T) {
	suite.Run(t, new(AuthMiddlewareTestSuite))
}

func (s *AuthMiddlewareTestSuite) TestRequireAuth() {
	s.Run("success: claims land on the context", func() {
		id := uuid.New()
		s.validator.EXPECT().ValidateToken("good").Return(id, user.RoleCustomer, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/me", nil, "good")

		var body map[string]string
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &body)
		s.Equal(id.String(), body["id"])
		s.Equal("customer", body["role"])
	})

	s.Run("error: 401 without a bearer token", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/me", nil, "")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusUnauthorized, "Access token required")
	})

	s.Run("error: 401 for a non-bearer scheme", func() {
		rec := httptest.PerformRequestWithHeaders(s.T(), s.router, http.MethodGet, "/me", nil, "",
			map[string]string{"Authorization": "Basic Zm9vOmJhcg=="})
		httptest.AssertErrorResponse(s.T(), rec, http.StatusUnauthorized, "Access token required")
	})

	s.Run("error: 401 when validation fails", func() {
		s.validator.EXPECT().ValidateToken("stale").Return(uuid.Nil, user.Role(""), errs.New("token is expired")).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/me", nil, "stale")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusUnauthorized, "Invalid or expired token")
	})
}

func (s *AuthMiddlewareTestSuite) TestRequireRole() {
	s.Run("success: admin passes", func() {
		s.validator.EXPECT().ValidateToken("admin").Return(uuid.New(), user.RoleAdmin, nil).Times(1)
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/admin", nil, "admin")
		s.Equal(http.StatusOK, rec.Code)
	})

	s.Run("error: 403 for a customer", func() {
		s.validator.EXPECT().ValidateToken("customer").Return(uuid.New(), user.RoleCustomer, nil).Times(1)
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/admin", nil, "customer")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusForbidden, "Insufficient permissions")
	})

	s.Run("error: 500 when mounted without RequireAuth", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/no-auth-admin", nil, "")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusInternalServerError, "Internal server error")
	})
}
