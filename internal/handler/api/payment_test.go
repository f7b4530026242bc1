//go:build unit

package api_test

import (
	"net/http"
	"testing"

	"storefront/internal/domain/order"
	"storefront/internal/domain/user"
	"storefront/internal/handler/api"
	resdto "storefront/internal/handler/dto/response"
	"storefront/internal/usecase/commands"
	"storefront/tests/common/httptest"
	commandsmock "storefront/tests/mock/commands"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type PaymentHandlerTestSuite struct {
	suite.Suite
	router       *gin.Engine
	mockCtrl     *gomock.Controller
	mockCommands *commandsmock.MockPaymentCommands
}

func (s *PaymentHandlerTestSuite) SetupTest() {
	s.router = newTestRouter()
	s.mockCtrl = gomock.NewController(s.T())
	s.mockCommands = commandsmock.NewMockPaymentCommands(s.mockCtrl)

	h := api.NewPaymentHandler(s.mockCommands)
	s.router.POST("/payments/simulate", fakeAuth(uuid.New(), user.RoleCustomer), h.Simulate)
}

func (s *PaymentHandlerTestSuite) TearDownTest() {
	s.mockCtrl.Finish()
}

func TestPaymentHandlerSuite(t *testing.T) {
	suite.Run(t, new(PaymentHandlerTestSuite))
}

func (s *PaymentHandlerTestSuite) TestSimulate() {
	url := "/payments/simulate"

	s.Run("success: returns the simulated payment", func() {
		s.mockCommands.EXPECT().Simulate("4242 4242 4242 4242").Return(&commands.PaymentResult{
			PaymentStatus: order.PaymentPaid,
			PaymentID:     "SIM_A1B2C3D4E5F6",
			Last4:         "4242",
		}, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url,
			map[string]string{"cardNumber": "4242 4242 4242 4242"}, "token")

		var got resdto.PaymentResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &got)
		s.True(got.OK)
		s.Equal("paid", got.PaymentStatus)
		s.Equal("SIM_A1B2C3D4E5F6", got.PaymentID)
		s.Equal("4242", got.Last4)
	})

	s.Run("error: Luhn failure answers with a failed payment body", func() {
		s.mockCommands.EXPECT().Simulate("1234567812345678").Return(nil, commands.ErrPaymentDeclined).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url,
			map[string]string{"cardNumber": "1234567812345678"}, "token")

		s.Equal(http.StatusBadRequest, rec.Code)
		var got resdto.PaymentResponse
		s.Require().NoError(httptest.DecodeResponseBody(s.T(), rec.Body, &got))
		s.False(got.OK)
		s.Equal("failed", got.PaymentStatus)
		s.Equal("Payment failed: invalid card number (Luhn)", got.Message)
	})

	s.Run("error: missing body is a missing card number", func() {
		s.mockCommands.EXPECT().Simulate("").Return(nil, commands.ErrCardRequired).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, nil, "token")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "cardNumber is required")
	})
}
