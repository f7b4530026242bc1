//go:build e2e

package storefront_test

import (
	"fmt"
	"net/http"
	"sync"
	"testing"

	"storefront/internal/handler/dto/request"
	"storefront/internal/handler/dto/response"
	"storefront/internal/usecase/queries"
	"storefront/tests/common/authtest"
	"storefront/tests/common/builder"
	"storefront/tests/common/dbtest"
	"storefront/tests/common/httptest"
	"storefront/tests/e2e"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

const (
	productsURL = "/api/products"
	cartAddURL  = "/api/cart/add"
	cartURL     = "/api/cart"
	checkoutURL = "/api/orders/checkout"
	myOrdersURL = "/api/orders/my"
	cancelURL   = "/api/orders/%s/cancel"
	statusURL   = "/api/admin/orders/%s/status"
)

type StorefrontSuite struct {
	e2e.SharedSuite
	jwt *authtest.JWTHelper
}

func (s *StorefrontSuite) SetupSuite() {
	s.SharedSuite.SetupSuite()
	s.jwt = authtest.NewJWTHelper(s.Config.JWT)
}

func (s *StorefrontSuite) SetupSubTest() {
	s.SharedSuite.SetupSubTest()
}

func TestStorefrontSuite(t *testing.T) {
	t.Parallel()
	suite.Run(t, new(StorefrontSuite))
}

func (s *StorefrontSuite) addToCart(t *testing.T, token string, productID uuid.UUID, qty int) int {
	t.Helper()
	w := httptest.PerformRequest(t, s.Router, http.MethodPost, cartAddURL,
		request.AddItemRequest{ProductID: productID.String(), Qty: qty}, token)
	return w.Code
}

func (s *StorefrontSuite) TestProductAdministration() {
	s.Run("admin creates a product and everyone can read it", func() {
		t := s.T()
		_, adminToken := s.jwt.Admin(t)

		body := builder.NewProductBuilder().With(func(b *builder.ProductBuilder) {
			b.Name = "Linen apron"
			b.Price = decimal.RequireFromString("24.90")
			b.Stock = 7
		}).BuildCreateDTO()

		w := httptest.PerformRequest(t, s.Router, http.MethodPost, productsURL, body, adminToken)
		var created queries.ProductView
		httptest.AssertSuccessResponse(t, w, http.StatusCreated, &created)
		assert.Equal(t, "Linen apron", created.Name)
		assert.True(t, decimal.RequireFromString("24.90").Equal(created.Price))
		assert.Equal(t, 7, created.Available)

		w = httptest.PerformRequest(t, s.Router, http.MethodGet, productsURL, nil, "")
		var list []queries.ProductView
		httptest.AssertSuccessResponse(t, w, http.StatusOK, &list)
		require.Len(t, list, 1)
		assert.Equal(t, created.ID, list[0].ID)
	})

	s.Run("customers cannot manage the catalogue", func() {
		t := s.T()
		_, token := s.jwt.Customer(t)

		w := httptest.PerformRequest(t, s.Router, http.MethodPost, productsURL,
			builder.NewProductBuilder().BuildCreateDTO(), token)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	s.Run("missing token is rejected", func() {
		t := s.T()
		w := httptest.PerformRequest(t, s.Router, http.MethodPost, productsURL,
			builder.NewProductBuilder().BuildCreateDTO(), "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	s.Run("stock cannot drop below what carts hold", func() {
		t := s.T()
		_, adminToken := s.jwt.Admin(t)
		_, token := s.jwt.Customer(t)
		productID := dbtest.CreateTestProduct(t, s.DB, "Teapot", "30.00", 5)
		require.Equal(t, http.StatusOK, s.addToCart(t, token, productID, 3))

		stock := 2
		w := httptest.PerformRequest(t, s.Router, http.MethodPut, productsURL+"/"+productID.String(),
			request.UpdateProductRequest{Stock: &stock}, adminToken)
		httptest.AssertErrorResponse(t, w, http.StatusBadRequest, "")

		got, reserved := dbtest.ProductCounters(t, s.DB, productID)
		assert.Equal(t, 5, got)
		assert.Equal(t, 3, reserved)
	})
}

func (s *StorefrontSuite) TestCartReservation() {
	s.Run("adding reserves stock and the counters agree with cart contents", func() {
		t := s.T()
		_, token := s.jwt.Customer(t)
		productID := dbtest.CreateTestProduct(t, s.DB, "Mug", "12.50", 4)

		require.Equal(t, http.StatusOK, s.addToCart(t, token, productID, 3))

		_, reserved := dbtest.ProductCounters(t, s.DB, productID)
		assert.Equal(t, 3, reserved)
		assert.Equal(t, reserved, dbtest.ReservedInCarts(t, s.DB, productID))

		w := httptest.PerformRequest(t, s.Router, http.MethodPost, cartAddURL,
			request.AddItemRequest{ProductID: productID.String(), Qty: 2}, token)
		httptest.AssertErrorResponse(t, w, http.StatusBadRequest, "Not enough stock available")

		w = httptest.PerformRequest(t, s.Router, http.MethodGet, cartURL, nil, token)
		var view queries.CartView
		httptest.AssertSuccessResponse(t, w, http.StatusOK, &view)
		require.Len(t, view.Items, 1)
		assert.Equal(t, 3, view.Items[0].Qty)
		assert.NotNil(t, view.ExpiresAt)
	})

	s.Run("concurrent adds never oversell", func() {
		t := s.T()
		productID := dbtest.CreateTestProduct(t, s.DB, "Limited print", "80.00", 5)

		tokens := make([]string, 12)
		for i := range tokens {
			_, tokens[i] = s.jwt.Customer(t)
		}

		var (
			wg sync.WaitGroup
			mu sync.Mutex
			ok int
		)
		for _, token := range tokens {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if s.addToCart(t, token, productID, 1) == http.StatusOK {
					mu.Lock()
					ok++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 5, ok)
		stock, reserved := dbtest.ProductCounters(t, s.DB, productID)
		assert.Equal(t, 5, stock)
		assert.Equal(t, 5, reserved)
		assert.Equal(t, 5, dbtest.ReservedInCarts(t, s.DB, productID))
	})

	s.Run("an expired cart gives its reservation back", func() {
		t := s.T()
		userID, token := s.jwt.Customer(t)
		productID := dbtest.CreateTestProduct(t, s.DB, "Bowl", "9.00", 3)
		require.Equal(t, http.StatusOK, s.addToCart(t, token, productID, 3))

		dbtest.ExpireCart(t, s.DB, userID)

		w := httptest.PerformRequest(t, s.Router, http.MethodGet, cartURL, nil, token)
		var view queries.CartView
		httptest.AssertSuccessResponse(t, w, http.StatusOK, &view)
		assert.Equal(t, "expired", view.Status)
		assert.Empty(t, view.Items)

		_, reserved := dbtest.ProductCounters(t, s.DB, productID)
		assert.Equal(t, 0, reserved)
	})
}

func (s *StorefrontSuite) TestCheckoutFlow() {
	s.Run("checkout sells reserved stock and replays with the same key", func() {
		t := s.T()
		_, token := s.jwt.Customer(t)
		productID := dbtest.CreateTestProduct(t, s.DB, "Mug", "12.50", 10)
		require.Equal(t, http.StatusOK, s.addToCart(t, token, productID, 2))

		headers := map[string]string{"Idempotency-Key": "e2e-checkout-1"}
		body := request.CheckoutRequest{PaymentMethod: "card_sim", PaymentID: "SIM_0123456789AB", PaymentLast4: "4242"}

		w := httptest.PerformRequestWithHeaders(t, s.Router, http.MethodPost, checkoutURL, body, token, headers)
		var first queries.OrderView
		httptest.AssertSuccessResponse(t, w, http.StatusCreated, &first)
		assert.True(t, decimal.RequireFromString("25").Equal(first.Total))
		assert.Equal(t, "paid", first.PaymentStatus)
		assert.Equal(t, "pending", first.Status)

		stock, reserved := dbtest.ProductCounters(t, s.DB, productID)
		assert.Equal(t, 8, stock)
		assert.Equal(t, 0, reserved)

		w = httptest.PerformRequestWithHeaders(t, s.Router, http.MethodPost, checkoutURL, body, token, headers)
		var replay queries.OrderView
		httptest.AssertSuccessResponse(t, w, http.StatusOK, &replay)
		httptest.AssertHeaders(t, w, map[string]string{"Idempotent-Replayed": "true"})
		assert.Equal(t, first.ID, replay.ID)

		stock, _ = dbtest.ProductCounters(t, s.DB, productID)
		assert.Equal(t, 8, stock)
		assert.Equal(t, 1, dbtest.PendingEventCount(t, s.DB))
	})

	s.Run("empty cart cannot be checked out", func() {
		t := s.T()
		_, token := s.jwt.Customer(t)
		w := httptest.PerformRequest(t, s.Router, http.MethodPost, checkoutURL,
			request.CheckoutRequest{PaymentMethod: "cod"}, token)
		httptest.AssertErrorResponse(t, w, http.StatusBadRequest, "")
	})

	s.Run("cancel restocks and refunds a paid order", func() {
		t := s.T()
		_, token := s.jwt.Customer(t)
		productID := dbtest.CreateTestProduct(t, s.DB, "Vase", "40.00", 3)
		require.Equal(t, http.StatusOK, s.addToCart(t, token, productID, 1))

		w := httptest.PerformRequest(t, s.Router, http.MethodPost, checkoutURL,
			request.CheckoutRequest{PaymentMethod: "card_sim", PaymentID: "SIM_FFFFFFFFFFFF", PaymentLast4: "1111"}, token)
		var created queries.OrderView
		httptest.AssertSuccessResponse(t, w, http.StatusCreated, &created)

		w = httptest.PerformRequest(t, s.Router, http.MethodPost, fmt.Sprintf(cancelURL, created.ID), nil, token)
		var cancelled response.CancelOrderResponse
		httptest.AssertSuccessResponse(t, w, http.StatusOK, &cancelled)
		assert.True(t, cancelled.OK)
		assert.Equal(t, 1, cancelled.CancelCount)
		assert.Equal(t, "refunded", cancelled.PaymentStatus)
		require.NotNil(t, cancelled.RefundID)

		stock, _ := dbtest.ProductCounters(t, s.DB, productID)
		assert.Equal(t, 3, stock)

		w = httptest.PerformRequest(t, s.Router, http.MethodGet, myOrdersURL, nil, token)
		var mine []queries.OrderView
		httptest.AssertSuccessResponse(t, w, http.StatusOK, &mine)
		require.Len(t, mine, 1)
		assert.Equal(t, "cancelled", mine[0].Status)
	})

	s.Run("admin advances an order and shipped orders cannot be cancelled", func() {
		t := s.T()
		_, adminToken := s.jwt.Admin(t)
		_, token := s.jwt.Customer(t)
		productID := dbtest.CreateTestProduct(t, s.DB, "Plate", "15.00", 2)
		require.Equal(t, http.StatusOK, s.addToCart(t, token, productID, 1))

		w := httptest.PerformRequest(t, s.Router, http.MethodPost, checkoutURL,
			request.CheckoutRequest{PaymentMethod: "cod"}, token)
		var created queries.OrderView
		httptest.AssertSuccessResponse(t, w, http.StatusCreated, &created)
		assert.Equal(t, "pending", created.PaymentStatus)

		w = httptest.PerformRequest(t, s.Router, http.MethodPatch, fmt.Sprintf(statusURL, created.ID),
			request.UpdateOrderStatusRequest{NextStatus: "shipped"}, adminToken)
		var shipped queries.OrderView
		httptest.AssertSuccessResponse(t, w, http.StatusOK, &shipped)
		assert.Equal(t, "shipped", shipped.Status)
		assert.NotNil(t, shipped.ShippedAt)

		w = httptest.PerformRequest(t, s.Router, http.MethodPost, fmt.Sprintf(cancelURL, created.ID), nil, token)
		httptest.AssertErrorResponse(t, w, http.StatusBadRequest, "You can cancel only pending orders")
	})
}
