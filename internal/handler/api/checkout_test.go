//go:build unit

package api_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"marketplace-checkout/internal/domain/delivery"
	"marketplace-checkout/internal/handler/api"
	resdto "marketplace-checkout/internal/handler/dto/response"
	"marketplace-checkout/internal/pkg/errs"
	"marketplace-checkout/internal/usecase/commands"
	"marketplace-checkout/internal/usecase/queries"
	"marketplace-checkout/tests/common/builder"
	"marketplace-checkout/tests/common/httptest"
	"marketplace-checkout/tests/common/testutil"
	commandsmock "marketplace-checkout/tests/mock/commands"
	queriesmock "marketplace-checkout/tests/mock/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type CheckoutHandlerTestSuite struct {
	suite.Suite
	router       *gin.Engine
	mockCtrl     *gomock.Controller
	mockCommands *commandsmock.MockCheckoutCommands
	mockQueries  *queriesmock.MockCheckoutQueries
	handler      *api.CheckoutHandler
}

func (s *CheckoutHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.router = gin.New()

	s.mockCtrl = gomock.NewController(s.T())
	s.mockCommands = commandsmock.NewMockCheckoutCommands(s.mockCtrl)
	s.mockQueries = queriesmock.NewMockCheckoutQueries(s.mockCtrl)
	s.handler = api.NewCheckoutHandler(s.mockCommands, s.mockQueries)

	s.router.POST("/checkouts", s.handler.Create)
	s.router.GET("/checkouts/:id/total", s.handler.GetTotal)
	s.router.GET("/checkouts/:id/order-status", s.handler.GetOrderStatus)
	s.router.GET("/checkouts/:id/order", s.handler.GetOrder)
}

func (s *CheckoutHandlerTestSuite) TearDownTest() {
	s.mockCtrl.Finish()
}

func TestCheckoutHandlerSuite(t *testing.T) {
	suite.Run(t, new(CheckoutHandlerTestSuite))
}

type testCaseCheckout struct {
	name       string
	mutate     func(m map[string]any)
	expectCode int
}

// ================================================================================
// TestCreate
// ================================================================================

func (s *CheckoutHandlerTestSuite) TestCreate() {
	url := "/checkouts"
	b := builder.NewCheckoutBuilder()
	reqBody := b.BuildCreateRequestDTO()

	s.Run("success: returns 201 with the redirect", func() {
		s.mockCommands.EXPECT().Checkout(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, req commands.CheckoutRequest) (*commands.CheckoutResult, error) {
				s.Equal(b.ProductID, req.Lines[0].ProductID)
				s.Equal(b.DeliveryAreaID, req.DeliveryAreaID)
				s.Equal(b.ContactPhone, req.ContactPhone)
				return b.BuildResult(), nil
			})

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, reqBody)

		var got resdto.CheckoutCreatedResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusCreated, &got)
		s.Equal(b.SessionID, got.ID)
		s.Equal("25.00", got.Total)
		s.Equal("USD", got.Currency)
		s.Equal("https://pay.example.com/"+b.PaymentSessionID, got.RedirectURL)
	})

	bindingCases := []testCaseCheckout{
		{name: "quantity below one", mutate: testutil.Field("lines.0.quantity", 0), expectCode: http.StatusBadRequest},
		{name: "line without product", mutate: testutil.Field("lines.0.productId", nil), expectCode: http.StatusBadRequest},
		{
			name: "negative quantity",
			mutate: func(m map[string]any) {
				m["lines"] = []map[string]any{{"productId": uuid.NewString(), "quantity": -2}}
			},
			expectCode: http.StatusBadRequest,
		},
		{name: "malformed area id", mutate: testutil.Field("deliveryAreaId", "not-a-uuid"), expectCode: http.StatusBadRequest},
	}
	for _, tc := range bindingCases {
		s.Run("validation: "+tc.name, func() {
			body := testutil.DtoMap(s.T(), reqBody, tc.mutate)
			rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, body)
			httptest.AssertErrorResponse(s.T(), rec, tc.expectCode, "Invalid request")
		})
	}

	errorCases := []struct {
		name       string
		err        error
		expectCode int
		expectMsg  string
	}{
		{name: "empty cart", err: commands.ErrEmptyCart, expectCode: http.StatusBadRequest, expectMsg: "Cart is empty"},
		{name: "mixed currencies", err: commands.ErrCurrencyMismatch, expectCode: http.StatusBadRequest, expectMsg: "Cart mixes currencies"},
		{name: "unknown product", err: errs.Wrap(commands.ErrProductNotFound, "abc"), expectCode: http.StatusNotFound, expectMsg: "Product not found"},
		{name: "unknown area", err: commands.ErrDeliveryAreaNotFound, expectCode: http.StatusNotFound, expectMsg: "Delivery area not found"},
		{name: "gateway down", err: errs.Mark(errors.New("dial tcp"), commands.ErrGatewayUnavailable), expectCode: http.StatusServiceUnavailable, expectMsg: "Payment provider unavailable"},
		{name: "unexpected", err: errors.New("boom"), expectCode: http.StatusInternalServerError, expectMsg: "Internal server error"},
	}
	for _, tc := range errorCases {
		s.Run("error: "+tc.name, func() {
			s.mockCommands.EXPECT().Checkout(gomock.Any(), gomock.Any()).Return(nil, tc.err)
			rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, reqBody)
			httptest.AssertErrorResponse(s.T(), rec, tc.expectCode, tc.expectMsg)
		})
	}

	s.Run("error: incomplete profile lists missing fields", func() {
		domainErr := &delivery.IncompleteProfileError{Missing: []string{"contact_phone_number"}}
		s.mockCommands.EXPECT().Checkout(gomock.Any(), gomock.Any()).
			Return(nil, errs.Mark(domainErr, commands.ErrIncompleteDeliveryProfile))

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, reqBody)
		resp := httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "Delivery details are incomplete")
		s.Equal(map[string]any{"missing": []any{"contact_phone_number"}}, resp.Detail)
	})
}

// ================================================================================
// TestGetTotal / TestGetOrderStatus / TestGetOrder
// ================================================================================

func (s *CheckoutHandlerTestSuite) TestGetTotal() {
	b := builder.NewCheckoutBuilder()
	url := "/checkouts/" + b.SessionID.String() + "/total"

	s.Run("success", func() {
		s.mockQueries.EXPECT().GetCheckoutTotal(gomock.Any(), b.SessionID).Return(b.BuildTotalView(), nil)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, url, nil)

		var got resdto.CheckoutTotalResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &got)
		s.Equal("20.00", got.Subtotal)
		s.Equal("5.00", got.DeliveryPrice)
		s.Equal("25.00", got.Total)
	})

	s.Run("not found", func() {
		s.mockQueries.EXPECT().GetCheckoutTotal(gomock.Any(), b.SessionID).Return(nil, queries.ErrCheckoutNotFound)
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, url, nil)
		httptest.AssertErrorResponse(s.T(), rec, http.StatusNotFound, "Checkout not found")
	})

	s.Run("invalid id", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/checkouts/nope/total", nil)
		httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "Invalid id")
	})
}

func (s *CheckoutHandlerTestSuite) TestGetOrderStatus() {
	b := builder.NewCheckoutBuilder()
	url := "/checkouts/" + b.SessionID.String() + "/order-status"
	orderID := uuid.New()

	s.Run("success", func() {
		s.mockQueries.EXPECT().GetOrderStatus(gomock.Any(), b.SessionID).Return(&queries.OrderStatusView{
			SessionID:     b.SessionID,
			SessionStatus: "paid",
			LedgerState:   "materialized",
			OrderID:       &orderID,
			Notifications: []queries.NotificationView{{Recipient: "buyer", Status: "failed", Attempts: 1}},
		}, nil)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, url, nil)

		var got resdto.OrderStatusResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &got)
		s.Equal("materialized", got.LedgerState)
		s.Require().NotNil(got.OrderID)
		s.Equal(orderID, *got.OrderID)
		s.Len(got.Notifications, 1)
	})

	s.Run("not found", func() {
		s.mockQueries.EXPECT().GetOrderStatus(gomock.Any(), b.SessionID).Return(nil, queries.ErrCheckoutNotFound)
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, url, nil)
		httptest.AssertErrorResponse(s.T(), rec, http.StatusNotFound, "Checkout not found")
	})
}

func (s *CheckoutHandlerTestSuite) TestGetOrder() {
	b := builder.NewCheckoutBuilder()
	url := "/checkouts/" + b.SessionID.String() + "/order"

	s.Run("success", func() {
		s.mockQueries.EXPECT().GetOrder(gomock.Any(), b.SessionID).Return(b.BuildOrderView(), nil)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, url, nil)

		var got resdto.OrderResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &got)
		s.Equal(b.SessionID, got.CheckoutID)
		s.Equal("City center", got.DeliveryAreaLabel)
		s.Len(got.Lines, 1)
	})

	s.Run("no order yet", func() {
		s.mockQueries.EXPECT().GetOrder(gomock.Any(), b.SessionID).Return(nil, queries.ErrOrderNotFound)
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, url, nil)
		httptest.AssertErrorResponse(s.T(), rec, http.StatusNotFound, "Order not found")
	})
}
