//go:build unit

package handler_test

import (
	"fmt"
	"io"
	"net/http"
	nethttptest "net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"marketplace-checkout/internal/handler"
	"marketplace-checkout/internal/handler/api"
	reqdto "marketplace-checkout/internal/handler/dto/request"
	resdto "marketplace-checkout/internal/handler/dto/response"
	"marketplace-checkout/internal/handler/middleware"
	"marketplace-checkout/internal/infra/gateway"
	"marketplace-checkout/internal/infra/memstore"
	"marketplace-checkout/internal/infra/notifier"
	"marketplace-checkout/internal/pkg/clock"
	"marketplace-checkout/internal/pkg/config"
	"marketplace-checkout/internal/pkg/metrics"
	"marketplace-checkout/internal/usecase/commands"
	"marketplace-checkout/internal/usecase/queries"
	"marketplace-checkout/tests/common/httptest"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	seedMugID  = uuid.MustParse("5b0f1c2e-8c1a-4a43-9a55-0f6f6a1b1a01")
	seedAreaID = uuid.MustParse("9e2a7c3d-1f4b-4c8e-8d2a-3b6c5d7e8f01")
)

type app struct {
	engine   *gin.Engine
	verifier *gateway.Verifier
	recorder *notifier.Recorder
	clock    *clock.MockClock
	sessions atomic.Int32
}

// newApp wires the router over the in-memory store and a fake payment provider.
func newApp(t *testing.T) *app {
	t.Helper()
	gin.SetMode(gin.TestMode)

	a := &app{clock: clock.NewMockClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))}

	provider := nethttptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := a.sessions.Add(1)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"id":"cs_test_%d","url":"https://pay.example.com/cs_test_%d"}`, n, n)
	}))
	t.Cleanup(provider.Close)

	cfg := config.NewTestConfig()
	cfg.Payment.BaseURL = provider.URL

	store := memstore.New()
	require.NoError(t, store.LoadSeed("../../configs/seed.json"))
	uow := memstore.NewUoW(store)
	m := metrics.NewRegistry()

	a.recorder = notifier.NewRecorder(cfg.Notify.OperatorEmail)
	a.verifier = gateway.NewVerifier(cfg.Payment.WebhookSecret, cfg.Payment.WebhookTolerance, a.clock.Now)

	gw := gateway.NewClient(gateway.Config{
		BaseURL:   cfg.Payment.BaseURL,
		SecretKey: cfg.Payment.SecretKey,
		Timeout:   cfg.Payment.Timeout,
	})
	checkoutCmds := commands.NewCheckoutCommands(uow, gw, a.clock, m, commands.CheckoutOptions{
		SessionTTL:     cfg.Checkout.SessionTTL,
		GatewayTimeout: cfg.Payment.Timeout,
		SuccessURL:     cfg.Payment.SuccessURL,
		CancelURL:      cfg.Payment.CancelURL,
	})
	ledgerCmds := commands.NewLedgerCommands(uow, a.recorder, a.clock, m, commands.LedgerOptions{
		MaxAttempts:    cfg.Notify.MaxAttempts,
		InlineAttempts: cfg.Notify.InlineAttempts,
		RetryBackoff:   cfg.Notify.RetryBackoff,
		ClaimLease:     cfg.Notify.ClaimLease,
	})
	q := queries.NewCheckoutQueries(memstore.NewReadStore(store))

	a.engine = gin.New()
	handler.NewRouter(a.engine, cfg, middleware.NewLogger(cfg.Log), m,
		api.NewCheckoutHandler(checkoutCmds, q),
		api.NewPaymentEventHandler(ledgerCmds, a.verifier),
	)
	return a
}

func (a *app) createCheckout(t *testing.T, quantity int) resdto.CheckoutCreatedResponse {
	t.Helper()
	areaID := seedAreaID
	rec := httptest.PerformRequest(t, a.engine, http.MethodPost, "/api/checkouts", reqdto.CreateCheckoutRequest{
		Lines:              []reqdto.CheckoutLineRequest{{ProductID: seedMugID, Quantity: quantity}},
		DeliveryAddress:    "1 Main St",
		DeliveryAreaID:     &areaID,
		ContactEmail:       "buyer@example.com",
		ContactPhoneNumber: "+1 555 0100",
	})
	var created resdto.CheckoutCreatedResponse
	httptest.AssertSuccessResponse(t, rec, http.StatusCreated, &created)
	return created
}

func (a *app) sendCompleted(t *testing.T, eventID, paymentSessionID string, amountMinor int64) resdto.PaymentEventAck {
	t.Helper()
	payload := []byte(fmt.Sprintf(
		`{"id":%q,"type":"checkout.session.completed","data":{"object":{"id":%q,"amount_total":%d,"currency":"usd","payment_status":"paid"}}}`,
		eventID, paymentSessionID, amountMinor,
	))
	rec := httptest.PerformRawRequest(t, a.engine, http.MethodPost, "/api/payment-events", payload, map[string]string{
		"Content-Type":          "application/json",
		gateway.SignatureHeader: a.verifier.Sign(payload, a.clock.Now()),
	})
	var ack resdto.PaymentEventAck
	httptest.AssertSuccessResponse(t, rec, http.StatusOK, &ack)
	return ack
}

func TestRouter_CheckoutToOrder(t *testing.T) {
	a := newApp(t)

	created := a.createCheckout(t, 1)
	assert.Equal(t, "25.00", created.Total)
	assert.Equal(t, "USD", created.Currency)
	assert.Equal(t, "cs_test_1", created.PaymentSessionID)

	var total resdto.CheckoutTotalResponse
	rec := httptest.PerformRequest(t, a.engine, http.MethodGet, "/api/checkouts/"+created.ID.String()+"/total", nil)
	httptest.AssertSuccessResponse(t, rec, http.StatusOK, &total)
	assert.Equal(t, "20.00", total.Subtotal)
	assert.Equal(t, "5.00", total.DeliveryPrice)
	assert.Equal(t, "25.00", total.Total)
	assert.Equal(t, "awaiting_payment", total.Status)

	var status resdto.OrderStatusResponse
	rec = httptest.PerformRequest(t, a.engine, http.MethodGet, "/api/checkouts/"+created.ID.String()+"/order-status", nil)
	httptest.AssertSuccessResponse(t, rec, http.StatusOK, &status)
	assert.Equal(t, "awaiting_signal", status.LedgerState)
	assert.Nil(t, status.OrderID)

	rec = httptest.PerformRequest(t, a.engine, http.MethodGet, "/api/checkouts/"+created.ID.String()+"/order", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	first := a.sendCompleted(t, "evt_1", created.PaymentSessionID, 2500)
	assert.Equal(t, "materialized", first.Outcome)
	require.NotEmpty(t, first.OrderID)

	second := a.sendCompleted(t, "evt_1", created.PaymentSessionID, 2500)
	assert.Equal(t, "replayed", second.Outcome)
	assert.Equal(t, first.OrderID, second.OrderID)

	rec = httptest.PerformRequest(t, a.engine, http.MethodGet, "/api/checkouts/"+created.ID.String()+"/order-status", nil)
	httptest.AssertSuccessResponse(t, rec, http.StatusOK, &status)
	assert.Equal(t, "notifications_sent", status.LedgerState)
	assert.Equal(t, "paid", status.SessionStatus)
	require.NotNil(t, status.OrderID)
	assert.Equal(t, first.OrderID, status.OrderID.String())
	assert.Len(t, status.Notifications, 2)

	var placed resdto.OrderResponse
	rec = httptest.PerformRequest(t, a.engine, http.MethodGet, "/api/checkouts/"+created.ID.String()+"/order", nil)
	httptest.AssertSuccessResponse(t, rec, http.StatusOK, &placed)
	assert.Equal(t, "25.00", placed.Total)
	assert.Equal(t, "City center", placed.DeliveryAreaLabel)
	require.Len(t, placed.Lines, 1)
	assert.Equal(t, "Handmade ceramic mug", placed.Lines[0].ProductName)

	// One message per recipient class despite the redelivery.
	assert.Len(t, a.recorder.Sent(), 2)
}

func TestRouter_PaymentEventAnomalies(t *testing.T) {
	a := newApp(t)
	created := a.createCheckout(t, 2)
	assert.Equal(t, "45.00", created.Total)

	t.Run("amount mismatch is acknowledged and rejected", func(t *testing.T) {
		ack := a.sendCompleted(t, "evt_short", created.PaymentSessionID, 2500)
		assert.Equal(t, "rejected", ack.Outcome)
		assert.Empty(t, ack.OrderID)
	})

	t.Run("unknown payment session is acknowledged and rejected", func(t *testing.T) {
		ack := a.sendCompleted(t, "evt_unknown", "cs_missing", 4500)
		assert.Equal(t, "rejected", ack.Outcome)
	})

	t.Run("bad signature", func(t *testing.T) {
		rec := httptest.PerformRawRequest(t, a.engine, http.MethodPost, "/api/payment-events", []byte(`{}`), map[string]string{
			gateway.SignatureHeader: "t=1,v1=deadbeef",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	var status resdto.OrderStatusResponse
	rec := httptest.PerformRequest(t, a.engine, http.MethodGet, "/api/checkouts/"+created.ID.String()+"/order-status", nil)
	httptest.AssertSuccessResponse(t, rec, http.StatusOK, &status)
	assert.Equal(t, "awaiting_signal", status.LedgerState)
	assert.Empty(t, a.recorder.Sent())
}

func TestRouter_Operational(t *testing.T) {
	a := newApp(t)

	rec := httptest.PerformRawRequest(t, a.engine, http.MethodGet, "/health", nil, map[string]string{
		"Origin":                   "http://localhost:3000",
		middleware.RequestIDHeader: "req-123",
	})
	assert.Equal(t, http.StatusOK, rec.Code)
	httptest.AssertHeaders(t, rec, map[string]string{
		"Access-Control-Allow-Origin": "http://localhost:3000",
		middleware.RequestIDHeader:    "req-123",
	})

	created := a.createCheckout(t, 1)
	a.sendCompleted(t, "evt_1", created.PaymentSessionID, 2500)

	rec = httptest.PerformRequest(t, a.engine, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "checkout_sessions_created_total 1")
	assert.Contains(t, string(body), "ledger_orders_materialized_total 1")
}
