package api

import (
	"io"
	"log/slog"
	"net/http"

	resdto "marketplace-checkout/internal/handler/dto/response"
	"marketplace-checkout/internal/handler/httperr"
	"marketplace-checkout/internal/infra/gateway"
	"marketplace-checkout/internal/usecase/commands"

	"github.com/gin-gonic/gin"
)

const maxEventBytes = 1 << 20

type SignatureVerifier interface {
	Verify(payload []byte, header string) error
}

type PaymentEventHandler struct {
	ledger   commands.LedgerCommands
	verifier SignatureVerifier
}

func NewPaymentEventHandler(ledger commands.LedgerCommands, verifier SignatureVerifier) *PaymentEventHandler {
	return &PaymentEventHandler{ledger: ledger, verifier: verifier}
}

// @Summary Receive payment provider event
// @Description Webhook for the provider's asynchronous payment signals. Anomalies are acknowledged so they are not redelivered.
// @Tags payments
// @Accept json
// @Produce json
// @Success 200 {object} resdto.PaymentEventAck
// @Failure 400 {object} httperr.Response
// @Failure 500 {object} httperr.Response
// @Router /payment-events [post]
func (h *PaymentEventHandler) Receive(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxEventBytes))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Unreadable body", nil)
		return
	}

	if err := h.verifier.Verify(payload, c.GetHeader(gateway.SignatureHeader)); err != nil {
		slog.Warn("rejected payment event signature", "error", err.Error())
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid signature", nil)
		return
	}

	evt, err := gateway.ParseEvent(payload)
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Malformed event", nil)
		return
	}
	if !evt.IsCheckoutCompleted() {
		c.JSON(http.StatusOK, resdto.PaymentEventAck{Received: true, Outcome: "ignored"})
		return
	}
	if !evt.IsPaid() {
		slog.Info("ignoring unpaid checkout completion",
			"provider_event_id", evt.ID,
			"payment_status", evt.Data.Object.PaymentStatus)
		c.JSON(http.StatusOK, resdto.PaymentEventAck{Received: true, Outcome: "ignored"})
		return
	}

	signal, err := evt.PaymentCompleted()
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Malformed event", nil)
		return
	}

	result, err := h.ledger.HandlePaymentCompleted(c.Request.Context(), signal)
	if err != nil {
		if commands.IsAnomaly(err) {
			c.JSON(http.StatusOK, resdto.PaymentEventAck{Received: true, Outcome: "rejected"})
			return
		}
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Payment event not processed", nil)
		return
	}

	outcome := "materialized"
	if result.IsReplayed {
		outcome = "replayed"
	}
	c.JSON(http.StatusOK, resdto.PaymentEventAck{
		Received: true,
		Outcome:  outcome,
		OrderID:  result.Order.ID().String(),
	})
}
