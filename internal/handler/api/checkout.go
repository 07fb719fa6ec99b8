package api

import (
	"net/http"

	"marketplace-checkout/internal/domain/delivery"
	reqdto "marketplace-checkout/internal/handler/dto/request"
	resdto "marketplace-checkout/internal/handler/dto/response"
	"marketplace-checkout/internal/handler/httperr"
	"marketplace-checkout/internal/pkg/errs"
	"marketplace-checkout/internal/usecase/commands"
	"marketplace-checkout/internal/usecase/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type CheckoutHandler struct {
	cmds commands.CheckoutCommands
	q    queries.CheckoutQueries
}

func NewCheckoutHandler(cmds commands.CheckoutCommands, q queries.CheckoutQueries) *CheckoutHandler {
	return &CheckoutHandler{cmds: cmds, q: q}
}

// @Summary Create checkout
// @Description Price a cart with its delivery details and open a hosted payment session
// @Tags checkouts
// @Accept json
// @Produce json
// @Param request body reqdto.CreateCheckoutRequest true "Create checkout request"
// @Success 201 {object} resdto.CheckoutCreatedResponse
// @Failure 400 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Failure 503 {object} httperr.Response
// @Router /checkouts [post]
func (h *CheckoutHandler) Create(c *gin.Context) {
	var req reqdto.CreateCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request", nil)
		return
	}

	result, err := h.cmds.Checkout(c.Request.Context(), req.ToCommand())
	if err != nil {
		switch {
		case errs.Is(err, commands.ErrEmptyCart):
			httperr.AbortWithError(c, http.StatusBadRequest, err, "Cart is empty", nil)
		case errs.Is(err, commands.ErrIncompleteDeliveryProfile):
			httperr.AbortWithError(c, http.StatusBadRequest, err, "Delivery details are incomplete", missingFields(err))
		case errs.Is(err, commands.ErrCurrencyMismatch):
			httperr.AbortWithError(c, http.StatusBadRequest, err, "Cart mixes currencies", nil)
		case errs.Is(err, commands.ErrInvalidQuantity):
			httperr.AbortWithError(c, http.StatusBadRequest, err, "Quantity must be at least 1", nil)
		case errs.Is(err, commands.ErrProductNotFound):
			httperr.AbortWithError(c, http.StatusNotFound, err, "Product not found", nil)
		case errs.Is(err, commands.ErrDeliveryAreaNotFound):
			httperr.AbortWithError(c, http.StatusNotFound, err, "Delivery area not found", nil)
		case errs.Is(err, commands.ErrGatewayUnavailable):
			httperr.AbortWithError(c, http.StatusServiceUnavailable, err, "Payment provider unavailable", nil)
		default:
			httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error", nil)
		}
		return
	}

	c.JSON(http.StatusCreated, resdto.FromCheckoutResult(result))
}

// @Summary Get checkout total
// @Tags checkouts
// @Produce json
// @Param id path string true "Checkout ID"
// @Success 200 {object} resdto.CheckoutTotalResponse
// @Failure 404 {object} httperr.Response
// @Router /checkouts/{id}/total [get]
func (h *CheckoutHandler) GetTotal(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	view, err := h.q.GetCheckoutTotal(c.Request.Context(), id)
	if err != nil {
		abortQueryErr(c, err)
		return
	}
	c.JSON(http.StatusOK, resdto.FromCheckoutTotalView(view))
}

// @Summary Get order status
// @Description Where the checkout stands in the order ledger, with per-recipient notification state
// @Tags checkouts
// @Produce json
// @Param id path string true "Checkout ID"
// @Success 200 {object} resdto.OrderStatusResponse
// @Failure 404 {object} httperr.Response
// @Router /checkouts/{id}/order-status [get]
func (h *CheckoutHandler) GetOrderStatus(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	view, err := h.q.GetOrderStatus(c.Request.Context(), id)
	if err != nil {
		abortQueryErr(c, err)
		return
	}
	c.JSON(http.StatusOK, resdto.FromOrderStatusView(view))
}

// @Summary Get order
// @Tags checkouts
// @Produce json
// @Param id path string true "Checkout ID"
// @Success 200 {object} resdto.OrderResponse
// @Failure 404 {object} httperr.Response
// @Router /checkouts/{id}/order [get]
func (h *CheckoutHandler) GetOrder(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	view, err := h.q.GetOrder(c.Request.Context(), id)
	if err != nil {
		abortQueryErr(c, err)
		return
	}
	c.JSON(http.StatusOK, resdto.FromOrderView(view))
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid id", nil)
		return uuid.Nil, false
	}
	return id, true
}

func abortQueryErr(c *gin.Context, err error) {
	switch {
	case errs.Is(err, queries.ErrCheckoutNotFound):
		httperr.AbortWithError(c, http.StatusNotFound, err, "Checkout not found", nil)
	case errs.Is(err, queries.ErrOrderNotFound):
		httperr.AbortWithError(c, http.StatusNotFound, err, "Order not found", nil)
	default:
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error", nil)
	}
}

func missingFields(err error) any {
	var incomplete *delivery.IncompleteProfileError
	if errs.As(err, &incomplete) {
		return httperr.MissingFields{Missing: incomplete.Missing}
	}
	return nil
}
