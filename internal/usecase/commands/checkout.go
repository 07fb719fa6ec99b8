package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"marketplace-checkout/internal/domain/cart"
	"marketplace-checkout/internal/domain/checkout"
	"marketplace-checkout/internal/domain/delivery"
	"marketplace-checkout/internal/domain/money"
	"marketplace-checkout/internal/infra"
	"marketplace-checkout/internal/pkg/clock"
	"marketplace-checkout/internal/pkg/errs"
	"marketplace-checkout/internal/pkg/metrics"
	"marketplace-checkout/internal/usecase/shared"

	"github.com/google/uuid"
)

//go:generate mockgen -source=checkout.go -destination=../../../tests/mock/commands/mock_checkout.go -package=commandsmock

var (
	ErrIncompleteDeliveryProfile = errs.New("incomplete delivery profile")
	ErrEmptyCart                 = errs.New("empty cart")
	ErrCurrencyMismatch          = errs.New("currency mismatch")
	ErrGatewayUnavailable        = errs.New("payment gateway unavailable")
	ErrInvalidQuantity           = errs.New("invalid quantity")
	ErrProductNotFound           = errs.New("product not found")
	ErrDeliveryAreaNotFound      = errs.New("delivery area not found")
	ErrDatabaseOperationFailed   = errs.New("database operation failed")
)

const (
	sessionIDPlaceholder  = "{CHECKOUT_SESSION_ID}"
	defaultGatewayTimeout = 10 * time.Second
)

type CheckoutLine struct {
	ProductID uuid.UUID
	Quantity  int
}

type CheckoutRequest struct {
	Lines           []CheckoutLine
	DeliveryAddress string
	DeliveryAreaID  uuid.UUID
	ContactEmail    string
	ContactPhone    string
}

type CheckoutResult struct {
	SessionID        uuid.UUID
	Total            money.Money
	PaymentSessionID string
	RedirectURL      string
}

type CheckoutCommands interface {
	Checkout(ctx context.Context, req CheckoutRequest) (*CheckoutResult, error)
}

type checkoutCommandsImpl struct {
	uow     shared.UnitOfWork
	gateway PaymentGateway
	clock   clock.Clock
	metrics *metrics.Registry
	opts    CheckoutOptions
}

func NewCheckoutCommands(uow shared.UnitOfWork, gateway PaymentGateway, clk clock.Clock, m *metrics.Registry, opts CheckoutOptions) CheckoutCommands {
	if opts.GatewayTimeout <= 0 {
		opts.GatewayTimeout = defaultGatewayTimeout
	}
	return &checkoutCommandsImpl{
		uow:     uow,
		gateway: gateway,
		clock:   clk,
		metrics: m,
		opts:    opts,
	}
}

func (c *checkoutCommandsImpl) Checkout(ctx context.Context, req CheckoutRequest) (*CheckoutResult, error) {
	items, err := c.buildCart(ctx, req.Lines)
	if err != nil {
		return nil, err
	}

	profile, err := c.buildProfile(ctx, req)
	if err != nil {
		return nil, err
	}

	session, err := checkout.NewSession(uuid.New(), items, profile, c.clock.Now(), c.opts.SessionTTL)
	if err != nil {
		return nil, markDomainErr(err)
	}

	// Nothing is persisted until the gateway hands back a payment session.
	ps, err := c.requestPayment(ctx, session)
	if err != nil {
		return nil, err
	}

	if err := session.AwaitPayment(ps.ID, c.clock.Now()); err != nil {
		return nil, errs.Mark(err, ErrGatewayUnavailable)
	}

	err = c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		return tx.Sessions().Create(ctx, session)
	})
	if err != nil {
		return nil, errs.Mark(err, ErrDatabaseOperationFailed)
	}

	c.metrics.CheckoutsCreated.Inc()
	slog.Info("checkout session created",
		"checkout_session_id", session.ID(),
		"payment_session_id", ps.ID,
		"total", session.Total().String())

	return &CheckoutResult{
		SessionID:        session.ID(),
		Total:            session.Total(),
		PaymentSessionID: ps.ID,
		RedirectURL:      ps.RedirectURL,
	}, nil
}

func (c *checkoutCommandsImpl) buildCart(ctx context.Context, lines []CheckoutLine) (cart.Snapshot, error) {
	if len(lines) == 0 {
		return cart.Snapshot{}, nil
	}

	ids := make([]uuid.UUID, 0, len(lines))
	for _, l := range lines {
		if l.Quantity < 1 {
			return cart.Snapshot{}, ErrInvalidQuantity
		}
		ids = append(ids, l.ProductID)
	}

	products, err := c.uow.CommandReads().ProductsByIDs(ctx, ids)
	if err != nil {
		return cart.Snapshot{}, errs.Mark(err, ErrDatabaseOperationFailed)
	}
	byID := make(map[uuid.UUID]cart.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	basket := cart.New()
	for _, l := range lines {
		p, ok := byID[l.ProductID]
		if !ok {
			return cart.Snapshot{}, errs.Wrap(ErrProductNotFound, l.ProductID.String())
		}
		if err := basket.Add(p, l.Quantity); err != nil {
			return cart.Snapshot{}, markDomainErr(err)
		}
	}

	return basket.Snapshot()
}

func (c *checkoutCommandsImpl) buildProfile(ctx context.Context, req CheckoutRequest) (delivery.Profile, error) {
	var area *delivery.Area
	if req.DeliveryAreaID != uuid.Nil {
		found, err := c.uow.CommandReads().DeliveryAreaByID(ctx, req.DeliveryAreaID)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return delivery.Profile{}, ErrDeliveryAreaNotFound
			}
			return delivery.Profile{}, errs.Mark(err, ErrDatabaseOperationFailed)
		}
		area = found
	}
	return delivery.NewProfile(req.DeliveryAddress, area, req.ContactEmail, req.ContactPhone), nil
}

func (c *checkoutCommandsImpl) requestPayment(ctx context.Context, session *checkout.Session) (*PaymentSession, error) {
	gatewayCtx, cancel := context.WithTimeout(ctx, c.opts.GatewayTimeout)
	defer cancel()

	started := time.Now()
	ps, err := c.gateway.CreateSession(gatewayCtx, PaymentSessionRequest{
		CheckoutSessionID: session.ID(),
		Amount:            session.Total(),
		CustomerEmail:     session.Delivery().ContactEmail,
		SuccessURL:        redirectURL(c.opts.SuccessURL, session.ID()),
		CancelURL:         redirectURL(c.opts.CancelURL, session.ID()),
	})
	c.metrics.GatewayLatencySec.Observe(time.Since(started).Seconds())
	if err != nil {
		c.metrics.GatewayFailures.Inc()
		slog.Warn("payment gateway call failed", "checkout_session_id", session.ID(), "error", err.Error())
		return nil, errs.Mark(err, ErrGatewayUnavailable)
	}
	if ps == nil || strings.TrimSpace(ps.ID) == "" {
		c.metrics.GatewayFailures.Inc()
		return nil, errs.Wrap(ErrGatewayUnavailable, "gateway returned no payment session")
	}
	return ps, nil
}

func redirectURL(template string, sessionID uuid.UUID) string {
	return strings.ReplaceAll(template, sessionIDPlaceholder, sessionID.String())
}

func markDomainErr(err error) error {
	switch {
	case errs.Is(err, cart.ErrEmptyCart):
		return errs.Mark(err, ErrEmptyCart)
	case errs.Is(err, cart.ErrInvalidQuantity):
		return errs.Mark(err, ErrInvalidQuantity)
	case errs.Is(err, delivery.ErrIncompleteDeliveryProfile):
		return errs.Mark(err, ErrIncompleteDeliveryProfile)
	case errs.Is(err, money.ErrCurrencyMismatch):
		return errs.Mark(err, ErrCurrencyMismatch)
	default:
		return err
	}
}
