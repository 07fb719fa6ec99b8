//go:build unit

package commands_test

import (
	"context"
	"testing"
	"time"

	"marketplace-checkout/internal/domain/cart"
	"marketplace-checkout/internal/domain/delivery"
	"marketplace-checkout/internal/domain/money"
	"marketplace-checkout/internal/infra/memstore"
	"marketplace-checkout/internal/infra/notifier"
	"marketplace-checkout/internal/pkg/clock"
	"marketplace-checkout/internal/pkg/metrics"
	"marketplace-checkout/internal/usecase/commands"
	commandsmock "marketplace-checkout/tests/mock/commands"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var (
	fixedNow       = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	claimLease     = 2 * time.Minute
	gatewayTimeout = 250 * time.Millisecond
)

type fixture struct {
	store    *memstore.Store
	uow      *memstore.UoW
	reads    *memstore.ReadStore
	clock    *clock.MockClock
	recorder *notifier.Recorder
	gateway  *commandsmock.MockPaymentGateway

	checkout commands.CheckoutCommands
	ledger   commands.LedgerCommands

	mug  cart.Product
	area delivery.Area
}

func newFixture(t *testing.T, opts commands.LedgerOptions) *fixture {
	t.Helper()
	return newFixtureWithDispatcher(t, opts, nil)
}

// newFixtureWithDispatcher lets a test put its own dispatcher in front of the
// recorder. wrap may be nil.
func newFixtureWithDispatcher(t *testing.T, opts commands.LedgerOptions, wrap func(*notifier.Recorder) commands.NotificationDispatcher) *fixture {
	t.Helper()

	store := memstore.New()
	mug := cart.Product{ID: uuid.New(), Name: "Mug", Price: money.MustParse("20.00", "USD")}
	area := delivery.Area{ID: uuid.New(), Label: "Downtown", Price: money.MustParse("5.00", "USD")}
	store.AddProduct(mug)
	store.AddDeliveryArea(area)

	if opts.MaxAttempts == 0 {
		opts.MaxAttempts = 5
	}
	if opts.InlineAttempts == 0 {
		opts.InlineAttempts = 1
	}
	if opts.ClaimLease == 0 {
		opts.ClaimLease = claimLease
	}

	uow := memstore.NewUoW(store)
	clk := clock.NewMockClock(fixedNow)
	rec := notifier.NewRecorder("operator@example.com")
	gw := commandsmock.NewMockPaymentGateway(gomock.NewController(t))
	m := metrics.NewRegistry()

	var dispatcher commands.NotificationDispatcher = rec
	if wrap != nil {
		dispatcher = wrap(rec)
	}

	return &fixture{
		store:    store,
		uow:      uow,
		reads:    memstore.NewReadStore(store),
		clock:    clk,
		recorder: rec,
		gateway:  gw,
		checkout: commands.NewCheckoutCommands(uow, gw, clk, m, commands.CheckoutOptions{
			SessionTTL:     time.Hour,
			GatewayTimeout: gatewayTimeout,
			SuccessURL:     "https://shop.example.com/done?session={CHECKOUT_SESSION_ID}",
			CancelURL:      "https://shop.example.com/cart",
		}),
		ledger: commands.NewLedgerCommands(uow, dispatcher, clk, m, opts),
		mug:    mug,
		area:   area,
	}
}

func (f *fixture) request(quantity int) commands.CheckoutRequest {
	return commands.CheckoutRequest{
		Lines:           []commands.CheckoutLine{{ProductID: f.mug.ID, Quantity: quantity}},
		DeliveryAddress: "1 Main St",
		DeliveryAreaID:  f.area.ID,
		ContactEmail:    "buyer@example.com",
		ContactPhone:    "+1 555 0100",
	}
}

// openCheckout creates a checkout whose provider session id is paymentRef.
func (f *fixture) openCheckout(t *testing.T, paymentRef string) *commands.CheckoutResult {
	t.Helper()
	f.gateway.EXPECT().CreateSession(gomock.Any(), gomock.Any()).
		Return(&commands.PaymentSession{ID: paymentRef, RedirectURL: "https://pay.example.com/" + paymentRef}, nil)

	res, err := f.checkout.Checkout(context.Background(), f.request(1))
	require.NoError(t, err)
	return res
}

func usd(amount string) money.Money {
	return money.MustParse(amount, "USD")
}
