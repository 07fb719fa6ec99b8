//go:build unit || e2e

package builder

import (
	"time"

	"marketplace-checkout/internal/domain/money"
	reqdto "marketplace-checkout/internal/handler/dto/request"
	"marketplace-checkout/internal/usecase/commands"
	"marketplace-checkout/internal/usecase/queries"

	"github.com/google/uuid"
)

type CheckoutBuilder struct {
	SessionID        uuid.UUID
	ProductID        uuid.UUID
	ProductName      string
	Quantity         int
	DeliveryAreaID   uuid.UUID
	DeliveryAddress  string
	ContactEmail     string
	ContactPhone     string
	Total            money.Money
	PaymentSessionID string
	CreatedAt        time.Time
}

func NewCheckoutBuilder() *CheckoutBuilder {
	return &CheckoutBuilder{
		SessionID:        uuid.New(),
		ProductID:        uuid.New(),
		ProductName:      "Handmade ceramic mug",
		Quantity:         1,
		DeliveryAreaID:   uuid.New(),
		DeliveryAddress:  "1 Main St",
		ContactEmail:     "buyer@example.com",
		ContactPhone:     "+1 555 0100",
		Total:            money.MustParse("25.00", "USD"),
		PaymentSessionID: "cs_test_" + uuid.NewString()[:8],
		CreatedAt:        time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (b *CheckoutBuilder) With(mutate func(*CheckoutBuilder)) *CheckoutBuilder {
	mutate(b)
	return b
}

func (b *CheckoutBuilder) BuildCreateRequestDTO() reqdto.CreateCheckoutRequest {
	areaID := b.DeliveryAreaID
	return reqdto.CreateCheckoutRequest{
		Lines:              []reqdto.CheckoutLineRequest{{ProductID: b.ProductID, Quantity: b.Quantity}},
		DeliveryAddress:    b.DeliveryAddress,
		DeliveryAreaID:     &areaID,
		ContactEmail:       b.ContactEmail,
		ContactPhoneNumber: b.ContactPhone,
	}
}

func (b *CheckoutBuilder) BuildResult() *commands.CheckoutResult {
	return &commands.CheckoutResult{
		SessionID:        b.SessionID,
		Total:            b.Total,
		PaymentSessionID: b.PaymentSessionID,
		RedirectURL:      "https://pay.example.com/" + b.PaymentSessionID,
	}
}

func (b *CheckoutBuilder) BuildTotalView() *queries.CheckoutTotalView {
	return &queries.CheckoutTotalView{
		SessionID:     b.SessionID,
		Status:        "awaiting_payment",
		LineCount:     1,
		Subtotal:      "20.00",
		DeliveryPrice: "5.00",
		Total:         b.Total.Amount().StringFixed(2),
		Currency:      b.Total.Currency().String(),
	}
}

func (b *CheckoutBuilder) BuildOrderView() *queries.OrderView {
	return &queries.OrderView{
		ID:                uuid.New(),
		CheckoutSessionID: b.SessionID,
		ContactEmail:      b.ContactEmail,
		ContactPhone:      b.ContactPhone,
		DeliveryAddress:   b.DeliveryAddress,
		DeliveryAreaLabel: "City center",
		DeliveryPrice:     "5.00",
		Lines: []queries.OrderLineView{{
			ProductID:   b.ProductID,
			ProductName: b.ProductName,
			UnitPrice:   "20.00",
			Quantity:    b.Quantity,
			LineTotal:   "20.00",
		}},
		Total:     b.Total.Amount().StringFixed(2),
		Currency:  b.Total.Currency().String(),
		CreatedAt: b.CreatedAt,
	}
}
