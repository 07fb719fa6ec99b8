package request

import (
	"marketplace-checkout/internal/usecase/commands"

	"github.com/google/uuid"
)

type CheckoutLineRequest struct {
	ProductID uuid.UUID `json:"productId" binding:"required"`
	Quantity  int       `json:"quantity" binding:"required,min=1"`
}

// CreateCheckoutRequest leaves delivery fields unvalidated here: a blank
// field is a domain error reported with the list of everything missing.
type CreateCheckoutRequest struct {
	Lines              []CheckoutLineRequest `json:"lines" binding:"dive"`
	DeliveryAddress    string                `json:"deliveryAddress"`
	DeliveryAreaID     *uuid.UUID            `json:"deliveryAreaId,omitempty"`
	ContactEmail       string                `json:"contactEmail"`
	ContactPhoneNumber string                `json:"contactPhoneNumber"`
}

func (r CreateCheckoutRequest) ToCommand() commands.CheckoutRequest {
	lines := make([]commands.CheckoutLine, 0, len(r.Lines))
	for _, l := range r.Lines {
		lines = append(lines, commands.CheckoutLine{ProductID: l.ProductID, Quantity: l.Quantity})
	}

	req := commands.CheckoutRequest{
		Lines:           lines,
		DeliveryAddress: r.DeliveryAddress,
		ContactEmail:    r.ContactEmail,
		ContactPhone:    r.ContactPhoneNumber,
	}
	if r.DeliveryAreaID != nil {
		req.DeliveryAreaID = *r.DeliveryAreaID
	}
	return req
}
