package memstore

import (
	"encoding/json"
	"os"

	"marketplace-checkout/internal/domain/cart"
	"marketplace-checkout/internal/domain/delivery"
	"marketplace-checkout/internal/domain/money"
	"marketplace-checkout/internal/pkg/errs"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type seedFile struct {
	Products []struct {
		ID       uuid.UUID       `json:"id"`
		Name     string          `json:"name"`
		Price    decimal.Decimal `json:"price"`
		Currency string          `json:"currency"`
	} `json:"products"`
	DeliveryAreas []struct {
		ID            uuid.UUID       `json:"id"`
		MarketplaceID uuid.UUID       `json:"marketplace_id"`
		Label         string          `json:"label"`
		Price         decimal.Decimal `json:"price"`
		Currency      string          `json:"currency"`
	} `json:"delivery_areas"`
}

// LoadSeed fills the catalog from a JSON file of products and delivery areas.
func (s *Store) LoadSeed(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return errs.Wrap(err, "failed to read seed file")
	}
	var f seedFile
	if err := json.Unmarshal(raw, &f); err != nil {
		return errs.Wrap(err, "failed to parse seed file")
	}

	for _, p := range f.Products {
		price, err := priceOf(p.Price, p.Currency)
		if err != nil {
			return errs.Wrap(err, "product "+p.ID.String())
		}
		s.AddProduct(cart.Product{ID: p.ID, Name: p.Name, Price: price})
	}
	for _, a := range f.DeliveryAreas {
		price, err := priceOf(a.Price, a.Currency)
		if err != nil {
			return errs.Wrap(err, "delivery area "+a.ID.String())
		}
		s.AddDeliveryArea(delivery.Area{ID: a.ID, MarketplaceID: a.MarketplaceID, Label: a.Label, Price: price})
	}
	return nil
}

func priceOf(amount decimal.Decimal, code string) (money.Money, error) {
	currency, err := money.NewCurrency(code)
	if err != nil {
		return money.Money{}, err
	}
	return money.New(amount, currency)
}
