//go:build unit

package delivery_test

import (
	"errors"
	"testing"

	"marketplace-checkout/internal/domain/delivery"
	"marketplace-checkout/internal/domain/money"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileValidate(t *testing.T) {
	area := &delivery.Area{ID: uuid.New(), Label: "Downtown", Price: money.MustParse("5.00", "USD")}

	t.Run("complete profile", func(t *testing.T) {
		p := delivery.NewProfile("1 Main St", area, "buyer@example.com", "+1 555 0100")
		assert.NoError(t, p.Validate())
	})

	t.Run("reports every missing field", func(t *testing.T) {
		p := delivery.NewProfile("  ", nil, "", " ")
		err := p.Validate()
		require.Error(t, err)
		assert.ErrorIs(t, err, delivery.ErrIncompleteDeliveryProfile)

		var incomplete *delivery.IncompleteProfileError
		require.True(t, errors.As(err, &incomplete))
		assert.Equal(t, []string{"delivery_address", "delivery_area", "contact_email", "contact_phone_number"}, incomplete.Missing)
	})

	t.Run("missing phone only", func(t *testing.T) {
		p := delivery.NewProfile("1 Main St", area, "buyer@example.com", "")
		assert.Equal(t, []string{"contact_phone_number"}, p.MissingFields())
	})

	t.Run("snapshot flattens the area", func(t *testing.T) {
		snap := delivery.NewProfile("1 Main St", area, "buyer@example.com", "555").Snapshot()
		assert.Equal(t, area.ID, snap.AreaID)
		assert.Equal(t, "Downtown", snap.AreaLabel)
		assert.True(t, snap.AreaPrice.Equal(area.Price))
	})
}
