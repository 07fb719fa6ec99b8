package delivery

import (
	"errors"
	"fmt"
	"strings"

	"marketplace-checkout/internal/domain/money"

	"github.com/google/uuid"
)

var ErrIncompleteDeliveryProfile = errors.New("incomplete delivery profile")

// Area is a carrier zone with its own delivery price.
type Area struct {
	ID            uuid.UUID
	Label         string
	Price         money.Money
	MarketplaceID uuid.UUID
}

type Profile struct {
	Address      string
	Area         *Area
	ContactEmail string
	ContactPhone string
}

func NewProfile(address string, area *Area, email, phone string) Profile {
	return Profile{
		Address:      strings.TrimSpace(address),
		Area:         area,
		ContactEmail: strings.TrimSpace(email),
		ContactPhone: strings.TrimSpace(phone),
	}
}

func (p Profile) MissingFields() []string {
	var missing []string
	if strings.TrimSpace(p.Address) == "" {
		missing = append(missing, "delivery_address")
	}
	if p.Area == nil || p.Area.ID == uuid.Nil {
		missing = append(missing, "delivery_area")
	}
	if strings.TrimSpace(p.ContactEmail) == "" {
		missing = append(missing, "contact_email")
	}
	if strings.TrimSpace(p.ContactPhone) == "" {
		missing = append(missing, "contact_phone_number")
	}
	return missing
}

// IncompleteProfileError lists every blank field so the buyer can fix them at once.
type IncompleteProfileError struct {
	Missing []string
}

func (e *IncompleteProfileError) Error() string {
	return fmt.Sprintf("%s: missing %s", ErrIncompleteDeliveryProfile, strings.Join(e.Missing, ", "))
}

func (e *IncompleteProfileError) Is(target error) bool {
	return target == ErrIncompleteDeliveryProfile
}

func (p Profile) Validate() error {
	if missing := p.MissingFields(); len(missing) > 0 {
		return &IncompleteProfileError{Missing: missing}
	}
	return nil
}

// Snapshot flattens the profile so it no longer references the live area.
func (p Profile) Snapshot() Snapshot {
	s := Snapshot{
		Address:      p.Address,
		ContactEmail: p.ContactEmail,
		ContactPhone: p.ContactPhone,
	}
	if p.Area != nil {
		s.AreaID = p.Area.ID
		s.AreaLabel = p.Area.Label
		s.AreaPrice = p.Area.Price
	}
	return s
}

type Snapshot struct {
	Address      string
	AreaID       uuid.UUID
	AreaLabel    string
	AreaPrice    money.Money
	ContactEmail string
	ContactPhone string
}
