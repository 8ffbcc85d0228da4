package zones

import (
	"time"

	"github.com/google/uuid"

	"github.com/clickmarket/clickmarket-backend/pkg/db/models"
)

// ZoneDTO is the public projection of a delivery zone.
type ZoneDTO struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	PostalCodes   []string  `json:"postalCodes"`
	DeliveryDays  []string  `json:"deliveryDays"`
	FeeCents      int       `json:"feeCents"`
	MinOrderCents int       `json:"minOrderCents"`
	IsActive      bool      `json:"isActive"`
	CreatedAt     time.Time `json:"createdAt"`
}

// ToDTO maps a zone row to its public projection.
func ToDTO(z models.DeliveryZone) ZoneDTO {
	postalCodes := []string(z.PostalCodes)
	if postalCodes == nil {
		postalCodes = []string{}
	}
	days := []string(z.DeliveryDays)
	if days == nil {
		days = []string{}
	}
	return ZoneDTO{
		ID:            z.ID,
		Name:          z.Name,
		PostalCodes:   postalCodes,
		DeliveryDays:  days,
		FeeCents:      z.FeeCents,
		MinOrderCents: z.MinOrderCents,
		IsActive:      z.IsActive,
		CreatedAt:     z.CreatedAt,
	}
}

// UpsertZoneInput carries the fields accepted when creating or updating a zone.
type UpsertZoneInput struct {
	Name          string
	PostalCodes   []string
	DeliveryDays  []string
	FeeCents      int
	MinOrderCents int
	IsActive      *bool
}
