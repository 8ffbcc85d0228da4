package cart

import (
	"time"

	"github.com/google/uuid"

	"github.com/clickmarket/clickmarket-backend/pkg/db/models"
)

// CartItemDTO is one line of the cart response. The line total is always
// recomputed from the stored snapshot, never stored.
type CartItemDTO struct {
	ID             uuid.UUID `json:"id"`
	ProductID      uuid.UUID `json:"productId"`
	ProductName    string    `json:"productName"`
	ProductUnit    string    `json:"productUnit"`
	Quantity       int       `json:"quantity"`
	UnitPriceCents int       `json:"unitPriceCents"`
	LineTotalCents int       `json:"lineTotalCents"`
	AddedAt        time.Time `json:"addedAt"`
}

// CartDTO is the cart response envelope payload.
type CartDTO struct {
	ID         uuid.UUID     `json:"id"`
	Items      []CartItemDTO `json:"items"`
	TotalCents int           `json:"totalCents"`
	UpdatedAt  time.Time     `json:"updatedAt"`
}

// MergeResultDTO is returned by the merge-on-login operation. The session id
// tells the client which guest session was consumed so it can drop it.
type MergeResultDTO struct {
	Cart              CartDTO `json:"cart"`
	SessionIDToDelete string  `json:"sessionIdToDelete"`
	Merged            bool    `json:"merged"`
}

// UpdateItemInput carries optional line changes; nil means leave unchanged.
type UpdateItemInput struct {
	ProductID *uuid.UUID
	Quantity  *int
}

// ToDTO maps a cart row plus its items to the response shape.
func ToDTO(c models.Cart) CartDTO {
	items := make([]CartItemDTO, 0, len(c.Items))
	total := 0
	for _, item := range c.Items {
		lineTotal := item.LineTotalCents()
		total += lineTotal
		dto := CartItemDTO{
			ID:             item.ID,
			ProductID:      item.ProductID,
			Quantity:       item.Quantity,
			UnitPriceCents: item.UnitPriceCents,
			LineTotalCents: lineTotal,
			AddedAt:        item.CreatedAt,
		}
		if item.Product != nil {
			dto.ProductName = item.Product.Name
			dto.ProductUnit = item.Product.Unit
		}
		items = append(items, dto)
	}
	return CartDTO{
		ID:         c.ID,
		Items:      items,
		TotalCents: total,
		UpdatedAt:  c.UpdatedAt,
	}
}
