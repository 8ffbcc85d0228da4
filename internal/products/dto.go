package products

import (
	"time"

	"github.com/google/uuid"

	"github.com/clickmarket/clickmarket-backend/pkg/db/models"
	"github.com/clickmarket/clickmarket-backend/pkg/enums"
)

// ProductDTO is the public catalog projection.
type ProductDTO struct {
	ID            uuid.UUID         `json:"id"`
	SupplierID    *uuid.UUID        `json:"supplierId,omitempty"`
	Name          string            `json:"name"`
	Description   *string           `json:"description,omitempty"`
	Type          enums.ProductType `json:"type"`
	Unit          string            `json:"unit"`
	PriceCents    int               `json:"priceCents"`
	StockQuantity int               `json:"stockQuantity"`
	Origin        *string           `json:"origin,omitempty"`
	Images        []string          `json:"images"`
	IsActive      bool              `json:"isActive"`
	CreatedAt     time.Time         `json:"createdAt"`
	UpdatedAt     time.Time         `json:"updatedAt"`
}

// ToDTO maps a product row to its public projection.
func ToDTO(p models.Product) ProductDTO {
	images := []string(p.Images)
	if images == nil {
		images = []string{}
	}
	return ProductDTO{
		ID:            p.ID,
		SupplierID:    p.SupplierID,
		Name:          p.Name,
		Description:   p.Description,
		Type:          p.Type,
		Unit:          p.Unit,
		PriceCents:    p.PriceCents,
		StockQuantity: p.StockQuantity,
		Origin:        p.Origin,
		Images:        images,
		IsActive:      p.IsActive,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

// CreateProductInput carries the fields accepted when listing a product.
type CreateProductInput struct {
	SupplierID    *uuid.UUID
	Name          string
	Description   *string
	Type          enums.ProductType
	Unit          string
	PriceCents    int
	StockQuantity int
	Origin        *string
	Images        []string
}

// UpdateProductInput carries optional fields; nil means leave unchanged.
type UpdateProductInput struct {
	Name          *string
	Description   *string
	Unit          *string
	PriceCents    *int
	StockQuantity *int
	Origin        *string
	Images        []string
	IsActive      *bool
}

// ListFilters narrows catalog listings.
type ListFilters struct {
	Type       *enums.ProductType
	Search     string
	OnlyActive bool
	SupplierID *uuid.UUID
}
