package products

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/clickmarket/clickmarket-backend/pkg/db/models"
	pkgerrors "github.com/clickmarket/clickmarket-backend/pkg/errors"
)

// Service exposes business rules for catalog management.
type Service interface {
	GetProduct(ctx context.Context, id uuid.UUID) (ProductDTO, error)
	ListProducts(ctx context.Context, filters ListFilters) ([]ProductDTO, error)
	CreateProduct(ctx context.Context, input CreateProductInput) (ProductDTO, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, input UpdateProductInput) (ProductDTO, error)
	DeactivateProduct(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo Repository
}

// NewService builds a catalog service with the required dependencies.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "products repo is required")
	}
	return &service{repo: repo}, nil
}

// GetProduct returns a single product regardless of active state.
func (s *service) GetProduct(ctx context.Context, id uuid.UUID) (ProductDTO, error) {
	if id == uuid.Nil {
		return ProductDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ProductDTO{}, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "product not found")
		}
		return ProductDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return ToDTO(*product), nil
}

// ListProducts returns the catalog filtered by type and search term.
func (s *service) ListProducts(ctx context.Context, filters ListFilters) ([]ProductDTO, error) {
	records, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	dtos := make([]ProductDTO, 0, len(records))
	for _, record := range records {
		dtos = append(dtos, ToDTO(record))
	}
	return dtos, nil
}

// CreateProduct validates and inserts a new catalog listing.
func (s *service) CreateProduct(ctx context.Context, input CreateProductInput) (ProductDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return ProductDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
	}
	if !input.Type.IsValid() {
		return ProductDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid product type")
	}
	if input.PriceCents < 0 {
		return ProductDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "price must not be negative")
	}
	if input.StockQuantity < 0 {
		return ProductDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "stock must not be negative")
	}

	unit := strings.TrimSpace(input.Unit)
	if unit == "" {
		unit = "kg"
	}

	product := &models.Product{
		ID:            uuid.New(),
		SupplierID:    input.SupplierID,
		Name:          name,
		Description:   input.Description,
		Type:          input.Type,
		Unit:          unit,
		PriceCents:    input.PriceCents,
		StockQuantity: input.StockQuantity,
		Origin:        input.Origin,
		Images:        pq.StringArray(input.Images),
		IsActive:      true,
	}

	created, err := s.repo.Create(ctx, product)
	if err != nil {
		return ProductDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}
	return ToDTO(*created), nil
}

// UpdateProduct applies the provided partial update and returns the fresh row.
func (s *service) UpdateProduct(ctx context.Context, id uuid.UUID, input UpdateProductInput) (ProductDTO, error) {
	if id == uuid.Nil {
		return ProductDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}

	updates := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return ProductDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "product name must not be empty")
		}
		updates["name"] = name
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.Unit != nil {
		updates["unit"] = *input.Unit
	}
	if input.PriceCents != nil {
		if *input.PriceCents < 0 {
			return ProductDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "price must not be negative")
		}
		updates["price_cents"] = *input.PriceCents
	}
	if input.StockQuantity != nil {
		if *input.StockQuantity < 0 {
			return ProductDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "stock must not be negative")
		}
		updates["stock_quantity"] = *input.StockQuantity
	}
	if input.Origin != nil {
		updates["origin"] = *input.Origin
	}
	if input.Images != nil {
		updates["images"] = pq.StringArray(input.Images)
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}

	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ProductDTO{}, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "product not found")
		}
		return ProductDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}

	if err := s.repo.Update(ctx, id, updates); err != nil {
		return ProductDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
	}

	fresh, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return ProductDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload product")
	}
	return ToDTO(*fresh), nil
}

// DeactivateProduct hides the product from the catalog without deleting rows
// referenced by existing carts and orders.
func (s *service) DeactivateProduct(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "product not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if err := s.repo.Update(ctx, id, map[string]any{"is_active": false}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivate product")
	}
	return nil
}
