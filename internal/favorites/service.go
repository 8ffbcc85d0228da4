package favorites

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/clickmarket/clickmarket-backend/internal/products"
	pkgerrors "github.com/clickmarket/clickmarket-backend/pkg/errors"
)

// FavoriteDTO wraps the product included in a favorites row.
type FavoriteDTO struct {
	Product   products.ProductDTO `json:"product"`
	CreatedAt time.Time           `json:"createdAt"`
}

// Service exposes business rules for favorites management.
type Service interface {
	GetFavorites(ctx context.Context, userID uuid.UUID) ([]FavoriteDTO, error)
	GetFavoriteIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	AddItem(ctx context.Context, userID, productID uuid.UUID) error
	RemoveItem(ctx context.Context, userID, productID uuid.UUID) error
}

type service struct {
	favoritesRepo *Repository
	productRepo   products.Repository
}

// NewService builds a favorites service with the required dependencies.
func NewService(favoritesRepo *Repository, productRepo products.Repository) (Service, error) {
	if favoritesRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "favorites repo is required")
	}
	if productRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "products repo is required")
	}
	return &service{favoritesRepo: favoritesRepo, productRepo: productRepo}, nil
}

// GetFavorites returns the user's favorites with product details.
func (s *service) GetFavorites(ctx context.Context, userID uuid.UUID) ([]FavoriteDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	records, err := s.favoritesRepo.ListItems(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list favorites")
	}
	dtos := make([]FavoriteDTO, 0, len(records))
	for _, record := range records {
		if record.Product == nil {
			continue
		}
		dtos = append(dtos, FavoriteDTO{
			Product:   products.ToDTO(*record.Product),
			CreatedAt: record.CreatedAt,
		})
	}
	return dtos, nil
}

// GetFavoriteIDs returns all favorited product IDs for the user.
func (s *service) GetFavoriteIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	ids, err := s.favoritesRepo.ListItemIDs(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list favorite ids")
	}
	return ids, nil
}

// AddItem ensures the product exists and adds it to the favorites.
func (s *service) AddItem(ctx context.Context, userID, productID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if productID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if _, err := s.productRepo.FindByID(ctx, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "product not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return s.favoritesRepo.AddItem(ctx, userID, productID)
}

// RemoveItem drops the favorite entry regardless of prior state.
func (s *service) RemoveItem(ctx context.Context, userID, productID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	return s.favoritesRepo.RemoveItem(ctx, userID, productID)
}
