package users

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/clickmarket/clickmarket-backend/pkg/db/models"
	"github.com/clickmarket/clickmarket-backend/pkg/enums"
	pkgerrors "github.com/clickmarket/clickmarket-backend/pkg/errors"
)

// ProfileDTO is the authenticated user's own projection.
type ProfileDTO struct {
	ID        uuid.UUID           `json:"id"`
	Email     string              `json:"email"`
	FirstName string              `json:"firstName"`
	LastName  string              `json:"lastName"`
	Phone     *string             `json:"phone,omitempty"`
	Role      enums.UserRole      `json:"role"`
	Supplier  *SupplierProfileDTO `json:"supplier,omitempty"`
	CreatedAt time.Time           `json:"createdAt"`
}

// SupplierProfileDTO exposes producer details nested under a profile.
type SupplierProfileDTO struct {
	ID          uuid.UUID `json:"id"`
	CompanyName string    `json:"companyName"`
	SIRET       *string   `json:"siret,omitempty"`
	Description *string   `json:"description,omitempty"`
	Region      *string   `json:"region,omitempty"`
}

// Service exposes account lookups used across the platform.
type Service interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (ProfileDTO, error)
	EnsureSupplierExists(ctx context.Context, supplierID uuid.UUID) error
}

type service struct {
	repo Repository
}

// NewService builds a users service with the required dependencies.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "users repo is required")
	}
	return &service{repo: repo}, nil
}

// GetProfile returns the account including the supplier profile when present.
func (s *service) GetProfile(ctx context.Context, userID uuid.UUID) (ProfileDTO, error) {
	if userID == uuid.Nil {
		return ProfileDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ProfileDTO{}, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "user not found")
		}
		return ProfileDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return toProfileDTO(*user), nil
}

// EnsureSupplierExists validates a supplier reference before product writes.
func (s *service) EnsureSupplierExists(ctx context.Context, supplierID uuid.UUID) error {
	if supplierID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "supplier id is required")
	}
	if _, err := s.repo.FindSupplierProfile(ctx, supplierID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "supplier not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load supplier")
	}
	return nil
}

func toProfileDTO(user models.User) ProfileDTO {
	dto := ProfileDTO{
		ID:        user.ID,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Phone:     user.Phone,
		Role:      user.Role,
		CreatedAt: user.CreatedAt,
	}
	if user.Supplier != nil {
		dto.Supplier = &SupplierProfileDTO{
			ID:          user.Supplier.ID,
			CompanyName: user.Supplier.CompanyName,
			SIRET:       user.Supplier.SIRET,
			Description: user.Supplier.Description,
			Region:      user.Supplier.Region,
		}
	}
	return dto
}
