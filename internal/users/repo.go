package users

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/clickmarket/clickmarket-backend/pkg/db/models"
)

// Repository defines read operations over user accounts.
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindSupplierProfile(ctx context.Context, supplierID uuid.UUID) (*models.SupplierProfile, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a users repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Preload("Supplier").
		Where("id = ?", id).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *repository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Where("email = ?", email).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *repository) FindSupplierProfile(ctx context.Context, supplierID uuid.UUID) (*models.SupplierProfile, error) {
	var profile models.SupplierProfile
	err := r.db.WithContext(ctx).
		Where("id = ?", supplierID).
		First(&profile).Error
	if err != nil {
		return nil, err
	}
	return &profile, nil
}
