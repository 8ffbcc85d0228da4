package zones

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/clickmarket/clickmarket-backend/pkg/db/models"
)

// Repository defines persistence operations for delivery zones.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, zone *models.DeliveryZone) (*models.DeliveryZone, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.DeliveryZone, error)
	List(ctx context.Context, onlyActive bool) ([]models.DeliveryZone, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a zones repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, zone *models.DeliveryZone) (*models.DeliveryZone, error) {
	if err := r.db.WithContext(ctx).Create(zone).Error; err != nil {
		return nil, err
	}
	return zone, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.DeliveryZone, error) {
	var zone models.DeliveryZone
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&zone).Error
	if err != nil {
		return nil, err
	}
	return &zone, nil
}

func (r *repository) List(ctx context.Context, onlyActive bool) ([]models.DeliveryZone, error) {
	query := r.db.WithContext(ctx).Model(&models.DeliveryZone{})
	if onlyActive {
		query = query.Where("is_active = ?", true)
	}
	var records []models.DeliveryZone
	if err := query.Order("name ASC").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.DeliveryZone{}).
		Where("id = ?", id).
		Updates(updates).Error
}
