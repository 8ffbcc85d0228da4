package models

import (
	"time"

	"github.com/google/uuid"
)

// SupplierProfile extends a user account with producer details.
type SupplierProfile struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID      uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex"`
	CompanyName string    `gorm:"column:company_name;not null"`
	SIRET       *string   `gorm:"column:siret"`
	Description *string   `gorm:"column:description"`
	Region      *string   `gorm:"column:region"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
