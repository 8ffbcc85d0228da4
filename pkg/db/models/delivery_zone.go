package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// DeliveryZone lists the postal codes a delivery round covers.
type DeliveryZone struct {
	ID            uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name          string         `gorm:"column:name;not null;uniqueIndex"`
	PostalCodes   pq.StringArray `gorm:"column:postal_codes;type:text[];not null;default:ARRAY[]::text[]"`
	DeliveryDays  pq.StringArray `gorm:"column:delivery_days;type:text[];not null;default:ARRAY[]::text[]"`
	FeeCents      int            `gorm:"column:fee_cents;not null;default:0"`
	MinOrderCents int            `gorm:"column:min_order_cents;not null;default:0"`
	IsActive      bool           `gorm:"column:is_active;not null;default:true"`
	CreatedAt     time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
