package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/clickmarket/clickmarket-backend/pkg/enums"
)

// Product represents a catalog listing. Prices are stored as integer cents.
type Product struct {
	ID            uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SupplierID    *uuid.UUID        `gorm:"column:supplier_id;type:uuid"`
	Name          string            `gorm:"column:name;not null"`
	Description   *string           `gorm:"column:description"`
	Type          enums.ProductType `gorm:"column:type;type:text;not null"`
	Unit          string            `gorm:"column:unit;not null;default:'kg'"`
	PriceCents    int               `gorm:"column:price_cents;not null"`
	StockQuantity int               `gorm:"column:stock_quantity;not null;default:0"`
	Origin        *string           `gorm:"column:origin"`
	Images        pq.StringArray    `gorm:"column:images;type:text[];not null;default:ARRAY[]::text[]"`
	IsActive      bool              `gorm:"column:is_active;not null;default:true"`
	CreatedAt     time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
