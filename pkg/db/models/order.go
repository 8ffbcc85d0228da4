package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/clickmarket/clickmarket-backend/pkg/enums"
)

// Order is an immutable snapshot created at checkout. Line items carry
// frozen copies of product data so later catalog edits never rewrite an
// order's history.
type Order struct {
	ID                uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID            uuid.UUID           `gorm:"column:user_id;type:uuid;not null;index"`
	Status            enums.OrderStatus   `gorm:"column:status;type:text;not null;default:'pending'"`
	PaymentStatus     enums.PaymentStatus `gorm:"column:payment_status;type:text;not null;default:'pending'"`
	TotalCents        int                 `gorm:"column:total_cents;not null"`
	DeliveryRequested bool                `gorm:"column:delivery_requested;not null;default:false"`
	DeliveryAddress   *string             `gorm:"column:delivery_address"`
	DeliveryZoneID    *uuid.UUID          `gorm:"column:delivery_zone_id;type:uuid"`
	DeliveryFeeCents  int                 `gorm:"column:delivery_fee_cents;not null;default:0"`
	DesiredDate       *time.Time          `gorm:"column:desired_date"`
	LineItems         []OrderLineItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	AuditEntries      []OrderAuditEntry   `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Comments          []OrderComment      `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt         time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
