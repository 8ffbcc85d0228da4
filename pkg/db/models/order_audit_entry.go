package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderAuditEntry records a single state change on an order: who changed
// which field, from what value to what value. Append-only.
type OrderAuditEntry struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID   uuid.UUID  `gorm:"column:order_id;type:uuid;not null;index"`
	ActorID   *uuid.UUID `gorm:"column:actor_id;type:uuid"`
	ActorRole string     `gorm:"column:actor_role;not null"`
	Field     string     `gorm:"column:field;not null"`
	OldValue  string     `gorm:"column:old_value;not null"`
	NewValue  string     `gorm:"column:new_value;not null"`
	Reason    *string    `gorm:"column:reason"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
}
