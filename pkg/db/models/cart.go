package models

import (
	"time"

	"github.com/google/uuid"
)

// Cart belongs to exactly one owner: a registered user or an anonymous
// session. The check constraint and partial unique indexes enforce the
// one-active-cart-per-owner rule at the database level.
type Cart struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    *uuid.UUID `gorm:"column:user_id;type:uuid"`
	SessionID *string    `gorm:"column:session_id;type:text"`
	Items     []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// IsGuest reports whether the cart is owned by an anonymous session.
func (c Cart) IsGuest() bool {
	return c.UserID == nil && c.SessionID != nil
}
