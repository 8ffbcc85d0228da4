package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/clickmarket/clickmarket-backend/internal/identity"
	"github.com/clickmarket/clickmarket-backend/pkg/db/models"
	"github.com/clickmarket/clickmarket-backend/pkg/enums"
)

// Repository defines persistence operations for order tables.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	CreateLineItems(ctx context.Context, items []models.OrderLineItem) error
	CreateAuditEntry(ctx context.Context, entry *models.OrderAuditEntry) error
	CreateComment(ctx context.Context, comment *models.OrderComment) error
	FindByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error)
	ListAll(ctx context.Context) ([]models.Order, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) error
	UpdatePaymentStatus(ctx context.Context, orderID uuid.UUID, status enums.PaymentStatus) error
}

// cartSource is the slice of the cart layer checkout needs.
type cartSource interface {
	FindByOwner(ctx context.Context, owner identity.Identity) (*models.Cart, error)
}

// zoneSource resolves delivery zones when delivery is requested.
type zoneSource interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.DeliveryZone, error)
}
