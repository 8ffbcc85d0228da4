package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/clickmarket/clickmarket-backend/pkg/db/models"
	"github.com/clickmarket/clickmarket-backend/pkg/enums"
)

// Actor identifies who is performing an order operation.
type Actor struct {
	ID   uuid.UUID
	Role enums.UserRole
}

// IsPrivileged reports whether the actor may act on any order.
func (a Actor) IsPrivileged() bool {
	return a.Role == enums.UserRoleAdmin || a.Role == enums.UserRoleSupplier
}

// CreateOrderInput carries the checkout fields.
type CreateOrderInput struct {
	DeliveryRequested bool
	DeliveryAddress   *string
	DeliveryZoneID    *uuid.UUID
	DesiredDate       *time.Time
}

// OrderLineItemDTO is a frozen order line.
type OrderLineItemDTO struct {
	ID             uuid.UUID  `json:"id"`
	ProductID      *uuid.UUID `json:"productId,omitempty"`
	ProductName    string     `json:"productName"`
	ProductUnit    string     `json:"productUnit"`
	Quantity       int        `json:"quantity"`
	UnitPriceCents int        `json:"unitPriceCents"`
	LineTotalCents int        `json:"lineTotalCents"`
}

// AuditEntryDTO is one append-only order history row.
type AuditEntryDTO struct {
	ID        uuid.UUID  `json:"id"`
	ActorID   *uuid.UUID `json:"actorId,omitempty"`
	ActorRole string     `json:"actorRole"`
	Field     string     `json:"field"`
	OldValue  string     `json:"oldValue"`
	NewValue  string     `json:"newValue"`
	Reason    *string    `json:"reason,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

// CommentDTO is one order comment.
type CommentDTO struct {
	ID         uuid.UUID `json:"id"`
	AuthorID   uuid.UUID `json:"authorId"`
	AuthorRole string    `json:"authorRole"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"createdAt"`
}

// OrderDTO is the full order projection.
type OrderDTO struct {
	ID                uuid.UUID           `json:"id"`
	UserID            uuid.UUID           `json:"userId"`
	Status            enums.OrderStatus   `json:"status"`
	PaymentStatus     enums.PaymentStatus `json:"paymentStatus"`
	TotalCents        int                 `json:"totalCents"`
	DeliveryRequested bool                `json:"deliveryRequested"`
	DeliveryAddress   *string             `json:"deliveryAddress,omitempty"`
	DeliveryZoneID    *uuid.UUID          `json:"deliveryZoneId,omitempty"`
	DeliveryFeeCents  int                 `json:"deliveryFeeCents"`
	DesiredDate       *time.Time          `json:"desiredDate,omitempty"`
	LineItems         []OrderLineItemDTO  `json:"lineItems"`
	AuditLog          []AuditEntryDTO     `json:"auditLog"`
	Comments          []CommentDTO        `json:"comments"`
	CreatedAt         time.Time           `json:"createdAt"`
	UpdatedAt         time.Time           `json:"updatedAt"`
}

// OrderSummaryDTO is the list projection without nested collections.
type OrderSummaryDTO struct {
	ID            uuid.UUID           `json:"id"`
	UserID        uuid.UUID           `json:"userId"`
	Status        enums.OrderStatus   `json:"status"`
	PaymentStatus enums.PaymentStatus `json:"paymentStatus"`
	TotalCents    int                 `json:"totalCents"`
	ItemCount     int                 `json:"itemCount"`
	CreatedAt     time.Time           `json:"createdAt"`
}

// ToDTO maps an order row plus preloaded collections to the response shape.
func ToDTO(o models.Order) OrderDTO {
	lineItems := make([]OrderLineItemDTO, 0, len(o.LineItems))
	for _, item := range o.LineItems {
		lineItems = append(lineItems, OrderLineItemDTO{
			ID:             item.ID,
			ProductID:      item.ProductID,
			ProductName:    item.ProductName,
			ProductUnit:    item.ProductUnit,
			Quantity:       item.Quantity,
			UnitPriceCents: item.UnitPriceCents,
			LineTotalCents: item.LineTotalCents,
		})
	}
	auditLog := make([]AuditEntryDTO, 0, len(o.AuditEntries))
	for _, entry := range o.AuditEntries {
		auditLog = append(auditLog, AuditEntryDTO{
			ID:        entry.ID,
			ActorID:   entry.ActorID,
			ActorRole: entry.ActorRole,
			Field:     entry.Field,
			OldValue:  entry.OldValue,
			NewValue:  entry.NewValue,
			Reason:    entry.Reason,
			CreatedAt: entry.CreatedAt,
		})
	}
	comments := make([]CommentDTO, 0, len(o.Comments))
	for _, comment := range o.Comments {
		comments = append(comments, CommentDTO{
			ID:         comment.ID,
			AuthorID:   comment.AuthorID,
			AuthorRole: comment.AuthorRole,
			Body:       comment.Body,
			CreatedAt:  comment.CreatedAt,
		})
	}
	return OrderDTO{
		ID:                o.ID,
		UserID:            o.UserID,
		Status:            o.Status,
		PaymentStatus:     o.PaymentStatus,
		TotalCents:        o.TotalCents,
		DeliveryRequested: o.DeliveryRequested,
		DeliveryAddress:   o.DeliveryAddress,
		DeliveryZoneID:    o.DeliveryZoneID,
		DeliveryFeeCents:  o.DeliveryFeeCents,
		DesiredDate:       o.DesiredDate,
		LineItems:         lineItems,
		AuditLog:          auditLog,
		Comments:          comments,
		CreatedAt:         o.CreatedAt,
		UpdatedAt:         o.UpdatedAt,
	}
}

func toSummaryDTO(o models.Order) OrderSummaryDTO {
	return OrderSummaryDTO{
		ID:            o.ID,
		UserID:        o.UserID,
		Status:        o.Status,
		PaymentStatus: o.PaymentStatus,
		TotalCents:    o.TotalCents,
		ItemCount:     len(o.LineItems),
		CreatedAt:     o.CreatedAt,
	}
}
