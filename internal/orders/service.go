package orders

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/clickmarket/clickmarket-backend/internal/identity"
	"github.com/clickmarket/clickmarket-backend/pkg/db/models"
	"github.com/clickmarket/clickmarket-backend/pkg/enums"
	pkgerrors "github.com/clickmarket/clickmarket-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

const (
	auditFieldStatus  = "status"
	auditFieldPayment = "payment_status"
)

// Service defines order-level operations.
type Service interface {
	Create(ctx context.Context, userID uuid.UUID, input CreateOrderInput) (OrderDTO, error)
	List(ctx context.Context, actor Actor) ([]OrderSummaryDTO, error)
	Get(ctx context.Context, actor Actor, orderID uuid.UUID) (OrderDTO, error)
	UpdateStatus(ctx context.Context, actor Actor, orderID uuid.UUID, status enums.OrderStatus, reason *string) (OrderDTO, error)
	UpdatePayment(ctx context.Context, actor Actor, orderID uuid.UUID, status enums.PaymentStatus, reason *string) (OrderDTO, error)
	Cancel(ctx context.Context, actor Actor, orderID uuid.UUID, reason *string) (OrderDTO, error)
	AddComment(ctx context.Context, actor Actor, orderID uuid.UUID, body string) (OrderDTO, error)
}

type service struct {
	repo  Repository
	carts cartSource
	zones zoneSource
	tx    txRunner
}

// NewService builds an orders service with the required dependencies.
func NewService(repo Repository, carts cartSource, zones zoneSource, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "orders repo is required")
	}
	if carts == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart source is required")
	}
	if zones == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "zone source is required")
	}
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction runner is required")
	}
	return &service{repo: repo, carts: carts, zones: zones, tx: tx}, nil
}

// Create snapshots the user's cart into an immutable order. The cart itself
// is left untouched; clients clear it separately once the order is accepted.
func (s *service) Create(ctx context.Context, userID uuid.UUID, input CreateOrderInput) (OrderDTO, error) {
	if userID == uuid.Nil {
		return OrderDTO{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.DeliveryRequested {
		if input.DeliveryAddress == nil || strings.TrimSpace(*input.DeliveryAddress) == "" {
			return OrderDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "delivery address is required")
		}
		if input.DeliveryZoneID == nil || *input.DeliveryZoneID == uuid.Nil {
			return OrderDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "delivery zone is required")
		}
	}

	owner, err := identity.ForUser(userID)
	if err != nil {
		return OrderDTO{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid user identity")
	}

	var orderID uuid.UUID
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		userCart, err := s.carts.FindByOwner(ctx, owner)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
		}
		if len(userCart.Items) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
		}

		feeCents := 0
		if input.DeliveryRequested {
			zone, err := s.zones.FindByID(ctx, *input.DeliveryZoneID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "delivery zone not found")
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load delivery zone")
			}
			if !zone.IsActive {
				return pkgerrors.New(pkgerrors.CodeValidation, "delivery zone is not active")
			}
			feeCents = zone.FeeCents
		}

		total := feeCents
		lineItems := make([]models.OrderLineItem, 0, len(userCart.Items))
		for _, item := range userCart.Items {
			lineTotal := item.LineTotalCents()
			total += lineTotal
			productID := item.ProductID
			line := models.OrderLineItem{
				ID:             uuid.New(),
				ProductID:      &productID,
				Quantity:       item.Quantity,
				UnitPriceCents: item.UnitPriceCents,
				LineTotalCents: lineTotal,
			}
			if item.Product != nil {
				line.ProductName = item.Product.Name
				line.ProductUnit = item.Product.Unit
			}
			lineItems = append(lineItems, line)
		}

		order := &models.Order{
			ID:                uuid.New(),
			UserID:            userID,
			Status:            enums.OrderStatusPending,
			PaymentStatus:     enums.PaymentStatusPending,
			TotalCents:        total,
			DeliveryRequested: input.DeliveryRequested,
			DeliveryAddress:   input.DeliveryAddress,
			DeliveryZoneID:    input.DeliveryZoneID,
			DeliveryFeeCents:  feeCents,
			DesiredDate:       input.DesiredDate,
		}
		created, err := repo.Create(ctx, order)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}
		orderID = created.ID

		for i := range lineItems {
			lineItems[i].OrderID = created.ID
		}
		if err := repo.CreateLineItems(ctx, lineItems); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order lines")
		}
		return nil
	})
	if err != nil {
		return OrderDTO{}, err
	}
	return s.reload(ctx, orderID)
}

// List returns the actor's own orders, or every order for privileged roles.
func (s *service) List(ctx context.Context, actor Actor) ([]OrderSummaryDTO, error) {
	if actor.ID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	var (
		records []models.Order
		err     error
	)
	if actor.IsPrivileged() {
		records, err = s.repo.ListAll(ctx)
	} else {
		records, err = s.repo.ListByUser(ctx, actor.ID)
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}

	summaries := make([]OrderSummaryDTO, 0, len(records))
	for _, record := range records {
		summaries = append(summaries, toSummaryDTO(record))
	}
	return summaries, nil
}

// Get returns the full order when the actor owns it or is privileged.
func (s *service) Get(ctx context.Context, actor Actor, orderID uuid.UUID) (OrderDTO, error) {
	order, err := s.authorizeRead(ctx, actor, orderID)
	if err != nil {
		return OrderDTO{}, err
	}
	return ToDTO(*order), nil
}

// UpdateStatus advances the fulfillment state machine; privileged roles only.
func (s *service) UpdateStatus(ctx context.Context, actor Actor, orderID uuid.UUID, status enums.OrderStatus, reason *string) (OrderDTO, error) {
	if actor.ID == uuid.Nil {
		return OrderDTO{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if !actor.IsPrivileged() {
		return OrderDTO{}, pkgerrors.New(pkgerrors.CodeForbidden, "status changes require an admin or supplier")
	}
	if !status.IsValid() {
		return OrderDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := s.findForUpdate(ctx, repo, orderID)
		if err != nil {
			return err
		}
		if order.Status == status {
			return nil
		}
		if order.Status.IsTerminal() {
			return pkgerrors.New(pkgerrors.CodeInvalidState, "order is in a terminal state")
		}
		if !order.Status.CanTransitionTo(status) {
			return pkgerrors.New(pkgerrors.CodeInvalidState, "status transition not allowed")
		}

		if err := repo.UpdateStatus(ctx, order.ID, status); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update status")
		}
		return s.appendAudit(ctx, repo, order.ID, actor, auditFieldStatus, order.Status.String(), status.String(), reason)
	})
	if err != nil {
		return OrderDTO{}, err
	}
	return s.reload(ctx, orderID)
}

// UpdatePayment advances the payment state machine; privileged roles only.
func (s *service) UpdatePayment(ctx context.Context, actor Actor, orderID uuid.UUID, status enums.PaymentStatus, reason *string) (OrderDTO, error) {
	if actor.ID == uuid.Nil {
		return OrderDTO{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if !actor.IsPrivileged() {
		return OrderDTO{}, pkgerrors.New(pkgerrors.CodeForbidden, "payment changes require an admin or supplier")
	}
	if !status.IsValid() {
		return OrderDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment status")
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := s.findForUpdate(ctx, repo, orderID)
		if err != nil {
			return err
		}
		if order.PaymentStatus == status {
			return nil
		}
		if !order.PaymentStatus.CanTransitionTo(status) {
			return pkgerrors.New(pkgerrors.CodeInvalidState, "payment transition not allowed")
		}

		if err := repo.UpdatePaymentStatus(ctx, order.ID, status); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update payment status")
		}
		return s.appendAudit(ctx, repo, order.ID, actor, auditFieldPayment, order.PaymentStatus.String(), status.String(), reason)
	})
	if err != nil {
		return OrderDTO{}, err
	}
	return s.reload(ctx, orderID)
}

// Cancel moves the order to cancelled; owner or admin only.
func (s *service) Cancel(ctx context.Context, actor Actor, orderID uuid.UUID, reason *string) (OrderDTO, error) {
	if actor.ID == uuid.Nil {
		return OrderDTO{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := s.findForUpdate(ctx, repo, orderID)
		if err != nil {
			return err
		}
		if order.UserID != actor.ID && actor.Role != enums.UserRoleAdmin {
			return pkgerrors.New(pkgerrors.CodeForbidden, "only the owner or an admin may cancel")
		}
		if order.Status.IsTerminal() {
			return pkgerrors.New(pkgerrors.CodeInvalidState, "order can no longer be cancelled")
		}

		if err := repo.UpdateStatus(ctx, order.ID, enums.OrderStatusCancelled); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel order")
		}
		return s.appendAudit(ctx, repo, order.ID, actor, auditFieldStatus, order.Status.String(), enums.OrderStatusCancelled.String(), reason)
	})
	if err != nil {
		return OrderDTO{}, err
	}
	return s.reload(ctx, orderID)
}

// AddComment appends a note; owner or privileged roles.
func (s *service) AddComment(ctx context.Context, actor Actor, orderID uuid.UUID, body string) (OrderDTO, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return OrderDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "comment body is required")
	}

	order, err := s.authorizeRead(ctx, actor, orderID)
	if err != nil {
		return OrderDTO{}, err
	}

	comment := &models.OrderComment{
		ID:         uuid.New(),
		OrderID:    order.ID,
		AuthorID:   actor.ID,
		AuthorRole: actor.Role.String(),
		Body:       body,
	}
	if err := s.repo.CreateComment(ctx, comment); err != nil {
		return OrderDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create comment")
	}
	return s.reload(ctx, orderID)
}

func (s *service) authorizeRead(ctx context.Context, actor Actor, orderID uuid.UUID) (*models.Order, error) {
	if actor.ID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.UserID != actor.ID && !actor.IsPrivileged() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to user")
	}
	return order, nil
}

func (s *service) findForUpdate(ctx context.Context, repo Repository, orderID uuid.UUID) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	order, err := repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func (s *service) appendAudit(ctx context.Context, repo Repository, orderID uuid.UUID, actor Actor, field, oldValue, newValue string, reason *string) error {
	actorID := actor.ID
	entry := &models.OrderAuditEntry{
		ID:        uuid.New(),
		OrderID:   orderID,
		ActorID:   &actorID,
		ActorRole: actor.Role.String(),
		Field:     field,
		OldValue:  oldValue,
		NewValue:  newValue,
		Reason:    reason,
	}
	if err := repo.CreateAuditEntry(ctx, entry); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append audit entry")
	}
	return nil
}

func (s *service) reload(ctx context.Context, orderID uuid.UUID) (OrderDTO, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return OrderDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
	}
	return ToDTO(*order), nil
}
