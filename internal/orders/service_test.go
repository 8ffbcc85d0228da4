package orders

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/clickmarket/clickmarket-backend/internal/cart"
	"github.com/clickmarket/clickmarket-backend/internal/zones"
	"github.com/clickmarket/clickmarket-backend/pkg/db/models"
	"github.com/clickmarket/clickmarket-backend/pkg/enums"
	pkgerrors "github.com/clickmarket/clickmarket-backend/pkg/errors"
)

type testTxRunner struct {
	db *gorm.DB
}

func (r *testTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func setupOrderTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	// A plain ":memory:" database is private to a single connection, so the
	// tables created below would be invisible to the extra connection the
	// pool opens for transactions. Use a uniquely named shared-cache
	// database so every connection in this test sees the same schema.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	statements := []string{
		`CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  supplier_id TEXT,
  name TEXT NOT NULL,
  description TEXT,
  type TEXT NOT NULL,
  unit TEXT NOT NULL DEFAULT 'kg',
  price_cents INTEGER NOT NULL,
  stock_quantity INTEGER NOT NULL DEFAULT 0,
  origin TEXT,
  images TEXT,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS carts (
  id TEXT PRIMARY KEY,
  user_id TEXT,
  session_id TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS cart_items (
  id TEXT PRIMARY KEY,
  cart_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  unit_price_cents INTEGER NOT NULL,
  created_at DATETIME,
  updated_at DATETIME,
  UNIQUE (cart_id, product_id)
);`,
		`CREATE TABLE IF NOT EXISTS delivery_zones (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL UNIQUE,
  postal_codes TEXT,
  delivery_days TEXT,
  fee_cents INTEGER NOT NULL DEFAULT 0,
  min_order_cents INTEGER NOT NULL DEFAULT 0,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  status TEXT NOT NULL,
  payment_status TEXT NOT NULL,
  total_cents INTEGER NOT NULL,
  delivery_requested INTEGER NOT NULL DEFAULT 0,
  delivery_address TEXT,
  delivery_zone_id TEXT,
  delivery_fee_cents INTEGER NOT NULL DEFAULT 0,
  desired_date DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS order_line_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  product_id TEXT,
  product_name TEXT NOT NULL,
  product_unit TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  unit_price_cents INTEGER NOT NULL,
  line_total_cents INTEGER NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS order_audit_entries (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  actor_id TEXT,
  actor_role TEXT NOT NULL,
  field TEXT NOT NULL,
  old_value TEXT NOT NULL,
  new_value TEXT NOT NULL,
  reason TEXT,
  created_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS order_comments (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  author_id TEXT NOT NULL,
  author_role TEXT NOT NULL,
  body TEXT NOT NULL,
  created_at DATETIME
);`,
	}
	for _, stmt := range statements {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

func newOrderService(t *testing.T, db *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(NewRepository(db), cart.NewRepository(db), zones.NewRepository(db), &testTxRunner{db: db})
	require.NoError(t, err)
	return svc
}

func seedProduct(t *testing.T, db *gorm.DB, name string, priceCents int) *models.Product {
	t.Helper()
	product := &models.Product{
		ID:            uuid.New(),
		Name:          name,
		Type:          enums.ProductTypeFruit,
		Unit:          "kg",
		PriceCents:    priceCents,
		StockQuantity: 100,
		IsActive:      true,
	}
	require.NoError(t, db.Create(product).Error)
	return product
}

func seedUserCart(t *testing.T, db *gorm.DB, userID uuid.UUID, lines ...*models.Product) *models.Cart {
	t.Helper()
	userCart := &models.Cart{ID: uuid.New(), UserID: &userID}
	require.NoError(t, db.Create(userCart).Error)
	for i, product := range lines {
		item := &models.CartItem{
			ID:             uuid.New(),
			CartID:         userCart.ID,
			ProductID:      product.ID,
			Quantity:       i + 1,
			UnitPriceCents: product.PriceCents,
		}
		require.NoError(t, db.Create(item).Error)
	}
	return userCart
}

func seedZone(t *testing.T, db *gorm.DB, name string, feeCents int, active bool) *models.DeliveryZone {
	t.Helper()
	zone := &models.DeliveryZone{
		ID:       uuid.New(),
		Name:     name,
		FeeCents: feeCents,
		IsActive: active,
	}
	require.NoError(t, db.Create(zone).Error)
	return zone
}

func TestCreateSnapshotsCartIntoOrder(t *testing.T) {
	db := setupOrderTestDB(t)
	svc := newOrderService(t, db)
	ctx := context.Background()

	userID := uuid.New()
	apples := seedProduct(t, db, "Pommes", 320)
	carrots := seedProduct(t, db, "Carottes", 150)
	seedUserCart(t, db, userID, apples, carrots)

	dto, err := svc.Create(ctx, userID, CreateOrderInput{})
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPending, dto.Status)
	assert.Equal(t, enums.PaymentStatusPending, dto.PaymentStatus)
	require.Len(t, dto.LineItems, 2)
	// qty 1 of apples plus qty 2 of carrots.
	assert.Equal(t, 320+2*150, dto.TotalCents)
	assert.Zero(t, dto.DeliveryFeeCents)

	byName := map[string]OrderLineItemDTO{}
	for _, line := range dto.LineItems {
		byName[line.ProductName] = line
	}
	assert.Equal(t, 320, byName["Pommes"].UnitPriceCents)
	assert.Equal(t, 320, byName["Pommes"].LineTotalCents)
	assert.Equal(t, 150, byName["Carottes"].UnitPriceCents)
	assert.Equal(t, 300, byName["Carottes"].LineTotalCents)

	// Checkout leaves the cart alone.
	var itemCount int64
	require.NoError(t, db.Model(&models.CartItem{}).Count(&itemCount).Error)
	assert.Equal(t, int64(2), itemCount)
}

func TestCreateOrderLinesFreezeAgainstCatalogChanges(t *testing.T) {
	db := setupOrderTestDB(t)
	svc := newOrderService(t, db)
	ctx := context.Background()

	userID := uuid.New()
	product := seedProduct(t, db, "Fraises", 480)
	seedUserCart(t, db, userID, product)

	dto, err := svc.Create(ctx, userID, CreateOrderInput{})
	require.NoError(t, err)

	require.NoError(t, db.Model(&models.Product{}).Where("id = ?", product.ID).
		Updates(map[string]interface{}{"name": "Fraises bio", "price_cents": 590}).Error)

	actor := Actor{ID: userID, Role: enums.UserRoleClient}
	fresh, err := svc.Get(ctx, actor, dto.ID)
	require.NoError(t, err)
	require.Len(t, fresh.LineItems, 1)
	assert.Equal(t, "Fraises", fresh.LineItems[0].ProductName)
	assert.Equal(t, 480, fresh.LineItems[0].UnitPriceCents)
	assert.Equal(t, 480, fresh.TotalCents)
}

func TestCreateWithDeliveryAddsZoneFee(t *testing.T) {
	db := setupOrderTestDB(t)
	svc := newOrderService(t, db)
	ctx := context.Background()

	userID := uuid.New()
	product := seedProduct(t, db, "Poires", 280)
	seedUserCart(t, db, userID, product)
	zone := seedZone(t, db, "Lyon Centre", 450, true)

	address := "12 rue de la République, 69002 Lyon"
	dto, err := svc.Create(ctx, userID, CreateOrderInput{
		DeliveryRequested: true,
		DeliveryAddress:   &address,
		DeliveryZoneID:    &zone.ID,
	})
	require.NoError(t, err)
	assert.True(t, dto.DeliveryRequested)
	assert.Equal(t, 450, dto.DeliveryFeeCents)
	assert.Equal(t, 280+450, dto.TotalCents)
}

func TestCreateRejectsBadCheckouts(t *testing.T) {
	db := setupOrderTestDB(t)
	svc := newOrderService(t, db)
	ctx := context.Background()

	// Empty cart.
	emptyUser := uuid.New()
	seedUserCart(t, db, emptyUser)
	_, err := svc.Create(ctx, emptyUser, CreateOrderInput{})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	// No cart at all.
	_, err = svc.Create(ctx, uuid.New(), CreateOrderInput{})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	userID := uuid.New()
	product := seedProduct(t, db, "Cerises", 620)
	seedUserCart(t, db, userID, product)

	// Delivery requested without an address.
	zoneID := uuid.New()
	_, err = svc.Create(ctx, userID, CreateOrderInput{
		DeliveryRequested: true,
		DeliveryZoneID:    &zoneID,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	// Unknown zone.
	address := "3 place Bellecour"
	_, err = svc.Create(ctx, userID, CreateOrderInput{
		DeliveryRequested: true,
		DeliveryAddress:   &address,
		DeliveryZoneID:    &zoneID,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())

	// Inactive zone.
	inactive := seedZone(t, db, "Zone fermée", 300, false)
	_, err = svc.Create(ctx, userID, CreateOrderInput{
		DeliveryRequested: true,
		DeliveryAddress:   &address,
		DeliveryZoneID:    &inactive.ID,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestListScopesByRole(t *testing.T) {
	db := setupOrderTestDB(t)
	svc := newOrderService(t, db)
	ctx := context.Background()

	firstUser := uuid.New()
	secondUser := uuid.New()
	product := seedProduct(t, db, "Abricots", 390)
	seedUserCart(t, db, firstUser, product)
	seedUserCart(t, db, secondUser, product)

	_, err := svc.Create(ctx, firstUser, CreateOrderInput{})
	require.NoError(t, err)
	_, err = svc.Create(ctx, secondUser, CreateOrderInput{})
	require.NoError(t, err)

	own, err := svc.List(ctx, Actor{ID: firstUser, Role: enums.UserRoleClient})
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, firstUser, own[0].UserID)
	assert.Equal(t, 1, own[0].ItemCount)

	all, err := svc.List(ctx, Actor{ID: uuid.New(), Role: enums.UserRoleAdmin})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestGetEnforcesOwnership(t *testing.T) {
	db := setupOrderTestDB(t)
	svc := newOrderService(t, db)
	ctx := context.Background()

	userID := uuid.New()
	product := seedProduct(t, db, "Melons", 520)
	seedUserCart(t, db, userID, product)

	dto, err := svc.Create(ctx, userID, CreateOrderInput{})
	require.NoError(t, err)

	_, err = svc.Get(ctx, Actor{ID: uuid.New(), Role: enums.UserRoleClient}, dto.ID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.As(err).Code())

	supplier, err := svc.Get(ctx, Actor{ID: uuid.New(), Role: enums.UserRoleSupplier}, dto.ID)
	require.NoError(t, err)
	assert.Equal(t, dto.ID, supplier.ID)

	_, err = svc.Get(ctx, Actor{ID: userID, Role: enums.UserRoleClient}, uuid.New())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestUpdateStatusWalksStateMachine(t *testing.T) {
	db := setupOrderTestDB(t)
	svc := newOrderService(t, db)
	ctx := context.Background()

	userID := uuid.New()
	product := seedProduct(t, db, "Pêches", 440)
	seedUserCart(t, db, userID, product)

	dto, err := svc.Create(ctx, userID, CreateOrderInput{})
	require.NoError(t, err)

	admin := Actor{ID: uuid.New(), Role: enums.UserRoleAdmin}

	// Clients may not drive fulfillment.
	_, err = svc.UpdateStatus(ctx, Actor{ID: userID, Role: enums.UserRoleClient}, dto.ID, enums.OrderStatusConfirmed, nil)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.As(err).Code())

	// Skipping steps is rejected.
	_, err = svc.UpdateStatus(ctx, admin, dto.ID, enums.OrderStatusDelivered, nil)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeInvalidState, pkgerrors.As(err).Code())

	confirmed, err := svc.UpdateStatus(ctx, admin, dto.ID, enums.OrderStatusConfirmed, nil)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusConfirmed, confirmed.Status)
	require.Len(t, confirmed.AuditLog, 1)
	assert.Equal(t, "status", confirmed.AuditLog[0].Field)
	assert.Equal(t, "pending", confirmed.AuditLog[0].OldValue)
	assert.Equal(t, "confirmed", confirmed.AuditLog[0].NewValue)

	for _, next := range []enums.OrderStatus{
		enums.OrderStatusInProgress,
		enums.OrderStatusShipped,
		enums.OrderStatusDelivered,
	} {
		_, err = svc.UpdateStatus(ctx, admin, dto.ID, next, nil)
		require.NoError(t, err)
	}

	// Delivered is terminal.
	_, err = svc.UpdateStatus(ctx, admin, dto.ID, enums.OrderStatusCancelled, nil)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeInvalidState, pkgerrors.As(err).Code())

	final, err := svc.Get(ctx, admin, dto.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusDelivered, final.Status)
	assert.Len(t, final.AuditLog, 4)
}

func TestUpdatePaymentIsAuditedAndGuarded(t *testing.T) {
	db := setupOrderTestDB(t)
	svc := newOrderService(t, db)
	ctx := context.Background()

	userID := uuid.New()
	product := seedProduct(t, db, "Framboises", 710)
	seedUserCart(t, db, userID, product)

	dto, err := svc.Create(ctx, userID, CreateOrderInput{})
	require.NoError(t, err)

	supplier := Actor{ID: uuid.New(), Role: enums.UserRoleSupplier}

	_, err = svc.UpdatePayment(ctx, Actor{ID: userID, Role: enums.UserRoleClient}, dto.ID, enums.PaymentStatusSucceeded, nil)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.As(err).Code())

	reason := "virement reçu"
	paid, err := svc.UpdatePayment(ctx, supplier, dto.ID, enums.PaymentStatusSucceeded, &reason)
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusSucceeded, paid.PaymentStatus)
	require.Len(t, paid.AuditLog, 1)
	assert.Equal(t, "payment_status", paid.AuditLog[0].Field)
	require.NotNil(t, paid.AuditLog[0].Reason)
	assert.Equal(t, reason, *paid.AuditLog[0].Reason)

	// Succeeded may only move to refunded.
	_, err = svc.UpdatePayment(ctx, supplier, dto.ID, enums.PaymentStatusFailed, nil)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeInvalidState, pkgerrors.As(err).Code())

	refunded, err := svc.UpdatePayment(ctx, supplier, dto.ID, enums.PaymentStatusRefunded, nil)
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusRefunded, refunded.PaymentStatus)
}

func TestCancelPaths(t *testing.T) {
	db := setupOrderTestDB(t)
	svc := newOrderService(t, db)
	ctx := context.Background()

	userID := uuid.New()
	product := seedProduct(t, db, "Raisin", 530)
	seedUserCart(t, db, userID, product)

	dto, err := svc.Create(ctx, userID, CreateOrderInput{})
	require.NoError(t, err)

	owner := Actor{ID: userID, Role: enums.UserRoleClient}

	// A stranger may not cancel.
	_, err = svc.Cancel(ctx, Actor{ID: uuid.New(), Role: enums.UserRoleClient}, dto.ID, nil)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.As(err).Code())

	reason := "commande en double"
	cancelled, err := svc.Cancel(ctx, owner, dto.ID, &reason)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCancelled, cancelled.Status)
	require.Len(t, cancelled.AuditLog, 1)
	assert.Equal(t, "cancelled", cancelled.AuditLog[0].NewValue)

	// Cancelled is terminal.
	_, err = svc.Cancel(ctx, owner, dto.ID, nil)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeInvalidState, pkgerrors.As(err).Code())
}

func TestAddCommentAppends(t *testing.T) {
	db := setupOrderTestDB(t)
	svc := newOrderService(t, db)
	ctx := context.Background()

	userID := uuid.New()
	product := seedProduct(t, db, "Kiwis", 360)
	seedUserCart(t, db, userID, product)

	dto, err := svc.Create(ctx, userID, CreateOrderInput{})
	require.NoError(t, err)

	owner := Actor{ID: userID, Role: enums.UserRoleClient}
	admin := Actor{ID: uuid.New(), Role: enums.UserRoleAdmin}

	withFirst, err := svc.AddComment(ctx, owner, dto.ID, "Merci de livrer le matin")
	require.NoError(t, err)
	require.Len(t, withFirst.Comments, 1)
	assert.Equal(t, userID, withFirst.Comments[0].AuthorID)
	assert.Equal(t, "client", withFirst.Comments[0].AuthorRole)

	withSecond, err := svc.AddComment(ctx, admin, dto.ID, "Créneau confirmé")
	require.NoError(t, err)
	require.Len(t, withSecond.Comments, 2)

	_, err = svc.AddComment(ctx, owner, dto.ID, "   ")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	_, err = svc.AddComment(ctx, Actor{ID: uuid.New(), Role: enums.UserRoleClient}, dto.ID, "je passe par là")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.As(err).Code())
}
