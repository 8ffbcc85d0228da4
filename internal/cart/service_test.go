package cart

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/clickmarket/clickmarket-backend/internal/identity"
	"github.com/clickmarket/clickmarket-backend/internal/products"
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

func setupCartTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
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
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_carts_user ON carts (user_id) WHERE user_id IS NOT NULL;`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_carts_session ON carts (session_id) WHERE session_id IS NOT NULL;`,
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
	}
	for _, stmt := range statements {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

func newCartService(t *testing.T, db *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(NewRepository(db), products.NewRepository(db), &testTxRunner{db: db})
	require.NoError(t, err)
	return svc
}

func seedCatalogProduct(t *testing.T, db *gorm.DB, name string, priceCents, stock int) *models.Product {
	t.Helper()
	product := &models.Product{
		ID:            uuid.New(),
		Name:          name,
		Type:          enums.ProductTypeVegetable,
		Unit:          "kg",
		PriceCents:    priceCents,
		StockQuantity: stock,
		IsActive:      true,
	}
	require.NoError(t, db.Create(product).Error)
	return product
}

func guestIdentity(t *testing.T, sessionID string) identity.Identity {
	t.Helper()
	owner, err := identity.ForSession(sessionID)
	require.NoError(t, err)
	return owner
}

func userIdentity(t *testing.T, userID uuid.UUID) identity.Identity {
	t.Helper()
	owner, err := identity.ForUser(userID)
	require.NoError(t, err)
	return owner
}

func TestGetOrCreateReturnsSameCart(t *testing.T) {
	db := setupCartTestDB(t)
	svc := newCartService(t, db)
	ctx := context.Background()
	owner := guestIdentity(t, "sess-1")

	first, err := svc.GetOrCreate(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, first.Items)
	assert.Zero(t, first.TotalCents)

	second, err := svc.GetOrCreate(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestAddItemSnapshotsPriceAtAddTime(t *testing.T) {
	db := setupCartTestDB(t)
	svc := newCartService(t, db)
	ctx := context.Background()
	owner := guestIdentity(t, "sess-1")

	product := seedCatalogProduct(t, db, "Courgettes", 250, 100)

	dto, err := svc.AddItem(ctx, owner, product.ID, 2)
	require.NoError(t, err)
	require.Len(t, dto.Items, 1)
	assert.Equal(t, 250, dto.Items[0].UnitPriceCents)
	assert.Equal(t, 500, dto.TotalCents)

	// Catalog price change must not touch the snapshot.
	require.NoError(t, db.Model(&models.Product{}).Where("id = ?", product.ID).
		Update("price_cents", 300).Error)

	fresh, err := svc.GetOrCreate(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, 250, fresh.Items[0].UnitPriceCents)
	assert.Equal(t, 500, fresh.TotalCents)
}

func TestAddItemAccumulatesQuantityOnExistingLine(t *testing.T) {
	db := setupCartTestDB(t)
	svc := newCartService(t, db)
	ctx := context.Background()
	owner := guestIdentity(t, "sess-1")

	product := seedCatalogProduct(t, db, "Pommes de terre", 180, 100)

	_, err := svc.AddItem(ctx, owner, product.ID, 2)
	require.NoError(t, err)

	// Snapshot taken on first add survives later adds after a price change.
	require.NoError(t, db.Model(&models.Product{}).Where("id = ?", product.ID).
		Update("price_cents", 210).Error)

	dto, err := svc.AddItem(ctx, owner, product.ID, 3)
	require.NoError(t, err)
	require.Len(t, dto.Items, 1)
	assert.Equal(t, 5, dto.Items[0].Quantity)
	assert.Equal(t, 180, dto.Items[0].UnitPriceCents)
	assert.Equal(t, 900, dto.TotalCents)
}

func TestAddItemRejectsBadInput(t *testing.T) {
	db := setupCartTestDB(t)
	svc := newCartService(t, db)
	ctx := context.Background()
	owner := guestIdentity(t, "sess-1")

	product := seedCatalogProduct(t, db, "Radis", 120, 3)

	_, err := svc.AddItem(ctx, owner, product.ID, 0)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	_, err = svc.AddItem(ctx, owner, product.ID, 10)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	_, err = svc.AddItem(ctx, owner, uuid.New(), 1)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())

	inactive := seedCatalogProduct(t, db, "Panais", 200, 10)
	require.NoError(t, db.Model(&models.Product{}).Where("id = ?", inactive.ID).
		Update("is_active", false).Error)
	_, err = svc.AddItem(ctx, owner, inactive.ID, 1)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestUpdateItemSwapReSnapshotsPrice(t *testing.T) {
	db := setupCartTestDB(t)
	svc := newCartService(t, db)
	ctx := context.Background()
	owner := guestIdentity(t, "sess-1")

	first := seedCatalogProduct(t, db, "Poireaux", 220, 50)
	second := seedCatalogProduct(t, db, "Choux", 310, 50)

	dto, err := svc.AddItem(ctx, owner, first.ID, 4)
	require.NoError(t, err)
	itemID := dto.Items[0].ID

	qty := 2
	swapped, err := svc.UpdateItem(ctx, owner, itemID, UpdateItemInput{
		ProductID: &second.ID,
		Quantity:  &qty,
	})
	require.NoError(t, err)
	require.Len(t, swapped.Items, 1)
	assert.Equal(t, second.ID, swapped.Items[0].ProductID)
	assert.Equal(t, 310, swapped.Items[0].UnitPriceCents)
	assert.Equal(t, 2, swapped.Items[0].Quantity)
	assert.Equal(t, 620, swapped.TotalCents)
}

func TestRemoveItemAndClear(t *testing.T) {
	db := setupCartTestDB(t)
	svc := newCartService(t, db)
	ctx := context.Background()
	owner := guestIdentity(t, "sess-1")

	first := seedCatalogProduct(t, db, "Salades", 150, 50)
	second := seedCatalogProduct(t, db, "Oignons", 130, 50)

	_, err := svc.AddItem(ctx, owner, first.ID, 1)
	require.NoError(t, err)
	dto, err := svc.AddItem(ctx, owner, second.ID, 2)
	require.NoError(t, err)
	require.Len(t, dto.Items, 2)

	afterRemove, err := svc.RemoveItem(ctx, owner, dto.Items[0].ID)
	require.NoError(t, err)
	require.Len(t, afterRemove.Items, 1)

	_, err = svc.RemoveItem(ctx, owner, uuid.New())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())

	cleared, err := svc.Clear(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, cleared.Items)
	assert.Zero(t, cleared.TotalCents)
}

func TestMergeOnLoginCombinesCarts(t *testing.T) {
	db := setupCartTestDB(t)
	svc := newCartService(t, db)
	ctx := context.Background()

	userID := uuid.New()
	user := userIdentity(t, userID)
	guest := guestIdentity(t, "sess-guest")

	shared := seedCatalogProduct(t, db, "Tomates", 250, 100)
	guestOnly := seedCatalogProduct(t, db, "Aubergines", 340, 100)

	// User added the shared product at an older price.
	_, err := svc.AddItem(ctx, user, shared.ID, 2)
	require.NoError(t, err)
	require.NoError(t, db.Model(&models.Product{}).Where("id = ?", shared.ID).
		Update("price_cents", 275).Error)

	// Guest adds the shared product at the new price, plus one of their own.
	_, err = svc.AddItem(ctx, guest, shared.ID, 3)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, guest, guestOnly.ID, 1)
	require.NoError(t, err)

	result, err := svc.MergeOnLogin(ctx, userID, "sess-guest")
	require.NoError(t, err)
	assert.True(t, result.Merged)
	assert.Equal(t, "sess-guest", result.SessionIDToDelete)
	require.Len(t, result.Cart.Items, 2)

	byProduct := map[uuid.UUID]CartItemDTO{}
	for _, item := range result.Cart.Items {
		byProduct[item.ProductID] = item
	}

	mergedShared := byProduct[shared.ID]
	assert.Equal(t, 5, mergedShared.Quantity)
	assert.Equal(t, 250, mergedShared.UnitPriceCents, "user snapshot must win")

	movedGuest := byProduct[guestOnly.ID]
	assert.Equal(t, 1, movedGuest.Quantity)
	assert.Equal(t, 340, movedGuest.UnitPriceCents)

	// Guest cart is gone.
	var count int64
	require.NoError(t, db.Model(&models.Cart{}).
		Where("session_id = ?", "sess-guest").Count(&count).Error)
	assert.Zero(t, count)
}

func TestMergeOnLoginIsIdempotent(t *testing.T) {
	db := setupCartTestDB(t)
	svc := newCartService(t, db)
	ctx := context.Background()

	userID := uuid.New()
	guest := guestIdentity(t, "sess-guest")
	product := seedCatalogProduct(t, db, "Haricots", 410, 100)

	_, err := svc.AddItem(ctx, guest, product.ID, 2)
	require.NoError(t, err)

	first, err := svc.MergeOnLogin(ctx, userID, "sess-guest")
	require.NoError(t, err)
	assert.True(t, first.Merged)
	require.Len(t, first.Cart.Items, 1)
	assert.Equal(t, 2, first.Cart.Items[0].Quantity)

	// Replaying the merge with the consumed session id must not duplicate.
	second, err := svc.MergeOnLogin(ctx, userID, "sess-guest")
	require.NoError(t, err)
	assert.False(t, second.Merged)
	require.Len(t, second.Cart.Items, 1)
	assert.Equal(t, 2, second.Cart.Items[0].Quantity)
}

func TestMergeOnLoginWithoutGuestCart(t *testing.T) {
	db := setupCartTestDB(t)
	svc := newCartService(t, db)
	ctx := context.Background()

	result, err := svc.MergeOnLogin(ctx, uuid.New(), "never-seen")
	require.NoError(t, err)
	assert.False(t, result.Merged)
	assert.Empty(t, result.Cart.Items)
}
