package cart

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clickmarket/clickmarket-backend/internal/identity"
	"github.com/clickmarket/clickmarket-backend/pkg/db/models"
)

func TestIncrementItemQuantityIsApplied(t *testing.T) {
	db := setupCartTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	sessionID := "sess-incr"
	cart := &models.Cart{ID: uuid.New(), SessionID: &sessionID}
	require.NoError(t, db.Create(cart).Error)

	item := &models.CartItem{
		ID:             uuid.New(),
		CartID:         cart.ID,
		ProductID:      uuid.New(),
		Quantity:       2,
		UnitPriceCents: 100,
	}
	require.NoError(t, repo.CreateItem(ctx, item))

	require.NoError(t, repo.IncrementItemQuantity(ctx, item.ID, 3))

	fresh, err := repo.FindItem(ctx, cart.ID, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, fresh.Quantity)
}

func TestDeleteGuestCartsIdleSince(t *testing.T) {
	db := setupCartTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	staleSession := "sess-stale"
	stale := &models.Cart{ID: uuid.New(), SessionID: &staleSession}
	require.NoError(t, db.Create(stale).Error)
	require.NoError(t, db.Model(&models.Cart{}).Where("id = ?", stale.ID).
		UpdateColumn("updated_at", time.Now().Add(-48*time.Hour)).Error)

	freshSession := "sess-fresh"
	fresh := &models.Cart{ID: uuid.New(), SessionID: &freshSession}
	require.NoError(t, db.Create(fresh).Error)

	userID := uuid.New()
	owned := &models.Cart{ID: uuid.New(), UserID: &userID}
	require.NoError(t, db.Create(owned).Error)
	require.NoError(t, db.Model(&models.Cart{}).Where("id = ?", owned.ID).
		UpdateColumn("updated_at", time.Now().Add(-48*time.Hour)).Error)

	deleted, err := repo.DeleteGuestCartsIdleSince(ctx, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	// Only the stale guest cart is swept; user carts never are.
	guestOwner, err := identity.ForSession(freshSession)
	require.NoError(t, err)
	_, err = repo.FindByOwner(ctx, guestOwner)
	require.NoError(t, err)

	userOwner, err := identity.ForUser(userID)
	require.NoError(t, err)
	_, err = repo.FindByOwner(ctx, userOwner)
	require.NoError(t, err)
}
