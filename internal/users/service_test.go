package users

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/clickmarket/clickmarket-backend/pkg/db/models"
	"github.com/clickmarket/clickmarket-backend/pkg/enums"
	pkgerrors "github.com/clickmarket/clickmarket-backend/pkg/errors"
)

func setupUsersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	users := `
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  first_name TEXT NOT NULL,
  last_name TEXT NOT NULL,
  phone TEXT,
  role TEXT NOT NULL DEFAULT 'client',
  is_active INTEGER NOT NULL DEFAULT 1,
  last_login_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	suppliers := `
CREATE TABLE IF NOT EXISTS supplier_profiles (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL UNIQUE,
  company_name TEXT NOT NULL,
  siret TEXT,
  description TEXT,
  region TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(users).Error)
	require.NoError(t, db.Exec(suppliers).Error)
	return db
}

func newUsersService(t *testing.T, db *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(NewRepository(db))
	require.NoError(t, err)
	return svc
}

func seedUser(t *testing.T, db *gorm.DB, role enums.UserRole) *models.User {
	t.Helper()
	user := &models.User{
		ID:           uuid.New(),
		Email:        uuid.NewString() + "@clickmarket.fr",
		PasswordHash: "x",
		FirstName:    "Claire",
		LastName:     "Martin",
		Role:         role,
		IsActive:     true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func TestGetProfileIncludesSupplier(t *testing.T) {
	db := setupUsersTestDB(t)
	svc := newUsersService(t, db)

	user := seedUser(t, db, enums.UserRoleSupplier)
	region := "Provence"
	profile := &models.SupplierProfile{
		ID:          uuid.New(),
		UserID:      user.ID,
		CompanyName: "Ferme des Oliviers",
		Region:      &region,
	}
	require.NoError(t, db.Create(profile).Error)

	dto, err := svc.GetProfile(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Email, dto.Email)
	assert.Equal(t, enums.UserRoleSupplier, dto.Role)
	require.NotNil(t, dto.Supplier)
	assert.Equal(t, "Ferme des Oliviers", dto.Supplier.CompanyName)
}

func TestGetProfileWithoutSupplier(t *testing.T) {
	db := setupUsersTestDB(t)
	svc := newUsersService(t, db)
	user := seedUser(t, db, enums.UserRoleClient)

	dto, err := svc.GetProfile(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Nil(t, dto.Supplier)
}

func TestGetProfileMissing(t *testing.T) {
	svc := newUsersService(t, setupUsersTestDB(t))

	_, err := svc.GetProfile(context.Background(), uuid.New())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestEnsureSupplierExists(t *testing.T) {
	db := setupUsersTestDB(t)
	svc := newUsersService(t, db)

	user := seedUser(t, db, enums.UserRoleSupplier)
	profile := &models.SupplierProfile{
		ID:          uuid.New(),
		UserID:      user.ID,
		CompanyName: "Les Vergers",
	}
	require.NoError(t, db.Create(profile).Error)

	require.NoError(t, svc.EnsureSupplierExists(context.Background(), profile.ID))

	err := svc.EnsureSupplierExists(context.Background(), uuid.New())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}
