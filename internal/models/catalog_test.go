package models_test

import (
	"testing"

	"shop-backend/internal/database"
	"shop-backend/internal/database/dbtest"
	"shop-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogRequiresMerchantStore(t *testing.T) {
	db := dbtest.New(t)

	err := db.Create(models.NewCatalog(nil, "summer")).Error
	assert.ErrorIs(t, err, models.ErrCatalogStoreRequired)

	var count int64
	db.Model(&models.Catalog{}).Count(&count)
	assert.Zero(t, count)
}

func TestCatalogRequiresCode(t *testing.T) {
	db := dbtest.New(t)
	store := dbtest.Store(t, db, dbtest.DefaultStore)

	err := db.Create(models.NewCatalog(store, "  ")).Error
	assert.ErrorIs(t, err, models.ErrCatalogCodeRequired)
}

func TestCatalogCodeUniquePerStore(t *testing.T) {
	db := dbtest.New(t)
	first := dbtest.Store(t, db, dbtest.DefaultStore)
	second := dbtest.Store(t, db, "outlet")

	require.NoError(t, db.Create(models.NewCatalog(first, "summer")).Error)

	err := db.Create(models.NewCatalog(first, "summer")).Error
	require.Error(t, err)
	assert.True(t, database.IsKeyConflictErr(err))

	assert.NoError(t, db.Create(models.NewCatalog(second, "summer")).Error)
}

func TestCatalogEntriesCascade(t *testing.T) {
	db := dbtest.New(t)
	store := dbtest.Store(t, db, dbtest.DefaultStore)

	category := models.Category{MerchantStoreID: store.ID, Code: "shoes", Name: "Shoes"}
	require.NoError(t, db.Create(&category).Error)
	product := models.Product{MerchantStoreID: store.ID, SKU: "sku-1", Name: "Runner"}
	require.NoError(t, db.Create(&product).Error)

	catalog := models.NewCatalog(store, "summer")
	catalog.Entries = []models.CatalogEntry{
		{CategoryID: &category.ID, Visible: true},
		{ProductID: &product.ID},
	}
	require.NoError(t, db.Create(catalog).Error)

	var entries int64
	db.Model(&models.CatalogEntry{}).Where("catalog_id = ?", catalog.ID).Count(&entries)
	assert.EqualValues(t, 2, entries)

	require.NoError(t, db.Select("Entries").Delete(catalog).Error)

	db.Model(&models.CatalogEntry{}).Count(&entries)
	assert.Zero(t, entries)
}

func TestCatalogEntryNeedsTarget(t *testing.T) {
	db := dbtest.New(t)
	store := dbtest.Store(t, db, dbtest.DefaultStore)

	catalog := models.NewCatalog(store, "empty")
	require.NoError(t, db.Create(catalog).Error)

	err := db.Create(&models.CatalogEntry{CatalogID: catalog.ID}).Error
	assert.ErrorIs(t, err, models.ErrEntryTargetRequired)
}

func TestUserInGroup(t *testing.T) {
	u := models.User{Groups: []models.Group{{Name: models.GroupAdmin}, {Name: models.GroupAdminCatalogue}}}

	assert.True(t, u.InGroup(models.GroupSuperAdmin, models.GroupAdmin))
	assert.False(t, u.IsSuperAdmin())
	assert.Equal(t, []string{models.GroupAdmin, models.GroupAdminCatalogue}, u.GroupNames())
}
