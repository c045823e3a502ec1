package catalog

import (
	"context"
	"testing"

	"shop-backend/internal/apperr"
	"shop-backend/internal/auth"
	"shop-backend/internal/database/dbtest"
	"shop-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setup(t *testing.T) (*gorm.DB, *Facade, *models.MerchantStore, context.Context) {
	t.Helper()
	db := dbtest.New(t)
	store := dbtest.Store(t, db, dbtest.DefaultStore)
	ctx := auth.WithPrincipal(context.Background(), &auth.Principal{UserID: 1, UserName: "admin"})
	return db, NewFacade(db), store, ctx
}

func TestCreateNormalizesCode(t *testing.T) {
	db, f, store, ctx := setup(t)

	c, err := f.Create(ctx, store, &PersistableCatalog{Code: "Summer Sale", Visible: true})
	require.NoError(t, err)
	assert.Equal(t, "summer-sale", c.Code)
	assert.Equal(t, "admin", c.ModifiedBy)

	_, err = f.Create(ctx, store, &PersistableCatalog{Code: "summer sale"})
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	other := dbtest.Store(t, db, "other")
	_, err = f.Create(ctx, other, &PersistableCatalog{Code: "summer sale"})
	assert.NoError(t, err)

	_, err = f.Create(ctx, store, &PersistableCatalog{Code: "!!!"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestSingleDefaultCatalog(t *testing.T) {
	_, f, store, ctx := setup(t)

	first, err := f.Create(ctx, store, &PersistableCatalog{Code: "first", DefaultCatalog: true})
	require.NoError(t, err)
	second, err := f.Create(ctx, store, &PersistableCatalog{Code: "second", DefaultCatalog: true})
	require.NoError(t, err)

	got, err := f.Get(ctx, store, first.ID)
	require.NoError(t, err)
	assert.False(t, got.DefaultCatalog)

	yes := true
	_, err = f.Update(ctx, store, first.ID, &PatchCatalog{DefaultCatalog: &yes})
	require.NoError(t, err)
	got, err = f.Get(ctx, store, second.ID)
	require.NoError(t, err)
	assert.False(t, got.DefaultCatalog)
}

func TestCatalogScopedToStore(t *testing.T) {
	db, f, store, ctx := setup(t)
	other := dbtest.Store(t, db, "other")

	c, err := f.Create(ctx, store, &PersistableCatalog{Code: "main"})
	require.NoError(t, err)

	_, err = f.Get(ctx, other, c.ID)
	assert.True(t, apperr.IsNotFound(err))
	assert.True(t, apperr.IsNotFound(f.Delete(ctx, other, c.ID)))

	exists, err := f.Exists(ctx, store, "Main")
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = f.Exists(ctx, other, "main")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestEntriesAndCascade(t *testing.T) {
	db, f, store, ctx := setup(t)
	require.NoError(t, db.Create(&models.Category{MerchantStoreID: store.ID, Code: "shoes", Name: "Shoes"}).Error)
	require.NoError(t, db.Create(&models.Product{MerchantStoreID: store.ID, SKU: "run-1", Name: "Runner"}).Error)

	c, err := f.Create(ctx, store, &PersistableCatalog{Code: "summer"})
	require.NoError(t, err)

	_, err = f.AddEntry(ctx, store, c.ID, &PersistableCatalogEntry{})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	_, err = f.AddEntry(ctx, store, c.ID, &PersistableCatalogEntry{Category: "hats"})
	assert.True(t, apperr.IsNotFound(err))

	e1, err := f.AddEntry(ctx, store, c.ID, &PersistableCatalogEntry{Category: "shoes", Visible: true})
	require.NoError(t, err)
	assert.Equal(t, "shoes", e1.Category)
	e2, err := f.AddEntry(ctx, store, c.ID, &PersistableCatalogEntry{Category: "shoes", Product: "run-1"})
	require.NoError(t, err)

	entries, err := f.ListEntries(ctx, store, c.ID, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, entries.RecordsTotal)
	assert.Equal(t, "run-1", entries.Data[1].Product)

	require.NoError(t, f.RemoveEntry(ctx, store, c.ID, e2.ID))
	assert.True(t, apperr.IsNotFound(f.RemoveEntry(ctx, store, c.ID, e2.ID)))

	got, err := f.Get(ctx, store, c.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, got.Entries)

	require.NoError(t, f.Delete(ctx, store, c.ID))
	var n int64
	db.Model(&models.CatalogEntry{}).Count(&n)
	assert.Zero(t, n)

	db.Model(&models.AuditLog{}).Where("entity_type = ?", "catalog").Count(&n)
	assert.EqualValues(t, 5, n)
}

func TestListFiltersByCode(t *testing.T) {
	_, f, store, ctx := setup(t)
	for _, code := range []string{"summer", "winter", "summer-kids"} {
		_, err := f.Create(ctx, store, &PersistableCatalog{Code: code})
		require.NoError(t, err)
	}

	list, err := f.List(ctx, store, "summer", 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, list.RecordsTotal)
	assert.Equal(t, "summer", list.Data[0].Code)

	list, err = f.List(ctx, store, "%", 0, 10)
	require.NoError(t, err)
	assert.Zero(t, list.RecordsTotal)

	code := "autumn"
	_, err = f.Update(ctx, store, list.Data[0].ID, &PatchCatalog{Code: &code})
	require.NoError(t, err)
	list, err = f.List(ctx, store, "", 0, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, list.TotalPages)
	assert.Equal(t, "autumn", list.Data[0].Code)
}
