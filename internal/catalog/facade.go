// Package catalog manages per store catalogs and the categories and
// products listed in them.
package catalog

import (
	"context"
	"fmt"

	"shop-backend/internal/apperr"
	"shop-backend/internal/audit"
	"shop-backend/internal/auth"
	"shop-backend/internal/common"
	"shop-backend/internal/database"
	"shop-backend/internal/logging"
	"shop-backend/internal/models"
	"shop-backend/internal/validate"

	"github.com/gosimple/slug"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

const entityType = "catalog"

type Facade struct {
	db *gorm.DB
}

func NewFacade(db *gorm.DB) *Facade {
	return &Facade{db: db}
}

func normalizeCode(code string) (string, error) {
	s := slug.Make(code)
	if s == "" {
		return "", apperr.Validation("code must contain letters or digits",
			apperr.FieldError{Field: "code", Tag: "slug", Message: "code must contain letters or digits"})
	}
	return s, nil
}

func actor(ctx context.Context) (uint, string) {
	if p, ok := auth.PrincipalFrom(ctx); ok {
		return p.UserID, p.UserName
	}
	return 0, ""
}

func (f *Facade) find(ctx context.Context, db *gorm.DB, store *models.MerchantStore, id uint) (*models.Catalog, error) {
	var c models.Catalog
	err := db.WithContext(ctx).
		Where("id = ? AND merchant_store_id = ?", id, store.ID).
		First(&c).Error
	if err != nil {
		if database.IsRecordNotFoundErr(err) {
			return nil, apperr.NotFound("Catalog [%d] not found for store [%s]", id, store.Code)
		}
		return nil, errors.Wrap(err, "find catalog")
	}
	c.MerchantStore = store
	return &c, nil
}

func (f *Facade) entryCount(ctx context.Context, db *gorm.DB, id uint) (int64, error) {
	var n int64
	err := db.WithContext(ctx).Model(&models.CatalogEntry{}).Where("catalog_id = ?", id).Count(&n).Error
	return n, errors.Wrap(err, "count catalog entries")
}

// clearDefault leaves at most one default catalog per store.
func clearDefault(tx *gorm.DB, storeID, keep uint) error {
	err := tx.Model(&models.Catalog{}).
		Where("merchant_store_id = ? AND id <> ? AND default_catalog = ?", storeID, keep, true).
		Update("default_catalog", false).Error
	return errors.Wrap(err, "clear default catalog")
}

func (f *Facade) Create(ctx context.Context, store *models.MerchantStore, req *PersistableCatalog) (*ReadableCatalog, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	code, err := normalizeCode(req.Code)
	if err != nil {
		return nil, err
	}

	actorID, actorName := actor(ctx)
	c := models.NewCatalog(store, code)
	c.Visible = req.Visible
	c.DefaultCatalog = req.DefaultCatalog
	c.ModifiedBy = actorName

	err = f.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("MerchantStore").Create(c).Error; err != nil {
			if database.IsKeyConflictErr(err) {
				return apperr.Conflict("Catalog [%s] already exists in store [%s]", code, store.Code)
			}
			return errors.Wrap(err, "create catalog")
		}
		if c.DefaultCatalog {
			if err := clearDefault(tx, store.ID, c.ID); err != nil {
				return err
			}
		}
		return audit.WriteLog(tx, audit.LogOptions{
			StoreID:     &store.ID,
			UserID:      actorID,
			UserName:    actorName,
			EntityType:  entityType,
			EntityID:    c.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Catalog %s created in store %s", code, store.Code),
			After:       NewReadableCatalog(c, store.Code, 0),
		})
	})
	if err != nil {
		return nil, err
	}

	logging.FromContext(ctx).Infow("catalog created", "code", code, "store", store.Code)
	r := NewReadableCatalog(c, store.Code, 0)
	return &r, nil
}

func (f *Facade) Get(ctx context.Context, store *models.MerchantStore, id uint) (*ReadableCatalog, error) {
	c, err := f.find(ctx, f.db, store, id)
	if err != nil {
		return nil, err
	}
	n, err := f.entryCount(ctx, f.db, c.ID)
	if err != nil {
		return nil, err
	}
	r := NewReadableCatalog(c, store.Code, n)
	return &r, nil
}

// List pages through the store's catalogs. A non-empty code filters by
// substring.
func (f *Facade) List(ctx context.Context, store *models.MerchantStore, code string, page, count int) (*ReadableCatalogList, error) {
	q := f.db.WithContext(ctx).Model(&models.Catalog{}).Where("merchant_store_id = ?", store.ID)
	if code != "" {
		q = q.Where("code LIKE ?"+common.LikeEscape, common.Contains(code))
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, errors.Wrap(err, "count catalogs")
	}

	var catalogs []models.Catalog
	if err := q.Order("code asc").Offset(page * count).Limit(count).Find(&catalogs).Error; err != nil {
		return nil, errors.Wrap(err, "list catalogs")
	}

	data := make([]ReadableCatalog, 0, len(catalogs))
	for i := range catalogs {
		n, err := f.entryCount(ctx, f.db, catalogs[i].ID)
		if err != nil {
			return nil, err
		}
		data = append(data, NewReadableCatalog(&catalogs[i], store.Code, n))
	}
	list := common.NewReadableList(data, page, count, total)
	return &list, nil
}

func (f *Facade) Exists(ctx context.Context, store *models.MerchantStore, code string) (bool, error) {
	normalized := slug.Make(code)
	if normalized == "" {
		return false, nil
	}
	var n int64
	err := f.db.WithContext(ctx).Model(&models.Catalog{}).
		Where("merchant_store_id = ? AND code = ?", store.ID, normalized).
		Count(&n).Error
	if err != nil {
		return false, errors.Wrap(err, "catalog exists")
	}
	return n > 0, nil
}

func (f *Facade) Update(ctx context.Context, store *models.MerchantStore, id uint, req *PatchCatalog) (*ReadableCatalog, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	actorID, actorName := actor(ctx)

	var (
		c *models.Catalog
		n int64
	)
	err := f.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		c, err = f.find(ctx, tx, store, id)
		if err != nil {
			return err
		}
		n, err = f.entryCount(ctx, tx, c.ID)
		if err != nil {
			return err
		}
		before := NewReadableCatalog(c, store.Code, n)

		if req.Code != nil {
			code, err := normalizeCode(*req.Code)
			if err != nil {
				return err
			}
			c.Code = code
		}
		if req.Visible != nil {
			c.Visible = *req.Visible
		}
		if req.DefaultCatalog != nil {
			c.DefaultCatalog = *req.DefaultCatalog
		}
		c.ModifiedBy = actorName

		if err := tx.Omit("MerchantStore", "Entries").Save(c).Error; err != nil {
			if database.IsKeyConflictErr(err) {
				return apperr.Conflict("Catalog [%s] already exists in store [%s]", c.Code, store.Code)
			}
			return errors.Wrap(err, "update catalog")
		}
		if c.DefaultCatalog {
			if err := clearDefault(tx, store.ID, c.ID); err != nil {
				return err
			}
		}
		return audit.WriteLog(tx, audit.LogOptions{
			StoreID:     &store.ID,
			UserID:      actorID,
			UserName:    actorName,
			EntityType:  entityType,
			EntityID:    c.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Catalog %s updated", c.Code),
			Before:      before,
			After:       NewReadableCatalog(c, store.Code, n),
		})
	})
	if err != nil {
		return nil, err
	}
	r := NewReadableCatalog(c, store.Code, n)
	return &r, nil
}

// Delete removes the catalog together with its entries.
func (f *Facade) Delete(ctx context.Context, store *models.MerchantStore, id uint) error {
	actorID, actorName := actor(ctx)
	err := f.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := f.find(ctx, tx, store, id)
		if err != nil {
			return err
		}
		before := NewReadableCatalog(c, store.Code, 0)
		if err := tx.Select("Entries").Delete(c).Error; err != nil {
			return errors.Wrap(err, "delete catalog")
		}
		return audit.WriteLog(tx, audit.LogOptions{
			StoreID:     &store.ID,
			UserID:      actorID,
			UserName:    actorName,
			EntityType:  entityType,
			EntityID:    c.ID,
			Action:      models.AuditActionDelete,
			Description: fmt.Sprintf("Catalog %s deleted", c.Code),
			Before:      before,
		})
	})
	if err != nil {
		return err
	}
	logging.FromContext(ctx).Infow("catalog deleted", "id", id, "store", store.Code)
	return nil
}

// AddEntry lists a category and/or product of the same store in the catalog.
func (f *Facade) AddEntry(ctx context.Context, store *models.MerchantStore, id uint, req *PersistableCatalogEntry) (*ReadableCatalogEntry, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}

	var entry models.CatalogEntry
	err := f.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := f.find(ctx, tx, store, id)
		if err != nil {
			return err
		}
		entry = models.CatalogEntry{CatalogID: c.ID, Visible: req.Visible}

		if req.Category != "" {
			var cat models.Category
			err := tx.Where("merchant_store_id = ? AND code = ?", store.ID, req.Category).First(&cat).Error
			if err != nil {
				if database.IsRecordNotFoundErr(err) {
					return apperr.NotFound("Category [%s] not found for store [%s]", req.Category, store.Code)
				}
				return errors.Wrap(err, "find category")
			}
			entry.CategoryID = &cat.ID
			entry.Category = &cat
		}
		if req.Product != "" {
			var p models.Product
			err := tx.Where("merchant_store_id = ? AND sku = ?", store.ID, req.Product).First(&p).Error
			if err != nil {
				if database.IsRecordNotFoundErr(err) {
					return apperr.NotFound("Product [%s] not found for store [%s]", req.Product, store.Code)
				}
				return errors.Wrap(err, "find product")
			}
			entry.ProductID = &p.ID
			entry.Product = &p
		}

		if err := tx.Omit("Category", "Product").Create(&entry).Error; err != nil {
			return errors.Wrap(err, "create catalog entry")
		}
		actorID, actorName := actor(ctx)
		return audit.WriteLog(tx, audit.LogOptions{
			StoreID:     &store.ID,
			UserID:      actorID,
			UserName:    actorName,
			EntityType:  entityType,
			EntityID:    c.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Entry %d added to catalog %s", entry.ID, c.Code),
			After:       NewReadableCatalogEntry(&entry),
		})
	})
	if err != nil {
		return nil, err
	}
	r := NewReadableCatalogEntry(&entry)
	return &r, nil
}

func (f *Facade) ListEntries(ctx context.Context, store *models.MerchantStore, id uint, page, count int) (*common.ReadableList[ReadableCatalogEntry], error) {
	c, err := f.find(ctx, f.db, store, id)
	if err != nil {
		return nil, err
	}
	total, err := f.entryCount(ctx, f.db, c.ID)
	if err != nil {
		return nil, err
	}

	var entries []models.CatalogEntry
	err = f.db.WithContext(ctx).
		Preload("Category").Preload("Product").
		Where("catalog_id = ?", c.ID).
		Order("id asc").
		Offset(page * count).Limit(count).
		Find(&entries).Error
	if err != nil {
		return nil, errors.Wrap(err, "list catalog entries")
	}

	data := make([]ReadableCatalogEntry, 0, len(entries))
	for i := range entries {
		data = append(data, NewReadableCatalogEntry(&entries[i]))
	}
	list := common.NewReadableList(data, page, count, total)
	return &list, nil
}

func (f *Facade) RemoveEntry(ctx context.Context, store *models.MerchantStore, id, entryID uint) error {
	return f.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := f.find(ctx, tx, store, id)
		if err != nil {
			return err
		}
		res := tx.Where("id = ? AND catalog_id = ?", entryID, c.ID).Delete(&models.CatalogEntry{})
		if res.Error != nil {
			return errors.Wrap(res.Error, "delete catalog entry")
		}
		if res.RowsAffected == 0 {
			return apperr.NotFound("Entry [%d] not found in catalog [%d]", entryID, id)
		}
		actorID, actorName := actor(ctx)
		return audit.WriteLog(tx, audit.LogOptions{
			StoreID:     &store.ID,
			UserID:      actorID,
			UserName:    actorName,
			EntityType:  entityType,
			EntityID:    c.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Entry %d removed from catalog %s", entryID, c.Code),
		})
	})
}
