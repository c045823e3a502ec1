package merchant

import (
	"context"
	"strings"
	"time"

	"shop-backend/internal/apperr"
	"shop-backend/internal/cache"
	"shop-backend/internal/database"
	"shop-backend/internal/logging"
	"shop-backend/internal/metrics"
	"shop-backend/internal/models"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// StoreFacade reads and maintains merchant stores. Lookups by code go
// through the cache.
type StoreFacade struct {
	db    *gorm.DB
	cache cache.Cacher
	ttl   time.Duration
}

func NewStoreFacade(db *gorm.DB, c cache.Cacher, ttl time.Duration) *StoreFacade {
	if c == nil {
		c = cache.NewNoop()
	}
	return &StoreFacade{db: db, cache: c, ttl: ttl}
}

func cacheKey(code string) string {
	return "merchant_store:" + code
}

// Get returns the store with the given code or a not found error.
func (f *StoreFacade) Get(ctx context.Context, code string) (*models.MerchantStore, error) {
	logger := logging.FromContext(ctx)

	var store models.MerchantStore
	err := f.cache.Get(ctx, cacheKey(code), &store)
	if err == nil {
		metrics.StoreCacheLookups.WithLabelValues("hit").Inc()
		return &store, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		logger.Warnw("merchant.StoreFacade.Get cache read failed", "code", code, "err", err)
	}
	metrics.StoreCacheLookups.WithLabelValues("miss").Inc()

	if err := f.db.WithContext(ctx).Where("code = ?", code).First(&store).Error; err != nil {
		if database.IsRecordNotFoundErr(err) {
			return nil, apperr.NotFound("Merchant store [%s] not found", code)
		}
		return nil, errors.Wrapf(err, "find store %s", code)
	}

	if err := f.cache.Set(ctx, cacheKey(code), &store, f.ttl); err != nil {
		logger.Warnw("merchant.StoreFacade.Get cache write failed", "code", code, "err", err)
	}
	return &store, nil
}

func (f *StoreFacade) GetByID(ctx context.Context, id uint) (*models.MerchantStore, error) {
	var store models.MerchantStore
	if err := f.db.WithContext(ctx).First(&store, id).Error; err != nil {
		if database.IsRecordNotFoundErr(err) {
			return nil, apperr.NotFound("Merchant store [%d] not found", id)
		}
		return nil, errors.Wrapf(err, "find store %d", id)
	}
	return &store, nil
}

func (f *StoreFacade) List(ctx context.Context) ([]models.MerchantStore, error) {
	var stores []models.MerchantStore
	if err := f.db.WithContext(ctx).Order("code asc").Find(&stores).Error; err != nil {
		return nil, errors.Wrap(err, "list stores")
	}
	return stores, nil
}

func (f *StoreFacade) Create(ctx context.Context, req *PersistableStore) (*models.MerchantStore, error) {
	store := models.MerchantStore{
		Code:            strings.TrimSpace(req.Code),
		Name:            strings.TrimSpace(req.Name),
		DefaultLanguage: strings.ToLower(req.DefaultLanguage),
	}
	if store.DefaultLanguage == "" {
		store.DefaultLanguage = "en"
	}
	if req.Parent != "" {
		parent, err := f.Get(ctx, req.Parent)
		if err != nil {
			return nil, err
		}
		store.ParentID = &parent.ID
	}

	if err := f.db.WithContext(ctx).Create(&store).Error; err != nil {
		if database.IsKeyConflictErr(err) {
			return nil, apperr.Conflict("Merchant store [%s] already exists", store.Code)
		}
		return nil, errors.Wrap(err, "create store")
	}
	logging.FromContext(ctx).Infow("merchant store created", "code", store.Code)
	return &store, nil
}

func (f *StoreFacade) Update(ctx context.Context, code string, req *UpdateStoreRequest) (*models.MerchantStore, error) {
	var store models.MerchantStore
	if err := f.db.WithContext(ctx).Where("code = ?", code).First(&store).Error; err != nil {
		if database.IsRecordNotFoundErr(err) {
			return nil, apperr.NotFound("Merchant store [%s] not found", code)
		}
		return nil, errors.Wrapf(err, "find store %s", code)
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, apperr.Validation("name must not be empty")
		}
		store.Name = name
	}
	if req.DefaultLanguage != nil {
		store.DefaultLanguage = strings.ToLower(*req.DefaultLanguage)
	}

	if err := f.db.WithContext(ctx).Save(&store).Error; err != nil {
		return nil, errors.Wrap(err, "update store")
	}
	f.Evict(ctx, code)
	return &store, nil
}

func (f *StoreFacade) Evict(ctx context.Context, code string) {
	if err := f.cache.Delete(ctx, cacheKey(code)); err != nil {
		logging.FromContext(ctx).Warnw("merchant.StoreFacade.Evict failed", "code", code, "err", err)
	}
}

// IsParentOf reports whether parentID is the direct parent of the store.
func IsParentOf(parentID uint, store *models.MerchantStore) bool {
	return store.ParentID != nil && *store.ParentID == parentID
}
