package models

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
)

var (
	ErrCatalogStoreRequired = errors.New("catalog must belong to a merchant store")
	ErrCatalogCodeRequired  = errors.New("catalog code must not be empty")
	ErrEntryTargetRequired  = errors.New("catalog entry needs a category or a product")
)

// Catalog groups categories and products of one merchant store.
// Code is unique within the store.
type Catalog struct {
	ID              uint `gorm:"primaryKey"`
	MerchantStoreID uint `gorm:"not null;uniqueIndex:idx_catalog_store_code"`
	MerchantStore   *MerchantStore
	Code            string         `gorm:"size:100;not null;uniqueIndex:idx_catalog_store_code"`
	Visible         bool           `gorm:"not null"`
	DefaultCatalog  bool           `gorm:"not null"`
	Entries         []CatalogEntry `gorm:"constraint:OnDelete:CASCADE"`
	ModifiedBy      string         `gorm:"size:100"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func NewCatalog(store *MerchantStore, code string) *Catalog {
	c := &Catalog{MerchantStore: store, Code: code}
	if store != nil {
		c.MerchantStoreID = store.ID
	}
	return c
}

func (c *Catalog) BeforeSave(tx *gorm.DB) error {
	if c.MerchantStoreID == 0 {
		if c.MerchantStore == nil || c.MerchantStore.ID == 0 {
			return ErrCatalogStoreRequired
		}
		c.MerchantStoreID = c.MerchantStore.ID
	}
	if strings.TrimSpace(c.Code) == "" {
		return ErrCatalogCodeRequired
	}
	return nil
}

type CatalogEntry struct {
	ID         uint `gorm:"primaryKey"`
	CatalogID  uint `gorm:"not null;index"`
	CategoryID *uint
	Category   *Category
	ProductID  *uint
	Product    *Product
	Visible    bool `gorm:"not null"`
	CreatedAt  time.Time
}

func (e *CatalogEntry) BeforeCreate(tx *gorm.DB) error {
	if e.CategoryID == nil && e.Category == nil && e.ProductID == nil && e.Product == nil {
		return ErrEntryTargetRequired
	}
	return nil
}
