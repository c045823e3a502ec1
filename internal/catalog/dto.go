package catalog

import (
	"time"

	"shop-backend/internal/common"
	"shop-backend/internal/models"
)

type PersistableCatalog struct {
	Code           string `json:"code" validate:"required,max=100"`
	Visible        bool   `json:"visible"`
	DefaultCatalog bool   `json:"defaultCatalog"`
}

// PatchCatalog carries only the fields being changed.
type PatchCatalog struct {
	Code           *string `json:"code" validate:"omitempty,max=100"`
	Visible        *bool   `json:"visible"`
	DefaultCatalog *bool   `json:"defaultCatalog"`
}

// PersistableCatalogEntry points at a category code, a product sku, or both.
type PersistableCatalogEntry struct {
	Category string `json:"category" validate:"required_without=Product,max=100"`
	Product  string `json:"product" validate:"required_without=Category,max=100"`
	Visible  bool   `json:"visible"`
}

type ReadableCatalog struct {
	ID             uint      `json:"id"`
	Code           string    `json:"code"`
	Visible        bool      `json:"visible"`
	DefaultCatalog bool      `json:"defaultCatalog"`
	Store          string    `json:"store"`
	ModifiedBy     string    `json:"modifiedBy,omitempty"`
	CreationDate   time.Time `json:"creationDate"`
	Entries        int64     `json:"entries"`
}

type ReadableCatalogEntry struct {
	ID       uint   `json:"id"`
	Category string `json:"category,omitempty"`
	Product  string `json:"product,omitempty"`
	Visible  bool   `json:"visible"`
}

type ReadableCatalogList = common.ReadableList[ReadableCatalog]

func NewReadableCatalog(c *models.Catalog, store string, entries int64) ReadableCatalog {
	return ReadableCatalog{
		ID:             c.ID,
		Code:           c.Code,
		Visible:        c.Visible,
		DefaultCatalog: c.DefaultCatalog,
		Store:          store,
		ModifiedBy:     c.ModifiedBy,
		CreationDate:   c.CreatedAt,
		Entries:        entries,
	}
}

func NewReadableCatalogEntry(e *models.CatalogEntry) ReadableCatalogEntry {
	r := ReadableCatalogEntry{ID: e.ID, Visible: e.Visible}
	if e.Category != nil {
		r.Category = e.Category.Code
	}
	if e.Product != nil {
		r.Product = e.Product.SKU
	}
	return r
}
