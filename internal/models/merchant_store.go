package models

import "time"

// MerchantStore is the tenant boundary: users, catalogs, categories and
// products all belong to exactly one store.
type MerchantStore struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	Code            string         `gorm:"size:100;not null;uniqueIndex" json:"code"`
	Name            string         `gorm:"size:100;not null" json:"name"`
	DefaultLanguage string         `gorm:"size:2;not null" json:"default_language"`
	ParentID        *uint          `gorm:"index" json:"parent_id"` // retailer stores point at their parent
	Parent          *MerchantStore `json:"-"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}
