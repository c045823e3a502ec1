package models

import "time"

type Category struct {
	ID              uint `gorm:"primaryKey"`
	MerchantStoreID uint `gorm:"not null;uniqueIndex:idx_category_store_code"`
	MerchantStore   MerchantStore
	Code            string `gorm:"size:100;not null;uniqueIndex:idx_category_store_code"`
	Name            string `gorm:"size:100;not null"`
	Visible         bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
