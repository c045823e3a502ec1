package models

import "time"

type Product struct {
	ID              uint `gorm:"primaryKey"`
	MerchantStoreID uint `gorm:"not null;uniqueIndex:idx_product_store_sku"`
	MerchantStore   MerchantStore
	SKU             string `gorm:"column:sku;size:100;not null;uniqueIndex:idx_product_store_sku"`
	Name            string `gorm:"size:100;not null"`
	Available       bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
