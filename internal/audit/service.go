package audit

import (
	"encoding/json"
	"fmt"

	"shop-backend/internal/models"

	"gorm.io/gorm"
)

type LogOptions struct {
	StoreID     *uint
	UserID      uint
	UserName    string
	EntityType  string
	EntityID    uint
	Action      models.AuditAction
	Description string
	Before      any
	After       any
}

// WriteLog records a mutation. Pass the transaction the mutation runs in so
// both commit or roll back together.
func WriteLog(db *gorm.DB, opts LogOptions) error {
	log := models.AuditLog{
		MerchantStoreID: opts.StoreID,
		UserID:          opts.UserID,
		UserName:        opts.UserName,
		EntityType:      opts.EntityType,
		EntityID:        opts.EntityID,
		Action:          opts.Action,
		Description:     opts.Description,
		BeforeData:      snapshot(opts.Before),
		AfterData:       snapshot(opts.After),
	}

	if err := db.Create(&log).Error; err != nil {
		return fmt.Errorf("write audit log: %w", err)
	}
	return nil
}

func snapshot(v any) string {
	if v == nil {
		return "null"
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}

type ListOptions struct {
	StoreID    *uint
	EntityType string
	EntityID   uint
	UserID     uint
	Page       int
	Count      int
}

func List(db *gorm.DB, opts ListOptions) ([]models.AuditLog, int64, error) {
	q := db.Model(&models.AuditLog{})
	if opts.StoreID != nil {
		q = q.Where("merchant_store_id = ?", *opts.StoreID)
	}
	if opts.EntityType != "" {
		q = q.Where("entity_type = ?", opts.EntityType)
	}
	if opts.EntityID > 0 {
		q = q.Where("entity_id = ?", opts.EntityID)
	}
	if opts.UserID > 0 {
		q = q.Where("user_id = ?", opts.UserID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count audit logs: %w", err)
	}

	var logs []models.AuditLog
	err := q.Order("created_at DESC").Order("id DESC").
		Offset(opts.Page * opts.Count).Limit(opts.Count).
		Find(&logs).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list audit logs: %w", err)
	}
	return logs, total, nil
}
