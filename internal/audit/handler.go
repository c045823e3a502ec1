package audit

import (
	"context"

	"shop-backend/internal/apperr"
	"shop-backend/internal/auth"
	"shop-backend/internal/common"
	"shop-backend/internal/merchant"
	"shop-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type StoreAuthorizer interface {
	AuthorizedStore(ctx context.Context, userName, storeCode string) (bool, error)
}

type AuditLogResponse struct {
	ID          uint               `json:"id"`
	CreatedAt   string             `json:"created_at"`
	StoreID     *uint              `json:"store_id"`
	UserID      uint               `json:"user_id"`
	UserName    string             `json:"user_name"`
	EntityType  string             `json:"entity_type"`
	EntityID    uint               `json:"entity_id"`
	Action      models.AuditAction `json:"action"`
	Description string             `json:"description"`
	Before      string             `json:"before_data"`
	After       string             `json:"after_data"`
}

// GET /api/v1/private/audit-logs?entity_type=user&entity_id=1&user_id=2&page=0&count=20
//
// SUPERADMIN sees every store, everyone else the resolved store only.
func ListAuditLogsHandler(db *gorm.DB, authz StoreAuthorizer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		authenticatedUser := auth.AuthenticatedUser(ctx)
		if authenticatedUser == "" {
			return apperr.Unauthorized()
		}

		store := merchant.StoreFrom(c)
		opts := ListOptions{
			EntityType: c.Query("entity_type"),
			EntityID:   uint(c.QueryInt("entity_id", 0)),
			UserID:     uint(c.QueryInt("user_id", 0)),
		}
		opts.Page, opts.Count = common.PageParams(c)

		if !auth.IsUserInRole(ctx, models.GroupSuperAdmin) {
			ok, err := authz.AuthorizedStore(ctx, authenticatedUser, store.Code)
			if err != nil {
				return err
			}
			if !ok {
				return apperr.Unauthorizedf("Operation unauthorized for user [%s] and store [%s]", authenticatedUser, store.Code)
			}
			opts.StoreID = &store.ID
		}

		logs, total, err := List(db.WithContext(ctx), opts)
		if err != nil {
			return err
		}

		resp := make([]AuditLogResponse, 0, len(logs))
		for _, log := range logs {
			resp = append(resp, AuditLogResponse{
				ID:          log.ID,
				CreatedAt:   log.CreatedAt.Format("2006-01-02 15:04:05"),
				StoreID:     log.MerchantStoreID,
				UserID:      log.UserID,
				UserName:    log.UserName,
				EntityType:  log.EntityType,
				EntityID:    log.EntityID,
				Action:      log.Action,
				Description: log.Description,
				Before:      log.BeforeData,
				After:       log.AfterData,
			})
		}
		return c.JSON(common.NewReadableList(resp, opts.Page, opts.Count, total))
	}
}
