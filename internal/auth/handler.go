package auth

import (
	"strings"
	"time"

	"shop-backend/internal/apperr"
	"shop-backend/internal/config"
	"shop-backend/internal/database"
	"shop-backend/internal/logging"
	"shop-backend/internal/models"
	"shop-backend/internal/validate"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type RegisterSuperAdminRequest struct {
	UserName     string `json:"userName" validate:"required,min=3,max=100"`
	EmailAddress string `json:"emailAddress" validate:"required,email,max=100"`
	Password     string `json:"password" validate:"required,min=6,max=72"`
}

type LoginRequest struct {
	UserName string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	ID    uint   `json:"id"`
	Token string `json:"token"`
}

// POST /api/v1/auth/register-super-admin
//
// Bootstraps the first SUPERADMIN in the default store. Refused once one exists.
func RegisterSuperAdminHandler(db *gorm.DB, cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()

		var body RegisterSuperAdminRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		body.UserName = strings.TrimSpace(body.UserName)
		body.EmailAddress = strings.TrimSpace(strings.ToLower(body.EmailAddress))
		if err := validate.Struct(&body); err != nil {
			return err
		}

		hash, err := HashPassword(body.Password)
		if err != nil {
			return errors.Wrap(err, "hash password")
		}

		var user models.User
		err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var group models.Group
			if err := tx.Where("name = ?", models.GroupSuperAdmin).First(&group).Error; err != nil {
				return errors.Wrap(err, "find superadmin group")
			}
			var count int64
			if err := tx.Table("user_groups").Where("group_id = ?", group.ID).Count(&count).Error; err != nil {
				return errors.Wrap(err, "count superadmins")
			}
			if count > 0 {
				return apperr.Forbidden("A superadmin already exists")
			}

			var store models.MerchantStore
			if err := tx.Where("code = ?", cfg.DefaultStoreCode).First(&store).Error; err != nil {
				if database.IsRecordNotFoundErr(err) {
					return apperr.NotFound("Merchant store [%s] not found", cfg.DefaultStoreCode)
				}
				return errors.Wrap(err, "find default store")
			}

			user = models.User{
				MerchantStoreID: store.ID,
				UserName:        body.UserName,
				Email:           body.EmailAddress,
				PasswordHash:    hash,
				Active:          true,
				DefaultLanguage: store.DefaultLanguage,
				Groups:          []models.Group{group},
			}
			if err := tx.Omit("Groups.*").Create(&user).Error; err != nil {
				if database.IsKeyConflictErr(err) {
					return apperr.Conflict("User [%s] already exists", user.UserName)
				}
				return errors.Wrap(err, "create superadmin")
			}
			return nil
		})
		if err != nil {
			return err
		}

		logging.FromContext(ctx).Infow("superadmin registered", "user", user.UserName)
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"id":       user.ID,
			"userName": user.UserName,
			"merchant": cfg.DefaultStoreCode,
		})
	}
}

// POST /api/v1/private/login
func LoginHandler(db *gorm.DB, cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()

		var body LoginRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		body.UserName = strings.TrimSpace(body.UserName)
		if err := validate.Struct(&body); err != nil {
			return err
		}

		var user models.User
		err := db.WithContext(ctx).
			Preload("MerchantStore").
			Preload("Groups").
			Where("admin_name = ?", body.UserName).
			First(&user).Error
		if err != nil {
			if database.IsRecordNotFoundErr(err) {
				return apperr.Unauthorized("Bad credentials")
			}
			return errors.Wrap(err, "find user")
		}
		if !user.Active || !CheckPassword(user.PasswordHash, body.Password) {
			return apperr.Unauthorized("Bad credentials")
		}

		token, err := GenerateToken(cfg.JWTSecret, cfg.JWTTTL, &user)
		if err != nil {
			return errors.Wrap(err, "generate token")
		}

		now := time.Now()
		err = db.WithContext(ctx).Model(&user).Updates(map[string]any{
			"last_access": user.LoginTime,
			"login_time":  now,
		}).Error
		if err != nil {
			logging.FromContext(ctx).Warnw("auth.LoginHandler login time not saved", "user", user.UserName, "err", err)
		}

		return c.JSON(LoginResponse{ID: user.ID, Token: token})
	}
}
