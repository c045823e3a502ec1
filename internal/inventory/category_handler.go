package inventory

import (
	"strings"

	"shop-backend/internal/apperr"
	"shop-backend/internal/common"
	"shop-backend/internal/database"
	"shop-backend/internal/merchant"
	"shop-backend/internal/models"
	"shop-backend/internal/validate"

	"github.com/gofiber/fiber/v2"
	"github.com/gosimple/slug"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type CategoryResponse struct {
	ID        uint   `json:"id"`
	Code      string `json:"code"`
	Name      string `json:"name"`
	Visible   bool   `json:"visible"`
	Store     string `json:"store"`
	CreatedAt string `json:"created_at"`
}

type CreateCategoryRequest struct {
	Code    string `json:"code" validate:"max=100"`
	Name    string `json:"name" validate:"required,max=100"`
	Visible bool   `json:"visible"`
}

type UpdateCategoryRequest struct {
	Name    *string `json:"name" validate:"omitempty,max=100"`
	Visible *bool   `json:"visible"`
}

func newCategoryResponse(cat *models.Category, store string) CategoryResponse {
	return CategoryResponse{
		ID:        cat.ID,
		Code:      cat.Code,
		Name:      cat.Name,
		Visible:   cat.Visible,
		Store:     store,
		CreatedAt: cat.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

func findCategory(c *fiber.Ctx, db *gorm.DB, store *models.MerchantStore) (*models.Category, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Invalid category id")
	}
	var cat models.Category
	err = db.WithContext(c.UserContext()).
		Where("id = ? AND merchant_store_id = ?", id, store.ID).
		First(&cat).Error
	if err != nil {
		if database.IsRecordNotFoundErr(err) {
			return nil, apperr.NotFound("Category [%d] not found for store [%s]", id, store.Code)
		}
		return nil, errors.Wrap(err, "find category")
	}
	return &cat, nil
}

// GET /api/v1/private/categories?page=0&count=10
func ListCategoriesHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		store := merchant.StoreFrom(c)
		page, count := common.PageParams(c)

		q := db.WithContext(c.UserContext()).Model(&models.Category{}).Where("merchant_store_id = ?", store.ID)
		var total int64
		if err := q.Count(&total).Error; err != nil {
			return errors.Wrap(err, "count categories")
		}

		var categories []models.Category
		if err := q.Order("code asc").Offset(page * count).Limit(count).Find(&categories).Error; err != nil {
			return errors.Wrap(err, "list categories")
		}

		res := make([]CategoryResponse, 0, len(categories))
		for i := range categories {
			res = append(res, newCategoryResponse(&categories[i], store.Code))
		}
		return c.JSON(common.NewReadableList(res, page, count, total))
	}
}

// POST /api/v1/private/category
//
// Code defaults to the slug of the name.
func CreateCategoryHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		store := merchant.StoreFrom(c)

		var body CreateCategoryRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		body.Name = strings.TrimSpace(body.Name)
		if err := validate.Struct(&body); err != nil {
			return err
		}

		code := slug.Make(body.Code)
		if code == "" {
			code = slug.Make(body.Name)
		}
		if code == "" {
			return apperr.Validation("code must contain letters or digits",
				apperr.FieldError{Field: "code", Tag: "slug", Message: "code must contain letters or digits"})
		}

		cat := models.Category{
			MerchantStoreID: store.ID,
			Code:            code,
			Name:            body.Name,
			Visible:         body.Visible,
		}
		if err := db.WithContext(c.UserContext()).Create(&cat).Error; err != nil {
			if database.IsKeyConflictErr(err) {
				return apperr.Conflict("Category [%s] already exists in store [%s]", code, store.Code)
			}
			return errors.Wrap(err, "create category")
		}

		return c.Status(fiber.StatusCreated).JSON(newCategoryResponse(&cat, store.Code))
	}
}

// PUT /api/v1/private/category/:id
func UpdateCategoryHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		store := merchant.StoreFrom(c)
		cat, err := findCategory(c, db, store)
		if err != nil {
			return err
		}

		var body UpdateCategoryRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if err := validate.Struct(&body); err != nil {
			return err
		}

		if body.Name != nil {
			name := strings.TrimSpace(*body.Name)
			if name == "" {
				return apperr.Validation("name must not be empty",
					apperr.FieldError{Field: "name", Tag: "required", Message: "name must not be empty"})
			}
			cat.Name = name
		}
		if body.Visible != nil {
			cat.Visible = *body.Visible
		}

		if err := db.WithContext(c.UserContext()).Save(cat).Error; err != nil {
			return errors.Wrap(err, "update category")
		}
		return c.JSON(newCategoryResponse(cat, store.Code))
	}
}

// DELETE /api/v1/private/category/:id
func DeleteCategoryHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		store := merchant.StoreFrom(c)
		cat, err := findCategory(c, db, store)
		if err != nil {
			return err
		}

		// categories still listed in a catalog stay
		var count int64
		db.WithContext(c.UserContext()).Model(&models.CatalogEntry{}).Where("category_id = ?", cat.ID).Count(&count)
		if count > 0 {
			return apperr.Conflict("Category [%s] is used by %d catalog entries", cat.Code, count)
		}

		if err := db.WithContext(c.UserContext()).Delete(cat).Error; err != nil {
			return errors.Wrap(err, "delete category")
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
