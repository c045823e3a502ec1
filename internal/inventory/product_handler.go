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
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type ProductResponse struct {
	ID        uint   `json:"id"`
	SKU       string `json:"sku"`
	Name      string `json:"name"`
	Available bool   `json:"available"`
	Store     string `json:"store"`
}

type CreateProductRequest struct {
	SKU       string `json:"sku" validate:"required,max=100"`
	Name      string `json:"name" validate:"required,max=100"`
	Available bool   `json:"available"`
}

type UpdateProductRequest struct {
	Name      *string `json:"name" validate:"omitempty,max=100"`
	Available *bool   `json:"available"`
}

func newProductResponse(p *models.Product, store string) ProductResponse {
	return ProductResponse{ID: p.ID, SKU: p.SKU, Name: p.Name, Available: p.Available, Store: store}
}

func findProduct(c *fiber.Ctx, db *gorm.DB, store *models.MerchantStore) (*models.Product, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Invalid product id")
	}
	var p models.Product
	err = db.WithContext(c.UserContext()).
		Where("id = ? AND merchant_store_id = ?", id, store.ID).
		First(&p).Error
	if err != nil {
		if database.IsRecordNotFoundErr(err) {
			return nil, apperr.NotFound("Product [%d] not found for store [%s]", id, store.Code)
		}
		return nil, errors.Wrap(err, "find product")
	}
	return &p, nil
}

// GET /api/v1/private/products?page=0&count=10&available=true
func ListProductsHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		store := merchant.StoreFrom(c)
		page, count := common.PageParams(c)

		q := db.WithContext(c.UserContext()).Model(&models.Product{}).Where("merchant_store_id = ?", store.ID)
		switch c.Query("available") {
		case "true":
			q = q.Where("available = ?", true)
		case "false":
			q = q.Where("available = ?", false)
		}

		var total int64
		if err := q.Count(&total).Error; err != nil {
			return errors.Wrap(err, "count products")
		}

		var products []models.Product
		if err := q.Order("name asc").Offset(page * count).Limit(count).Find(&products).Error; err != nil {
			return errors.Wrap(err, "list products")
		}

		res := make([]ProductResponse, 0, len(products))
		for i := range products {
			res = append(res, newProductResponse(&products[i], store.Code))
		}
		return c.JSON(common.NewReadableList(res, page, count, total))
	}
}

// POST /api/v1/private/product
func CreateProductHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		store := merchant.StoreFrom(c)

		var body CreateProductRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		body.SKU = strings.TrimSpace(body.SKU)
		body.Name = strings.TrimSpace(body.Name)
		if err := validate.Struct(&body); err != nil {
			return err
		}

		p := models.Product{
			MerchantStoreID: store.ID,
			SKU:             body.SKU,
			Name:            body.Name,
			Available:       body.Available,
		}
		if err := db.WithContext(c.UserContext()).Create(&p).Error; err != nil {
			if database.IsKeyConflictErr(err) {
				return apperr.Conflict("Product [%s] already exists in store [%s]", p.SKU, store.Code)
			}
			return errors.Wrap(err, "create product")
		}

		return c.Status(fiber.StatusCreated).JSON(newProductResponse(&p, store.Code))
	}
}

// PUT /api/v1/private/product/:id
func UpdateProductHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		store := merchant.StoreFrom(c)
		p, err := findProduct(c, db, store)
		if err != nil {
			return err
		}

		var body UpdateProductRequest
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
			p.Name = name
		}
		if body.Available != nil {
			p.Available = *body.Available
		}

		if err := db.WithContext(c.UserContext()).Save(p).Error; err != nil {
			return errors.Wrap(err, "update product")
		}
		return c.JSON(newProductResponse(p, store.Code))
	}
}

// DELETE /api/v1/private/product/:id
func DeleteProductHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		store := merchant.StoreFrom(c)
		p, err := findProduct(c, db, store)
		if err != nil {
			return err
		}

		var count int64
		db.WithContext(c.UserContext()).Model(&models.CatalogEntry{}).Where("product_id = ?", p.ID).Count(&count)
		if count > 0 {
			return apperr.Conflict("Product [%s] is used by %d catalog entries", p.SKU, count)
		}

		if err := db.WithContext(c.UserContext()).Delete(p).Error; err != nil {
			return errors.Wrap(err, "delete product")
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
