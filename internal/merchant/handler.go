package merchant

import (
	"shop-backend/internal/validate"

	"github.com/gofiber/fiber/v2"
)

// POST /api/v1/private/store
func CreateStoreHandler(stores *StoreFacade) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body PersistableStore
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if err := validate.Struct(&body); err != nil {
			return err
		}

		store, err := stores.Create(c.UserContext(), &body)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(NewReadableStore(store))
	}
}

// GET /api/v1/private/stores
func ListStoresHandler(stores *StoreFacade) fiber.Handler {
	return func(c *fiber.Ctx) error {
		list, err := stores.List(c.UserContext())
		if err != nil {
			return err
		}
		res := make([]ReadableStore, 0, len(list))
		for i := range list {
			res = append(res, NewReadableStore(&list[i]))
		}
		return c.JSON(res)
	}
}

// GET /api/v1/private/store/:code
func GetStoreHandler(stores *StoreFacade) fiber.Handler {
	return func(c *fiber.Ctx) error {
		store, err := stores.Get(c.UserContext(), c.Params("code"))
		if err != nil {
			return err
		}
		return c.JSON(NewReadableStore(store))
	}
}

// PUT /api/v1/private/store/:code
func UpdateStoreHandler(stores *StoreFacade) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body UpdateStoreRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if err := validate.Struct(&body); err != nil {
			return err
		}

		store, err := stores.Update(c.UserContext(), c.Params("code"), &body)
		if err != nil {
			return err
		}
		return c.JSON(NewReadableStore(store))
	}
}
