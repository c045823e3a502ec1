package catalog

import (
	"shop-backend/internal/common"
	"shop-backend/internal/merchant"
	"shop-backend/internal/validate"

	"github.com/gofiber/fiber/v2"
)

func paramID(c *fiber.Ctx, name string) (uint, error) {
	id, err := c.ParamsInt(name)
	if err != nil || id <= 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "Invalid "+name)
	}
	return uint(id), nil
}

// POST /api/v1/private/catalog
func CreateCatalogHandler(catalogs *Facade) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body PersistableCatalog
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		created, err := catalogs.Create(c.UserContext(), merchant.StoreFrom(c), &body)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(created)
	}
}

// GET /api/v1/private/catalogs?page=0&count=10&code=
func ListCatalogsHandler(catalogs *Facade) fiber.Handler {
	return func(c *fiber.Ctx) error {
		page, count := common.PageParams(c)
		list, err := catalogs.List(c.UserContext(), merchant.StoreFrom(c), c.Query("code"), page, count)
		if err != nil {
			return err
		}
		return c.JSON(list)
	}
}

// GET /api/v1/private/catalog/:id
func GetCatalogHandler(catalogs *Facade) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "id")
		if err != nil {
			return err
		}
		r, err := catalogs.Get(c.UserContext(), merchant.StoreFrom(c), id)
		if err != nil {
			return err
		}
		return c.JSON(r)
	}
}

// PATCH /api/v1/private/catalog/:id
func UpdateCatalogHandler(catalogs *Facade) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "id")
		if err != nil {
			return err
		}
		var body PatchCatalog
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		r, err := catalogs.Update(c.UserContext(), merchant.StoreFrom(c), id, &body)
		if err != nil {
			return err
		}
		return c.JSON(r)
	}
}

// DELETE /api/v1/private/catalog/:id
func DeleteCatalogHandler(catalogs *Facade) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "id")
		if err != nil {
			return err
		}
		if err := catalogs.Delete(c.UserContext(), merchant.StoreFrom(c), id); err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusOK)
	}
}

// POST /api/v1/private/catalog/unique
func ExistsHandler(catalogs *Facade) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body common.UniqueEntity
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if err := validate.Struct(&body); err != nil {
			return err
		}
		exists, err := catalogs.Exists(c.UserContext(), merchant.StoreFrom(c), body.Unique)
		if err != nil {
			return err
		}
		return c.JSON(common.EntityExists{Exists: exists})
	}
}

// POST /api/v1/private/catalog/:id/entry
func AddEntryHandler(catalogs *Facade) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "id")
		if err != nil {
			return err
		}
		var body PersistableCatalogEntry
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		entry, err := catalogs.AddEntry(c.UserContext(), merchant.StoreFrom(c), id, &body)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(entry)
	}
}

// GET /api/v1/private/catalog/:id/entry?page=0&count=10
func ListEntriesHandler(catalogs *Facade) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "id")
		if err != nil {
			return err
		}
		page, count := common.PageParams(c)
		list, err := catalogs.ListEntries(c.UserContext(), merchant.StoreFrom(c), id, page, count)
		if err != nil {
			return err
		}
		return c.JSON(list)
	}
}

// DELETE /api/v1/private/catalog/:id/entry/:entryId
func RemoveEntryHandler(catalogs *Facade) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "id")
		if err != nil {
			return err
		}
		entryID, err := paramID(c, "entryId")
		if err != nil {
			return err
		}
		if err := catalogs.RemoveEntry(c.UserContext(), merchant.StoreFrom(c), id, entryID); err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusOK)
	}
}
