package user

import (
	"strings"

	"shop-backend/internal/apperr"
	"shop-backend/internal/common"
	"shop-backend/internal/merchant"
	"shop-backend/internal/models"
	"shop-backend/internal/validate"

	"github.com/gofiber/fiber/v2"
)

var adminGroups = []string{models.GroupSuperAdmin, models.GroupAdmin}

func parseID(c *fiber.Ctx) (uint, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "Invalid user id")
	}
	return uint(id), nil
}

func authenticated(c *fiber.Ctx, users *Facade) (string, error) {
	name := users.AuthenticatedUser(c.UserContext())
	if name == "" {
		return "", apperr.Unauthorized()
	}
	return name, nil
}

func storeDenied(user, code string) error {
	return apperr.Unauthorizedf("Operation unauthorized for user [%s] and store [%s]", user, code)
}

// GET /api/v1/private/users/:id
func GetUserHandler(users *Facade) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return err
		}
		store := merchant.StoreFrom(c)
		u, err := users.FindByID(c.UserContext(), id, store.Code, merchant.LanguageFrom(c))
		if err != nil {
			return err
		}
		return c.JSON(u)
	}
}

// POST /api/v1/private/user/
func CreateUserHandler(users *Facade, stores *merchant.StoreFacade) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		authenticatedUser, err := authenticated(c, users)
		if err != nil {
			return err
		}

		var body PersistableUser
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		if err := users.AuthorizedGroup(ctx, authenticatedUser, adminGroups); err != nil {
			return err
		}
		if err := users.AuthorizedGroups(ctx, authenticatedUser, &body); err != nil {
			return err
		}

		code := strings.TrimSpace(body.Store)
		if code == "" {
			code = merchant.StoreFrom(c).Code
		}
		store, err := stores.Get(ctx, code)
		if err != nil {
			return err
		}
		ok, err := users.AuthorizedStore(ctx, authenticatedUser, store.Code)
		if err != nil {
			return err
		}
		if !ok {
			return storeDenied(authenticatedUser, store.Code)
		}

		created, err := users.Create(ctx, &body, store)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(created)
	}
}

// PUT /api/v1/private/user/:id
func UpdateUserHandler(users *Facade) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		authenticatedUser, err := authenticated(c, users)
		if err != nil {
			return err
		}
		id, err := parseID(c)
		if err != nil {
			return err
		}

		var body PersistableUser
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if err := users.AuthorizedGroups(ctx, authenticatedUser, &body); err != nil {
			return err
		}

		updated, err := users.Update(ctx, id, authenticatedUser, merchant.StoreFrom(c).Code, &body)
		if err != nil {
			return err
		}
		return c.JSON(updated)
	}
}

// PATCH /api/v1/private/user/:id/password
func PasswordHandler(users *Facade) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authenticatedUser, err := authenticated(c, users)
		if err != nil {
			return err
		}
		id, err := parseID(c)
		if err != nil {
			return err
		}

		var body UserPassword
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if err := users.ChangePassword(c.UserContext(), id, authenticatedUser, body); err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusOK)
	}
}

// GET /api/v1/private/users?page=0&count=10&userName=&emailAddress=
func ListUsersHandler(users *Facade) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		authenticatedUser, err := authenticated(c, users)
		if err != nil {
			return err
		}
		store := merchant.StoreFrom(c)

		criteria := CreateCriteria(c)
		criteria.StoreCode = store.Code

		superAdmin, err := users.IsSuperAdmin(ctx, authenticatedUser)
		if err != nil {
			return err
		}
		// superadmin sees every store
		if superAdmin {
			criteria.StoreCode = ""
		} else {
			ok, err := users.AuthorizedStore(ctx, authenticatedUser, store.Code)
			if err != nil {
				return err
			}
			if !ok {
				return storeDenied(authenticatedUser, store.Code)
			}
		}

		if err := users.AuthorizedGroup(ctx, authenticatedUser, adminGroups); err != nil {
			return err
		}

		page, count := common.PageParams(c)
		list, err := users.ListByCriteria(ctx, criteria, page, count, merchant.LanguageFrom(c))
		if err != nil {
			return err
		}
		return c.JSON(list)
	}
}

// DELETE /api/v1/private/user/:id
func DeleteUserHandler(users *Facade) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		authenticatedUser, err := authenticated(c, users)
		if err != nil {
			return err
		}
		id, err := parseID(c)
		if err != nil {
			return err
		}
		store := merchant.StoreFrom(c)

		ok, err := users.AuthorizedStore(ctx, authenticatedUser, store.Code)
		if err != nil {
			return err
		}
		if !ok {
			return storeDenied(authenticatedUser, store.Code)
		}
		if err := users.AuthorizedGroup(ctx, authenticatedUser, adminGroups); err != nil {
			return err
		}

		if err := users.Delete(ctx, id, store.Code); err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusOK)
	}
}

// POST /api/v1/private/user/unique
func ExistsHandler(users *Facade) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body common.UniqueEntity
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if err := validate.Struct(&body); err != nil {
			return err
		}

		_, err := users.FindByUserName(c.UserContext(), body.Unique, body.Merchant, merchant.LanguageFrom(c))
		if err != nil {
			if apperr.IsNotFound(err) {
				return c.JSON(common.EntityExists{Exists: false})
			}
			return err
		}
		return c.JSON(common.EntityExists{Exists: true})
	}
}

// GET /api/v1/private/user/profile
func GetAuthUserHandler(users *Facade) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authenticatedUser, err := authenticated(c, users)
		if err != nil {
			return err
		}
		u, err := users.FindByUserName(c.UserContext(), authenticatedUser, "", merchant.LanguageFrom(c))
		if err != nil {
			return err
		}
		return c.JSON(u)
	}
}
