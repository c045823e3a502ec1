package user

import (
	"shop-backend/internal/merchant"

	"github.com/gofiber/fiber/v2"
)

// RequireStoreAccess lets the request through when the caller is authorized
// for the store resolved by merchant.ResolveStore.
func RequireStoreAccess(users *Facade) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authenticatedUser, err := authenticated(c, users)
		if err != nil {
			return err
		}
		store := merchant.StoreFrom(c)
		ok, err := users.AuthorizedStore(c.UserContext(), authenticatedUser, store.Code)
		if err != nil {
			return err
		}
		if !ok {
			return storeDenied(authenticatedUser, store.Code)
		}
		return c.Next()
	}
}
