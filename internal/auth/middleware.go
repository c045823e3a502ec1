package auth

import (
	"strings"

	"shop-backend/internal/apperr"
	"shop-backend/internal/config"
	"shop-backend/internal/metrics"

	"github.com/gofiber/fiber/v2"
)

const CtxPrincipalKey = "principal"

func JWTMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return apperr.Unauthorized("Authorization header missing")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return apperr.Unauthorized("Authorization header must be 'Bearer <token>'")
		}

		claims, err := ParseToken(cfg.JWTSecret, parts[1])
		if err != nil {
			return apperr.Unauthorized("Invalid or expired token")
		}

		p := &Principal{
			UserID:    claims.UserID,
			UserName:  claims.UserName,
			StoreCode: claims.StoreCode,
			Groups:    claims.Groups,
		}
		c.Locals(CtxPrincipalKey, p)
		c.SetUserContext(WithPrincipal(c.UserContext(), p))

		return c.Next()
	}
}

// RequireGroup lets the request through when the caller's token carries any
// of the given groups.
func RequireGroup(groups ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		if _, ok := PrincipalFrom(ctx); !ok {
			return apperr.Unauthorized()
		}
		for _, g := range groups {
			if IsUserInRole(ctx, g) {
				return c.Next()
			}
		}
		metrics.AuthorizationDenied.WithLabelValues("group").Inc()
		return apperr.Unauthorizedf("Operation unauthorized for user [%s]", AuthenticatedUser(ctx))
	}
}
