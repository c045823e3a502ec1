// Package server assembles the HTTP application.
package server

import (
	"strings"

	"shop-backend/internal/apperr"
	"shop-backend/internal/audit"
	"shop-backend/internal/auth"
	"shop-backend/internal/cache"
	"shop-backend/internal/catalog"
	"shop-backend/internal/config"
	"shop-backend/internal/inventory"
	"shop-backend/internal/logging"
	"shop-backend/internal/merchant"
	"shop-backend/internal/metrics"
	"shop-backend/internal/models"
	"shop-backend/internal/user"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"gorm.io/gorm"
)

var catalogueGroups = []string{
	models.GroupSuperAdmin,
	models.GroupAdmin,
	models.GroupAdminCatalogue,
	models.GroupAdminRetail,
}

// New wires every route. cacher may be nil.
func New(cfg *config.Config, db *gorm.DB, cacher cache.Cacher) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler:          apperr.ErrorHandler,
		DisableStartupMessage: true,
	})

	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(corsOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, " + logging.RequestIDHeader,
		AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
	}))
	app.Use(logging.Middleware("/health", "/metrics"))
	app.Use(metrics.Middleware("/metrics"))

	app.Get("/health", healthHandler(db))
	app.Get("/metrics", metrics.Handler())

	stores := merchant.NewStoreFacade(db, cacher, cfg.StoreCacheTTL)
	users := user.NewFacade(db, stores)
	catalogs := catalog.NewFacade(db)

	api := app.Group("/api/v1")

	// Public
	api.Post("/auth/register-super-admin", auth.RegisterSuperAdminHandler(db, cfg))
	api.Post("/private/login", auth.LoginHandler(db, cfg))

	private := api.Group("/private",
		auth.JWTMiddleware(cfg),
		merchant.ResolveStore(stores, cfg.DefaultStoreCode, cfg.DefaultLanguage),
	)

	superadmin := auth.RequireGroup(models.GroupSuperAdmin)
	catalogue := []fiber.Handler{auth.RequireGroup(catalogueGroups...), user.RequireStoreAccess(users)}
	gated := func(h fiber.Handler) []fiber.Handler {
		return append(append([]fiber.Handler{}, catalogue...), h)
	}

	// Users
	private.Get("/users/:id", user.GetUserHandler(users))
	private.Get("/users", user.ListUsersHandler(users))
	private.Get("/user/profile", user.GetAuthUserHandler(users))
	private.Post("/user/unique", user.ExistsHandler(users))
	private.Post("/user/", user.CreateUserHandler(users, stores))
	private.Put("/user/:id", user.UpdateUserHandler(users))
	private.Patch("/user/:id/password", user.PasswordHandler(users))
	private.Delete("/user/:id", user.DeleteUserHandler(users))

	// Stores
	private.Post("/store", superadmin, merchant.CreateStoreHandler(stores))
	private.Get("/stores", superadmin, merchant.ListStoresHandler(stores))
	private.Get("/store/:code", superadmin, merchant.GetStoreHandler(stores))
	private.Put("/store/:code", superadmin, merchant.UpdateStoreHandler(stores))

	// Catalogs
	private.Get("/catalogs", catalog.ListCatalogsHandler(catalogs))
	private.Post("/catalog/unique", catalog.ExistsHandler(catalogs))
	private.Post("/catalog", gated(catalog.CreateCatalogHandler(catalogs))...)
	private.Get("/catalog/:id", catalog.GetCatalogHandler(catalogs))
	private.Patch("/catalog/:id", gated(catalog.UpdateCatalogHandler(catalogs))...)
	private.Delete("/catalog/:id", gated(catalog.DeleteCatalogHandler(catalogs))...)
	private.Get("/catalog/:id/entry", catalog.ListEntriesHandler(catalogs))
	private.Post("/catalog/:id/entry", gated(catalog.AddEntryHandler(catalogs))...)
	private.Delete("/catalog/:id/entry/:entryId", gated(catalog.RemoveEntryHandler(catalogs))...)

	// Inventory
	private.Get("/categories", inventory.ListCategoriesHandler(db))
	private.Post("/category", gated(inventory.CreateCategoryHandler(db))...)
	private.Put("/category/:id", gated(inventory.UpdateCategoryHandler(db))...)
	private.Delete("/category/:id", gated(inventory.DeleteCategoryHandler(db))...)
	private.Get("/products", inventory.ListProductsHandler(db))
	private.Post("/product", gated(inventory.CreateProductHandler(db))...)
	private.Post("/products/import", gated(inventory.ImportProductsHandler(db))...)
	private.Put("/product/:id", gated(inventory.UpdateProductHandler(db))...)
	private.Delete("/product/:id", gated(inventory.DeleteProductHandler(db))...)

	// Audit
	private.Get("/audit-logs",
		auth.RequireGroup(models.GroupSuperAdmin, models.GroupAdmin),
		audit.ListAuditLogsHandler(db, users),
	)

	return app
}

// GET /health
func healthHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.UserContext())
		}
		if err != nil {
			logging.FromContext(c.UserContext()).Warnw("health check failed", "err", err)
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable"})
		}
		return c.JSON(fiber.Map{"status": "ok"})
	}
}
