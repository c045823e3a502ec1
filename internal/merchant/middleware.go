package merchant

import (
	"strings"

	"shop-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

const (
	CtxStoreKey    = "merchant_store"
	CtxLanguageKey = "language"
)

// ResolveStore loads the store named by the "store" query parameter
// (defaultCode when absent) and picks the request language from "lang",
// falling back to the store default.
func ResolveStore(stores *StoreFacade, defaultCode, defaultLang string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		code := strings.TrimSpace(c.Query("store"))
		if code == "" {
			code = defaultCode
		}
		store, err := stores.Get(c.UserContext(), code)
		if err != nil {
			return err
		}

		lang := strings.ToLower(strings.TrimSpace(c.Query("lang")))
		if len(lang) != 2 {
			lang = store.DefaultLanguage
		}
		if lang == "" {
			lang = defaultLang
		}

		c.Locals(CtxStoreKey, store)
		c.Locals(CtxLanguageKey, lang)
		return c.Next()
	}
}

func StoreFrom(c *fiber.Ctx) *models.MerchantStore {
	s, _ := c.Locals(CtxStoreKey).(*models.MerchantStore)
	return s
}

func LanguageFrom(c *fiber.Ctx) string {
	l, _ := c.Locals(CtxLanguageKey).(string)
	return l
}
