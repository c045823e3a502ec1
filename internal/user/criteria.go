package user

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// mapping between readable field name and backend column name
var mappingFields = map[string]string{
	"emailAddress": "admin_email",
	"userName":     "admin_name",
}

// Criteria narrows a user listing. An empty StoreCode means every store.
type Criteria struct {
	StoreCode string
	Filters   map[string]string // column -> substring
}

func CreateCriteria(c *fiber.Ctx) Criteria {
	criteria := Criteria{Filters: map[string]string{}}
	for param, column := range mappingFields {
		if v := strings.TrimSpace(c.Query(param)); v != "" {
			criteria.Filters[column] = v
		}
	}
	return criteria
}
