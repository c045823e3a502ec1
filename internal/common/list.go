// Package common holds request and response shapes shared by the API packages.
package common

import (
	"math"
	"strings"

	"github.com/gofiber/fiber/v2"
)

const (
	DefaultCount = 10
	MaxCount     = 100
	// MaxPage keeps page*count within an int32 offset.
	MaxPage = math.MaxInt32 / MaxCount
)

// ReadableList is a page of results.
type ReadableList[T any] struct {
	Data            []T   `json:"data"`
	TotalPages      int   `json:"totalPages"`
	Number          int   `json:"number"` // items on this page
	RecordsTotal    int64 `json:"recordsTotal"`
	RecordsFiltered int64 `json:"recordsFiltered"`
}

func NewReadableList[T any](data []T, page, count int, total int64) ReadableList[T] {
	if data == nil {
		data = []T{}
	}
	return ReadableList[T]{
		Data:            data,
		TotalPages:      TotalPages(total, count),
		Number:          len(data),
		RecordsTotal:    total,
		RecordsFiltered: total,
	}
}

func TotalPages(total int64, count int) int {
	if count <= 0 || total <= 0 {
		return 0
	}
	return int((total + int64(count) - 1) / int64(count))
}

// PageParams reads the zero based "page" and the "count" query parameters.
func PageParams(c *fiber.Ctx) (page, count int) {
	page = c.QueryInt("page", 0)
	count = c.QueryInt("count", DefaultCount)
	return ClampPage(page, count)
}

func ClampPage(page, count int) (int, int) {
	if page < 0 {
		page = 0
	}
	if page > MaxPage {
		page = MaxPage
	}
	if count <= 0 {
		count = DefaultCount
	}
	if count > MaxCount {
		count = MaxCount
	}
	return page, count
}

// LikeEscape follows a LIKE whose pattern comes from Contains.
const LikeEscape = ` ESCAPE '\'`

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Contains is a LIKE pattern matching s anywhere, with wildcards in s taken
// literally.
func Contains(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

// UniqueEntity is the body of the "/unique" existence checks.
type UniqueEntity struct {
	Unique   string `json:"unique" validate:"required"`
	Merchant string `json:"merchant"`
}

type EntityExists struct {
	Exists bool `json:"exists"`
}
