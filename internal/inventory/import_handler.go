package inventory

import (
	"fmt"
	"strings"

	"shop-backend/internal/apperr"
	"shop-backend/internal/database"
	"shop-backend/internal/logging"
	"shop-backend/internal/merchant"
	"shop-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

type SkippedRow struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

type ImportResult struct {
	Created int          `json:"created"`
	Updated int          `json:"updated"`
	Skipped []SkippedRow `json:"skipped"`
}

type importRow struct {
	line int
	req  CreateProductRequest
}

func parseAvailable(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "y", "x":
		return true
	}
	return false
}

// parseProductRows reads sku, name and availability from the first three
// columns. A first row starting with "SKU" is a header.
func parseProductRows(rows [][]string) ([]importRow, []SkippedRow) {
	start := 0
	if len(rows) > 0 && len(rows[0]) > 0 && strings.EqualFold(strings.TrimSpace(rows[0][0]), "sku") {
		start = 1
	}

	var (
		parsed  []importRow
		skipped []SkippedRow
		seen    = map[string]int{}
	)
	for i := start; i < len(rows); i++ {
		row := rows[i]
		line := i + 1
		if len(row) == 0 || strings.TrimSpace(strings.Join(row, "")) == "" {
			continue
		}

		sku := strings.TrimSpace(row[0])
		name := ""
		if len(row) > 1 {
			name = strings.TrimSpace(row[1])
		}
		switch {
		case sku == "":
			skipped = append(skipped, SkippedRow{Row: line, Reason: "missing sku"})
			continue
		case name == "":
			skipped = append(skipped, SkippedRow{Row: line, Reason: "missing name"})
			continue
		case len(sku) > 100 || len(name) > 100:
			skipped = append(skipped, SkippedRow{Row: line, Reason: "value longer than 100 characters"})
			continue
		}
		if first, ok := seen[sku]; ok {
			skipped = append(skipped, SkippedRow{Row: line, Reason: fmt.Sprintf("duplicate of row %d", first)})
			continue
		}
		seen[sku] = line

		available := false
		if len(row) > 2 {
			available = parseAvailable(row[2])
		}
		parsed = append(parsed, importRow{
			line: line,
			req:  CreateProductRequest{SKU: sku, Name: name, Available: available},
		})
	}
	return parsed, skipped
}

// POST /api/v1/private/products/import (multipart, field "file")
//
// Creates or updates the store's products from the first sheet of an .xlsx
// file. Rows are matched on sku.
func ImportProductsHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		store := merchant.StoreFrom(c)

		fileHeader, err := c.FormFile("file")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "File upload missing")
		}
		if !strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".xlsx") {
			return fiber.NewError(fiber.StatusBadRequest, "Only .xlsx files are accepted")
		}

		file, err := fileHeader.Open()
		if err != nil {
			return errors.Wrap(err, "open upload")
		}
		defer file.Close()

		excelFile, err := excelize.OpenReader(file)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Excel file could not be read")
		}
		defer excelFile.Close()

		sheets := excelFile.GetSheetList()
		if len(sheets) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Excel file has no sheet")
		}
		rows, err := excelFile.GetRows(sheets[0])
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Sheet could not be read")
		}

		parsed, skipped := parseProductRows(rows)
		if len(parsed) == 0 && len(skipped) == 0 {
			return apperr.Validation("Excel file is empty")
		}

		result := ImportResult{Skipped: skipped}
		err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			for _, r := range parsed {
				var p models.Product
				err := tx.Where("merchant_store_id = ? AND sku = ?", store.ID, r.req.SKU).First(&p).Error
				switch {
				case err == nil:
					p.Name = r.req.Name
					p.Available = r.req.Available
					if err := tx.Save(&p).Error; err != nil {
						return errors.Wrapf(err, "update product row %d", r.line)
					}
					result.Updated++
				case database.IsRecordNotFoundErr(err):
					p = models.Product{
						MerchantStoreID: store.ID,
						SKU:             r.req.SKU,
						Name:            r.req.Name,
						Available:       r.req.Available,
					}
					if err := tx.Create(&p).Error; err != nil {
						return errors.Wrapf(err, "create product row %d", r.line)
					}
					result.Created++
				default:
					return errors.Wrapf(err, "find product row %d", r.line)
				}
			}
			return nil
		})
		if err != nil {
			return err
		}
		if result.Skipped == nil {
			result.Skipped = []SkippedRow{}
		}

		logging.FromContext(ctx).Infow("products imported",
			"store", store.Code,
			"created", result.Created,
			"updated", result.Updated,
			"skipped", len(result.Skipped),
		)
		return c.JSON(result)
	}
}
