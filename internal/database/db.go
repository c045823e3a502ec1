package database

import (
	"strings"

	"shop-backend/internal/config"
	"shop-backend/internal/logging"
	"shop-backend/internal/models"

	"github.com/pkg/errors"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Open connects to the configured database without migrating it.
func Open(cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DatabaseDriver {
	case "sqlite":
		dialector = sqlite.Open(cfg.DatabaseDSN)
	default:
		dialector = postgres.Open(cfg.DatabaseDSN)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         newGormLogger(logging.DefaultLogger()),
	})
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}

	if cfg.DatabaseDriver == "sqlite" && isMemoryDSN(cfg.DatabaseDSN) {
		// every new connection to :memory: is a new empty database
		sqlDB, err := db.DB()
		if err != nil {
			return nil, errors.Wrap(err, "sqlite pool")
		}
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetConnMaxLifetime(0)
	}
	return db, nil
}

// Init opens the database and brings the schema and seed data up to date.
func Init(cfg *config.Config) (*gorm.DB, error) {
	db, err := Open(cfg)
	if err != nil {
		return nil, err
	}
	if err := Migrate(db, cfg); err != nil {
		return nil, err
	}
	return db, nil
}

func Migrate(db *gorm.DB, cfg *config.Config) error {
	err := db.AutoMigrate(
		&models.MerchantStore{},
		&models.Group{},
		&models.User{},
		&models.Category{},
		&models.Product{},
		&models.Catalog{},
		&models.CatalogEntry{},
		&models.AuditLog{},
	)
	if err != nil {
		return errors.Wrap(err, "auto migrate")
	}

	groups := make([]models.Group, 0, len(models.AdminGroups))
	for _, name := range models.AdminGroups {
		groups = append(groups, models.Group{Name: name, Type: models.GroupTypeAdmin})
	}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&groups).Error; err != nil {
		return errors.Wrap(err, "seed groups")
	}

	store := models.MerchantStore{
		Code:            cfg.DefaultStoreCode,
		Name:            "Default store",
		DefaultLanguage: cfg.DefaultLanguage,
	}
	if err := db.Where(models.MerchantStore{Code: store.Code}).FirstOrCreate(&store).Error; err != nil {
		return errors.Wrap(err, "seed default store")
	}

	logging.DefaultLogger().Infow("database migrated", "default_store", store.Code)
	return nil
}

func isMemoryDSN(dsn string) bool {
	return strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}
