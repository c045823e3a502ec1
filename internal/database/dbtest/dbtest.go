// Package dbtest provides in-memory databases and fixtures for package tests.
package dbtest

import (
	"testing"

	"shop-backend/internal/config"
	"shop-backend/internal/database"
	"shop-backend/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const DefaultStore = "DEFAULT"

func Config() *config.Config {
	return &config.Config{
		DatabaseDriver:   "sqlite",
		DatabaseDSN:      "file::memory:?_foreign_keys=on",
		DefaultStoreCode: DefaultStore,
		DefaultLanguage:  "en",
	}
}

// New returns a migrated, seeded in-memory database private to the test.
func New(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := database.Init(Config())
	if err != nil {
		t.Fatalf("init database: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func Store(t testing.TB, db *gorm.DB, code string) *models.MerchantStore {
	t.Helper()
	var store models.MerchantStore
	if err := db.Where("code = ?", code).First(&store).Error; err == nil {
		return &store
	}
	store = models.MerchantStore{Code: code, Name: code, DefaultLanguage: "en"}
	if err := db.Create(&store).Error; err != nil {
		t.Fatalf("create store %s: %v", code, err)
	}
	return &store
}

// ChildStore creates a retailer store under parent.
func ChildStore(t testing.TB, db *gorm.DB, code string, parent *models.MerchantStore) *models.MerchantStore {
	t.Helper()
	store := models.MerchantStore{Code: code, Name: code, DefaultLanguage: "fr", ParentID: &parent.ID}
	if err := db.Create(&store).Error; err != nil {
		t.Fatalf("create store %s: %v", code, err)
	}
	return &store
}

func User(t testing.TB, db *gorm.DB, store *models.MerchantStore, userName, password string, groups ...string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	var gs []models.Group
	if len(groups) > 0 {
		if err := db.Where("name IN ?", groups).Find(&gs).Error; err != nil {
			t.Fatalf("load groups: %v", err)
		}
	}

	user := models.User{
		MerchantStoreID: store.ID,
		UserName:        userName,
		Email:           userName + "@shop.test",
		PasswordHash:    string(hash),
		Active:          true,
		DefaultLanguage: "en",
		Groups:          gs,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user %s: %v", userName, err)
	}
	user.MerchantStore = *store
	return &user
}
