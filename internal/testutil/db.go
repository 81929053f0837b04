// Package testutil provides store-backed fixtures for package tests.
package testutil

import (
	"testing"
	"time"

	"mess-backend/internal/database"
	"mess-backend/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// NewDB returns an in-memory SQLite handle with the production schema. A
// single connection is used so every goroutine sees the same database and
// the unique indexes arbitrate concurrent writers.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?_pragma=foreign_keys(1)"), database.GormConfig())
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sqlite handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// CreateUser inserts a user whose password is "secret".
func CreateUser(t testing.TB, db *gorm.DB, name, email string, role models.UserRole) models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	u := models.User{Name: name, Email: email, PasswordHash: string(hash), Role: role}
	if err := db.Create(&u).Error; err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	return u
}

// CreateMenuItem inserts an item directly, bypassing catalog validation.
func CreateMenuItem(t testing.TB, db *gorm.DB, name string, price int64, date models.Date) models.MenuItem {
	t.Helper()

	item := models.MenuItem{Name: name, Price: decimal.NewFromInt(price), DateAvailable: date}
	if err := db.Create(&item).Error; err != nil {
		t.Fatalf("create menu item %s: %v", name, err)
	}
	return item
}

// CreateReservation inserts a reservation directly, bypassing the ledger's
// window checks. Used to seed history and reports.
func CreateReservation(t testing.TB, db *gorm.DB, studentID, itemID uint, date models.Date, createdAt time.Time) models.Reservation {
	t.Helper()

	r := models.Reservation{StudentID: studentID, MenuItemID: itemID, BookingForDate: date, CreatedAt: createdAt}
	if err := db.Omit("Student", "MenuItem").Create(&r).Error; err != nil {
		t.Fatalf("create reservation: %v", err)
	}
	return r
}
