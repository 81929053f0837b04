// Package menu is the catalog of dishes offered per day.
package menu

import (
	"context"
	"errors"
	"strings"

	"mess-backend/internal/apperror"
	"mess-backend/internal/database"
	"mess-backend/internal/models"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const maxNameLength = 100

type Catalog struct {
	db  *gorm.DB
	log zerolog.Logger
}

func NewCatalog(db *gorm.DB, log zerolog.Logger) *Catalog {
	return &Catalog{db: db, log: log.With().Str("component", "menu").Logger()}
}

// Publish adds a dish for date. The same name may not be offered twice on
// one day.
func (c *Catalog) Publish(ctx context.Context, name string, price decimal.Decimal, date models.Date) (*models.MenuItem, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperror.Validation("name is required")
	}
	if len(name) > maxNameLength {
		return nil, apperror.Validation("name must be at most %d characters", maxNameLength)
	}
	if price.Sign() <= 0 {
		return nil, apperror.Validation("price must be a valid positive number")
	}
	if !price.Equal(price.Round(2)) {
		return nil, apperror.Validation("price must have at most two decimal places")
	}
	if date.IsZero() {
		return nil, apperror.Validation("date_available is required")
	}

	db := c.db.WithContext(ctx)

	var existing int64
	if err := db.Model(&models.MenuItem{}).
		Where("name = ? AND date_available = ?", name, date).
		Count(&existing).Error; err != nil {
		return nil, c.storageErr("count menu items", err)
	}
	if existing > 0 {
		return nil, apperror.Conflict("This food item already exists for this date")
	}

	item := models.MenuItem{Name: name, Price: price, DateAvailable: date}
	if err := db.Create(&item).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return nil, apperror.Conflict("This food item already exists for this date")
		}
		return nil, c.storageErr("insert menu item", err)
	}

	c.log.Info().Uint("item_id", item.ID).Str("name", item.Name).Stringer("date", item.DateAvailable).Msg("menu item published")
	return &item, nil
}

// ItemsFor lists the dishes of date ordered by name. No items is not an error.
func (c *Catalog) ItemsFor(ctx context.Context, date models.Date) ([]models.MenuItem, error) {
	if date.IsZero() {
		return nil, apperror.Validation("Date parameter is required")
	}

	items := make([]models.MenuItem, 0)
	if err := c.db.WithContext(ctx).
		Where("date_available = ?", date).
		Order("name ASC").
		Find(&items).Error; err != nil {
		return nil, c.storageErr("list menu items", err)
	}
	return items, nil
}

// Find resolves an item offered on date. An id that exists for another day
// is reported as not found.
func (c *Catalog) Find(ctx context.Context, itemID uint, date models.Date) (*models.MenuItem, error) {
	var item models.MenuItem
	err := c.db.WithContext(ctx).
		Where("id = ? AND date_available = ?", itemID, date).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("Food item not available for this date")
	}
	if err != nil {
		return nil, c.storageErr("find menu item", err)
	}
	return &item, nil
}

func (c *Catalog) storageErr(op string, err error) error {
	c.log.Error().Err(err).Str("op", op).Msg("menu storage failure")
	return apperror.Storage(op, err)
}
