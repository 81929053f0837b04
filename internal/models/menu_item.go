package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MenuItem is a dish offered on a single day. Items are never updated or
// deleted once published.
type MenuItem struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	Name          string          `gorm:"size:100;not null;uniqueIndex:idx_menu_items_name_date" json:"name"`
	Price         decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"price"`
	DateAvailable Date            `gorm:"not null;uniqueIndex:idx_menu_items_name_date;index" json:"date_available"`
	CreatedAt     time.Time       `json:"created_at"`
}
