// Package report holds the read-only aggregations staff use to plan the
// kitchen and review sales.
package report

import (
	"context"
	"time"

	"mess-backend/internal/apperror"
	"mess-backend/internal/models"
	"mess-backend/internal/window"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type ItemDemand struct {
	FoodItem    string `db:"food_item" json:"food_item"`
	TotalOrders int64  `db:"total_orders" json:"total_orders"`
}

type OrderDetail struct {
	StudentName string    `db:"student_name" json:"student_name"`
	FoodItem    string    `db:"food_item" json:"food_item"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

type DailySales struct {
	Date  models.Date     `db:"date" json:"date"`
	Total decimal.Decimal `db:"total" json:"total"`
}

const summaryQuery = `
	SELECT f.name AS food_item, COUNT(*) AS total_orders
	FROM reservations o
	JOIN menu_items f ON o.menu_item_id = f.id
	WHERE o.booking_for_date = ?
	GROUP BY f.name
	ORDER BY total_orders DESC, f.name ASC`

const detailsQuery = `
	SELECT u.name AS student_name, f.name AS food_item, o.created_at
	FROM reservations o
	JOIN users u ON o.student_id = u.id
	JOIN menu_items f ON o.menu_item_id = f.id
	WHERE o.booking_for_date = ?
	ORDER BY o.created_at DESC, o.id DESC`

const salesQuery = `
	SELECT o.booking_for_date AS date, SUM(f.price) AS total
	FROM reservations o
	JOIN menu_items f ON o.menu_item_id = f.id
	WHERE o.booking_for_date >= ? AND o.booking_for_date < ?
	GROUP BY o.booking_for_date
	ORDER BY o.booking_for_date ASC`

// Engine never writes. It may observe either side of an in-flight booking.
type Engine struct {
	db     *sqlx.DB
	policy window.Policy
	log    zerolog.Logger
}

func NewEngine(db *sqlx.DB, policy window.Policy, log zerolog.Logger) *Engine {
	return &Engine{db: db, policy: policy, log: log.With().Str("component", "report").Logger()}
}

// TargetDate is the day the "today" reports cover: the calendar day of now
// in the policy's location.
func (e *Engine) TargetDate(now time.Time) models.Date {
	return e.policy.Today(now)
}

// TodaySummary counts orders per dish for the target date, busiest first.
func (e *Engine) TodaySummary(ctx context.Context, now time.Time) ([]ItemDemand, error) {
	return e.SummaryFor(ctx, e.TargetDate(now))
}

func (e *Engine) SummaryFor(ctx context.Context, date models.Date) ([]ItemDemand, error) {
	rows := make([]ItemDemand, 0)
	if err := e.db.SelectContext(ctx, &rows, e.db.Rebind(summaryQuery), date); err != nil {
		return nil, e.storageErr("order summary", err)
	}
	return rows, nil
}

// TodayDetails lists who ordered what for the target date, newest first.
func (e *Engine) TodayDetails(ctx context.Context, now time.Time) ([]OrderDetail, error) {
	return e.DetailsFor(ctx, e.TargetDate(now))
}

func (e *Engine) DetailsFor(ctx context.Context, date models.Date) ([]OrderDetail, error) {
	rows := make([]OrderDetail, 0)
	if err := e.db.SelectContext(ctx, &rows, e.db.Rebind(detailsQuery), date); err != nil {
		return nil, e.storageErr("order details", err)
	}
	loc := e.policy.Location()
	for i := range rows {
		rows[i].CreatedAt = rows[i].CreatedAt.In(loc)
	}
	return rows, nil
}

// MonthlySales sums the price of every reserved dish per day of the month.
// A month without bookings yields an empty slice.
func (e *Engine) MonthlySales(ctx context.Context, year, month int) ([]DailySales, error) {
	if month < 1 || month > 12 {
		return nil, apperror.Validation("Valid month (1-12) required")
	}
	if year < 1 || year > 9999 {
		return nil, apperror.Validation("Valid year required")
	}

	first := models.NewDate(year, time.Month(month), 1)
	next := models.NewDate(year, time.Month(month)+1, 1)

	rows := make([]DailySales, 0)
	if err := e.db.SelectContext(ctx, &rows, e.db.Rebind(salesQuery), first, next); err != nil {
		return nil, e.storageErr("sales history", err)
	}
	return rows, nil
}

func (e *Engine) storageErr(op string, err error) error {
	e.log.Error().Err(err).Str("op", op).Msg("report query failed")
	return apperror.Storage(op, err)
}
