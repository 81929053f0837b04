package report

import (
	"time"

	"mess-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

// reportDate is the optional ?date= override, else the engine's target date.
func reportDate(c *fiber.Ctx, e *Engine, now time.Time) (models.Date, error) {
	raw := c.Query("date")
	if raw == "" {
		return e.TargetDate(now), nil
	}
	d, err := models.ParseDate(raw)
	if err != nil {
		return models.Date{}, fiber.NewError(fiber.StatusBadRequest, "Invalid date format")
	}
	return d, nil
}

// GET /api/admin/todaySummary
func TodaySummaryHandler(e *Engine, clock func() time.Time) fiber.Handler {
	return func(c *fiber.Ctx) error {
		date, err := reportDate(c, e, clock())
		if err != nil {
			return err
		}
		rows, err := e.SummaryFor(c.UserContext(), date)
		if err != nil {
			return err
		}
		return c.JSON(rows)
	}
}

// GET /api/admin/todayDetails
func TodayDetailsHandler(e *Engine, clock func() time.Time) fiber.Handler {
	return func(c *fiber.Ctx) error {
		date, err := reportDate(c, e, clock())
		if err != nil {
			return err
		}
		rows, err := e.DetailsFor(c.UserContext(), date)
		if err != nil {
			return err
		}
		return c.JSON(rows)
	}
}

// GET /api/admin/salesHistory?month=12&year=2024
// Year defaults to the current year.
func SalesHistoryHandler(e *Engine, clock func() time.Time) fiber.Handler {
	return func(c *fiber.Ctx) error {
		month := c.QueryInt("month", 0)
		if month < 1 || month > 12 {
			return fiber.NewError(fiber.StatusBadRequest, "Valid month (1-12) required")
		}
		year := c.QueryInt("year", e.TargetDate(clock()).Year())

		rows, err := e.MonthlySales(c.UserContext(), year, month)
		if err != nil {
			return err
		}
		return c.JSON(rows)
	}
}
