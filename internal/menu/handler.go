package menu

import (
	"fmt"

	"mess-backend/internal/audit"
	"mess-backend/internal/auth"
	"mess-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type CreateMenuItemRequest struct {
	Name          string           `json:"name"`
	Price         *decimal.Decimal `json:"price"`
	DateAvailable string           `json:"date_available"`
}

type MenuItemResponse struct {
	ID            uint            `json:"id"`
	Name          string          `json:"name"`
	Price         decimal.Decimal `json:"price"`
	DateAvailable models.Date     `json:"date_available"`
}

func toResponse(item models.MenuItem) MenuItemResponse {
	return MenuItemResponse{
		ID:            item.ID,
		Name:          item.Name,
		Price:         item.Price,
		DateAvailable: item.DateAvailable,
	}
}

// GET /api/student/menu?date=2024-06-10
// GET /api/admin/menu?date=2024-06-10
func ListMenuHandler(cat *Catalog) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := c.Query("date")
		if raw == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Date parameter is required")
		}
		date, err := models.ParseDate(raw)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid date format")
		}

		items, err := cat.ItemsFor(c.UserContext(), date)
		if err != nil {
			return err
		}

		resp := make([]MenuItemResponse, 0, len(items))
		for _, it := range items {
			resp = append(resp, toResponse(it))
		}
		return c.JSON(resp)
	}
}

// POST /api/admin/addItem
func CreateMenuItemHandler(cat *Catalog, rec *audit.Recorder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := auth.IdentityFrom(c)
		if err != nil {
			return err
		}

		var body CreateMenuItemRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if body.Name == "" || body.Price == nil || body.DateAvailable == "" {
			return fiber.NewError(fiber.StatusBadRequest, "All fields are required")
		}
		date, err := models.ParseDate(body.DateAvailable)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid date format")
		}

		item, err := cat.Publish(c.UserContext(), body.Name, *body.Price, date)
		if err != nil {
			return err
		}

		rec.Record(c.UserContext(), audit.LogOptions{
			UserID:      id.UserID,
			EntityType:  "menu_item",
			EntityID:    item.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Published %s for %s", item.Name, item.DateAvailable),
			After:       item,
		})

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"message": "Food item added successfully",
			"item":    toResponse(*item),
		})
	}
}
