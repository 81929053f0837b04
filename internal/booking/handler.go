package booking

import (
	"fmt"
	"time"

	"mess-backend/internal/audit"
	"mess-backend/internal/auth"
	"mess-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type BookRequest struct {
	Date   string `json:"date"`
	ItemID uint   `json:"itemId"`
}

type ReservationResponse struct {
	ID             uint            `json:"id"`
	FoodItemID     uint            `json:"food_item_id"`
	FoodItem       string          `json:"food_item"`
	Price          decimal.Decimal `json:"price"`
	BookingForDate models.Date     `json:"booking_for_date"`
	CreatedAt      string          `json:"created_at"`
	CancelDeadline string          `json:"cancel_deadline"`
	Cancelable     bool            `json:"cancelable"`
}

func toResponse(r models.Reservation, l *Ledger, now time.Time) ReservationResponse {
	p := l.Policy()
	return ReservationResponse{
		ID:             r.ID,
		FoodItemID:     r.MenuItemID,
		FoodItem:       r.MenuItem.Name,
		Price:          r.MenuItem.Price,
		BookingForDate: r.BookingForDate,
		CreatedAt:      r.CreatedAt.In(p.Location()).Format(time.RFC3339),
		CancelDeadline: p.CloseTime(r.BookingForDate).Format(time.RFC3339),
		Cancelable:     p.IsCancelOpen(now, r.BookingForDate),
	}
}

// POST /api/student/book
func BookHandler(l *Ledger, rec *audit.Recorder, clock func() time.Time) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := auth.IdentityFrom(c)
		if err != nil {
			return err
		}

		var body BookRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if body.Date == "" || body.ItemID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Date and item ID are required")
		}
		date, err := models.ParseDate(body.Date)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid date format")
		}

		now := clock()
		res, err := l.Book(c.UserContext(), id.UserID, date, body.ItemID, now)
		if err != nil {
			return err
		}

		rec.Record(c.UserContext(), audit.LogOptions{
			UserID:      id.UserID,
			EntityType:  "reservation",
			EntityID:    res.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Booked %s for %s", res.MenuItem.Name, res.BookingForDate),
			After:       res,
		})

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"message":     "Booking successful",
			"reservation": toResponse(*res, l, now),
		})
	}
}

// POST /api/student/cancel/:id
func CancelHandler(l *Ledger, rec *audit.Recorder, clock func() time.Time) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := auth.IdentityFrom(c)
		if err != nil {
			return err
		}

		reservationID, err := c.ParamsInt("id")
		if err != nil || reservationID <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Order ID is required")
		}

		res, err := l.Cancel(c.UserContext(), id.UserID, uint(reservationID), clock())
		if err != nil {
			return err
		}

		rec.Record(c.UserContext(), audit.LogOptions{
			UserID:      id.UserID,
			EntityType:  "reservation",
			EntityID:    res.ID,
			Action:      models.AuditActionDelete,
			Description: fmt.Sprintf("Cancelled booking for %s", res.BookingForDate),
			Before:      res,
		})

		return c.JSON(fiber.Map{"message": "Booking cancelled successfully"})
	}
}

// GET /api/student/history
func HistoryHandler(l *Ledger, clock func() time.Time) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := auth.IdentityFrom(c)
		if err != nil {
			return err
		}

		list, err := l.ListMine(c.UserContext(), id.UserID)
		if err != nil {
			return err
		}
		return c.JSON(toResponses(list, l, clock()))
	}
}

// GET /api/student/myBookings
func CancelableHandler(l *Ledger, clock func() time.Time) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := auth.IdentityFrom(c)
		if err != nil {
			return err
		}

		now := clock()
		list, err := l.ListCancelable(c.UserContext(), id.UserID, now)
		if err != nil {
			return err
		}
		return c.JSON(toResponses(list, l, now))
	}
}

func toResponses(list []models.Reservation, l *Ledger, now time.Time) []ReservationResponse {
	resp := make([]ReservationResponse, 0, len(list))
	for _, r := range list {
		resp = append(resp, toResponse(r, l, now))
	}
	return resp
}
