package server

import (
	"strings"
	"time"

	"mess-backend/internal/audit"
	"mess-backend/internal/auth"
	"mess-backend/internal/booking"
	"mess-backend/internal/menu"
	"mess-backend/internal/models"
	"mess-backend/internal/observability"
	"mess-backend/internal/report"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

type Deps struct {
	DB      *gorm.DB
	Catalog *menu.Catalog
	Ledger  *booking.Ledger
	Reports *report.Engine
	Audit   *audit.Recorder
	Log     zerolog.Logger

	JWTSecret   string
	TokenTTL    time.Duration
	CORSOrigins []string
	// ExposeErrorDetail adds storage diagnostics to 5xx bodies. Development only.
	ExposeErrorDetail bool
	// Now drives the booking windows and "today" reports; tests pin it.
	Now func() time.Time
}

func New(d Deps) *fiber.App {
	clock := d.Now
	if clock == nil {
		clock = time.Now
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: errorHandler(d.Log, d.ExposeErrorDetail),
	})

	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(observability.RequestLogger(d.Log))
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(d.CORSOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,OPTIONS",
	}))

	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("Mess Management Server is running!")
	})
	observability.RegisterMetrics()
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api")

	// Public auth. Token lifetimes follow the wall clock the JWT parser uses.
	api.Post("/auth/login", auth.LoginHandler(d.DB, auth.LoginOptions{
		Secret:   d.JWTSecret,
		TokenTTL: d.TokenTTL,
		Now:      time.Now,
	}))

	// Protected
	protected := api.Group("", auth.JWTMiddleware(d.JWTSecret))
	protected.Get("/auth/me", auth.MeHandler())

	// Students
	student := protected.Group("/student")
	student.Get("/menu", menu.ListMenuHandler(d.Catalog))
	owner := student.Group("", auth.RequireRole(models.RoleStudent))
	owner.Post("/book", booking.BookHandler(d.Ledger, d.Audit, clock))
	owner.Post("/cancel/:id", booking.CancelHandler(d.Ledger, d.Audit, clock))
	owner.Get("/history", booking.HistoryHandler(d.Ledger, clock))
	owner.Get("/myBookings", booking.CancelableHandler(d.Ledger, clock))

	// Staff
	admin := protected.Group("/admin", auth.RequireRole(models.RoleAdmin))
	admin.Post("/addItem", menu.CreateMenuItemHandler(d.Catalog, d.Audit))
	admin.Get("/menu", menu.ListMenuHandler(d.Catalog))
	admin.Get("/todaySummary", report.TodaySummaryHandler(d.Reports, clock))
	admin.Get("/todayDetails", report.TodayDetailsHandler(d.Reports, clock))
	admin.Get("/salesHistory", report.SalesHistoryHandler(d.Reports, clock))
	admin.Get("/auditLogs", audit.ListAuditLogsHandler(d.Audit))

	return app
}
