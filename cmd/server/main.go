package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mess-backend/internal/audit"
	"mess-backend/internal/booking"
	"mess-backend/internal/config"
	"mess-backend/internal/database"
	"mess-backend/internal/menu"
	"mess-backend/internal/observability"
	"mess-backend/internal/report"
	"mess-backend/internal/server"
	"mess-backend/internal/window"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}

	logger := observability.NewLogger("mess-backend", cfg.LogLevel, cfg.IsDevelopment())
	if cfg.UsesDefaultDSN() {
		logger.Warn().Msg("DATABASE_DSN not set, using the local development database")
	}

	db, err := database.Open(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("open database")
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal().Err(err).Msg("database handle")
	}
	defer sqlDB.Close()

	policy := window.New(cfg.Location())
	catalog := menu.NewCatalog(db, logger)

	app := server.New(server.Deps{
		DB:                db,
		Catalog:           catalog,
		Ledger:            booking.NewLedger(db, catalog, policy, logger),
		Reports:           report.NewEngine(sqlx.NewDb(sqlDB, database.DriverName(db)), policy, logger),
		Audit:             audit.NewRecorder(db, logger),
		Log:               logger,
		JWTSecret:         cfg.JWTSecret,
		TokenTTL:          cfg.TokenTTL,
		CORSOrigins:       cfg.CORSOriginList(),
		ExposeErrorDetail: cfg.IsDevelopment(),
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		logger.Info().Msg("shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			logger.Error().Err(err).Msg("shutdown")
		}
	}()

	logger.Info().
		Str("port", cfg.HTTPPort).
		Str("timezone", cfg.Location().String()).
		Msg("server listening")
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		logger.Fatal().Err(err).Msg("listen")
	}
}
