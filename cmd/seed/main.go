package main

import (
	"context"
	"flag"

	"mess-backend/internal/config"
	"mess-backend/internal/database"
	"mess-backend/internal/menu"
	"mess-backend/internal/observability"
	"mess-backend/internal/seed"

	"github.com/rs/zerolog/log"
)

func main() {
	path := flag.String("file", "seed.toml", "TOML file with [[users]] and [[menu]] tables")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	logger := observability.NewLogger("mess-seed", cfg.LogLevel, cfg.IsDevelopment())

	f, err := seed.LoadFile(*path)
	if err != nil {
		logger.Fatal().Err(err).Msg("read seed file")
	}

	db, err := database.Open(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("open database")
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	res, err := seed.NewSeeder(db, menu.NewCatalog(db, logger), logger).Apply(context.Background(), f)
	if err != nil {
		logger.Fatal().Err(err).Msg("apply seed")
	}
	logger.Info().Interface("result", res).Msg("done")
}
