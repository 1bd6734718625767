package main

import (
	"os"

	"github.com/noah-isme/toko-cart/internal/config"
	"github.com/noah-isme/toko-cart/internal/obs"
	"github.com/noah-isme/toko-cart/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	logger := obs.NewLogger(cfg.LogFormat, cfg.LogLevel).With().Str("component", "migrate").Logger()

	direction := "up"
	if len(os.Args) > 1 {
		direction = os.Args[1]
	}
	if cfg.DatabaseURL == "" {
		logger.Fatal().Msg("DATABASE_URL is required")
	}
	if err := store.Migrate(cfg.DatabaseURL, direction); err != nil {
		logger.Fatal().Err(err).Str("direction", direction).Msg("migrate cart schema")
	}
	logger.Info().Str("direction", direction).Msg("cart schema migrated")
}
