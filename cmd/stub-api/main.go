package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/arvindpillai/shopline-checkout/internal/stubapi"
	"github.com/arvindpillai/shopline-checkout/pkg/config"
	"github.com/arvindpillai/shopline-checkout/pkg/logger"
	"github.com/arvindpillai/shopline-checkout/pkg/types"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "stub-api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "stub-api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	server := stubapi.New(logg)

	// A signed-in demo account with a saved default address.
	server.SeedAccount("demo-token", types.Profile{
		ID:       "demo-user",
		FullName: "Asha Rao",
		Email:    "asha@example.com",
		Phone:    "9876543210",
	}, []types.SavedAddress{
		{
			ID:        "addr-1",
			IsDefault: true,
			Address: types.Address{
				FullName: "Asha Rao",
				Phone:    "9876543210",
				Line1:    "14 MG Road",
				City:     "Bengaluru",
				State:    "Karnataka",
				Zip:      "560001",
				Country:  "India",
			},
		},
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting stub storefront api")

	httpServer := &http.Server{
		Addr:    addr,
		Handler: server.Handler(),
	}

	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "stub api stopped unexpectedly", err)
		os.Exit(1)
	}
}
