// @title        Auth System API
// @version      1.0
// @description  User registration, signin and role-gated access.
// @BasePath     /
//
// @securityDefinitions.apikey  AccessToken
// @in                          header
// @name                        x-access-token
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/99minutos/auth-system/internal/app"
	"github.com/99minutos/auth-system/internal/infrastructure/config"
	"github.com/99minutos/auth-system/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "auth-system",
	})
	log := logger.Get()

	application, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize application")
	}

	if err := application.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("application error")
	}
}
