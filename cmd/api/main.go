package main

import (
	"context"
	"log"

	"cadastro-api/config"
	"cadastro-api/internal/app"
	"cadastro-api/pkg/logger"
)

func main() {
	cfg := config.LoadConfig()

	l := logger.New(cfg.AppMode)
	logger.SetGlobalLogger(l)
	defer l.Sync()

	a := app.New(context.Background(), cfg, l)
	defer a.Close()

	if err := a.Server.Start(); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
