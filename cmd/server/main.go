package main

import (
	"context"
	"flag"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/coursereg/internal/app"
	"github.com/shrimpsizemoose/coursereg/internal/handlers"
)

func main() {
	var configPath = flag.String("config", "config.toml", "Path to config file")
	flag.Parse()

	service, err := app.NewService(*configPath)
	if err != nil {
		logger.Error.Fatalf("Failed to load config: %v", err)
	}
	defer service.Close()

	if _, err := service.Views.Drift(context.Background()); err != nil {
		logger.Error.Printf("Failed to check counters: %v", err)
	}

	mux := http.NewServeMux()
	handlers.NewHandler(service).Register(mux)
	mux.Handle("/metrics", promhttp.Handler())

	logger.Info.Printf("Starting coursereg server on %s", service.Config.Server.Port)
	logger.Debug.Printf("Auth enabled: %v, policy: %+v", service.Auth.Enabled(), service.Engine.Policy())
	if err := http.ListenAndServe(service.Config.Server.Port, handlers.Instrument(mux)); err != nil {
		logger.Error.Fatalf("Coursereg server failed: %v", err)
	}
}
