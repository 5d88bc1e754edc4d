package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/coursereg/internal/app"
	"github.com/shrimpsizemoose/coursereg/internal/export"
)

func main() {
	var configPath = flag.String("config", "config.toml", "Path to config file")
	flag.Parse()

	service, err := app.NewLocalService(*configPath)
	if err != nil {
		logger.Error.Fatalf("Failed to load config: %v", err)
	}
	defer service.Close()

	exporter := export.NewWorkbookExporter(service.Config.Export.Dir, service.Store)
	if err := exporter.Schedule(service.Config.Export.Schedule); err != nil {
		logger.Error.Fatalf("Failed to initialize workbook exporter: %v", err)
	}
	defer exporter.Stop()

	logger.Info.Printf("Exporting to %s on %q", service.Config.Export.Dir, service.Config.Export.Schedule)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info.Println("Exporter stopped")
}
