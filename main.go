package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"undervalued-homes/config"
	"undervalued-homes/report"
	"undervalued-homes/scraper/redfin"
	"undervalued-homes/server"
	"undervalued-homes/services"
	"undervalued-homes/storage"
	"undervalued-homes/utils"
)

func main() {
	cfg := config.Load()
	logger := utils.NewLoggerWithLevel(cfg.LogLevel)

	logger.Info("=== Undervalued Homes service starting ===")
	logger.Info("Config — port: %s | renderer: %s | percentile: %.0f | fetch timeout: %v",
		cfg.AppPort, cfg.PDFRenderer, cfg.QuartilePercent, cfg.FetchTimeout)

	store, err := storage.NewFileStore(cfg.ArtifactDir)
	if err != nil {
		logger.Error("Failed to prepare artifact store: %v", err)
		os.Exit(1)
	}

	var pdf report.PDFRenderer
	switch cfg.PDFRenderer {
	case "chrome":
		pdf = report.NewChromeRenderer(cfg.ChromeBin, 60*time.Second, logger)
	case "fpdf":
		pdf = report.NewFPDFRenderer(logger)
	default:
		logger.Warn("Unknown PDF_RENDERER %q, using fpdf", cfg.PDFRenderer)
		pdf = report.NewFPDFRenderer(logger)
	}

	reports := services.NewReportService(cfg,
		redfin.New(cfg, logger),
		report.NewRenderer(pdf, logger),
		store,
		logger,
	)

	sink, err := storage.NewDebugSink(cfg.DebugDumpDir, os.Stdout)
	if err != nil {
		logger.Error("Failed to prepare debug dumps: %v", err)
		os.Exit(1)
	}
	if sink != nil {
		reports.WithDebugSink(sink)
		logger.Info("Debug dumps enabled → %s", cfg.DebugDumpDir)
	}

	h := server.NewHandlers(reports, store, logger)
	srv := server.New(cfg, server.NewRouter(h, cfg, logger))

	go func() {
		logger.Info("Server listening on :%s", cfg.AppPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed: %v", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown: %v", err)
		os.Exit(1)
	}

	logger.Info("Server exited")
}
