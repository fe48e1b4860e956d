package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"docvault/internal/config"
	"docvault/internal/handler"
	"docvault/internal/middleware"
	"docvault/internal/repository"
	serviceDocsys "docvault/internal/service/docsystem"
	"docvault/internal/service/docsystem/converter"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	cfg := config.Load()

	logger, logCloser, err := config.NewLogger(cfg, "server")
	if err != nil {
		log.Fatalf("Failed to setup logging: %v", err)
	}
	defer logCloser.Close()
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"store_driver", cfg.StoreDriver,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stores, err := repository.Open(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer stores.Close()

	// Create document services
	contentAnalyzer := serviceDocsys.NewContentAnalyzer()
	nodeService := serviceDocsys.NewNodeService(stores.Collections, stores.Nodes, stores.TxManager, logger)
	collectionService := serviceDocsys.NewCollectionService(stores.Collections, stores.Nodes, logger)
	importService := serviceDocsys.NewImportService(
		stores.Collections,
		stores.Nodes,
		converter.NewConverterRegistry(),
		serviceDocsys.NewFileProcessorRegistry(cfg.MaxImportBytes),
		contentAnalyzer,
		cfg.ImportWorkers,
		logger,
	)
	editingService := serviceDocsys.NewEditingService(nodeService, contentAnalyzer, cfg.AutosaveDelay, cfg.SaveTimeout, logger)

	var pinger handler.Pinger
	if stores.Ping != nil {
		pinger = handler.PingFunc(stores.Ping)
	}
	handlers := &handler.Handlers{
		Health:     handler.NewHealthHandler(pinger, stores.Driver),
		Nodes:      handler.NewNodeHandler(nodeService, logger),
		Editing:    handler.NewEditingHandler(editingService, logger),
		Collection: handler.NewCollectionHandler(collectionService, logger),
		Import:     handler.NewImportHandler(importService, cfg.MaxImportBytes, logger),
	}

	logger.Info("services initialized")

	mux := http.NewServeMux()
	handlers.Register(mux)

	// Order: CORS → Recovery → Routes
	var h http.Handler = mux
	h = middleware.Recovery(logger)(h)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept"},
		AllowCredentials: true,
	})
	h = corsHandler.Handler(h)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", "port", cfg.Port)
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.SaveTimeout+5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown failed", "error", err)
	}
	// Open editing sessions are flushed after the last request has finished
	if err := editingService.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to flush editing sessions", "error", err)
	}
	logger.Info("server stopped")
}
