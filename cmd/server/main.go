package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"paper-registry/internal/config"
	"paper-registry/internal/handler"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found or could not be loaded: %v", err)
	}
	// Wiring
	container, err := config.NewContainer()
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	cfg := container.Config

	// Handlers
	validationHandler := handler.NewValidationHandler(
		container.Inspector,
		container.Workflow,
		container.Registry,
		cfg.GetMaxFileSize(),
		container.Logger,
	)

	previewHandler := handler.NewPreviewHandler(
		container.Inspector,
		container.Previews,
		cfg.GetMaxFileSize(),
		container.Logger,
	)

	authMiddleware := handler.NewAuthMiddleware(container.Auth, container.Logger)
	rateLimiter := handler.NewRateLimiter(cfg.GetValidationRatePerMinute(), container.Logger)

	// Router
	router := handler.NewRouter(handler.RouterConfig{
		Validation:     validationHandler,
		Preview:        previewHandler,
		Auth:           authMiddleware.Middleware,
		RateLimit:      rateLimiter.Middleware,
		Network:        container.Registry.Network(),
		AllowedOrigins: cfg.GetAllowedOrigins(),
	})

	// start server
	server := &http.Server{
		Addr:              ":" + cfg.GetServerPort(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Run server
	go func() {
		container.Logger.Info("Server listening", "address", server.Addr, "blockchain", container.Registry.Network())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			container.Logger.Error("Server failed to start", err)
			os.Exit(1)
		}
	}()
	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	container.Logger.Info("Shutting down server...")
	// Pending commits are given the ledger timeout to finish.
	ctx, cancel := context.WithTimeout(context.Background(), cfg.GetLedgerTimeout())
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		container.Logger.Error("Server shutdown failed", err)
	}
	if err := container.Close(); err != nil {
		container.Logger.Error("Failed to release resources", err)
	}

	container.Logger.Info("Server exited")
}
