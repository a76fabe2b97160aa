// Package main is the entry point for the Watchstore server.
// It loads configuration, connects to services, sets up routing, and starts
// the HTTP server with graceful shutdown support.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"watchstore/internal/cache"
	"watchstore/internal/catalog"
	"watchstore/internal/checkout"
	"watchstore/internal/config"
	"watchstore/internal/database"
	"watchstore/internal/handlers"
	"watchstore/internal/middleware"
	"watchstore/internal/render"
	"watchstore/internal/router"
	"watchstore/internal/session"
	"watchstore/internal/storage"
	"watchstore/internal/store"
)

// Login and registration attempts allowed per client IP and window.
const (
	authAttempts = 10
	authWindow   = time.Minute
)

func main() {
	// Load configuration from environment variables and .env.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Structured logger: text in development, JSON elsewhere.
	var logHandler slog.Handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	if cfg.IsDev() {
		logHandler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	slog.SetDefault(slog.New(logHandler))

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
	)

	// Connect to PostgreSQL.
	db, err := database.Connect(cfg.DSN())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Run pending migrations.
	if err := database.Migrate(db); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Seed the demo catalog and accounts (no-op if data already exists).
	if cfg.IsDev() {
		if err := database.Seed(db); err != nil {
			slog.Error("failed to seed database", "error", err)
			os.Exit(1)
		}
	}

	// Connect to Valkey (sessions + catalog cache).
	valkeyClient, err := cache.ConnectValkey(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
	if err != nil {
		slog.Error("failed to connect to valkey", "error", err)
		os.Exit(1)
	}
	defer valkeyClient.Close()

	// In non-development environments, cookies are Secure (HTTPS-only).
	secureCookies := !cfg.IsDev()
	sessionStore := session.NewStore(valkeyClient, secureCookies)

	// Data stores.
	userStore := store.NewUserStore(db)
	categoryStore := store.NewCategoryStore(db)
	productStore := store.NewProductStore(db)
	cartStore := store.NewCartStore(db)
	orderStore := store.NewOrderStore(db)

	// Domain services.
	catalogCache := cache.NewCatalogCache(valkeyClient, cfg.NavCacheTTL)
	catalogSvc := catalog.NewService(categoryStore, productStore, catalogCache, cfg.RelatedLimit)
	cartSvc := checkout.NewCartService(cartStore, productStore)
	orderSvc := checkout.NewOrderService(orderStore, cartStore)

	if err := catalogSvc.CheckTree(); err != nil {
		slog.Warn("category tree is inconsistent", "error", err)
	}

	// S3-compatible object storage (optional: the shop runs without
	// pictures, uploads are refused).
	var (
		imageStore  handlers.ImageStore
		imageURLs   render.ImageURLs
		mediaOrigin string
	)
	if cfg.HasStorage() {
		storageClient, err := storage.New(
			cfg.S3Endpoint, cfg.S3Region, cfg.S3AccessKey, cfg.S3SecretKey,
			cfg.S3Bucket, cfg.S3PublicURL,
		)
		if err != nil {
			slog.Error("failed to initialize S3 storage", "error", err)
			os.Exit(1)
		}
		images := storage.NewImages(storageClient)
		imageStore, imageURLs = images, images
		mediaOrigin = storageClient.Origin()
		slog.Info("s3 storage connected", "endpoint", cfg.S3Endpoint, "bucket", cfg.S3Bucket)
	} else {
		slog.Warn("s3 storage not configured, image uploads disabled")
	}

	renderer, err := render.New(imageURLs)
	if err != nil {
		slog.Error("failed to initialize template renderer", "error", err)
		os.Exit(1)
	}

	// Handler groups.
	shell := handlers.NewShell(renderer, catalogSvc, cartSvc)
	adminHandlers := handlers.NewAdmin(renderer, catalogSvc, orderSvc, userStore, imageStore)
	authHandlers := handlers.NewAuth(shell, sessionStore, userStore)
	publicHandlers := handlers.NewPublic(shell, cfg.CatalogPageSize)
	shopHandlers := handlers.NewShop(shell, orderSvc)

	authLimiter := middleware.NewRateLimiter(authAttempts, authWindow)
	defer authLimiter.Stop()

	r := router.New(router.Options{
		MediaOrigin:   mediaOrigin,
		SecureCookies: secureCookies,
		AuthLimiter:   authLimiter,
	}, sessionStore, adminHandlers, authHandlers, publicHandlers, shopHandlers)

	// WriteTimeout covers image uploads to object storage.
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start the server in a goroutine so we can listen for shutdown signals.
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown: wait for SIGINT or SIGTERM, then drain connections.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}
