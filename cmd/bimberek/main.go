// Package main is the entry point for the Bimberek storefront server.
// It loads configuration, connects to services, sets up routing, and
// starts the HTTP server with graceful shutdown support.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"bimberek/internal/cart"
	"bimberek/internal/config"
	"bimberek/internal/database"
	"bimberek/internal/handlers"
	"bimberek/internal/mail"
	"bimberek/internal/metrics"
	"bimberek/internal/oauth"
	"bimberek/internal/payment"
	"bimberek/internal/render"
	"bimberek/internal/router"
	"bimberek/internal/session"
	"bimberek/internal/storage"
	"bimberek/internal/store"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("configuration loaded", "env", cfg.Env, "addr", cfg.Addr())

	// Connect to PostgreSQL and run pending migrations.
	db, err := database.Connect(cfg.DSN())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Seed development data (no-op if data already exists).
	if cfg.IsDev() {
		if err := database.Seed(db); err != nil {
			slog.Error("failed to seed database", "error", err)
			os.Exit(1)
		}
	}

	// Connect to Valkey (sessions, carts, OAuth state).
	valkeyClient, err := session.Connect(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
	if err != nil {
		slog.Error("failed to connect to valkey", "error", err)
		os.Exit(1)
	}
	defer valkeyClient.Close()

	secureCookies := !cfg.IsDev()
	sessionStore := session.NewStore(valkeyClient, secureCookies)

	renderer, err := render.New(cfg.IsDev())
	if err != nil {
		slog.Error("failed to initialize template renderer", "error", err)
		os.Exit(1)
	}

	// Data stores.
	userStore := store.NewUserStore(db)
	productStore := store.NewProductStore(db)
	categoryStore := store.NewCategoryStore(db)
	orderStore := store.NewOrderStore(db)
	commentStore := store.NewCommentStore(db)
	postStore := store.NewPostStore(db)
	reportStore := store.NewReportStore(db)
	themeStore := store.NewThemeStore(db)
	sliderStore := store.NewSliderStore(db)
	mediaStore := store.NewMediaStore(db)

	// Prometheus metrics.
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// Session cart backed by Valkey, reconciled against the catalog.
	cartManager := cart.NewManager(valkeyClient, productStore, secureCookies)
	cartManager.OnLegacyUpgrade = collector.RecordCartUpgrade

	// S3-compatible object storage, optional. Uploads are disabled without it.
	var storageClient *storage.Client
	if cfg.S3Endpoint != "" && cfg.S3AccessKey != "" {
		storageClient, err = storage.New(
			cfg.S3Endpoint, cfg.S3Region, cfg.S3AccessKey, cfg.S3SecretKey,
			cfg.S3Bucket, cfg.S3PublicURL,
		)
		if err != nil {
			slog.Error("failed to initialize object storage", "error", err)
			os.Exit(1)
		}
		slog.Info("object storage connected", "endpoint", cfg.S3Endpoint, "bucket", cfg.S3Bucket)
	} else {
		slog.Warn("object storage not configured, media uploads disabled")
	}
	imageBase := ""
	if storageClient != nil {
		imageBase = storageClient.BaseURL()
	}

	// Stripe payment gateway (optional in development).
	var gateway payment.Gateway
	if cfg.StripeSecretKey != "" {
		gateway = payment.NewStripeGateway(
			cfg.StripeSecretKey, cfg.StripeWebhookSecret, cfg.BaseURL, cfg.Currency,
		)
		slog.Info("stripe gateway configured", "currency", cfg.Currency)
	} else {
		slog.Warn("stripe not configured, orders stay pending")
	}

	// OAuth providers; an empty client ID disables the provider.
	providers := make(map[string]*oauth.Provider)
	if cfg.GoogleClientID != "" {
		providers["google"] = oauth.NewGoogle(
			cfg.GoogleClientID, cfg.GoogleClientSecret,
			cfg.BaseURL+"/auth/google/callback",
		)
	}
	if cfg.FacebookClientID != "" {
		providers["facebook"] = oauth.NewFacebook(
			cfg.FacebookClientID, cfg.FacebookClientSecret,
			cfg.BaseURL+"/auth/facebook/callback",
		)
	}
	stateStore := oauth.NewStateStore(valkeyClient)

	// Order confirmation mail; logs instead of sending when SMTP is absent.
	var notifier mail.Notifier = mail.LogNotifier{}
	if cfg.SMTPHost != "" {
		port, err := strconv.Atoi(cfg.SMTPPort)
		if err != nil {
			slog.Error("invalid SMTP port", "port", cfg.SMTPPort)
			os.Exit(1)
		}
		notifier, err = mail.NewSMTPNotifier(
			cfg.SMTPHost, port, cfg.SMTPUser, cfg.SMTPPassword, cfg.MailFrom,
		)
		if err != nil {
			slog.Error("failed to initialize mail client", "error", err)
			os.Exit(1)
		}
		slog.Info("smtp mail configured", "host", cfg.SMTPHost)
	}

	// Handler groups.
	r := router.New(router.Deps{
		Sessions:   sessionStore,
		Collector:  collector,
		Gatherer:   metrics.Handler(registry),
		Secure:     secureCookies,
		Auth:       handlers.NewAuth(renderer, sessionStore, userStore),
		OAuth:      handlers.NewOAuth(sessionStore, userStore, stateStore, providers),
		Shop:       handlers.NewShop(renderer, productStore, categoryStore, sliderStore, commentStore, themeStore, imageBase),
		Cart:       handlers.NewCart(renderer, cartManager, productStore, themeStore),
		Checkout:   handlers.NewCheckout(renderer, cartManager, orderStore, themeStore, gateway, collector),
		Blog:       handlers.NewBlog(renderer, postStore, commentStore, themeStore),
		Comments:   handlers.NewComments(commentStore, postStore, productStore, reportStore),
		Profile:    handlers.NewProfile(renderer, sessionStore, userStore, themeStore, postStore),
		Moderation: handlers.NewModeration(renderer, commentStore, postStore, reportStore, themeStore),
		Admin:      handlers.NewAdmin(renderer, productStore, categoryStore, orderStore, userStore, themeStore, sliderStore, mediaStore, commentStore, postStore, storageClient),
		Webhook:    handlers.NewWebhook(gateway, orderStore, userStore, notifier, collector),
	})

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown: wait for SIGINT or SIGTERM, then drain.
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
