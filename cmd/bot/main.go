package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"contentgpt/internal/config"
	"contentgpt/internal/fsm"
	"contentgpt/internal/handler"
	"contentgpt/internal/middleware"
	"contentgpt/internal/provider/yandexgpt"
	"contentgpt/internal/provider/yookassa"
	sqliterepo "contentgpt/internal/repository/sqlite"
	"contentgpt/internal/service"
	"contentgpt/internal/webhook"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

func main() {
	// Initialize logger
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting ContentGPT Bot")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	logger.Info("Configuration loaded successfully")

	// Open database
	db, err := sqliterepo.Open(cfg.DatabasePath)
	if err != nil {
		logger.Fatal("Failed to open database", zap.Error(err))
	}
	defer db.Close()

	logger.Info("Database opened", zap.String("path", cfg.DatabasePath))

	// Run migrations
	if err := runMigrations(db, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	logger.Info("Database migrations completed")

	// Initialize repositories
	userRepo := sqliterepo.NewUserRepo(db)
	quotaRepo := sqliterepo.NewQuotaRepo(db)
	paymentRepo := sqliterepo.NewPaymentRepo(db)
	contentRepo := sqliterepo.NewContentRepo(db)

	// Initialize Telegram bot
	bot, err := tele.NewBot(tele.Settings{
		Token:  cfg.BotToken,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	})
	if err != nil {
		logger.Fatal("Failed to create bot", zap.Error(err))
	}

	logger.Info("Telegram bot initialized")

	// Initialize providers
	gptClient := yandexgpt.NewClient(cfg.YandexGPT.APIKey, cfg.YandexGPT.FolderID, cfg.RequestTimeout, logger)

	var (
		card     service.CardProvider
		verifier webhook.Verifier
	)
	if cfg.YooKassa.Enabled() {
		ykClient := yookassa.NewClient(cfg.YooKassa.ShopID, cfg.YooKassa.SecretKey,
			cfg.YooKassa.WebhookSecret, cfg.RequestTimeout, logger)
		card = cardProviderAdapter{ykClient}
		verifier = ykClient
		logger.Info("YooKassa payments enabled")
	} else {
		logger.Info("YooKassa payments disabled: no credentials")
	}

	// Initialize services
	notifier := handler.NewBotNotifier(bot, logger)
	quotaService := service.NewQuotaService(userRepo, quotaRepo, cfg.AdminID, sqliterepo.IsTransient, logger)
	paymentService := service.NewPaymentService(paymentRepo, userRepo, card, notifier, sqliterepo.IsTransient, logger)
	generationService := service.NewGenerationService(quotaService, userRepo, contentRepo, gptClient, sqliterepo.IsTransient, logger)
	maintenanceService := service.NewMaintenanceService(contentRepo, paymentService, logger)

	// Conversation sessions
	sessions := fsm.NewEngine(fsm.DefaultTTL)

	// Initialize handler
	bot.Use(middleware.EnsureUser(userRepo, logger))
	h := handler.NewHandler(bot, quotaService, generationService, paymentService,
		maintenanceService, sessions, cfg.AdminID, cfg.RequestTimeout, logger)
	h.RegisterHandlers()

	logger.Info("Handlers registered")

	// Start background jobs
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go runMaintenanceJob(ctx, maintenanceService, logger)
	go runSessionJanitor(ctx, sessions, logger)

	// Start webhook server in background
	srv := webhook.NewServer(cfg.HTTPPort, paymentService, verifier, logger)
	go func() {
		if err := srv.Start(); err != nil {
			logger.Error("Webhook server failed", zap.Error(err))
		}
	}()

	// Start bot in background
	go func() {
		logger.Info("Bot started successfully")
		bot.Start()
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan

	logger.Info("Shutdown signal received, stopping bot...")

	// Graceful shutdown
	bot.Stop()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		logger.Error("Webhook server shutdown failed", zap.Error(err))
	}
	cancel()

	logger.Info("Bot stopped gracefully")
}

// cardProviderAdapter narrows the YooKassa client to the service interface
type cardProviderAdapter struct {
	*yookassa.Client
}

func (a cardProviderAdapter) CreatePayment(ctx context.Context, value float64, currency, description, orderID string) (*service.CreatedPayment, error) {
	created, err := a.Client.CreatePayment(ctx, value, currency, description, orderID)
	if err != nil {
		return nil, err
	}
	return &service.CreatedPayment{
		ExternalID:      created.ExternalID,
		ConfirmationURL: created.ConfirmationURL,
	}, nil
}

// runMigrations runs database migrations
func runMigrations(db *sql.DB, logger *zap.Logger) error {
	driver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"sqlite",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// runMaintenanceJob runs periodic cleanup of old data
func runMaintenanceJob(ctx context.Context, maintenance *service.MaintenanceService, logger *zap.Logger) {
	// Run once at startup
	if err := maintenance.RunOnce(ctx); err != nil {
		logger.Error("Failed to run initial maintenance", zap.Error(err))
	}

	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Maintenance job stopped")
			return
		case <-ticker.C:
			logger.Info("Running scheduled maintenance")
			if err := maintenance.RunOnce(ctx); err != nil {
				logger.Error("Failed to run scheduled maintenance", zap.Error(err))
			}
		}
	}
}

// runSessionJanitor drops conversation sessions idle past the TTL
func runSessionJanitor(ctx context.Context, sessions *fsm.Engine, logger *zap.Logger) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Session janitor stopped")
			return
		case <-ticker.C:
			if removed := sessions.SweepExpired(); removed > 0 {
				logger.Debug("Swept expired sessions", zap.Int("count", removed))
			}
		}
	}
}
