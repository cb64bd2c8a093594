package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fieldline/workdesk/internal/auth"
	"github.com/fieldline/workdesk/internal/config"
	"github.com/fieldline/workdesk/internal/email"
	httpserver "github.com/fieldline/workdesk/internal/interfaces/http"
	"github.com/fieldline/workdesk/internal/report"
	"github.com/fieldline/workdesk/internal/repository"
	"github.com/fieldline/workdesk/internal/scheduler"
	"github.com/fieldline/workdesk/internal/storage"
	"github.com/fieldline/workdesk/internal/worker"
	"github.com/fieldline/workdesk/migrations"
	"github.com/fieldline/workdesk/pkg/database"
	"github.com/fieldline/workdesk/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/subosito/gotenv"
	"go.uber.org/zap"
)

func main() {
	// Local overrides from .env, silently skipped when absent
	gotenv.Load()

	// Load configuration
	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting Workdesk dashboard server",
		zap.String("version", "1.0.0"),
		zap.Int("port", cfg.Server.Port))

	// Initialize database
	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	// Run migrations
	migrator := database.NewMigrator(db, logger)
	if err := migrator.RunMigrations(migrations.Files); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	// Create the document store directory
	if err := os.MkdirAll(cfg.Storage.UploadDir, 0755); err != nil {
		logger.Fatal("Failed to create upload directory", zap.Error(err))
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db.DB, logger)
	sessionRepo := repository.NewSessionRepository(db.DB, logger)
	workItemRepo := repository.NewWorkItemRepository(db.DB, logger)

	// Initialize authentication
	authService := auth.NewService(userRepo, sessionRepo, cfg.Auth.SessionTTL, logger)
	if err := authService.EnsureBootstrapAdmin(cfg.Auth.BootstrapEmail, cfg.Auth.BootstrapName, cfg.Auth.BootstrapPassword); err != nil {
		logger.Fatal("Failed to ensure bootstrap admin", zap.Error(err))
	}

	// Initialize document storage
	store := storage.NewLocalObjectStore(cfg.Storage.UploadDir, logger)
	intake := storage.NewIntake(store, logger)

	// Initialize email delivery. Without an SMTP host the dashboard still
	// runs; report emails fail with a clear error.
	var mailer report.Mailer
	if cfg.Email.Host != "" {
		sender, err := email.NewSender(email.Config{
			Host:     cfg.Email.Host,
			Port:     cfg.Email.Port,
			Username: cfg.Email.Username,
			Password: cfg.Email.Password,
			From:     cfg.Email.From,
		}, logger)
		if err != nil {
			logger.Fatal("Failed to initialize email sender", zap.Error(err))
		}
		mailer = sender
	} else {
		logger.Info("Email delivery disabled, no SMTP host configured")
	}

	// Initialize report engine
	generator := report.NewGenerator(logger)
	dispatcher := report.NewDispatcher(mailer, logger)

	// Initialize the report scheduler
	period, err := report.ParsePeriod(cfg.Scheduler.Period)
	if err != nil {
		logger.Fatal("Invalid scheduler period", zap.Error(err))
	}
	formats := make([]report.Format, 0, len(cfg.Scheduler.Formats))
	for _, raw := range cfg.Scheduler.Formats {
		format, err := report.ParseFormat(raw)
		if err != nil {
			logger.Fatal("Invalid scheduler format", zap.Error(err))
		}
		formats = append(formats, format)
	}
	sched := scheduler.New(scheduler.Config{
		Spec:          cfg.Scheduler.Cron,
		Period:        period,
		Recipient:     cfg.Scheduler.Recipient,
		Formats:       formats,
		IncludePrices: cfg.Scheduler.IncludePrices,
	}, workItemRepo, generator, dispatcher, sessionRepo, logger)

	manager := worker.NewManager(logger)
	manager.Register(sched)

	// Set Gin mode based on logger level
	if cfg.Logger.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	server := httpserver.NewServer(httpserver.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		UploadDir:    cfg.Storage.UploadDir,
	}, authService, workItemRepo, generator, dispatcher, intake, store, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := manager.StartAll(ctx); err != nil {
		logger.Fatal("Failed to start background workers", zap.Error(err))
	}

	// Shut down on interrupt
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		logger.Info("Shutting down server...")
		cancel()
	}()

	if err := server.Start(ctx); err != nil {
		logger.Error("HTTP server stopped", zap.Error(err))
	}

	manager.StopAll()
	logger.Info("Server exited successfully")
}
