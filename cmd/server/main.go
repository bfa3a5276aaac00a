package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dkovalov/taskhub/internal/api"
	"github.com/dkovalov/taskhub/internal/app"
	iauth "github.com/dkovalov/taskhub/internal/auth"
	"github.com/dkovalov/taskhub/internal/database"
	"github.com/dkovalov/taskhub/internal/permissions"
	"github.com/dkovalov/taskhub/internal/services"
	"github.com/dkovalov/taskhub/internal/storage"
	"github.com/dkovalov/taskhub/pkg/logger"
	"github.com/dkovalov/taskhub/pkg/mail"
)

const shutdownTimeout = 15 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("taskhub-server", flag.ContinueOnError)
	fs.SetOutput(os.Stdout)

	var configPath string
	fs.StringVar(&configPath, "config", "", "Path to configuration directory or file")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadApplicationConfig(configPath)
	if err != nil {
		return err
	}

	if err := app.ConfigureLogging(cfg.Server.LogLevel); err != nil {
		return fmt.Errorf("configure logging: %w", err)
	}
	defer logger.Sync() // best effort

	log := logger.WithModule("bootstrap")

	if err := ensureSecretsPresent(cfg); err != nil {
		return err
	}

	db, err := initialiseDatabase(cfg)
	if err != nil {
		return err
	}
	defer closeDatabase(db, log)

	jwtService, err := iauth.NewJWTService(iauth.JWTConfig{
		Secret:         cfg.Auth.JWT.Secret,
		Issuer:         cfg.Auth.JWT.Issuer,
		AccessTokenTTL: cfg.Auth.JWT.TTL,
	})
	if err != nil {
		return fmt.Errorf("initialise jwt service: %w", err)
	}

	var mailer mail.Mailer
	if cfg.Email.SMTP.Enabled {
		mailer, err = mail.NewSMTPMailer(cfg.Email.SMTPSettings())
		if err != nil {
			return fmt.Errorf("initialise mailer: %w", err)
		}
		log.Info("smtp mailer configured", zap.String("host", cfg.Email.SMTP.Host))
	} else {
		log.Info("smtp disabled; outbound email is a no-op")
	}

	fileStore, err := storage.NewS3Store(ctx, cfg.Storage.StoreConfig())
	if err != nil {
		return fmt.Errorf("initialise object store: %w", err)
	}
	log.Info("object store configured", zap.String("bucket", cfg.Storage.S3.Bucket))

	deps, reminder, err := buildServices(db, mailer, fileStore, cfg)
	if err != nil {
		return err
	}
	deps.JWT = jwtService

	if reminder != nil {
		if err := reminder.Start(); err != nil {
			return fmt.Errorf("start reminder scheduler: %w", err)
		}
		defer reminder.Stop()
	}

	router, err := api.NewRouter(deps)
	if err != nil {
		return fmt.Errorf("build api router: %w", err)
	}

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("graceful shutdown: %w", err)
	}

	if err, ok := <-serverErr; ok && err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	log.Info("server stopped gracefully")
	return nil
}

func buildServices(db *gorm.DB, mailer mail.Mailer, fileStore storage.FileStore, cfg *app.Config) (api.Dependencies, *services.ReminderService, error) {
	deps := api.Dependencies{DB: db, Config: cfg}

	validator, err := permissions.NewValidator(db)
	if err != nil {
		return deps, nil, fmt.Errorf("initialise permission validator: %w", err)
	}

	activity, err := services.NewActivityService(db)
	if err != nil {
		return deps, nil, fmt.Errorf("initialise activity service: %w", err)
	}
	deps.Activity = activity

	notifications := services.NewNotificationService(mailer)

	verification, err := services.NewVerificationService(db)
	if err != nil {
		return deps, nil, fmt.Errorf("initialise verification service: %w", err)
	}

	deps.Users, err = services.NewUserService(db, verification, notifications, activity)
	if err != nil {
		return deps, nil, fmt.Errorf("initialise user service: %w", err)
	}

	deps.Projects, err = services.NewProjectService(db, validator, activity)
	if err != nil {
		return deps, nil, fmt.Errorf("initialise project service: %w", err)
	}

	deps.Tasks, err = services.NewTaskService(db, validator, notifications, activity)
	if err != nil {
		return deps, nil, fmt.Errorf("initialise task service: %w", err)
	}

	deps.Comments, err = services.NewCommentService(db, validator, activity)
	if err != nil {
		return deps, nil, fmt.Errorf("initialise comment service: %w", err)
	}

	deps.Labels, err = services.NewLabelService(db, activity)
	if err != nil {
		return deps, nil, fmt.Errorf("initialise label service: %w", err)
	}

	deps.Attachments, err = services.NewAttachmentService(db, validator, fileStore, activity)
	if err != nil {
		return deps, nil, fmt.Errorf("initialise attachment service: %w", err)
	}

	var reminder *services.ReminderService
	if cfg.Reminders.Enabled {
		reminder, err = services.NewReminderService(deps.Tasks, notifications,
			services.WithReminderSchedule(cfg.Reminders.Schedule))
		if err != nil {
			return deps, nil, fmt.Errorf("initialise reminder service: %w", err)
		}
	}

	return deps, reminder, nil
}

func loadApplicationConfig(path string) (*app.Config, error) {
	switch {
	case strings.TrimSpace(path) == "":
		return app.LoadConfig()
	default:
		info, err := os.Stat(path)
		if err == nil {
			if info.IsDir() {
				return app.LoadConfig(path)
			}
			return app.LoadConfig(filepath.Dir(path))
		}
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config path %q does not exist", path)
		}
		return nil, fmt.Errorf("stat config path: %w", err)
	}
}

func ensureSecretsPresent(cfg *app.Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Auth.JWT.Secret = strings.TrimSpace(cfg.Auth.JWT.Secret)
	if cfg.Auth.JWT.Secret == "" {
		return errors.New("auth.jwt.secret must be configured")
	}

	return nil
}

func initialiseDatabase(cfg *app.Config) (*gorm.DB, error) {
	dbCfg := cfg.Database.Connection()
	db, err := database.Open(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	seed := database.AdminSeed{
		Email:    cfg.Admin.Email,
		Username: cfg.Admin.Username,
		Password: cfg.Admin.Password,
	}
	if err := database.AutoMigrateAndSeed(db, seed); err != nil {
		return nil, fmt.Errorf("auto-migrate database: %w", err)
	}

	log := logger.WithModule("database")
	log.Info("database connected", zap.String("driver", strings.ToLower(strings.TrimSpace(dbCfg.Driver))))

	return db, nil
}

func closeDatabase(db *gorm.DB, log *zap.Logger) {
	if db == nil {
		return
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Warn("failed to obtain underlying sql DB for closing", zap.Error(err))
		return
	}

	if err := sqlDB.Close(); err != nil {
		log.Warn("failed to close database", zap.Error(err))
	}
}
