package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"

	"eventlottery/config"
	"eventlottery/internal/adapters/email"
	"eventlottery/internal/domain"
	"eventlottery/internal/repository/memory"
	"eventlottery/internal/repository/postgres"
	"eventlottery/internal/services"
)

// App is the wired lottery core shared by every command.
type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	Store    domain.Store
	DB       *sql.DB
	Notifier *email.Notifier

	Events       domain.EventService
	Waitlist     domain.WaitlistStore
	Engine       domain.LotteryEngine
	Replacements domain.ReplacementCoordinator
	Invitations  domain.InvitationManager
	Ledger       domain.RegistrationLedger
}

// NewApp opens the configured store and builds the services on top of it.
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	app := &App{Config: cfg, Logger: logger}

	switch cfg.Store {
	case config.StoreMemory:
		logger.Warn("using in-memory store; records are lost on exit")
		app.Store = memory.NewStore()
	default:
		db, err := openDB(ctx, cfg.DBUrl)
		if err != nil {
			return nil, err
		}
		app.DB = db
		app.Store = postgres.NewStore(db)
	}

	mailer, err := email.NewMailer(email.MailerConfig{
		Provider:    cfg.Email.Provider,
		FromAddress: cfg.Email.FromAddress,
		FromName:    cfg.Email.FromName,
		SES: email.SESConfig{
			Region:             cfg.Email.AWSRegion,
			AccessKeyID:        cfg.Email.AWSAccessKeyID,
			SecretAccessKey:    cfg.Email.AWSSecretAccessKey,
			InsecureSkipVerify: cfg.Email.InsecureSkipVerify,
		},
	}, logger)
	if err != nil {
		app.closeDB()
		return nil, fmt.Errorf("create mailer: %w", err)
	}
	renderer, err := email.NewTemplateRenderer()
	if err != nil {
		app.closeDB()
		return nil, fmt.Errorf("load email templates: %w", err)
	}
	app.Notifier = email.NewNotifier(mailer, renderer, app.Store.Profiles(), email.NotifierConfig{
		Workers:   cfg.Notify.Workers,
		QueueSize: cfg.Notify.QueueSize,
	}, logger)

	retry := services.RetryPolicy{
		MaxAttempts:     cfg.Retry.MaxAttempts,
		InitialInterval: cfg.Retry.InitialInterval,
		MaxInterval:     cfg.Retry.MaxInterval,
	}
	policy := services.ReplacementPolicy{
		OnDecline:    cfg.Lottery.AutoReplaceOnDecline,
		OnCancel:     cfg.Lottery.AutoReplaceOnCancel,
		OnBulkCancel: cfg.Lottery.AutoReplaceOnBulkCancel,
	}
	rng := services.NewRandSource(cfg.Lottery.Seed)

	app.Events = services.NewEventService(app.Store, retry, cfg.ContextTimeout)
	app.Waitlist = services.NewWaitlistStore(app.Store, retry, logger)
	app.Engine = services.NewLotteryEngine(app.Store, rng, app.Notifier, retry, logger)
	app.Replacements = services.NewReplacementCoordinator(app.Store, rng, app.Notifier, retry, logger)
	app.Invitations = services.NewInvitationManager(app.Store, app.Replacements, app.Notifier, policy, retry, logger)
	app.Ledger = services.NewRegistrationLedger(app.Store, app.Replacements, app.Notifier, policy, retry, logger)
	return app, nil
}

// Close drains queued notifications and releases the database.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.Notifier != nil {
		if err := a.Notifier.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("drain notifications: %w", err))
		}
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
	}
	return errors.Join(errs...)
}

func (a *App) closeDB() {
	if a.DB != nil {
		_ = a.DB.Close()
	}
}

func openDB(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}
