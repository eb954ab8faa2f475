package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/teamspaceapp/teamspace/internal/workspace/delivery"
	"github.com/teamspaceapp/teamspace/internal/workspace/email"
	httpapi "github.com/teamspaceapp/teamspace/internal/workspace/http"
	"github.com/teamspaceapp/teamspace/internal/workspace/service"
	"github.com/teamspaceapp/teamspace/internal/workspace/store"
	"github.com/teamspaceapp/teamspace/internal/workspace/store/drivers/sqlite"
	"github.com/teamspaceapp/teamspace/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application encapsulates the workspace service with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db     store.Store
	queue  delivery.Queue
	sender email.Sender

	// Services
	userService         *service.UserService
	workspaceService    *service.WorkspaceService
	invitationService   *service.InvitationService
	housekeepingService *service.HousekeepingService

	// Delivery pipeline
	worker *delivery.Worker

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "workspace-service",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}
	if err := app.initDelivery(); err != nil {
		_ = app.db.Close()
		return nil, err
	}
	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.worker.Start()
	app.housekeepingService.Start()

	app.logger.Info("workspace service starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down workspace service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	// Stop producers before the worker so nothing lands on a dead queue.
	app.housekeepingService.Stop()
	app.worker.Stop()

	if err := app.queue.Close(); err != nil {
		app.logger.Error("error closing queue", "error", err)
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("workspace service stopped")
	return nil
}

// initDatabase initializes the database and applies migrations.
func (app *Application) initDatabase() error {
	host := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(host)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

// initDelivery wires the queue, the email sender and the worker.
func (app *Application) initDelivery() error {
	switch app.cfg.QueueDriver {
	case QueueDriverMemory:
		app.queue = delivery.NewMemoryQueue()
	case QueueDriverRedis:
		client := redis.NewClient(&redis.Options{Addr: app.cfg.RedisAddr})
		if err := client.Ping(context.Background()).Err(); err != nil {
			return fmt.Errorf("failed to connect to redis at %s: %w", app.cfg.RedisAddr, err)
		}
		app.queue = delivery.NewRedisQueue(client)
	default:
		return fmt.Errorf("unknown queue driver %q", app.cfg.QueueDriver)
	}

	if app.cfg.ResendAPIKey != "" {
		app.sender = email.NewResendClient(email.ResendConfig{
			APIKey:    app.cfg.ResendAPIKey,
			FromEmail: app.cfg.ResendFromEmail,
		})
	} else {
		app.logger.Warn("RESEND_API_KEY not set, invitation emails will only be logged")
		app.sender = &email.LogSender{Logger: app.logger}
	}

	processor := delivery.NewProcessor(app.db, app.sender, email.NewLinkBuilder(app.cfg.BaseURL))
	app.worker = delivery.NewWorker(app.queue, processor, app.logger,
		app.cfg.SendInterval, app.cfg.DequeueTimeout)

	app.logger.Info("delivery pipeline initialized", "queue_driver", app.cfg.QueueDriver)
	return nil
}

// initServices initializes all business logic services.
func (app *Application) initServices() {
	publisher := delivery.NewPublisher(app.queue)

	app.userService = &service.UserService{Store: app.db}
	app.workspaceService = &service.WorkspaceService{Store: app.db}
	app.invitationService = &service.InvitationService{
		Store:     app.db,
		Publisher: publisher,
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		publisher,
		app.logger,
		app.cfg.HousekeepingInterval,
		app.cfg.PendingRequeueAfter,
		app.cfg.SendingFailAfter,
	)
}

// initHTTP initializes the router and HTTP server.
func (app *Application) initHTTP() {
	app.router = httpapi.NewRouter(BuildVersion, app.db, app.logger)
	app.router.UserService = app.userService
	app.router.WorkspaceService = app.workspaceService
	app.router.InvitationService = app.invitationService
	app.router.ApplyRoutes()

	app.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", app.cfg.Port),
		Handler: app.router,
	}
}
