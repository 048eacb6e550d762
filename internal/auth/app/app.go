package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/proskill/portal-auth/internal/auth/http"
	"github.com/proskill/portal-auth/internal/auth/roster"
	rosterpg "github.com/proskill/portal-auth/internal/auth/roster/postgres"
	"github.com/proskill/portal-auth/internal/auth/service"
	"github.com/proskill/portal-auth/internal/auth/sms"
	"github.com/proskill/portal-auth/internal/auth/store"
	"github.com/proskill/portal-auth/internal/auth/store/drivers/sqlite"
	"github.com/proskill/portal-auth/pkg/slogx"
	"github.com/proskill/portal-auth/pkg/tokenx"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application encapsulates the auth service application with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db     store.Store
	tokens *tokenx.Issuer
	sender sms.Sender
	roster roster.Directory // nil when ROSTER_POSTGRES_DSN is unset

	// Services
	challengeService    *service.ChallengeService
	sessionService      *service.SessionService
	housekeepingService *service.HousekeepingService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "auth-service",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	tokens, err := tokenx.NewIssuer([]byte(cfg.JWTSecret), cfg.Issuer)
	if err != nil {
		_ = app.db.Close()
		return nil, fmt.Errorf("failed to initialize token issuer: %w", err)
	}
	app.tokens = tokens

	if err := app.initSender(); err != nil {
		_ = app.db.Close()
		return nil, err
	}
	app.initRoster()

	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	// Start housekeeping service
	app.housekeepingService.Start()

	app.logger.Info("auth service starting", "port", app.cfg.Port, "version", BuildVersion)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a shutdown signal or server error
	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		// Perform graceful shutdown
		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down auth service...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	// Shutdown the HTTP server
	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	// Stop the housekeeping service
	app.housekeepingService.Stop()

	// Release the roster pool, if one was ever opened
	if app.roster != nil {
		app.roster.Close()
	}

	// Close database connection
	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("auth service stopped")
	return nil
}

// initDatabase initializes the database and applies migrations
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

// initSender selects the SMS backend. Complete Twilio credentials get the
// live client; anything else logs outbound messages instead of sending them.
func (app *Application) initSender() error {
	twilioCfg := sms.TwilioConfig{
		AccountSID: app.cfg.TwilioAccountSID,
		AuthToken:  app.cfg.TwilioAuthToken,
		FromNumber: app.cfg.TwilioFromNumber,
	}

	if twilioCfg.Configured() {
		sender, err := sms.NewTwilioSender(twilioCfg)
		if err != nil {
			return fmt.Errorf("failed to initialize twilio client: %w", err)
		}
		app.sender = sender
	} else {
		app.sender = sms.NewLogSender()
	}

	app.logger.Info("sms sender selected", "sender", app.sender.Name())
	return nil
}

// initRoster wires the external student directory when a DSN is configured.
// Login works without it; verified accounts just miss roster enrichment.
func (app *Application) initRoster() {
	if app.cfg.RosterDSN == "" {
		app.logger.Info("roster lookup disabled, no dsn configured")
		return
	}

	rosterCfg := rosterpg.DefaultConfig(app.cfg.RosterDSN)
	rosterCfg.Table = app.cfg.RosterTable
	app.roster = rosterpg.New(rosterCfg, app.logger)

	app.logger.Info("roster lookup enabled", "table", rosterCfg.Table)
}

// initServices initializes all business logic services
func (app *Application) initServices() {
	resolver := &service.ResolverService{Directory: app.roster}

	app.challengeService = &service.ChallengeService{
		Store:      app.db,
		Sender:     app.sender,
		Resolver:   resolver,
		Tokens:     app.tokens,
		OTPTTL:     app.cfg.OTPTTL,
		SessionTTL: app.cfg.SessionTTL,
		DevCode:    app.cfg.OTPDevCode,
	}
	if app.cfg.OTPDevCode != "" {
		app.logger.Warn("fixed development otp code enabled")
	}

	app.sessionService = &service.SessionService{
		Store:  app.db,
		Tokens: app.tokens,
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(BuildVersion, app.db, app.logger)

	// Wire services to router
	router.ChallengeService = app.challengeService
	router.SessionService = app.sessionService
	router.ApplyRoutes()

	app.router = router

	// Initialize HTTP server
	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
