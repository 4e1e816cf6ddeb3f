// Package server wires the ledger store and the identity, session, audit,
// GDPR and maintenance services together and runs them until shutdown.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/ledgerhouse/internal/ledger"
	"github.com/dmitrijs2005/ledgerhouse/internal/logging"
	"github.com/dmitrijs2005/ledgerhouse/internal/server/audit"
	"github.com/dmitrijs2005/ledgerhouse/internal/server/config"
	"github.com/dmitrijs2005/ledgerhouse/internal/server/gdpr"
	"github.com/dmitrijs2005/ledgerhouse/internal/server/identity"
	"github.com/dmitrijs2005/ledgerhouse/internal/server/maintenance"
	"github.com/dmitrijs2005/ledgerhouse/internal/server/models"
	"github.com/dmitrijs2005/ledgerhouse/internal/server/session"
)

type App struct {
	config *config.Config
	logger logging.Logger
	store  *ledger.SQLStore

	Identity    *identity.Service
	Sessions    *session.Manager
	Audit       *audit.Service
	Exporter    *audit.Exporter
	Eraser      *gdpr.Eraser
	Maintenance *maintenance.Service
}

func NewApp(c *config.Config) (*App, error) {

	sl := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(sl)

	if c.SecretKey == config.DefaultSecretKey {
		logger.Warn(context.Background(), "running with the default signing secret; override it in production")
	}

	store, err := openStore(context.Background(), c, logger)
	if err != nil {
		return nil, fmt.Errorf("store init error: %w", err)
	}

	auditSvc := audit.NewService(store, logger)
	sessions := session.NewManager(store, auditSvc, logger,
		[]byte(c.SecretKey), c.SessionTTL, c.RememberMeTTL)
	identitySvc := identity.NewService(store, sessions, auditSvc, logger)
	exporter := audit.NewExporter(auditSvc, c)
	eraser := gdpr.NewEraser(store, logger)
	upkeep := maintenance.NewService(store, logger, c.VacuumRetention)

	return &App{
		config:      c,
		logger:      logger,
		store:       store,
		Identity:    identitySvc,
		Sessions:    sessions,
		Audit:       auditSvc,
		Exporter:    exporter,
		Eraser:      eraser,
		Maintenance: upkeep,
	}, nil
}

// Close releases the underlying store. Run calls it on shutdown; one-shot
// tools call it directly.
func (app *App) Close() error {
	return app.store.Close()
}

// Store exposes the underlying ledger store for operator tooling.
func (app *App) Store() *ledger.SQLStore {
	return app.store
}

// openStore picks the backend: postgres when a DSN is configured, the
// embedded sqlite file otherwise.
func openStore(ctx context.Context, c *config.Config, logger logging.Logger) (*ledger.SQLStore, error) {
	if c.DatabaseDSN != "" {
		return ledger.NewPostgresStore(ctx, c.DatabaseDSN, logger, models.AllTables()...)
	}
	return ledger.NewSQLiteStore(ctx, c.LedgerPath, logger, models.AllTables()...)
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run starts the maintenance scheduler and blocks until a shutdown signal
// or context cancellation.
func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.Maintenance.Run(ctx)
	}()

	wg.Wait()

	if err := app.Close(); err != nil {
		app.logger.Error(ctx, "store close error", "error", err)
	}
}
