// Package server wires the configured storage, service and HTTP endpoint
// together and runs them until the process is signalled.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/beanfeed/internal/clock"
	"github.com/dmitrijs2005/beanfeed/internal/logging"
	"github.com/dmitrijs2005/beanfeed/internal/profile"
	"github.com/dmitrijs2005/beanfeed/internal/server/auth"
	"github.com/dmitrijs2005/beanfeed/internal/server/config"
	"github.com/dmitrijs2005/beanfeed/internal/server/rest"
	"github.com/dmitrijs2005/beanfeed/internal/server/sao"
	"github.com/dmitrijs2005/beanfeed/internal/server/storage"
	"github.com/dmitrijs2005/beanfeed/internal/server/storage/sqlstore"
	"github.com/dmitrijs2005/beanfeed/internal/transport"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	server *rest.Server
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger, err := logging.NewJSON(os.Stdout, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	return newApp(ctx, c, logger)
}

func newApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	enc, err := transport.ParseEncoding(c.Compression)
	if err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	app := &App{config: c, logger: logger}

	profiles, err := app.profileStorage(ctx)
	if err != nil {
		return nil, err
	}

	svc := sao.NewService[*profile.Profile](
		profiles,
		sao.OwnerPolicy[*profile.Profile]{OwnerOf: profile.Owner},
		clock.Real(),
		logger,
	)
	res := rest.NewResource[*profile.Profile]("profiles", svc, profile.Codec{},
		rest.Transport{Preferred: enc, MaxBodyBytes: c.MaxBodyBytes}, logger)

	authz := auth.NewAuthorizer(
		auth.BearerResolver([]byte(c.SecretKey)),
		auth.HeaderResolver(c.PrincipalHeader),
	)

	app.server = rest.NewServer(c.EndpointAddr, logger, authz, map[string]rest.Registrar{"profiles": res})
	return app, nil
}

// profileStorage opens the store named by the DSN; an empty DSN keeps
// records in memory.
func (app *App) profileStorage(ctx context.Context) (storage.Storage[*profile.Profile], error) {
	if app.config.DatabaseDSN == "" {
		app.logger.Warn(ctx, "No database configured, records are kept in memory")
		return storage.NewMemory(profile.Owner), nil
	}

	db, d, err := sqlstore.Open(ctx, app.config.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	app.db = db
	app.logger.Info(ctx, "Database ready", "dialect", d.String())

	return sqlstore.New(db, d, "profiles", profile.Owner), nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.server.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until a termination signal arrives or ctx is done.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error(ctx, "db close error", "error", err)
		}
	}
	app.logger.Info(ctx, "App stopped")
}
