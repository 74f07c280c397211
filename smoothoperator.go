// Package smoothoperator assembles the application: configuration, the
// lifecycle store with its reaper, and the HTTP server. Most deployments
// interact with this package by:
//  1. Loading a Config (config.Load or hand-built for tests)
//  2. Creating an App via New()
//  3. Calling Run(ctx), which serves until the context is cancelled
package smoothoperator

import (
	"context"
	"errors"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/djdjm-value-shore/smoothoperatormini/config"
	"github.com/djdjm-value-shore/smoothoperatormini/logging"
	"github.com/djdjm-value-shore/smoothoperatormini/server"
	"github.com/djdjm-value-shore/smoothoperatormini/session"
)

const shutdownTimeout = 10 * time.Second

// Options configure an App.
type Options struct {
	// Logger receives all application diagnostics.
	Logger logging.Logger
	// ServerOptions are forwarded to server.New; tests use them to inject
	// scripted completion clients.
	ServerOptions []func(o *server.Options)
}

// App owns the assembled collaborators and their lifecycles.
type App struct {
	cfg    *config.Config
	store  *session.Store
	server *server.Server
	logger logging.Logger
}

// New assembles an App from configuration.
func New(cfg *config.Config, optFns ...func(o *Options)) *App {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}

	store := session.NewStore(func(o *session.Options) {
		o.SessionTTL = cfg.SessionTTL
		o.ThreadTTL = cfg.ThreadTTL
		o.Logger = opts.Logger
	})

	serverOpts := append([]func(o *server.Options){func(o *server.Options) {
		o.Logger = opts.Logger
	}}, opts.ServerOptions...)

	return &App{
		cfg:    cfg,
		store:  store,
		server: server.New(cfg, store, serverOpts...),
		logger: opts.Logger,
	}
}

// Store exposes the lifecycle store.
func (a *App) Store() *session.Store {
	return a.store
}

// Server exposes the HTTP server.
func (a *App) Server() *server.Server {
	return a.server
}

// Run starts the reaper and serves HTTP until ctx is cancelled, then drains
// in-flight requests and stops the reaper.
func (a *App) Run(ctx context.Context) error {
	a.store.StartReaper(a.cfg.ReapInterval)
	defer a.store.StopReaper()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := a.server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		a.logger.Info("app.shutdown")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return a.server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
