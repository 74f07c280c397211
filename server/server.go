// Package server exposes the HTTP API: passcode/key authentication, thread
// management and the SSE chat endpoint that streams turn events to the
// browser.
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/djdjm-value-shore/smoothoperatormini/agent"
	"github.com/djdjm-value-shore/smoothoperatormini/config"
	"github.com/djdjm-value-shore/smoothoperatormini/logging"
	"github.com/djdjm-value-shore/smoothoperatormini/model"
	"github.com/djdjm-value-shore/smoothoperatormini/model/openai"
	"github.com/djdjm-value-shore/smoothoperatormini/session"
	"github.com/djdjm-value-shore/smoothoperatormini/tool"
)

// ClientFactory builds a completion client bound to one session's API key.
type ClientFactory func(apiKey string) model.Client

// Options configure a Server beyond its required collaborators.
type Options struct {
	Logger logging.Logger
	// NewClient overrides the completion client constructor; tests use it
	// to substitute scripted clients.
	NewClient ClientFactory
}

// Server wires the HTTP surface to the lifecycle store and turn engine.
type Server struct {
	cfg       *config.Config
	store     *session.Store
	agents    *agent.Registry
	tools     *tool.Registry
	logger    logging.Logger
	newClient ClientFactory

	echo *echo.Echo
}

// New constructs the server and registers all routes.
func New(cfg *config.Config, store *session.Store, optFns ...func(o *Options)) *Server {
	opts := Options{
		Logger: logging.NoOpLogger{},
		NewClient: func(apiKey string) model.Client {
			return openai.NewClient(func(o *openai.Options) {
				o.APIKey = apiKey
			})
		},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	noteTools := tool.NewNoteTools(store)
	s := &Server{
		cfg:       cfg,
		store:     store,
		agents:    agent.DefaultRegistry(tool.Definitions(noteTools...)),
		tools:     tool.NewRegistry(noteTools...),
		logger:    opts.Logger,
		newClient: opts.NewClient,
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"*"},
		AllowCredentials: true,
	}))

	e.GET("/", s.handleRoot)
	e.GET("/health", s.handleHealth)

	api := e.Group("/api")
	api.POST("/login", s.handleLogin)
	api.POST("/set-key", s.handleSetKey, s.requireSession)
	api.POST("/logout", s.handleLogout)
	api.GET("/session-status", s.handleSessionStatus, s.requireSession)

	api.POST("/chatkit", s.handleChat, s.requireAuthenticated)
	api.GET("/chatkit/health", s.handleChatHealth)

	threads := api.Group("/threads", s.requireAuthenticated)
	threads.POST("/new", s.handleCreateThread)
	threads.GET("/:id", s.handleGetThread)

	s.echo = e
	return s
}

// Handler exposes the routed handler for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	s.logger.Info("server.start", "addr", addr)
	return s.echo.Start(addr)
}

// Shutdown drains in-flight requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) handleRoot(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"service": "smoothoperator",
		"status":  "healthy",
	})
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "healthy", "service": "api"})
}

func (s *Server) handleChatHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "healthy", "endpoint": "chatkit"})
}
