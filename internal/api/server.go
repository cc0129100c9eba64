package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nerrad567/gray-logic-panels/internal/auth"
	"github.com/nerrad567/gray-logic-panels/internal/binding"
	"github.com/nerrad567/gray-logic-panels/internal/device"
	"github.com/nerrad567/gray-logic-panels/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-panels/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-panels/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-panels/internal/panel"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// loopTimeout bounds how long a request waits for the event loop.
const loopTimeout = 5 * time.Second

var errLoopUnavailable = errors.New("api: event loop did not respond")

// Loop runs work on the event loop and waits for the result.
type Loop interface {
	Do(ctx context.Context, fn func() error) error
}

// Dispatcher is the part of the state-change dispatcher the API uses.
// Its methods are only called on the event loop.
type Dispatcher interface {
	panel.Registrar
	Count() int
}

// BrokerHealth reports broker connectivity.
type BrokerHealth interface {
	HealthCheck(ctx context.Context) error
	BrokerIDs() []string
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config     config.APIConfig
	Logger     *logging.Logger
	Registry   *device.Registry
	Panels     *panel.Manager
	Resolver   *binding.Resolver
	Bindings   binding.Repository
	Dispatcher Dispatcher
	Loop       Loop
	// Brokers and DB are optional and only feed health and metrics.
	Brokers BrokerHealth
	DB      *database.DB
	// Auth is nil when authentication is disabled. Hub is nil when the
	// live event feed is not wired.
	Auth    *auth.Authenticator
	Hub     *Hub
	Version string
}

// Server is the HTTP API server.
//
// It manages the HTTP listener, routes and middleware.
// The server is created with New() and started with Start().
type Server struct {
	cfg        config.APIConfig
	logger     *logging.Logger
	registry   *device.Registry
	panels     *panel.Manager
	resolver   *binding.Resolver
	bindings   binding.Repository
	dispatcher Dispatcher
	loop       Loop
	brokers    BrokerHealth
	db         *database.DB
	auth       *auth.Authenticator
	hub        *Hub
	tickets    *ticketStore
	version    string
	startTime  time.Time
	server     *http.Server
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Registry == nil {
		return nil, fmt.Errorf("device registry is required")
	}
	if deps.Panels == nil || deps.Loop == nil {
		return nil, fmt.Errorf("panel manager and event loop are required")
	}
	if deps.Resolver == nil || deps.Bindings == nil || deps.Dispatcher == nil {
		return nil, fmt.Errorf("binding resolver, repository and dispatcher are required")
	}

	return &Server{
		cfg:        deps.Config,
		logger:     deps.Logger,
		registry:   deps.Registry,
		panels:     deps.Panels,
		resolver:   deps.Resolver,
		bindings:   deps.Bindings,
		dispatcher: deps.Dispatcher,
		loop:       deps.Loop,
		brokers:    deps.Brokers,
		db:         deps.DB,
		auth:       deps.Auth,
		hub:        deps.Hub,
		tickets:    newTicketStore(),
		version:    deps.Version,
		startTime:  time.Now(),
	}, nil
}

// Start begins listening for HTTP connections in a background goroutine.
// The server can be stopped with Close().
func (s *Server) Start(_ context.Context) error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		s.logger.Info("API server starting", "address", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// onLoop runs fn on the event loop, bounded by loopTimeout.
func (s *Server) onLoop(ctx context.Context, fn func() error) error {
	ctx, cancel := context.WithTimeout(ctx, loopTimeout)
	defer cancel()

	err := s.loop.Do(ctx, fn)
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() != nil {
		return fmt.Errorf("%w: %v", errLoopUnavailable, err)
	}
	return err
}

// HealthCheck reports an error when the server has not been started or
// ctx is already done.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}

	return nil
}
