package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nerrad567/sovd-sim/internal/audit"
	"github.com/nerrad567/sovd-sim/internal/engine"
	"github.com/nerrad567/sovd-sim/internal/infrastructure/config"
	"github.com/nerrad567/sovd-sim/internal/infrastructure/database"
	"github.com/nerrad567/sovd-sim/internal/infrastructure/logging"
	"github.com/nerrad567/sovd-sim/internal/metrics"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// ConnectionStatus reports the state of an optional outbound connection.
type ConnectionStatus interface {
	IsConnected() bool
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config    config.APIConfig
	WS        config.WebSocketConfig
	Metrics   config.MetricsConfig
	Logger    *logging.Logger
	Engine    *engine.Engine
	Hub       *Hub               // if nil the server creates and runs its own
	Audit     audit.Repository   // optional
	Collector *metrics.Collector // optional: Prometheus endpoint and HTTP metrics
	DB        *database.DB       // optional: pool stats in /api/v1/metrics
	MQTT      ConnectionStatus   // optional
	Version   string
}

// Server is the HTTP API server.
//
// It is created with New, started with Start and stopped with Close.
type Server struct {
	cfg       config.APIConfig
	wsCfg     config.WebSocketConfig
	metrics   config.MetricsConfig
	logger    *logging.Logger
	engine    *engine.Engine
	hub       *Hub
	ownsHub   bool
	audit     audit.Repository
	collector *metrics.Collector
	db        *database.DB
	mqtt      ConnectionStatus
	version   string
	startTime time.Time

	handler http.Handler
	server  *http.Server
	cancel  context.CancelFunc
}

// New creates a new API server. The router is built immediately so
// Handler can be used without starting a listener.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Engine == nil {
		return nil, fmt.Errorf("engine is required")
	}

	s := &Server{
		cfg:       deps.Config,
		wsCfg:     deps.WS,
		metrics:   deps.Metrics,
		logger:    deps.Logger,
		engine:    deps.Engine,
		hub:       deps.Hub,
		audit:     deps.Audit,
		collector: deps.Collector,
		db:        deps.DB,
		mqtt:      deps.MQTT,
		version:   deps.Version,
		startTime: time.Now(),
	}
	if s.hub == nil {
		s.hub = NewHub(s.wsCfg, s.logger)
		s.ownsHub = true
	}

	s.handler = s.buildRouter()
	return s, nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Hub returns the WebSocket hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Start begins listening for HTTP connections in a background goroutine.
func (s *Server) Start(ctx context.Context) error {
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	if s.ownsHub {
		go s.hub.Run(srvCtx)
	}

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.handler,
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		var err error
		if s.cfg.TLS.Enabled {
			s.logger.Info("API server starting with TLS", "address", s.server.Addr, "cert", s.cfg.TLS.CertFile)
			err = s.server.ListenAndServeTLS(s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
		} else {
			s.logger.Info("API server starting", "address", s.server.Addr)
			err = s.server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the API server, waiting up to 10 seconds for
// in-flight requests.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}
	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running.
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
