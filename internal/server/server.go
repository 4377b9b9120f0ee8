// Package server provides the development push server. It accepts change
// events over HTTP and pushes them to WebSocket and SSE clients in the
// frame format the realtime client consumes.
package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/agentstation/homewire/internal/server/events"
	"github.com/agentstation/homewire/internal/server/events/adapters"
	"github.com/agentstation/homewire/internal/server/sse"
	ws "github.com/agentstation/homewire/internal/server/websocket"
	"github.com/agentstation/homewire/pkg/realtime"
)

// Server holds the HTTP server state and dependencies.
type Server struct {
	broker         *events.Broker
	wsHub          *ws.Hub
	sseBroadcaster *sse.Broadcaster
	upgrader       *websocket.Upgrader
	logger         *zerolog.Logger
	config         Config
	ctx            context.Context
	cancel         context.CancelFunc
	wg             sync.WaitGroup
	startOnce      sync.Once
	startTime      time.Time
}

// New creates a new server instance with the given configuration.
func New(cfg Config, logger *zerolog.Logger) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger.Debug().Msg("Creating event broker")
	broker := events.NewBroker(logger)

	wsHub := ws.NewHub(logger)
	sseBroadcaster := sse.NewBroadcaster(logger)

	// Subscription order is fan-out order.
	broker.Subscribe(adapters.NewWebSocketSubscriber(wsHub))
	broker.Subscribe(adapters.NewSSESubscriber(sseBroadcaster))
	logger.Debug().Msg("WebSocket and SSE transports subscribed to event broker")

	ctx, cancel := context.WithCancel(context.Background())

	return &Server{
		broker:         broker,
		wsHub:          wsHub,
		sseBroadcaster: sseBroadcaster,
		upgrader: &websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(_ *http.Request) bool {
				return true // Allow all origins for WebSocket
			},
		},
		logger:    logger,
		config:    cfg,
		ctx:       ctx,
		cancel:    cancel,
		startTime: time.Now(),
	}, nil
}

// Start starts background services (broker, WebSocket hub, SSE broadcaster).
// Calling it more than once has no effect.
func (s *Server) Start() {
	s.startOnce.Do(func() {
		s.wg.Add(3)
		go func() { defer s.wg.Done(); s.broker.Run(s.ctx) }()
		go func() { defer s.wg.Done(); s.wsHub.Run(s.ctx) }()
		go func() { defer s.wg.Done(); s.sseBroadcaster.Run(s.ctx) }()
		s.logger.Debug().Msg("All background services started")
	})
}

// Handler returns the configured http.Handler with middleware chain applied.
func (s *Server) Handler() http.Handler {
	return s.setupRouter()
}

// HTTPServer returns an http.Server for the configured address.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         s.config.Addr(),
		Handler:      s.Handler(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}
}

// Publish validates a change and queues it for every connected client.
func (s *Server) Publish(change realtime.ChangeEvent) (events.Event, error) {
	return s.broker.Publish(change)
}

// Shutdown stops the background services. Connected WebSocket clients get
// a going-away close frame and SSE streams end.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("Shutting down server background services")
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info().Msg("Background services shut down successfully")
		return nil
	case <-ctx.Done():
		s.logger.Warn().Msg("Background services shutdown timed out")
		return ctx.Err()
	}
}

// Config returns the server configuration.
func (s *Server) Config() Config {
	return s.config
}

// WSHub returns the WebSocket hub.
func (s *Server) WSHub() *ws.Hub {
	return s.wsHub
}

// SSEBroadcaster returns the SSE broadcaster.
func (s *Server) SSEBroadcaster() *sse.Broadcaster {
	return s.sseBroadcaster
}

// Broker returns the event broker for publishing events.
func (s *Server) Broker() *events.Broker {
	return s.broker
}

// StartTime returns the server start time for uptime calculations.
func (s *Server) StartTime() time.Time {
	return s.startTime
}
