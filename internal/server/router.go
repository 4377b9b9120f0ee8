package server

import (
	"net/http"

	"github.com/agentstation/homewire/internal/server/handlers"
	"github.com/agentstation/homewire/internal/server/middleware"
)

// setupRouter creates the HTTP handler with routes and middleware.
func (s *Server) setupRouter() http.Handler {
	mux := http.NewServeMux()

	h := handlers.New(
		s.broker,
		s.wsHub,
		s.sseBroadcaster,
		s.upgrader,
		s.logger,
		s.startTime,
	)

	s.registerRoutes(mux, h)

	return s.applyMiddleware(mux)
}

// registerRoutes registers all HTTP routes.
func (s *Server) registerRoutes(mux *http.ServeMux, h *handlers.Handlers) {
	prefix := s.config.PathPrefix

	// Favicon handler (return 204 No Content to avoid 404 logs)
	mux.HandleFunc("/favicon.ico", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	// Public health endpoints
	mux.HandleFunc("/health", h.HandleHealth)
	mux.HandleFunc(prefix+"/health", h.HandleHealth)

	// Push channel
	mux.HandleFunc(s.config.WebSocketPath, h.HandleWebSocket)
	mux.HandleFunc(prefix+"/updates/stream", h.HandleSSE)

	// Publishing and introspection
	mux.HandleFunc(prefix+"/events", h.HandlePublish)
	mux.HandleFunc(prefix+"/stats", h.HandleStats)
}

// applyMiddleware wraps handler with middleware chain.
func (s *Server) applyMiddleware(handler http.Handler) http.Handler {
	cfg := s.config
	var chain []func(http.Handler) http.Handler

	// Recovery and logging (always enabled), outermost first
	chain = append(chain, middleware.Recovery(s.logger), middleware.Logger(s.logger))

	if cfg.CORSEnabled {
		corsConfig := middleware.DefaultCORSConfig()
		if len(cfg.CORSOrigins) > 0 {
			corsConfig.AllowedOrigins = cfg.CORSOrigins
		} else {
			corsConfig.AllowAll = true
		}
		chain = append(chain, middleware.CORS(corsConfig))
	}

	if cfg.AuthEnabled {
		authConfig := middleware.DefaultAuthConfig()
		authConfig.Enabled = true
		authConfig.HeaderName = cfg.AuthHeader
		authConfig.APIKey = cfg.APIKey
		authConfig.PublicPaths = []string{"/health", cfg.PathPrefix + "/health"}
		chain = append(chain, middleware.Auth(authConfig, s.logger))
	}

	if cfg.RateLimit > 0 {
		chain = append(chain, middleware.RateLimit(middleware.NewRateLimiter(cfg.RateLimit, s.logger)))
	}

	return middleware.Chain(chain...)(handler)
}
