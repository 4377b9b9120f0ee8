// Package serve provides the development push server command.
package serve

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/agentstation/homewire/internal/appcontext"
	"github.com/agentstation/homewire/internal/cmd/emoji"
	"github.com/agentstation/homewire/internal/server"
	"github.com/agentstation/homewire/pkg/constants"
)

// NewCommand creates the serve command using app context.
func NewCommand(app appcontext.Interface) *cobra.Command {
	defaults := server.DefaultConfig()

	cmd := &cobra.Command{
		Use:     "serve",
		Aliases: []string{"server"},
		GroupID: "development",
		Short:   "Start a development push server",
		Long: `Start a push server that speaks the same wire format as the
records backend, for local development and testing.

Endpoints:
  - WebSocket push channel (/websocket/updates)
  - Server-Sent Events push channel (/api/v1/updates/stream)
  - Change event publishing (POST /api/v1/events)
  - Health checks and connection stats

Every published event is validated before it is broadcast, so clients
only ever receive well-formed frames from this server.`,
		Example: `  # Start on the default port 28123
  homewire serve

  # Require an API key for publishing
  HOMEWIRE_API_KEY=secret homewire serve --auth

  # Allow browser clients from one origin
  homewire serve --cors-origins "https://app.example.com"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd, app)
		},
	}

	cmd.Flags().Int("port", defaults.Port, "Server port")
	cmd.Flags().String("host", defaults.Host, "Bind address")
	cmd.Flags().String("prefix", defaults.PathPrefix, "API path prefix")
	cmd.Flags().String("ws-path", defaults.WebSocketPath, "WebSocket push channel path")

	cmd.Flags().Bool("cors", false, "Enable CORS for all origins")
	cmd.Flags().StringSlice("cors-origins", []string{}, "Allowed CORS origins (comma-separated)")

	cmd.Flags().Bool("auth", false, "Require an API key for publishing")
	cmd.Flags().String("auth-header", defaults.AuthHeader, "Authentication header name")

	cmd.Flags().Int("rate-limit", defaults.RateLimit, "Requests per minute per IP (0 to disable)")

	cmd.Flags().Duration("read-timeout", defaults.ReadTimeout, "HTTP read timeout")
	cmd.Flags().Duration("write-timeout", defaults.WriteTimeout, "HTTP write timeout (0 keeps push streams open)")
	cmd.Flags().Duration("idle-timeout", defaults.IdleTimeout, "HTTP idle timeout")

	return cmd
}

// runServer starts the push server.
func runServer(cmd *cobra.Command, app appcontext.Interface) error {
	cfg := parseConfig(cmd, app)
	logger := app.Logger()

	logger.Info().
		Int("port", cfg.Port).
		Str("host", cfg.Host).
		Str("prefix", cfg.PathPrefix).
		Str("ws_path", cfg.WebSocketPath).
		Bool("cors", cfg.CORSEnabled).
		Bool("auth", cfg.AuthEnabled).
		Int("rate_limit", cfg.RateLimit).
		Msg("Starting push server")

	srv, err := server.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	srv.Start()

	return startWithGracefulShutdown(cmd, srv.HTTPServer(), srv, logger)
}

// parseConfig parses command flags into server configuration.
func parseConfig(cmd *cobra.Command, app appcontext.Interface) server.Config {
	port := mustGetInt(cmd, "port")
	host := mustGetString(cmd, "host")

	// Override with environment variables
	if envPort := os.Getenv("HTTP_PORT"); envPort != "" {
		if p, err := parsePort(envPort); err == nil {
			port = p
		}
	}
	if envHost := os.Getenv("HTTP_HOST"); envHost != "" {
		host = envHost
	}

	return server.Config{
		Host:          host,
		Port:          port,
		PathPrefix:    mustGetString(cmd, "prefix"),
		WebSocketPath: mustGetString(cmd, "ws-path"),
		CORSEnabled:   mustGetBool(cmd, "cors"),
		CORSOrigins:   mustGetStringSlice(cmd, "cors-origins"),
		AuthEnabled:   mustGetBool(cmd, "auth"),
		AuthHeader:    mustGetString(cmd, "auth-header"),
		APIKey:        app.APIKey(),
		RateLimit:     mustGetInt(cmd, "rate-limit"),
		ReadTimeout:   mustGetDuration(cmd, "read-timeout"),
		WriteTimeout:  mustGetDuration(cmd, "write-timeout"),
		IdleTimeout:   mustGetDuration(cmd, "idle-timeout"),
	}
}

// parsePort safely parses a port string to integer.
func parsePort(portStr string) (int, error) {
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return 0, fmt.Errorf("invalid port number: %s", portStr)
	}
	if port < 1 || port > 65535 {
		return 0, fmt.Errorf("port out of range: %d", port)
	}
	return port, nil
}

// startWithGracefulShutdown serves until the command context is cancelled.
// Push streams only end when the server's hub and broadcaster close, so the
// background services are shut down before the HTTP server drains.
func startWithGracefulShutdown(cmd *cobra.Command, httpServer *http.Server, srv *server.Server, logger *zerolog.Logger) error {
	out := cmd.OutOrStdout()

	listener, err := net.Listen("tcp", httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", httpServer.Addr, err)
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", listener.Addr().String()).Msg("HTTP server listening")

		if err := httpServer.Serve(listener); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			serverErr <- fmt.Errorf("server failed: %w", err)
		}
	}()

	_, _ = fmt.Fprintf(out, "%s Push server listening on %s\n", emoji.Success, listener.Addr())
	_, _ = fmt.Fprintln(out, "   Press Ctrl+C to stop")

	select {
	case err := <-serverErr:
		shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return err
	case <-cmd.Context().Done():
		logger.Info().Msg("Shutdown signal received via context")
		_, _ = fmt.Fprintf(out, "\n%s Shutting down push server...\n", emoji.Stop)

		// Use Background() since the parent context is already cancelled
		shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("Background services shutdown had issues")
		}
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info().Msg("Server stopped gracefully")
		_, _ = fmt.Fprintf(out, "%s Push server stopped gracefully\n", emoji.Success)
		return nil
	}
}

// mustGetInt retrieves an integer flag value or panics if the flag doesn't exist.
// This should only be used for flags defined in this package.
func mustGetInt(cmd *cobra.Command, name string) int {
	val, err := cmd.Flags().GetInt(name)
	if err != nil {
		panic(fmt.Sprintf("programming error: failed to get flag %q: %v", name, err))
	}
	return val
}

// mustGetString retrieves a string flag value or panics if the flag doesn't exist.
// This should only be used for flags defined in this package.
func mustGetString(cmd *cobra.Command, name string) string {
	val, err := cmd.Flags().GetString(name)
	if err != nil {
		panic(fmt.Sprintf("programming error: failed to get flag %q: %v", name, err))
	}
	return val
}

// mustGetBool retrieves a boolean flag value or panics if the flag doesn't exist.
// This should only be used for flags defined in this package.
func mustGetBool(cmd *cobra.Command, name string) bool {
	val, err := cmd.Flags().GetBool(name)
	if err != nil {
		panic(fmt.Sprintf("programming error: failed to get flag %q: %v", name, err))
	}
	return val
}

// mustGetStringSlice retrieves a string slice flag value or panics if the flag doesn't exist.
// This should only be used for flags defined in this package.
func mustGetStringSlice(cmd *cobra.Command, name string) []string {
	val, err := cmd.Flags().GetStringSlice(name)
	if err != nil {
		panic(fmt.Sprintf("programming error: failed to get flag %q: %v", name, err))
	}
	return val
}

// mustGetDuration retrieves a duration flag value or panics if the flag doesn't exist.
// This should only be used for flags defined in this package.
func mustGetDuration(cmd *cobra.Command, name string) time.Duration {
	val, err := cmd.Flags().GetDuration(name)
	if err != nil {
		panic(fmt.Sprintf("programming error: failed to get flag %q: %v", name, err))
	}
	return val
}
