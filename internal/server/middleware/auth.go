package middleware

import (
	"net/http"
	"os"
	"slices"
	"strings"

	"github.com/rs/zerolog"
)

// APIKeyEnv is the environment variable holding the server's API key.
const APIKeyEnv = "HOMEWIRE_API_KEY"

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	Enabled    bool
	APIKey     string
	HeaderName string
	// Methods lists the request methods that need a key. Push streams are
	// read-only, so only publishing is protected by default.
	Methods      []string
	PublicPaths  []string
	BearerPrefix bool
}

// DefaultAuthConfig returns default authentication configuration.
func DefaultAuthConfig() AuthConfig {
	return AuthConfig{
		Enabled:      false,
		APIKey:       os.Getenv(APIKeyEnv),
		HeaderName:   "X-API-Key",
		Methods:      []string{http.MethodPost},
		PublicPaths:  []string{"/health", "/api/v1/health"},
		BearerPrefix: false,
	}
}

// Auth middleware validates API keys for protected requests.
func Auth(config AuthConfig, logger *zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !config.Enabled || !requiresKey(r, config) {
				next.ServeHTTP(w, r)
				return
			}

			apiKey := extractAPIKey(r, config)
			if apiKey == "" || apiKey != config.APIKey {
				logger.Warn().
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Str("remote_addr", r.RemoteAddr).
					Bool("key_provided", apiKey != "").
					Msg("Authentication failed")

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"data":null,"error":{"code":"UNAUTHORIZED","message":"Invalid or missing API key","details":"Provide a valid API key in the ` + config.HeaderName + ` header"}}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// requiresKey reports whether the request must carry an API key.
func requiresKey(r *http.Request, config AuthConfig) bool {
	if slices.Contains(config.PublicPaths, r.URL.Path) {
		return false
	}
	if len(config.Methods) == 0 {
		return true
	}
	return slices.Contains(config.Methods, r.Method)
}

// extractAPIKey extracts the API key from the request.
func extractAPIKey(r *http.Request, config AuthConfig) string {
	if apiKey := r.Header.Get(config.HeaderName); apiKey != "" {
		return apiKey
	}

	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	if config.BearerPrefix {
		return ""
	}
	return auth
}
