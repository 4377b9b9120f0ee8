package app

import (
	stderrors "errors"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"golang.org/x/text/language"

	"github.com/agentstation/homewire/internal/cmd/output"
	"github.com/agentstation/homewire/pkg/constants"
	"github.com/agentstation/homewire/pkg/errors"
)

// EnvPrefix is the prefix of every environment variable read by the CLI.
const EnvPrefix = "HOMEWIRE"

// Transports.
const (
	TransportWebSocket = "websocket"
	TransportSSE       = "sse"
)

// Config holds the application configuration loaded from config files,
// environment variables and .env files.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	NoColor bool
	Format  string

	// Config file
	ConfigFile string

	// Endpoints
	WSURL     string
	APIURL    string
	ServerURL string
	APIKey    string
	Transport string

	// Reconnect policy
	ReconnectDelay       time.Duration
	MaxReconnectAttempts int

	// Language for status text and notifications
	Language string

	// Logging configuration
	LogLevel  string
	LogFormat string
	LogOutput string
}

// LoadConfig loads configuration from all sources in order of precedence:
// 1. Command-line flags (applied later by UpdateFromFlags)
// 2. Environment variables (HOMEWIRE_WS_URL, ...)
// 3. .env and .env.local files
// 4. Config file (configFile, or ~/.homewire.yaml and ./.homewire.yaml)
// 5. Defaults
func LoadConfig(configFile string) (*Config, error) {
	loadEnvFiles()

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	// The unprefixed logging variables are shared with pkg/logging.
	for _, key := range []string{"log_level", "log_format", "log_output"} {
		if err := v.BindEnv(key, EnvPrefix+"_"+strings.ToUpper(key), strings.ToUpper(key)); err != nil {
			return nil, errors.NewConfigError(key, "binding environment", err)
		}
	}

	if configFile == "" {
		configFile = v.GetString("config")
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(".homewire")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// An explicit file must exist; the search locations are optional.
		if configFile != "" || !stderrors.As(err, &notFound) {
			return nil, errors.NewConfigError("config", "reading "+configFile, err)
		}
	}

	config := &Config{
		Verbose: v.GetBool("verbose"),
		Quiet:   v.GetBool("quiet"),
		NoColor: v.GetBool("no_color") || os.Getenv("NO_COLOR") != "",
		Format:  v.GetString("format"),

		ConfigFile: v.ConfigFileUsed(),

		WSURL:     v.GetString("ws_url"),
		APIURL:    v.GetString("api_url"),
		ServerURL: v.GetString("server_url"),
		APIKey:    v.GetString("api_key"),
		Transport: strings.ToLower(v.GetString("transport")),

		ReconnectDelay:       v.GetDuration("reconnect_delay"),
		MaxReconnectAttempts: v.GetInt("max_reconnect_attempts"),

		Language: v.GetString("language"),

		LogLevel:  v.GetString("log_level"),
		LogFormat: v.GetString("log_format"),
		LogOutput: v.GetString("log_output"),
	}

	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ws_url", constants.DefaultWebSocketURL)
	v.SetDefault("api_url", constants.DefaultAPIURL)
	v.SetDefault("server_url", constants.DefaultServerURL)
	v.SetDefault("transport", TransportWebSocket)
	v.SetDefault("reconnect_delay", constants.ReconnectDelay)
	v.SetDefault("max_reconnect_attempts", constants.MaxReconnectAttempts)
	v.SetDefault("language", "en")
	v.SetDefault("log_format", "auto")
	v.SetDefault("log_output", "stderr")
}

// UpdateFromFlags updates config values from parsed command flags.
// This should be called after cobra parses flags so flag values take
// precedence over the config file and environment.
func (c *Config) UpdateFromFlags(verbose, quiet, noColor bool, format, logLevel string) {
	c.Verbose = c.Verbose || verbose
	c.Quiet = c.Quiet || quiet
	c.NoColor = c.NoColor || noColor
	if format != "" {
		c.Format = format
	}
	if logLevel != "" {
		c.LogLevel = logLevel
	}
}

// Validate checks the values that are not validated where they are used.
func (c *Config) Validate() error {
	if _, err := output.ParseFormat(c.Format); err != nil {
		return errors.NewConfigError("format", err.Error(), nil)
	}
	switch c.Transport {
	case TransportWebSocket, TransportSSE:
	default:
		return errors.NewConfigError("transport", "must be websocket or sse, got "+c.Transport, nil)
	}
	for key, raw := range map[string]string{"api_url": c.APIURL, "server_url": c.ServerURL} {
		if u, err := url.Parse(raw); err != nil || u.Host == "" {
			return errors.NewConfigError(key, "invalid URL "+raw, err)
		}
	}
	if c.ReconnectDelay < 0 {
		return errors.NewConfigError("reconnect_delay", "must not be negative", nil)
	}
	if c.MaxReconnectAttempts < 0 {
		return errors.NewConfigError("max_reconnect_attempts", "must not be negative", nil)
	}
	if _, err := language.Parse(c.Language); err != nil {
		return errors.NewConfigError("language", "unknown language "+c.Language, err)
	}
	return nil
}

// loadEnvFiles loads environment variables from .env files.
// .env.local is loaded first so its values win: godotenv never overrides
// a variable that is already set.
func loadEnvFiles() {
	for _, envFile := range []string{".env.local", ".env"} {
		_ = godotenv.Load(envFile)
	}
}
