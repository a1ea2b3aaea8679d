package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	envPrefix             = "DEALSYNC"
	defaultHTTPAddress    = "0.0.0.0:8080"
	defaultDatabasePath   = "dealsync.db"
	defaultLogLevel       = "info"
	defaultTimeoutSeconds = 15
	defaultDebounceMillis = 300
	defaultSessionIssuer  = "deal-network"
)

// AppConfig captures runtime configuration for the sync engine and the
// deep-link server.
type AppConfig struct {
	APIBaseURL           string
	APISessionToken      string
	APITimeout           time.Duration
	HTTPAddress          string
	DatabasePath         string
	LogLevel             string
	SessionSigningSecret string
	SessionIssuer        string
	DebounceInterval     time.Duration
}

// NewViper returns a viper instance with defaults and env bindings configured.
func NewViper() *viper.Viper {
	configViper := viper.New()
	ApplyDefaults(configViper)
	return configViper
}

// ApplyDefaults configures defaults and env bindings on the provided viper instance.
func ApplyDefaults(configViper *viper.Viper) {
	configViper.SetEnvPrefix(envPrefix)
	configViper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	configViper.AutomaticEnv()

	configViper.SetDefault("http.address", defaultHTTPAddress)
	configViper.SetDefault("database.path", defaultDatabasePath)
	configViper.SetDefault("log.level", defaultLogLevel)
	configViper.SetDefault("api.timeout_seconds", defaultTimeoutSeconds)
	configViper.SetDefault("sync.debounce_ms", defaultDebounceMillis)
	configViper.SetDefault("session.issuer", defaultSessionIssuer)
}

// Load parses runtime configuration from viper.
func Load(configViper *viper.Viper) (AppConfig, error) {
	cfg := AppConfig{
		APIBaseURL:           configViper.GetString("api.base_url"),
		APISessionToken:      configViper.GetString("api.token"),
		APITimeout:           time.Duration(configViper.GetInt("api.timeout_seconds")) * time.Second,
		HTTPAddress:          configViper.GetString("http.address"),
		DatabasePath:         configViper.GetString("database.path"),
		LogLevel:             configViper.GetString("log.level"),
		SessionSigningSecret: configViper.GetString("session.signing_secret"),
		SessionIssuer:        configViper.GetString("session.issuer"),
		DebounceInterval:     time.Duration(configViper.GetInt("sync.debounce_ms")) * time.Millisecond,
	}

	if err := cfg.validate(); err != nil {
		return AppConfig{}, err
	}

	return cfg, nil
}

func (c AppConfig) validate() error {
	if strings.TrimSpace(c.APIBaseURL) == "" {
		return fmt.Errorf("api.base_url is required")
	}
	if strings.TrimSpace(c.DatabasePath) == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.APITimeout <= 0 {
		return fmt.Errorf("api.timeout_seconds must be positive")
	}
	if c.DebounceInterval < 0 {
		return fmt.Errorf("sync.debounce_ms must not be negative")
	}
	return nil
}
