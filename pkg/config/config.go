// Package config loads the receiver's TOML configuration file
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/ZentaChain/fcm-receiver/pkg/api"
	"github.com/ZentaChain/fcm-receiver/pkg/logging"
	"github.com/ZentaChain/fcm-receiver/pkg/network"
	"github.com/ZentaChain/fcm-receiver/pkg/register"
	"github.com/ZentaChain/fcm-receiver/pkg/storage"
)

var (
	ErrInvalidConfig = errors.New("invalid config")
)

// Duration is a time.Duration written as a string ("5s", "1m30s")
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Config is the complete receiver configuration
type Config struct {
	Relay    RelayConfig    `toml:"relay"`
	Register RegisterConfig `toml:"register"`
	Storage  StorageConfig  `toml:"storage"`
	API      APIConfig      `toml:"api"`
	Log      LogConfig      `toml:"log"`
}

// RelayConfig selects the MCS endpoint and retry schedule
type RelayConfig struct {
	Host        string   `toml:"host"`
	Port        int      `toml:"port"`
	RetryBase   Duration `toml:"retry_base"`
	RetryMax    Duration `toml:"retry_max"`
	DialTimeout Duration `toml:"dial_timeout"`
}

// RegisterConfig holds the sender identity used to bootstrap credentials
type RegisterConfig struct {
	SenderID  string   `toml:"sender_id"`
	ServerKey string   `toml:"server_key"`
	Timeout   Duration `toml:"timeout"`
}

// StorageConfig locates the sqlite state database
type StorageConfig struct {
	Path            string   `toml:"path"`
	History         bool     `toml:"history"` // keep received notifications in the database
	NotificationTTL Duration `toml:"notification_ttl"`
}

// APIConfig controls the optional HTTP API
type APIConfig struct {
	Enabled   bool `toml:"enabled"`
	Port      int  `toml:"port"`
	History   int  `toml:"history"`
	RateLimit int  `toml:"rate_limit"`
}

// LogConfig controls logging
type LogConfig struct {
	Level       string `toml:"level"`
	Development bool   `toml:"development"`
	Encoding    string `toml:"encoding"`
}

// Default returns the configuration used when no file is given
func Default() *Config {
	netDefaults := network.DefaultConfig()
	apiDefaults := api.DefaultConfig()
	logDefaults := logging.DefaultConfig()

	return &Config{
		Relay: RelayConfig{
			Host:        netDefaults.Host,
			Port:        netDefaults.Port,
			RetryBase:   Duration{netDefaults.InitialRetryDelay},
			RetryMax:    Duration{netDefaults.MaxRetryDelay},
			DialTimeout: Duration{netDefaults.DialTimeout},
		},
		Register: RegisterConfig{
			ServerKey: register.ServerKey,
			Timeout:   Duration{register.DefaultConfig().Timeout},
		},
		Storage: StorageConfig{
			Path:            "fcm-receiver.db",
			History:         true,
			NotificationTTL: Duration{storage.DefaultNotificationTTL},
		},
		API: APIConfig{
			Port:      apiDefaults.Port,
			History:   apiDefaults.HistoryLimit,
			RateLimit: apiDefaults.RateLimit,
		},
		Log: LogConfig{
			Level:    logDefaults.Level,
			Encoding: logDefaults.Encoding,
		},
	}
}

// Load reads path over the defaults. Unknown keys are rejected.
func Load(path string) (*Config, error) {
	cfg := Default()

	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load config %s: %w", path, err)
	}

	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, key := range undecoded {
			keys[i] = key.String()
		}
		return nil, fmt.Errorf("%w: unknown keys %s", ErrInvalidConfig, strings.Join(keys, ", "))
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges
func (c *Config) Validate() error {
	if c.Relay.Host == "" {
		return fmt.Errorf("%w: relay.host is empty", ErrInvalidConfig)
	}
	if c.Relay.Port <= 0 || c.Relay.Port > 65535 {
		return fmt.Errorf("%w: relay.port %d out of range", ErrInvalidConfig, c.Relay.Port)
	}
	if c.Relay.RetryBase.Duration <= 0 {
		return fmt.Errorf("%w: relay.retry_base must be positive", ErrInvalidConfig)
	}
	if c.Relay.RetryMax.Duration < c.Relay.RetryBase.Duration {
		return fmt.Errorf("%w: relay.retry_max below relay.retry_base", ErrInvalidConfig)
	}
	if c.API.Enabled && (c.API.Port <= 0 || c.API.Port > 65535) {
		return fmt.Errorf("%w: api.port %d out of range", ErrInvalidConfig, c.API.Port)
	}
	if c.Storage.Path == "" {
		return fmt.Errorf("%w: storage.path is empty", ErrInvalidConfig)
	}
	if c.API.History < 0 {
		return fmt.Errorf("%w: api.history is negative", ErrInvalidConfig)
	}
	return nil
}

// Network returns the relay client configuration
func (c *Config) Network() *network.Config {
	cfg := network.DefaultConfig()
	cfg.Host = c.Relay.Host
	cfg.Port = c.Relay.Port
	cfg.InitialRetryDelay = c.Relay.RetryBase.Duration
	cfg.MaxRetryDelay = c.Relay.RetryMax.Duration
	cfg.DialTimeout = c.Relay.DialTimeout.Duration
	return cfg
}

// RegisterClient returns the registration client configuration
func (c *Config) RegisterClient() *register.Config {
	cfg := register.DefaultConfig()
	if c.Register.Timeout.Duration > 0 {
		cfg.Timeout = c.Register.Timeout.Duration
	}
	return cfg
}

// APIServer returns the HTTP API configuration
func (c *Config) APIServer() *api.Config {
	cfg := api.DefaultConfig()
	cfg.Port = c.API.Port
	cfg.RateLimit = c.API.RateLimit
	if c.API.History > 0 {
		cfg.HistoryLimit = c.API.History
	}
	return cfg
}

// Logging returns the logger configuration
func (c *Config) Logging() logging.Config {
	return logging.Config{
		Level:       c.Log.Level,
		Development: c.Log.Development,
		Encoding:    c.Log.Encoding,
	}
}
