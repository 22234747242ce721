package network

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/ZentaChain/fcm-receiver/pkg/checkin"
)

// Relay defaults
const (
	DefaultHost              = "mtalk.google.com"
	DefaultPort              = 5228
	DefaultInitialRetryDelay = 5 * time.Second
	DefaultMaxRetryDelay     = 80 * time.Second
	DefaultDialTimeout       = 30 * time.Second
)

// CheckInClient refreshes the device registration before each connection
type CheckInClient interface {
	CheckIn(ctx context.Context, androidID, securityToken *uint64) (*checkin.Response, error)
}

// Config holds client configuration
type Config struct {
	Host              string
	Port              int
	InitialRetryDelay time.Duration
	MaxRetryDelay     time.Duration
	DialTimeout       time.Duration

	// Optional collaborators, defaults are built from the fields above
	Transport Transport
	CheckIn   CheckInClient
	Clock     clock.Clock
	Logger    *zap.Logger
}

// DefaultConfig returns default client configuration
func DefaultConfig() *Config {
	return &Config{
		Host:              DefaultHost,
		Port:              DefaultPort,
		InitialRetryDelay: DefaultInitialRetryDelay,
		MaxRetryDelay:     DefaultMaxRetryDelay,
		DialTimeout:       DefaultDialTimeout,
	}
}

func (c *Config) withDefaults() *Config {
	out := *c
	def := DefaultConfig()
	if out.Host == "" {
		out.Host = def.Host
	}
	if out.Port == 0 {
		out.Port = def.Port
	}
	if out.InitialRetryDelay <= 0 {
		out.InitialRetryDelay = def.InitialRetryDelay
	}
	if out.MaxRetryDelay <= 0 {
		out.MaxRetryDelay = def.MaxRetryDelay
	}
	if out.DialTimeout <= 0 {
		out.DialTimeout = def.DialTimeout
	}
	if out.Transport == nil {
		out.Transport = NewTLSTransport(out.Host, out.Port, out.DialTimeout)
	}
	if out.CheckIn == nil {
		out.CheckIn = checkin.NewClient(nil)
	}
	if out.Clock == nil {
		out.Clock = clock.New()
	}
	if out.Logger == nil {
		out.Logger = zap.L().Named("network")
	}
	return &out
}
