// Package register bootstraps a push receiver identity: it checks in a new
// device, registers it with GCM and subscribes it to FCM web push.
package register

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ZentaChain/fcm-receiver/pkg/checkin"
	"github.com/ZentaChain/fcm-receiver/pkg/credentials"
)

// ServerKey is the public web push server key registrations are made
// against when no other key is configured
const ServerKey = "BDOU99-h67HcA6JeFXHbSNMu7e2yNNu3RzoMj8TM4W88jITfq7ZmPvIM1Iv-4_l2LxQcYwhqby2xGpWwzjfAnG4"

// Endpoints and identifiers used during registration
const (
	DefaultRegisterURL  = "https://android.clients.google.com/c2dm/register3"
	DefaultSubscribeURL = "https://fcm.googleapis.com/fcm/connect/subscribe"
	DefaultSendURL      = "https://fcm.googleapis.com/fcm/send"
	DefaultAppName      = "org.chromium.linux"
	AppIDPrefix         = "wp:receiver.push.com#"
)

// Step identifies the registration stage that failed
type Step int

const (
	StepCheckIn Step = iota
	StepGCM
	StepKeys
	StepFCM
)

func (s Step) String() string {
	switch s {
	case StepCheckIn:
		return "check-in"
	case StepGCM:
		return "gcm register"
	case StepKeys:
		return "key generation"
	case StepFCM:
		return "fcm subscribe"
	default:
		return fmt.Sprintf("Step(%d)", int(s))
	}
}

// Error is returned when a registration step fails
type Error struct {
	Step       Step
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("register: %s failed with status %d: %v", e.Step, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("register: %s failed: %v", e.Step, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Config holds registration endpoints and HTTP settings
type Config struct {
	CheckInURL   string
	RegisterURL  string
	SubscribeURL string
	SendURL      string
	AppName      string
	Timeout      time.Duration
	HTTPClient   *http.Client
	Logger       *zap.Logger
}

// DefaultConfig returns the production endpoints
func DefaultConfig() *Config {
	return &Config{
		CheckInURL:   checkin.DefaultURL,
		RegisterURL:  DefaultRegisterURL,
		SubscribeURL: DefaultSubscribeURL,
		SendURL:      DefaultSendURL,
		AppName:      DefaultAppName,
		Timeout:      30 * time.Second,
	}
}

// Registrar runs the registration flow
type Registrar struct {
	config  *Config
	http    *http.Client
	checkin *checkin.Client
	logger  *zap.Logger
}

// NewRegistrar creates a registrar. Empty config fields fall back to defaults.
func NewRegistrar(config *Config) *Registrar {
	cfg := DefaultConfig()
	if config != nil {
		merged := *config
		if merged.CheckInURL == "" {
			merged.CheckInURL = cfg.CheckInURL
		}
		if merged.RegisterURL == "" {
			merged.RegisterURL = cfg.RegisterURL
		}
		if merged.SubscribeURL == "" {
			merged.SubscribeURL = cfg.SubscribeURL
		}
		if merged.SendURL == "" {
			merged.SendURL = cfg.SendURL
		}
		if merged.AppName == "" {
			merged.AppName = cfg.AppName
		}
		if merged.Timeout == 0 {
			merged.Timeout = cfg.Timeout
		}
		cfg = &merged
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.L().Named("register")
	}

	return &Registrar{
		config: cfg,
		http:   httpClient,
		checkin: checkin.NewClient(&checkin.Config{
			URL:        cfg.CheckInURL,
			HTTPClient: httpClient,
			Logger:     logger.Named("checkin"),
		}),
		logger: logger,
	}
}

// Register creates credentials for senderID using the default server key and
// production endpoints
func Register(ctx context.Context, senderID string) (*credentials.Credentials, error) {
	return RegisterWith(ctx, senderID, ServerKey, nil)
}

// RegisterWith creates credentials for senderID against serverKey
func RegisterWith(ctx context.Context, senderID, serverKey string, config *Config) (*credentials.Credentials, error) {
	return NewRegistrar(config).Register(ctx, senderID, serverKey)
}

// Register runs check-in, GCM registration and FCM subscription
func (r *Registrar) Register(ctx context.Context, senderID, serverKey string) (*credentials.Credentials, error) {
	appID := AppIDPrefix + uuid.New().String()

	gcm, err := r.registerGCM(ctx, appID, serverKey)
	if err != nil {
		return nil, err
	}
	r.logger.Info("registered with gcm", zap.String("app_id", appID), zap.String("android_id", gcm.AndroidID))

	keys, err := credentials.NewKeys()
	if err != nil {
		return nil, &Error{Step: StepKeys, Err: err}
	}

	fcm, err := r.subscribeFCM(ctx, senderID, gcm.Token, keys)
	if err != nil {
		return nil, err
	}
	r.logger.Info("subscribed to fcm", zap.String("sender_id", senderID))

	return &credentials.Credentials{
		Keys: keys,
		GCM:  *gcm,
		FCM:  *fcm,
	}, nil
}
