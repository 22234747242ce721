// Package checkin implements the Android device check-in that issues the
// android id and security token a push receiver logs in with.
package checkin

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// DefaultURL is the Android check-in endpoint
const DefaultURL = "https://android.clients.google.com/checkin"

const contentType = "application/x-protobuf"

// ErrorKind classifies a check-in failure
type ErrorKind int

const (
	ErrorTransport ErrorKind = iota // request could not be sent or read
	ErrorStatus                     // non-2xx response
	ErrorDecode                     // response body is not a valid AndroidCheckinResponse
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorTransport:
		return "transport"
	case ErrorStatus:
		return "status"
	case ErrorDecode:
		return "decode"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// Error is returned by CheckIn
type Error struct {
	Kind       ErrorKind
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.Kind == ErrorStatus {
		return fmt.Sprintf("gcm check-in failed: status %d", e.StatusCode)
	}
	return fmt.Sprintf("gcm check-in failed (%s): %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Config holds check-in client configuration
type Config struct {
	URL        string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// DefaultConfig returns default check-in configuration
func DefaultConfig() *Config {
	return &Config{
		URL:     DefaultURL,
		Timeout: 30 * time.Second,
	}
}

// Client performs device check-ins
type Client struct {
	url    string
	http   *http.Client
	logger *zap.Logger
}

// NewClient creates a check-in client
func NewClient(config *Config) *Client {
	if config == nil {
		config = DefaultConfig()
	}

	url := config.URL
	if url == "" {
		url = DefaultURL
	}
	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: config.Timeout}
	}
	logger := config.Logger
	if logger == nil {
		logger = zap.L().Named("checkin")
	}

	return &Client{url: url, http: httpClient, logger: logger}
}

// CheckIn posts an AndroidCheckinRequest. Passing nil ids registers a new
// device; passing existing ones refreshes that device.
func (c *Client) CheckIn(ctx context.Context, androidID, securityToken *uint64) (*Response, error) {
	body := NewRequest(androidID, securityToken).Marshal()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, &Error{Kind: ErrorTransport, Err: err}
	}
	req.Header.Set("Content-Type", contentType)

	c.logger.Debug("checking in", zap.Bool("new_device", androidID == nil))

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &Error{Kind: ErrorTransport, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{Kind: ErrorStatus, StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Kind: ErrorTransport, Err: err}
	}

	result, err := UnmarshalResponse(data)
	if err != nil {
		return nil, &Error{Kind: ErrorDecode, Err: err}
	}

	c.logger.Debug("check-in complete",
		zap.Uint64("android_id", result.AndroidID),
		zap.Bool("stats_ok", result.StatsOK))
	return result, nil
}
