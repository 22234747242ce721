// Package network maintains the receiver's connection to the MCS relay and
// turns the frames it delivers into decrypted notification payloads.
package network

import (
	"crypto/ecdh"
	"fmt"

	"github.com/benbjohnson/clock"
	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/ZentaChain/fcm-receiver/pkg/credentials"
	"github.com/ZentaChain/fcm-receiver/pkg/crypto"
)

// State is the connection state of a Client
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateHandshaking
	StateStreaming
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateHandshaking:
		return "handshaking"
	case StateStreaming:
		return "streaming"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Client receives notifications for one registered device
type Client struct {
	// PersistentIDs holds the ids of data messages received since the last
	// login response. They are presented at the next login so the relay
	// does not redeliver them.
	PersistentIDs []string

	privateKey *ecdh.PrivateKey
	authSecret []byte
	gcm        credentials.GCMCredentials

	backoff   *Backoff
	transport Transport
	checkin   CheckInClient
	clock     clock.Clock
	logger    *zap.Logger

	state      atomic.Int32
	received   atomic.Int64
	duplicates atomic.Int64
	reconnects atomic.Int64
	pending    atomic.Int64
}

// NewClient creates a client from stored credentials. It fails when the key
// material cannot be decoded.
func NewClient(creds credentials.Credentials, config *Config) (*Client, error) {
	if config == nil {
		config = DefaultConfig()
	}
	cfg := config.withDefaults()

	raw, err := creds.Keys.Decode()
	if err != nil {
		return nil, err
	}
	privateKey, err := crypto.ImportKeyPair(raw.PrivateKey, raw.PublicKey)
	if err != nil {
		return nil, &credentials.DecodeError{Field: "privateKey", Err: err}
	}

	return &Client{
		privateKey: privateKey,
		authSecret: raw.AuthSecret,
		gcm:        creds.GCM,
		backoff:    NewBackoff(cfg.InitialRetryDelay, cfg.MaxRetryDelay),
		transport:  cfg.Transport,
		checkin:    cfg.CheckIn,
		clock:      cfg.Clock,
		logger:     cfg.Logger,
	}, nil
}

// State returns the current connection state. Safe for concurrent use.
func (c *Client) State() State {
	return State(c.state.Load())
}

func (c *Client) setState(s State) {
	c.state.Store(int32(s))
}

// Stats is a snapshot of client counters
type Stats struct {
	State         State
	Received      int64
	Duplicates    int64
	Reconnects    int64
	PersistentIDs int64
}

// Stats returns a snapshot of the client counters. Safe for concurrent use.
func (c *Client) Stats() Stats {
	return Stats{
		State:         c.State(),
		Received:      c.received.Load(),
		Duplicates:    c.duplicates.Load(),
		Reconnects:    c.reconnects.Load(),
		PersistentIDs: c.pending.Load(),
	}
}
