package network

import (
	"bufio"
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ZentaChain/fcm-receiver/pkg/checkin"
	"github.com/ZentaChain/fcm-receiver/pkg/credentials"
	"github.com/ZentaChain/fcm-receiver/pkg/crypto"
	"github.com/ZentaChain/fcm-receiver/pkg/mcs"
)

// Legacy aesgcm test vector, decrypts to "I am the walrus"
const (
	vectorPrivateKey = "9FWl15_QUQAWDaD3k3l50ZBZQJ4au27F1V4F0uLSD_M"
	vectorPublicKey  = "BCEkBjzL8Z3C-oi2Q7oE5t2Np-p7osjGLg93qUP0wvqRT21EEWyf0cQDQcakQMqz4hQKYOQ3il2nNZct4HgAUQU"
	vectorAuth       = "R29vIGdvbyBnJyBqb29iIQ"
	vectorSalt       = "lngarbyKfMoi9Z75xYXmkg"
	vectorDH         = "BNoRDbb84JGm8g5Z5CFxurSqsXWJ11ItfXEWYVLE85Y7CYkDjXsIEc4aqxYaQ1G8BqkXCJ6DPpDrWtdWj_mugHU"
	vectorCiphertext = "6nqAQUME8hNqw5J3kl8cpVVJylXKYqZOeseZG8UueKpA"
	walrus           = "I am the walrus"

	testAndroidID     = "5074389235418429211"
	testSecurityToken = "8814957634105838128"
)

var errDialRefused = errors.New("connection refused")

func testCredentials() credentials.Credentials {
	return credentials.Credentials{
		Keys: credentials.Keys{
			PrivateKey: vectorPrivateKey,
			PublicKey:  vectorPublicKey,
			AuthSecret: vectorAuth,
		},
		GCM: credentials.GCMCredentials{
			Token:         "gcm-token",
			AndroidID:     testAndroidID,
			SecurityToken: testSecurityToken,
			AppID:         "wp:receiver.push.com#3f2504e0-4f89-11d3-9a0c-0305e82c3301",
		},
	}
}

func walrusMessage(t *testing.T, persistentID string) *mcs.DataMessageStanza {
	t.Helper()
	ciphertext, err := crypto.DecodeKey(vectorCiphertext)
	require.NoError(t, err)

	return &mcs.DataMessageStanza{
		From:         "1234567890",
		Category:     "org.chromium.linux",
		PersistentID: persistentID,
		AppData: []mcs.AppData{
			{Key: "subtype", Value: "wp:receiver.push.com#3f2504e0-4f89-11d3-9a0c-0305e82c3301"},
			{Key: CryptoKeyHeader, Value: "dh=" + vectorDH},
			{Key: EncryptionHeader, Value: "salt=" + vectorSalt},
		},
		RawData: ciphertext,
	}
}

// fakeCheckIn records check-in calls
type fakeCheckIn struct {
	mu    sync.Mutex
	calls [][2]*uint64
	err   error
}

func (f *fakeCheckIn) CheckIn(ctx context.Context, androidID, securityToken *uint64) (*checkin.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, [2]*uint64{androidID, securityToken})
	if f.err != nil {
		return nil, f.err
	}
	resp := &checkin.Response{StatsOK: true}
	if androidID != nil {
		resp.AndroidID = *androidID
	}
	if securityToken != nil {
		resp.SecurityToken = *securityToken
	}
	return resp, nil
}

// fakeTransport hands out in-memory pipes queued by expect. The first
// failures dials, and any dial with no relay queued, are refused.
type fakeTransport struct {
	clock    clock.Clock
	failures int

	mu      sync.Mutex
	dials   []time.Time
	pending chan net.Conn
}

func newFakeTransport(clk clock.Clock, failures int) *fakeTransport {
	return &fakeTransport{clock: clk, failures: failures, pending: make(chan net.Conn, 16)}
}

func (f *fakeTransport) Dial(ctx context.Context) (net.Conn, error) {
	f.mu.Lock()
	f.dials = append(f.dials, f.clock.Now())
	n := len(f.dials)
	f.mu.Unlock()

	if n <= f.failures {
		return nil, errDialRefused
	}
	select {
	case conn := <-f.pending:
		return conn, nil
	default:
		return nil, errDialRefused
	}
}

func (f *fakeTransport) Handshake(ctx context.Context, conn net.Conn) (net.Conn, error) {
	return conn, nil
}

func (f *fakeTransport) dialTimes() []time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]time.Time(nil), f.dials...)
}

// fakeRelay is the server side of one connection
type fakeRelay struct {
	conn   net.Conn
	reader *bufio.Reader
}

// expect queues a relay for the next successful dial
func (f *fakeTransport) expect(t *testing.T) *fakeRelay {
	t.Helper()
	client, server := net.Pipe()
	t.Cleanup(func() { server.Close() })
	f.pending <- client
	return &fakeRelay{conn: server, reader: bufio.NewReader(server)}
}

// handshake reads the client version and login and answers with version
func (r *fakeRelay) handshake(version byte) (*mcs.LoginRequest, error) {
	v, err := r.reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if v != mcs.Version {
		return nil, errors.New("unexpected client version")
	}
	msg, err := mcs.ReadMessage(r.reader)
	if err != nil {
		return nil, err
	}
	login, ok := msg.(*mcs.LoginRequest)
	if !ok {
		return nil, errors.New("first frame is not a login request")
	}
	if _, err := r.conn.Write([]byte{version}); err != nil {
		return nil, err
	}
	return login, nil
}

func (r *fakeRelay) send(msgs ...mcs.Message) error {
	for _, msg := range msgs {
		if err := mcs.WriteMessage(r.conn, msg); err != nil {
			return err
		}
	}
	return nil
}

// serve runs a relay session in the background: handshake, then msgs. The
// login request is delivered on the returned channel.
func (r *fakeRelay) serve(msgs ...mcs.Message) <-chan *mcs.LoginRequest {
	logins := make(chan *mcs.LoginRequest, 1)
	go func() {
		login, err := r.handshake(mcs.Version)
		if err != nil {
			close(logins)
			return
		}
		logins <- login
		r.send(msgs...)
	}()
	return logins
}

func newTestClient(t *testing.T, transport Transport, checkIn CheckInClient, clk clock.Clock, logger *zap.Logger) *Client {
	t.Helper()
	if logger == nil {
		logger = zap.NewNop()
	}
	client, err := NewClient(testCredentials(), &Config{
		Transport: transport,
		CheckIn:   checkIn,
		Clock:     clk,
		Logger:    logger,
	})
	require.NoError(t, err)
	return client
}

func withTimeout(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}
