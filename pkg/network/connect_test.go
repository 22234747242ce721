package network

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ZentaChain/fcm-receiver/pkg/credentials"
	"github.com/ZentaChain/fcm-receiver/pkg/mcs"
)

func TestBackoffSchedule(t *testing.T) {
	b := NewBackoff(5*time.Second, 80*time.Second)

	want := []time.Duration{5, 10, 20, 40, 80, 80, 80}
	for i, w := range want {
		assert.Equal(t, w*time.Second, b.Next(), "delay %d", i)
	}

	b.Reset()
	assert.Equal(t, 5*time.Second, b.Next())
}

func TestBackoffCeilingBelowBase(t *testing.T) {
	b := NewBackoff(5*time.Second, time.Second)
	assert.Equal(t, 5*time.Second, b.Next())
	assert.Equal(t, 5*time.Second, b.Next())
}

func TestLoginRequest(t *testing.T) {
	client := newTestClient(t, newFakeTransport(clock.New(), 0), &fakeCheckIn{}, nil, nil)
	client.PersistentIDs = []string{"0:1%a", "0:2%b"}

	login, err := client.loginRequest()
	require.NoError(t, err)

	assert.Equal(t, &mcs.LoginRequest{
		ID:                    "chrome-63.0.3234.0",
		Domain:                "mcs.android.com",
		User:                  testAndroidID,
		Resource:              testAndroidID,
		AuthToken:             testSecurityToken,
		DeviceID:              "android-466bda1fd52e771b",
		Settings:              []mcs.Setting{{Name: "new_vc", Value: "1"}},
		ReceivedPersistentIDs: []string{"0:1%a", "0:2%b"},
		AdaptiveHeartbeat:     false,
		UseRMQ2:               true,
		AuthService:           2,
		NetworkType:           1,
	}, login)

	// The ids are copied, not handed over.
	assert.Equal(t, []string{"0:1%a", "0:2%b"}, client.PersistentIDs)
	login.ReceivedPersistentIDs[0] = "changed"
	assert.Equal(t, "0:1%a", client.PersistentIDs[0])
}

func TestTryConnect(t *testing.T) {
	transport := newFakeTransport(clock.New(), 0)
	checkIn := &fakeCheckIn{}
	client := newTestClient(t, transport, checkIn, nil, nil)
	client.PersistentIDs = []string{"0:1%a"}

	logins := transport.expect(t).serve()

	conn, err := client.tryConnect(withTimeout(t))
	require.NoError(t, err)
	defer conn.Close()

	login := <-logins
	require.NotNil(t, login)
	assert.Equal(t, []string{"0:1%a"}, login.ReceivedPersistentIDs)
	assert.Equal(t, testSecurityToken, login.AuthToken)

	require.Len(t, checkIn.calls, 1)
	require.NotNil(t, checkIn.calls[0][0])
	require.NotNil(t, checkIn.calls[0][1])
	assert.Equal(t, uint64(5074389235418429211), *checkIn.calls[0][0])
	assert.Equal(t, uint64(8814957634105838128), *checkIn.calls[0][1])
	assert.Equal(t, StateHandshaking, client.State())
}

func TestTryConnectErrors(t *testing.T) {
	checkInFailure := errors.New("check-in unavailable")

	tests := []struct {
		name    string
		setup   func(t *testing.T) (*Client, *fakeTransport)
		kind    ConnectErrorKind
		wantErr error
	}{
		{
			name: "check-in",
			setup: func(t *testing.T) (*Client, *fakeTransport) {
				transport := newFakeTransport(clock.New(), 0)
				return newTestClient(t, transport, &fakeCheckIn{err: checkInFailure}, nil, nil), transport
			},
			kind:    ConnectCheckIn,
			wantErr: checkInFailure,
		},
		{
			name: "dial",
			setup: func(t *testing.T) (*Client, *fakeTransport) {
				transport := newFakeTransport(clock.New(), 1)
				return newTestClient(t, transport, &fakeCheckIn{}, nil, nil), transport
			},
			kind:    ConnectTransport,
			wantErr: errDialRefused,
		},
		{
			name: "invalid android id",
			setup: func(t *testing.T) (*Client, *fakeTransport) {
				transport := newFakeTransport(clock.New(), 0)
				transport.expect(t)
				client := newTestClient(t, transport, &fakeCheckIn{}, nil, nil)
				client.gcm.AndroidID = "not-a-number"
				return client, transport
			},
			kind:    ConnectLogin,
			wantErr: ErrInvalidAndroidID,
		},
		{
			name: "relay closes before version",
			setup: func(t *testing.T) (*Client, *fakeTransport) {
				transport := newFakeTransport(clock.New(), 0)
				relay := transport.expect(t)
				go func() {
					relay.reader.ReadByte()
					mcs.ReadMessage(relay.reader)
					relay.conn.Close()
				}()
				return newTestClient(t, transport, &fakeCheckIn{}, nil, nil), transport
			},
			kind: ConnectIO,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := tt.setup(t)

			conn, err := client.tryConnect(withTimeout(t))
			assert.Nil(t, conn)

			var connectErr *ConnectError
			require.True(t, errors.As(err, &connectErr), "got %v", err)
			assert.Equal(t, tt.kind, connectErr.Kind)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestCheckInSkipsUnparsableIDs(t *testing.T) {
	checkIn := &fakeCheckIn{}
	client := newTestClient(t, newFakeTransport(clock.New(), 0), checkIn, nil, nil)
	client.gcm.AndroidID = ""
	client.gcm.SecurityToken = "-1"

	require.NoError(t, client.checkIn(context.Background()))
	require.Len(t, checkIn.calls, 1)
	assert.Nil(t, checkIn.calls[0][0])
	assert.Nil(t, checkIn.calls[0][1])
}

func TestVersionMismatchIsOnlyAWarning(t *testing.T) {
	transport := newFakeTransport(clock.New(), 0)
	core, logs := observer.New(zap.WarnLevel)
	client := newTestClient(t, transport, &fakeCheckIn{}, nil, zap.New(core))

	relay := transport.expect(t)
	go relay.handshake(40)

	conn, err := client.tryConnect(withTimeout(t))
	require.NoError(t, err)
	conn.Close()

	assert.Equal(t, 1, logs.FilterMessage("unexpected mcs version").Len())
}

// advanceUntil moves the mock clock forward in small steps until cond holds
func advanceUntil(t *testing.T, mock *clock.Mock, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not reached")
		}
		mock.Add(100 * time.Millisecond)
	}
}

func TestConnectRetriesWithBackoff(t *testing.T) {
	mock := clock.NewMock()
	transport := newFakeTransport(mock, 4)
	core, logs := observer.New(zap.WarnLevel)
	client := newTestClient(t, transport, &fakeCheckIn{}, mock, zap.New(core))

	transport.expect(t).serve()

	type result struct {
		conn *relayConn
		err  error
	}
	done := make(chan result, 1)
	go func() {
		conn, err := client.connect(context.Background())
		done <- result{conn, err}
	}()

	advanceUntil(t, mock, func() bool { return len(transport.dialTimes()) >= 5 })

	var res result
	select {
	case res = <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("connect did not return")
	}
	require.NoError(t, res.err)
	res.conn.Close()

	dials := transport.dialTimes()
	require.Len(t, dials, 5)
	for i, want := range []time.Duration{5, 10, 20, 40} {
		gap := dials[i+1].Sub(dials[i])
		assert.GreaterOrEqual(t, gap, want*time.Second, "gap %d", i)
		assert.Less(t, gap, want*time.Second+time.Second, "gap %d", i)
	}

	assert.Equal(t, 4, logs.FilterMessage("connection failed, retrying").Len())
}

func TestConnectRestartsBackoffAfterSuccess(t *testing.T) {
	mock := clock.NewMock()
	transport := newFakeTransport(mock, 3)
	core, logs := observer.New(zap.WarnLevel)
	client := newTestClient(t, transport, &fakeCheckIn{}, mock, zap.New(core))
	retries := func() int { return logs.FilterMessage("connection failed, retrying").Len() }

	connect := func() <-chan error {
		done := make(chan error, 1)
		go func() {
			conn, err := client.connect(context.Background())
			if err == nil {
				conn.Close()
			}
			done <- err
		}()
		return done
	}
	wait := func(done <-chan error) {
		t.Helper()
		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("connect did not return")
		}
	}

	// Three refusals walk the schedule up to 20s before the relay answers.
	transport.expect(t).serve()
	done := connect()
	advanceUntil(t, mock, func() bool { return len(transport.dialTimes()) >= 4 })
	wait(done)

	// No relay is queued, so the next connect's first dial is refused.
	done = connect()
	advanceUntil(t, mock, func() bool { return retries() >= 4 })
	transport.expect(t).serve()
	advanceUntil(t, mock, func() bool { return len(transport.dialTimes()) >= 6 })
	wait(done)

	dials := transport.dialTimes()
	require.Len(t, dials, 6)
	gap := dials[5].Sub(dials[4])
	assert.GreaterOrEqual(t, gap, 5*time.Second)
	assert.Less(t, gap, 6*time.Second)
}

func TestConnectCancelDuringBackoff(t *testing.T) {
	mock := clock.NewMock()
	transport := newFakeTransport(mock, 100)
	client := newTestClient(t, transport, &fakeCheckIn{}, mock, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := client.connect(ctx)
		done <- err
	}()

	advanceUntil(t, mock, func() bool { return len(transport.dialTimes()) >= 2 })
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("connect did not return after cancellation")
	}
	assert.Equal(t, StateDisconnected, client.State())
}

func TestNewClientRejectsBadKeys(t *testing.T) {
	tests := []struct {
		name  string
		field string
		set   func(c *credentials.Credentials)
	}{
		{name: "bad base64", field: "authSecret", set: func(c *credentials.Credentials) { c.Keys.AuthSecret = "!!" }},
		{name: "mismatched public key", field: "privateKey", set: func(c *credentials.Credentials) { c.Keys.PublicKey = vectorDH }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			creds := testCredentials()
			tt.set(&creds)

			_, err := NewClient(creds, nil)
			var decodeErr *credentials.DecodeError
			require.True(t, errors.As(err, &decodeErr), "got %v", err)
			assert.Equal(t, tt.field, decodeErr.Field)
		})
	}
}

func TestDecodeHeaderToleratesPadding(t *testing.T) {
	unpadded, err := decodeHeader("salt="+vectorSalt, encryptionPrefixLen)
	require.NoError(t, err)
	padded, err := decodeHeader("salt="+vectorSalt+"==", encryptionPrefixLen)
	require.NoError(t, err)
	assert.Equal(t, unpadded, padded)
	assert.Len(t, unpadded, 16)

	_, err = decodeHeader("dh", cryptoKeyPrefixLen)
	assert.Error(t, err)
}
