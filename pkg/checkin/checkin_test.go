package checkin

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"
)

func marshalResponse(r *Response) []byte {
	var b []byte
	b = protowire.AppendTag(b, fieldResponseStatsOK, protowire.VarintType)
	b = protowire.AppendVarint(b, protowire.EncodeBool(r.StatsOK))
	b = protowire.AppendTag(b, fieldResponseAndroidID, protowire.Fixed64Type)
	b = protowire.AppendFixed64(b, r.AndroidID)
	b = protowire.AppendTag(b, fieldResponseSecurityToken, protowire.Fixed64Type)
	b = protowire.AppendFixed64(b, r.SecurityToken)
	return b
}

// fields flattens one level of a protobuf message into field number -> raw values
func fields(t *testing.T, b []byte) map[protowire.Number][]any {
	t.Helper()
	out := make(map[protowire.Number][]any)
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		require.GreaterOrEqual(t, n, 0)
		b = b[n:]
		switch typ {
		case protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			require.GreaterOrEqual(t, n, 0)
			out[num] = append(out[num], v)
			b = b[n:]
		case protowire.Fixed64Type:
			v, n := protowire.ConsumeFixed64(b)
			require.GreaterOrEqual(t, n, 0)
			out[num] = append(out[num], v)
			b = b[n:]
		case protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			require.GreaterOrEqual(t, n, 0)
			out[num] = append(out[num], v)
			b = b[n:]
		default:
			t.Fatalf("unexpected wire type %d for field %d", typ, num)
		}
	}
	return out
}

func TestRequestMarshalNewDevice(t *testing.T) {
	top := fields(t, NewRequest(nil, nil).Marshal())

	assert.NotContains(t, top, protowire.Number(fieldRequestID))
	assert.NotContains(t, top, protowire.Number(fieldRequestSecurityToken))
	assert.Equal(t, []any{uint64(3)}, top[fieldRequestVersion])
	assert.Equal(t, []any{uint64(0)}, top[fieldRequestUserSerialNumber])

	require.Len(t, top[fieldRequestCheckin], 1)
	checkin := fields(t, top[fieldRequestCheckin][0].([]byte))
	assert.Equal(t, []any{uint64(3)}, checkin[fieldCheckinType])

	require.Len(t, checkin[fieldCheckinChromeBuild], 1)
	build := fields(t, checkin[fieldCheckinChromeBuild][0].([]byte))
	assert.Equal(t, []any{uint64(2)}, build[fieldChromePlatform])
	assert.Equal(t, []any{[]byte("63.0.3234.0")}, build[fieldChromeVersion])
	assert.Equal(t, []any{uint64(1)}, build[fieldChromeChannel])
}

func TestRequestMarshalExistingDevice(t *testing.T) {
	id := uint64(5074389235418429211)
	token := uint64(8814957634105838128)

	top := fields(t, NewRequest(&id, &token).Marshal())
	assert.Equal(t, []any{id}, top[fieldRequestID])
	assert.Equal(t, []any{token}, top[fieldRequestSecurityToken])
}

func TestUnmarshalResponse(t *testing.T) {
	want := &Response{StatsOK: true, AndroidID: 5074389235418429211, SecurityToken: 8814957634105838128}

	// Unknown fields (time_msec = 3, digest = 4) must be skipped.
	body := protowire.AppendTag(nil, 3, protowire.VarintType)
	body = protowire.AppendVarint(body, 1700000000000)
	body = protowire.AppendTag(body, 4, protowire.BytesType)
	body = protowire.AppendString(body, "digest")
	body = append(body, marshalResponse(want)...)

	got, err := UnmarshalResponse(body)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestUnmarshalResponseMalformed(t *testing.T) {
	tests := []struct {
		name string
		body []byte
	}{
		{name: "truncated fixed64", body: []byte{0x39, 1, 2, 3}},
		{name: "android id as varint", body: []byte{0x38, 1}},
		{name: "bad tag", body: []byte{0xff}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UnmarshalResponse(tt.body)
			assert.Error(t, err)
		})
	}
}

func TestCheckIn(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/x-protobuf", r.Header.Get("Content-Type"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		top := fields(t, body)
		assert.Equal(t, []any{uint64(42)}, top[fieldRequestID])

		w.Write(marshalResponse(&Response{StatsOK: true, AndroidID: 42, SecurityToken: 99}))
	}))
	defer server.Close()

	client := NewClient(&Config{URL: server.URL, HTTPClient: server.Client()})

	id, token := uint64(42), uint64(99)
	resp, err := client.CheckIn(context.Background(), &id, &token)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), resp.AndroidID)
	assert.Equal(t, uint64(99), resp.SecurityToken)
	assert.True(t, resp.StatsOK)
}

func TestCheckInErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		kind    ErrorKind
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			kind: ErrorStatus,
		},
		{
			name: "garbage body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte{0xff, 0xff})
			},
			kind: ErrorDecode,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			client := NewClient(&Config{URL: server.URL})
			_, err := client.CheckIn(context.Background(), nil, nil)

			var checkinErr *Error
			require.True(t, errors.As(err, &checkinErr), "got %v", err)
			assert.Equal(t, tt.kind, checkinErr.Kind)
		})
	}
}

func TestCheckInCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClient(&Config{URL: "http://127.0.0.1:1"})
	_, err := client.CheckIn(ctx, nil, nil)
	assert.ErrorIs(t, err, context.Canceled)
}
