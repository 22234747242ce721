package network

import (
	"bufio"
	"context"
	"crypto/tls"
	"net"
	"strconv"
	"time"
)

// Transport opens the byte stream to the relay. Dial establishes the raw
// connection and Handshake secures it.
type Transport interface {
	Dial(ctx context.Context) (net.Conn, error)
	Handshake(ctx context.Context, conn net.Conn) (net.Conn, error)
}

// TLSTransport dials TCP and verifies the relay certificate against the
// system roots
type TLSTransport struct {
	Address     string
	ServerName  string
	DialTimeout time.Duration
	TLSConfig   *tls.Config
}

// NewTLSTransport creates a transport for host:port
func NewTLSTransport(host string, port int, dialTimeout time.Duration) *TLSTransport {
	return &TLSTransport{
		Address:     net.JoinHostPort(host, strconv.Itoa(port)),
		ServerName:  host,
		DialTimeout: dialTimeout,
	}
}

// Dial opens a TCP connection
func (t *TLSTransport) Dial(ctx context.Context) (net.Conn, error) {
	dialer := &net.Dialer{Timeout: t.DialTimeout}
	return dialer.DialContext(ctx, "tcp", t.Address)
}

// Handshake runs the TLS client handshake over conn
func (t *TLSTransport) Handshake(ctx context.Context, conn net.Conn) (net.Conn, error) {
	cfg := &tls.Config{MinVersion: tls.VersionTLS12}
	if t.TLSConfig != nil {
		cfg = t.TLSConfig.Clone()
	}
	if cfg.ServerName == "" {
		cfg.ServerName = t.ServerName
	}

	tlsConn := tls.Client(conn, cfg)
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		return nil, err
	}
	return tlsConn, nil
}

// relayConn is an established relay connection with buffered reads
type relayConn struct {
	net.Conn
	reader *bufio.Reader
}

func newRelayConn(conn net.Conn) *relayConn {
	return &relayConn{Conn: conn, reader: bufio.NewReader(conn)}
}

func (c *relayConn) Read(p []byte) (int, error) { return c.reader.Read(p) }

func (c *relayConn) ReadByte() (byte, error) { return c.reader.ReadByte() }

var aLongTimeAgo = time.Unix(1, 0)

// watch interrupts blocking I/O on conn once ctx is done. The returned
// function stops watching.
func watch(ctx context.Context, conn net.Conn) func() bool {
	return context.AfterFunc(ctx, func() {
		conn.SetDeadline(aLongTimeAgo)
	})
}
