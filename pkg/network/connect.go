package network

import (
	"context"
	"io"
	"net"
	"strconv"

	"go.uber.org/zap"

	"github.com/ZentaChain/fcm-receiver/pkg/mcs"
)

// checkIn refreshes the device registration. Ids that do not parse are
// sent as absent.
func (c *Client) checkIn(ctx context.Context) error {
	var androidID, securityToken *uint64
	if v, err := strconv.ParseUint(c.gcm.AndroidID, 10, 64); err == nil {
		androidID = &v
	}
	if v, err := strconv.ParseUint(c.gcm.SecurityToken, 10, 64); err == nil {
		securityToken = &v
	}

	resp, err := c.checkin.CheckIn(ctx, androidID, securityToken)
	if err != nil {
		return err
	}
	c.logger.Debug("check-in response",
		zap.Uint64("android_id", resp.AndroidID),
		zap.Bool("stats_ok", resp.StatsOK))
	return nil
}

// tryConnect makes one connection attempt: check-in, dial, secure, login
// and version exchange
func (c *Client) tryConnect(ctx context.Context) (*relayConn, error) {
	c.setState(StateConnecting)

	if err := c.checkIn(ctx); err != nil {
		return nil, &ConnectError{Kind: ConnectCheckIn, Err: err}
	}

	raw, err := c.transport.Dial(ctx)
	if err != nil {
		return nil, &ConnectError{Kind: ConnectTransport, Err: err}
	}

	c.setState(StateHandshaking)
	secure, err := c.transport.Handshake(ctx, raw)
	if err != nil {
		raw.Close()
		return nil, &ConnectError{Kind: ConnectHandshake, Err: err}
	}

	conn, err := c.login(ctx, secure)
	if err != nil {
		secure.Close()
		return nil, err
	}
	return conn, nil
}

// login sends the version byte and the login frame, then reads the relay's
// version byte
func (c *Client) login(ctx context.Context, conn net.Conn) (*relayConn, error) {
	req, err := c.loginRequest()
	if err != nil {
		return nil, &ConnectError{Kind: ConnectLogin, Err: err}
	}
	frame, err := mcs.EncodeFrame(req)
	if err != nil {
		return nil, &ConnectError{Kind: ConnectLogin, Err: err}
	}

	stop := watch(ctx, conn)
	defer stop()

	buf := make([]byte, 0, 1+len(frame))
	buf = append(buf, mcs.Version)
	buf = append(buf, frame...)
	if _, err := conn.Write(buf); err != nil {
		return nil, &ConnectError{Kind: ConnectIO, Err: contextError(ctx, err)}
	}

	rc := newRelayConn(conn)
	version, err := rc.ReadByte()
	if err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, &ConnectError{Kind: ConnectIO, Err: contextError(ctx, err)}
	}
	if version != mcs.Version {
		c.logger.Warn("unexpected mcs version",
			zap.Uint8("version", version),
			zap.Uint8("expected", mcs.Version))
	}

	c.pending.Store(int64(len(c.PersistentIDs)))
	return rc, nil
}

// contextError prefers the context's error when an I/O error was caused by
// cancellation
func contextError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return err
}
