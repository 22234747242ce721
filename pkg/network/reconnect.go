package network

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// connect attempts to connect until it succeeds. Failures are logged and
// retried after a doubling delay, which restarts at the initial delay once a
// connection is established. It only returns an error when ctx ends.
func (c *Client) connect(ctx context.Context) (*relayConn, error) {
	conn, err := c.tryConnect(ctx)
	if err == nil {
		c.backoff.Reset()
		return conn, nil
	}
	c.logger.Debug("connection attempt failed", zap.Error(err))

	for attempt := 1; ; attempt++ {
		if ctx.Err() != nil {
			c.setState(StateDisconnected)
			return nil, ctx.Err()
		}

		delay := c.backoff.Next()
		c.logger.Warn("connection failed, retrying",
			zap.Duration("delay", delay),
			zap.Int("attempt", attempt))

		if err := c.sleep(ctx, delay); err != nil {
			c.setState(StateDisconnected)
			return nil, err
		}

		conn, err = c.tryConnect(ctx)
		if err == nil {
			c.backoff.Reset()
			return conn, nil
		}
		c.logger.Debug("connection attempt failed", zap.Error(err), zap.Int("attempt", attempt))
	}
}

// sleep waits for d on the client clock or until ctx ends
func (c *Client) sleep(ctx context.Context, d time.Duration) error {
	timer := c.clock.Timer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
