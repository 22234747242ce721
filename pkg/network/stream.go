package network

import (
	"context"

	"go.uber.org/zap"
)

// Stream yields decrypted notification payloads. It connects lazily,
// reconnects after transport or frame errors and ends for good after a
// decryption error. A Stream is driven by a single goroutine.
type Stream struct {
	client *Client
	conn   *relayConn
	closed bool
}

// Notifications returns a stream over c. Only one stream may be driven per
// client at a time.
func (c *Client) Notifications() *Stream {
	return &Stream{client: c}
}

// Next blocks until the next payload arrives. It returns ctx.Err() when ctx
// ends, the decryption error that ended the stream, or ErrStreamClosed
// afterwards.
func (s *Stream) Next(ctx context.Context) ([]byte, error) {
	if s.closed {
		return nil, ErrStreamClosed
	}

	for {
		if s.conn == nil {
			conn, err := s.client.connect(ctx)
			if err != nil {
				return nil, err
			}
			s.conn = conn
			s.client.setState(StateStreaming)
			s.client.logger.Info("connected to relay")
		}

		stop := watch(ctx, s.conn)
		p := s.client.poll(s.conn)
		stop()

		// A payload whose id is already recorded, or a fatal error, is
		// reported even if ctx ended while the frame was being read.
		switch p.Kind {
		case PollItem:
			return p.Payload, nil
		case PollFatal:
			s.client.logger.Error("stream stopped", zap.Error(p.Err))
			s.drop()
			s.closed = true
			return nil, p.Err
		}

		if err := ctx.Err(); err != nil {
			s.drop()
			return nil, err
		}

		if p.Kind == PollReconnect {
			s.client.logger.Error("connection error, reconnecting", zap.Error(p.Err))
			s.client.reconnects.Inc()
			s.drop()
		}
	}
}

// Close releases the connection and ends the stream
func (s *Stream) Close() error {
	s.closed = true
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	s.client.setState(StateDisconnected)
	return err
}

func (s *Stream) drop() {
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
	s.client.setState(StateDisconnected)
}

// Listen drives a new stream and calls handle for each payload until ctx
// ends or the stream fails
func (c *Client) Listen(ctx context.Context, handle func(payload []byte)) error {
	stream := c.Notifications()
	defer stream.Close()

	for {
		payload, err := stream.Next(ctx)
		if err != nil {
			return err
		}
		handle(payload)
	}
}
