package network

import (
	"slices"

	"go.uber.org/zap"

	"github.com/ZentaChain/fcm-receiver/pkg/mcs"
)

// PollKind is the outcome of handling one frame
type PollKind int

const (
	// PollItem carries a decrypted payload for the consumer
	PollItem PollKind = iota
	// PollContinue means the frame produced nothing and reading goes on
	PollContinue
	// PollReconnect means the connection is unusable and must be replaced
	PollReconnect
	// PollFatal ends the stream
	PollFatal
)

// Poll is the result of poll and dispatch
type Poll struct {
	Kind    PollKind
	Payload []byte
	Err     error
}

// poll reads one frame from src and dispatches it
func (c *Client) poll(src mcs.Source) Poll {
	msg, err := mcs.ReadMessage(src)
	if err != nil {
		return Poll{Kind: PollReconnect, Err: err}
	}
	return c.dispatch(msg)
}

// dispatch applies one message to the client state
func (c *Client) dispatch(msg mcs.Message) Poll {
	switch m := msg.(type) {
	case *mcs.LoginResponse:
		c.logger.Debug("login response", zap.Int("acknowledged", len(c.PersistentIDs)))
		c.PersistentIDs = nil
		c.pending.Store(0)
		return Poll{Kind: PollContinue}

	case *mcs.DataMessageStanza:
		if slices.Contains(c.PersistentIDs, m.PersistentID) {
			c.duplicates.Inc()
			c.logger.Debug("duplicate data message", zap.String("persistent_id", m.PersistentID))
			return Poll{Kind: PollContinue}
		}
		c.PersistentIDs = append(c.PersistentIDs, m.PersistentID)
		c.pending.Store(int64(len(c.PersistentIDs)))

		payload, err := c.decrypt(m)
		if err != nil {
			return Poll{Kind: PollFatal, Err: err}
		}
		c.received.Inc()
		return Poll{Kind: PollItem, Payload: payload}

	default:
		c.logger.Debug("ignoring message", zap.Int8("tag", int8(msg.Tag())))
		return Poll{Kind: PollContinue}
	}
}
