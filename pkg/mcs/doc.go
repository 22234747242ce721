// Package mcs implements the framing used on the mobile connection server
// (MCS) link between a push receiver and the relay.
//
// # Frame Format
//
// After the one-byte version exchange, both directions carry a sequence of
// frames:
//   - Tag (1 byte, signed): selects the message kind
//   - Length (1-4 bytes): body size as a base-128 varint, least significant
//     group first, high bit set on every byte except the last
//   - Body (Length bytes): the protobuf encoding of the message
//
// # Message Kinds
//
//	0  HeartbeatPing
//	1  HeartbeatAck
//	2  LoginRequest
//	3  LoginResponse
//	4  Close
//	7  IqStanza
//	8  DataMessageStanza
//
// Any other tag is rejected with an *UnknownTagError. The receiver only ever
// sends a LoginRequest; every other kind is decoded and handed to the caller.
//
// # Usage Example
//
//	src := bufio.NewReader(conn)
//	msg, err := mcs.ReadMessage(src)
//	if err != nil {
//	    return err
//	}
//	if data, ok := msg.(*mcs.DataMessageStanza); ok {
//	    salt, err := data.AppDataValue("encryption")
//	    ...
//	}
package mcs
