package network

import (
	"errors"
	"fmt"
)

var (
	ErrStreamClosed     = errors.New("notification stream closed")
	ErrInvalidAndroidID = errors.New("invalid android id")
)

// ConnectErrorKind identifies the connection step that failed
type ConnectErrorKind int

const (
	ConnectCheckIn ConnectErrorKind = iota
	ConnectTransport
	ConnectHandshake
	ConnectLogin
	ConnectIO
)

func (k ConnectErrorKind) String() string {
	switch k {
	case ConnectCheckIn:
		return "check-in"
	case ConnectTransport:
		return "transport"
	case ConnectHandshake:
		return "handshake"
	case ConnectLogin:
		return "login"
	case ConnectIO:
		return "io"
	default:
		return fmt.Sprintf("ConnectErrorKind(%d)", int(k))
	}
}

// ConnectError is returned by a single connection attempt
type ConnectError struct {
	Kind ConnectErrorKind
	Err  error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("connect failed (%s): %v", e.Kind, e.Err)
}

func (e *ConnectError) Unwrap() error { return e.Err }

// DecryptErrorKind identifies why a data message could not be decrypted
type DecryptErrorKind int

const (
	DecryptMissingData DecryptErrorKind = iota
	DecryptBase64
	DecryptCrypto
)

func (k DecryptErrorKind) String() string {
	switch k {
	case DecryptMissingData:
		return "missing data"
	case DecryptBase64:
		return "base64"
	case DecryptCrypto:
		return "crypto"
	default:
		return fmt.Sprintf("DecryptErrorKind(%d)", int(k))
	}
}

// DecryptError is returned by the stream when a data message cannot be
// decrypted. It ends the stream.
type DecryptError struct {
	Kind         DecryptErrorKind
	PersistentID string
	Err          error
}

func (e *DecryptError) Error() string {
	return fmt.Sprintf("failed to decrypt message %q (%s): %v", e.PersistentID, e.Kind, e.Err)
}

func (e *DecryptError) Unwrap() error { return e.Err }
