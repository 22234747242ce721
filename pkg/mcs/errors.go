package mcs

import (
	"errors"
	"fmt"
)

var (
	ErrVarintTooLarge = errors.New("mcs: vlq value too large")
	ErrWireType       = errors.New("mcs: unexpected wire type")
)

// UnknownTagError is returned for a frame whose tag is not in the tag table
type UnknownTagError struct {
	Tag Tag
}

func (e *UnknownTagError) Error() string {
	return fmt.Sprintf("mcs: unknown tag `%d`", e.Tag)
}

// DecodeError is returned when a frame body is not a valid encoding of the
// message its tag selects
type DecodeError struct {
	Tag Tag
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("mcs: failed to decode message with tag %d: %v", e.Tag, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// ReadErrorKind classifies a ReadError
type ReadErrorKind int

const (
	// ReadIO means the underlying source failed or ended mid-frame
	ReadIO ReadErrorKind = iota
	// ReadVarint means the length prefix was malformed
	ReadVarint
	// ReadDecode means the tag or body could not be decoded
	ReadDecode
)

func (k ReadErrorKind) String() string {
	switch k {
	case ReadIO:
		return "io"
	case ReadVarint:
		return "varint"
	case ReadDecode:
		return "decode"
	default:
		return fmt.Sprintf("ReadErrorKind(%d)", int(k))
	}
}

// ReadError is returned by ReadMessage
type ReadError struct {
	Kind ReadErrorKind
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("mcs: failed to read message (%s): %v", e.Kind, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

func ioError(err error) error { return &ReadError{Kind: ReadIO, Err: err} }
func varintError(err error) error { return &ReadError{Kind: ReadVarint, Err: err} }
func decodeFailure(err error) error { return &ReadError{Kind: ReadDecode, Err: err} }

// MissingDataError is returned when a data message has no app data entry
// for a key
type MissingDataError struct {
	Key string
}

func (e *MissingDataError) Error() string {
	return fmt.Sprintf("mcs: app data not found for key `%s`", e.Key)
}
