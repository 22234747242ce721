package mcs

import (
	"io"

	"github.com/multiformats/go-varint"
)

const (
	// MaxVarintGroups is the number of 7-bit groups a length prefix may use
	MaxVarintGroups = 4

	// MaxVarint32 is the largest value a length prefix can carry
	MaxVarint32 = 1<<(7*MaxVarintGroups) - 1
)

// Source is the byte source frames are read from. *bufio.Reader and
// *bytes.Reader satisfy it.
type Source interface {
	io.Reader
	io.ByteReader
}

// ReadVarint32 reads a length prefix of at most MaxVarintGroups groups
func ReadVarint32(r io.ByteReader) (uint32, error) {
	var value uint32
	var shift uint

	for i := 0; i < MaxVarintGroups; i++ {
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		value |= uint32(b&0x7f) << shift
		if b&0x80 == 0 {
			return value, nil
		}
		shift += 7
	}

	return 0, ErrVarintTooLarge
}

// AppendVarint32 appends the length prefix encoding of v to dst
func AppendVarint32(dst []byte, v uint32) ([]byte, error) {
	if v > MaxVarint32 {
		return dst, ErrVarintTooLarge
	}
	return append(dst, varint.ToUvarint(uint64(v))...), nil
}
