package crypto

import (
	"encoding/binary"
	"errors"
	"fmt"
)

var (
	ErrInvalidPadding = errors.New("invalid padding")
)

// PaddingHeaderSize is the big-endian padding length prefix of an aesgcm record
const PaddingHeaderSize = 2

// MaxPadding is the largest padding length the 2 byte header can carry
const MaxPadding = 1<<16 - 1

// AddPadding prefixes data with a 2 byte padding length followed by padLen
// zero bytes
func AddPadding(data []byte, padLen int) ([]byte, error) {
	if padLen < 0 || padLen > MaxPadding {
		return nil, fmt.Errorf("%w: padding length %d out of range", ErrInvalidPadding, padLen)
	}

	record := make([]byte, PaddingHeaderSize+padLen+len(data))
	binary.BigEndian.PutUint16(record, uint16(padLen))
	copy(record[PaddingHeaderSize+padLen:], data)
	return record, nil
}

// RemovePadding strips the padding header and the zero padding from a
// decrypted record
func RemovePadding(record []byte) ([]byte, error) {
	if len(record) < PaddingHeaderSize {
		return nil, fmt.Errorf("%w: record too short (%d bytes)", ErrInvalidPadding, len(record))
	}

	padLen := int(binary.BigEndian.Uint16(record))
	end := PaddingHeaderSize + padLen
	if end > len(record) {
		return nil, fmt.Errorf("%w: padding length %d exceeds record", ErrInvalidPadding, padLen)
	}

	for _, b := range record[PaddingHeaderSize:end] {
		if b != 0 {
			return nil, fmt.Errorf("%w: non-zero padding byte", ErrInvalidPadding)
		}
	}

	return record[end:], nil
}
