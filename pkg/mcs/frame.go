package mcs

import (
	"io"
)

// ReadMessage reads exactly one frame from src and decodes its body
func ReadMessage(src Source) (Message, error) {
	b, err := src.ReadByte()
	if err != nil {
		return nil, ioError(err)
	}
	tag := Tag(int8(b))

	size, err := ReadVarint32(src)
	if err != nil {
		if err == ErrVarintTooLarge {
			return nil, varintError(err)
		}
		return nil, ioError(err)
	}

	body := make([]byte, size)
	if _, err := io.ReadFull(src, body); err != nil {
		return nil, ioError(err)
	}

	msg, err := DecodeMessage(tag, body)
	if err != nil {
		return nil, decodeFailure(err)
	}
	return msg, nil
}

// DecodeMessage decodes a frame body for tag
func DecodeMessage(tag Tag, body []byte) (Message, error) {
	msg, err := newMessage(tag)
	if err != nil {
		return nil, err
	}
	if err := msg.unmarshal(body); err != nil {
		return nil, &DecodeError{Tag: tag, Err: err}
	}
	return msg, nil
}

// EncodeFrame returns the tag, length prefix and body of msg
func EncodeFrame(msg Message) ([]byte, error) {
	body := msg.marshal()

	buf := make([]byte, 0, len(body)+1+MaxVarintGroups)
	buf = append(buf, byte(msg.Tag()))
	buf, err := AppendVarint32(buf, uint32(len(body)))
	if err != nil {
		return nil, err
	}
	return append(buf, body...), nil
}

// WriteMessage writes msg as a single frame to w
func WriteMessage(w io.Writer, msg Message) error {
	buf, err := EncodeFrame(msg)
	if err != nil {
		return err
	}
	_, err = w.Write(buf)
	return err
}
