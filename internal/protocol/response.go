package protocol

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// Status tells the client how to read a response payload.
type Status uint8

const (
	StatusOK       Status = iota // Payload holds the result, if any
	StatusNotFound               // The key is not stored
	StatusConflict               // The email is already used by another contact
	StatusError                  // Payload holds an error message
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusNotFound:
		return "not found"
	case StatusConflict:
		return "conflict"
	case StatusError:
		return "error"
	default:
		return fmt.Sprintf("status(%d)", uint8(s))
	}
}

// Response is one decoded daemon reply.
type Response struct {
	Status  Status
	Payload []byte
}

// EncodeResponse serializes a reply as:
//
//	<status:uint8><payload_len:uint32><payload>
func EncodeResponse(status Status, payload []byte) ([]byte, error) {
	if len(payload) > MaxFieldSize {
		return nil, ErrFieldTooLarge
	}

	buf := &bytes.Buffer{}

	buf.WriteByte(uint8(status))
	if err := binary.Write(buf, binary.BigEndian, uint32(len(payload))); err != nil {
		return nil, err
	}

	buf.Write(payload)

	return buf.Bytes(), nil
}

func DecodeResponse(r io.Reader) (*Response, error) {
	var status uint8
	var respLen uint32

	if err := binary.Read(r, binary.BigEndian, &status); err != nil {
		return nil, err
	}
	if err := binary.Read(r, binary.BigEndian, &respLen); err != nil {
		return nil, err
	}
	if respLen > MaxFieldSize {
		return nil, ErrFieldTooLarge
	}

	buf := make([]byte, respLen)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}

	return &Response{Status: Status(status), Payload: buf}, nil
}
