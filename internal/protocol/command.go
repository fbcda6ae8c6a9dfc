package protocol

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Command names understood by the contact daemon.
const (
	CmdPing   = "ping"
	CmdInsert = "insert"
	CmdFind   = "find"
	CmdUpdate = "update"
	CmdDelete = "delete"
	CmdExists = "exists"
	CmdCount  = "count"
	CmdList   = "list"
)

// MaxFieldSize bounds the key and value lengths a decoder accepts, so a
// corrupt length prefix cannot make the peer allocate gigabytes.
const MaxFieldSize = 16 * 1024 * 1024

var ErrFieldTooLarge = errors.New("protocol: field exceeds maximum size")

// Command represents a decoded client command received by the contact daemon.
//
// A Command consists of a command name (Cmd), an optional key, and an optional
// value. The meaning of Key and Val depends on the command type: for insert
// and update, Val carries an encoded contact record; for update, Key is the
// email the record is currently stored under.
type Command struct {
	Cmd string // Command name (e.g. "find", "insert", "update")
	Key string // Key argument (may be empty)
	Val []byte // Value argument (may be empty)
}

// EncodeCommand serializes a client command into its wire format.
//
// The command is encoded as:
//
//	<cmd_len:uint8><key_len:uint32><val_len:uint32><cmd><key><val>
//
// All integer fields are encoded using big-endian byte order.
// The command name length is limited to 255 bytes.
func EncodeCommand(cmd, key string, val []byte) ([]byte, error) {
	if len(cmd) > 255 {
		return nil, fmt.Errorf("protocol: command name too long (%d bytes)", len(cmd))
	}
	if len(key) > MaxFieldSize || len(val) > MaxFieldSize {
		return nil, ErrFieldTooLarge
	}

	buf := &bytes.Buffer{}

	buf.WriteByte(uint8(len(cmd)))
	if err := binary.Write(buf, binary.BigEndian, uint32(len(key))); err != nil {
		return nil, err
	}
	if err := binary.Write(buf, binary.BigEndian, uint32(len(val))); err != nil {
		return nil, err
	}

	buf.WriteString(cmd)
	buf.WriteString(key)
	buf.Write(val)

	return buf.Bytes(), nil
}

// DecodeCommand reads and decodes one command from r.
//
// It first reads the length-prefixed header fields, then reads the
// command name, key, and value payloads in sequence. DecodeCommand blocks
// until the full command has been read or an error occurs.
func DecodeCommand(r io.Reader) (*Command, error) {
	var cmdLen uint8
	var keyLen uint32
	var valLen uint32

	// Read lengths
	if err := binary.Read(r, binary.BigEndian, &cmdLen); err != nil {
		return nil, err
	}
	if err := binary.Read(r, binary.BigEndian, &keyLen); err != nil {
		return nil, err
	}
	if err := binary.Read(r, binary.BigEndian, &valLen); err != nil {
		return nil, err
	}
	if keyLen > MaxFieldSize || valLen > MaxFieldSize {
		return nil, ErrFieldTooLarge
	}

	// Read payload
	cmdB := make([]byte, cmdLen)
	keyB := make([]byte, keyLen)
	valB := make([]byte, valLen)

	if _, err := io.ReadFull(r, cmdB); err != nil {
		return nil, err
	}
	if _, err := io.ReadFull(r, keyB); err != nil {
		return nil, err
	}
	if _, err := io.ReadFull(r, valB); err != nil {
		return nil, err
	}

	return &Command{
		Cmd: string(cmdB),
		Key: string(keyB),
		Val: valB,
	}, nil
}
