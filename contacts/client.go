package contacts

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/0xRadioAc7iv/go-contactfile/core"
	"github.com/0xRadioAc7iv/go-contactfile/internal"
	"github.com/0xRadioAc7iv/go-contactfile/internal/protocol"
	"github.com/0xRadioAc7iv/go-contactfile/internal/record"
)

// Contact is the record type exchanged with the daemon.
type Contact = core.Contact

// ErrRemote is wrapped by every error the daemon reports.
var ErrRemote = errors.New("contacts: server error")

// RemoteError carries the message of a failed command. It unwraps to
// core.ErrDuplicateKey when the daemon refused a duplicate email, and to
// ErrRemote otherwise.
type RemoteError struct {
	Message  string
	conflict bool
}

func (e *RemoteError) Error() string {
	return e.Message
}

func (e *RemoteError) Unwrap() error {
	if e.conflict {
		return core.ErrDuplicateKey
	}
	return ErrRemote
}

// Client is a connection to a contact daemon. A Client sends one command at a
// time and must not be shared between goroutines.
type Client struct {
	conn net.Conn
}

func Connect(opts ...Option) (*Client, error) {
	cfg := internal.DefaultConfig()

	for _, opt := range opts {
		opt(cfg)
	}

	addr := net.JoinHostPort(cfg.Host, fmt.Sprintf("%d", cfg.Port))

	conn, err := net.DialTimeout("tcp", addr, cfg.DialTimeout)
	if err != nil {
		return nil, err
	}

	return &Client{conn: conn}, nil
}

func (c *Client) Ping() error {
	_, err := c.expectOK(protocol.CmdPing, "", nil)
	return err
}

// Insert stores a new contact. A duplicate email yields an error matching
// core.ErrDuplicateKey.
func (c *Client) Insert(ct *Contact) error {
	data, err := record.Encode(ct)
	if err != nil {
		return err
	}

	_, err = c.expectOK(protocol.CmdInsert, "", data)
	return err
}

// Find returns the contact stored under key, or nil if there is none.
func (c *Client) Find(key string) (*Contact, error) {
	resp, err := c.sendCommand(protocol.CmdFind, key, nil)
	if err != nil {
		return nil, err
	}

	switch resp.Status {
	case protocol.StatusNotFound:
		return nil, nil
	case protocol.StatusOK:
		return record.Decode(resp.Payload)
	default:
		return nil, remoteError(resp)
	}
}

// Update replaces the contact stored under key and reports whether key was
// found.
func (c *Client) Update(key string, ct *Contact) (bool, error) {
	data, err := record.Encode(ct)
	if err != nil {
		return false, err
	}
	return c.found(protocol.CmdUpdate, key, data)
}

// Delete removes the contact stored under key and reports whether key was
// found.
func (c *Client) Delete(key string) (bool, error) {
	return c.found(protocol.CmdDelete, key, nil)
}

func (c *Client) Exists(key string) (bool, error) {
	payload, err := c.expectOK(protocol.CmdExists, key, nil)
	if err != nil {
		return false, err
	}
	return strconv.ParseBool(string(payload))
}

func (c *Client) Count() (int, error) {
	payload, err := c.expectOK(protocol.CmdCount, "", nil)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(string(payload))
}

// Keys returns every stored email in sorted order.
func (c *Client) Keys() ([]string, error) {
	payload, err := c.expectOK(protocol.CmdList, "", nil)
	if err != nil {
		return nil, err
	}
	if len(payload) == 0 {
		return nil, nil
	}
	return strings.Split(string(payload), "\n"), nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) found(cmd, key string, val []byte) (bool, error) {
	resp, err := c.sendCommand(cmd, key, val)
	if err != nil {
		return false, err
	}

	switch resp.Status {
	case protocol.StatusOK:
		return true, nil
	case protocol.StatusNotFound:
		return false, nil
	default:
		return resp.Status == protocol.StatusConflict, remoteError(resp)
	}
}

func (c *Client) expectOK(cmd, key string, val []byte) ([]byte, error) {
	resp, err := c.sendCommand(cmd, key, val)
	if err != nil {
		return nil, err
	}
	if resp.Status != protocol.StatusOK {
		return nil, remoteError(resp)
	}
	return resp.Payload, nil
}

func (c *Client) sendCommand(cmd, key string, val []byte) (*protocol.Response, error) {
	payload, err := protocol.EncodeCommand(cmd, key, val)
	if err != nil {
		return nil, err
	}

	_, err = c.conn.Write(payload)
	if err != nil {
		return nil, err
	}

	return protocol.DecodeResponse(c.conn)
}

func remoteError(resp *protocol.Response) error {
	msg := string(resp.Payload)
	if msg == "" {
		msg = resp.Status.String()
	}
	return &RemoteError{
		Message:  msg,
		conflict: resp.Status == protocol.StatusConflict,
	}
}
