package server

import (
	"errors"
	"io"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"sync"

	"github.com/0xRadioAc7iv/go-contactfile/core"
	"github.com/0xRadioAc7iv/go-contactfile/internal/protocol"
	"github.com/0xRadioAc7iv/go-contactfile/internal/record"
)

// Handler serves protocol commands against one store. The store is not safe
// for concurrent use, so every command runs under a single mutex.
type Handler struct {
	mu    sync.Mutex
	store *core.Store
	log   *slog.Logger
}

func NewHandler(store *core.Store, log *slog.Logger) *Handler {
	return &Handler{store: store, log: log}
}

// ServeConn decodes commands from conn and writes one response for each,
// until the client disconnects.
func (h *Handler) ServeConn(conn net.Conn) {
	defer conn.Close()

	remote := conn.RemoteAddr().String()
	h.log.Debug("client connected", "remote", remote)

	for {
		command, err := protocol.DecodeCommand(conn)
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				h.log.Warn("dropping client", "remote", remote, "error", err)
			}
			h.log.Debug("client disconnected", "remote", remote)
			return
		}

		status, payload := h.handleCommand(command)
		if err := h.reply(conn, status, payload); err != nil {
			h.log.Debug("client disconnected", "remote", remote, "error", err)
			return
		}
	}
}

// Close closes the store once no command is running.
func (h *Handler) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.store.Close()
}

func (h *Handler) handleCommand(command *protocol.Command) (protocol.Status, []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	switch strings.ToLower(command.Cmd) {
	case protocol.CmdPing:
		return protocol.StatusOK, []byte("PONG!")
	case protocol.CmdInsert:
		return h.handleInsert(command.Val)
	case protocol.CmdFind:
		return h.handleFind(command.Key)
	case protocol.CmdUpdate:
		return h.handleUpdate(command.Key, command.Val)
	case protocol.CmdDelete:
		return h.handleDelete(command.Key)
	case protocol.CmdExists:
		return protocol.StatusOK, []byte(strconv.FormatBool(h.store.Exists(command.Key)))
	case protocol.CmdCount:
		return protocol.StatusOK, []byte(strconv.Itoa(h.store.Len()))
	case protocol.CmdList:
		return h.handleList()
	default:
		return protocol.StatusError, []byte("invalid command " + strconv.Quote(command.Cmd))
	}
}

func (h *Handler) handleInsert(val []byte) (protocol.Status, []byte) {
	c, err := record.Decode(val)
	if err != nil {
		return failure(err)
	}
	if err := h.store.Insert(c); err != nil {
		return failure(err)
	}
	return protocol.StatusOK, nil
}

func (h *Handler) handleFind(key string) (protocol.Status, []byte) {
	c, err := h.store.Find(key)
	if err != nil {
		return failure(err)
	}
	if c == nil {
		return protocol.StatusNotFound, nil
	}

	data, err := record.Encode(c)
	if err != nil {
		return failure(err)
	}
	return protocol.StatusOK, data
}

func (h *Handler) handleUpdate(key string, val []byte) (protocol.Status, []byte) {
	c, err := record.Decode(val)
	if err != nil {
		return failure(err)
	}

	found, err := h.store.Update(key, c)
	if err != nil {
		return failure(err)
	}
	if !found {
		return protocol.StatusNotFound, nil
	}
	return protocol.StatusOK, nil
}

func (h *Handler) handleDelete(key string) (protocol.Status, []byte) {
	found, err := h.store.Delete(key)
	if err != nil {
		return failure(err)
	}
	if !found {
		return protocol.StatusNotFound, nil
	}
	return protocol.StatusOK, nil
}

func (h *Handler) handleList() (protocol.Status, []byte) {
	keys, err := h.store.Keys()
	if err != nil {
		return failure(err)
	}
	return protocol.StatusOK, []byte(strings.Join(keys, "\n"))
}

func (h *Handler) reply(conn net.Conn, status protocol.Status, payload []byte) error {
	encoded, err := protocol.EncodeResponse(status, payload)
	if err != nil {
		h.log.Error("error encoding response", "error", err)
		encoded, _ = protocol.EncodeResponse(protocol.StatusError, []byte(err.Error()))
	}

	_, err = conn.Write(encoded)
	return err
}

func failure(err error) (protocol.Status, []byte) {
	if errors.Is(err, core.ErrDuplicateKey) {
		return protocol.StatusConflict, []byte(err.Error())
	}
	return protocol.StatusError, []byte(err.Error())
}
