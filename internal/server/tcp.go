package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"syscall"
)

// Number of consecutive ports Listen tries before giving up.
const maxPortAttempts = 100

// Listen binds a TCP listener on host:port. When the port is already in use
// the following ports are tried in turn.
func Listen(host string, port int) (net.Listener, error) {
	for attempt := 0; attempt < maxPortAttempts; attempt++ {
		addr := net.JoinHostPort(host, fmt.Sprintf("%d", port))
		ln, err := net.Listen("tcp", addr)
		if err != nil {
			if errors.Is(err, syscall.EADDRINUSE) && port != 0 {
				port++
				continue
			}
			return nil, err
		}
		return ln, nil
	}
	return nil, fmt.Errorf("no free port in %d attempts", maxPortAttempts)
}

// Start listens on host:port and serves connections until ctx is cancelled.
func Start(ctx context.Context, host string, port int, handler func(conn net.Conn), log *slog.Logger) error {
	ln, err := Listen(host, port)
	if err != nil {
		return err
	}
	return Serve(ctx, ln, handler, log)
}

// Serve accepts connections on ln and runs handler for each one in its own
// goroutine. When ctx is cancelled the listener and every open connection are
// closed, and Serve returns once all handlers have finished.
func Serve(ctx context.Context, ln net.Listener, handler func(conn net.Conn), log *slog.Logger) error {
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		conns = make(map[net.Conn]struct{})
	)

	// When ctx is cancelled, close listener and connections
	stop := context.AfterFunc(ctx, func() {
		ln.Close()

		mu.Lock()
		for conn := range conns {
			conn.Close()
		}
		mu.Unlock()
	})
	defer stop()

	log.Info("server listening", "addr", ln.Addr().String())

	// Accept Loop
	for {
		conn, err := ln.Accept()
		if err != nil {
			// When ln.Close() is called, Accept() returns an error.
			// This is how we break out of the loop cleanly.
			select {
			case <-ctx.Done():
				wg.Wait()
				log.Info("server stopped")
				return nil // graceful shutdown
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				wg.Wait()
				return err
			}
			log.Warn("error accepting connection", "error", err)
			continue
		}

		mu.Lock()
		conns[conn] = struct{}{}
		mu.Unlock()

		// accepted while shutting down, missed by the AfterFunc sweep
		if ctx.Err() != nil {
			conn.Close()
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				mu.Lock()
				delete(conns, conn)
				mu.Unlock()
			}()

			handler(conn)
		}()
	}
}
