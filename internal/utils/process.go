package utils

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

// ListenForProcessInterruptOrKill blocks until it receives an interrupt (Ctrl+C)
// or termination signal (SIGTERM), or until ctx is done, then returns.
func ListenForProcessInterruptOrKill(ctx context.Context, log *slog.Logger) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	log.Info("press Ctrl+C to exit")

	select {
	case sig := <-sigChan:
		log.Info("shutting down", "signal", sig.String())
	case <-ctx.Done():
	}
}
