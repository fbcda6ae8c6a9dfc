package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/0xRadioAc7iv/go-contactfile/core"
	"github.com/0xRadioAc7iv/go-contactfile/internal/server"
	"github.com/0xRadioAc7iv/go-contactfile/internal/utils"
)

func main() {
	if err := run(); err != nil {
		fmt.Println("Error while starting:", err)
		os.Exit(1)
	}
}

func run() error {
	in := utils.HandleCLIInputs()

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: in.LogLevel})
	log := slog.New(handler)

	store, err := core.Open(in.DataFile,
		core.WithInitialCapacity(in.InitialCapacity),
		core.WithLogger(core.NewLogger(handler)),
		core.WithSyncWrites(in.SyncWrites),
	)
	if err != nil {
		return err
	}

	h := server.NewHandler(store, log)
	defer func() {
		if err := h.Close(); err != nil {
			log.Error("closing store", "error", err)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Start(ctx, in.Host, in.Port, h.ServeConn, log)
	})
	g.Go(func() error {
		utils.ListenForProcessInterruptOrKill(ctx, log)
		cancel()
		return nil
	})

	return g.Wait()
}
