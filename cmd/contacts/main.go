package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net"
	"os"
	"strconv"

	"github.com/0xRadioAc7iv/go-contactfile/contacts"
	"github.com/0xRadioAc7iv/go-contactfile/core"
	"github.com/0xRadioAc7iv/go-contactfile/internal/utils"
)

func main() {
	file := flag.String("file", utils.DefaultDataFile, "Contact file to open when -remote is not set")
	capacity := flag.Int("capacity", utils.DefaultInitialCapacity, "Initial index capacity (slots)")
	remote := flag.String("remote", "", "host:port of a running contactsd")
	verbose := flag.Bool("v", false, "Log store operations to stderr")
	flag.Parse()

	store, closer, err := openStore(*file, *capacity, *remote, *verbose)
	if err != nil {
		log.Fatal(err)
	}
	defer closer.Close()

	if *remote != "" {
		fmt.Printf("Connected to %s\n", *remote)
	} else {
		fmt.Printf("Using %s\n", *file)
	}

	if err := newMenu(store, os.Stdin, os.Stdout).run(); err != nil {
		fmt.Println("input error:", err)
	}
}

func openStore(file string, capacity int, remote string, verbose bool) (contactStore, io.Closer, error) {
	if remote != "" {
		host, portStr, err := net.SplitHostPort(remote)
		if err != nil {
			return nil, nil, err
		}
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid port %q", portStr)
		}

		client, err := contacts.Connect(contacts.WithHost(host), contacts.WithPort(port))
		if err != nil {
			return nil, nil, err
		}
		return client, client, nil
	}

	logger := core.NoopLogger()
	if verbose {
		logger = core.NewTextLogger(slog.LevelDebug)
	}

	store, err := core.Open(file, core.WithInitialCapacity(capacity), core.WithLogger(logger))
	if err != nil {
		return nil, nil, err
	}
	return store, store, nil
}
