package utils

import (
	"flag"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/0xRadioAc7iv/go-contactfile/internal"
)

const DefaultDataFile = "./contacts.db"
const DefaultInitialCapacity = 50
const DefaultHost = internal.DEFAULT_HOST
const DefaultPort = internal.DEFAULT_PORT

// ServerInputs holds the daemon settings gathered from flags and environment.
type ServerInputs struct {
	DataFile        string
	InitialCapacity int
	Host            string
	Port            int
	SyncWrites      bool
	LogLevel        slog.Level
}

// HandleCLIInputs parses the daemon flags. Every flag falls back to a
// CONTACTS_* environment variable, then to its built-in default.
func HandleCLIInputs() *ServerInputs {
	return HandleCLIInputsFrom(flag.CommandLine, os.Args[1:])
}

func HandleCLIInputsFrom(fs *flag.FlagSet, args []string) *ServerInputs {
	in := &ServerInputs{}
	var level string

	fs.StringVar(&in.DataFile, "file", envStr("CONTACTS_FILE", DefaultDataFile), "Backing file of the contact store")
	fs.IntVar(&in.InitialCapacity, "capacity", envInt("CONTACTS_CAPACITY", DefaultInitialCapacity), "Initial index capacity (slots)")
	fs.StringVar(&in.Host, "host", envStr("CONTACTS_HOST", DefaultHost), "Host to bind the TCP server to")
	fs.IntVar(&in.Port, "port", envInt("CONTACTS_PORT", DefaultPort), "Port to use for the TCP Server")
	fs.BoolVar(&in.SyncWrites, "sync", envBool("CONTACTS_SYNC", false), "Flush the backing file after every write")
	fs.StringVar(&level, "log-level", envStr("CONTACTS_LOG_LEVEL", "info"), "Log level (debug, info, warn, error)")
	fs.Parse(args)

	in.LogLevel = ParseLogLevel(level)
	return in
}

// ParseLogLevel maps a level name to a slog.Level, defaulting to Info.
func ParseLogLevel(name string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(name))); err != nil {
		return slog.LevelInfo
	}
	return level
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
