package utils

import (
	"errors"
	"strings"

	"github.com/kballard/go-shellquote"
)

var ErrEmptyCommand = errors.New("empty command")

// SplitCommandLine splits an input line into a lower-cased command word and
// its arguments, honouring shell quoting so that arguments may contain spaces:
//
//	update "a@x.com" Ada Lovelace "Analytical Engines" ...
func SplitCommandLine(line string) (cmd string, args []string, err error) {
	words, err := shellquote.Split(line)
	if err != nil {
		return "", nil, err
	}
	if len(words) == 0 {
		return "", nil, ErrEmptyCommand
	}
	return strings.ToLower(words[0]), words[1:], nil
}

// JoinCommandLine quotes args so that SplitCommandLine returns them unchanged.
func JoinCommandLine(args ...string) string {
	return shellquote.Join(args...)
}
