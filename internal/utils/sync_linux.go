//go:build linux

package utils

import (
	"os"

	"golang.org/x/sys/unix"
)

// Datasync flushes the file's data to stable storage. On Linux this uses
// fdatasync(2), which skips metadata that is not needed to read the data back.
func Datasync(f *os.File) error {
	for {
		err := unix.Fdatasync(int(f.Fd()))
		if err != unix.EINTR {
			return err
		}
	}
}
