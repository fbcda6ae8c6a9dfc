//go:build !linux

package utils

import "os"

// Datasync flushes the file to stable storage.
func Datasync(f *os.File) error {
	return f.Sync()
}
