package utils

import "os"

// Truncates a file at a given offset
func TruncateAt(f *os.File, offset int64) error {
	if err := f.Truncate(offset); err != nil {
		return err
	}
	return Datasync(f)
}

// Indicates if the given path exists or not (works for both files and directories)
func PathExists(filepath string) bool {
	_, err := os.Stat(filepath)
	return err == nil
}

// ZeroFill overwrites n bytes starting at offset with zeros
func ZeroFill(f *os.File, offset, n int64) error {
	const chunk = 32 * 1024

	zeros := make([]byte, min(n, chunk))
	for n > 0 {
		w := min(n, int64(len(zeros)))
		if _, err := f.WriteAt(zeros[:w], offset); err != nil {
			return err
		}
		offset += w
		n -= w
	}
	return nil
}
