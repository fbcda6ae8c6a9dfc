package record

import (
	"encoding/binary"
	"hash/crc32"
)

// CalculateCRC computes the CRC32 (IEEE) checksum of the fields, each one
// prefixed by its length so that moving bytes between fields changes the sum.
func CalculateCRC(fields ...string) uint32 {
	var checksumData []byte
	for _, f := range fields {
		checksumData = binary.AppendUvarint(checksumData, uint64(len(f)))
		checksumData = append(checksumData, f...)
	}
	return crc32.ChecksumIEEE(checksumData)
}

// ValidateCRC returns true if the provided checksum matches the computed CRC32 of the fields
func ValidateCRC(checksum uint32, fields ...string) bool {
	return CalculateCRC(fields...) == checksum
}
