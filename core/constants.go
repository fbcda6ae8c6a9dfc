package core

const (
	OneKilobyte = 1024

	DefaultFileName        = "contacts.db"
	DefaultInitialCapacity = 50 // Slots in the positional index at open

	// Bytes read from the backing file per step while replaying. A record
	// larger than this grows the window instead of failing.
	replayChunkSize = 64 * OneKilobyte

	dataFileMode = 0644
	dataDirMode  = 0755
)
