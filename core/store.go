package core

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	"github.com/0xRadioAc7iv/go-contactfile/internal/index"
	"github.com/0xRadioAc7iv/go-contactfile/internal/record"
	"github.com/0xRadioAc7iv/go-contactfile/internal/utils"
)

// Contact is the record type kept by the store.
type Contact = record.Contact

// Store is a file-backed set of contacts keyed by email.
//
// Records are written back to back in a single file. The positional index
// maps every live email to the byte range of its record, so lookups read
// exactly one record. The index lives only in memory and is rebuilt from
// the file by Open.
//
// A Store is not safe for concurrent use, and a backing file must not be
// opened by more than one Store at a time.
type Store struct {
	file   *os.File
	index  *index.Index
	size   int64 // Offset at which the next record is appended
	closed bool

	path            string
	initialCapacity int
	syncWrites      bool
	log             *Logger
}

// Open opens the store at path, creating the file (and its directory) if
// needed, and rebuilds the index by replaying every record in the file.
func Open(path string, opts ...Option) (*Store, error) {
	s := &Store{
		path:            path,
		initialCapacity: DefaultInitialCapacity,
		log:             NoopLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}

	records, err := s.open()
	s.log.LogOpen(path, records, s.capacity(), err)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) open() (int, error) {
	dir := filepath.Dir(s.path)
	if !utils.PathExists(dir) {
		if err := os.MkdirAll(dir, dataDirMode); err != nil {
			return 0, fmt.Errorf("%w: create directory %s: %w", ErrIO, dir, err)
		}
	}

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_RDWR, dataFileMode)
	if err != nil {
		return 0, fmt.Errorf("%w: open %s: %w", ErrIO, s.path, err)
	}
	s.file = f
	s.index = index.New(s.initialCapacity)

	records, err := s.replay()
	if err != nil {
		f.Close()
		s.file = nil
		return records, err
	}
	return records, nil
}

// Insert appends c to the file and indexes it under its email. Inserting an
// email that is already live fails with ErrDuplicateKey; use Update to
// change an existing contact.
func (s *Store) Insert(c *Contact) error {
	if c == nil {
		return errNilContact
	}
	r, err := s.insert(c)
	s.log.LogInsert(c.Key(), r, err)
	return err
}

func (s *Store) insert(c *Contact) (index.Range, error) {
	if s.closed {
		return index.Range{}, ErrClosed
	}

	key := c.Key()
	if _, ok := s.index.Lookup(key); ok {
		return index.Range{}, fmt.Errorf("%w: %q", ErrDuplicateKey, key)
	}

	data, err := record.Encode(c)
	if err != nil {
		return index.Range{}, fmt.Errorf("%w: %w", ErrFormat, err)
	}

	r, err := s.appendRecord(data)
	if err != nil {
		return index.Range{}, err
	}
	if err := s.maybeSync(); err != nil {
		return index.Range{}, err
	}

	s.index.Insert(key, r)
	return r, nil
}

// Find returns the contact stored under key, or nil if there is none.
//
// A key that is indexed but whose bytes cannot be read back in full or
// decoded is an error, not a miss.
func (s *Store) Find(key string) (*Contact, error) {
	c, err := s.find(key)
	s.log.LogFind(key, c != nil, err)
	return c, err
}

func (s *Store) find(key string) (*Contact, error) {
	if s.closed {
		return nil, ErrClosed
	}

	r, ok := s.index.Lookup(key)
	if !ok {
		return nil, nil
	}

	c, err := s.readRecord(r)
	if err != nil {
		return nil, err
	}
	if c.Key() != key {
		return nil, fmt.Errorf("%w: range [%d, %d) holds %q, expected %q", ErrFormat, r.Start, r.End, c.Key(), key)
	}
	return c, nil
}

// Update replaces the contact stored under key with c and reports whether
// key was found. If c has a different email the contact is afterwards only
// reachable under the new one.
//
// A record that fits the old byte range is rewritten in place and the rest
// of the range is zeroed. A longer record is appended to the end of the file
// and the old range is zeroed, so later records never move.
func (s *Store) Update(key string, c *Contact) (bool, error) {
	if c == nil {
		return false, errNilContact
	}
	r, found, relocated, err := s.update(key, c)
	s.log.LogUpdate(key, c.Key(), r, relocated, err)
	return found, err
}

func (s *Store) update(key string, c *Contact) (written index.Range, found, relocated bool, err error) {
	if s.closed {
		return index.Range{}, false, false, ErrClosed
	}

	old, ok := s.index.Lookup(key)
	if !ok {
		return index.Range{}, false, false, nil
	}

	newKey := c.Key()
	if newKey != key {
		if _, taken := s.index.Lookup(newKey); taken {
			return index.Range{}, true, false, fmt.Errorf("%w: %q", ErrDuplicateKey, newKey)
		}
	}

	data, err := record.Encode(c)
	if err != nil {
		return index.Range{}, true, false, fmt.Errorf("%w: %w", ErrFormat, err)
	}

	if uint64(len(data)) <= old.Len() {
		// new bytes followed by zeros up to the old end, in one write
		buf := make([]byte, old.Len())
		copy(buf, data)
		if err := s.writeAt(buf, old.Start); err != nil {
			return index.Range{}, true, false, err
		}
		written = index.Range{Start: old.Start, End: old.Start + uint64(len(data))}
	} else {
		written, err = s.appendRecord(data)
		if err != nil {
			return index.Range{}, true, false, err
		}
		if err := s.zeroRange(old); err != nil {
			return index.Range{}, true, false, err
		}
		relocated = true
	}

	if err := s.maybeSync(); err != nil {
		return index.Range{}, true, relocated, err
	}

	s.index.Remove(key)
	s.index.Insert(newKey, written)
	return written, true, relocated, nil
}

// Delete zeroes the record stored under key and drops it from the index.
// It reports whether key was found. The zeroed bytes are not reclaimed.
func (s *Store) Delete(key string) (bool, error) {
	found, err := s.delete(key)
	s.log.LogDelete(key, found, err)
	return found, err
}

func (s *Store) delete(key string) (bool, error) {
	if s.closed {
		return false, ErrClosed
	}

	r, ok := s.index.Lookup(key)
	if !ok {
		return false, nil
	}

	if err := s.zeroRange(r); err != nil {
		return true, err
	}
	if err := s.maybeSync(); err != nil {
		return true, err
	}

	s.index.Remove(key)
	return true, nil
}

// Exists reports whether a contact is stored under key.
func (s *Store) Exists(key string) bool {
	if s.closed {
		return false
	}
	_, ok := s.index.Lookup(key)
	return ok
}

// Len returns the number of live contacts.
func (s *Store) Len() int {
	if s.closed {
		return 0
	}
	return s.index.Len()
}

// Keys returns every live email in sorted order.
func (s *Store) Keys() ([]string, error) {
	if s.closed {
		return nil, ErrClosed
	}

	keys := make([]string, 0, s.index.Len())
	s.index.Each(func(key string, _ index.Range) {
		keys = append(keys, key)
	})
	slices.Sort(keys)
	return keys, nil
}

// Capacity returns the current number of slots in the positional index.
func (s *Store) Capacity() int {
	return s.capacity()
}

func (s *Store) capacity() int {
	if s.index == nil {
		return 0
	}
	return s.index.Capacity()
}

// Path returns the location of the backing file.
func (s *Store) Path() string {
	return s.path
}

// Sync flushes the backing file to stable storage.
func (s *Store) Sync() error {
	if s.closed {
		return ErrClosed
	}
	if err := utils.Datasync(s.file); err != nil {
		return fmt.Errorf("%w: sync %s: %w", ErrIO, s.path, err)
	}
	return nil
}

// Close releases the backing file. Calling Close again is a no-op.
func (s *Store) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	if err := s.file.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %w", ErrIO, s.path, err)
	}
	s.log.Debug("store closed", "path", s.path)
	return nil
}

func (s *Store) appendRecord(data []byte) (index.Range, error) {
	start := s.size
	n, err := s.file.WriteAt(data, start)
	if err != nil {
		// s.size is unchanged, so the next append overwrites the torn bytes
		return index.Range{}, fmt.Errorf("%w: append %d bytes at offset %d (wrote %d): %w", ErrIO, len(data), start, n, err)
	}

	s.size += int64(n)
	return index.Range{Start: uint64(start), End: uint64(s.size)}, nil
}

func (s *Store) writeAt(data []byte, offset uint64) error {
	if _, err := s.file.WriteAt(data, int64(offset)); err != nil {
		return fmt.Errorf("%w: write %d bytes at offset %d: %w", ErrIO, len(data), offset, err)
	}
	return nil
}

func (s *Store) zeroRange(r index.Range) error {
	if err := utils.ZeroFill(s.file, int64(r.Start), int64(r.Len())); err != nil {
		return fmt.Errorf("%w: zero range [%d, %d): %w", ErrIO, r.Start, r.End, err)
	}
	return nil
}

func (s *Store) readRecord(r index.Range) (*Contact, error) {
	buf := make([]byte, r.Len())
	section := io.NewSectionReader(s.file, int64(r.Start), int64(r.Len()))
	if _, err := io.ReadFull(section, buf); err != nil {
		return nil, fmt.Errorf("%w: read range [%d, %d): %w", ErrIO, r.Start, r.End, err)
	}

	c, err := record.Decode(buf)
	if err != nil {
		return nil, fmt.Errorf("%w: range [%d, %d): %w", ErrFormat, r.Start, r.End, err)
	}
	return c, nil
}

func (s *Store) maybeSync() error {
	if !s.syncWrites {
		return nil
	}
	if err := utils.Datasync(s.file); err != nil {
		return fmt.Errorf("%w: sync %s: %w", ErrIO, s.path, err)
	}
	return nil
}
