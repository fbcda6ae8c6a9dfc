package core

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/0xRadioAc7iv/go-contactfile/internal/index"
	"github.com/0xRadioAc7iv/go-contactfile/internal/record"
	"github.com/0xRadioAc7iv/go-contactfile/internal/utils"
)

// replay rebuilds the index from the backing file and returns the number of
// records it indexed.
//
// Runs of padding between records are skipped. A record cut short by the end
// of the file is what a crash during an append leaves behind: the file is
// truncated at the start of that record and replay ends normally. If an
// intact record follows the short one, the short one is corrupt rather than
// torn and replay fails without touching the file. Any other undecodable
// bytes abort the replay.
func (s *Store) replay() (int, error) {
	info, err := s.file.Stat()
	if err != nil {
		return 0, fmt.Errorf("%w: stat %s: %w", ErrIO, s.path, err)
	}

	rr := &replayReader{r: s.file, size: info.Size()}
	records := 0

	for {
		c, r, err := rr.next()
		if errors.Is(err, io.EOF) {
			break
		}
		if errors.Is(err, record.ErrTruncated) {
			s.log.Warn("truncating torn record at end of file",
				"path", s.path,
				"offset", r.Start,
				"bytes", rr.size-int64(r.Start),
			)
			if err := utils.TruncateAt(s.file, int64(r.Start)); err != nil {
				return records, fmt.Errorf("%w: truncate %s at %d: %w", ErrIO, s.path, r.Start, err)
			}
			rr.size = int64(r.Start)
			break
		}
		if err != nil {
			return records, err
		}

		key := c.Key()
		if s.index.Remove(key) {
			// later copy of a key wins
			s.log.Warn("duplicate key in backing file", "path", s.path, "key", key, "offset", r.Start)
		}
		s.index.Insert(key, r)
		records++
	}

	s.size = rr.size
	return records, nil
}

// replayReader walks a backing file record by record through a window of
// bytes, so replay never holds more than a chunk (or one record, if larger)
// in memory.
type replayReader struct {
	r    io.ReaderAt
	size int64

	buf  []byte // file bytes [base, base+len(buf))
	base int64
	pos  int // next unread byte in buf
}

// next returns the next record and its range. It returns io.EOF once only
// padding is left, and an error wrapping record.ErrTruncated, together with
// the range start, when the file ends inside a record.
func (rr *replayReader) next() (*Contact, index.Range, error) {
	for {
		for rr.pos < len(rr.buf) && rr.buf[rr.pos] == record.Padding {
			rr.pos++
		}

		if rr.pos == len(rr.buf) {
			if !rr.more() {
				return nil, index.Range{}, io.EOF
			}
			if err := rr.fill(); err != nil {
				return nil, index.Range{}, err
			}
			continue
		}

		start := uint64(rr.base) + uint64(rr.pos)

		c, n, err := record.DecodeFirst(rr.buf[rr.pos:])
		if errors.Is(err, record.ErrTruncated) && rr.more() {
			if err := rr.fill(); err != nil {
				return nil, index.Range{}, err
			}
			continue
		}
		if errors.Is(err, record.ErrTruncated) {
			if off, ok := rr.recordAfter(); ok {
				return nil, index.Range{}, fmt.Errorf("%w: offset %d: %v before intact record at offset %d",
					ErrFormat, start, err, off)
			}
			return nil, index.Range{Start: start}, err
		}
		if err != nil {
			return nil, index.Range{}, fmt.Errorf("%w: offset %d: %w", ErrFormat, start, err)
		}

		rr.pos += n
		return c, index.Range{Start: start, End: start + uint64(n)}, nil
	}
}

// recordAfter returns the offset of the first decodable record after the
// current position. It is only called once the buffer holds the rest of the
// file.
func (rr *replayReader) recordAfter() (int64, bool) {
	rest := rr.buf[rr.pos+1:]
	for i := 0; i < len(rest); i++ {
		j := bytes.IndexByte(rest[i:], record.Marker)
		if j < 0 {
			return 0, false
		}
		i += j
		if _, _, err := record.DecodeFirst(rest[i:]); err == nil {
			return rr.base + int64(rr.pos+1+i), true
		}
	}
	return 0, false
}

func (rr *replayReader) more() bool {
	return rr.base+int64(len(rr.buf)) < rr.size
}

// fill drops consumed bytes and appends the next chunk of the file to the
// unread ones. The chunk is at least as large as what is already unread, so
// a record larger than a chunk is read in a logarithmic number of steps.
func (rr *replayReader) fill() error {
	unread := rr.buf[rr.pos:]
	rr.base += int64(rr.pos)
	end := rr.base + int64(len(unread))

	want := int64(max(replayChunkSize, len(unread)))
	want = min(want, rr.size-end)

	buf := make([]byte, int64(len(unread))+want)
	copy(buf, unread)
	n, err := rr.r.ReadAt(buf[len(unread):], end)
	if int64(n) < want {
		if err == nil || errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return fmt.Errorf("%w: read %d bytes at offset %d: %w", ErrIO, want, end, err)
	}

	rr.buf = buf
	rr.pos = 0
	return nil
}
