package log

import (
	"bufio"
	"encoding/binary"
	"os"
	"sync"
)

var (
	enc = binary.LittleEndian
)

const (
	lenWidth = 8
)

type store struct {
	*os.File
	mu     sync.Mutex
	buf    *bufio.Writer
	size   uint64
	closed bool
}

// newStore creates a store from the given file, using the file's current
// size as the store's size so an existing store picks up where it left
// off. It returns a pointer to the new store and an error, if any.
func newStore(file *os.File) (*store, error) {

	fi, err := os.Stat(file.Name())

	if err != nil {
		return nil, err
	}

	size := uint64(fi.Size())

	return &store{
		File: file,
		size: size,
		buf:  bufio.NewWriter(file),
	}, nil
}

// Append writes the record to the store, first writing the length of the
// record encoded in `lenWidth` bytes, then the record itself. It returns
// the number of bytes written, the position of the record, and any error.
func (s *store) Append(p []byte) (n uint64, pos uint64, err error) {

	s.mu.Lock()
	defer s.mu.Unlock()

	pos = s.size

	if err := binary.Write(s.buf, enc, uint64(len(p))); err != nil {
		return 0, 0, err
	}

	w, err := s.buf.Write(p)

	if err != nil {
		return 0, 0, err
	}

	w += lenWidth
	s.size += uint64(w)

	return uint64(w), pos, nil
}

// Read retrieves a record from the store at the given position. The buffered
// writer is flushed first, in case the record is still sitting in the
// buffer. It then reads the record's length, then the record itself, and
// returns the record as a byte slice and any error encountered.
func (s *store) Read(pos uint64) ([]byte, error) {

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.buf.Flush(); err != nil {
		return nil, err
	}

	size := make([]byte, lenWidth)

	if _, err := s.File.ReadAt(size, int64(pos)); err != nil {
		return nil, err
	}

	b := make([]byte, enc.Uint64(size))

	if _, err := s.File.ReadAt(b, int64(pos+lenWidth)); err != nil {
		return nil, err
	}

	return b, nil
}

// ReadAt flushes the buffered writer, then reads from the store's file at
// the given offset into p. It returns the number of bytes read and any
// error encountered.
func (s *store) ReadAt(p []byte, off int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.buf.Flush(); err != nil {
		return 0, err
	}

	return s.File.ReadAt(p, off)
}

// Size returns the total number of bytes written to the store.
func (s *store) Size() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.size
}

// Close flushes the buffer and closes the underlying file. It is safe to
// call multiple times; calls after the first are no-ops.
func (s *store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	if err := s.buf.Flush(); err != nil {
		return err
	}

	s.closed = true
	return s.File.Close()
}
