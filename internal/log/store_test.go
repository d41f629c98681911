package log

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

var (
	write = []byte("hello world")
	width = uint64(len(write)) + lenWidth
)

// TestStoreAppendRead exercises the store's Append and Read methods.
//
// It creates a tempfile and creates a new store from it. It appends three
// records to the store, verifies that the positions are correct and that
// the records can be read back. It then builds a second store over the
// same file and verifies that the records can be read again.
func TestStoreAppendRead(t *testing.T) {
	f, err := os.CreateTemp("", "store_append_read_test")

	require.NoError(t, err)
	defer os.Remove(f.Name())

	s, err := newStore(f)
	require.NoError(t, err)

	testAppend(t, s)
	testRead(t, s)
	testReadAt(t, s)

	s, err = newStore(f)
	require.NoError(t, err)
	testRead(t, s)
}

// TestStoreFrame pins the frame layout: an 8-byte little-endian length
// header followed by the payload, with the first frame at position 0.
func TestStoreFrame(t *testing.T) {
	f, err := os.CreateTemp("", "store_frame_test")
	require.NoError(t, err)
	defer os.Remove(f.Name())

	s, err := newStore(f)
	require.NoError(t, err)

	n, pos, err := s.Append([]byte{1, 2, 3})
	require.NoError(t, err)
	require.Equal(t, uint64(11), n)
	require.Equal(t, uint64(0), pos)

	header := make([]byte, lenWidth)
	_, err = s.ReadAt(header, 0)
	require.NoError(t, err)
	require.Equal(t, []byte{3, 0, 0, 0, 0, 0, 0, 0}, header)

	read, err := s.Read(pos)
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3}, read)
}

func TestStoreClose(t *testing.T) {
	f, err := os.CreateTemp("", "store_close_test")
	require.NoError(t, err)
	defer os.Remove(f.Name())

	s, err := newStore(f)
	require.NoError(t, err)

	_, _, err = s.Append(write)
	require.NoError(t, err)

	f, beforeSize, err := openFile(f.Name())
	require.NoError(t, err)

	err = s.Close()
	require.NoError(t, err)

	// close again: the flush already happened and the file is closed
	err = s.Close()
	require.NoError(t, err)

	_, afterSize, err := openFile(f.Name())
	require.NoError(t, err)
	require.True(t, afterSize > beforeSize)

}

// testAppend exercises the store's Append method.
//
// It writes 3 records to the store, and verifies that the position
// returned by Append is correct.
func testAppend(t *testing.T, s *store) {
	t.Helper()
	for i := uint64(1); i < 4; i++ {
		n, pos, err := s.Append(write)
		require.NoError(t, err)
		require.Equal(t, pos+n, width*i)
	}
}

// testRead exercises the store's Read method.
//
// It reads 3 records from the store, and verifies that the data
// returned matches the data written.
func testRead(t *testing.T, s *store) {
	t.Helper()
	var pos uint64

	for i := uint64(1); i < 4; i++ {
		read, err := s.Read(pos)
		require.NoError(t, err)
		require.Equal(t, write, read)
		pos += width
	}
}

// testReadAt exercises the store's ReadAt method.
//
// It reads 3 records from the store at specific offsets, decoding each
// length header by hand and validating that the size and the data
// match what was written.
func testReadAt(t *testing.T, s *store) {
	t.Helper()

	for i, off := uint64(1), int64(0); i < 4; i++ {
		b := make([]byte, lenWidth)

		n, err := s.ReadAt(b, off)
		require.NoError(t, err)
		require.Equal(t, lenWidth, n)
		off += int64(n)

		size := enc.Uint64(b)
		b = make([]byte, size)
		n, err = s.ReadAt(b, off)
		require.NoError(t, err)
		require.Equal(t, write, b)
		require.Equal(t, int(size), n)
		off += int64(n)
	}
}

// openFile opens the named file with O_RDWR|O_CREATE|O_APPEND and returns the
// opened file and its size.
func openFile(name string) (file *os.File, size int64, err error) {
	f, err := os.OpenFile(
		name,
		os.O_RDWR|os.O_CREATE|os.O_APPEND,
		0644,
	)

	if err != nil {
		return nil, 0, err
	}

	fi, err := f.Stat()
	if err != nil {
		return nil, 0, err
	}

	return f, fi.Size(), nil
}
