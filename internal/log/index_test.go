package log

import (
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIndex(t *testing.T) {
	f, err := os.CreateTemp("", "index_test")
	require.NoError(t, err)
	defer os.Remove(f.Name())

	c := Config{}
	c.Segment.MaxIndexBytes = 1024
	idx, err := newIndex(f, c)
	require.NoError(t, err)

	// reading the last entry of an empty index fails
	_, _, err = idx.Read(-1)
	require.Error(t, err)
	require.True(t, idx.IsEmpty())
	require.Equal(t, f.Name(), idx.Name())

	entries := []struct {
		Off uint32
		Pos uint64
	}{
		{Off: 0, Pos: 0},
		{Off: 1, Pos: 10},
	}

	for _, want := range entries {
		err = idx.Write(want.Off, want.Pos)
		require.NoError(t, err)

		_, pos, err := idx.Read(int64(want.Off))
		require.NoError(t, err)
		require.Equal(t, want.Pos, pos)
	}
	require.Equal(t, uint64(len(entries))*entWidth, idx.Size())

	// reading past the written entries fails
	_, _, err = idx.Read(int64(len(entries)))
	require.Equal(t, io.EOF, err)

	// the entry layout on disk is little-endian: off u32, pos u64
	require.Equal(t,
		[]byte{1, 0, 0, 0, 10, 0, 0, 0, 0, 0, 0, 0},
		[]byte(idx.mmap[entWidth:2*entWidth]),
	)

	// close truncates the file back to the written size so a rebuilt
	// index picks up its state from the file length
	err = idx.Close()
	require.NoError(t, err)

	fi, err := os.Stat(f.Name())
	require.NoError(t, err)
	require.Equal(t, int64(len(entries))*int64(entWidth), fi.Size())

	f, err = os.OpenFile(f.Name(), os.O_RDWR, 0644)
	require.NoError(t, err)
	idx, err = newIndex(f, c)
	require.NoError(t, err)

	off, pos, err := idx.Read(-1)
	require.NoError(t, err)
	require.Equal(t, entries[1].Off, off)
	require.Equal(t, entries[1].Pos, pos)
}

func TestIndexFull(t *testing.T) {
	f, err := os.CreateTemp("", "index_full_test")
	require.NoError(t, err)
	defer os.Remove(f.Name())

	c := Config{}
	c.Segment.MaxIndexBytes = 2 * entWidth
	idx, err := newIndex(f, c)
	require.NoError(t, err)
	defer idx.Close()

	require.NoError(t, idx.Write(0, 0))
	require.NoError(t, idx.Write(1, 19))

	err = idx.Write(2, 38)
	require.Equal(t, io.EOF, err)
}
