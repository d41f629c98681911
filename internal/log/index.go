package log

import (
	"io"
	"os"

	"github.com/tysonmote/gommap"
)

var (
	offWidth uint64 = 4
	posWidth uint64 = 8
	entWidth        = offWidth + posWidth
)

type index struct {
	file   *os.File
	mmap   gommap.MMap
	size   uint64
	closed bool
}

// newIndex creates an index over the given file, using the file's current
// length as the number of bytes already written. The file is grown to the
// configured maximum index size before being memory-mapped: the mmap can't
// be resized later, so the room has to be there up front.
func newIndex(file *os.File, c Config) (*index, error) {
	idx := &index{
		file: file,
	}

	fi, err := os.Stat(file.Name())

	if err != nil {
		return nil, err
	}

	idx.size = uint64(fi.Size())

	if err = os.Truncate(
		file.Name(),
		int64(c.Segment.MaxIndexBytes),
	); err != nil {
		return nil, err
	}

	if idx.mmap, err = gommap.Map(
		idx.file.Fd(),
		gommap.PROT_READ|gommap.PROT_WRITE,
		gommap.MAP_SHARED,
	); err != nil {
		return nil, err
	}

	return idx, nil
}

// Close flushes the memory map, synchronizes the underlying file, truncates
// it back to the bytes actually written, and closes it. Truncating on close
// is what lets the next open derive the entry count from the file length.
// Safe to call multiple times.
func (i *index) Close() error {
	if i.closed {
		return nil
	}

	if err := i.mmap.Sync(gommap.MS_SYNC); err != nil {
		return err
	}

	if err := i.file.Sync(); err != nil {
		return err
	}

	if err := i.file.Truncate(int64(i.size)); err != nil {
		return err
	}

	i.closed = true
	return i.file.Close()
}

// Read returns the entry at number `in`: the record's offset relative to the
// segment's base offset and its byte position in the store. If `in` is -1,
// it returns the last entry. Reading from an empty index, or past the
// written entries, fails with io.EOF.
func (i *index) Read(in int64) (out uint32, pos uint64, err error) {

	if i.size == 0 {
		return 0, 0, io.EOF
	}

	if in == -1 {
		out = uint32((i.size / entWidth) - 1)
	} else {
		out = uint32(in)
	}

	pos = uint64(out) * entWidth

	if i.size < pos+entWidth {
		return 0, 0, io.EOF
	}

	out = enc.Uint32(i.mmap[pos : pos+offWidth])
	pos = enc.Uint64(i.mmap[pos+offWidth : pos+entWidth])
	return out, pos, nil
}

// Write appends the given offset and position as a new entry. It fails with
// io.EOF when the mmap has no room left for another entry.
func (i *index) Write(off uint32, pos uint64) error {
	if uint64(len(i.mmap)) < i.size+entWidth {
		return io.EOF
	}

	enc.PutUint32(i.mmap[i.size:i.size+offWidth], off)
	enc.PutUint64(i.mmap[i.size+offWidth:i.size+entWidth], pos)
	i.size += entWidth
	return nil
}

// IsEmpty reports whether the index holds no entries.
func (i *index) IsEmpty() bool {
	return i.size == 0
}

// Size returns the number of bytes written to the index.
func (i *index) Size() uint64 {
	return i.size
}

func (i *index) Name() string {
	return i.file.Name()
}
