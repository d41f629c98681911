package log

import (
	"fmt"
	"os"
	"path"

	api "github.com/seglog/seglog/api/v1"
)

type segment struct {
	store      *store
	index      *index
	baseOffset uint64
	nextOffset uint64
	config     Config
}

// newSegment opens (or creates) the segment's store and index files in the
// given directory, named `<baseOffset>.store` and `<baseOffset>.index`. The
// segment's next offset comes from the last index entry, or defaults to the
// base offset when the index is empty. It returns a pointer to the new
// segment and an error, if any.
func newSegment(dir string, baseOffset uint64, c Config) (*segment, error) {

	s := &segment{
		baseOffset: baseOffset,
		config:     c,
	}

	var err error

	storeFile, err := os.OpenFile(
		path.Join(dir, fmt.Sprintf("%d%s", baseOffset, ".store")),
		os.O_RDWR|os.O_CREATE|os.O_APPEND,
		0644,
	)

	if err != nil {
		return nil, err
	}

	if s.store, err = newStore(storeFile); err != nil {
		return nil, err
	}

	indexFile, err := os.OpenFile(
		path.Join(dir, fmt.Sprintf("%d%s", baseOffset, ".index")),
		os.O_RDWR|os.O_CREATE,
		0644,
	)

	if err != nil {
		return nil, err
	}

	if s.index, err = newIndex(indexFile, c); err != nil {
		return nil, err
	}

	if s.index.IsEmpty() {
		s.nextOffset = baseOffset
	} else {
		off, _, err := s.index.Read(-1)
		if err != nil {
			return nil, err
		}
		s.nextOffset = baseOffset + uint64(off) + 1
	}

	return s, nil

}

// Append assigns the segment's next offset to the record, encodes it, and
// writes it to the store, then writes the record's relative offset and
// store position to the index. The store write happens first: if the index
// write fails the segment is left with an unindexed tail rather than an
// entry pointing at nothing. It returns the offset of the appended record
// and any error encountered.
func (s *segment) Append(record *api.Record) (offset uint64, err error) {
	cur := s.nextOffset
	record.Offset = cur

	p, err := record.MarshalBinary()

	if err != nil {
		return 0, err
	}
	_, pos, err := s.store.Append(p)

	if err != nil {
		return 0, err
	}

	if err = s.index.Write(
		uint32(cur-s.baseOffset),
		pos,
	); err != nil {
		return 0, err
	}

	s.nextOffset++

	return cur, nil
}

// Read retrieves the record at the given absolute offset. The segment
// translates the absolute offset into an index entry number, looks up the
// record's position in the store, and decodes the stored payload.
func (s *segment) Read(offset uint64) (*api.Record, error) {

	_, pos, err := s.index.Read(int64(offset - s.baseOffset))

	if err != nil {
		return nil, err
	}

	p, err := s.store.Read(pos)

	if err != nil {
		return nil, err
	}

	record := &api.Record{}

	err = record.UnmarshalBinary(p)

	return record, err
}

// IsMaxed reports whether the segment has reached capacity on either file:
// long records fill the store first, many short records fill the index
// first.
func (s *segment) IsMaxed() bool {
	return s.store.Size() >= s.config.Segment.MaxStoreBytes ||
		s.index.Size() >= s.config.Segment.MaxIndexBytes
}

// Remove closes the segment and deletes its files from disk.
func (s *segment) Remove() error {

	if err := s.Close(); err != nil {
		return err
	}
	if err := os.Remove(s.index.Name()); err != nil {
		return err
	}
	if err := os.Remove(s.store.Name()); err != nil {
		return err
	}
	return nil
}

// Close closes the segment's index and then its store. Closing the index
// first truncates it to its written size so the next open can recover the
// entry count.
func (s *segment) Close() error {
	if err := s.index.Close(); err != nil {
		return err
	}

	if err := s.store.Close(); err != nil {
		return err
	}

	return nil
}
