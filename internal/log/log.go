package log

import (
	"fmt"
	"io"
	"os"
	"slices"
	"sort"
	"strconv"
	"strings"
	"sync"

	api "github.com/seglog/seglog/api/v1"
)

type Log struct {
	mu            sync.RWMutex
	Dir           string
	Config        Config
	activeSegment *segment
	segments      []*segment
}

type originReader struct {
	*store
	off int64
}

// NewLog returns a new Log over the given directory with the given config.
// Zero values for the store and index caps default to 1024. The log
// recovers any segments already on disk, or bootstraps one at the
// configured initial offset.
func NewLog(dir string, c Config) (*Log, error) {
	if c.Segment.MaxStoreBytes == 0 {
		c.Segment.MaxStoreBytes = 1024
	}

	if c.Segment.MaxIndexBytes == 0 {
		c.Segment.MaxIndexBytes = 1024
	}

	l := &Log{
		Dir:    dir,
		Config: c,
	}

	return l, l.setup()
}

// setup scans the log directory and opens one segment per base offset found
// there, oldest first. Each base offset appears on disk twice (.store and
// .index), so the offsets are collected through a set. Files whose name
// stem isn't an offset are ignored. If the directory holds no segments, a
// fresh one is created at the initial offset.
func (l *Log) setup() error {

	files, err := os.ReadDir(l.Dir)

	if err != nil {
		return err
	}

	bases := make(map[uint64]struct{})

	for _, file := range files {
		stem, _, _ := strings.Cut(file.Name(), ".")

		off, err := strconv.ParseUint(stem, 10, 64)
		if err != nil {
			continue
		}

		bases[off] = struct{}{}
	}

	baseOffsets := make([]uint64, 0, len(bases))
	for off := range bases {
		baseOffsets = append(baseOffsets, off)
	}
	slices.Sort(baseOffsets)

	for _, off := range baseOffsets {
		if err := l.newSegment(off); err != nil {
			return err
		}
	}

	if l.segments == nil {
		if err := l.newSegment(
			l.Config.Segment.InitialOffset,
		); err != nil {
			return err
		}
	}
	return nil
}

// Append appends the record to the active segment. If that fills the
// segment, the log rotates: a new segment starting at the next offset
// becomes active. It returns the offset the record was assigned and any
// error encountered.
func (l *Log) Append(record *api.Record) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.activeSegment == nil {
		return 0, fmt.Errorf("log has no active segment")
	}

	off, err := l.activeSegment.Append(record)

	if err != nil {
		return 0, err
	}

	if l.activeSegment.IsMaxed() {
		err = l.newSegment(off + 1)
	}

	return off, err
}

// Read retrieves the record at the given offset from whichever segment
// covers it, or fails with an out-of-range error when none does.
func (l *Log) Read(off uint64) (*api.Record, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	s := l.locate(off)

	if s == nil {
		return nil, api.ErrOffsetOutOfRange{Offset: off}
	}

	return s.Read(off)
}

// locate binary-searches the segments, which are kept sorted by base
// offset, for the one whose range covers off. It returns nil when no
// segment does.
func (l *Log) locate(off uint64) *segment {
	i := sort.Search(len(l.segments), func(i int) bool {
		return off < l.segments[i].nextOffset
	})

	if i == len(l.segments) {
		return nil
	}

	if s := l.segments[i]; s.baseOffset <= off {
		return s
	}

	return nil
}

// Close closes every segment in order. It is safe to call multiple times.
func (l *Log) Close() error {

	l.mu.Lock()
	defer l.mu.Unlock()

	for _, segment := range l.segments {
		if err := segment.Close(); err != nil {
			return err
		}
	}
	return nil
}

// Remove closes the log and deletes its directory and everything in it.
func (l *Log) Remove() error {
	if err := l.Close(); err != nil {
		return err
	}

	return os.RemoveAll(l.Dir)
}

// Reset removes the log's data and sets the log up again from scratch.
func (l *Log) Reset() error {
	if err := l.Remove(); err != nil {
		return err
	}

	l.segments = nil
	l.activeSegment = nil

	if err := os.MkdirAll(l.Dir, 0755); err != nil {
		return err
	}

	return l.setup()
}

// LowestOffset returns the offset of the oldest record still held by the
// log. It fails when the log has no segments.
func (l *Log) LowestOffset() (uint64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if len(l.segments) == 0 {
		return 0, fmt.Errorf("log has no segments")
	}

	return l.segments[0].baseOffset, nil
}

// HighestOffset returns the offset of the newest record in the log. A log
// that has never been appended to reports 0, the same as a log holding a
// single record at offset 0. It fails when the log has no segments.
func (l *Log) HighestOffset() (uint64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if len(l.segments) == 0 {
		return 0, fmt.Errorf("log has no segments")
	}

	off := l.segments[len(l.segments)-1].nextOffset

	if off == 0 {
		return 0, nil
	}

	return off - 1, nil
}

// Truncate removes every segment that holds no offset greater than lowest,
// deleting its files. Segments are only ever removed whole: offsets at or
// below lowest that share a segment with retained offsets stay readable.
func (l *Log) Truncate(lowest uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var segments []*segment

	for _, s := range l.segments {
		if s.nextOffset <= lowest+1 {
			if err := s.Remove(); err != nil {
				return err
			}
			continue
		}
		segments = append(segments, s)
	}
	l.segments = segments

	if len(segments) == 0 {
		l.activeSegment = nil
	} else {
		l.activeSegment = segments[len(segments)-1]
	}

	return nil
}

// Reader returns an io.Reader over the raw bytes of every segment's store,
// concatenated in base-offset order. The stream is frame-boundary agnostic:
// consumers decode the length-prefixed frames themselves.
func (l *Log) Reader() io.Reader {

	l.mu.RLock()
	defer l.mu.RUnlock()

	readers := make([]io.Reader, len(l.segments))

	for i, s := range l.segments {
		readers[i] = &originReader{
			store: s.store,
			off:   0,
		}
	}

	return io.MultiReader(readers...)
}

// Read reads up to len(p) bytes of the segment's store into p, advancing
// the reader's position by the number of bytes read. It returns io.EOF once
// the store is drained, which is io.MultiReader's cue to move to the next
// segment.
func (o *originReader) Read(p []byte) (int, error) {
	n, err := o.ReadAt(p, o.off)
	o.off += int64(n)
	return n, err
}

// newSegment opens a segment at the given base offset, appends it to the
// log's segments, and makes it the active segment.
func (l *Log) newSegment(off uint64) error {
	s, err := newSegment(l.Dir, off, l.Config)

	if err != nil {
		return err
	}

	l.segments = append(l.segments, s)
	l.activeSegment = s

	return nil
}
