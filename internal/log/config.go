package log

type Config struct {
	Segment struct {
		// MaxStoreBytes seals the segment once its store file reaches
		// this many bytes.
		MaxStoreBytes uint64
		// MaxIndexBytes seals the segment once its index reaches this
		// many bytes; it is also the size the index file is grown to
		// for the memory map.
		MaxIndexBytes uint64
		// InitialOffset is the base offset of the first segment when
		// the log directory starts out empty.
		InitialOffset uint64
	}
}
