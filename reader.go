package rtable

import (
	"io"
	"sync"

	"github.com/bsm/rtable/internal/mmap"
	"go.uber.org/zap"
)

// ReaderOptions define reader specific options.
type ReaderOptions struct {
	// AccessMode selects between on-demand reads and making the whole file
	// resident at open time.
	// Default: DirectAccess.
	AccessMode AccessMode

	// Logger receives diagnostic output.
	// Default: zap.L().
	Logger *zap.Logger
}

func (o *ReaderOptions) norm() *ReaderOptions {
	var oo ReaderOptions
	if o != nil {
		oo = *o
	}

	if !oo.AccessMode.isValid() {
		oo.AccessMode = DirectAccess
	}
	if oo.Logger == nil {
		oo.Logger = zap.L()
	}

	return &oo
}

// Mapper is implemented by files that can expose their entire contents
// without further I/O.
type Mapper interface {
	MapAll(size int64) ([]byte, error)
}

type fder interface {
	Fd() uintptr
}

// Reader instances serve lookups and iterators over a single table file.
// A Reader is safe for concurrent use once opened.
type Reader struct {
	file  io.ReaderAt
	size  int64
	cmp   Comparer
	props Properties
	log   *zap.Logger

	dataEnd int64
	data    []byte // the whole file in mapped mode
	mapped  bool   // data is owned by a mmap

	closeOnce sync.Once
	closed    chan struct{}
}

// Open opens a table. The comparer must match the order the file was written
// in; nil defaults to NewInternalKeyComparer(BytewiseComparer).
func Open(f io.ReaderAt, size int64, cmp Comparer, o *ReaderOptions) (*Reader, error) {
	o = o.norm()
	if cmp == nil {
		cmp = NewInternalKeyComparer(BytewiseComparer)
	}

	props, err := readProperties(f, size, magic)
	if err != nil {
		return nil, err
	}

	r := &Reader{
		file:    f,
		size:    size,
		cmp:     cmp,
		props:   *props,
		log:     o.Logger,
		dataEnd: dataStartOffset + int64(props.DataSize),
		closed:  make(chan struct{}),
	}
	if props.ComparerName != "" && props.ComparerName != cmp.Name() {
		r.log.Warn("rtable: comparer mismatch",
			zap.String("table", props.ComparerName),
			zap.String("reader", cmp.Name()))
	}

	if o.AccessMode == MappedAccess {
		if err := r.mapData(); err != nil {
			return nil, err
		}
	}

	r.log.Debug("rtable: opened",
		zap.Int64("size", size),
		zap.Stringer("mode", o.AccessMode),
		zap.Uint64("entries", props.NumEntries),
		zap.Uint64("data_size", props.DataSize))
	return r, nil
}

func (r *Reader) mapData() error {
	switch f := r.file.(type) {
	case Mapper:
		data, err := f.MapAll(r.size)
		if err != nil {
			return &ioError{op: "map", err: err}
		}
		if int64(len(data)) != r.size {
			return &ioError{op: "map", err: io.ErrUnexpectedEOF}
		}
		r.data = data
	case fder:
		data, err := mmap.Map(f.Fd(), int(r.size))
		if err != nil {
			return &ioError{op: "map", err: err}
		}
		r.data, r.mapped = data, true
	default:
		data := make([]byte, int(r.size))
		if err := readAt(r.file, data, 0, "map"); err != nil {
			return err
		}
		r.data = data
	}
	return nil
}

// Properties returns the table properties.
func (r *Reader) Properties() Properties { return r.props }

// Get scans the table from the start and offers every record whose key is
// not less than target to sink, until sink asks to stop or the data region
// is exhausted. Keys and values passed to sink are only valid for the
// duration of the call.
func (r *Reader) Get(target []byte, sink Sink) error {
	if r.isClosed() {
		return errClosed
	}
	if _, err := ParseInternalKey(target); err != nil {
		return err
	}

	buf := fetchBuffer()
	defer releaseBuffer(buf)

	for off := int64(dataStartOffset); off < r.dataEnd; {
		key, val, next, err := r.decodeRecord(off, buf)
		if err != nil {
			r.log.Error("rtable: lookup failed", zap.Int64("offset", off), zap.Error(err))
			return err
		}
		if _, err := ParseInternalKey(key); err != nil {
			return corruptf("record at offset %d: malformed key", off)
		}

		if r.cmp.Compare(key, target) >= 0 {
			if !sink.Offer(key, val) {
				break
			}
		}
		off = next
	}
	return nil
}

// Find returns a copy of the most recent value stored for userKey.
// It may return an ErrNotFound error.
func (r *Reader) Find(userKey []byte) ([]byte, error) {
	c := NewCollector(userKey, userComparer(r.cmp), 1)
	if err := r.Get(SearchKey(userKey), c); err != nil {
		return nil, err
	}
	if len(c.Values) == 0 {
		return nil, ErrNotFound
	}
	return c.Values[0], nil
}

// NewIterator returns an iterator over the table. When arena is non-nil the
// iterator is allocated from it and is released in bulk by Arena.Reset.
func (r *Reader) NewIterator(arena *Arena) *Iterator {
	var it *Iterator
	if arena == nil {
		it = new(Iterator)
	} else {
		it = arena.alloc()
	}
	it.init(r)
	return it
}

// ApproximateOffsetOf returns the approximate file offset of key. Tables
// carry no index, so this is always 0.
func (r *Reader) ApproximateOffsetOf(key []byte) int64 { return 0 }

// SetupForCompaction prepares the table for background maintenance. It is a
// no-op.
func (r *Reader) SetupForCompaction() {}

// Close releases resources. The reader and its iterators must not be used
// after this method is called. It does not close the underlying file.
func (r *Reader) Close() error {
	err := errClosed
	r.closeOnce.Do(func() {
		close(r.closed)
		err = nil
		if r.mapped {
			err = mmap.Unmap(r.data)
		}
	})
	return err
}

func (r *Reader) isClosed() bool {
	select {
	case <-r.closed:
		return true
	default:
		return false
	}
}

// --------------------------------------------------------------------

var bufPool sync.Pool

func fetchBuffer() *recordBuffer {
	if v := bufPool.Get(); v != nil {
		return v.(*recordBuffer)
	}
	return new(recordBuffer)
}

func releaseBuffer(b *recordBuffer) {
	bufPool.Put(b)
}
