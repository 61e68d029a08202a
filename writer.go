package rtable

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

// WriterOptions define writer specific options.
type WriterOptions struct {
	// Comparer defines the order of appended keys.
	// Default: NewInternalKeyComparer(BytewiseComparer).
	Comparer Comparer

	// BufferSize is the number of bytes buffered before records are
	// written through.
	// Default: 4KiB.
	BufferSize int
}

func (o *WriterOptions) norm() *WriterOptions {
	var oo WriterOptions
	if o != nil {
		oo = *o
	}

	if oo.Comparer == nil {
		oo.Comparer = NewInternalKeyComparer(BytewiseComparer)
	}
	if oo.BufferSize < 1 {
		oo.BufferSize = 1 << 12
	}

	return &oo
}

// Writer instances can write a table.
type Writer struct {
	w io.Writer
	o *WriterOptions

	props   Properties
	lastKey []byte
	offset  int64 // bytes written

	buf    []byte // pending records
	closed bool
}

// NewWriter wraps a writer and returns a Writer.
func NewWriter(w io.Writer, o *WriterOptions) *Writer {
	o = o.norm()
	return &Writer{
		w:     w,
		o:     o,
		props: Properties{ComparerName: o.Comparer.Name()},
		buf:   make([]byte, 0, o.BufferSize),
	}
}

// Append appends a record. The key must be an encoded internal key sorting
// after all previously appended keys.
func (w *Writer) Append(key, value []byte) error {
	if w.closed {
		return errClosed
	}
	if _, err := ParseInternalKey(key); err != nil {
		return err
	}
	if w.props.NumEntries != 0 && w.o.Comparer.Compare(key, w.lastKey) <= 0 {
		return errors.Errorf("rtable: attempted an out-of-order append, %q must be > %q", key, w.lastKey)
	}

	w.buf = appendRecord(w.buf, key, value)
	w.lastKey = append(w.lastKey[:0], key...)

	w.props.NumEntries++
	w.props.RawKeySize += uint64(len(key))
	w.props.RawValueSize += uint64(len(value))
	w.props.DataSize += uint64(2*lenPrefix + len(key) + len(value))

	if len(w.buf) >= w.o.BufferSize {
		return w.flush()
	}
	return nil
}

// Set is a shortcut for Append with an internal key of kind KindSet.
func (w *Writer) Set(userKey []byte, seq SeqNum, value []byte) error {
	return w.Append(MakeInternalKey(userKey, seq, KindSet).Encode(nil), value)
}

// Delete is a shortcut for Append with a tombstone.
func (w *Writer) Delete(userKey []byte, seq SeqNum) error {
	return w.Append(MakeInternalKey(userKey, seq, KindDelete).Encode(nil), nil)
}

// Close closes the writer
func (w *Writer) Close() error {
	if w.closed {
		return errClosed
	}
	if err := w.flush(); err != nil {
		return err
	}

	propsOffset := w.offset
	if err := w.writeRaw(w.props.encode(nil)); err != nil {
		return err
	}

	if err := w.writeFooter(propsOffset); err != nil {
		return err
	}
	w.closed = true
	return nil
}

func (w *Writer) writeFooter(propsOffset int64) error {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], uint64(propsOffset))
	if err := w.writeRaw(tmp[:]); err != nil {
		return err
	}
	return w.writeRaw(magic)
}

func (w *Writer) writeRaw(p []byte) error {
	n, err := w.w.Write(p)
	w.offset += int64(n)
	return err
}

func (w *Writer) flush() error {
	if len(w.buf) == 0 {
		return nil
	}
	err := w.writeRaw(w.buf)
	w.buf = w.buf[:0]
	return err
}
